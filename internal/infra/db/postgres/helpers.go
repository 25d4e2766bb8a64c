package postgres

import "strings"

// stringOrDash keeps NOT NULL text columns readable when a value is missing
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
