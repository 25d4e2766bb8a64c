package web

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"sync"

	"github.com/bryanwahyu/renovator/internal/log"
)

//go:embed assets/index.html
var indexTmpl string

type Params struct {
	Title    string
	Endpoint string
}

// Templator renders the single page client.
type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator() *Templator {
	return &Templator{}
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("index").Parse(indexTmpl))
	})

	logger := log.FromContextOrDiscard(ctx).WithGroup("templator")
	logger.Debug("rendering page")

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
