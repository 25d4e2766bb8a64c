package renovation

import "context"

// Generator port (interface untuk image editing provider)
type Generator interface {
	Name() string
	Configured() bool
	CredentialName() string
	Edit(ctx context.Context, params EditParams) (EditResult, error)
}

// ImageStore port (interface untuk penyimpanan gambar)
type ImageStore interface {
	Upload(ctx context.Context, params UploadParams) (string, error)
}

// Repository port (interface untuk history)
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Latest(ctx context.Context, limit int) ([]*Record, error)
}
