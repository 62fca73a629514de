package domain

import "context"

// DocumentSource fetches the data document
type DocumentSource interface {
	// Load fetches and decodes the document
	Load(ctx context.Context) (*Document, error)
}

// Icon is a loaded entity image
type Icon struct {
	Href        string
	ContentType string
}

// IconLoader resolves an icon reference into a drawable image
type IconLoader interface {
	// Load fetches the icon. It may block and is called off the caller's goroutine.
	Load(ctx context.Context, ref string) (*Icon, error)
}
