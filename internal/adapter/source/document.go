package source

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/simaogato/flowviz/internal/domain"
)

// DocumentSource loads the data document from an http(s) URL or a file path
type DocumentSource struct {
	Location string
	client   *Client
}

// NewDocumentSource creates a document source
func NewDocumentSource(location string, client *Client) *DocumentSource {
	return &DocumentSource{Location: location, client: client}
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Load fetches and decodes the document. Nothing is cached: every call
// fetches again.
func (s *DocumentSource) Load(ctx context.Context) (*domain.Document, error) {
	var body []byte
	var err error
	if isRemote(s.Location) {
		body, _, err = s.client.Get(ctx, s.Location)
	} else {
		body, err = os.ReadFile(s.Location)
		err = errors.Wrap(err, "failed to read document")
	}
	if err != nil {
		return nil, err
	}

	var doc domain.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse document")
	}
	return &doc, nil
}

// Resolve turns an icon reference found in the document into an absolute
// URL or file path, relative to the document location
func (s *DocumentSource) Resolve(ref string) string {
	if ref == "" || isRemote(ref) || strings.HasPrefix(ref, "data:") || filepath.IsAbs(ref) {
		return ref
	}
	if isRemote(s.Location) {
		base, err := url.Parse(s.Location)
		if err != nil {
			return ref
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return base.ResolveReference(rel).String()
	}
	return path.Join(filepath.ToSlash(filepath.Dir(s.Location)), ref)
}
