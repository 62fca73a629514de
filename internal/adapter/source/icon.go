package source

import (
	"context"
	"encoding/base64"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/simaogato/flowviz/internal/domain"
)

// IconLoader fetches entity icons and inlines them as data URIs so rendered
// frames do not depend on the client resolving relative paths
type IconLoader struct {
	client   *Client
	resolver *DocumentSource
}

// NewIconLoader creates an icon loader resolving references against the
// document location
func NewIconLoader(client *Client, resolver *DocumentSource) *IconLoader {
	return &IconLoader{client: client, resolver: resolver}
}

// Load resolves and fetches an icon
func (l *IconLoader) Load(ctx context.Context, ref string) (*domain.Icon, error) {
	if ref == "" {
		return nil, errors.New("empty icon reference")
	}
	if strings.HasPrefix(ref, "data:") {
		return &domain.Icon{Href: ref}, nil
	}

	location := ref
	if l.resolver != nil {
		location = l.resolver.Resolve(ref)
	}

	var body []byte
	var contentType string
	var err error
	if isRemote(location) {
		body, contentType, err = l.client.Get(ctx, location)
		if err != nil {
			return nil, err
		}
	} else {
		body, err = os.ReadFile(location)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read icon %s", location)
		}
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(location))
	}
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.Errorf("icon %s is not an image (%s)", location, contentType)
	}

	return &domain.Icon{
		Href:        "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body),
		ContentType: contentType,
	}, nil
}
