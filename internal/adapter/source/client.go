package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodySize caps documents and icons
	DefaultMaxBodySize = 8 << 20
)

// ErrBodyTooLarge is returned when a response exceeds the configured cap
var ErrBodyTooLarge = errors.New("response body too large")

// Options configures the HTTP client used to fetch documents and icons
type Options struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	MaxBodySize  int64
	Logger       *zap.Logger
}

// Client fetches remote resources
type Client struct {
	retryClient *retryablehttp.Client
	logger      *zap.Logger
	maxBodySize int64
}

// NewClient creates a fetch client. RetryMax 0 means a single attempt.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Timeout: opts.Timeout}
	retryClient.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = opts.RetryWaitMax
	}
	retryClient.Logger = &retryLogger{logger: opts.Logger.Sugar()}

	return &Client{retryClient: retryClient, logger: opts.Logger, maxBodySize: opts.MaxBodySize}
}

// Get fetches a URL and returns its body and content type
func (c *Client) Get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create request")
	}

	start := time.Now()
	resp, err := c.retryClient.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "request to %s failed", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read response")
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, "", errors.Wrapf(ErrBodyTooLarge, "%s exceeds %d bytes", url, c.maxBodySize)
	}

	c.logger.Debug("fetched resource",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.Int("size", len(body)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// retryLogger adapts zap to retryablehttp
type retryLogger struct {
	logger *zap.SugaredLogger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnw(msg, keysAndValues...)
}
