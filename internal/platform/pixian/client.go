package pixian

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/phrazzld/prodshot-api/internal/config"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/sethvargo/go-retry"
)

const (
	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512

	defaultBaseDelay = 500 * time.Millisecond
	maxDelay         = 10 * time.Second
	jitterPercent    = 25
)

// Client removes image backgrounds using the Pixian.AI API.
type Client struct {
	httpClient *http.Client
	config     config.PixianConfig
	baseDelay  time.Duration
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithBaseDelay sets the first backoff interval between retries.
func WithBaseDelay(d time.Duration) Option {
	return func(client *Client) {
		client.baseDelay = d
	}
}

// NewClient creates a Client from cfg.
func NewClient(cfg config.PixianConfig, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: api url cannot be empty", ErrInvalidConfig)
	}
	if cfg.APIUser == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api credentials cannot be empty", ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfig)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		config:     cfg,
		baseDelay:  defaultBaseDelay,
		logger:     logger.With("component", "pixian_client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// RemoveBackground uploads img and returns the PNG with a plain background.
func (c *Client) RemoveBackground(ctx context.Context, img domain.Image) (domain.Image, error) {
	body, contentType, err := c.buildForm(img)
	if err != nil {
		return domain.Image{}, err
	}

	backoff := retry.NewExponential(c.baseDelay)
	backoff = retry.WithJitterPercent(jitterPercent, backoff)
	backoff = retry.WithCappedDuration(maxDelay, backoff)
	backoff = retry.WithMaxRetries(uint64(c.config.MaxRetries), backoff)

	attempt := 0
	var data []byte

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		logger := c.logger.With("file_name", img.Name, "attempt", attempt, "max_attempts", c.config.MaxRetries+1)

		out, err := c.post(ctx, body, contentType)
		if err == nil {
			data = out
			logger.DebugContext(ctx, "background removed", "output_bytes", len(out))
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			logger.ErrorContext(ctx, "pixian rejected request", "status_code", statusErr.StatusCode)
			return err
		}
		if errors.Is(err, ErrEmptyResponse) {
			return err
		}

		logger.WarnContext(ctx, "pixian request failed, will retry", "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return domain.Image{}, err
	}

	return domain.Image{
		Name:        domain.WhiteOutputName(img),
		ContentType: "image/png",
		Data:        data,
	}, nil
}

// buildForm encodes img with the configured background options. The form is
// built once and replayed on every attempt.
func (c *Client) buildForm(img domain.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := img.ContentType
	if contentType == "" {
		contentType = domain.ContentTypeFor(img.Name)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Name))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}

	fields := []struct{ name, value string }{
		{"background.color", c.config.BackgroundColor},
		{"test", strconv.FormatBool(c.config.TestMode)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalise form: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, body []byte, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(c.config.APIUser, c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixian request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pixian response: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyResponse
	}

	return data, nil
}
