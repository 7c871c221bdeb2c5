package pixian

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/prodshot-api/internal/config"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) config.PixianConfig {
	return config.PixianConfig{
		APIURL:          url,
		APIUser:         "user",
		APIKey:          "secret",
		BackgroundColor: "FFFFFF",
		TestMode:        true,
		TimeoutSeconds:  5,
		MaxRetries:      2,
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(testConfig(url), logger, WithBaseDelay(time.Millisecond))
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		mutate func(*config.PixianConfig)
	}{
		{"missing url", func(c *config.PixianConfig) { c.APIURL = "" }},
		{"missing user", func(c *config.PixianConfig) { c.APIUser = "" }},
		{"missing key", func(c *config.PixianConfig) { c.APIKey = "" }},
		{"negative retries", func(c *config.PixianConfig) { c.MaxRetries = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig("http://localhost")
			tc.mutate(&cfg)
			_, err := NewClient(cfg, logger)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := NewClient(testConfig("http://localhost"), nil)
	assert.Error(t, err)
}

func TestClient_RemoveBackground(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("background.color") != "FFFFFF" || r.FormValue("test") != "true" {
			http.Error(w, "bad fields", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		if header.Filename != "chair.jpg" || header.Header.Get("Content-Type") != "image/jpeg" {
			http.Error(w, "bad file part", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(append([]byte("png:"), data...))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	out, err := c.RemoveBackground(context.Background(), domain.Image{Name: "chair.jpg", Data: []byte("raw")})
	require.NoError(t, err)

	assert.Equal(t, "chair_white.png", out.Name)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, []byte("png:raw"), out.Data)
}

func TestClient_FormPartsHaveFixedOrder(t *testing.T) {
	t.Parallel()

	const requests = 10

	var (
		mu   sync.Mutex
		seen [][]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var names []string
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			names = append(names, part.FormName())
			_ = part.Close()
		}

		mu.Lock()
		seen = append(seen, names)
		mu.Unlock()

		_, _ = w.Write([]byte("png"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	for i := 0; i < requests; i++ {
		_, err := c.RemoveBackground(context.Background(), domain.Image{Name: "chair.jpg", Data: []byte("raw")})
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, requests)
	for _, names := range seen {
		assert.Equal(t, []string{"image", "background.color", "test"}, names)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch n {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	out, err := c.RemoveBackground(context.Background(), domain.Image{Name: "a.png", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), out.Data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.RemoveBackground(context.Background(), domain.Image{Name: "a.png", Data: []byte("x")})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported image", http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.RemoveBackground(context.Background(), domain.Image{Name: "a.png", Data: []byte("x")})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "unsupported image")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_EmptyResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.RemoveBackground(context.Background(), domain.Image{Name: "a.png", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_CancelledContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, server.URL)
	_, err := c.RemoveBackground(ctx, domain.Image{Name: "a.png", Data: []byte("x")})
	assert.Error(t, err)
}
