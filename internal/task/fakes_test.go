package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/phrazzld/prodshot-api/internal/archive"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/stretchr/testify/require"
)

var errProvider = errors.New("provider failure")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// fakeTransformer records calls and delegates to fn when set.
type fakeTransformer struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, mode domain.Mode, img domain.Image) (domain.Image, error)
}

func (f *fakeTransformer) Transform(ctx context.Context, mode domain.Mode, img domain.Image) (domain.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, img.Name)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, mode, img)
	}
	return domain.Image{
		Name: domain.WhiteOutputName(img),
		Data: append([]byte("out:"), img.Data...),
	}, nil
}

func (f *fakeTransformer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// failingNames returns a transform func failing for the listed names.
func failingNames(names ...string) func(context.Context, domain.Mode, domain.Image) (domain.Image, error) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(_ context.Context, _ domain.Mode, img domain.Image) (domain.Image, error) {
		if set[img.Name] {
			return domain.Image{}, fmt.Errorf("%w: %s", errProvider, img.Name)
		}
		return domain.Image{Name: domain.WhiteOutputName(img), Data: img.Data}, nil
	}
}

type failingPacker struct{}

func (failingPacker) Pack([]archive.Entry) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func makeFiles(n int) []domain.Image {
	files := make([]domain.Image, n)
	for i := range files {
		files[i] = domain.Image{
			Name: fmt.Sprintf("img%d.png", i+1),
			Data: []byte(fmt.Sprintf("data-%d", i+1)),
		}
	}
	return files
}

func newTestProcessor(t *testing.T, store *Store, tr Transformer) *BatchProcessor {
	t.Helper()
	p, err := NewBatchProcessor(store, tr, archive.NewZipPacker(), discardLogger())
	require.NoError(t, err)
	return p
}

func archiveNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

// syncScheduler runs tasks inline, used where background timing is irrelevant.
type syncScheduler struct {
	processor Processor
}

func (s syncScheduler) Submit(id uuid.UUID) error {
	s.processor.Process(context.Background(), id)
	return nil
}

type rejectingScheduler struct{ err error }

func (s rejectingScheduler) Submit(uuid.UUID) error { return s.err }
