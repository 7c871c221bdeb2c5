// Package archive packages processed images into a single deflate-compressed
// zip archive that can be returned to clients in one response.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ErrEmptyArchive is returned when Pack is called without any entries.
var ErrEmptyArchive = errors.New("archive must contain at least one entry")

// Entry is a single file written into an archive.
type Entry struct {
	Name string
	Data []byte
}

// Packer builds archives from entries.
type Packer interface {
	Pack(entries []Entry) ([]byte, error)
}

// ZipPacker writes entries into an in-memory zip archive.
type ZipPacker struct {
	// now is injectable for deterministic modification times in tests
	now func() time.Time
}

// NewZipPacker creates a ZipPacker.
func NewZipPacker() *ZipPacker {
	return &ZipPacker{now: time.Now}
}

// Pack writes entries in order. Duplicate names are disambiguated by
// appending _2, _3 and so on before the extension.
func (p *ZipPacker) Pack(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyArchive
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := p.now()
	seen := make(map[string]int, len(entries))

	for _, entry := range entries {
		name := uniqueName(entry.Name, seen)

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("failed to create archive entry %q: %w", name, err)
		}

		if _, err := w.Write(entry.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("failed to write archive entry %q: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

func uniqueName(name string, seen map[string]int) string {
	name = filepath.Base(name)
	seen[name]++
	if seen[name] == 1 {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := seen[name]; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if seen[candidate] == 0 {
			seen[candidate]++
			return candidate
		}
	}
}
