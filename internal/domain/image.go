package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the accepted upload extensions (lower case).
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Image is a named blob of encoded image data.
// It is used both for uploaded inputs and for transformed outputs.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewImage creates an Image after validating its name and content.
func NewImage(name string, data []byte) (Image, error) {
	img := Image{
		Name:        filepath.Base(name),
		ContentType: ContentTypeFor(name),
		Data:        data,
	}

	if err := img.Validate(); err != nil {
		return Image{}, err
	}

	return img, nil
}

// Validate checks that the image has a supported name and non-empty content.
func (i Image) Validate() error {
	if err := ValidateImageName(i.Name); err != nil {
		return err
	}

	if len(i.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyImage, i.Name)
	}

	return nil
}

// Stem returns the file name without directory and extension.
func (i Image) Stem() string {
	base := filepath.Base(i.Name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ValidateImageName checks the extension of name against SupportedExtensions,
// ignoring case.
func ValidateImageName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: file name is required", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
}

// ContentTypeFor guesses the MIME type of an image from its extension.
// Unknown extensions map to application/octet-stream.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// WhiteOutputName is the file name given to a background-removed image.
func WhiteOutputName(src Image) string {
	return src.Stem() + "_white.png"
}

// InteriorOutputName is the file name given to an image placed in a
// generated scene of the given category.
func InteriorOutputName(src Image, category string) string {
	return fmt.Sprintf("%s_in_%s.jpg", src.Stem(), strings.ToLower(category))
}
