package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the webp decoder with image.Decode
)

// Target aspect ratio of interior shots (width:height).
const (
	aspectWidth  = 3
	aspectHeight = 4
	jpegQuality  = 95
)

// decodeImage decodes PNG, JPEG or WebP bytes, honouring EXIF orientation.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}
	return img, nil
}

// padToAspect centres img on the smallest white canvas with the target
// aspect ratio that contains it. Nothing of the product is cut off.
func padToAspect(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	cw, ch := w, h
	if w*aspectHeight > h*aspectWidth {
		// too wide: grow height
		ch = ceilDiv(w*aspectHeight, aspectWidth)
	} else {
		cw = ceilDiv(h*aspectWidth, aspectHeight)
	}

	canvas := imaging.New(cw, ch, color.White)
	return imaging.PasteCenter(canvas, img)
}

// cropToAspect cuts the largest centred region with the target aspect ratio
// out of img.
func cropToAspect(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	cw, ch := w, h
	if w*aspectHeight > h*aspectWidth {
		cw = h * aspectWidth / aspectHeight
	} else {
		ch = w * aspectHeight / aspectWidth
	}

	return imaging.CropCenter(img, max(cw, 1), max(ch, 1))
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeImage, err)
	}
	return buf.Bytes(), nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
