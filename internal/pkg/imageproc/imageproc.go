package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// ContentType of every image produced by this package.
const ContentType = "image/jpeg"

const jpegQuality = 85

// FitWidth decodes an image (honouring EXIF orientation), shrinks it to at most
// maxWidth pixels wide keeping the aspect ratio, and re-encodes it as JPEG.
// Smaller images are re-encoded without resizing.
func FitWidth(r io.Reader, maxWidth int) (*bytes.Buffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	return encode(img)
}

// Square crops the centre of an image and scales it to size x size, for avatars.
func Square(r io.Reader, size int) (*bytes.Buffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return encode(imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos))
}

func encode(img image.Image) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf, nil
}
