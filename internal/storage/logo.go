// Package storage keeps company logo images in S3-compatible object storage.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.Decode
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	// MaxLogoSize is the largest accepted upload.
	MaxLogoSize = 2 * 1024 * 1024
	// MaxLogoWidth is the width logos are scaled down to.
	MaxLogoWidth = 512
	// MaxLogoDimension bounds the declared width and height of an upload so
	// decoding cannot allocate an oversized pixel buffer.
	MaxLogoDimension = 4096
	// LogoContentType is the type of every stored logo.
	LogoContentType = "image/png"
)

var (
	ErrLogoTooLarge     = errors.New("logo too large, maximum size is 2MB")
	ErrInvalidImageData = errors.New("invalid image data")
	ErrLogoDimensions   = fmt.Errorf("logo dimensions exceed %dx%d pixels", MaxLogoDimension, MaxLogoDimension)
)

// ProcessLogo decodes an uploaded PNG, JPEG or GIF, scales it down to at
// most MaxLogoWidth pixels wide keeping the aspect ratio, and re-encodes it
// as PNG so transparency survives.
func ProcessLogo(data []byte) ([]byte, error) {
	if len(data) > MaxLogoSize {
		return nil, ErrLogoTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxLogoDimension || cfg.Height > MaxLogoDimension {
		return nil, ErrLogoDimensions
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	if img.Bounds().Dx() > MaxLogoWidth {
		img = imaging.Resize(img, MaxLogoWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	return buf.Bytes(), nil
}
