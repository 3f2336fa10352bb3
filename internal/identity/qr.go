package identity

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Format identifies a rendered QR image encoding.
type Format string

const (
	FormatPNG Format = "image/png"
	FormatSVG Format = "image/svg+xml"
)

// QR raster geometry. The raster is rendered at a fixed edge length; the SVG
// fallback uses a fixed per-module size with the same quiet-zone margin.
const (
	qrImageSize    = 300
	qrModulePixels = 8
)

// EncodingError wraps a failure to render a payload as a QR image.
type EncodingError struct {
	Payload string
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("identity: qr encoding failed for %q: %v", e.Payload, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// RenderQR converts a payload into QR image bytes. PNG is the primary
// format; if the raster encoder fails an SVG rendition is produced instead.
func RenderQR(payload string) ([]byte, Format, error) {
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, "", &EncodingError{Payload: payload, Err: err}
	}

	png, err := code.PNG(qrImageSize)
	if err == nil {
		return png, FormatPNG, nil
	}

	svg, svgErr := renderSVG(code.Bitmap())
	if svgErr != nil {
		return nil, "", &EncodingError{Payload: payload, Err: err}
	}
	return svg, FormatSVG, nil
}

// renderSVG draws the module bitmap as fixed-size squares. The bitmap from
// the encoder already includes the quiet-zone border.
func renderSVG(bitmap [][]bool) ([]byte, error) {
	if len(bitmap) == 0 {
		return nil, fmt.Errorf("empty bitmap")
	}
	edge := len(bitmap) * qrModulePixels

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, edge, edge, edge, edge)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="#ffffff"/>`, edge, edge)
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="#000000"/>`,
				x*qrModulePixels, y*qrModulePixels, qrModulePixels, qrModulePixels)
		}
	}
	sb.WriteString(`</svg>`)
	return []byte(sb.String()), nil
}
