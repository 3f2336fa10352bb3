package identity

import (
	"bytes"
	"testing"
)

func TestRenderQRProducesPNG(t *testing.T) {
	img, format, err := RenderQR("https://shop.example.com/portal/CL-ABCD1234")
	if err != nil {
		t.Fatalf("RenderQR returned error: %v", err)
	}
	if format != FormatPNG {
		t.Fatalf("expected PNG format got %s", format)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Fatal("output does not look like a PNG")
	}
}

func TestRenderQRRejectsOversizedPayload(t *testing.T) {
	payload := make([]byte, 8000)
	for i := range payload {
		payload[i] = 'a'
	}
	_, _, err := RenderQR(string(payload))
	if err == nil {
		t.Fatal("expected encoding error for oversized payload")
	}
	if _, ok := err.(*EncodingError); !ok {
		t.Fatalf("expected *EncodingError got %T", err)
	}
}

func TestRenderSVGFallbackShape(t *testing.T) {
	bitmap := [][]bool{
		{true, false},
		{false, true},
	}
	svg, err := renderSVG(bitmap)
	if err != nil {
		t.Fatalf("renderSVG returned error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("</svg>")) {
		t.Fatal("svg output malformed")
	}
	if !bytes.Contains(svg, []byte(`fill="#000000"`)) {
		t.Fatal("expected dark modules in svg output")
	}
}
