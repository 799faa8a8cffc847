package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{G: 180, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}
	return buf.Bytes()
}

func testImageSet(t *testing.T) core.ImageSet {
	t.Helper()
	var set core.ImageSet
	for _, role := range core.ImageRoles {
		set.Set(core.FetchedImage{Role: role, Format: core.FormatPNG, Data: testPNG(t, 8, 8)})
	}
	return set
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestLayout_Defaults(t *testing.T) {
	doc := Layout(core.CardRequest{Message: "hi"})
	text := doc.Pages[1].Texts[0]
	if text.Font != DefaultFont || text.Color != DefaultColor || text.Size != DefaultSize {
		t.Errorf("Defaults not applied: font=%q color=%q size=%d", text.Font, text.Color, text.Size)
	}
}

func TestLayout_Structure(t *testing.T) {
	doc := Layout(core.CardRequest{Message: "Happy Birthday", Font: "Arial", Color: "#FF0000", Size: "34px"})

	if len(doc.Pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(doc.Pages))
	}
	front, inside := doc.Pages[0], doc.Pages[1]
	if len(front.Images) != 2 || len(front.Texts) != 0 {
		t.Errorf("Front page: got %d images and %d texts", len(front.Images), len(front.Texts))
	}
	if front.Images[0].Role != core.RoleTemplate || front.Images[1].Role != core.RoleProduct {
		t.Errorf("Front page image order: %q, %q", front.Images[0].Role, front.Images[1].Role)
	}
	if len(inside.Images) != 1 || len(inside.Texts) != 1 {
		t.Fatalf("Inside page: got %d images and %d texts", len(inside.Images), len(inside.Texts))
	}
	if inside.Images[0].Role != core.RoleInside {
		t.Errorf("Inside page image role: %q", inside.Images[0].Role)
	}

	text := inside.Texts[0]
	if text.Content != "Happy Birthday" {
		t.Errorf("Text content mismatch: %q", text.Content)
	}
	if text.Rotation != 270 {
		t.Errorf("Text rotation: got %v, want 270", text.Rotation)
	}
	if text.Size != 34 || text.Font != "helvetica" || text.Color != "#ff0000" {
		t.Errorf("Text style mismatch: %+v", text)
	}
	if text.X != 3.64 || text.Y != 0.47 || text.MaxWidth != 3.6 {
		t.Errorf("Text position mismatch: %+v", text)
	}

	product := front.Images[1]
	if product.X != 0.24 || product.Y != -3.75 || product.W != 4 || product.H != 4 || product.Rotation != 270 {
		t.Errorf("Product placement mismatch: %+v", product)
	}
}

func TestLayout_Idempotent(t *testing.T) {
	req := core.CardRequest{Message: "Same\nthing", Font: "Times", Color: "#123", Size: "18pt"}
	if a, b := Layout(req), Layout(req); !reflect.DeepEqual(a, b) {
		t.Errorf("Layout() is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestCompose_TwoPagePDF(t *testing.T) {
	c := NewComposer(Options{ValidateImages: true, Now: fixedNow, Uncompressed: true})
	req := core.CardRequest{Message: "Happy Birthday", Font: "Arial", Color: "#FF0000", Size: "34px"}

	out, err := c.Compose(req, testImageSet(t))
	if err != nil {
		t.Fatalf("Compose() failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("Output is not a PDF")
	}

	n, err := api.PageCount(bytes.NewReader(out), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("api.PageCount() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 pages, got %d", n)
	}

	if draws := bytes.Count(out, []byte(" Do Q")); draws != 3 {
		t.Errorf("Expected 3 image draws, got %d", draws)
	}
	if !bytes.Contains(out, []byte("(Happy Birthday) Tj")) {
		t.Error("Message text not found in page content")
	}
}

func TestCompose_Deterministic(t *testing.T) {
	c := NewComposer(Options{ValidateImages: true, Now: fixedNow})
	req := core.CardRequest{Message: "Thanks!"}
	images := testImageSet(t)

	a, err := c.Compose(req, images)
	if err != nil {
		t.Fatalf("Compose() failed: %v", err)
	}
	b, err := c.Compose(req, images)
	if err != nil {
		t.Fatalf("Compose() failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Compose() output differs between identical calls")
	}
}

func TestCompose_EmptyMessage(t *testing.T) {
	c := NewComposer(Options{ValidateImages: true, Now: fixedNow, Uncompressed: true})
	out, err := c.Compose(core.CardRequest{}, testImageSet(t))
	if err != nil {
		t.Fatalf("Compose() failed: %v", err)
	}
	if bytes.Contains(out, []byte(" Tj")) {
		t.Error("Empty message should not emit text")
	}
}

func TestCompose_InvalidInput(t *testing.T) {
	c := NewComposer(Options{ValidateImages: true, Now: fixedNow})
	images := testImageSet(t)
	images.Set(core.FetchedImage{Role: core.RoleProduct, Data: []byte("GIF89a not a png")})

	_, err := c.Compose(core.CardRequest{Message: "x"}, images)
	if !core.IsComposeKind(err, core.ComposeInvalidInput) {
		t.Fatalf("Expected invalid input error, got %v", err)
	}
	if !strings.Contains(err.Error(), string(core.RoleProduct)) {
		t.Errorf("Error should name the role: %v", err)
	}
}

func TestCompose_MissingImage(t *testing.T) {
	c := NewComposer(Options{ValidateImages: false, Now: fixedNow})
	images := testImageSet(t)
	images.Set(core.FetchedImage{Role: core.RoleInside})

	_, err := c.Compose(core.CardRequest{}, images)
	if !core.IsComposeKind(err, core.ComposeInvalidInput) {
		t.Fatalf("Expected invalid input error, got %v", err)
	}
}

func TestCompose_CorruptPNG(t *testing.T) {
	c := NewComposer(Options{ValidateImages: true, Now: fixedNow})
	images := testImageSet(t)
	corrupt := append(append([]byte{}, core.PNGSignature...), []byte("garbage chunk data")...)
	images.Set(core.FetchedImage{Role: core.RoleTemplate, Data: corrupt})

	_, err := c.Compose(core.CardRequest{}, images)
	if !core.IsComposeKind(err, core.ComposeEncodingFailure) {
		t.Fatalf("Expected encoding failure, got %v", err)
	}
}

func TestCompose_DownscalesLargeImages(t *testing.T) {
	data, err := normalizeImage(testPNG(t, 64, 32), 16)
	if err != nil {
		t.Fatalf("normalizeImage() failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.DecodeConfig() failed: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("Expected 16x8, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestWrapText(t *testing.T) {
	// One unit per byte.
	measure := func(s string) float64 { return float64(len(s)) }

	cases := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"wraps", "hello big world", 9, []string{"hello big", "world"}},
		{"newlines", "a\n\nb", 10, []string{"a", "", "b"}},
		{"crlf", "a\r\nb", 10, []string{"a", "b"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
	}
	for _, tc := range cases {
		got := wrapText(tc.text, tc.width, measure)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: wrapText() = %q, want %q", tc.name, got, tc.want)
		}
	}
}
