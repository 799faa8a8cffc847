package compose

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

const pdfUnit = "in"

// render serializes doc with the already-normalized images keyed by role.
func render(doc Document, images map[core.ImageRole][]byte, created time.Time, compress bool) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        pdfUnit,
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(compress)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle("Custom Card", true)
	pdf.SetCreator("cardaverse-customcard", true)

	for _, role := range doc.Roles() {
		pdf.RegisterImageOptionsReader(string(role), fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(images[role]))
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("register images: %w", err)
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, img := range page.Images {
			drawImage(pdf, img)
		}
		for _, txt := range page.Texts {
			drawText(pdf, txt, tr)
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("page %q: %w", page.Name, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawImage(pdf *fpdf.Fpdf, p ImagePlacement) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	if p.Rotation == 0 {
		pdf.ImageOptions(string(p.Role), p.X, p.Y, p.W, p.H, false, opts, 0, "")
		return
	}
	pdf.TransformBegin()
	pdf.TransformRotate(p.Rotation, p.X, p.Y+p.H)
	pdf.ImageOptions(string(p.Role), p.X, p.Y, p.W, p.H, false, opts, 0, "")
	pdf.TransformEnd()
}

func drawText(pdf *fpdf.Fpdf, t TextPlacement, tr func(string) string) {
	if strings.TrimSpace(t.Content) == "" {
		return
	}
	pdf.SetFont(t.Font, "", float64(t.Size))
	r, g, b := RGB(t.Color)
	pdf.SetTextColor(r, g, b)

	lines := wrapText(tr(t.Content), t.MaxWidth, pdf.GetStringWidth)

	pdf.TransformBegin()
	if t.Rotation != 0 {
		pdf.TransformRotate(t.Rotation, t.X, t.Y)
	}
	for i, line := range lines {
		pdf.Text(t.X, t.Y+float64(i)*t.LineHeight, line)
	}
	pdf.TransformEnd()
}

// wrapText breaks text into lines no wider than width. Explicit newlines are kept and
// words wider than a full line are split. text must be single-byte encoded.
func wrapText(text string, width float64, measure func(string) float64) []string {
	var lines []string
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if measure(candidate) <= width {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			current = word
			for len(current) > 1 && measure(current) > width {
				cut := len(current) - 1
				for cut > 1 && measure(current[:cut]) > width {
					cut--
				}
				lines = append(lines, current[:cut])
				current = current[cut:]
			}
		}
		lines = append(lines, current)
	}
	return lines
}

// normalizeImage re-encodes any decodable raster as an 8-bit PNG, shrinking it so the
// long side is at most maxDim pixels when maxDim is positive.
func normalizeImage(data []byte, maxDim int) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var img *image.NRGBA
	if b := src.Bounds(); maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(src, maxDim, maxDim, imaging.Lanczos)
	} else {
		img = imaging.Clone(src)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
