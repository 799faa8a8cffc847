package compose

import "github.com/cardaverse-ai/cardaverse-customcard/core"

// Page geometry in inches (US Letter).
const (
	PageWidth  = 8.5
	PageHeight = 11.0

	// lineHeightFactor matches the usual 1.15 leading of browser PDF libraries.
	lineHeightFactor = 1.15
	pointsPerInch    = 72.0
)

const (
	PageFront  = "front"
	PageInside = "inside"
)

type (
	// Document is the resolved layout of a card before serialization.
	Document struct {
		Pages []Page
	}

	Page struct {
		Name   string
		Images []ImagePlacement
		Texts  []TextPlacement
	}

	// ImagePlacement positions an image. Rotation is counter-clockwise in degrees
	// around the bottom-left corner (X, Y+H).
	ImagePlacement struct {
		Role     core.ImageRole
		X, Y     float64
		W, H     float64
		Rotation float64
	}

	// TextPlacement positions wrapped text. Rotation is counter-clockwise in degrees
	// around the anchor (X, Y), which is the baseline of the first line.
	TextPlacement struct {
		Content    string
		Font       string
		Size       int
		Color      string
		X, Y       float64
		MaxWidth   float64
		LineHeight float64
		Rotation   float64
	}
)

// The placements below are relied on by printed stock; keep the numbers exactly as they are.
var (
	frontBackground = ImagePlacement{Role: core.RoleTemplate, X: 0, Y: 0, W: PageWidth, H: PageHeight}
	frontProduct    = ImagePlacement{Role: core.RoleProduct, X: 0.24, Y: -3.75, W: 4, H: 4, Rotation: 270}
	insideBackdrop  = ImagePlacement{Role: core.RoleInside, X: 0, Y: 0, W: PageWidth, H: PageHeight}
)

const (
	messageX        = 3.64
	messageY        = 0.47
	messageMaxWidth = 3.6
	messageRotation = 270
)

// Layout resolves req into the fixed two-page card. It is pure: the same request always
// yields the same placements.
func Layout(req core.CardRequest) Document {
	size := ParseSize(req.Size)
	return Document{
		Pages: []Page{
			{
				Name:   PageFront,
				Images: []ImagePlacement{frontBackground, frontProduct},
			},
			{
				Name:   PageInside,
				Images: []ImagePlacement{insideBackdrop},
				Texts: []TextPlacement{{
					Content:    req.Message,
					Font:       NormalizeFont(req.Font),
					Size:       size,
					Color:      ParseColor(req.Color),
					X:          messageX,
					Y:          messageY,
					MaxWidth:   messageMaxWidth,
					LineHeight: float64(size) * lineHeightFactor / pointsPerInch,
					Rotation:   messageRotation,
				}},
			},
		},
	}
}

// Roles lists every image role the document places, in page order.
func (d Document) Roles() []core.ImageRole {
	var roles []core.ImageRole
	for _, p := range d.Pages {
		for _, img := range p.Images {
			roles = append(roles, img.Role)
		}
	}
	return roles
}
