package fulfillment

import (
	"fmt"
	"strings"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
)

// NameSet selects which property names the storefront writes on line items.
type NameSet string

const (
	NamesCurrent NameSet = "current"
	// NamesLegacy underscore-prefixes the URL-bearing properties, which hides them in the Shopify admin.
	NamesLegacy NameSet = "legacy"
)

// ParseNameSet accepts "current" or "legacy"; empty means current.
func ParseNameSet(s string) (NameSet, error) {
	switch NameSet(strings.ToLower(strings.TrimSpace(s))) {
	case "", NamesCurrent:
		return NamesCurrent, nil
	case NamesLegacy:
		return NamesLegacy, nil
	}
	return "", fmt.Errorf("unknown property name set %q", s)
}

// PropertyNames are the line-item property keys read by the extractor.
type PropertyNames struct {
	Message        string
	Font           string
	Color          string
	Size           string
	ProductImage   string
	TemplateImage  string
	InsideTemplate string
	DesignURL      string
}

// Names returns the property keys of set.
func Names(set NameSet) PropertyNames {
	names := PropertyNames{
		Message:        "Custom Message",
		Font:           "Font",
		Color:          "Color",
		Size:           "Size",
		ProductImage:   "Product Image",
		TemplateImage:  "Template Image",
		InsideTemplate: "Inside Template",
		DesignURL:      "Design URL",
	}
	if set == NamesLegacy {
		names.ProductImage = "_" + names.ProductImage
		names.TemplateImage = "_" + names.TemplateImage
		names.InsideTemplate = "_" + names.InsideTemplate
		names.DesignURL = "_" + names.DesignURL
	}
	return names
}

func (n PropertyNames) all() []string {
	return []string{n.Message, n.Font, n.Color, n.Size, n.ProductImage, n.TemplateImage, n.InsideTemplate, n.DesignURL}
}

func (n PropertyNames) imageRefs() []string {
	return []string{n.ProductImage, n.TemplateImage, n.InsideTemplate}
}

// Path is the way a line item turns into a downloadable file.
type Path int

const (
	PathNone Path = iota
	// PathDesign forwards a document the storefront already rendered.
	PathDesign
	// PathCompose renders the card from its images and message.
	PathCompose
)

func (p Path) String() string {
	switch p {
	case PathDesign:
		return "design"
	case PathCompose:
		return "compose"
	}
	return "none"
}

// Extraction is what one line item asks for.
type Extraction struct {
	Path      Path
	Request   core.CardRequest
	DesignURL string
	// Unrecognized holds property names that belong to the other name set.
	Unrecognized []string
	// Conflicting is set when a design URL and composition properties are both present.
	Conflicting bool
}

// Extractor reads card requests out of line-item properties using one name set.
type Extractor struct {
	names  PropertyNames
	others map[string]bool
}

func NewExtractor(set NameSet) *Extractor {
	names := Names(set)
	other := NamesLegacy
	if set == NamesLegacy {
		other = NamesCurrent
	}

	known := make(map[string]bool)
	for _, n := range names.all() {
		known[n] = true
	}
	others := make(map[string]bool)
	for _, n := range Names(other).all() {
		if !known[n] {
			others[n] = true
		}
	}
	return &Extractor{names: names, others: others}
}

// Extract builds the card request of one line item. A design URL takes precedence over
// composition properties; an item with neither has PathNone.
func (e *Extractor) Extract(props []core.Property) Extraction {
	values := make(map[string]string, len(props))
	var ex Extraction
	for _, p := range props {
		if e.others[p.Name] {
			ex.Unrecognized = append(ex.Unrecognized, p.Name)
			continue
		}
		values[p.Name] = strings.TrimSpace(p.Value)
	}

	ex.Request = core.CardRequest{
		Message:           values[e.names.Message],
		Font:              values[e.names.Font],
		Color:             values[e.names.Color],
		Size:              values[e.names.Size],
		ProductImageRef:   values[e.names.ProductImage],
		TemplateImageRef:  values[e.names.TemplateImage],
		InsideTemplateRef: values[e.names.InsideTemplate],
	}
	ex.DesignURL = values[e.names.DesignURL]

	composes := false
	for _, name := range e.names.imageRefs() {
		if values[name] != "" {
			composes = true
			break
		}
	}

	switch {
	case ex.DesignURL != "":
		ex.Path = PathDesign
		ex.Conflicting = composes
	case composes:
		ex.Path = PathCompose
	}
	return ex
}
