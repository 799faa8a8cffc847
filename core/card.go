package core

import "bytes"

// ImageRole names one of the three source images of a card.
type ImageRole string

const (
	RoleTemplate ImageRole = "template"
	RoleProduct  ImageRole = "product"
	RoleInside   ImageRole = "inside"
)

// ImageRoles is the fixed order in which roles are fetched and reported.
var ImageRoles = []ImageRole{RoleTemplate, RoleProduct, RoleInside}

// PNGSignature is the 8-byte header every PNG file starts with.
var PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const FormatPNG = "png"

type (
	// CardRequest is the customization of one line item. It is built once and never mutated.
	CardRequest struct {
		Message string
		Font    string
		Color   string
		Size    string

		ProductImageRef   string
		TemplateImageRef  string
		InsideTemplateRef string
	}

	// FetchedImage holds the raw bytes of a retrieved image.
	FetchedImage struct {
		Role   ImageRole
		URL    string
		Format string
		Data   []byte
	}

	// ImageSet is the complete set of images a card needs.
	ImageSet struct {
		Template FetchedImage
		Product  FetchedImage
		Inside   FetchedImage
	}
)

// Refs returns the image references keyed by role.
func (r CardRequest) Refs() map[ImageRole]string {
	return map[ImageRole]string{
		RoleTemplate: r.TemplateImageRef,
		RoleProduct:  r.ProductImageRef,
		RoleInside:   r.InsideTemplateRef,
	}
}

// Missing lists the roles whose reference is empty, in ImageRoles order.
func (r CardRequest) Missing() []ImageRole {
	refs := r.Refs()
	var missing []ImageRole
	for _, role := range ImageRoles {
		if refs[role] == "" {
			missing = append(missing, role)
		}
	}
	return missing
}

// Complete reports whether all three image references are present.
func (r CardRequest) Complete() bool {
	return len(r.Missing()) == 0
}

// HasPNGSignature reports whether data starts with the PNG signature.
func HasPNGSignature(data []byte) bool {
	return len(data) >= len(PNGSignature) && bytes.Equal(data[:len(PNGSignature)], PNGSignature)
}

// Get returns the image stored for role.
func (s ImageSet) Get(role ImageRole) FetchedImage {
	switch role {
	case RoleTemplate:
		return s.Template
	case RoleProduct:
		return s.Product
	case RoleInside:
		return s.Inside
	}
	return FetchedImage{}
}

// Set stores img under its role.
func (s *ImageSet) Set(img FetchedImage) {
	switch img.Role {
	case RoleTemplate:
		s.Template = img
	case RoleProduct:
		s.Product = img
	case RoleInside:
		s.Inside = img
	}
}
