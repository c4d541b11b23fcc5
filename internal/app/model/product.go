package model

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PlaceholderImage is shown for products without images.
const PlaceholderImage = "/placeholder-image.jpg"

type ProductStatus string

const (
	StatusAvailable  ProductStatus = "available"
	StatusOutOfStock ProductStatus = "out_of_stock"
)

// Flag decodes booleans sent either as JSON booleans or as 0/1.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.Trim(data, `"`)) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}

type ProductImage struct {
	ID        uint   `json:"id,omitempty" yaml:"id,omitempty"`
	ImageURL  string `json:"image_url" yaml:"image_url"`
	IsPrimary Flag   `json:"is_primary" yaml:"is_primary"`
}

type Product struct {
	ID          uint            `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Slug        string          `json:"slug,omitempty" yaml:"slug,omitempty"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Stock       int             `json:"stock" yaml:"stock"`
	Status      ProductStatus   `json:"status" yaml:"status"`
	CategoryID  *uint           `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Images      []ProductImage  `json:"images,omitempty" yaml:"images,omitempty"`
}

// SoldOut reports whether the product can not be added to a cart.
func (p *Product) SoldOut() bool {
	return p.Status == StatusOutOfStock || p.Stock <= 0
}

// PrimaryImage returns the first image flagged primary, else the first
// image, else the placeholder.
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].ImageURL
	}
	return PlaceholderImage
}

// ResolveImageURL turns a stored image path into an absolute URL. Absolute
// URLs and the placeholder are returned unchanged.
func ResolveImageURL(storageBase, imageURL string) string {
	if imageURL == "" {
		return PlaceholderImage
	}
	if strings.HasPrefix(imageURL, "http") || imageURL == PlaceholderImage || storageBase == "" {
		return imageURL
	}
	return strings.TrimRight(storageBase, "/") + "/" + strings.TrimLeft(imageURL, "/")
}
