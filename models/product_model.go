package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Variant is one purchasable size/color combination of a product.
// SKU is unique within a product.
type Variant struct {
	Size              string  `bson:"size" json:"size"`
	Color             string  `bson:"color" json:"color"`
	SKU               string  `bson:"sku" json:"sku"`
	Price             float64 `bson:"price" json:"price"`
	Stock             int     `bson:"stock" json:"stock"`
	IsActive          bool    `bson:"isActive" json:"isActive"`
	LowStockThreshold int     `bson:"lowStockThreshold" json:"lowStockThreshold"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Brand       string             `bson:"brand" json:"brand"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Gender      string             `bson:"gender" json:"gender"`
	Images      []string           `bson:"images" json:"images"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	TotalStock  int                `bson:"totalStock" json:"totalStock"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindVariant returns the variant matching size and color, or nil.
func (p *Product) FindVariant(size, color string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].Size == size && p.Variants[i].Color == color {
			return &p.Variants[i]
		}
	}
	return nil
}

// MainImage returns the first product image, if any.
func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
