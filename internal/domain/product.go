package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryBooks       Category = "Books"
	CategoryElectronics Category = "Electronics"
	CategoryStationery  Category = "Stationery"
	CategoryFurniture   Category = "Furniture"
	CategoryOthers      Category = "Others"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBooks, CategoryElectronics, CategoryStationery, CategoryFurniture, CategoryOthers:
		return true
	}
	return false
}

type ProductStatus string

const (
	ProductOpen      ProductStatus = "OPEN"
	ProductAssigned  ProductStatus = "ASSIGNED"
	ProductDelivered ProductStatus = "DELIVERED"
)

type Product struct {
	ID          string        `bson:"_id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Price       float64       `bson:"price" json:"price"`
	Category    Category      `bson:"category" json:"category"`
	Images      []string      `bson:"images" json:"images"`
	SellerID    string        `bson:"seller_id" json:"seller_id"`
	IsSold      bool          `bson:"is_sold" json:"is_sold"`
	College     string        `bson:"college,omitempty" json:"college,omitempty"`
	Hostel      string        `bson:"hostel,omitempty" json:"hostel,omitempty"`
	Status      ProductStatus `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// Validate checks the fields a seller supplies when listing an item.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" || p.Category == "" {
		return Validation("All fields are required")
	}
	if p.Price <= 0 {
		return Validation("Price must be a positive number")
	}
	if !p.Category.Valid() {
		return Validation("Unknown category")
	}
	if p.SellerID == "" {
		return Unauthenticated("Not authorized")
	}
	return nil
}

// SetStatus keeps isSold tied to the DELIVERED status.
func (p *Product) SetStatus(s ProductStatus) {
	p.Status = s
	p.IsSold = s == ProductDelivered
}

// Available reports whether the product can take a new order.
func (p *Product) Available() bool {
	return p.Status == ProductOpen && !p.IsSold
}

// ProductSummary is the slice of a product embedded in order responses.
type ProductSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Price    float64  `json:"price"`
	Category Category `json:"category"`
	Images   []string `json:"images"`
}

func (p *Product) Summary() *ProductSummary {
	if p == nil {
		return nil
	}
	return &ProductSummary{ID: p.ID, Title: p.Title, Price: p.Price, Category: p.Category, Images: p.Images}
}
