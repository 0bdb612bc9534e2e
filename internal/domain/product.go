package domain

import (
	"strings"
	"time"
)

// Product categories shown as filters on the storefront. Other values are
// accepted and stored as free text.
const (
	CategoryFood  = "food"
	CategorySnack = "snack"
	CategoryTea   = "tea"
	CategoryJuice = "juice"
	CategoryAll   = "all"
)

var Categories = []string{CategoryFood, CategorySnack, CategoryTea, CategoryJuice}

// Product is a sellable menu item
type Product struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id" csv:"id"`
	DocumentID   string    `gorm:"-" json:"documentId,omitempty" csv:"-"` // CMS v5 document key
	Name         string    `gorm:"index;size:200" json:"name" csv:"name"`
	Price        float64   `json:"price" csv:"price"`
	Description  *string   `gorm:"type:text" json:"description" csv:"description"`
	Category     *string   `gorm:"index;size:64" json:"category" csv:"category"`
	OrderFormURL *string   `gorm:"size:1024" json:"orderFormUrl" csv:"order_form_url"`
	ImageID      *int64    `gorm:"index" json:"-" csv:"-"`
	ImageURL     string    `gorm:"size:2048" json:"-" csv:"-"` // set when the image was given as a resolved URL
	Image        *Image    `gorm:"-" json:"image" csv:"-"`
	Locale       string    `gorm:"size:16" json:"locale" csv:"locale"`
	CreatedAt    time.Time `json:"createdAt" csv:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" csv:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// ImageURLOrEmpty returns the resolved image url, used by exports.
func (p Product) ImageURLOrEmpty() string {
	if p.Image == nil {
		return ""
	}
	return p.Image.URL
}

// NormalizeCategory lowercases and trims a category; empty and "all" mean none.
func NormalizeCategory(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == CategoryAll {
		return ""
	}
	return v
}

// ProductCollectionMeta describes where a collection came from.
type ProductCollectionMeta struct {
	Source  string `json:"source"`
	Backend string `json:"backend,omitempty"`
	Count   int    `json:"count"`
}

// ProductCollection is the list envelope shared by every store.
type ProductCollection struct {
	Data []Product             `json:"data"`
	Meta ProductCollectionMeta `json:"meta"`
}

// ProductEntryMeta describes where a single product came from.
type ProductEntryMeta struct {
	Source  string `json:"source"`
	Backend string `json:"backend,omitempty"`
}

// ProductEntry is the single-product envelope.
type ProductEntry struct {
	Data Product          `json:"data"`
	Meta ProductEntryMeta `json:"meta"`
}
