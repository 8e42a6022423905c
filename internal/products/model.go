// Package products manages the product catalogue and its stock levels.
package products

import "github.com/odyssey-erp/boutique/internal/store"

// ProductInput is the create/update payload.
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Price       float64 `json:"price" validate:"gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	MinStock    int     `json:"minStock" validate:"gte=0"`
	Description string  `json:"description"`
	SKU         string  `json:"sku" validate:"required"`
	Supplier    string  `json:"supplier"`
	Image       string  `json:"image"`
}

// StockInput sets an absolute stock value.
type StockInput struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

func (in ProductInput) apply(p store.Product) store.Product {
	p.Name = in.Name
	p.Category = in.Category
	p.Price = in.Price
	p.Stock = in.Stock
	p.MinStock = in.MinStock
	p.Description = in.Description
	p.SKU = in.SKU
	p.Supplier = in.Supplier
	p.Image = in.Image
	return p
}
