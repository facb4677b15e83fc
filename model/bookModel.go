// model/book.go
package model

import "time"

type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Publisher     string    `json:"publisher"`
	Price         float64   `json:"price"`
	StockQuantity int64     `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InStock reports whether at least one copy can be rented.
func (b *Book) InStock() bool { return b.StockQuantity > 0 }

// BookSummary is the slice of a book attached to rental listings.
type BookSummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Publisher string  `json:"publisher"`
	Price     float64 `json:"price"`
}

// MaxPrice is the largest value the NUMERIC(10,2) price column holds.
const MaxPrice = 99999999.99

// BookInput carries the admin-editable catalog fields.
// swagger:model BookInput
type BookInput struct {
	Title         string  `json:"title" validate:"required,max=255"`
	Category      string  `json:"category" validate:"required,max=100"`
	Publisher     string  `json:"publisher" validate:"max=255"`
	Price         float64 `json:"price" validate:"gte=0,lte=99999999.99"`
	StockQuantity int64   `json:"stock_quantity" validate:"gte=0"`
}
