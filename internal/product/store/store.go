// Package store provides an interface for product storage operations.
package store

import "context"

// ProductStore is an interface for product storage operations.
// Implementations keep the collection in memory and synchronize every mutation to durable storage.
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByCode retrieves a single product by its code.
	// Returns ErrProductNotFound if no product has the given code.
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindAll returns all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Create assigns the next ID to the product, stores it and returns the stored copy.
	// Returns ErrDuplicateCode if another product already uses the code.
	Create(ctx context.Context, product Product) (*Product, error)

	// Update applies the patch to an existing product and returns the result.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, patch Patch) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// Reload replaces the in-memory collection with the persisted one.
	Reload(ctx context.Context) error
}

// Product represents a product entity in the store.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Img         string  `json:"img"`
	Code        string  `json:"code"`
	Stock       float64 `json:"stock"`
}

// Patch is a partial update. Nil fields are left unchanged.
// ID is accepted so decoded payloads can carry it, but it is never applied.
type Patch struct {
	ID          *int64
	Title       *string
	Description *string
	Price       *float64
	Img         *string
	Code        *string
	Stock       *float64
}

// apply merges the non-nil fields of the patch into p. p.ID is preserved.
func (patch Patch) apply(p Product) Product {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Img != nil {
		p.Img = *patch.Img
	}
	if patch.Code != nil {
		p.Code = *patch.Code
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	return p
}
