// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	perrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/abgdnv/gocatalog/internal/product/store"
	"github.com/go-playground/validator/v10"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// Add validates and stores a new product.
	// Returns ErrValidation if a required field is empty and ErrDuplicateCode if the code is taken.
	Add(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// List returns all products in insertion order.
	// Returns an empty slice if no products exist.
	List(ctx context.Context) ([]ProductDto, error)

	// GetByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetByID(ctx context.Context, id int64) (*ProductDto, error)

	// GetByCode retrieves a single product by its code.
	// Returns ErrProductNotFound if no product has the given code.
	GetByCode(ctx context.Context, code string) (*ProductDto, error)

	// Update applies a partial update. The ID in the patch, if any, is ignored.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, patch ProductPatchDto) (*ProductDto, error)

	// Delete removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id int64) error

	// Reload re-reads the catalog from storage.
	Reload(ctx context.Context) error
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore, logger *slog.Logger) *Service {
	return &Service{
		repository: repo,
		validate:   newValidator(),
		logger:     logger.With("component", "service"),
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
// Every field is required; zero values count as missing.
type ProductCreateDto struct {
	Title       string  `json:"title"       validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price"       validate:"required"`
	Img         string  `json:"img"         validate:"required"`
	Code        string  `json:"code"        validate:"required"`
	Stock       float64 `json:"stock"       validate:"required"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Img         string  `json:"img"`
	Code        string  `json:"code"`
	Stock       float64 `json:"stock"`
}

// ProductPatchDto represents a partial update. Absent fields are left unchanged.
// Patched values are not validated, so a patch may clear a field that Add requires.
type ProductPatchDto struct {
	ID          *int64   `json:"id,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Img         *string  `json:"img,omitempty"`
	Code        *string  `json:"code,omitempty"`
	Stock       *float64 `json:"stock,omitempty"`
}

// Add validates the product and creates it.
func (s *Service) Add(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	s.logger.DebugContext(ctx, "Adding product", "code", product.Code)
	if err := s.validateCreate(product); err != nil {
		s.logger.WarnContext(ctx, "Product rejected", "code", product.Code, "error", err)
		return nil, err
	}

	created, err := s.repository.Create(ctx, store.Product{
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Img:         product.Img,
		Code:        product.Code,
		Stock:       product.Stock,
	})
	if err != nil {
		s.logFailure(ctx, "Product not created", err, "code", product.Code)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.InfoContext(ctx, "Product created", "ID", created.ID, "code", created.Code)
	return toDto(created), nil
}

// List retrieves all products and returns them as ProductDTOs.
func (s *Service) List(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		s.logFailure(ctx, "Products not listed", err)
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))

	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}

	return productDTOs, nil
}

// GetByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) GetByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "Product not fetched", err, "ID", id)
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}

	return toDto(product), nil
}

// GetByCode retrieves a product by its code and returns it as a ProductDto.
func (s *Service) GetByCode(ctx context.Context, code string) (*ProductDto, error) {
	product, err := s.repository.FindByCode(ctx, code)
	if err != nil {
		s.logFailure(ctx, "Product not fetched", err, "code", code)
		return nil, fmt.Errorf("failed to fetch product by code %q: %w", code, err)
	}

	return toDto(product), nil
}

// Update applies the patch and returns the updated product as a ProductDto.
func (s *Service) Update(ctx context.Context, id int64, patch ProductPatchDto) (*ProductDto, error) {
	if patch.ID != nil && *patch.ID != id {
		s.logger.DebugContext(ctx, "Ignoring ID in product patch", "ID", id, "patch_id", *patch.ID)
	}

	updated, err := s.repository.Update(ctx, id, store.Patch{
		ID:          patch.ID,
		Title:       patch.Title,
		Description: patch.Description,
		Price:       patch.Price,
		Img:         patch.Img,
		Code:        patch.Code,
		Stock:       patch.Stock,
	})
	if err != nil {
		s.logFailure(ctx, "Product not updated", err, "ID", id)
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Product updated", "ID", updated.ID)
	return toDto(updated), nil
}

// Delete deletes a product by its ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		s.logFailure(ctx, "Product not deleted", err, "ID", id)
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Product deleted", "ID", id)
	return nil
}

// Reload re-reads the catalog from storage.
func (s *Service) Reload(ctx context.Context) error {
	if err := s.repository.Reload(ctx); err != nil {
		s.logFailure(ctx, "Catalog not reloaded", err)
		return fmt.Errorf("failed to reload products: %w", err)
	}
	return nil
}

// validateCreate returns a ValidationError naming every missing field.
func (s *Service) validateCreate(product ProductCreateDto) error {
	err := s.validate.Struct(product)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %w", perrors.ErrValidation, err)
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fieldErr.Field())
	}
	return &perrors.ValidationError{Fields: fields}
}

// logFailure logs domain rejections as warnings and everything else as errors.
func (s *Service) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if errors.Is(err, perrors.ErrProductNotFound) || errors.Is(err, perrors.ErrDuplicateCode) {
		s.logger.WarnContext(ctx, msg, args...)
		return
	}
	s.logger.ErrorContext(ctx, msg, args...)
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Img:         product.Img,
		Code:        product.Code,
		Stock:       product.Stock,
	}
}
