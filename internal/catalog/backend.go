package catalog

import (
	"context"

	"github.com/orangeboy/storefront/internal/domain"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Backend is a durable system of record for products. Implementations
// return ErrNotFound for unknown ids and ErrInvalidID for ids they cannot
// address; any other error is an operational failure.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.ProductPayload) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p *domain.ProductPayload) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadImage(ctx context.Context, up *domain.Upload) (domain.Image, error)
}
