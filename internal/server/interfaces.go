package server

import (
	"context"

	"github.com/google/uuid"

	"artesanos/internal/events"
	"artesanos/internal/models"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProductsByArtisan(ctx context.Context, artesanoID string) ([]models.Product, error)
	ListActiveProducts(ctx context.Context, categoria, q string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID, artesanoID string) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID, artesanoID string) (*models.Order, error)
	ListOrdersByArtisan(ctx context.Context, artesanoID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, artesanoID string, from, to models.OrderStatus) error
}

type ArtisanStore interface {
	GetArtisan(ctx context.Context, id string) (*models.Artisan, error)
	SaveArtisan(ctx context.Context, a *models.Artisan) error
}

type EventPublisher interface {
	ImagesSaved(ctx context.Context, ev events.ImagesSaved) error
}
