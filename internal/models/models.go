package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// AllCategories is the catalogue filter value that matches every category.
const AllCategories = "Todas"

var Categories = []string{
	"Cerámica",
	"Textiles",
	"Joyería",
	"Arte Popular",
	"Materiales Naturales",
	"Decoración",
}

var (
	ErrValidation    = errors.New("validation error")
	ErrNoImages      = errors.New("product needs at least one image")
	ErrNotFound      = errors.New("not found")
	ErrSoldOut       = errors.New("product sold out")
	ErrInactive      = errors.New("product is not active")
	ErrBadTransition = errors.New("invalid order status transition")
)

var validate = validator.New()

type Product struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ArtesanoID  string    `db:"artesano_id" json:"artesano_id"`
	Nombre      string    `db:"nombre" json:"nombre" validate:"required,max=120"`
	Descripcion string    `db:"descripcion" json:"descripcion" validate:"max=2000"`
	Precio      float64   `db:"precio" json:"precio" validate:"gt=0"`
	Categoria   string    `db:"categoria" json:"categoria" validate:"required"`
	Stock       int       `db:"stock" json:"stock" validate:"gte=0"`
	// Imagenes is ordered; index 0 is the primary image.
	Imagenes  []string  `db:"imagenes" json:"imagenes"`
	Thumbnail string    `db:"thumbnail" json:"thumbnail,omitempty"`
	Activo    bool      `db:"activo" json:"activo"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the form fields. Images are checked separately since they are
// attached only after the upload pass.
func (p *Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !IsCategory(p.Categoria) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Categoria)
	}
	return nil
}

func (p *Product) SoldOut() bool {
	return p.Stock <= 0
}

// NormalizeCategory composes accents (NFC) so "Cera\u0301mica" from some
// clients is stored and matched as "Cerámica".
func NormalizeCategory(c string) string {
	return norm.NFC.String(strings.TrimSpace(c))
}

func IsCategory(c string) bool {
	c = NormalizeCategory(c)
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PagoMovil PaymentMethod = "pago_movil"
	Zelle     PaymentMethod = "zelle"
)

// OrderStatus moves strictly forward: pendiente -> confirmado -> enviado -> entregado.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pendiente"
	OrderConfirmed OrderStatus = "confirmado"
	OrderShipped   OrderStatus = "enviado"
	OrderDelivered OrderStatus = "entregado"
)

var orderFlow = map[OrderStatus]OrderStatus{
	OrderPending:   OrderConfirmed,
	OrderConfirmed: OrderShipped,
	OrderShipped:   OrderDelivered,
}

// Next returns the status following s.
func (s OrderStatus) Next() (OrderStatus, error) {
	next, ok := orderFlow[s]
	if !ok {
		return s, fmt.Errorf("%w: %q is final or unknown", ErrBadTransition, s)
	}
	return next, nil
}

// Counts toward sales totals once the artisan has confirmed payment.
func (s OrderStatus) Paid() bool {
	return s == OrderConfirmed || s == OrderShipped || s == OrderDelivered
}

type Order struct {
	ID                 uuid.UUID     `db:"id" json:"id"`
	NumeroPedido       string        `db:"numero_pedido" json:"numero_pedido"`
	ProductoID         uuid.UUID     `db:"producto_id" json:"producto_id"`
	ArtesanoID         string        `db:"artesano_id" json:"artesano_id"`
	NombreComprador    string        `db:"nombre_comprador" json:"nombre_comprador" validate:"required,max=120"`
	TelefonoComprador  string        `db:"telefono_comprador" json:"telefono_comprador" validate:"required,max=40"`
	DireccionComprador string        `db:"direccion_comprador" json:"direccion_comprador" validate:"required,max=500"`
	Monto              float64       `db:"monto" json:"monto"`
	MetodoPago         PaymentMethod `db:"metodo_pago" json:"metodo_pago" validate:"required,oneof=pago_movil zelle"`
	ReferenciaPago     *string       `db:"referencia_pago" json:"referencia_pago,omitempty"`
	Estado             OrderStatus   `db:"estado" json:"estado"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

func (o *Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
