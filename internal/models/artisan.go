package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrPaymentUnavailable = errors.New("payment method not configured by the artisan")

// PagoMovilDetails is where a buyer sends a Pago Móvil transfer.
type PagoMovilDetails struct {
	Telefono string `json:"telefono" validate:"required,max=40"`
	Cedula   string `json:"cedula" validate:"required,max=20"`
	Banco    string `json:"banco" validate:"required,max=80"`
}

// ZelleDetails is where a buyer sends a Zelle payment.
type ZelleDetails struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Nombre string `json:"nombre" validate:"required,max=120"`
}

// Artisan is the seller profile shown next to products and at checkout.
// A nil payment block means the method is not offered.
type Artisan struct {
	ID             string            `db:"id" json:"id"`
	Nombre         string            `db:"nombre" json:"nombre" validate:"max=120"`
	NombreTienda   string            `db:"nombre_tienda" json:"nombre_tienda" validate:"max=120"`
	Ubicacion      string            `db:"ubicacion" json:"ubicacion" validate:"max=200"`
	Telefono       string            `db:"telefono" json:"telefono" validate:"max=40"`
	DatosPagoMovil *PagoMovilDetails `db:"datos_pago_movil" json:"datos_pago_movil,omitempty"`
	DatosZelle     *ZelleDetails     `db:"datos_zelle" json:"datos_zelle,omitempty"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

func (a *Artisan) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Accepts reports whether the artisan has details for method m.
func (a *Artisan) Accepts(m PaymentMethod) bool {
	switch m {
	case PagoMovil:
		return a.DatosPagoMovil != nil
	case Zelle:
		return a.DatosZelle != nil
	}
	return false
}

// Payee is the public block a buyer needs to pay this artisan.
type Payee struct {
	NombreTienda string            `json:"nombre_tienda"`
	Ubicacion    string            `json:"ubicacion,omitempty"`
	PagoMovil    *PagoMovilDetails `json:"pago_movil,omitempty"`
	Zelle        *ZelleDetails     `json:"zelle,omitempty"`
}

func (a *Artisan) Payee() Payee {
	name := a.NombreTienda
	if name == "" {
		name = a.Nombre
	}
	return Payee{NombreTienda: name, Ubicacion: a.Ubicacion, PagoMovil: a.DatosPagoMovil, Zelle: a.DatosZelle}
}

// PayeeFor narrows the payee block to the method the buyer chose.
func (a *Artisan) PayeeFor(m PaymentMethod) (Payee, error) {
	if !a.Accepts(m) {
		return Payee{}, fmt.Errorf("%w: %s", ErrPaymentUnavailable, m)
	}
	p := a.Payee()
	if m != PagoMovil {
		p.PagoMovil = nil
	}
	if m != Zelle {
		p.Zelle = nil
	}
	return p, nil
}
