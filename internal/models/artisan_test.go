package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtisan_Validate(t *testing.T) {
	a := &Artisan{
		ID:             "artisan-1",
		NombreTienda:   "Hilos de Lara",
		DatosPagoMovil: &PagoMovilDetails{Telefono: "0414-1234567", Cedula: "V-12345678", Banco: "Banesco"},
		DatosZelle:     &ZelleDetails{Email: "pagos@hilos.test", Nombre: "Carmen Díaz"},
	}
	require.NoError(t, a.Validate())

	a.DatosZelle.Email = "pagos"
	assert.ErrorIs(t, a.Validate(), ErrValidation)

	a.DatosZelle = nil
	a.DatosPagoMovil.Banco = ""
	assert.ErrorIs(t, a.Validate(), ErrValidation)

	assert.NoError(t, (&Artisan{ID: "artisan-2"}).Validate(), "payment blocks are optional")
}

func TestArtisan_PayeeFor(t *testing.T) {
	a := &Artisan{
		ID:             "artisan-1",
		Nombre:         "Carmen",
		DatosPagoMovil: &PagoMovilDetails{Telefono: "0414-1234567", Cedula: "V-12345678", Banco: "Banesco"},
	}
	assert.True(t, a.Accepts(PagoMovil))
	assert.False(t, a.Accepts(Zelle))

	p, err := a.PayeeFor(PagoMovil)
	require.NoError(t, err)
	assert.Equal(t, "Carmen", p.NombreTienda, "falls back to the artisan name")
	assert.Same(t, a.DatosPagoMovil, p.PagoMovil)
	assert.Nil(t, p.Zelle)

	_, err = a.PayeeFor(Zelle)
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
}
