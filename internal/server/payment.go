package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"artesanos/internal/auth"
	"artesanos/internal/models"
)

type paymentProfileRequest struct {
	Nombre       string                   `json:"nombre"`
	NombreTienda string                   `json:"nombre_tienda"`
	Ubicacion    string                   `json:"ubicacion"`
	Telefono     string                   `json:"telefono"`
	PagoMovil    *models.PagoMovilDetails `json:"pago_movil"`
	Zelle        *models.ZelleDetails     `json:"zelle"`
}

func (s *Server) handleGetPaymentProfile(c *gin.Context) {
	user := auth.UserID(c)
	a, err := s.artisans.GetArtisan(c.Request.Context(), user)
	if errors.Is(err, models.ErrNotFound) {
		a, err = &models.Artisan{ID: user}, nil
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// handleSavePaymentProfile replaces the store and payment details. Omitting a
// method withdraws it from checkout.
func (s *Server) handleSavePaymentProfile(c *gin.Context) {
	var req paymentProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := &models.Artisan{
		ID:             auth.UserID(c),
		Nombre:         strings.TrimSpace(req.Nombre),
		NombreTienda:   strings.TrimSpace(req.NombreTienda),
		Ubicacion:      strings.TrimSpace(req.Ubicacion),
		Telefono:       strings.TrimSpace(req.Telefono),
		DatosPagoMovil: req.PagoMovil,
		DatosZelle:     req.Zelle,
	}
	if err := a.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if err := s.artisans.SaveArtisan(c.Request.Context(), a); err != nil {
		respondError(c, err)
		return
	}
	s.log.Info().Str("user_id", a.ID).
		Bool("pago_movil", a.Accepts(models.PagoMovil)).
		Bool("zelle", a.Accepts(models.Zelle)).
		Msg("payment profile saved")
	c.JSON(http.StatusOK, a)
}
