package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"artesanos/internal/auth"
	"artesanos/internal/models"
)

type checkoutRequest struct {
	Nombre     string `json:"nombre"`
	Telefono   string `json:"telefono"`
	Direccion  string `json:"direccion"`
	MetodoPago string `json:"metodo_pago"`
	Referencia string `json:"referencia"`
}

// handleCreateOrder registers a buyer's order. Payment is confirmed later by
// the artisan, so the order starts as pendiente.
func (s *Server) handleCreateOrder(c *gin.Context) {
	id, ok := s.productID(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	switch {
	case !p.Activo:
		respondError(c, models.ErrInactive)
		return
	case p.SoldOut():
		respondError(c, models.ErrSoldOut)
		return
	}

	o := &models.Order{
		ProductoID:         p.ID,
		ArtesanoID:         p.ArtesanoID,
		NombreComprador:    strings.TrimSpace(req.Nombre),
		TelefonoComprador:  strings.TrimSpace(req.Telefono),
		DireccionComprador: strings.TrimSpace(req.Direccion),
		Monto:              p.Precio,
		MetodoPago:         models.PaymentMethod(req.MetodoPago),
	}
	if ref := strings.TrimSpace(req.Referencia); ref != "" {
		o.ReferenciaPago = &ref
	}
	if err := o.Validate(); err != nil {
		respondError(c, err)
		return
	}

	a, err := s.artisans.GetArtisan(ctx, p.ArtesanoID)
	if errors.Is(err, models.ErrNotFound) {
		a, err = &models.Artisan{ID: p.ArtesanoID}, nil
	}
	if err != nil {
		respondError(c, err)
		return
	}
	payee, err := a.PayeeFor(o.MetodoPago)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.orders.CreateOrder(ctx, o); err != nil {
		respondError(c, err)
		return
	}
	s.log.Info().Str("order", o.NumeroPedido).Str("product_id", p.ID.String()).Msg("order registered")
	c.JSON(http.StatusCreated, gin.H{"numero_pedido": o.NumeroPedido, "order": o, "pago": payee})
}

type ordersSummary struct {
	TotalVentas float64 `json:"total_ventas"`
	Pendientes  int     `json:"pendientes"`
	Entregados  int     `json:"entregados"`
}

func summarize(orders []models.Order) ordersSummary {
	var sum ordersSummary
	for _, o := range orders {
		if o.Estado.Paid() {
			sum.TotalVentas += o.Monto
		}
		switch o.Estado {
		case models.OrderPending:
			sum.Pendientes++
		case models.OrderDelivered:
			sum.Entregados++
		}
	}
	return sum
}

func (s *Server) handleListOrders(c *gin.Context) {
	list, err := s.orders.ListOrdersByArtisan(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "summary": summarize(list)})
}

// handleAdvanceOrder moves an order one step along its status chain.
func (s *Server) handleAdvanceOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	ctx := c.Request.Context()
	user := auth.UserID(c)

	o, err := s.orders.GetOrder(ctx, id, user)
	if err != nil {
		respondError(c, err)
		return
	}
	next, err := o.Estado.Next()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.orders.UpdateOrderStatus(ctx, id, user, o.Estado, next); err != nil {
		respondError(c, err)
		return
	}
	o.Estado = next
	c.JSON(http.StatusOK, o)
}
