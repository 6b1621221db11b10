package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"artesanos/internal/auth"
	"artesanos/internal/intake"
	"artesanos/internal/models"
)

type Server struct {
	cfg      *models.Config
	router   *gin.Engine
	http     *http.Server
	products ProductStore
	orders   OrderStore
	artisans ArtisanStore
	events   EventPublisher
	drafts   *intake.Drafts
	previews *intake.MemoryPreviews
	auth     *auth.Service
	log      zerolog.Logger
}

type Deps struct {
	Products ProductStore
	Orders   OrderStore
	Artisans ArtisanStore
	Events   EventPublisher
	Drafts   *intake.Drafts
	Previews *intake.MemoryPreviews
	Auth     *auth.Service
	Log      zerolog.Logger
}

func NewServer(cfg *models.Config, d Deps) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log))
	r.MaxMultipartMemory = cfg.Images.MaxUploadBytes

	s := &Server{
		cfg:      cfg,
		router:   r,
		products: d.Products,
		orders:   d.Orders,
		artisans: d.Artisans,
		events:   d.Events,
		drafts:   d.Drafts,
		previews: d.Previews,
		auth:     d.Auth,
		log:      d.Log,
	}

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/products", s.handleListCatalogue)
	r.GET("/products/:id", s.handleGetProduct)
	r.POST("/products/:id/orders", s.handleCreateOrder)
	r.GET("/previews/:ref", s.handleGetPreview)

	a := r.Group("/", d.Auth.RequireUser())
	a.GET("/dashboard/products", s.handleListProducts)
	a.DELETE("/dashboard/products/:id", s.handleDeleteProduct)
	a.GET("/dashboard/orders", s.handleListOrders)
	a.GET("/dashboard/payment", s.handleGetPaymentProfile)
	a.PUT("/dashboard/payment", s.handleSavePaymentProfile)
	a.POST("/orders/:id/advance", s.handleAdvanceOrder)

	a.POST("/drafts", s.handleNewDraft)
	a.POST("/products/:id/drafts", s.handleEditDraft)
	a.GET("/drafts/:id", s.handleGetDraft)
	a.DELETE("/drafts/:id", s.handleCloseDraft)
	a.POST("/drafts/:id/images", s.handleAddImages)
	a.DELETE("/drafts/:id/images/:item", s.handleRemoveImage)
	a.POST("/drafts/:id/move", s.handleMoveImage)
	a.POST("/drafts/:id/submit", s.handleSubmitDraft)

	s.http = &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.ServerAddr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNoImages):
		status = http.StatusBadRequest
	case errors.Is(err, intake.ErrNoIdentity):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound), errors.Is(err, intake.ErrDraftNotFound):
		status = http.StatusNotFound
	case errors.Is(err, intake.ErrDraftBusy), errors.Is(err, models.ErrBadTransition),
		errors.Is(err, models.ErrSoldOut), errors.Is(err, models.ErrInactive),
		errors.Is(err, models.ErrPaymentUnavailable):
		status = http.StatusConflict
	case errors.Is(err, intake.ErrNoImagesUploaded):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
