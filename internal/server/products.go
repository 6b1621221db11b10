package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"artesanos/internal/auth"
	"artesanos/internal/gallery"
	"artesanos/internal/models"
)

type galleryView struct {
	Current    string   `json:"current"`
	Thumbnails []string `json:"thumbnails"`
	ShowArrows bool     `json:"show_arrows"`
}

func (s *Server) productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return uuid.Nil, false
	}
	return id, true
}

// handleGetProduct serves the public product page: the record, its gallery
// with the placeholder substituted for missing images, and the sold out flag.
func (s *Server) handleGetProduct(c *gin.Context) {
	id, ok := s.productID(c)
	if !ok {
		return
	}
	p, err := s.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !p.Activo {
		respondError(c, models.ErrNotFound)
		return
	}

	v := gallery.New(p.Imagenes, 0, s.cfg.Images.FallbackURL)
	resp := gin.H{
		"product":  p,
		"sold_out": p.SoldOut(),
		"gallery": galleryView{
			Current:    v.Current(),
			Thumbnails: v.Sources(),
			ShowArrows: v.ShowArrows(),
		},
	}
	if a, ok := s.artisan(c.Request.Context(), p.ArtesanoID); ok {
		resp["artesano"] = a.Payee()
	}
	c.JSON(http.StatusOK, resp)
}

// artisan loads the seller profile. A missing profile is not an error for
// the product page, so only unexpected failures are logged.
func (s *Server) artisan(ctx context.Context, id string) (*models.Artisan, bool) {
	a, err := s.artisans.GetArtisan(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Warn().Err(err).Str("user_id", id).Msg("failed to load artisan profile")
		}
		return nil, false
	}
	return a, true
}

type productCard struct {
	ID        uuid.UUID `json:"id"`
	Nombre    string    `json:"nombre"`
	Precio    float64   `json:"precio"`
	Categoria string    `json:"categoria"`
	Imagen    string    `json:"imagen"`
	SoldOut   bool      `json:"sold_out"`
}

// cardImage prefers the rendered thumbnail, then the primary image, then the
// placeholder.
func (s *Server) cardImage(p *models.Product) string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	return gallery.New(p.Imagenes, 0, s.cfg.Images.FallbackURL).Current()
}

// handleListCatalogue serves the public home feed of active products,
// optionally filtered by categoria and a name search q.
func (s *Server) handleListCatalogue(c *gin.Context) {
	categoria := models.NormalizeCategory(c.Query("categoria"))
	if categoria != "" && categoria != models.AllCategories && !models.IsCategory(categoria) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	list, err := s.products.ListActiveProducts(c.Request.Context(), categoria, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	cards := make([]productCard, 0, len(list))
	for i := range list {
		p := &list[i]
		cards = append(cards, productCard{
			ID:        p.ID,
			Nombre:    p.Nombre,
			Precio:    p.Precio,
			Categoria: p.Categoria,
			Imagen:    s.cardImage(p),
			SoldOut:   p.SoldOut(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": cards})
}

func (s *Server) handleListProducts(c *gin.Context) {
	list, err := s.products.ListProductsByArtisan(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	id, ok := s.productID(c)
	if !ok {
		return
	}
	if err := s.products.DeleteProduct(c.Request.Context(), id, auth.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
