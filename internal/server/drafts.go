package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"artesanos/internal/auth"
	"artesanos/internal/compress"
	"artesanos/internal/events"
	"artesanos/internal/intake"
	"artesanos/internal/models"
)

type moveRequest struct {
	Index     int `json:"index"`
	Direction int `json:"direction" binding:"oneof=-1 1"`
}

type productForm struct {
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion"`
	Precio      float64 `json:"precio"`
	Categoria   string  `json:"categoria"`
	Stock       int     `json:"stock"`
	Activo      *bool   `json:"activo"`
}

func (s *Server) handleNewDraft(c *gin.Context) {
	d := s.drafts.Open(auth.UserID(c), nil, nil)
	c.JSON(http.StatusCreated, d.View())
}

func (s *Server) handleEditDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	p, err := s.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if p.ArtesanoID != auth.UserID(c) {
		respondError(c, models.ErrNotFound)
		return
	}
	d := s.drafts.Open(p.ArtesanoID, &p.ID, p.Imagenes)
	c.JSON(http.StatusCreated, gin.H{"draft": d.View(), "product": p})
}

func (s *Server) draft(c *gin.Context) (*intake.Draft, bool) {
	d, err := s.drafts.Get(c.Param("id"), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return d, true
}

func (s *Server) handleGetDraft(c *gin.Context) {
	if d, ok := s.draft(c); ok {
		c.JSON(http.StatusOK, d.View())
	}
}

func (s *Server) handleCloseDraft(c *gin.Context) {
	d, ok := s.draft(c)
	if !ok {
		return
	}
	if err := s.drafts.Close(d.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddImages(c *gin.Context) {
	const op = "server.handleAddImages"

	d, ok := s.draft(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Images.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	var files []*compress.Blob
	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
			return
		}
		files = append(files, &compress.Blob{
			Name:        fh.Filename,
			ContentType: declaredType(fh.Header.Get("Content-Type")),
			Data:        data,
		})
	}

	report, err := s.drafts.Add(d, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"draft":    d.View(),
		"report":   report,
		"messages": report.Messages(),
	})
}

// declaredType drops parameters such as "; charset=binary".
func declaredType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func (s *Server) handleRemoveImage(c *gin.Context) {
	d, ok := s.draft(c)
	if !ok {
		return
	}
	if err := s.drafts.Remove(d, c.Param("item")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d.View())
}

func (s *Server) handleMoveImage(c *gin.Context) {
	d, ok := s.draft(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.drafts.Move(d, req.Index, req.Direction); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d.View())
}

// handleSubmitDraft uploads the draft's new images and saves the product with
// the resulting ordered URL list. Nothing is written when no image made it.
func (s *Server) handleSubmitDraft(c *gin.Context) {
	d, ok := s.draft(c)
	if !ok {
		return
	}
	var form productForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &models.Product{
		ArtesanoID:  d.OwnerID,
		Nombre:      strings.TrimSpace(form.Nombre),
		Descripcion: strings.TrimSpace(form.Descripcion),
		Precio:      form.Precio,
		Categoria:   models.NormalizeCategory(form.Categoria),
		Stock:       form.Stock,
		Activo:      form.Activo == nil || *form.Activo,
	}
	if err := p.Validate(); err != nil {
		respondError(c, err)
		return
	}
	if d.Snapshot().Len() == 0 {
		respondError(c, models.ErrNoImages)
		return
	}

	ctx := c.Request.Context()
	res, err := s.drafts.Submit(ctx, d)
	if err != nil {
		if errors.Is(err, intake.ErrNoImagesUploaded) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "draft": d.View()})
			return
		}
		respondError(c, err)
		return
	}

	p.Imagenes = res.URLs
	status := http.StatusOK
	if pid := d.ProductID(); pid == nil {
		err = s.products.CreateProduct(ctx, p)
		status = http.StatusCreated
	} else {
		p.ID = *pid
		err = s.products.UpdateProduct(ctx, p)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	log := s.log.With().Str("product_id", p.ID.String()).Str("draft_id", d.ID).Logger()
	if err := s.events.ImagesSaved(ctx, events.ImagesSaved{
		ProductID:  p.ID,
		ArtesanoID: p.ArtesanoID,
		Imagenes:   p.Imagenes,
		SavedAt:    time.Now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish images event")
	}

	if res.Failed > 0 {
		// Keep the draft so the failed images can be retried against the saved product.
		d.Attach(p.ID)
	}
	view := d.View()
	if res.Failed == 0 {
		if err := s.drafts.Close(d.ID); err != nil {
			log.Warn().Err(err).Msg("failed to close submitted draft")
		}
	}
	log.Info().Int("uploaded", res.Uploaded).Int("failed", res.Failed).Msg("product images saved")

	c.JSON(status, gin.H{"product": p, "draft": view, "failed": res.Failed})
}

func (s *Server) handleGetPreview(c *gin.Context) {
	b, ok := s.previews.Lookup(c.Param("ref"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, b.ContentType, b.Data)
}
