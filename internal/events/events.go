package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ImagesSaved is published after a product's image list is persisted.
type ImagesSaved struct {
	ProductID  uuid.UUID `json:"product_id"`
	ArtesanoID string    `json:"artesano_id"`
	Imagenes   []string  `json:"imagenes"`
	SavedAt    time.Time `json:"saved_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	w messageWriter
}

func NewPublisher(w messageWriter) *Publisher {
	return &Publisher{w: w}
}

// ImagesSaved keys the message by product so events for one product stay ordered.
func (p *Publisher) ImagesSaved(ctx context.Context, ev ImagesSaved) error {
	const op = "events.ImagesSaved"

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(ev.ProductID.String()), Value: body}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
