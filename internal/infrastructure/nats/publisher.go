package natsinfra

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPostCreated = "post.created"
	SubjectPostLiked   = "post.liked"
	SubjectPostSaved   = "post.saved"
)

// PostEvent is the payload of every post.* subject.
type PostEvent struct {
	PostID string    `json:"post_id"`
	UserID string    `json:"user_id"`
	Active bool      `json:"active"` // liked/saved after the toggle; always true for created
	At     time.Time `json:"at"`
}

type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// Publisher emits post events. A nil *Publisher drops everything, so callers
// need no configuration checks.
type Publisher struct{ nc conn }

func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("gupshup-api"))
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

// Publish is best effort: failures are logged and never returned.
func (p *Publisher) Publish(subject string, ev PostEvent) {
	if p == nil || p.nc == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("encode event", "subject", subject, "err", err)
		return
	}
	if err := p.nc.Publish(subject, b); err != nil {
		slog.Warn("publish event", "subject", subject, "err", err)
	}
}

func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		slog.Warn("drain nats", "err", err)
	}
}
