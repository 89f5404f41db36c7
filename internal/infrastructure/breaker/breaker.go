package breaker

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gupshup-api/internal/domain"
	"github.com/sony/gobreaker"
)

const (
	maxFailures = 5
	interval    = 60 * time.Second
	openTimeout = 30 * time.Second
)

// New returns a breaker that opens after maxFailures consecutive failures and
// lets one trial call through after openTimeout.
func New(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

type emailSender interface {
	SendEmail(to, subject, body string) error
}

// Mailer guards an email sender with a circuit breaker.
type Mailer struct {
	next emailSender
	cb   *gobreaker.CircuitBreaker
}

func NewMailer(next emailSender) *Mailer {
	return &Mailer{next: next, cb: New("smtp")}
}

func (m *Mailer) SendEmail(to, subject, body string) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.next.SendEmail(to, subject, body)
	})
	return err
}

type mediaStore interface {
	Upload(ctx context.Context, folder, name string, r io.Reader, contentType string) (*domain.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// MediaStore guards an image store with a circuit breaker shared by uploads and deletes.
type MediaStore struct {
	next mediaStore
	cb   *gobreaker.CircuitBreaker
}

func NewMediaStore(name string, next mediaStore) *MediaStore {
	return &MediaStore{next: next, cb: New(name)}
}

func (s *MediaStore) Upload(ctx context.Context, folder, name string, r io.Reader, contentType string) (*domain.Asset, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Upload(ctx, folder, name, r, contentType)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Asset), nil
}

func (s *MediaStore) Delete(ctx context.Context, publicID string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Delete(ctx, publicID)
	})
	return err
}
