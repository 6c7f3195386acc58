// Package operations holds the school attendance use cases: login, tenant
// CRUD, card assignment and the attendance mark. Handlers resolve identity
// and school scope before calling in; every method here trusts schoolID.
package operations

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Thomas-Okram/TapTell/internal/arrival"
	"github.com/Thomas-Okram/TapTell/internal/repository"
	"github.com/Thomas-Okram/TapTell/internal/telemetry"
)

// ArrivalHandler runs the best-effort work after a new attendance row.
type ArrivalHandler interface {
	AfterMark(ctx context.Context, mark arrival.Mark) arrival.Outcome
}

type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type Options struct {
	TokenSecret string
	TokenTTL    time.Duration
	Arrivals    ArrivalHandler
	Limiter     LoginLimiter
	Now         func() time.Time
	Logger      *slog.Logger
}

type Service struct {
	store       repository.Store
	arrivals    ArrivalHandler
	limiter     LoginLimiter
	tokenSecret string
	tokenTTL    time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewService(store repository.Store, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Logger("operations")
	}
	return &Service{
		store:       store,
		arrivals:    opts.Arrivals,
		limiter:     opts.Limiter,
		tokenSecret: opts.TokenSecret,
		tokenTTL:    opts.TokenTTL,
		now:         opts.Now,
		logger:      opts.Logger,
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// trimmed returns a trimmed copy of an optional patch field.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}
