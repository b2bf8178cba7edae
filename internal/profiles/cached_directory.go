package profiles

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CachedDirectory puts a NameCache in front of a Directory. Cache calls run
// behind a circuit breaker: once the cache keeps failing, lookups go straight
// to the source until the breaker half-opens again. Concurrent misses for the
// same id share one source lookup.
type CachedDirectory struct {
	source  Directory
	cache   NameCache
	breaker *gobreaker.CircuitBreaker[string]
	group   singleflight.Group
	logger  *slog.Logger
}

func NewCachedDirectory(source Directory, cache NameCache, cfg BreakerConfig, logger *slog.Logger) *CachedDirectory {
	settings := gobreaker.Settings{
		Name:        "profile-cache",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &CachedDirectory{
		source:  source,
		cache:   cache,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		logger:  logger,
	}
}

func (d *CachedDirectory) DisplayName(ctx context.Context, id string) (string, error) {
	name, err := d.breaker.Execute(func() (string, error) {
		return d.cache.Get(ctx, id)
	})
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		d.logger.WarnContext(ctx, "profile cache unavailable", "profile_id", id, "error", err)
	}

	v, err, _ := d.group.Do(id, func() (any, error) {
		name, err := d.source.DisplayName(ctx, id)
		if err != nil {
			return "", err
		}
		_, setErr := d.breaker.Execute(func() (string, error) {
			return "", d.cache.Set(ctx, id, name)
		})
		if setErr != nil {
			d.logger.WarnContext(ctx, "failed to cache profile name", "profile_id", id, "error", setErr)
		}
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// State reports the breaker state, for health output.
func (d *CachedDirectory) State() gobreaker.State {
	return d.breaker.State()
}
