package worker

// mirror_cron.go
// Background goroutine that keeps the local branch and cashier mirrors warm so
// the offline fallback has recent data. Skips ticks while the API breaker is
// open.

import (
	"context"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/rs/zerolog/log"
)

const defaultMirrorInterval = 5 * time.Minute

// SucursalLister refreshes the branch mirror as a side effect of listing.
type SucursalLister interface {
	Listar(ctx context.Context) []model.Sucursal
}

// CajeroRefresher re-pulls the remote cashier list into the local mirror.
type CajeroRefresher interface {
	Refrescar(ctx context.Context) error
}

// MirrorCronConfig holds all dependencies for the mirror goroutine. CB may be nil.
type MirrorCronConfig struct {
	Sucursales SucursalLister
	Cajeros    CajeroRefresher
	CB         *infra.CircuitBreaker
	Interval   time.Duration
}

// StartMirrorCron launches the refresher. It respects the context for
// graceful shutdown.
func StartMirrorCron(ctx context.Context, cfg MirrorCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultMirrorInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("mirror_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("mirror_cron: shutting down")
				return
			case <-ticker.C:
				refreshMirrors(ctx, cfg)
			}
		}
	}()
}

// refreshMirrors runs one tick. It reports whether the remote was attempted.
func refreshMirrors(ctx context.Context, cfg MirrorCronConfig) bool {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("mirror_cron: circuit breaker is open, skipping tick")
		return false
	}

	sucursales := cfg.Sucursales.Listar(ctx)

	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("mirror_cron: circuit breaker opened mid-tick, stopping")
		return true
	}
	if err := cfg.Cajeros.Refrescar(ctx); err != nil {
		log.Warn().Err(err).Msg("mirror_cron: cashier refresh failed")
		return true
	}

	log.Debug().Int("sucursales", len(sucursales)).Msg("mirror_cron: mirrors refreshed")
	return true
}
