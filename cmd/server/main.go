package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/config"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/remote"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/router"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger. dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	store, rdb, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open local store")
	}

	breaker := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name:             "api",
		FailureThreshold: cfg.CBFailureThreshold,
		SuccessThreshold: cfg.CBSuccessThreshold,
		OpenTimeout:      cfg.CBOpenTimeout(),
	})
	client := remote.NewClient(cfg.APIBaseURL, cfg.APITimeout(), breaker)

	verif, err := service.NewVerificador(cfg.PasswordHashAlgo)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid password hash algorithm")
	}
	var demoHash string
	if cfg.SeedAdminPassword != "" {
		if demoHash, err = verif.Hash(cfg.SeedAdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to hash seed password")
		}
	}
	local := repository.NewLocalStore(store, repository.DefaultSeed(demoHash))

	sucursales := service.NewSucursalService(client, local)
	cajeros := service.NewCajeroService(client, local, verif)
	turnos := service.NewTurnoService(client, local)
	hub := service.NewIdentidadHub()
	marcadores := service.NewMarcadores(store)

	// The POS scope follows the identity pushed by the host application;
	// pedidos runs its own login flow.
	pos := service.NewSesion(service.SesionConfig{
		Scope: model.ScopePOS, KV: store, Marcadores: marcadores,
		Sucursales: sucursales, Cajeros: cajeros, Turnos: turnos,
		Topbar: service.TopbarPOS, Identidad: hub,
	})
	pedidos := service.NewSesion(service.SesionConfig{
		Scope: model.ScopePedidos, KV: store, Marcadores: marcadores,
		Sucursales: sucursales, Cajeros: cajeros, Turnos: turnos,
		Topbar: service.TopbarPedidos,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, s := range []service.SesionService{pos, pedidos} {
		if err := s.Restaurar(ctx); err != nil {
			log.Warn().Err(err).Str("scope", string(s.Scope())).Msg("failed to restore session")
		}
	}

	worker.StartMirrorCron(ctx, worker.MirrorCronConfig{
		Sucursales: sucursales,
		Cajeros:    cajeros,
		CB:         breaker,
		Interval:   cfg.MirrorRefreshInterval(),
	})

	r := router.New(router.Deps{
		Config:     cfg,
		Store:      store,
		Redis:      rdb,
		Breaker:    breaker,
		Sucursales: sucursales,
		Identidad:  hub,
		Sesiones:   []service.SesionService{pos, pedidos},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("caja-sesion backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

// openStore builds the device-local KV for the configured driver. The redis
// client is returned only when the store runs on it, for the health check.
func openStore(cfg *config.Config) (repository.KV, *redis.Client, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("using in-memory store, local state is lost on restart")
		return repository.NewMemoryKV(), nil, nil
	case "redis":
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisKV(rdb, "caja:"), rdb, nil
	case "sqlite", "postgres":
		db, err := infra.NewDatabase(cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		kv, err := repository.NewGormKV(db)
		return kv, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
