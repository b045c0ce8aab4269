package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/stretchr/testify/assert"
)

type stubSucursales struct{ calls int32 }

func (s *stubSucursales) Listar(context.Context) []model.Sucursal {
	atomic.AddInt32(&s.calls, 1)
	return []model.Sucursal{{ID: 1, Nombre: "Centro", Activo: true}}
}

type stubCajeros struct {
	calls int32
	err   error
}

func (s *stubCajeros) Refrescar(context.Context) error {
	atomic.AddInt32(&s.calls, 1)
	return s.err
}

func TestRefreshMirrors(t *testing.T) {
	suc, caj := &stubSucursales{}, &stubCajeros{}
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig("api"))

	assert.True(t, refreshMirrors(context.Background(), MirrorCronConfig{Sucursales: suc, Cajeros: caj, CB: cb}))
	assert.Equal(t, int32(1), suc.calls)
	assert.Equal(t, int32(1), caj.calls)

	caj.err = errors.New("caido")
	assert.True(t, refreshMirrors(context.Background(), MirrorCronConfig{Sucursales: suc, Cajeros: caj}))
	assert.Equal(t, int32(2), caj.calls)
}

func TestRefreshMirrorsSkipsWhenBreakerOpen(t *testing.T) {
	suc, caj := &stubSucursales{}, &stubCajeros{}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name: "api", FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Hour,
	})
	_ = cb.Execute(func() error { return errors.New("boom") })
	assert.Equal(t, infra.CBOpen, cb.State())

	assert.False(t, refreshMirrors(context.Background(), MirrorCronConfig{Sucursales: suc, Cajeros: caj, CB: cb}))
	assert.Zero(t, suc.calls)
	assert.Zero(t, caj.calls)
}

func TestStartMirrorCronStopsWithContext(t *testing.T) {
	suc, caj := &stubSucursales{}, &stubCajeros{}
	ctx, cancel := context.WithCancel(context.Background())
	StartMirrorCron(ctx, MirrorCronConfig{Sucursales: suc, Cajeros: caj, Interval: 10 * time.Millisecond})

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&caj.calls) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)
	n := atomic.LoadInt32(&caj.calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, atomic.LoadInt32(&caj.calls))
}
