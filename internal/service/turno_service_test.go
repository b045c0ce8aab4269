package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/remote"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTurnoAPI is a mock implementation of TurnoAPI
type MockTurnoAPI struct {
	mock.Mock
}

func (m *MockTurnoAPI) CreateTurno(ctx context.Context, nt remote.NuevoTurno) (*model.Turno, error) {
	args := m.Called(ctx, nt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Turno), args.Error(1)
}

func (m *MockTurnoAPI) CloseTurno(ctx context.Context, id int64, conteoFinal decimal.Decimal) (*model.Turno, error) {
	args := m.Called(ctx, id, conteoFinal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Turno), args.Error(1)
}

func (m *MockTurnoAPI) ListTurnos(ctx context.Context, cajeroID int64) ([]model.Turno, error) {
	args := m.Called(ctx, cajeroID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Turno), args.Error(1)
}

func newLocalWithTurnos(t *testing.T, turnos ...model.Turno) *repository.LocalStore {
	t.Helper()
	local := repository.NewLocalStore(repository.NewMemoryKV(), testSeed())
	for _, tu := range turnos {
		require.NoError(t, local.MirrorTurno(context.Background(), tu))
	}
	return local
}

func TestObtenerActivoEmptyRemoteIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	stale := model.Turno{ID: 55, CajeroID: 7, SucursalID: 1, Estado: model.TurnoActivo}
	local := newLocalWithTurnos(t, stale)

	api := new(MockTurnoAPI)
	api.On("ListTurnos", mock.Anything, int64(7)).Return([]model.Turno{}, nil)

	got, err := NewTurnoService(api, local).ObtenerActivo(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
	api.AssertExpectations(t)
}

func TestObtenerActivoFallsBackOnlyOnConnectivity(t *testing.T) {
	ctx := context.Background()
	local := newLocalWithTurnos(t,
		model.Turno{ID: 55, CajeroID: 7, SucursalID: 1, Estado: model.TurnoActivo},
		model.Turno{ID: 56, CajeroID: 8, SucursalID: 2, Estado: model.TurnoActivo},
	)

	api := new(MockTurnoAPI)
	api.On("ListTurnos", mock.Anything, int64(7)).Return(nil, errCaido)

	got, err := NewTurnoService(api, local).ObtenerActivo(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(55), got.ID)
}

func TestObtenerActivoRejectsForeignShift(t *testing.T) {
	ctx := context.Background()
	api := new(MockTurnoAPI)
	api.On("ListTurnos", mock.Anything, int64(7)).Return([]model.Turno{
		{ID: 60, CajeroID: 8, Estado: model.TurnoActivo},
		{ID: 61, CajeroID: 7, Estado: model.TurnoCerrado},
	}, nil)

	got, err := NewTurnoService(api, newLocalWithTurnos(t)).ObtenerActivo(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestObtenerActivoPicksNewest(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	api := new(MockTurnoAPI)
	api.On("ListTurnos", mock.Anything, int64(7)).Return([]model.Turno{
		{ID: 70, CajeroID: 7, Estado: model.TurnoActivo, FechaApertura: base},
		{ID: 71, CajeroID: 7, Estado: model.TurnoActivo, FechaApertura: base.Add(time.Hour)},
	}, nil)

	got, err := NewTurnoService(api, newLocalWithTurnos(t)).ObtenerActivo(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(71), got.ID)
}

func TestAbrirNeverDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(1000))
	require.NoError(t, err)
	second, err := h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(2000))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, h.api.count("CreateTurno"))

	cur, err := h.turnos.TurnoActual(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, first.ID, cur.ID)
}

func TestAbrirOfflineCreatesLocalShift(t *testing.T) {
	h := newHarness(t)
	h.api.setCaido(true)
	ctx := context.Background()

	turno, err := h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(50000))
	require.NoError(t, err)
	assert.True(t, model.IDLocal(turno.ID))
	assert.True(t, turno.Vivo())
	assert.True(t, turno.SaldoInicial.Equal(decimal.NewFromInt(50000)))

	again, err := h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, turno.ID, again.ID)

	_, err = h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrSaldoNegativo)
}

func TestCerrarLocalIDNeverCallsRemote(t *testing.T) {
	ctx := context.Background()
	api := new(MockTurnoAPI)
	api.On("ListTurnos", mock.Anything, int64(7)).Return(nil, errCaido)
	api.On("CreateTurno", mock.Anything, mock.Anything).Return(nil, errCaido)

	svc := NewTurnoService(api, newLocalWithTurnos(t))
	turno, err := svc.Abrir(ctx, 7, 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.True(t, model.IDLocal(turno.ID))

	closed, err := svc.Cerrar(ctx, turno.ID, decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.False(t, closed.Vivo())
	api.AssertNotCalled(t, "CloseTurno", mock.Anything, mock.Anything, mock.Anything)

	_, err = svc.Cerrar(ctx, turno.ID, decimal.NewFromInt(150))
	assert.ErrorIs(t, err, repository.ErrTurnoClosed)

	cur, err := svc.TurnoActual(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestCerrarServerIDMirrorsLocally(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	turno, err := h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.False(t, model.IDLocal(turno.ID))

	closed, err := h.turnos.Cerrar(ctx, turno.ID, decimal.NewFromInt(130))
	require.NoError(t, err)
	assert.False(t, closed.Vivo())
	assert.Equal(t, int64(7), closed.CajeroID)
	require.NotNil(t, closed.ConteoFinal)
	assert.True(t, closed.ConteoFinal.Equal(decimal.NewFromInt(130)))

	rec, err := h.local.FindTurnoByID(ctx, turno.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TurnoCerrado, rec.Estado)

	cur, err := h.turnos.TurnoActual(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestCerrarServerIDFallsBackLocally(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	turno, err := h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(100))
	require.NoError(t, err)

	h.api.setCaido(true)
	closed, err := h.turnos.Cerrar(ctx, turno.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.False(t, closed.Vivo())
	assert.Equal(t, 1, h.api.count("CloseTurno"))

	_, err = h.turnos.Cerrar(ctx, 999, decimal.Zero)
	assert.ErrorIs(t, err, repository.ErrTurnoNotFound)
}

func TestSigueVivo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	turno, err := h.turnos.Abrir(ctx, 7, 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, h.turnos.SigueVivo(ctx, *turno))

	// closed on the server behind this device's back
	h.api.mu.Lock()
	h.api.turnos[0].Cerrar(decimal.Zero, time.Now())
	h.api.mu.Unlock()
	assert.False(t, h.turnos.SigueVivo(ctx, *turno))

	h.api.setCaido(true)
	local, err := h.turnos.Abrir(ctx, 8, 2, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, h.turnos.SigueVivo(ctx, *local))
	_, err = h.turnos.Cerrar(ctx, local.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, h.turnos.SigueVivo(ctx, *local))
}

// slowKV adds read latency like the gorm and redis drivers have.
type slowKV struct {
	repository.KV
	delay time.Duration
}

func (s slowKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	time.Sleep(s.delay)
	return s.KV.Get(ctx, key)
}

func TestAbrirOfflineConcurrentNeverDuplicates(t *testing.T) {
	ctx := context.Background()
	api := new(MockTurnoAPI)
	api.On("ListTurnos", mock.Anything, int64(7)).Return(nil, errCaido)
	api.On("CreateTurno", mock.Anything, mock.Anything).Return(nil, errCaido)

	local := repository.NewLocalStore(slowKV{KV: repository.NewMemoryKV(), delay: time.Millisecond}, testSeed())
	svc := NewTurnoService(api, local)

	ids := make([]int64, 2)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tu, err := svc.Abrir(ctx, 7, 1, decimal.NewFromInt(10))
			if assert.NoError(t, err) {
				ids[i] = tu.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, ids[0], ids[1])
	turnos, err := local.ListTurnos(ctx)
	require.NoError(t, err)
	vivos := 0
	for _, tu := range turnos {
		if tu.CajeroID == 7 && tu.Vivo() {
			vivos++
		}
	}
	assert.Equal(t, 1, vivos)
}
