package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/remote"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const hash1234 = "03ac674216f3e15c761ee1a5e255f067953623c8b388b4459e13f978d7c846f4"

var errCaido = &remote.Error{Op: "test", Err: errors.New("connection refused")}

// ── In-memory backend ─────────────────────────────────────────────────────────

// fakeAPI behaves like the central API. With caido set every call fails as a
// connectivity error.
type fakeAPI struct {
	mu         sync.Mutex
	caido      bool
	sucursales []model.Sucursal
	cajeros    []model.Cajero
	passwords  map[string]string
	turnos     []model.Turno
	nextID     int64
	calls      map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sucursales: []model.Sucursal{
			{ID: 1, Nombre: "Centro", EsPrincipal: true, Activo: true},
			{ID: 2, Nombre: "Norte", Activo: true},
			{ID: 3, Nombre: "Cerrada", Activo: false},
		},
		cajeros: []model.Cajero{
			{ID: 7, Nombre: "ana", SucursalID: 1, Rol: model.RolCajero, Activo: true},
			{ID: 8, Nombre: "beto", SucursalID: 2, Rol: model.RolSupervisor, Activo: true},
			{ID: 9, Nombre: "caro", SucursalID: 1, Rol: model.RolCajero, Activo: false},
		},
		passwords: map[string]string{"ana": "1234", "beto": "abcd", "caro": "0000"},
		nextID:    100,
		calls:     map[string]int{},
	}
}

func (f *fakeAPI) setCaido(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caido = v
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if f.caido {
		return errCaido
	}
	return nil
}

func (f *fakeAPI) ListSucursales(_ context.Context) ([]model.Sucursal, error) {
	if err := f.enter("ListSucursales"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Sucursal(nil), f.sucursales...), nil
}

func (f *fakeAPI) GetSucursal(_ context.Context, id int64) (*model.Sucursal, error) {
	if err := f.enter("GetSucursal"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sucursales {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, &remote.Error{Op: "get sucursal", Status: 404}
}

func (f *fakeAPI) GetSucursalPrincipal(_ context.Context) (*model.Sucursal, error) {
	if err := f.enter("GetSucursalPrincipal"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sucursales {
		if s.EsPrincipal {
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeAPI) ListCajeros(_ context.Context, sucursalID *int64) ([]model.Cajero, error) {
	if err := f.enter("ListCajeros"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Cajero
	for _, c := range f.cajeros {
		if sucursalID == nil || c.SucursalID == *sucursalID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAPI) Authenticate(_ context.Context, nombre, password string, sucursalID *int64) (*remote.AuthResult, error) {
	if err := f.enter("Authenticate"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cajeros {
		if c.Nombre != nombre || (sucursalID != nil && c.SucursalID != *sucursalID) {
			continue
		}
		if !c.Activo || f.passwords[nombre] != password {
			return &remote.AuthResult{Message: "Credenciales inválidas"}, nil
		}
		cp := c
		return &remote.AuthResult{Success: true, Cajero: &cp}, nil
	}
	return &remote.AuthResult{Message: "Cajero no encontrado"}, nil
}

func (f *fakeAPI) CreateTurno(_ context.Context, nt remote.NuevoTurno) (*model.Turno, error) {
	if err := f.enter("CreateTurno"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := model.Turno{
		ID: f.nextID, CajeroID: nt.CajeroID, SucursalID: nt.SucursalID,
		FechaApertura: time.Now(), Estado: model.TurnoActivo, SaldoInicial: nt.SaldoInicial,
	}
	f.turnos = append(f.turnos, t)
	return &t, nil
}

func (f *fakeAPI) CloseTurno(_ context.Context, id int64, conteoFinal decimal.Decimal) (*model.Turno, error) {
	if err := f.enter("CloseTurno"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.turnos {
		if f.turnos[i].ID == id && f.turnos[i].Vivo() {
			f.turnos[i].Cerrar(conteoFinal, time.Now())
			t := f.turnos[i]
			return &t, nil
		}
	}
	return nil, &remote.Error{Op: "close turno", Status: 400}
}

func (f *fakeAPI) ListTurnos(_ context.Context, cajeroID int64) ([]model.Turno, error) {
	if err := f.enter("ListTurnos"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Turno
	for _, t := range f.turnos {
		if t.CajeroID == cajeroID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ── Wiring helpers ────────────────────────────────────────────────────────────

func testSeed() repository.Seed {
	return repository.Seed{
		Sucursales: []model.Sucursal{{ID: 1, Nombre: "Centro", EsPrincipal: true, Activo: true}},
		Cajeros: []model.Cajero{
			{ID: 7, Nombre: "ana", PasswordHash: hash1234, SucursalID: 1, Rol: model.RolCajero, Activo: true},
			{ID: 9, Nombre: "caro", PasswordHash: hash1234, SucursalID: 1, Rol: model.RolCajero, Activo: false},
		},
	}
}

type harness struct {
	api        *fakeAPI
	kv         *repository.MemoryKV
	local      *repository.LocalStore
	marcadores *Marcadores
	sucursales SucursalService
	cajeros    CajeroService
	turnos     TurnoService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	verif, err := NewVerificador("sha256")
	require.NoError(t, err)

	api := newFakeAPI()
	kv := repository.NewMemoryKV()
	local := repository.NewLocalStore(kv, testSeed())
	return &harness{
		api:        api,
		kv:         kv,
		local:      local,
		marcadores: NewMarcadores(kv),
		sucursales: NewSucursalService(api, local),
		cajeros:    NewCajeroService(api, local, verif),
		turnos:     NewTurnoService(api, local),
	}
}

func (h *harness) sesion(scope model.Scope, hub *IdentidadHub) SesionService {
	return NewSesion(SesionConfig{
		Scope:      scope,
		KV:         h.kv,
		Marcadores: h.marcadores,
		Sucursales: h.sucursales,
		Cajeros:    h.cajeros,
		Turnos:     h.turnos,
		Topbar:     TopbarPOS,
		Identidad:  hub,
	})
}
