package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/config"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/dto"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/middleware"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/remote"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "identidad-test"
	hash1234   = "03ac674216f3e15c761ee1a5e255f067953623c8b388b4459e13f978d7c846f4"
)

type testApp struct {
	engine  *gin.Engine
	backend *int64
}

// newTestApp wires the full stack against a backend that is always down, so
// every operation runs on the local fallback.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var calls int64
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(backend.Close)

	breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig("api"))
	client := remote.NewClient(backend.URL, time.Second, breaker)
	kv := repository.NewMemoryKV()
	local := repository.NewLocalStore(kv, repository.Seed{
		Sucursales: []model.Sucursal{{ID: 1, Nombre: "Centro", EsPrincipal: true, Activo: true}},
		Cajeros: []model.Cajero{
			{ID: 7, Nombre: "ana", PasswordHash: hash1234, SucursalID: 1, Rol: model.RolCajero, Activo: true},
		},
	})
	verif, err := service.NewVerificador("sha256")
	require.NoError(t, err)

	sucursales := service.NewSucursalService(client, local)
	cajeros := service.NewCajeroService(client, local, verif)
	turnos := service.NewTurnoService(client, local)
	hub := service.NewIdentidadHub()
	marcadores := service.NewMarcadores(kv)

	pos := service.NewSesion(service.SesionConfig{
		Scope: model.ScopePOS, KV: kv, Marcadores: marcadores, Sucursales: sucursales,
		Cajeros: cajeros, Turnos: turnos, Topbar: service.TopbarPOS, Identidad: hub,
	})
	pedidos := service.NewSesion(service.SesionConfig{
		Scope: model.ScopePedidos, KV: kv, Marcadores: marcadores, Sucursales: sucursales,
		Cajeros: cajeros, Turnos: turnos, Topbar: service.TopbarPedidos,
	})

	cfg := &config.Config{Env: "test", CORSAllowedOrigins: "*", IdentityJWTSecret: testSecret, LoginRateLimit: 50}
	engine := New(Deps{
		Config: cfg, Store: kv, Breaker: breaker,
		Sucursales: sucursales, Identidad: hub, Sesiones: []service.SesionService{pos, pedidos},
	})
	return &testApp{engine: engine, backend: &calls}
}

func (a *testApp) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/v1/sesiones/pos/login", map[string]any{
		"nombre": "ana", "password": "1234", "saldo_inicial": "50000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[dto.ResultadoResponse](t, w).Success)

	snap := decode[dto.SesionResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pos", nil))
	assert.Equal(t, model.SesionConTurno, snap.Estado)
	require.NotNil(t, snap.Turno)
	assert.True(t, snap.Turno.SaldoInicial.Equal(snap.SaldoInicial))
	assert.NotContains(t, app.do(t, http.MethodGet, "/v1/sesiones/pos", nil).Body.String(), "password")

	vivo := decode[dto.TurnoVivoResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pos/turno/vivo", nil))
	assert.True(t, vivo.Vivo)

	top := decode[dto.TopbarResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pos/topbar", nil))
	assert.Equal(t, "Cajero: ana | Sucursal: Centro", top.Text)

	w = app.do(t, http.MethodPost, "/v1/sesiones/pos/logout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Debe cerrar el turno antes de cerrar sesión", decode[dto.ResultadoResponse](t, w).Message)

	w = app.do(t, http.MethodPost, "/v1/sesiones/pos/turno/cerrar", map[string]any{"conteo_final": 50000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodPost, "/v1/sesiones/pos/logout", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	snap = decode[dto.SesionResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pos", nil))
	assert.Equal(t, model.SesionCerrada, snap.Estado)
	require.NotNil(t, snap.Sucursal)
	assert.Equal(t, int64(1), snap.Sucursal.ID)

	// pedidos was never touched
	snap = decode[dto.SesionResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pedidos", nil))
	assert.Equal(t, model.SesionCerrada, snap.Estado)
}

func TestLoginValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/v1/sesiones/pos/login", map[string]any{"nombre": "ana"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Password")

	w = app.do(t, http.MethodPost, "/v1/sesiones/pos/login", map[string]any{"nombre": "ana", "password": "1234", "saldo_inicial": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = app.do(t, http.MethodPost, "/v1/sesiones/caja/login", map[string]any{"nombre": "ana", "password": "1234"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSucursalInvalidIDIsNull(t *testing.T) {
	app := newTestApp(t)
	before := atomic.LoadInt64(app.backend)

	for _, id := range []string{"undefined", "null", "abc", "0"} {
		w := app.do(t, http.MethodGet, "/v1/sucursales/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", w.Body.String())
	}
	assert.Equal(t, before, atomic.LoadInt64(app.backend))

	w := app.do(t, http.MethodGet, "/v1/sucursales/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Centro", decode[model.Sucursal](t, w).Nombre)

	w = app.do(t, http.MethodGet, "/v1/sucursales/default", nil)
	assert.True(t, decode[model.Sucursal](t, w).EsPrincipal)
}

func TestIdentidadMirrorsIntoPOS(t *testing.T) {
	app := newTestApp(t)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.IdentidadClaims{
		CajeroID: 7, Nombre: "ana", SucursalID: 1, Rol: "cajero",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := app.do(t, http.MethodPut, "/v1/identidad", nil, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	snap := decode[dto.SesionResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pos", nil))
	assert.Equal(t, model.SesionSinTurno, snap.Estado)
	require.NotNil(t, snap.Cajero)
	assert.Equal(t, int64(7), snap.Cajero.ID)

	w = app.do(t, http.MethodDelete, "/v1/identidad", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	snap = decode[dto.SesionResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pos", nil))
	assert.Equal(t, model.SesionSinTurno, snap.Estado)

	w = app.do(t, http.MethodDelete, "/v1/identidad", nil, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, w.Code)
	snap = decode[dto.SesionResponse](t, app.do(t, http.MethodGet, "/v1/sesiones/pos", nil))
	assert.Equal(t, model.SesionCerrada, snap.Estado)

	w = app.do(t, http.MethodPut, "/v1/identidad", nil, "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "connected", body["store"])
	assert.Equal(t, "closed", body["api"])
	assert.NotContains(t, body, "redis")
}
