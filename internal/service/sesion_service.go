package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/dto"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Per-scope keys, stored under "<scope>.".
const (
	KeySesionCajero       = "cashier"
	KeySesionTurno        = "shift"
	KeySesionSucursal     = "branch"
	KeySesionSaldoInicial = "openingBalance"
	KeySesionTurnoCerrado = "shiftClosed"
)

// Free-standing markers, one timestamp per scope.
const (
	KeyLastLogin  = "lastLogin"
	KeyLastLogout = "lastLogout"
)

const (
	msgOperacionEnCurso   = "Hay una operación en curso"
	msgCerrarTurnoPrimero = "Debe cerrar el turno antes de cerrar sesión"
	msgSesionYaIniciada   = "Ya hay un cajero con sesión iniciada"
	msgSinSesion          = "Debe iniciar sesión primero"
	msgSinSucursal        = "No hay sucursales disponibles"
	msgSucursalNoExiste   = "Sucursal no encontrada"
	msgSucursalInactiva   = "La sucursal está inactiva"
	msgSinTurno           = "No hay un turno abierto"
	msgTurnoYaAbierto     = "Ya existe un turno abierto"
	msgOperacionCancelada = "Operación cancelada"
	msgErrorGuardado      = "No se pudo guardar la sesión"
)

// TopbarStrategy renders the status-bar text of a scope.
type TopbarStrategy func(cajero, sucursal string) string

func TopbarPOS(cajero, sucursal string) string {
	return fmt.Sprintf("Cajero: %s | Sucursal: %s", cajero, sucursal)
}

func TopbarPedidos(cajero, sucursal string) string {
	return fmt.Sprintf("Pedidos · %s @ %s", cajero, sucursal)
}

// ── Marcadores ────────────────────────────────────────────────────────────────

// Marcadores records the last login/logout instant of each scope under two
// shared keys. One instance must be shared by every session on the same KV.
type Marcadores struct {
	kv repository.KV
	mu sync.Mutex
}

func NewMarcadores(kv repository.KV) *Marcadores {
	return &Marcadores{kv: kv}
}

func (m *Marcadores) Registrar(ctx context.Context, clave string, scope model.Scope, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	marcas, err := m.leer(ctx, clave)
	if err != nil {
		return err
	}
	marcas[string(scope)] = at.UTC()
	raw, err := json.Marshal(marcas)
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, clave, raw)
}

func (m *Marcadores) Leer(ctx context.Context, clave string, scope model.Scope) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	marcas, err := m.leer(ctx, clave)
	if err != nil {
		return time.Time{}, false, err
	}
	at, ok := marcas[string(scope)]
	return at, ok, nil
}

func (m *Marcadores) leer(ctx context.Context, clave string) (map[string]time.Time, error) {
	raw, found, err := m.kv.Get(ctx, clave)
	if err != nil {
		return nil, err
	}
	marcas := map[string]time.Time{}
	if !found {
		return marcas, nil
	}
	if err := json.Unmarshal(raw, &marcas); err != nil {
		log.Warn().Err(err).Str("clave", clave).Msg("marcador ilegible, se reinicia")
		return map[string]time.Time{}, nil
	}
	return marcas, nil
}

// ── Sesion ────────────────────────────────────────────────────────────────────

type SesionConfig struct {
	Scope      model.Scope
	KV         repository.KV
	Marcadores *Marcadores
	Sucursales SucursalService
	Cajeros    CajeroService
	Turnos     TurnoService
	Topbar     TopbarStrategy
	// Identidad, when set, makes this scope a derived view of the system identity.
	Identidad *IdentidadHub
	Now       func() time.Time
}

type SesionService interface {
	Scope() model.Scope
	// Restaurar replays the persisted state of the scope.
	Restaurar(ctx context.Context) error
	Login(ctx context.Context, req dto.LoginRequest) dto.ResultadoResponse
	Logout(ctx context.Context) dto.ResultadoResponse
	CambiarSucursal(ctx context.Context, sucursalID int64) dto.ResultadoResponse
	AbrirTurno(ctx context.Context, saldoInicial decimal.Decimal) dto.ResultadoResponse
	CerrarTurno(ctx context.Context, conteoFinal decimal.Decimal) dto.ResultadoResponse
	ListarCajerosDisponibles(ctx context.Context) []dto.CajeroResponse
	TieneTurnoVivo(ctx context.Context) bool
	Topbar() dto.TopbarResponse
	SaldoInicial() decimal.Decimal
	Snapshot() dto.SesionResponse
}

type sesion struct {
	cfg SesionConfig
	kv  repository.KV

	// op serialises mutating operations. UI calls fail fast on contention,
	// identity mirroring waits.
	op sync.Mutex

	mu       sync.RWMutex
	estado   model.EstadoSesion
	cajero   *dto.CajeroResponse
	sucursal *model.Sucursal
	turno    *model.Turno
	saldo    decimal.Decimal
}

func NewSesion(cfg SesionConfig) SesionService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Topbar == nil {
		cfg.Topbar = TopbarPOS
	}
	if cfg.Marcadores == nil {
		cfg.Marcadores = NewMarcadores(cfg.KV)
	}
	s := &sesion{
		cfg:    cfg,
		kv:     repository.Namespace(cfg.KV, string(cfg.Scope)),
		estado: model.SesionCerrada,
	}
	if cfg.Identidad != nil {
		cfg.Identidad.Suscribir(s.alCambiarIdentidad)
	}
	return s
}

func (s *sesion) Scope() model.Scope { return s.cfg.Scope }

func (s *sesion) logger() *zerolog.Logger {
	l := log.With().Str("scope", string(s.cfg.Scope)).Logger()
	return &l
}

// ── Restaurar ─────────────────────────────────────────────────────────────────

func (s *sesion) Restaurar(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	var (
		cajero   *dto.CajeroResponse
		sucursal *model.Sucursal
		turno    *model.Turno
		saldo    decimal.Decimal
	)
	if _, err := s.leer(ctx, KeySesionSucursal, &sucursal); err != nil {
		return err
	}

	login, hayLogin, err := s.cfg.Marcadores.Leer(ctx, KeyLastLogin, s.cfg.Scope)
	if err != nil {
		return err
	}
	logout, hayLogout, err := s.cfg.Marcadores.Leer(ctx, KeyLastLogout, s.cfg.Scope)
	if err != nil {
		return err
	}
	if hayLogout && (!hayLogin || logout.After(login)) {
		s.logger().Info().Msg("sesión cerrada previamente, se descarta el estado remanente")
		if err := s.borrar(ctx, KeySesionCajero, KeySesionTurno, KeySesionSaldoInicial); err != nil {
			return err
		}
	} else {
		if _, err := s.leer(ctx, KeySesionCajero, &cajero); err != nil {
			return err
		}
		if _, err := s.leer(ctx, KeySesionTurno, &turno); err != nil {
			return err
		}
		if _, err := s.leer(ctx, KeySesionSaldoInicial, &saldo); err != nil {
			return err
		}
	}

	if turno != nil && (cajero == nil || turno.CajeroID != cajero.ID) {
		s.logger().Warn().Int64("turno_id", turno.ID).Msg("turno persistido de otro cajero descartado")
		turno = nil
		if err := s.borrar(ctx, KeySesionTurno, KeySesionSaldoInicial); err != nil {
			return err
		}
	}
	if turno != nil && !turno.Vivo() {
		turno = nil
	}

	// The device's current-shift pointer is fresher than the scope copy.
	if cajero != nil {
		if actual := s.turnoActualDe(ctx, cajero.ID); actual != nil {
			switch {
			case turno == nil:
				if err := s.guardar(ctx, KeySesionTurno, actual); err != nil {
					return err
				}
				if err := s.guardar(ctx, KeySesionSaldoInicial, actual.SaldoInicial); err != nil {
					return err
				}
				s.logger().Info().Int64("turno_id", actual.ID).Msg("turno vivo del cajero retomado")
				turno, saldo = actual, actual.SaldoInicial
			case turno.ID == actual.ID:
				turno = actual
			}
		}
	}

	estado := estadoPara(cajero, turno)
	s.mu.Lock()
	s.cajero, s.sucursal, s.turno, s.saldo = cajero, sucursal, turno, saldo
	s.estado = estado
	s.mu.Unlock()

	s.logger().Info().Str("estado", string(estado)).Msg("sesión restaurada")
	return nil
}

// turnoActualDe returns the device's current shift when it is live and owned
// by cajeroID.
func (s *sesion) turnoActualDe(ctx context.Context, cajeroID int64) *model.Turno {
	actual, err := s.cfg.Turnos.TurnoActual(ctx)
	if err != nil {
		s.logger().Warn().Err(err).Msg("no se pudo leer el turno actual")
		return nil
	}
	if actual == nil || actual.CajeroID != cajeroID || !actual.Vivo() {
		return nil
	}
	return actual
}

func estadoPara(cajero *dto.CajeroResponse, turno *model.Turno) model.EstadoSesion {
	switch {
	case cajero == nil:
		return model.SesionCerrada
	case turno != nil && turno.Vivo():
		return model.SesionConTurno
	default:
		return model.SesionSinTurno
	}
}

// ── Login ─────────────────────────────────────────────────────────────────────

func (s *sesion) Login(ctx context.Context, req dto.LoginRequest) dto.ResultadoResponse {
	if !s.op.TryLock() {
		return dto.Fallo(msgOperacionEnCurso)
	}
	defer s.op.Unlock()

	s.mu.Lock()
	if s.estado != model.SesionCerrada {
		s.mu.Unlock()
		return dto.Fallo(msgSesionYaIniciada)
	}
	s.estado = model.SesionAutenticando
	seleccionada := s.sucursal
	s.mu.Unlock()

	res := s.login(ctx, req, seleccionada)
	if !res.Success {
		s.mu.Lock()
		s.estado = model.SesionCerrada
		s.mu.Unlock()
		s.logger().Info().Str("cajero", req.Nombre).Str("motivo", res.Message).Msg("login rechazado")
	}
	return res
}

func (s *sesion) login(ctx context.Context, req dto.LoginRequest, seleccionada *model.Sucursal) dto.ResultadoResponse {
	var sucursalID *int64
	if seleccionada != nil {
		sucursalID = &seleccionada.ID
	}

	auth := s.cfg.Cajeros.Autenticar(ctx, req.Nombre, req.Password, sucursalID)
	if !auth.Success {
		return dto.Fallo(auth.Message)
	}
	if ctx.Err() != nil {
		return dto.Fallo(msgOperacionCancelada)
	}

	sucursal := s.resolverSucursal(ctx, seleccionada, auth.Cajero.SucursalID)
	if sucursal == nil {
		return dto.Fallo(msgSinSucursal)
	}
	if ctx.Err() != nil {
		return dto.Fallo(msgOperacionCancelada)
	}

	turno, err := s.cfg.Turnos.Abrir(ctx, auth.Cajero.ID, sucursal.ID, req.SaldoInicial)
	if err != nil {
		return dto.Fallo(mensajeTurno("No se pudo abrir el turno", err))
	}

	// The shift exists from here on, so the session is committed even if ctx
	// was cancelled meanwhile.
	if err := s.confirmar(context.WithoutCancel(ctx), auth.Cajero, sucursal, turno); err != nil {
		s.logger().Error().Err(err).Msg("no se pudo persistir la sesión")
		return dto.Fallo(msgErrorGuardado)
	}
	if err := s.cfg.Marcadores.Registrar(context.WithoutCancel(ctx), KeyLastLogin, s.cfg.Scope, s.cfg.Now()); err != nil {
		s.logger().Warn().Err(err).Msg("no se pudo registrar lastLogin")
	}
	s.logger().Info().Int64("cajero_id", auth.Cajero.ID).Int64("turno_id", turno.ID).Msg("sesión iniciada")
	return dto.Ok(auth.Message)
}

// resolverSucursal prefers the selected branch, then the cashier's own, then
// the default one.
func (s *sesion) resolverSucursal(ctx context.Context, seleccionada *model.Sucursal, sucursalCajero int64) *model.Sucursal {
	if seleccionada != nil && seleccionada.Activo {
		return seleccionada
	}
	if suc := s.cfg.Sucursales.ObtenerPorID(ctx, &sucursalCajero); suc != nil && suc.Activo {
		return suc
	}
	return s.cfg.Sucursales.ObtenerDefault(ctx)
}

// confirmar persists and publishes a logged-in state in one step. When a
// write fails the keys already written are put back as they were.
func (s *sesion) confirmar(ctx context.Context, cajero *dto.CajeroResponse, sucursal *model.Sucursal, turno *model.Turno) (err error) {
	previo, err := s.capturar(ctx, KeySesionCajero, KeySesionSucursal, KeySesionTurno, KeySesionSaldoInicial, KeySesionTurnoCerrado)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			s.revertir(ctx, previo)
		}
	}()

	saldo := decimal.Zero
	if turno != nil {
		saldo = turno.SaldoInicial
	}
	if err := s.guardar(ctx, KeySesionCajero, cajero); err != nil {
		return err
	}
	if err := s.guardar(ctx, KeySesionSucursal, sucursal); err != nil {
		return err
	}
	if turno != nil {
		if err := s.guardar(ctx, KeySesionTurno, turno); err != nil {
			return err
		}
		if err := s.guardar(ctx, KeySesionSaldoInicial, saldo); err != nil {
			return err
		}
		if err := s.borrar(ctx, KeySesionTurnoCerrado); err != nil {
			return err
		}
	} else if err := s.borrar(ctx, KeySesionTurno, KeySesionSaldoInicial); err != nil {
		return err
	}

	s.mu.Lock()
	s.cajero, s.sucursal, s.turno, s.saldo = cajero, sucursal, turno, saldo
	s.estado = estadoPara(cajero, turno)
	s.mu.Unlock()
	return nil
}

// ── Logout ────────────────────────────────────────────────────────────────────

func (s *sesion) Logout(ctx context.Context) dto.ResultadoResponse {
	if !s.op.TryLock() {
		return dto.Fallo(msgOperacionEnCurso)
	}
	defer s.op.Unlock()

	if s.turnoVivo(ctx) {
		s.logger().Warn().Msg("logout rechazado: turno vivo")
		return dto.Fallo(msgCerrarTurnoPrimero)
	}
	if err := s.limpiar(ctx); err != nil {
		s.logger().Error().Err(err).Msg("no se pudo limpiar la sesión")
		return dto.Fallo(msgErrorGuardado)
	}
	s.logger().Info().Msg("sesión cerrada")
	return dto.Ok("Sesión cerrada")
}

// turnoVivo re-validates the session's shift through the shift manager.
func (s *sesion) turnoVivo(ctx context.Context) bool {
	s.mu.RLock()
	turno := s.turno
	s.mu.RUnlock()
	if turno == nil || !turno.Vivo() {
		return false
	}
	return s.cfg.Turnos.SigueVivo(ctx, *turno)
}

// limpiar clears cashier, shift and shift-closing flags. The branch is kept.
func (s *sesion) limpiar(ctx context.Context) error {
	if err := s.borrar(ctx, KeySesionCajero, KeySesionTurno, KeySesionSaldoInicial, KeySesionTurnoCerrado); err != nil {
		return err
	}
	if err := s.cfg.Marcadores.Registrar(ctx, KeyLastLogout, s.cfg.Scope, s.cfg.Now()); err != nil {
		return err
	}
	s.mu.Lock()
	s.cajero, s.turno, s.saldo = nil, nil, decimal.Zero
	s.estado = model.SesionCerrada
	s.mu.Unlock()
	return nil
}

// ── Sucursal ──────────────────────────────────────────────────────────────────

func (s *sesion) CambiarSucursal(ctx context.Context, sucursalID int64) dto.ResultadoResponse {
	if !s.op.TryLock() {
		return dto.Fallo(msgOperacionEnCurso)
	}
	defer s.op.Unlock()

	suc := s.cfg.Sucursales.ObtenerPorID(ctx, &sucursalID)
	if suc == nil {
		return dto.Fallo(msgSucursalNoExiste)
	}
	if !suc.Activo {
		return dto.Fallo(msgSucursalInactiva)
	}
	if err := s.guardar(ctx, KeySesionSucursal, suc); err != nil {
		s.logger().Error().Err(err).Msg("no se pudo persistir la sucursal")
		return dto.Fallo(msgErrorGuardado)
	}
	s.mu.Lock()
	s.sucursal = suc
	s.mu.Unlock()

	s.logger().Info().Int64("sucursal_id", suc.ID).Msg("sucursal seleccionada")
	return dto.Ok("Sucursal seleccionada: " + suc.Nombre)
}

// ── Turno ─────────────────────────────────────────────────────────────────────

func (s *sesion) AbrirTurno(ctx context.Context, saldoInicial decimal.Decimal) dto.ResultadoResponse {
	if !s.op.TryLock() {
		return dto.Fallo(msgOperacionEnCurso)
	}
	defer s.op.Unlock()

	s.mu.RLock()
	cajero, sucursal, turno := s.cajero, s.sucursal, s.turno
	s.mu.RUnlock()

	if cajero == nil {
		return dto.Fallo(msgSinSesion)
	}
	if turno != nil && turno.Vivo() {
		return dto.Fallo(msgTurnoYaAbierto)
	}
	sucursal = s.resolverSucursal(ctx, sucursal, cajero.SucursalID)
	if sucursal == nil {
		return dto.Fallo(msgSinSucursal)
	}

	nuevo, err := s.cfg.Turnos.Abrir(ctx, cajero.ID, sucursal.ID, saldoInicial)
	if err != nil {
		return dto.Fallo(mensajeTurno("No se pudo abrir el turno", err))
	}
	if err := s.confirmar(context.WithoutCancel(ctx), cajero, sucursal, nuevo); err != nil {
		s.logger().Error().Err(err).Msg("no se pudo persistir el turno")
		return dto.Fallo(msgErrorGuardado)
	}
	return dto.Ok("Turno abierto")
}

func (s *sesion) CerrarTurno(ctx context.Context, conteoFinal decimal.Decimal) dto.ResultadoResponse {
	if !s.op.TryLock() {
		return dto.Fallo(msgOperacionEnCurso)
	}
	defer s.op.Unlock()

	s.mu.RLock()
	turno := s.turno
	s.mu.RUnlock()
	if turno == nil || !turno.Vivo() {
		return dto.Fallo(msgSinTurno)
	}

	if _, err := s.cfg.Turnos.Cerrar(ctx, turno.ID, conteoFinal); err != nil {
		return dto.Fallo(mensajeTurno("No se pudo cerrar el turno", err))
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.borrar(ctx, KeySesionTurno, KeySesionSaldoInicial); err != nil {
		s.logger().Error().Err(err).Msg("no se pudo limpiar el turno de la sesión")
	}
	if err := s.guardar(ctx, KeySesionTurnoCerrado, true); err != nil {
		s.logger().Warn().Err(err).Msg("no se pudo marcar el cierre de turno")
	}
	s.mu.Lock()
	s.turno, s.saldo = nil, decimal.Zero
	s.estado = estadoPara(s.cajero, nil)
	s.mu.Unlock()
	return dto.Ok("Turno cerrado")
}

// mensajeTurno keeps business messages verbatim and hides storage details.
func mensajeTurno(prefijo string, err error) string {
	switch {
	case errors.Is(err, ErrSaldoNegativo), errors.Is(err, ErrConteoNegativo):
		return err.Error()
	case errors.Is(err, repository.ErrTurnoNotFound), errors.Is(err, repository.ErrTurnoClosed):
		return prefijo + ": " + err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return msgOperacionCancelada
	default:
		return prefijo
	}
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *sesion) ListarCajerosDisponibles(ctx context.Context) []dto.CajeroResponse {
	s.mu.RLock()
	sucursal := s.sucursal
	s.mu.RUnlock()
	if sucursal == nil {
		sucursal = s.cfg.Sucursales.ObtenerDefault(ctx)
	}
	if sucursal == nil {
		return []dto.CajeroResponse{}
	}
	return s.cfg.Cajeros.ListarActivosPorSucursal(ctx, sucursal.ID)
}

func (s *sesion) TieneTurnoVivo(ctx context.Context) bool {
	return s.turnoVivo(ctx)
}

func (s *sesion) Topbar() dto.TopbarResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cajero == nil {
		return dto.TopbarResponse{}
	}
	cajero := s.cajero.Nombre
	resp := dto.TopbarResponse{Show: true, CajeroNombre: &cajero}
	sucursal := "Sin sucursal"
	if s.sucursal != nil {
		sucursal = s.sucursal.Nombre
		resp.SucursalNombre = &sucursal
	}
	resp.Text = s.cfg.Topbar(cajero, sucursal)
	return resp
}

func (s *sesion) SaldoInicial() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saldo
}

func (s *sesion) Snapshot() dto.SesionResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dto.SesionResponse{
		Scope:        s.cfg.Scope,
		Estado:       s.estado,
		Autenticado:  s.cajero != nil,
		Cajero:       s.cajero,
		Sucursal:     s.sucursal,
		Turno:        s.turno,
		SaldoInicial: s.saldo,
	}
}

// ── Identidad del sistema ─────────────────────────────────────────────────────

// alCambiarIdentidad re-derives cashier, branch and shift from the system
// identity, re-running the ownership check of an explicit login.
func (s *sesion) alCambiarIdentidad(ctx context.Context, id *model.Identidad) {
	s.op.Lock()
	defer s.op.Unlock()

	if id == nil {
		if s.turnoVivo(ctx) {
			s.logger().Warn().Msg("identidad retirada con turno vivo, se conserva la sesión")
			return
		}
		if err := s.limpiar(ctx); err != nil {
			s.logger().Error().Err(err).Msg("no se pudo limpiar la sesión")
		}
		return
	}

	s.mu.RLock()
	actual := s.cajero
	s.mu.RUnlock()
	if actual != nil && actual.ID != id.CajeroID && s.turnoVivo(ctx) {
		s.logger().Warn().Int64("cajero_id", actual.ID).Int64("identidad_cajero_id", id.CajeroID).
			Msg("identidad de otro cajero con turno vivo, se conserva la sesión")
		return
	}

	cajero := s.cajeroDeIdentidad(ctx, *id)

	s.mu.RLock()
	seleccionada := s.sucursal
	s.mu.RUnlock()
	var sucursal *model.Sucursal
	if suc := s.cfg.Sucursales.ObtenerPorID(ctx, &id.SucursalID); suc != nil && suc.Activo {
		sucursal = suc
	} else {
		sucursal = s.resolverSucursal(ctx, seleccionada, cajero.SucursalID)
	}

	turno, err := s.cfg.Turnos.ObtenerActivo(ctx, id.CajeroID)
	if err != nil {
		s.logger().Warn().Err(err).Int64("cajero_id", id.CajeroID).Msg("no se pudo descubrir el turno activo")
		turno = nil
	}

	if err := s.confirmar(ctx, cajero, sucursal, turno); err != nil {
		s.logger().Error().Err(err).Msg("no se pudo reflejar la identidad")
		return
	}
	if err := s.cfg.Marcadores.Registrar(ctx, KeyLastLogin, s.cfg.Scope, s.cfg.Now()); err != nil {
		s.logger().Warn().Err(err).Msg("no se pudo registrar lastLogin")
	}
	s.logger().Info().Int64("cajero_id", cajero.ID).Bool("con_turno", turno != nil).Msg("identidad reflejada")
}

func (s *sesion) cajeroDeIdentidad(ctx context.Context, id model.Identidad) *dto.CajeroResponse {
	for _, c := range s.cfg.Cajeros.ListarPorSucursal(ctx, id.SucursalID) {
		if c.ID == id.CajeroID {
			return &c
		}
	}
	return &dto.CajeroResponse{
		ID: id.CajeroID, Nombre: id.Nombre, SucursalID: id.SucursalID, Rol: id.Rol, Activo: true,
	}
}

// ── Persistencia ──────────────────────────────────────────────────────────────

func (s *sesion) guardar(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sesion %s: encode %s: %w", s.cfg.Scope, key, err)
	}
	return s.kv.Set(ctx, key, raw)
}

// capturar reads the raw values of keys; absent keys map to nil.
func (s *sesion) capturar(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		raw, found, err := s.kv.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if found {
			out[k] = raw
		} else {
			out[k] = nil
		}
	}
	return out, nil
}

func (s *sesion) revertir(ctx context.Context, previo map[string][]byte) {
	ctx = context.WithoutCancel(ctx)
	for k, raw := range previo {
		var err error
		if raw == nil {
			err = s.kv.Remove(ctx, k)
		} else {
			err = s.kv.Set(ctx, k, raw)
		}
		if err != nil {
			s.logger().Error().Err(err).Str("clave", k).Msg("no se pudo revertir la sesión")
		}
	}
}

func (s *sesion) leer(ctx context.Context, key string, out any) (bool, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger().Warn().Err(err).Str("clave", key).Msg("valor persistido ilegible, se descarta")
		return false, s.kv.Remove(ctx, key)
	}
	return true, nil
}

func (s *sesion) borrar(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := s.kv.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
