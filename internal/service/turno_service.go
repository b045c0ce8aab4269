package service

import (
	"context"
	"errors"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/remote"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrSaldoNegativo  = errors.New("El saldo inicial no puede ser negativo")
	ErrConteoNegativo = errors.New("El conteo final no puede ser negativo")
)

type TurnoAPI interface {
	CreateTurno(ctx context.Context, nt remote.NuevoTurno) (*model.Turno, error)
	CloseTurno(ctx context.Context, id int64, conteoFinal decimal.Decimal) (*model.Turno, error)
	ListTurnos(ctx context.Context, cajeroID int64) ([]model.Turno, error)
}

type TurnoService interface {
	// Abrir returns the cashier's live shift when one exists instead of opening a second one.
	Abrir(ctx context.Context, cajeroID, sucursalID int64, saldoInicial decimal.Decimal) (*model.Turno, error)
	Cerrar(ctx context.Context, id int64, conteoFinal decimal.Decimal) (*model.Turno, error)
	// ObtenerActivo returns (nil, nil) when the cashier has no live shift. A
	// remote answer is authoritative, even when empty.
	ObtenerActivo(ctx context.Context, cajeroID int64) (*model.Turno, error)
	SigueVivo(ctx context.Context, t model.Turno) bool
	TurnoActual(ctx context.Context) (*model.Turno, error)
}

type turnoService struct {
	api   TurnoAPI
	local *repository.LocalStore
	now   func() time.Time
}

func NewTurnoService(api TurnoAPI, local *repository.LocalStore) TurnoService {
	return &turnoService{api: api, local: local, now: time.Now}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *turnoService) Abrir(ctx context.Context, cajeroID, sucursalID int64, saldoInicial decimal.Decimal) (*model.Turno, error) {
	if saldoInicial.IsNegative() {
		return nil, ErrSaldoNegativo
	}

	existente, err := s.ObtenerActivo(ctx, cajeroID)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		log.Info().Int64("turno_id", existente.ID).Int64("cajero_id", cajeroID).Msg("turno vivo reutilizado")
		if err := s.local.MirrorTurno(ctx, *existente); err != nil {
			return nil, err
		}
		return existente, nil
	}

	t, err := s.api.CreateTurno(ctx, remote.NuevoTurno{CajeroID: cajeroID, SucursalID: sucursalID, SaldoInicial: saldoInicial})
	if err == nil {
		completarTurno(t, cajeroID, sucursalID, saldoInicial, s.now())
		if err := s.local.MirrorTurno(ctx, *t); err != nil {
			return nil, err
		}
		log.Info().Int64("turno_id", t.ID).Int64("cajero_id", cajeroID).Msg("turno abierto")
		return t, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Warn().Err(err).Int64("cajero_id", cajeroID).Msg("api no disponible, abriendo turno local")
	t, err = s.local.CreateTurnoLocal(ctx, model.Turno{
		CajeroID:      cajeroID,
		SucursalID:    sucursalID,
		FechaApertura: s.now(),
		Estado:        model.TurnoActivo,
		SaldoInicial:  saldoInicial,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int64("turno_id", t.ID).Int64("cajero_id", cajeroID).Msg("turno local abierto")
	return t, nil
}

// completarTurno fills fields the backend may omit from a create response.
func completarTurno(t *model.Turno, cajeroID, sucursalID int64, saldo decimal.Decimal, now time.Time) {
	if t.CajeroID == 0 {
		t.CajeroID = cajeroID
	}
	if t.SucursalID == 0 {
		t.SucursalID = sucursalID
	}
	if t.FechaApertura.IsZero() {
		t.FechaApertura = now
	}
	if t.Estado == "" {
		t.Estado = model.TurnoActivo
	}
	if t.SaldoInicial.IsZero() {
		t.SaldoInicial = saldo
	}
}

// ── Cerrar ────────────────────────────────────────────────────────────────────

func (s *turnoService) Cerrar(ctx context.Context, id int64, conteoFinal decimal.Decimal) (*model.Turno, error) {
	if conteoFinal.IsNegative() {
		return nil, ErrConteoNegativo
	}

	if !model.IDLocal(id) {
		remoto, err := s.api.CloseTurno(ctx, id, conteoFinal)
		if err == nil {
			return s.reflejarCierre(ctx, id, *remoto, conteoFinal)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Int64("turno_id", id).Msg("api no disponible, cerrando turno localmente")
	}

	t, err := s.local.CloseTurno(ctx, id, conteoFinal, s.now())
	if err != nil {
		return nil, err
	}
	log.Info().Int64("turno_id", id).Str("conteo_final", conteoFinal.String()).Msg("turno cerrado")
	return t, nil
}

// reflejarCierre mirrors a remote close onto the local record, keeping the
// fields the close response may not carry.
func (s *turnoService) reflejarCierre(ctx context.Context, id int64, remoto model.Turno, conteoFinal decimal.Decimal) (*model.Turno, error) {
	remoto.ID = id
	t, err := s.local.FindTurnoByID(ctx, id)
	if errors.Is(err, repository.ErrTurnoNotFound) {
		t, err = &remoto, nil
	}
	if err != nil {
		return nil, err
	}
	t.Cerrar(conteoFinal, s.now())
	if err := s.local.MirrorTurno(ctx, *t); err != nil {
		return nil, err
	}
	log.Info().Int64("turno_id", id).Str("conteo_final", conteoFinal.String()).Msg("turno cerrado")
	return t, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *turnoService) ObtenerActivo(ctx context.Context, cajeroID int64) (*model.Turno, error) {
	turnos, err := s.api.ListTurnos(ctx, cajeroID)
	origen := "remote"
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Int64("cajero_id", cajeroID).Msg("api no disponible, buscando turno local")
		if turnos, err = s.local.ListTurnos(ctx); err != nil {
			return nil, err
		}
		origen = "local"
	}
	return elegirVivo(turnos, cajeroID, origen), nil
}

// elegirVivo picks the most recently opened live shift owned by cajeroID.
func elegirVivo(turnos []model.Turno, cajeroID int64, origen string) *model.Turno {
	var elegido *model.Turno
	for i := range turnos {
		t := turnos[i]
		if !t.Vivo() {
			continue
		}
		if t.CajeroID != cajeroID {
			if origen == "remote" {
				log.Warn().Int64("turno_id", t.ID).Int64("esperado", cajeroID).Int64("recibido", t.CajeroID).
					Msg("turno de otro cajero descartado")
			}
			continue
		}
		if elegido == nil || t.FechaApertura.After(elegido.FechaApertura) {
			elegido = &t
		}
	}
	return elegido
}

// SigueVivo re-validates a shift held in session state. When liveness cannot
// be determined the shift is assumed live.
func (s *turnoService) SigueVivo(ctx context.Context, t model.Turno) bool {
	if model.IDLocal(t.ID) {
		rec, err := s.local.FindTurnoByID(ctx, t.ID)
		if errors.Is(err, repository.ErrTurnoNotFound) {
			return false
		}
		if err != nil {
			log.Error().Err(err).Int64("turno_id", t.ID).Msg("no se pudo revalidar el turno local")
			return t.Vivo()
		}
		return rec.Vivo()
	}

	activo, err := s.ObtenerActivo(ctx, t.CajeroID)
	if err != nil {
		log.Error().Err(err).Int64("turno_id", t.ID).Msg("no se pudo revalidar el turno")
		return t.Vivo()
	}
	return activo != nil && activo.ID == t.ID
}

func (s *turnoService) TurnoActual(ctx context.Context) (*model.Turno, error) {
	return s.local.CurrentTurno(ctx)
}
