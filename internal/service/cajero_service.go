package service

import (
	"context"
	"strings"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/dto"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/remote"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	msgCajeroNoEncontrado    = "Cajero no encontrado o inactivo"
	msgPasswordIncorrecta    = "Contraseña incorrecta"
	msgErrorAutenticacion    = "Error de autenticación"
	msgCredencialesFaltantes = "Ingrese nombre y contraseña"
)

type CajeroAPI interface {
	ListCajeros(ctx context.Context, sucursalID *int64) ([]model.Cajero, error)
	Authenticate(ctx context.Context, nombre, password string, sucursalID *int64) (*remote.AuthResult, error)
}

// ResultadoAutenticacion never carries a digest: Cajero is the public projection.
type ResultadoAutenticacion struct {
	Success bool
	Cajero  *dto.CajeroResponse
	Message string
}

type CajeroService interface {
	ListarPorSucursal(ctx context.Context, sucursalID int64) []dto.CajeroResponse
	ListarActivosPorSucursal(ctx context.Context, sucursalID int64) []dto.CajeroResponse
	// Autenticar tries the API first and the local mirror only when the API is
	// unreachable. sucursalID nil searches every branch on the local path.
	Autenticar(ctx context.Context, nombre, password string, sucursalID *int64) ResultadoAutenticacion
	// Refrescar mirrors the full remote cashier list into the local store.
	Refrescar(ctx context.Context) error
}

type cajeroService struct {
	api   CajeroAPI
	local *repository.LocalStore
	verif Verificador
}

func NewCajeroService(api CajeroAPI, local *repository.LocalStore, verif Verificador) CajeroService {
	return &cajeroService{api: api, local: local, verif: verif}
}

func (s *cajeroService) ListarPorSucursal(ctx context.Context, sucursalID int64) []dto.CajeroResponse {
	return dto.NewCajerosResponse(s.listar(ctx, sucursalID, false))
}

func (s *cajeroService) ListarActivosPorSucursal(ctx context.Context, sucursalID int64) []dto.CajeroResponse {
	return dto.NewCajerosResponse(s.listar(ctx, sucursalID, true))
}

func (s *cajeroService) listar(ctx context.Context, sucursalID int64, soloActivos bool) []model.Cajero {
	if sucursalID <= 0 {
		return []model.Cajero{}
	}
	cajeros, err := s.api.ListCajeros(ctx, &sucursalID)
	if err == nil {
		if err := s.local.MergeCajeros(ctx, cajeros); err != nil {
			log.Warn().Err(err).Msg("cajeros: no se pudo actualizar el espejo local")
		}
	} else {
		log.Warn().Err(err).Int64("sucursal_id", sucursalID).Msg("api no disponible, usando cajeros locales")
		if cajeros, err = s.local.ListCajeros(ctx); err != nil {
			log.Error().Err(err).Msg("cajeros: almacenamiento local ilegible")
			return []model.Cajero{}
		}
	}

	out := make([]model.Cajero, 0, len(cajeros))
	for _, c := range cajeros {
		if c.SucursalID != sucursalID || (soloActivos && !c.Activo) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *cajeroService) Refrescar(ctx context.Context) error {
	cajeros, err := s.api.ListCajeros(ctx, nil)
	if err != nil {
		return err
	}
	return s.local.MergeCajeros(ctx, cajeros)
}

func (s *cajeroService) Autenticar(ctx context.Context, nombre, password string, sucursalID *int64) ResultadoAutenticacion {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" || password == "" {
		return ResultadoAutenticacion{Message: msgCredencialesFaltantes}
	}

	res, err := s.api.Authenticate(ctx, nombre, password, sucursalID)
	if err == nil {
		return s.resultadoRemoto(ctx, res, password)
	}
	log.Warn().Err(err).Str("cajero", nombre).Msg("api de autenticación no disponible, validando localmente")
	return s.autenticarLocal(ctx, nombre, password, sucursalID)
}

func (s *cajeroService) resultadoRemoto(ctx context.Context, res *remote.AuthResult, password string) ResultadoAutenticacion {
	if !res.Success || res.Cajero == nil {
		msg := res.Message
		if msg == "" {
			msg = "Credenciales inválidas"
		}
		return ResultadoAutenticacion{Message: msg}
	}

	// Cache the verified credential so the same password works offline.
	cajero := *res.Cajero
	if cajero.PasswordHash == "" {
		if digest, err := s.verif.Hash(password); err == nil {
			cajero.PasswordHash = digest
		}
	}
	if err := s.local.MergeCajeros(ctx, []model.Cajero{cajero}); err != nil {
		log.Warn().Err(err).Int64("cajero_id", cajero.ID).Msg("cajeros: no se pudo cachear la credencial")
	}

	resp := dto.NewCajeroResponse(cajero)
	msg := res.Message
	if msg == "" {
		msg = "Bienvenido, " + cajero.Nombre
	}
	return ResultadoAutenticacion{Success: true, Cajero: &resp, Message: msg}
}

func (s *cajeroService) autenticarLocal(ctx context.Context, nombre, password string, sucursalID *int64) ResultadoAutenticacion {
	cajeros, err := s.local.ListCajeros(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cajeros: almacenamiento local ilegible")
		return ResultadoAutenticacion{Message: msgErrorAutenticacion}
	}

	var encontrado *model.Cajero
	for i := range cajeros {
		c := &cajeros[i]
		if !c.Activo || !c.MismoNombre(nombre) {
			continue
		}
		if sucursalID != nil && c.SucursalID != *sucursalID {
			continue
		}
		encontrado = c
		break
	}
	if encontrado == nil {
		return ResultadoAutenticacion{Message: msgCajeroNoEncontrado}
	}
	if !s.verif.Verificar(password, encontrado.PasswordHash) {
		return ResultadoAutenticacion{Message: msgPasswordIncorrecta}
	}

	resp := dto.NewCajeroResponse(*encontrado)
	return ResultadoAutenticacion{Success: true, Cajero: &resp, Message: "Bienvenido, " + encontrado.Nombre + " (sin conexión)"}
}
