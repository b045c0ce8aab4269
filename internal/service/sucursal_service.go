package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"

	"github.com/rs/zerolog/log"
)

// SucursalAPI is the slice of the remote client the branch directory needs.
type SucursalAPI interface {
	ListSucursales(ctx context.Context) ([]model.Sucursal, error)
	GetSucursal(ctx context.Context, id int64) (*model.Sucursal, error)
	GetSucursalPrincipal(ctx context.Context) (*model.Sucursal, error)
}

// SucursalService resolves branches remote-first. It never returns an error:
// absence of data is nil or an empty slice.
type SucursalService interface {
	Listar(ctx context.Context) []model.Sucursal
	ListarActivas(ctx context.Context) []model.Sucursal
	// ObtenerPorID returns nil without any remote call when id is nil or not positive.
	ObtenerPorID(ctx context.Context, id *int64) *model.Sucursal
	// ObtenerDefault returns the principal branch, else the first active one.
	ObtenerDefault(ctx context.Context) *model.Sucursal
}

type sucursalService struct {
	api   SucursalAPI
	local *repository.LocalStore
}

func NewSucursalService(api SucursalAPI, local *repository.LocalStore) SucursalService {
	return &sucursalService{api: api, local: local}
}

// ParseSucursalID turns a raw path/query value into a branch id. "undefined",
// "null", empty and non-numeric values are invalid input and yield nil.
func ParseSucursalID(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "undefined", "null", "nan":
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func (s *sucursalService) Listar(ctx context.Context) []model.Sucursal {
	sucursales, err := s.api.ListSucursales(ctx)
	if err == nil {
		if err := s.local.SaveSucursales(ctx, sucursales); err != nil {
			log.Warn().Err(err).Msg("sucursales: no se pudo actualizar el espejo local")
		}
		return sucursales
	}
	log.Warn().Err(err).Str("op", "listar sucursales").Msg("api no disponible, usando almacenamiento local")
	return s.listarLocal(ctx)
}

func (s *sucursalService) ListarActivas(ctx context.Context) []model.Sucursal {
	return activas(s.Listar(ctx))
}

func (s *sucursalService) ObtenerPorID(ctx context.Context, id *int64) *model.Sucursal {
	if id == nil || *id <= 0 {
		return nil
	}
	sucursal, err := s.api.GetSucursal(ctx, *id)
	if err == nil {
		return sucursal
	}
	log.Warn().Err(err).Int64("sucursal_id", *id).Msg("api no disponible, buscando sucursal local")
	for _, suc := range s.listarLocal(ctx) {
		if suc.ID == *id {
			return &suc
		}
	}
	return nil
}

func (s *sucursalService) ObtenerDefault(ctx context.Context) *model.Sucursal {
	principal, err := s.api.GetSucursalPrincipal(ctx)
	if err == nil {
		if principal != nil && principal.Activo {
			return principal
		}
		return primera(s.ListarActivas(ctx))
	}
	log.Warn().Err(err).Str("op", "sucursal principal").Msg("api no disponible, usando almacenamiento local")
	locales := activas(s.listarLocal(ctx))
	for _, suc := range locales {
		if suc.EsPrincipal {
			return &suc
		}
	}
	return primera(locales)
}

func (s *sucursalService) listarLocal(ctx context.Context) []model.Sucursal {
	sucursales, err := s.local.ListSucursales(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sucursales: almacenamiento local ilegible")
		return []model.Sucursal{}
	}
	return sucursales
}

func activas(sucursales []model.Sucursal) []model.Sucursal {
	out := make([]model.Sucursal, 0, len(sucursales))
	for _, s := range sucursales {
		if s.Activo {
			out = append(out, s)
		}
	}
	return out
}

func primera(sucursales []model.Sucursal) *model.Sucursal {
	if len(sucursales) == 0 {
		return nil
	}
	return &sucursales[0]
}
