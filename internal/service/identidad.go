package service

import (
	"context"
	"sync"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/rs/zerolog/log"
)

// IdentidadListener receives every change of the system-wide identity. A nil
// identity means it was cleared.
type IdentidadListener func(ctx context.Context, id *model.Identidad)

// IdentidadHub holds the system-wide authenticated identity and notifies
// subscribers synchronously, in subscription order, on every change.
type IdentidadHub struct {
	mu     sync.RWMutex
	actual *model.Identidad
	subs   []IdentidadListener
}

func NewIdentidadHub() *IdentidadHub {
	return &IdentidadHub{}
}

func (h *IdentidadHub) Suscribir(fn IdentidadListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

func (h *IdentidadHub) Actual() *model.Identidad {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.actual == nil {
		return nil
	}
	cp := *h.actual
	return &cp
}

func (h *IdentidadHub) Publicar(ctx context.Context, id *model.Identidad) {
	h.mu.Lock()
	if id != nil {
		cp := *id
		h.actual = &cp
	} else {
		h.actual = nil
	}
	subs := append([]IdentidadListener(nil), h.subs...)
	h.mu.Unlock()

	ev := log.Info().Int("suscriptores", len(subs))
	if id != nil {
		ev = ev.Int64("cajero_id", id.CajeroID).Int64("sucursal_id", id.SucursalID)
	}
	ev.Msg("identidad del sistema actualizada")

	for _, fn := range subs {
		fn(ctx, id)
	}
}
