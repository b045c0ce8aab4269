package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/shopspring/decimal"
)

// Fixed keys of the local fallback store.
const (
	KeySucursales  = "branches"
	KeyCajeros     = "cashiers"
	KeyTurnos      = "shifts"
	KeyTurnoActual = "currentShift"
)

var (
	ErrTurnoNotFound = errors.New("turno no encontrado")
	ErrTurnoClosed   = errors.New("el turno ya está cerrado")
)

// Seed is written the first time a collection is read on a fresh device so
// the UI never starts empty.
type Seed struct {
	Sucursales []model.Sucursal
	Cajeros    []model.Cajero
}

// DefaultSeed returns one principal branch and, when demoHash is not empty, a
// demo supervisor whose digest is demoHash.
func DefaultSeed(demoHash string) Seed {
	seed := Seed{
		Sucursales: []model.Sucursal{{
			ID: 1, Nombre: "Sucursal Principal", EsPrincipal: true, Activo: true,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}
	if demoHash != "" {
		seed.Cajeros = []model.Cajero{{
			ID: 1, Nombre: "admin", PasswordHash: demoHash, SucursalID: 1,
			Rol: model.RolSupervisor, Activo: true,
		}}
	}
	return seed
}

// LocalStore is the single-device mirror of branches, cashiers and shifts used
// whenever the remote API is unreachable. Writes are synchronous; there is no
// reconciliation with the remote and the last writer wins.
type LocalStore struct {
	kv   KV
	seed Seed
	// mu serialises read-modify-write of the shifts collection and the
	// current-shift pointer.
	mu sync.Mutex
}

func NewLocalStore(kv KV, seed Seed) *LocalStore {
	return &LocalStore{kv: kv, seed: seed}
}

func readCollection[T any](ctx context.Context, kv KV, key string, seed []T) ([]T, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("local store: read %s: %w", key, err)
	}
	if !found {
		items := append([]T(nil), seed...)
		if err := writeCollection(ctx, kv, key, items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("local store: decode %s: %w", key, err)
	}
	return items, nil
}

func writeCollection[T any](ctx context.Context, kv KV, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("local store: encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("local store: write %s: %w", key, err)
	}
	return nil
}

// ── Sucursales ────────────────────────────────────────────────────────────────

func (s *LocalStore) ListSucursales(ctx context.Context) ([]model.Sucursal, error) {
	return readCollection(ctx, s.kv, KeySucursales, s.seed.Sucursales)
}

func (s *LocalStore) SaveSucursales(ctx context.Context, sucursales []model.Sucursal) error {
	return writeCollection(ctx, s.kv, KeySucursales, sucursales)
}

// ── Cajeros ───────────────────────────────────────────────────────────────────

func (s *LocalStore) ListCajeros(ctx context.Context) ([]model.Cajero, error) {
	return readCollection(ctx, s.kv, KeyCajeros, s.seed.Cajeros)
}

func (s *LocalStore) SaveCajeros(ctx context.Context, cajeros []model.Cajero) error {
	return writeCollection(ctx, s.kv, KeyCajeros, cajeros)
}

// MergeCajeros upserts cashiers by id. A remote record without a digest keeps
// the digest already mirrored for that cashier, otherwise mirroring a list
// would disable offline login.
func (s *LocalStore) MergeCajeros(ctx context.Context, remotos []model.Cajero) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locales, err := s.ListCajeros(ctx)
	if err != nil {
		return err
	}
	idx := make(map[int64]int, len(locales))
	for i, c := range locales {
		idx[c.ID] = i
	}
	for _, c := range remotos {
		i, ok := idx[c.ID]
		if !ok {
			idx[c.ID] = len(locales)
			locales = append(locales, c)
			continue
		}
		if c.PasswordHash == "" {
			c.PasswordHash = locales[i].PasswordHash
		}
		locales[i] = c
	}
	return s.SaveCajeros(ctx, locales)
}

// ── Turnos ────────────────────────────────────────────────────────────────────

func (s *LocalStore) ListTurnos(ctx context.Context) ([]model.Turno, error) {
	return readCollection[model.Turno](ctx, s.kv, KeyTurnos, nil)
}

func (s *LocalStore) FindTurnoByID(ctx context.Context, id int64) (*model.Turno, error) {
	turnos, err := s.ListTurnos(ctx)
	if err != nil {
		return nil, err
	}
	for i := range turnos {
		if turnos[i].ID == id {
			return &turnos[i], nil
		}
	}
	return nil, ErrTurnoNotFound
}

func (s *LocalStore) updateTurnosLocked(ctx context.Context, fn func([]model.Turno) ([]model.Turno, error)) error {
	turnos, err := s.ListTurnos(ctx)
	if err != nil {
		return err
	}
	turnos, err = fn(turnos)
	if err != nil {
		return err
	}
	return writeCollection(ctx, s.kv, KeyTurnos, turnos)
}

// CreateTurnoLocal assigns a device-local timestamp id to t, persists it and
// points the current-shift pointer at it, all in one critical section. When the
// cashier already has a live shift in the mirror, that shift is returned
// instead and nothing is appended.
func (s *LocalStore) CreateTurnoLocal(ctx context.Context, t model.Turno) (*model.Turno, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.updateTurnosLocked(ctx, func(turnos []model.Turno) ([]model.Turno, error) {
		for _, existing := range turnos {
			if existing.CajeroID == t.CajeroID && existing.Vivo() {
				t = existing
				return turnos, nil
			}
		}
		id := t.FechaApertura.UnixMilli()
		if id < model.ServerIDCeiling {
			id = model.ServerIDCeiling
		}
		for _, existing := range turnos {
			if existing.ID >= id {
				id = existing.ID + 1
			}
		}
		t.ID = id
		return append(turnos, t), nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.setCurrentLocked(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CloseTurno closes a mirrored shift and clears the current-shift pointer if
// it pointed at it.
func (s *LocalStore) CloseTurno(ctx context.Context, id int64, conteoFinal decimal.Decimal, at time.Time) (*model.Turno, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var closed model.Turno
	err := s.updateTurnosLocked(ctx, func(turnos []model.Turno) ([]model.Turno, error) {
		for i := range turnos {
			if turnos[i].ID != id {
				continue
			}
			if !turnos[i].Vivo() {
				return nil, ErrTurnoClosed
			}
			turnos[i].Cerrar(conteoFinal, at)
			closed = turnos[i]
			return turnos, nil
		}
		return nil, ErrTurnoNotFound
	})
	if err != nil {
		return nil, err
	}
	if err := s.clearCurrentIfLocked(ctx, id); err != nil {
		return nil, err
	}
	return &closed, nil
}

// MirrorTurno upserts a shift confirmed by the remote. When it is no longer
// live the current-shift pointer is cleared if it pointed at it.
func (s *LocalStore) MirrorTurno(ctx context.Context, t model.Turno) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.updateTurnosLocked(ctx, func(turnos []model.Turno) ([]model.Turno, error) {
		for i := range turnos {
			if turnos[i].ID == t.ID {
				turnos[i] = t
				return turnos, nil
			}
		}
		return append(turnos, t), nil
	})
	if err != nil {
		return err
	}
	if t.Vivo() {
		return s.setCurrentLocked(ctx, t)
	}
	return s.clearCurrentIfLocked(ctx, t.ID)
}

// ── Current-shift pointer ─────────────────────────────────────────────────────

func (s *LocalStore) CurrentTurno(ctx context.Context) (*model.Turno, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.kv.Get(ctx, KeyTurnoActual)
	if err != nil || !found {
		return nil, err
	}
	var t model.Turno
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("local store: decode %s: %w", KeyTurnoActual, err)
	}
	return &t, nil
}

func (s *LocalStore) setCurrentLocked(ctx context.Context, t model.Turno) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyTurnoActual, raw)
}

func (s *LocalStore) clearCurrentIfLocked(ctx context.Context, id int64) error {
	raw, found, err := s.kv.Get(ctx, KeyTurnoActual)
	if err != nil || !found {
		return err
	}
	var t model.Turno
	if err := json.Unmarshal(raw, &t); err != nil || t.ID == id {
		return s.kv.Remove(ctx, KeyTurnoActual)
	}
	return nil
}
