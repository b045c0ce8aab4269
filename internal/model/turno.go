package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EstadoTurno is the canonical shift state. Wire values are normalised through
// ParseEstadoTurno on ingress; nothing downstream compares raw strings.
type EstadoTurno string

const (
	TurnoActivo  EstadoTurno = "ACTIVO"
	TurnoCerrado EstadoTurno = "CERRADO"
)

// ParseEstadoTurno maps every live spelling the backend is known to emit
// (ACTIVE, ACTIVO, OPEN, ABIERTO) to TurnoActivo. Unknown values are not live.
func ParseEstadoTurno(raw string) EstadoTurno {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ACTIVE", "ACTIVO", "OPEN", "ABIERTO":
		return TurnoActivo
	case "CLOSED", "CERRADO":
		return TurnoCerrado
	default:
		return EstadoTurno("")
	}
}

// Turno is a bounded work period for one cashier at one branch.
// Shifts are never deleted, only transitioned to TurnoCerrado.
type Turno struct {
	ID            int64            `json:"id"`
	CajeroID      int64            `json:"cajero_id"`
	SucursalID    int64            `json:"sucursal_id"`
	FechaApertura time.Time        `json:"fecha_apertura"`
	FechaCierre   *time.Time       `json:"fecha_cierre,omitempty"`
	Estado        EstadoTurno      `json:"estado"`
	SaldoInicial  decimal.Decimal  `json:"saldo_inicial"`
	ConteoFinal   *decimal.Decimal `json:"conteo_final,omitempty"`
}

func (t Turno) Vivo() bool { return t.Estado == TurnoActivo }

// Cerrar transitions the shift to TurnoCerrado with the declared cash count.
func (t *Turno) Cerrar(conteoFinal decimal.Decimal, at time.Time) {
	t.Estado = TurnoCerrado
	t.FechaCierre = &at
	t.ConteoFinal = &conteoFinal
}

// ServerIDCeiling separates database ids issued by the backend (below) from
// device-local ids synthesised from a millisecond timestamp (at or above).
const ServerIDCeiling int64 = 10_000_000_000

// IDLocal reports whether the shift id was generated on this device and was
// therefore never known to the server.
func IDLocal(id int64) bool { return id >= ServerIDCeiling }
