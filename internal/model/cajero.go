package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rol: "CAJERO" | "SUPERVISOR" | "ADMINISTRADOR"
type Rol string

const (
	RolCajero        Rol = "CAJERO"
	RolSupervisor    Rol = "SUPERVISOR"
	RolAdministrador Rol = "ADMINISTRADOR"
)

// ParseRol accepts any casing; unknown values fall back to RolCajero.
func ParseRol(raw string) Rol {
	switch Rol(strings.ToUpper(strings.TrimSpace(raw))) {
	case RolSupervisor:
		return RolSupervisor
	case RolAdministrador:
		return RolAdministrador
	default:
		return RolCajero
	}
}

// Cajero is an operator that can authenticate against a branch.
// PasswordHash only lives in the local mirror; it never leaves the service layer.
type Cajero struct {
	ID                int64           `json:"id"`
	Nombre            string          `json:"nombre"`
	PasswordHash      string          `json:"password_hash,omitempty"`
	SucursalID        int64           `json:"sucursal_id"`
	Rol               Rol             `json:"rol"`
	Activo            bool            `json:"activo"`
	PuedeDescontar    bool            `json:"puede_descontar"`
	LimiteDescuento   decimal.Decimal `json:"limite_descuento"`
	PuedeAnularVentas bool            `json:"puede_anular_ventas"`
}

// MismoNombre compares login handles case-insensitively.
func (c Cajero) MismoNombre(nombre string) bool {
	return strings.EqualFold(strings.TrimSpace(c.Nombre), strings.TrimSpace(nombre))
}
