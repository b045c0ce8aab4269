package dto

import (
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CajeroResponse is the only cashier shape that leaves the service layer.
// It has no password or digest field.
type CajeroResponse struct {
	ID                int64           `json:"id"`
	Nombre            string          `json:"nombre"`
	SucursalID        int64           `json:"sucursal_id"`
	Rol               model.Rol       `json:"rol"`
	Activo            bool            `json:"activo"`
	PuedeDescontar    bool            `json:"puede_descontar"`
	LimiteDescuento   decimal.Decimal `json:"limite_descuento"`
	PuedeAnularVentas bool            `json:"puede_anular_ventas"`
}

func NewCajeroResponse(c model.Cajero) CajeroResponse {
	return CajeroResponse{
		ID: c.ID, Nombre: c.Nombre, SucursalID: c.SucursalID, Rol: c.Rol,
		Activo: c.Activo, PuedeDescontar: c.PuedeDescontar,
		LimiteDescuento: c.LimiteDescuento, PuedeAnularVentas: c.PuedeAnularVentas,
	}
}

func NewCajerosResponse(cs []model.Cajero) []CajeroResponse {
	resp := make([]CajeroResponse, len(cs))
	for i, c := range cs {
		resp[i] = NewCajeroResponse(c)
	}
	return resp
}
