package dto

import (
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Nombre       string          `json:"nombre"        validate:"required,min=1"`
	Password     string          `json:"password"      validate:"required,min=1"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial" validate:"min=0"`
}

type CambiarSucursalRequest struct {
	SucursalID int64 `json:"sucursal_id" validate:"required,min=1"`
}

type AbrirTurnoRequest struct {
	SaldoInicial decimal.Decimal `json:"saldo_inicial" validate:"min=0"`
}

type CerrarTurnoRequest struct {
	ConteoFinal decimal.Decimal `json:"conteo_final" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ResultadoResponse is the structured result of every session operation.
// Message is meant to be shown verbatim.
type ResultadoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func Ok(msg string) ResultadoResponse { return ResultadoResponse{Success: true, Message: msg} }

func Fallo(msg string) ResultadoResponse { return ResultadoResponse{Success: false, Message: msg} }

type TopbarResponse struct {
	Show           bool    `json:"show"`
	Text           string  `json:"text"`
	CajeroNombre   *string `json:"cajero_nombre,omitempty"`
	SucursalNombre *string `json:"sucursal_nombre,omitempty"`
}

type SesionResponse struct {
	Scope        model.Scope        `json:"scope"`
	Estado       model.EstadoSesion `json:"estado"`
	Autenticado  bool               `json:"autenticado"`
	Cajero       *CajeroResponse    `json:"cajero"`
	Sucursal     *model.Sucursal    `json:"sucursal"`
	Turno        *model.Turno       `json:"turno"`
	SaldoInicial decimal.Decimal    `json:"saldo_inicial"`
}

type SaldoInicialResponse struct {
	SaldoInicial decimal.Decimal `json:"saldo_inicial"`
}

type TurnoVivoResponse struct {
	Vivo bool `json:"vivo"`
}
