package model

import "time"

// Sucursal is a store location. Exactly one branch should carry EsPrincipal;
// this is advisory and never enforced here.
type Sucursal struct {
	ID          int64     `json:"id"`
	Nombre      string    `json:"nombre"`
	Direccion   *string   `json:"direccion,omitempty"`
	Telefono    *string   `json:"telefono,omitempty"`
	Email       *string   `json:"email,omitempty"`
	EsPrincipal bool      `json:"es_principal"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"fecha_creacion"`
}
