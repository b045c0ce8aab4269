package model

// Scope names one of the two independent session contexts.
type Scope string

const (
	ScopePOS     Scope = "pos"
	ScopePedidos Scope = "pedidos"
)

// EstadoSesion: LOGGED_OUT → AUTHENTICATING → LOGGED_IN_NO_SHIFT → LOGGED_IN_WITH_SHIFT
type EstadoSesion string

const (
	SesionCerrada      EstadoSesion = "LOGGED_OUT"
	SesionAutenticando EstadoSesion = "AUTHENTICATING"
	SesionSinTurno     EstadoSesion = "LOGGED_IN_NO_SHIFT"
	SesionConTurno     EstadoSesion = "LOGGED_IN_WITH_SHIFT"
)

// Identidad is the coarser system-wide login mirrored into a session scope.
type Identidad struct {
	CajeroID   int64  `json:"cajero_id"`
	Nombre     string `json:"nombre"`
	SucursalID int64  `json:"sucursal_id"`
	Rol        Rol    `json:"rol"`
}
