package remote

import (
	"encoding/json"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/shopspring/decimal"
)

// Wire shapes of the backend. They are converted to model types right here;
// nothing past this package sees raw backend strings.

type sucursalWire struct {
	ID            int64   `json:"id"`
	Nombre        string  `json:"nombre"`
	Direccion     *string `json:"direccion"`
	Telefono      *string `json:"telefono"`
	Email         *string `json:"email"`
	EsPrincipal   bool    `json:"es_principal"`
	Activo        *bool   `json:"activo"`
	FechaCreacion string  `json:"fecha_creacion"`
}

func (w sucursalWire) toModel() model.Sucursal {
	s := model.Sucursal{
		ID: w.ID, Nombre: w.Nombre, Direccion: w.Direccion, Telefono: w.Telefono,
		Email: w.Email, EsPrincipal: w.EsPrincipal, Activo: w.Activo == nil || *w.Activo,
	}
	if ts := parseTS(w.FechaCreacion); ts != nil {
		s.CreatedAt = *ts
	}
	return s
}

type cajeroWire struct {
	ID                   int64            `json:"id"`
	Nombre               string           `json:"nombre"`
	Password             string           `json:"password"`
	SucursalID           *int64           `json:"sucursal_id"`
	Sucursal             *int64           `json:"sucursal"`
	Rol                  string           `json:"rol"`
	Activo               *bool            `json:"activo"`
	PuedeHacerDescuentos bool             `json:"puede_hacer_descuentos"`
	LimiteDescuento      *decimal.Decimal `json:"limite_descuento"`
	PuedeAnularVentas    bool             `json:"puede_anular_ventas"`
}

func (w cajeroWire) toModel() model.Cajero {
	c := model.Cajero{
		ID: w.ID, Nombre: w.Nombre, PasswordHash: w.Password, Rol: model.ParseRol(w.Rol),
		Activo: w.Activo == nil || *w.Activo, PuedeDescontar: w.PuedeHacerDescuentos,
		PuedeAnularVentas: w.PuedeAnularVentas,
	}
	switch {
	case w.SucursalID != nil:
		c.SucursalID = *w.SucursalID
	case w.Sucursal != nil:
		c.SucursalID = *w.Sucursal
	}
	if w.LimiteDescuento != nil {
		c.LimiteDescuento = *w.LimiteDescuento
	}
	return c
}

type authRequest struct {
	Nombre     string `json:"nombre"`
	Password   string `json:"password"`
	SucursalID *int64 `json:"sucursal_id,omitempty"`
}

type authWire struct {
	Success *bool       `json:"success"`
	Cajero  *cajeroWire `json:"cajero"`
	Message string      `json:"message"`
}

type turnoWire struct {
	ID            int64            `json:"id"`
	CajeroID      *int64           `json:"cajero_id"`
	Cajero        *int64           `json:"cajero"`
	SucursalID    *int64           `json:"sucursal_id"`
	Sucursal      *int64           `json:"sucursal"`
	FechaApertura string           `json:"fecha_apertura"`
	FechaCierre   string           `json:"fecha_cierre"`
	Estado        string           `json:"estado"`
	SaldoInicial  decimal.Decimal  `json:"saldo_inicial"`
	ConteoFinal   *decimal.Decimal `json:"conteo_final"`
}

func (w turnoWire) toModel() model.Turno {
	t := model.Turno{
		ID: w.ID, Estado: model.ParseEstadoTurno(w.Estado),
		SaldoInicial: w.SaldoInicial, ConteoFinal: w.ConteoFinal,
		FechaCierre: parseTS(w.FechaCierre),
	}
	t.CajeroID = firstID(w.CajeroID, w.Cajero)
	t.SucursalID = firstID(w.SucursalID, w.Sucursal)
	if ts := parseTS(w.FechaApertura); ts != nil {
		t.FechaApertura = *ts
	}
	return t
}

type crearTurnoRequest struct {
	CajeroID     int64           `json:"cajero_id"`
	SucursalID   int64           `json:"sucursal_id"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial"`
	Estado       string          `json:"estado"`
}

type cerrarTurnoRequest struct {
	ConteoFinal decimal.Decimal `json:"conteo_final"`
}

// listEnvelope accepts both a bare JSON array and a paginated
// {"results": [...]} object.
type listEnvelope[T any] struct {
	Items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &l.Items); err == nil {
		return nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return err
	}
	l.Items = page.Results
	return nil
}

func firstID(ids ...*int64) int64 {
	for _, id := range ids {
		if id != nil {
			return *id
		}
	}
	return 0
}

func parseTS(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000000",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
