package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/shopspring/decimal"
)

// AuthResult is the normalised answer of the authenticate endpoint.
type AuthResult struct {
	Success bool
	Cajero  *model.Cajero
	Message string
}

// NuevoTurno is the payload for opening a shift remotely.
type NuevoTurno struct {
	CajeroID     int64
	SucursalID   int64
	SaldoInicial decimal.Decimal
}

// Client talks to the central branch/cashier/shift API. Every call goes
// through the circuit breaker; only transport errors and 5xx responses count
// toward tripping it.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *infra.CircuitBreaker
}

func NewClient(baseURL string, timeout time.Duration, breaker *infra.CircuitBreaker) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: breaker,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

// ── Sucursales ────────────────────────────────────────────────────────────────

func (c *Client) ListSucursales(ctx context.Context) ([]model.Sucursal, error) {
	var env listEnvelope[sucursalWire]
	if err := c.do(ctx, "list sucursales", http.MethodGet, "/sucursales/", nil, nil, &env); err != nil {
		return nil, err
	}
	out := make([]model.Sucursal, len(env.Items))
	for i, w := range env.Items {
		out[i] = w.toModel()
	}
	return out, nil
}

func (c *Client) GetSucursal(ctx context.Context, id int64) (*model.Sucursal, error) {
	var w sucursalWire
	if err := c.do(ctx, "get sucursal", http.MethodGet, fmt.Sprintf("/sucursales/%d/", id), nil, nil, &w); err != nil {
		return nil, err
	}
	s := w.toModel()
	return &s, nil
}

func (c *Client) GetSucursalPrincipal(ctx context.Context) (*model.Sucursal, error) {
	var w sucursalWire
	if err := c.do(ctx, "get sucursal principal", http.MethodGet, "/sucursales/principal/", nil, nil, &w); err != nil {
		return nil, err
	}
	if w.ID == 0 {
		return nil, nil
	}
	s := w.toModel()
	return &s, nil
}

// ── Cajeros ───────────────────────────────────────────────────────────────────

func (c *Client) ListCajeros(ctx context.Context, sucursalID *int64) ([]model.Cajero, error) {
	q := url.Values{}
	if sucursalID != nil {
		q.Set("sucursal_id", strconv.FormatInt(*sucursalID, 10))
	}
	var env listEnvelope[cajeroWire]
	if err := c.do(ctx, "list cajeros", http.MethodGet, "/cajeros/", q, nil, &env); err != nil {
		return nil, err
	}
	out := make([]model.Cajero, len(env.Items))
	for i, w := range env.Items {
		out[i] = w.toModel()
	}
	return out, nil
}

// Authenticate returns a non-nil result whenever the backend answered 2xx,
// including business rejections (Success=false). A missing success flag is
// inferred from the presence of a cashier.
func (c *Client) Authenticate(ctx context.Context, nombre, password string, sucursalID *int64) (*AuthResult, error) {
	body := authRequest{Nombre: nombre, Password: password, SucursalID: sucursalID}
	var w authWire
	if err := c.do(ctx, "authenticate", http.MethodPost, "/cajeros/authenticate/", nil, body, &w); err != nil {
		return nil, err
	}
	res := &AuthResult{Message: w.Message}
	if w.Success != nil {
		res.Success = *w.Success
	} else {
		res.Success = w.Cajero != nil
	}
	if res.Success && w.Cajero == nil {
		return nil, &Error{Op: "authenticate", Err: errors.New("success without cajero")}
	}
	if w.Cajero != nil {
		cajero := w.Cajero.toModel()
		res.Cajero = &cajero
	}
	return res, nil
}

// ── Turnos ────────────────────────────────────────────────────────────────────

func (c *Client) CreateTurno(ctx context.Context, nt NuevoTurno) (*model.Turno, error) {
	body := crearTurnoRequest{
		CajeroID: nt.CajeroID, SucursalID: nt.SucursalID,
		SaldoInicial: nt.SaldoInicial, Estado: string(model.TurnoActivo),
	}
	var w turnoWire
	if err := c.do(ctx, "create turno", http.MethodPost, "/turnos/", nil, body, &w); err != nil {
		return nil, err
	}
	t := w.toModel()
	return &t, nil
}

func (c *Client) CloseTurno(ctx context.Context, id int64, conteoFinal decimal.Decimal) (*model.Turno, error) {
	var w turnoWire
	path := fmt.Sprintf("/turnos/%d/cerrar/", id)
	if err := c.do(ctx, "close turno", http.MethodPost, path, nil, cerrarTurnoRequest{ConteoFinal: conteoFinal}, &w); err != nil {
		return nil, err
	}
	t := w.toModel()
	return &t, nil
}

// ListTurnos returns every shift the backend reports for the cashier. The
// state filter is applied by callers after normalisation because the backend
// writes live shifts as either ACTIVE or OPEN.
func (c *Client) ListTurnos(ctx context.Context, cajeroID int64) ([]model.Turno, error) {
	q := url.Values{}
	q.Set("cajero_id", strconv.FormatInt(cajeroID, 10))
	var env listEnvelope[turnoWire]
	if err := c.do(ctx, "list turnos", http.MethodGet, "/turnos/", q, nil, &env); err != nil {
		return nil, err
	}
	out := make([]model.Turno, len(env.Items))
	for i, w := range env.Items {
		out[i] = w.toModel()
	}
	return out, nil
}

// ── Transport ─────────────────────────────────────────────────────────────────

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("marshal payload: %w", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var resp *http.Response
	send := func() error {
		r, err := c.http.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= 500 {
			r.Body.Close()
			return &Error{Op: op, Status: r.StatusCode}
		}
		resp = r
		return nil
	}
	if c.breaker != nil {
		err = c.breaker.Execute(send)
	} else {
		err = send()
	}
	if err != nil {
		if ctx.Err() != nil {
			return &Error{Op: op, Err: ctx.Err()}
		}
		var rerr *Error
		if errors.As(err, &rerr) {
			return rerr
		}
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Op: op, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(b)))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
