package handler

import (
	"net/http"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/apierror"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/dto"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// SesionHandler serves every session scope under /v1/sesiones/:scope.
type SesionHandler struct {
	sesiones map[model.Scope]service.SesionService
}

func NewSesionHandler(sesiones ...service.SesionService) *SesionHandler {
	m := make(map[model.Scope]service.SesionService, len(sesiones))
	for _, s := range sesiones {
		m[s.Scope()] = s
	}
	return &SesionHandler{sesiones: m}
}

func (h *SesionHandler) sesion(c *gin.Context) (service.SesionService, bool) {
	s, ok := h.sesiones[model.Scope(c.Param("scope"))]
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("Ámbito de sesión desconocido"))
		return nil, false
	}
	return s, true
}

// Login godoc
// @Summary Inicia sesion de un cajero y abre su turno
// @Tags sesiones
// @Accept json
// @Produce json
// @Param scope path string true "pos | pedidos"
// @Param body body dto.LoginRequest true "Credenciales y saldo inicial"
// @Success 200 {object} dto.ResultadoResponse
// @Failure 422 {object} dto.ResultadoResponse
// @Router /v1/sesiones/{scope}/login [post]
func (h *SesionHandler) Login(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	respondResultado(c, s.Login(c.Request.Context(), req))
}

// Logout godoc
// @Summary Cierra la sesion; se rechaza mientras el turno siga abierto
// @Tags sesiones
// @Produce json
// @Param scope path string true "pos | pedidos"
// @Success 200 {object} dto.ResultadoResponse
// @Failure 422 {object} dto.ResultadoResponse
// @Router /v1/sesiones/{scope}/logout [post]
func (h *SesionHandler) Logout(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	respondResultado(c, s.Logout(c.Request.Context()))
}

// CambiarSucursal godoc
// @Summary Selecciona la sucursal activa del ambito
// @Tags sesiones
// @Accept json
// @Produce json
// @Param scope path string true "pos | pedidos"
// @Param body body dto.CambiarSucursalRequest true "Sucursal"
// @Success 200 {object} dto.ResultadoResponse
// @Failure 422 {object} dto.ResultadoResponse
// @Router /v1/sesiones/{scope}/sucursal [post]
func (h *SesionHandler) CambiarSucursal(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	var req dto.CambiarSucursalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	respondResultado(c, s.CambiarSucursal(c.Request.Context(), req.SucursalID))
}

// AbrirTurno godoc
// @Summary Abre un turno para el cajero autenticado sin turno
// @Tags sesiones
// @Accept json
// @Produce json
// @Param scope path string true "pos | pedidos"
// @Param body body dto.AbrirTurnoRequest true "Saldo inicial"
// @Success 200 {object} dto.ResultadoResponse
// @Failure 422 {object} dto.ResultadoResponse
// @Router /v1/sesiones/{scope}/turno/abrir [post]
func (h *SesionHandler) AbrirTurno(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	var req dto.AbrirTurnoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	respondResultado(c, s.AbrirTurno(c.Request.Context(), req.SaldoInicial))
}

// CerrarTurno godoc
// @Summary Cierra el turno vivo con el conteo final declarado
// @Tags sesiones
// @Accept json
// @Produce json
// @Param scope path string true "pos | pedidos"
// @Param body body dto.CerrarTurnoRequest true "Conteo final"
// @Success 200 {object} dto.ResultadoResponse
// @Failure 422 {object} dto.ResultadoResponse
// @Router /v1/sesiones/{scope}/turno/cerrar [post]
func (h *SesionHandler) CerrarTurno(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	var req dto.CerrarTurnoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	respondResultado(c, s.CerrarTurno(c.Request.Context(), req.ConteoFinal))
}

// Snapshot godoc
// @Summary Estado actual del ambito
// @Tags sesiones
// @Produce json
// @Param scope path string true "pos | pedidos"
// @Success 200 {object} dto.SesionResponse
// @Router /v1/sesiones/{scope} [get]
func (h *SesionHandler) Snapshot(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// Cajeros godoc
// @Summary Cajeros activos de la sucursal seleccionada
// @Tags sesiones
// @Produce json
// @Param scope path string true "pos | pedidos"
// @Success 200 {array} dto.CajeroResponse
// @Router /v1/sesiones/{scope}/cajeros [get]
func (h *SesionHandler) Cajeros(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.ListarCajerosDisponibles(c.Request.Context()))
}

func (h *SesionHandler) TurnoVivo(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.TurnoVivoResponse{Vivo: s.TieneTurnoVivo(c.Request.Context())})
}

func (h *SesionHandler) Topbar(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Topbar())
}

func (h *SesionHandler) SaldoInicial(c *gin.Context) {
	s, ok := h.sesion(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.SaldoInicialResponse{SaldoInicial: s.SaldoInicial()})
}
