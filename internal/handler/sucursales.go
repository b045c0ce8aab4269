package handler

import (
	"net/http"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

type SucursalesHandler struct{ svc service.SucursalService }

func NewSucursalesHandler(svc service.SucursalService) *SucursalesHandler {
	return &SucursalesHandler{svc: svc}
}

// Listar godoc
// @Summary Lista todas las sucursales
// @Tags sucursales
// @Produce json
// @Success 200 {array} model.Sucursal
// @Router /v1/sucursales [get]
func (h *SucursalesHandler) Listar(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Listar(c.Request.Context()))
}

// ListarActivas godoc
// @Summary Lista las sucursales activas
// @Tags sucursales
// @Produce json
// @Success 200 {array} model.Sucursal
// @Router /v1/sucursales/activas [get]
func (h *SucursalesHandler) ListarActivas(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListarActivas(c.Request.Context()))
}

// Default godoc
// @Summary Sucursal principal, o la primera activa
// @Tags sucursales
// @Produce json
// @Success 200 {object} model.Sucursal
// @Router /v1/sucursales/default [get]
func (h *SucursalesHandler) Default(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ObtenerDefault(c.Request.Context()))
}

// ObtenerPorID godoc
// @Summary Obtiene una sucursal; un id invalido responde null
// @Tags sucursales
// @Produce json
// @Param id path string true "ID de sucursal"
// @Success 200 {object} model.Sucursal
// @Router /v1/sucursales/{id} [get]
func (h *SucursalesHandler) ObtenerPorID(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ObtenerPorID(c.Request.Context(), service.ParseSucursalID(c.Param("id"))))
}
