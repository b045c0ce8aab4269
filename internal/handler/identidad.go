package handler

import (
	"net/http"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/middleware"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// IdentidadHandler feeds the system-wide identity into the hub the POS
// session is subscribed to.
type IdentidadHandler struct{ hub *service.IdentidadHub }

func NewIdentidadHandler(hub *service.IdentidadHub) *IdentidadHandler {
	return &IdentidadHandler{hub: hub}
}

// Establecer godoc
// @Summary Publica la identidad del sistema contenida en el token
// @Tags identidad
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Identidad
// @Failure 401 {object} apierror.APIError
// @Router /v1/identidad [put]
func (h *IdentidadHandler) Establecer(c *gin.Context) {
	id := middleware.GetIdentidad(c)
	h.hub.Publicar(c.Request.Context(), id)
	c.JSON(http.StatusOK, id)
}

// Retirar godoc
// @Summary Retira la identidad del sistema
// @Tags identidad
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} apierror.APIError
// @Router /v1/identidad [delete]
func (h *IdentidadHandler) Retirar(c *gin.Context) {
	h.hub.Publicar(c.Request.Context(), nil)
	c.Status(http.StatusNoContent)
}

func (h *IdentidadHandler) Actual(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Actual())
}
