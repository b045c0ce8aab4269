package middleware

import (
	"net/http"
	"strings"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/apierror"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	IdentidadKey = "identidad"
)

// IdentidadClaims are the claims of the system-wide login token mirrored into
// the POS session.
type IdentidadClaims struct {
	CajeroID   int64  `json:"cajero_id"`
	Nombre     string `json:"nombre"`
	SucursalID int64  `json:"sucursal_id"`
	Rol        string `json:"rol"`
	jwt.RegisteredClaims
}

func (c *IdentidadClaims) Identidad() model.Identidad {
	return model.Identidad{
		CajeroID:   c.CajeroID,
		Nombre:     c.Nombre,
		SucursalID: c.SucursalID,
		Rol:        model.ParseRol(c.Rol),
	}
}

// IdentityJWT validates the Bearer token carrying the system identity.
func IdentityJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("Identidad del sistema no configurada"))
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &IdentidadClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		if claims.CajeroID <= 0 || claims.SucursalID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token sin cajero o sucursal"))
			return
		}

		id := claims.Identidad()
		c.Set(IdentidadKey, &id)
		c.Next()
	}
}

// GetIdentidad returns the identity set by IdentityJWT, or nil.
func GetIdentidad(c *gin.Context) *model.Identidad {
	v, ok := c.Get(IdentidadKey)
	if !ok {
		return nil
	}
	id, _ := v.(*model.Identidad)
	return id
}
