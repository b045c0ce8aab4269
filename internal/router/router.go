package router

import (
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/config"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/handler"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/infra"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/middleware"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/repository"
	"github.com/JOHNINFA/crm-fabrica-sub002/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps are the services built by the composition root. Redis and Breaker may be nil.
type Deps struct {
	Config     *config.Config
	Store      repository.KV
	Redis      *redis.Client
	Breaker    *infra.CircuitBreaker
	Sucursales service.SucursalService
	Identidad  *service.IdentidadHub
	Sesiones   []service.SesionService
}

// New returns the configured Gin engine.
// Dependency graph: Handler ← Service ← (remote.Client, LocalStore ← KV)
func New(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins()...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	sesionH := handler.NewSesionHandler(d.Sesiones...)
	sucursalesH := handler.NewSucursalesHandler(d.Sucursales)
	identidadH := handler.NewIdentidadHandler(d.Identidad)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(d.Store, d.Redis, d.Breaker))

	v1 := r.Group("/v1")

	suc := v1.Group("/sucursales")
	{
		suc.GET("", sucursalesH.Listar)
		suc.GET("/activas", sucursalesH.ListarActivas)
		suc.GET("/default", sucursalesH.Default)
		suc.GET("/:id", sucursalesH.ObtenerPorID)
	}

	ses := v1.Group("/sesiones/:scope")
	{
		ses.GET("", sesionH.Snapshot)
		ses.POST("/login", middleware.LoginRateLimiter(cfg.LoginRateLimit), sesionH.Login)
		ses.POST("/logout", sesionH.Logout)
		ses.POST("/sucursal", sesionH.CambiarSucursal)
		ses.POST("/turno/abrir", sesionH.AbrirTurno)
		ses.POST("/turno/cerrar", sesionH.CerrarTurno)
		ses.GET("/turno/vivo", sesionH.TurnoVivo)
		ses.GET("/cajeros", sesionH.Cajeros)
		ses.GET("/topbar", sesionH.Topbar)
		ses.GET("/saldo-inicial", sesionH.SaldoInicial)
	}

	v1.GET("/identidad", identidadH.Actual)
	v1.PUT("/identidad", middleware.IdentityJWT(cfg.IdentityJWTSecret), identidadH.Establecer)
	v1.DELETE("/identidad", middleware.IdentityJWT(cfg.IdentityJWTSecret), identidadH.Retirar)

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
