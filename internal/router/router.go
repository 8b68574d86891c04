package router

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/handler"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/permiso"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/sse"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

// Deps are the infrastructure pieces built by the composition root.
// Broker and Breaker are nil when RABBITMQ_URL is empty.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Hub        *sse.Hub
	Dispatcher *worker.Dispatcher
	Broker     *infra.Broker
	Breaker    *infra.CircuitBreaker
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(d Deps) *gin.Engine {
	cfg, db, rdb := d.Config, d.DB, d.Redis
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(strings.Split(cfg.CORSOrigins, ",")...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Cache ────────────────────────────────────────────────────────────────
	store := cache.NewNopStore(d.Hub)
	if cfg.CacheEnabled {
		store = cache.NewRedisStore(rdb, time.Duration(cfg.CacheTTLSeconds)*time.Second, d.Hub)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)
	auditoriaRepo := repository.NewAuditoriaRepository(db)
	reporteRepo := repository.NewReporteRepository(db)
	busquedaRepo := repository.NewBusquedaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	auditoriaSvc := service.NewAuditoriaService(auditoriaRepo, d.Dispatcher)
	authSvc := service.NewAuthService(usuarioRepo, service.NewSesionStore(rdb), auditoriaSvc, cfg)
	usuarioSvc := service.NewUsuarioService(usuarioRepo, auditoriaSvc, store)
	categoriaSvc := service.NewCategoriaService(categoriaRepo, auditoriaSvc, store)
	proveedorSvc := service.NewProveedorService(proveedorRepo, auditoriaSvc, store)
	productoSvc := service.NewProductoService(productoRepo, auditoriaSvc, store)
	clienteSvc := service.NewClienteService(clienteRepo, auditoriaSvc, store)

	ventaDeps := service.VentaDeps{
		Ventas:      ventaRepo,
		Productos:   productoRepo,
		Clientes:    clienteRepo,
		Movimientos: movimientoRepo,
		Usuarios:    usuarioRepo,
		Auditoria:   auditoriaSvc,
		Cache:       store,
		Queue:       d.Dispatcher,
		Config:      cfg,
	}
	if d.Broker != nil {
		ventaDeps.Eventos = d.Broker
	}
	ventaSvc := service.NewVentaService(ventaDeps)
	borradorSvc := service.NewBorradorService(
		service.NewBorradorStore(rdb, time.Duration(cfg.BorradorTTLMinutes)*time.Minute),
		productoRepo, clienteRepo, ventaSvc,
	)
	movimientoSvc := service.NewMovimientoService(movimientoRepo, productoRepo, ventaRepo, clienteRepo, auditoriaSvc, store)
	reporteSvc := service.NewReporteService(reporteRepo, productoRepo, store)
	busquedaSvc := service.NewBusquedaService(busquedaRepo, proveedorRepo, usuarioRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	borradoresH := handler.NewBorradoresHandler(borradorSvc)
	movimientosH := handler.NewMovimientosHandler(movimientoSvc)
	reportesH := handler.NewReportesHandler(reporteSvc, busquedaSvc, auditoriaSvc)
	eventosH := handler.NewEventosHandler(d.Hub)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, d.Breaker))
	r.POST("/v1/auth/login", middleware.LoginRateLimiter(20), authH.Login)
	r.GET("/v1/setup", authH.EstadoSetup)
	r.POST("/v1/setup", middleware.LoginRateLimiter(20), authH.Setup)

	// EventSource cannot send headers; the token may come as ?token=.
	r.GET("/v1/eventos", middleware.TokenDesdeQuery(), middleware.JWTAuth(authSvc),
		middleware.RequirePermiso(permiso.Autenticado, auditoriaSvc), eventosH.Stream)

	// Protected routes. Every group checks a permiso predicate so the same
	// rules the UI uses as hints are enforced here.
	v1 := r.Group("/v1", middleware.JWTAuth(authSvc))
	auth := middleware.RequirePermiso(permiso.Autenticado, auditoriaSvc)
	req := func(pred func(string) bool) gin.HandlerFunc { return middleware.RequirePermiso(pred, auditoriaSvc) }
	{
		v1.GET("/auth/me", auth, authH.Me)
		v1.POST("/auth/logout", auth, authH.Logout)
		v1.PUT("/auth/password", auth, authH.CambiarPassword)

		usuarios := v1.Group("/usuarios", req(permiso.PuedeGestionarUsuarios))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.GET("/:id", usuariosH.ObtenerPorID)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Eliminar)
		}

		// Categorías: administrador can write, all authenticated can read
		v1.GET("/categorias", auth, categoriasH.Listar)
		categorias := v1.Group("/categorias", req(permiso.PuedeGestionarCategorias))
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.DELETE("/:id", categoriasH.Eliminar)
		}

		v1.GET("/proveedores", auth, proveedoresH.Listar)
		v1.GET("/proveedores/:id", auth, proveedoresH.ObtenerPorID)
		prov := v1.Group("/proveedores", req(permiso.PuedeGestionarProveedores))
		{
			prov.POST("", proveedoresH.Crear)
			prov.PUT("/:id", proveedoresH.Actualizar)
			prov.DELETE("/:id", proveedoresH.Eliminar)
		}

		v1.GET("/productos", auth, productosH.Listar)
		v1.GET("/productos/:id", auth, productosH.ObtenerPorID)
		v1.POST("/productos", req(permiso.PuedeEditarProducto), productosH.Crear)
		v1.PUT("/productos/:id", req(permiso.PuedeEditarProducto), productosH.Actualizar)
		v1.DELETE("/productos/:id", req(permiso.PuedeEliminarProducto), productosH.Eliminar)

		clientes := v1.Group("/clientes", auth)
		{
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.POST("", clientesH.Crear)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", req(permiso.EsAdmin), clientesH.Eliminar)
		}

		ventas := v1.Group("/ventas", auth)
		{
			ventas.POST("", ventasH.RegistrarVenta)
			ventas.GET("", ventasH.Listar)
			ventas.GET("/:id", ventasH.ObtenerPorID)
			ventas.GET("/:id/comprobante", ventasH.Comprobante)
		}

		borradores := v1.Group("/ventas/borradores", auth)
		{
			borradores.POST("", borradoresH.Crear)
			borradores.GET("/:id", borradoresH.Obtener)
			borradores.DELETE("/:id", borradoresH.Descartar)
			borradores.POST("/:id/reset", borradoresH.Reset)
			borradores.PUT("/:id/cliente", borradoresH.SeleccionarCliente)
			borradores.POST("/:id/filas", borradoresH.AgregarFilaVacia)
			borradores.POST("/:id/selector", borradoresH.AbrirSelector)
			borradores.DELETE("/:id/selector", borradoresH.CerrarSelector)
			borradores.GET("/:id/disponibles", borradoresH.Disponibles)
			borradores.POST("/:id/selector/preparar", borradoresH.Preparar)
			borradores.POST("/:id/selector/agregar", borradoresH.AgregarATabla)
			borradores.POST("/:id/selector/confirmar", borradoresH.ConfirmarSeleccion)
			borradores.PUT("/:id/lineas/:clave", borradoresH.CambiarCantidad)
			borradores.DELETE("/:id/lineas/:clave", borradoresH.Quitar)
			borradores.PUT("/:id/notas", borradoresH.Notas)
			borradores.POST("/:id/confirmar", borradoresH.Confirmar)
		}

		mov := v1.Group("/movimientos", req(permiso.PuedeRegistrarMovimiento))
		{
			mov.GET("", movimientosH.Listar)
			mov.POST("/entradas", movimientosH.RegistrarEntrada)
		}
		v1.POST("/movimientos/importar", req(permiso.EsAdmin), movimientosH.Importar)
		v1.GET("/inventario/alertas", auth, movimientosH.Alertas)

		rep := v1.Group("/reportes", req(permiso.PuedeVerReportes))
		{
			rep.GET("/dashboard", reportesH.Dashboard)
			rep.GET("/conteos", reportesH.Conteos)
		}
		v1.GET("/busqueda", auth, reportesH.Buscar)
		v1.GET("/auditoria", req(permiso.EsAdmin), reportesH.Auditoria)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
