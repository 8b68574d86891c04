package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

var admin = service.Actor{ID: uuid.New(), Username: "admin", NombreCompleto: "Administrador", Rol: model.RolAdministrador}

func strPtr(s string) *string { return &s }

// ── Categorías ───────────────────────────────────────────────────────────────

func TestCategoriaEliminar_ConProductos(t *testing.T) {
	productos := newStubProductoRepo()
	categorias := newStubCategoriaRepo(productos)
	audit := &stubAuditoriaRepo{}
	svc := service.NewCategoriaService(categorias, service.NewAuditoriaService(audit, nil), cache.NewNopStore(nil))

	cat, err := svc.Crear(context.Background(), admin, dto.CategoriaRequest{Nombre: "Periféricos"})
	require.NoError(t, err)
	catID := uuid.MustParse(cat.ID)
	for i := 0; i < 3; i++ {
		require.NoError(t, productos.Create(context.Background(), &model.Producto{SKU: uuid.NewString(), Nombre: "P", CategoriaID: &catID}))
	}

	err = svc.Eliminar(context.Background(), admin, catID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCategoriaEnUso))
	assert.Contains(t, err.Error(), "3 producto(s)")
	assert.Equal(t, 0, categorias.deleteCalls, "Delete must not be attempted")
	assert.Contains(t, categorias.categorias, catID)

	list, err := svc.Listar(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].ProductCount)
}

func TestCategoriaEliminar_Vacia(t *testing.T) {
	productos := newStubProductoRepo()
	categorias := newStubCategoriaRepo(productos)
	audit := &stubAuditoriaRepo{}
	svc := service.NewCategoriaService(categorias, service.NewAuditoriaService(audit, nil), cache.NewNopStore(nil))

	cat, err := svc.Crear(context.Background(), admin, dto.CategoriaRequest{Nombre: "Cables"})
	require.NoError(t, err)
	require.NoError(t, svc.Eliminar(context.Background(), admin, uuid.MustParse(cat.ID)))
	assert.Equal(t, 1, categorias.deleteCalls)
	assert.Equal(t, []string{model.AccionCrear, model.AccionEliminar}, audit.acciones())

	err = svc.Eliminar(context.Background(), admin, uuid.New())
	assert.True(t, errors.Is(err, service.ErrNoEncontrado))
}

func TestCategoriaActualizar_AuditaCambios(t *testing.T) {
	productos := newStubProductoRepo()
	categorias := newStubCategoriaRepo(productos)
	audit := &stubAuditoriaRepo{}
	svc := service.NewCategoriaService(categorias, service.NewAuditoriaService(audit, nil), cache.NewNopStore(nil))

	cat, err := svc.Crear(context.Background(), admin, dto.CategoriaRequest{Nombre: "Cables"})
	require.NoError(t, err)
	_, err = svc.Actualizar(context.Background(), admin, uuid.MustParse(cat.ID), dto.CategoriaRequest{Nombre: "Cables y adaptadores"})
	require.NoError(t, err)

	require.Len(t, audit.entries, 2)
	texto, cambios := service.SepararCambios(audit.entries[1].Detalles)
	assert.Equal(t, "Categoría Cables y adaptadores", texto)
	var delta struct {
		Antes   dto.CategoriaResponse `json:"antes"`
		Despues dto.CategoriaResponse `json:"despues"`
	}
	require.NoError(t, json.Unmarshal(cambios, &delta))
	assert.Equal(t, "Cables", delta.Antes.Nombre)
	assert.Equal(t, "Cables y adaptadores", delta.Despues.Nombre)
}

// ── Productos ────────────────────────────────────────────────────────────────

type productoFixture struct {
	productos   *stubProductoRepo
	categorias  *stubCategoriaRepo
	proveedores *stubProveedorRepo
	svc         service.ProductoService
}

func newProductoFixture() *productoFixture {
	f := &productoFixture{productos: newStubProductoRepo(), proveedores: newStubProveedorRepo()}
	f.categorias = newStubCategoriaRepo(f.productos)
	f.productos.proveedores = f.proveedores
	f.proveedores.productos = f.productos
	f.svc = service.NewProductoService(f.productos, service.NewAuditoriaService(&stubAuditoriaRepo{}, nil), cache.NewNopStore(nil))
	return f
}

func productoReq(sku string) dto.ProductoRequest {
	return dto.ProductoRequest{
		SKU:            sku,
		Nombre:         "Mouse inalámbrico",
		StockActual:    20,
		StockMinimo:    5,
		StockMaximo:    100,
		PrecioUnitario: decimal.RequireFromString("25.499"),
	}
}

func TestValidarProducto(t *testing.T) {
	req := productoReq("MOU-001")
	assert.Empty(t, service.ValidarProducto(req))

	req.StockMinimo, req.StockMaximo = 10, 5
	errs := service.ValidarProducto(req)
	assert.Equal(t, "El stock máximo debe ser mayor o igual al stock mínimo", errs["stock_maximo"])

	bad := dto.ProductoRequest{StockActual: -1, PrecioUnitario: decimal.NewFromInt(-3)}
	errs = service.ValidarProducto(bad)
	assert.Contains(t, errs, "sku")
	assert.Contains(t, errs, "nombre")
	assert.Contains(t, errs, "stock_actual")
	assert.Contains(t, errs, "precio_unitario")
}

func TestProductoCrear_ConProveedores(t *testing.T) {
	f := newProductoFixture()
	ctx := context.Background()
	acme := &model.Proveedor{Nombre: "Acme"}
	globex := &model.Proveedor{Nombre: "Globex"}
	require.NoError(t, f.proveedores.Create(ctx, acme))
	require.NoError(t, f.proveedores.Create(ctx, globex))
	cat := &model.Categoria{Nombre: "Periféricos"}
	require.NoError(t, f.categorias.Create(ctx, cat))

	req := productoReq("MOU-001")
	req.CategoriaID = strPtr(cat.ID.String())
	req.ProveedorIDs = []string{globex.ID.String(), acme.ID.String(), globex.ID.String()}

	resp, err := f.svc.Crear(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, "25.50", resp.PrecioUnitario.StringFixed(2))
	assert.Equal(t, "Periféricos", resp.CategoriaNombre)
	assert.Equal(t, []string{globex.ID.String(), acme.ID.String()}, resp.ProveedorIDs)
	assert.Equal(t, []string{"Globex", "Acme"}, resp.ProveedorNombres)
	assert.False(t, resp.EnStockBajo)
}

func TestProductoCrear_SKUDuplicado(t *testing.T) {
	f := newProductoFixture()
	_, err := f.svc.Crear(context.Background(), admin, productoReq("MOU-001"))
	require.NoError(t, err)

	_, err = f.svc.Crear(context.Background(), admin, productoReq("mou-001"))
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Ya existe un producto con ese SKU", verr.Fields["sku"])
}

func TestProductoActualizar_MismoSKUPermitido(t *testing.T) {
	f := newProductoFixture()
	creado, err := f.svc.Crear(context.Background(), admin, productoReq("MOU-001"))
	require.NoError(t, err)

	req := productoReq("MOU-001")
	req.StockActual = 3
	resp, err := f.svc.Actualizar(context.Background(), admin, uuid.MustParse(creado.ID), req)
	require.NoError(t, err)
	assert.True(t, resp.EnStockBajo)
}

func TestProductoProveedores_FallaVinculoNoFallaGuardado(t *testing.T) {
	f := newProductoFixture()
	f.productos.vinculoErr = errBoom

	req := productoReq("MOU-001")
	req.ProveedorIDs = []string{uuid.NewString()}
	resp, err := f.svc.Crear(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Empty(t, resp.ProveedorIDs)
	assert.NotNil(t, resp.ProveedorNombres)
}

func TestToProductoResponse_ProveedorFaltante(t *testing.T) {
	prov := model.Proveedor{ID: uuid.New(), Nombre: "Acme"}
	p := &model.Producto{
		ID: uuid.New(),
		Proveedores: []model.ProductoProveedor{
			{ProveedorID: uuid.New()},
			{ProveedorID: prov.ID, Proveedor: &prov},
		},
	}
	resp := service.ToProductoResponse(p)
	assert.Equal(t, []string{prov.ID.String()}, resp.ProveedorIDs)
	assert.Equal(t, []string{"Acme"}, resp.ProveedorNombres)
}

// ── Proveedores ──────────────────────────────────────────────────────────────

func TestProveedorListar_ConteosBestEffort(t *testing.T) {
	f := newProductoFixture()
	svc := service.NewProveedorService(f.proveedores, nil, cache.NewNopStore(nil))
	ctx := context.Background()

	prov, err := svc.Crear(ctx, admin, dto.ProveedorRequest{Nombre: "Acme"})
	require.NoError(t, err)
	req := productoReq("MOU-001")
	req.ProveedorIDs = []string{prov.ID}
	_, err = f.svc.Crear(ctx, admin, req)
	require.NoError(t, err)

	list, err := svc.Listar(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ProductsCount)

	f.proveedores.contarErr = errBoom
	list, err = svc.Listar(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list[0].ProductsCount)
}

// ── Clientes ─────────────────────────────────────────────────────────────────

func TestClienteCrear_EstadoPorDefecto(t *testing.T) {
	svc := service.NewClienteService(newStubClienteRepo(), nil, cache.NewNopStore(nil))
	resp, err := svc.Crear(context.Background(), admin, dto.ClienteRequest{Nombre: " Ferretería López "})
	require.NoError(t, err)
	assert.Equal(t, "Ferretería López", resp.Nombre)
	assert.Equal(t, model.ClienteActivo, resp.Estado)
	assert.True(t, resp.TotalCompras.IsZero())
}

func TestClienteActualizar_ConservaTotalCompras(t *testing.T) {
	repo := newStubClienteRepo()
	svc := service.NewClienteService(repo, nil, cache.NewNopStore(nil))
	c := &model.Cliente{Nombre: "López", Estado: model.ClienteInactivo, TotalCompras: decimal.NewFromInt(900)}
	require.NoError(t, repo.Create(context.Background(), c))

	resp, err := svc.Actualizar(context.Background(), admin, c.ID, dto.ClienteRequest{Nombre: "López SA"})
	require.NoError(t, err)
	assert.Equal(t, model.ClienteInactivo, resp.Estado, "empty estado keeps the current one")
	assert.Equal(t, "900", repo.clientes[c.ID].TotalCompras.String())
}

func TestClienteEliminar_ConVentas(t *testing.T) {
	clientes := newStubClienteRepo()
	ventas := newStubVentaRepo(clientes)
	svc := service.NewClienteService(clientes, nil, cache.NewNopStore(nil))
	c := &model.Cliente{Nombre: "López", Estado: model.ClienteActivo}
	require.NoError(t, clientes.Create(context.Background(), c))
	require.NoError(t, ventas.CreateTx(nil, &model.Venta{ClienteID: c.ID, ClienteNombre: c.Nombre}))

	err := svc.Eliminar(context.Background(), admin, c.ID)
	assert.True(t, errors.Is(err, service.ErrConflicto))
	assert.Contains(t, clientes.clientes, c.ID)
}

// ── Usuarios ─────────────────────────────────────────────────────────────────

func TestUsuarioCrear_UsernameDerivado(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := service.NewUsuarioService(repo, nil, cache.NewNopStore(nil))
	ctx := context.Background()

	a, err := svc.Crear(ctx, admin, dto.CrearUsuarioRequest{NombreCompleto: "Juan", Email: "J.Perez+ventas@empresa.com", Password: "12345678", Rol: model.RolEmpleado})
	require.NoError(t, err)
	assert.Equal(t, "j.perezventas", a.Username)
	assert.Equal(t, "j.perez+ventas@empresa.com", a.Email)

	b, err := svc.Crear(ctx, admin, dto.CrearUsuarioRequest{NombreCompleto: "Juan", Email: "j.perezventas@otra.com", Password: "12345678", Rol: model.RolEmpleado})
	require.NoError(t, err)
	assert.Equal(t, "j.perezventas2", b.Username)

	_, err = svc.Crear(ctx, admin, dto.CrearUsuarioRequest{NombreCompleto: "Dup", Email: "J.PEREZ+ventas@empresa.com", Password: "12345678", Rol: model.RolEmpleado})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.True(t, errors.Is(err, service.ErrConflicto))
}

func TestUsuarioEliminar_Propio(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := service.NewUsuarioService(repo, nil, cache.NewNopStore(nil))
	yo := &model.Usuario{ID: admin.ID, Username: "admin", Email: "admin@empresa.com"}
	require.NoError(t, repo.Create(context.Background(), yo))

	err := svc.Eliminar(context.Background(), admin, admin.ID)
	assert.True(t, errors.Is(err, service.ErrConflicto))
	assert.Contains(t, repo.users, admin.ID)
}

func TestUsuarioActualizar_RederivaUsername(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := service.NewUsuarioService(repo, nil, cache.NewNopStore(nil))
	u := &model.Usuario{Username: "maria", Email: "maria@empresa.com", Rol: model.RolEmpleado}
	require.NoError(t, repo.Create(context.Background(), u))

	resp, err := svc.Actualizar(context.Background(), admin, u.ID, dto.ActualizarUsuarioRequest{Email: strPtr("maria@otra.com")})
	require.NoError(t, err)
	assert.Equal(t, "maria", resp.Username, "same local part keeps the username")

	resp, err = svc.Actualizar(context.Background(), admin, u.ID, dto.ActualizarUsuarioRequest{Email: strPtr("mgomez@otra.com")})
	require.NoError(t, err)
	assert.Equal(t, "mgomez", resp.Username)
}
