package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/borrador"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type borradorFixture struct {
	*ventaFixture
	store      *memBorradorStore
	borradores service.BorradorService
}

func newBorradorFixture(t *testing.T) *borradorFixture {
	vf := newVentaFixture(t)
	store := newMemBorradorStore()
	return &borradorFixture{
		ventaFixture: vf,
		store:        store,
		borradores:   service.NewBorradorService(store, vf.productos, vf.clientes, vf.svc),
	}
}

// nuevo returns a draft with the fixture customer selected and the picker open.
func (f *borradorFixture) nuevo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	b, err := f.borradores.Crear(ctx, f.vendedor)
	require.NoError(t, err)
	assert.Equal(t, borrador.EstadoVacio, b.Estado)

	b, err = f.borradores.SeleccionarCliente(ctx, f.vendedor, b.ID, dto.SeleccionarClienteRequest{ClienteID: f.cliente.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, borrador.EstadoClienteSeleccionado, b.Estado)
	assert.Equal(t, "Ferretería López", b.ClienteNombre)

	_, err = f.borradores.AbrirSelector(ctx, f.vendedor, b.ID, dto.AbrirSelectorRequest{})
	require.NoError(t, err)
	return b.ID
}

func TestBorrador_FlujoCompleto(t *testing.T) {
	f := newBorradorFixture(t)
	ctx := context.Background()
	mouse := f.producto(t, "MOU-001", "Mouse", 50, 5, "25.00")
	ssd := f.producto(t, "SSD-007", "SSD 1TB", 10, 2, "80.00")
	f.producto(t, "AGO-000", "Agotado", 0, 1, "5.00")

	id := f.nuevo(t)

	disponibles, err := f.borradores.Disponibles(ctx, f.vendedor, id, "")
	require.NoError(t, err)
	assert.Len(t, disponibles, 2, "out-of-stock products are not offered")

	_, err = f.borradores.Preparar(ctx, f.vendedor, id, dto.PrepararLineaRequest{ProductoID: mouse.ID.String()})
	require.NoError(t, err)
	_, err = f.borradores.AgregarATabla(ctx, f.vendedor, id)
	require.NoError(t, err)

	disponibles, err = f.borradores.Disponibles(ctx, f.vendedor, id, "ssd")
	require.NoError(t, err)
	require.Len(t, disponibles, 1)
	assert.Equal(t, ssd.ID.String(), disponibles[0].ID)

	_, err = f.borradores.Preparar(ctx, f.vendedor, id, dto.PrepararLineaRequest{ProductoID: ssd.ID.String()})
	require.NoError(t, err)
	b, err := f.borradores.ConfirmarSeleccion(ctx, f.vendedor, id)
	require.NoError(t, err)
	assert.False(t, b.Selector.Abierto)
	assert.Equal(t, borrador.EstadoEditando, b.Estado)
	assert.Equal(t, []string{mouse.ID.String(), ssd.ID.String()}, b.Claves)

	// more than available
	b, err = f.borradores.CambiarCantidad(ctx, f.vendedor, id, ssd.ID.String(), dto.CambiarCantidadRequest{Cantidad: 999})
	require.NoError(t, err)
	assert.False(t, b.PuedeConfirmar)
	assert.Equal(t, "Stock insuficiente (disponible: 10)", b.Errores["lineas[1].cantidad"])

	_, err = f.borradores.Confirmar(ctx, f.vendedor, id)
	assert.True(t, errors.Is(err, service.ErrStockInsuficiente))
	assert.Contains(t, f.store.borradores, id, "draft survives a rejected confirm")
	assert.Equal(t, 10, f.stock(ssd.ID))

	b, err = f.borradores.CambiarCantidad(ctx, f.vendedor, id, ssd.ID.String(), dto.CambiarCantidadRequest{Cantidad: 3})
	require.NoError(t, err)
	assert.True(t, b.PuedeConfirmar)
	assert.Empty(t, b.Errores)
	assert.Equal(t, "265.00", b.Total.StringFixed(2))

	_, err = f.borradores.Notas(ctx, f.vendedor, id, dto.NotasBorradorRequest{Notas: " Retira el cliente "})
	require.NoError(t, err)

	venta, err := f.borradores.Confirmar(ctx, f.vendedor, id)
	require.NoError(t, err)
	assert.Equal(t, "265.00", venta.Total.StringFixed(2))
	require.NotNil(t, venta.Notas)
	assert.Equal(t, "Retira el cliente", *venta.Notas)
	assert.Equal(t, 49, f.stock(mouse.ID))
	assert.Equal(t, 7, f.stock(ssd.ID))
	assert.NotContains(t, f.store.borradores, id)
}

func TestBorrador_SinClienteNoAgrega(t *testing.T) {
	f := newBorradorFixture(t)
	b, err := f.borradores.Crear(context.Background(), f.vendedor)
	require.NoError(t, err)

	_, err = f.borradores.AgregarFilaVacia(context.Background(), f.vendedor, b.ID)
	assert.True(t, errors.Is(err, service.ErrConflicto))
	assert.EqualError(t, err, borrador.ErrClienteRequerido.Error())

	_, err = f.borradores.AbrirSelector(context.Background(), f.vendedor, b.ID, dto.AbrirSelectorRequest{})
	assert.True(t, errors.Is(err, service.ErrConflicto))
}

func TestBorrador_FilaVaciaYReemplazo(t *testing.T) {
	f := newBorradorFixture(t)
	ctx := context.Background()
	mouse := f.producto(t, "MOU-001", "Mouse", 50, 5, "25.00")
	id := f.nuevo(t)
	_, err := f.borradores.CerrarSelector(ctx, f.vendedor, id)
	require.NoError(t, err)

	b, err := f.borradores.AgregarFilaVacia(ctx, f.vendedor, id)
	require.NoError(t, err)
	require.Equal(t, []string{"new-0"}, b.Claves)
	assert.False(t, b.PuedeConfirmar)
	assert.Equal(t, "Seleccione un producto", b.Errores["lineas[0].producto_id"])

	_, err = f.borradores.AbrirSelector(ctx, f.vendedor, id, dto.AbrirSelectorRequest{Reemplaza: "new-0"})
	require.NoError(t, err)
	_, err = f.borradores.Preparar(ctx, f.vendedor, id, dto.PrepararLineaRequest{ProductoID: mouse.ID.String()})
	require.NoError(t, err)
	b, err = f.borradores.ConfirmarSeleccion(ctx, f.vendedor, id)
	require.NoError(t, err)
	assert.Equal(t, []string{mouse.ID.String()}, b.Claves)
	assert.True(t, b.PuedeConfirmar)

	b, err = f.borradores.Quitar(ctx, f.vendedor, id, mouse.ID.String())
	require.NoError(t, err)
	assert.Equal(t, borrador.EstadoClienteSeleccionado, b.Estado)
}

func TestBorrador_PrecioActualAlPreparar(t *testing.T) {
	f := newBorradorFixture(t)
	ctx := context.Background()
	mouse := f.producto(t, "MOU-001", "Mouse", 50, 5, "25.00")
	id := f.nuevo(t)

	f.productos.productos[mouse.ID].PrecioUnitario = decimal.RequireFromString("27.50")
	b, err := f.borradores.Preparar(ctx, f.vendedor, id, dto.PrepararLineaRequest{ProductoID: mouse.ID.String()})
	require.NoError(t, err)
	require.NotNil(t, b.Selector.Preparada)
	assert.Equal(t, "27.50", b.Selector.Preparada.PrecioUnitario.StringFixed(2))

	_, err = f.borradores.Preparar(ctx, f.vendedor, id, dto.PrepararLineaRequest{ProductoID: uuid.NewString()})
	assert.True(t, errors.Is(err, service.ErrConflicto))
}

func TestBorrador_FalloAlRegistrarConservaBorrador(t *testing.T) {
	f := newBorradorFixture(t)
	ctx := context.Background()
	mouse := f.producto(t, "MOU-001", "Mouse", 50, 5, "25.00")
	id := f.nuevo(t)
	_, err := f.borradores.Preparar(ctx, f.vendedor, id, dto.PrepararLineaRequest{ProductoID: mouse.ID.String()})
	require.NoError(t, err)
	_, err = f.borradores.ConfirmarSeleccion(ctx, f.vendedor, id)
	require.NoError(t, err)

	f.productos.descuentoFallido = true
	_, err = f.borradores.Confirmar(ctx, f.vendedor, id)
	require.Error(t, err)

	b, err := f.borradores.Obtener(ctx, f.vendedor, id)
	require.NoError(t, err)
	require.Len(t, b.Lineas, 1)
	assert.Equal(t, mouse.ID.String(), b.Lineas[0].ProductoID)
}

func TestBorrador_AjenoNoVisible(t *testing.T) {
	f := newBorradorFixture(t)
	b, err := f.borradores.Crear(context.Background(), f.vendedor)
	require.NoError(t, err)

	otro := service.Actor{ID: uuid.New(), Username: "otro", Rol: model.RolEmpleado}
	_, err = f.borradores.Obtener(context.Background(), otro, b.ID)
	assert.True(t, errors.Is(err, service.ErrNoEncontrado))

	require.NoError(t, f.borradores.Descartar(context.Background(), f.vendedor, b.ID))
	_, err = f.borradores.Obtener(context.Background(), f.vendedor, b.ID)
	assert.True(t, errors.Is(err, service.ErrNoEncontrado))
}
