package borrador

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ssd() ProductoRef {
	return ProductoRef{ID: "p-ssd", Nombre: "SSD 1TB", SKU: "SSD-007", Categoria: "Almacenamiento",
		PrecioUnitario: decimal.RequireFromString("89.90"), StockActual: 50}
}

func webcam() ProductoRef {
	return ProductoRef{ID: "p-cam", Nombre: "Webcam HD", SKU: "CAM-001", Categoria: "Perifericos",
		PrecioUnitario: decimal.RequireFromString("35.50"), StockActual: 10}
}

func conCliente(t *testing.T) *Borrador {
	t.Helper()
	b := Nuevo("b1", "u1")
	require.NoError(t, b.SeleccionarCliente(ClienteRef{ID: "c-acme", Nombre: "Acme Corp"}))
	return b
}

func agregar(t *testing.T, b *Borrador, p ProductoRef) {
	t.Helper()
	require.NoError(t, b.AbrirSelector(""))
	require.NoError(t, b.Preparar(p))
	require.NoError(t, b.Confirmar())
}

func stockDe(ps ...ProductoRef) map[string]int {
	m := make(map[string]int, len(ps))
	for _, p := range ps {
		m[p.ID] = p.StockActual
	}
	return m
}

func TestEstados(t *testing.T) {
	b := Nuevo("b1", "u1")
	assert.Equal(t, EstadoVacio, b.Estado())

	require.NoError(t, b.SeleccionarCliente(ClienteRef{ID: "c1", Nombre: "Acme"}))
	assert.Equal(t, EstadoClienteSeleccionado, b.Estado())

	agregar(t, b, ssd())
	assert.Equal(t, EstadoEditando, b.Estado())

	b.Reset()
	assert.Equal(t, EstadoVacio, b.Estado())
	assert.Equal(t, "b1", b.ID)
	assert.Empty(t, b.Lineas)
}

func TestSinCliente_NoPermiteAgregar(t *testing.T) {
	b := Nuevo("b1", "u1")
	assert.ErrorIs(t, b.AbrirSelector(""), ErrClienteRequerido)
	_, err := b.AgregarFilaVacia()
	assert.ErrorIs(t, err, ErrClienteRequerido)
	assert.ErrorIs(t, b.SeleccionarCliente(ClienteRef{}), ErrClienteInvalido)
}

func TestSelector_AgregarATablaMantieneAbierto(t *testing.T) {
	b := conCliente(t)
	require.NoError(t, b.AbrirSelector(""))
	require.NoError(t, b.Preparar(ssd()))
	require.NoError(t, b.AgregarATabla())
	assert.True(t, b.Selector.Abierto)
	assert.Nil(t, b.Selector.Preparada)

	require.NoError(t, b.Preparar(webcam()))
	require.NoError(t, b.Confirmar())
	assert.False(t, b.Selector.Abierto)
	require.Len(t, b.Lineas, 2)
	assert.Equal(t, 1, b.Lineas[1].Cantidad)
}

func TestSelector_SinPreparar(t *testing.T) {
	b := conCliente(t)
	assert.ErrorIs(t, b.Confirmar(), ErrSelectorCerrado)
	require.NoError(t, b.AbrirSelector(""))
	assert.ErrorIs(t, b.AgregarATabla(), ErrNadaPreparado)
}

func TestProductosDisponibles_ExcluyeUsadosSalvoReemplazo(t *testing.T) {
	sinStock := ProductoRef{ID: "p-0", Nombre: "Agotado", StockActual: 0}
	catalogo := []ProductoRef{ssd(), webcam(), sinStock}

	b := conCliente(t)
	agregar(t, b, ssd())

	require.NoError(t, b.AbrirSelector(""))
	disp := b.ProductosDisponibles(catalogo, "")
	require.Len(t, disp, 1)
	assert.Equal(t, "p-cam", disp[0].ID)
	assert.ErrorIs(t, b.Preparar(ssd()), ErrProductoNoDisponible)

	// rebinding the SSD row offers the SSD again
	require.NoError(t, b.AbrirSelector("p-ssd"))
	assert.Len(t, b.ProductosDisponibles(catalogo, ""), 2)
	assert.Len(t, b.ProductosDisponibles(catalogo, "perif"), 1)
	assert.Len(t, b.ProductosDisponibles(catalogo, "ssd-0"), 1)
}

func TestFilaVacia_SeVinculaConSelector(t *testing.T) {
	b := conCliente(t)
	clave, err := b.AgregarFilaVacia()
	require.NoError(t, err)
	assert.Equal(t, "new-0", clave)
	assert.Contains(t, b.Validar(stockDe(ssd())), "lineas[0].producto_id")

	require.NoError(t, b.AbrirSelector(clave))
	require.NoError(t, b.Preparar(ssd()))
	require.NoError(t, b.Confirmar())
	require.Len(t, b.Lineas, 1)
	assert.Equal(t, "p-ssd", b.Clave(0))
	assert.Empty(t, b.Validar(stockDe(ssd())))
}

func TestCambiarCantidad_ClampYSubtotal(t *testing.T) {
	b := conCliente(t)
	agregar(t, b, ssd())

	require.NoError(t, b.CambiarCantidad("p-ssd", 3))
	assert.True(t, decimal.RequireFromString("269.70").Equal(b.Lineas[0].Subtotal))

	require.NoError(t, b.CambiarCantidad("p-ssd", 0))
	assert.Equal(t, 1, b.Lineas[0].Cantidad)
	require.NoError(t, b.CambiarCantidad("p-ssd", -4))
	assert.Equal(t, 1, b.Lineas[0].Cantidad)

	assert.ErrorIs(t, b.CambiarCantidad("nope", 2), ErrLineaNoEncontrada)
}

func TestSubtotal_Redondeo(t *testing.T) {
	assert.Equal(t, "3.33", Subtotal(3, decimal.RequireFromString("1.111")).StringFixed(2))
	assert.Equal(t, "0.00", Subtotal(0, decimal.RequireFromString("9.99")).StringFixed(2))
}

func TestQuitar_PorIndiceYPorProducto(t *testing.T) {
	b := conCliente(t)
	_, _ = b.AgregarFilaVacia()
	agregar(t, b, ssd())
	_, _ = b.AgregarFilaVacia()
	require.Len(t, b.Lineas, 3)
	assert.Equal(t, "new-2", b.Clave(2))

	require.NoError(t, b.Quitar("new-0"))
	require.Len(t, b.Lineas, 2)
	assert.Equal(t, "p-ssd", b.Clave(0))
	assert.Equal(t, "new-1", b.Clave(1))

	require.NoError(t, b.Quitar("p-ssd"))
	require.Len(t, b.Lineas, 1)
	assert.True(t, b.Lineas[0].Vacia())

	assert.ErrorIs(t, b.Quitar("p-ssd"), ErrLineaNoEncontrada)
	assert.ErrorIs(t, b.Quitar("new-7"), ErrLineaNoEncontrada)
}

func TestReagregar_UsaPrecioActual(t *testing.T) {
	b := conCliente(t)
	p := ssd()
	agregar(t, b, p)
	require.NoError(t, b.Quitar(p.ID))

	p.PrecioUnitario = decimal.RequireFromString("99.00")
	agregar(t, b, p)
	require.Len(t, b.Lineas, 1)
	assert.True(t, p.PrecioUnitario.Equal(b.Lineas[0].PrecioUnitario))
}

func TestValidar_Escenarios(t *testing.T) {
	t.Run("sin cliente ni lineas", func(t *testing.T) {
		b := Nuevo("b", "u")
		errs := b.Validar(nil)
		assert.Contains(t, errs, "cliente_id")
		assert.Contains(t, errs, "lineas")
		assert.False(t, b.PuedeConfirmar(nil))
	})

	t.Run("stock insuficiente", func(t *testing.T) {
		b := conCliente(t)
		agregar(t, b, webcam())
		require.NoError(t, b.CambiarCantidad("p-cam", 999))
		errs := b.Validar(stockDe(webcam()))
		assert.Contains(t, errs["lineas[0].cantidad"], "Stock insuficiente")
		assert.False(t, b.PuedeConfirmar(stockDe(webcam())))
	})

	t.Run("venta valida", func(t *testing.T) {
		b := conCliente(t)
		agregar(t, b, ssd())
		agregar(t, b, webcam())
		require.NoError(t, b.CambiarCantidad("p-ssd", 5))
		require.NoError(t, b.CambiarCantidad("p-cam", 2))
		assert.True(t, b.PuedeConfirmar(stockDe(ssd(), webcam())))

		want := ssd().PrecioUnitario.Mul(decimal.NewFromInt(5)).Add(webcam().PrecioUnitario.Mul(decimal.NewFromInt(2)))
		assert.True(t, want.Equal(b.Total()))
		items := b.Items()
		require.Len(t, items, 2)
		assert.Equal(t, 5, items[0].Cantidad)
	})
}
