package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type stubReporteRepo struct {
	diarios    []repository.MovimientoDiario
	salidas    map[uuid.UUID]int64
	calidad    *repository.ConteosCalidad
	calidadErr error
}

var _ repository.ReporteRepository = (*stubReporteRepo)(nil)

func (r *stubReporteRepo) Conteos(context.Context) (map[string]int64, error) {
	return map[string]int64{"productos": 2}, nil
}

func (r *stubReporteRepo) Categorias(context.Context) ([]repository.CategoriaAgregada, error) {
	return []repository.CategoriaAgregada{{Nombre: "Sin categoría", Productos: 2, Unidades: 13}}, nil
}

func (r *stubReporteRepo) MovimientosPorDia(context.Context, time.Time) ([]repository.MovimientoDiario, error) {
	return r.diarios, nil
}

func (r *stubReporteRepo) SalidasPorProducto(context.Context, time.Time) (map[uuid.UUID]int64, error) {
	return r.salidas, nil
}

func (r *stubReporteRepo) TopVendidos(context.Context, int) ([]repository.VentaPorProducto, error) {
	return nil, nil
}

func (r *stubReporteRepo) Calidad(context.Context) (*repository.ConteosCalidad, error) {
	return r.calidad, r.calidadErr
}

func TestRotacion(t *testing.T) {
	assert.Equal(t, 0.0, service.Rotacion(0, 0))
	assert.Equal(t, 0.0, service.Rotacion(0, 10))
	assert.Equal(t, 100.0, service.Rotacion(5, 0))
	assert.Equal(t, 33.33, service.Rotacion(5, 10))
	assert.Equal(t, 66.67, service.Rotacion(10, 5))
}

func TestTendenciaSemanal(t *testing.T) {
	hoy := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := []repository.MovimientoDiario{
		{Dia: hoy, Tipo: model.MovimientoSalida, Total: 5},
		{Dia: hoy, Tipo: model.MovimientoEntrada, Total: 20},
		{Dia: hoy.AddDate(0, 0, -6), Tipo: model.MovimientoSalida, Total: 1},
		// outside the window
		{Dia: hoy.AddDate(0, 0, -7), Tipo: model.MovimientoSalida, Total: 99},
	}

	out := service.TendenciaSemanal(rows, hoy)
	require.Len(t, out, 7)
	assert.Equal(t, "2026-03-04", out[0].Fecha)
	assert.Equal(t, int64(1), out[0].Salidas)
	assert.Equal(t, "2026-03-10", out[6].Fecha)
	assert.Equal(t, int64(20), out[6].Entradas)
	assert.Equal(t, int64(5), out[6].Salidas)
	for _, d := range out[1:6] {
		assert.Zero(t, d.Entradas)
		assert.Zero(t, d.Salidas)
	}
}

func TestMetricasCalidad(t *testing.T) {
	out := service.MetricasCalidad(&repository.ConteosCalidad{
		Productos:             3,
		ProductosConProveedor: 2,
		ProductosEnRango:      3,
		Clientes:              0,
		Ventas:                4,
		VentasConNotas:        1,
	})
	require.Len(t, out, 4)

	porClave := map[string]dto.MetricaCalidad{}
	for _, m := range out {
		porClave[m.Clave] = m
	}
	assert.Equal(t, 66.7, porClave["productos_con_proveedor"].Valor)
	assert.Equal(t, dto.EstadoMetricaAlerta, porClave["productos_con_proveedor"].Estado)
	assert.Equal(t, 100.0, porClave["productos_en_rango"].Valor)
	assert.Equal(t, dto.EstadoMetricaOK, porClave["productos_en_rango"].Estado)
	assert.Equal(t, 100.0, porClave["clientes_con_email"].Valor, "empty population counts as complete")
	assert.Equal(t, 25.0, porClave["ventas_con_notas"].Valor)
	assert.Equal(t, dto.EstadoMetricaOK, porClave["ventas_con_notas"].Estado)
}

func TestDashboard(t *testing.T) {
	productos := newStubProductoRepo()
	ctx := context.Background()
	lento := &model.Producto{SKU: "A", Nombre: "Adaptador", StockActual: 10, StockMinimo: 1}
	rapido := &model.Producto{SKU: "B", Nombre: "Batería", StockActual: 3, StockMinimo: 5}
	require.NoError(t, productos.Create(ctx, lento))
	require.NoError(t, productos.Create(ctx, rapido))

	hoy := time.Now().UTC()
	repo := &stubReporteRepo{
		diarios:    []repository.MovimientoDiario{{Dia: hoy, Tipo: model.MovimientoSalida, Total: 7}},
		salidas:    map[uuid.UUID]int64{rapido.ID: 9, lento.ID: 1},
		calidadErr: errBoom,
	}
	svc := service.NewReporteService(repo, productos, cache.NewNopStore(nil))

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Conteos["productos"])
	require.Len(t, d.Tendencia, 7)
	assert.Equal(t, int64(7), d.Tendencia[6].Salidas)

	require.Len(t, d.Rotacion, 2)
	assert.Equal(t, "B", d.Rotacion[0].SKU)
	assert.Equal(t, 75.0, d.Rotacion[0].Porcentaje)
	assert.Equal(t, 9.09, d.Rotacion[1].Porcentaje)

	require.Len(t, d.StockBajo, 1)
	assert.Equal(t, "Batería", d.StockBajo[0].Nombre)
	assert.NotNil(t, d.Calidad)
	assert.Empty(t, d.Calidad)
	assert.NotNil(t, d.TopVendidos)
}
