package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

const (
	diasTendencia = 7
	diasRotacion  = 30
	topVendidos   = 5
)

type ReporteService interface {
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	Conteos(ctx context.Context) (map[string]int64, error)
}

type reporteService struct {
	repo      repository.ReporteRepository
	productos repository.ProductoRepository
	cache     cache.Store
	now       func() time.Time
}

func NewReporteService(repo repository.ReporteRepository, productos repository.ProductoRepository, store cache.Store) ReporteService {
	return &reporteService{repo: repo, productos: productos, cache: store, now: time.Now}
}

func (s *reporteService) Conteos(ctx context.Context) (map[string]int64, error) {
	return s.repo.Conteos(ctx)
}

func (s *reporteService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	return cache.Leer(ctx, s.cache, cache.ColDashboard, "resumen", func() (*dto.DashboardResponse, error) {
		return s.calcular(ctx)
	})
}

func (s *reporteService) calcular(ctx context.Context) (*dto.DashboardResponse, error) {
	now := s.now().UTC()
	hoy := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	conteos, err := s.repo.Conteos(ctx)
	if err != nil {
		return nil, err
	}
	categorias, err := s.repo.Categorias(ctx)
	if err != nil {
		return nil, err
	}
	diarios, err := s.repo.MovimientosPorDia(ctx, hoy.AddDate(0, 0, -(diasTendencia-1)))
	if err != nil {
		return nil, err
	}
	salidas, err := s.repo.SalidasPorProducto(ctx, now.AddDate(0, 0, -diasRotacion))
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopVendidos(ctx, topVendidos)
	if err != nil {
		return nil, err
	}
	productos, err := s.productos.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{
		Conteos:     conteos,
		Categorias:  make([]dto.CategoriaResumen, len(categorias)),
		Tendencia:   TendenciaSemanal(diarios, hoy),
		Rotacion:    make([]dto.RotacionProducto, 0, len(productos)),
		TopVendidos: make([]dto.ProductoVendido, len(top)),
		StockBajo:   []dto.ProductoResponse{},
		GeneradoEn:  now,
	}
	for i, c := range categorias {
		resp.Categorias[i] = dto.CategoriaResumen{
			CategoriaID: uuidPtrString(c.CategoriaID),
			Nombre:      c.Nombre,
			Productos:   c.Productos,
			Unidades:    c.Unidades,
		}
	}
	for i := range productos {
		p := &productos[i]
		sal := salidas[p.ID]
		resp.Rotacion = append(resp.Rotacion, dto.RotacionProducto{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			SKU:         p.SKU,
			Salidas30d:  sal,
			StockActual: p.StockActual,
			Porcentaje:  Rotacion(sal, p.StockActual),
		})
		if p.EnStockBajo() {
			resp.StockBajo = append(resp.StockBajo, ToProductoResponse(p))
		}
	}
	sort.SliceStable(resp.Rotacion, func(i, j int) bool {
		return resp.Rotacion[i].Porcentaje > resp.Rotacion[j].Porcentaje
	})
	for i, t := range top {
		resp.TopVendidos[i] = dto.ProductoVendido{
			ProductoID: t.ProductoID.String(),
			Nombre:     t.Nombre,
			SKU:        t.SKU,
			Unidades:   t.Unidades,
			Ingresos:   t.Ingresos,
		}
	}

	if c, err := s.repo.Calidad(ctx); err == nil {
		resp.Calidad = MetricasCalidad(c)
	} else {
		log.Warn().Err(err).Msg("reportes: quality metrics unavailable")
		resp.Calidad = []dto.MetricaCalidad{}
	}
	return resp, nil
}

// Rotacion is salidas / (salidas + stock) × 100 rounded to 2 decimals, 0 when
// both are 0.
func Rotacion(salidas int64, stock int) float64 {
	den := salidas + int64(stock)
	if den <= 0 {
		return 0
	}
	return redondear(float64(salidas)/float64(den)*100, 2)
}

// TendenciaSemanal returns one entry per day ending at hoy, with days that
// had no movements filled with zeros.
func TendenciaSemanal(rows []repository.MovimientoDiario, hoy time.Time) []dto.TendenciaDia {
	out := make([]dto.TendenciaDia, diasTendencia)
	idx := make(map[string]int, diasTendencia)
	for i := 0; i < diasTendencia; i++ {
		dia := hoy.AddDate(0, 0, i-(diasTendencia-1)).Format("2006-01-02")
		out[i] = dto.TendenciaDia{Fecha: dia}
		idx[dia] = i
	}
	for _, r := range rows {
		i, ok := idx[r.Dia.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		switch r.Tipo {
		case model.MovimientoEntrada:
			out[i].Entradas += r.Total
		case model.MovimientoSalida:
			out[i].Salidas += r.Total
		}
	}
	return out
}

// MetricasCalidad turns the raw counts into percentage indicators. An empty
// population counts as 100%.
func MetricasCalidad(c *repository.ConteosCalidad) []dto.MetricaCalidad {
	metricas := []struct {
		clave, nombre string
		num, den      int64
		objetivo      float64
	}{
		{"productos_con_proveedor", "Productos con proveedor asignado", c.ProductosConProveedor, c.Productos, 90},
		{"productos_en_rango", "Productos con stock entre mínimo y máximo", c.ProductosEnRango, c.Productos, 80},
		{"clientes_con_email", "Clientes con email", c.ClientesConEmail, c.Clientes, 70},
		{"ventas_con_notas", "Ventas con notas", c.VentasConNotas, c.Ventas, 25},
	}
	out := make([]dto.MetricaCalidad, len(metricas))
	for i, m := range metricas {
		valor := 100.0
		if m.den > 0 {
			valor = redondear(float64(m.num)/float64(m.den)*100, 1)
		}
		estado := dto.EstadoMetricaOK
		if valor < m.objetivo {
			estado = dto.EstadoMetricaAlerta
		}
		out[i] = dto.MetricaCalidad{Clave: m.clave, Nombre: m.nombre, Valor: valor, Objetivo: m.objetivo, Estado: estado}
	}
	return out
}

func redondear(v float64, decimales int) float64 {
	f := math.Pow(10, float64(decimales))
	return math.Round(v*f) / f
}
