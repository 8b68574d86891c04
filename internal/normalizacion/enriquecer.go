package normalizacion

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// VentaRef is the subset of a sale used to fill sale-originated movements.
type VentaRef struct {
	ID       string
	Notas    string
	Cliente  *Cliente
	Detalles []Detalle
}

// ProductoRef carries the current catalog values of a product.
type ProductoRef struct {
	ID             string
	Nombre         string
	SKU            string
	Categoria      string
	PrecioUnitario decimal.Decimal
	StockActual    int
	StockMinimo    int
	StockMaximo    int
}

// Fuentes are the lookups used by Enriquecer. Any of them may be nil.
// Each is called at most once per Enriquecer call and a failure only
// skips the step it feeds.
type Fuentes struct {
	Ventas    func(ctx context.Context, ids []string) ([]VentaRef, error)
	Clientes  func(ctx context.Context) ([]Cliente, error)
	Productos func(ctx context.Context, ids []string) ([]ProductoRef, error)
}

// Enriquecer completes normalized movements with sale lines, customer data
// and current product values. It works on a copy of the slice.
func Enriquecer(ctx context.Context, movs []Movimiento, f Fuentes) []Movimiento {
	out := make([]Movimiento, len(movs))
	copy(out, movs)

	enriquecerVentas(ctx, out, f.Ventas)
	enriquecerClientes(ctx, out, f.Clientes)
	enriquecerProductos(ctx, out, f.Productos)
	return out
}

func enriquecerVentas(ctx context.Context, movs []Movimiento, cargar func(context.Context, []string) ([]VentaRef, error)) {
	if cargar == nil {
		return
	}
	var ids []string
	seen := map[string]bool{}
	for _, m := range movs {
		if m.Tipo == "salida" && m.VentaID != "" && len(m.Detalles) == 0 && !m.ventaEnLinea && !seen[m.VentaID] {
			seen[m.VentaID] = true
			ids = append(ids, m.VentaID)
		}
	}
	if len(ids) == 0 {
		return
	}
	ventas, err := cargar(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Int("ventas", len(ids)).Msg("normalizacion: no se pudieron cargar ventas")
		return
	}
	porID := make(map[string]VentaRef, len(ventas))
	for _, v := range ventas {
		porID[strings.ToLower(v.ID)] = v
	}
	for i := range movs {
		m := &movs[i]
		if m.Tipo != "salida" || m.VentaID == "" || len(m.Detalles) > 0 || m.ventaEnLinea {
			continue
		}
		v, ok := porID[strings.ToLower(m.VentaID)]
		if !ok {
			continue
		}
		m.Detalles = append([]Detalle(nil), v.Detalles...)
		if m.Notas == "" {
			m.Notas = ElegirNota(v.Notas)
		}
		if v.Cliente != nil {
			if m.Cliente == nil {
				c := *v.Cliente
				m.Cliente = &c
			} else {
				c := *m.Cliente
				c.completarDesde(*v.Cliente)
				m.Cliente = &c
			}
		}
	}
}

func enriquecerClientes(ctx context.Context, movs []Movimiento, cargar func(context.Context) ([]Cliente, error)) {
	if cargar == nil {
		return
	}
	pendiente := false
	for _, m := range movs {
		if m.Cliente != nil && m.Cliente.incompleto() {
			pendiente = true
			break
		}
	}
	if !pendiente {
		return
	}
	clientes, err := cargar(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("normalizacion: no se pudieron cargar clientes")
		return
	}
	porID := make(map[string]Cliente, len(clientes))
	porNombre := make(map[string]Cliente, len(clientes))
	for _, c := range clientes {
		porID[strings.ToLower(c.ID)] = c
		porNombre[strings.ToLower(c.Nombre)] = c
	}
	for i := range movs {
		c := movs[i].Cliente
		if c == nil || !c.incompleto() {
			continue
		}
		// Copy before mutating; rows from one sale may share a pointer.
		cc := *c
		if o, ok := porID[strings.ToLower(cc.ID)]; ok && cc.ID != "" {
			cc.completarDesde(o)
		} else if o, ok := porNombre[strings.ToLower(cc.Nombre)]; ok && cc.Nombre != "" {
			cc.completarDesde(o)
		}
		movs[i].Cliente = &cc
	}
}

func enriquecerProductos(ctx context.Context, movs []Movimiento, cargar func(context.Context, []string) ([]ProductoRef, error)) {
	if cargar == nil {
		return
	}
	var ids []string
	seen := map[string]bool{}
	for _, m := range movs {
		if m.ProductoID != "" && !seen[m.ProductoID] {
			seen[m.ProductoID] = true
			ids = append(ids, m.ProductoID)
		}
	}
	if len(ids) == 0 {
		return
	}
	productos, err := cargar(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("normalizacion: no se pudieron cargar productos")
		return
	}
	porID := make(map[string]ProductoRef, len(productos))
	for _, p := range productos {
		porID[strings.ToLower(p.ID)] = p
	}
	for i := range movs {
		m := &movs[i]
		p, ok := porID[strings.ToLower(m.ProductoID)]
		if !ok {
			continue
		}
		if m.ProductoNombre == "" {
			m.ProductoNombre = p.Nombre
		}
		if m.SKU == "" {
			m.SKU = p.SKU
		}
		if m.Categoria == "" {
			m.Categoria = p.Categoria
		}
		precio := p.PrecioUnitario
		m.PrecioProducto = &precio
		actual, minimo, maximo := p.StockActual, p.StockMinimo, p.StockMaximo
		m.StockActual, m.StockMinimo, m.StockMaximo = &actual, &minimo, &maximo
	}
}
