package normalizacion

import "fmt"

// Expandir inserts one synthetic row per sale line right after each parent
// movement that carries sale details. Child IDs are "<parent>-detail-<n>".
func Expandir(movs []Movimiento) []Movimiento {
	out := make([]Movimiento, 0, len(movs))
	for _, m := range movs {
		if m.EsDetalle {
			continue
		}
		out = append(out, m)
		for n, d := range m.Detalles {
			out = append(out, Movimiento{
				ID:             fmt.Sprintf("%s-detail-%d", m.ID, n),
				ProductoID:     d.ProductoID,
				ProductoNombre: d.ProductoNombre,
				SKU:            d.SKU,
				Tipo:           m.Tipo,
				Cantidad:       d.Cantidad,
				Motivo:         m.Motivo,
				RealizadoPorID: m.RealizadoPorID,
				RealizadoPor:   m.RealizadoPor,
				Fecha:          m.Fecha,
				Notas:          m.Notas,
				VentaID:        m.VentaID,
				Cliente:        m.Cliente,
				EsDetalle:      true,
				ParentID:       m.ID,
			})
		}
	}
	return out
}

// Fila is one display row of the grouped movements view.
type Fila struct {
	Movimiento
	Productos     []string `json:"productos"`
	SKUs          []string `json:"skus"`
	Cantidades    []int    `json:"cantidades"`
	CantidadTotal int      `json:"cantidad_total"`
}

// Agrupar folds an expanded list back into one row per parent movement,
// stacking the names, SKUs and quantities of its detail rows.
func Agrupar(expandidos []Movimiento) []Fila {
	var filas []Fila
	idx := map[string]int{}
	for _, m := range expandidos {
		if m.EsDetalle {
			i, ok := idx[m.ParentID]
			if !ok {
				continue
			}
			f := &filas[i]
			f.Productos = append(f.Productos, m.ProductoNombre)
			f.SKUs = append(f.SKUs, m.SKU)
			f.Cantidades = append(f.Cantidades, m.Cantidad)
			f.CantidadTotal += m.Cantidad
			continue
		}
		idx[m.ID] = len(filas)
		filas = append(filas, Fila{Movimiento: m})
	}
	for i := range filas {
		f := &filas[i]
		if len(f.Productos) == 0 {
			f.Productos = []string{f.ProductoNombre}
			f.SKUs = []string{f.SKU}
			f.Cantidades = []int{f.Cantidad}
			f.CantidadTotal = f.Cantidad
		}
	}
	return filas
}
