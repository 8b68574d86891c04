// Package normalizacion turns heterogeneous inventory-movement rows into one
// consistent shape before they reach the API. Rows come either from the
// flattened SQL join used by the repository or from nested payloads stored
// by legacy imports.
package normalizacion

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cliente is the customer attached to a sale-originated movement.
type Cliente struct {
	ID        string `json:"id,omitempty"`
	Nombre    string `json:"nombre"`
	Contacto  string `json:"contacto,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
	Email     string `json:"email,omitempty"`
	Direccion string `json:"direccion,omitempty"`
}

func (c *Cliente) incompleto() bool {
	return c.Contacto == "" || c.Telefono == "" || c.Email == "" || c.Direccion == ""
}

func (c *Cliente) completarDesde(o Cliente) {
	if c.ID == "" {
		c.ID = o.ID
	}
	if c.Nombre == "" {
		c.Nombre = o.Nombre
	}
	if c.Contacto == "" {
		c.Contacto = o.Contacto
	}
	if c.Telefono == "" {
		c.Telefono = o.Telefono
	}
	if c.Email == "" {
		c.Email = o.Email
	}
	if c.Direccion == "" {
		c.Direccion = o.Direccion
	}
}

// Detalle is one product line of the sale behind a movement.
type Detalle struct {
	ProductoID     string           `json:"producto_id"`
	ProductoNombre string           `json:"producto_nombre"`
	SKU            string           `json:"sku"`
	Cantidad       int              `json:"cantidad"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario,omitempty"`
}

// Movimiento is the normalized record served by the movements endpoints.
type Movimiento struct {
	ID             string           `json:"id"`
	ProductoID     string           `json:"producto_id"`
	ProductoNombre string           `json:"producto_nombre"`
	SKU            string           `json:"sku"`
	Categoria      string           `json:"categoria,omitempty"`
	Tipo           string           `json:"tipo"`
	Cantidad       int              `json:"cantidad"`
	Motivo         string           `json:"motivo"`
	RealizadoPorID string           `json:"realizado_por_id,omitempty"`
	RealizadoPor   string           `json:"realizado_por"`
	Fecha          time.Time        `json:"fecha"`
	Notas          string           `json:"notas"`
	VentaID        string           `json:"venta_id,omitempty"`
	PrecioProducto *decimal.Decimal `json:"precio_producto,omitempty"`
	StockActual    *int             `json:"stock_actual,omitempty"`
	StockMinimo    *int             `json:"stock_minimo,omitempty"`
	StockMaximo    *int             `json:"stock_maximo,omitempty"`
	Cliente        *Cliente         `json:"cliente,omitempty"`
	Detalles       []Detalle        `json:"detalles,omitempty"`
	EsDetalle      bool             `json:"_isDetail,omitempty"`
	ParentID       string           `json:"parent_id,omitempty"`

	// Forma and Crudo describe the source row; callers drop them outside
	// debug listings.
	Forma string `json:"forma,omitempty"`
	Crudo Crudo  `json:"crudo,omitempty"`

	// ventaEnLinea marks rows whose sale was already joined by the query;
	// they carry one product each and skip the sale lookup.
	ventaEnLinea bool
}

// Forma identifies which of the two known row layouts a record uses.
type Forma int

const (
	FormaPlana Forma = iota
	FormaAnidada
)

func (f Forma) String() string {
	if f == FormaAnidada {
		return "anidada"
	}
	return "plana"
}

var clavesProducto = []string{"productos", "producto", "product"}

// Detectar inspects the row and decides its layout: a nested product object
// means the embedded-relations export, anything else is a flat join row.
func Detectar(raw Crudo) Forma {
	if objeto(raw, clavesProducto...) != nil {
		return FormaAnidada
	}
	return FormaPlana
}

type parser func(raw Crudo) Movimiento

var parsers = map[Forma]parser{
	FormaPlana:   parsePlana,
	FormaAnidada: parseAnidada,
}

// Normalizar maps one raw row to a Movimiento. Unknown fields are ignored
// and missing ones fall back to empty values; it never fails.
func Normalizar(raw Crudo) Movimiento {
	forma := Detectar(raw)
	m := parsers[forma](raw)
	completarComunes(&m, raw)
	m.Forma = forma.String()
	return m
}

// NormalizarTodos normalizes every row, keeping input order.
func NormalizarTodos(rows []Crudo) []Movimiento {
	out := make([]Movimiento, 0, len(rows))
	for _, r := range rows {
		out = append(out, Normalizar(r))
	}
	return out
}

func parsePlana(raw Crudo) Movimiento {
	m := Movimiento{
		ProductoID:     texto(primero(raw, "producto_id", "productId", "product_id")),
		ProductoNombre: texto(primero(raw, "producto_nombre", "nombre_producto", "productName", "nombre")),
		SKU:            texto(primero(raw, "producto_sku", "sku", "codigo")),
		Categoria:      texto(primero(raw, "categoria_nombre", "categoria")),
		RealizadoPorID: texto(primero(raw, "usuario_id", "realizado_por_id", "performed_by")),
		RealizadoPor:   texto(primero(raw, "usuario_nombre_completo", "usuario_nombre", "usuario_username", "realizado_por", "performedByName")),
		PrecioProducto: decimalPtr(primero(raw, "producto_precio", "precio_producto", "precio_unitario")),
		StockActual:    enteroPtr(primero(raw, "stock_actual")),
		StockMinimo:    enteroPtr(primero(raw, "stock_minimo")),
		StockMaximo:    enteroPtr(primero(raw, "stock_maximo")),
	}
	if c := objeto(raw, "cliente", "clientes"); c != nil {
		m.Cliente = clienteDesde(c)
	} else if nombre := texto(primero(raw, "cliente_nombre")); nombre != "" {
		m.Cliente = &Cliente{
			ID:        texto(primero(raw, "cliente_id")),
			Nombre:    nombre,
			Contacto:  texto(primero(raw, "cliente_contacto")),
			Telefono:  texto(primero(raw, "cliente_telefono")),
			Email:     texto(primero(raw, "cliente_email")),
			Direccion: texto(primero(raw, "cliente_direccion")),
		}
	}
	m.Detalles = parseDetalles(lista(raw, "detalles_venta", "detalles"))
	return m
}

func parseAnidada(raw Crudo) Movimiento {
	p := objeto(raw, clavesProducto...)
	m := Movimiento{
		ProductoID:     texto(primero(p, "id")),
		ProductoNombre: texto(primero(p, "nombre", "name")),
		SKU:            texto(primero(p, "sku", "codigo")),
		PrecioProducto: decimalPtr(primero(p, "precio_unitario", "precio", "price")),
		StockActual:    enteroPtr(primero(p, "stock_actual", "stock")),
		StockMinimo:    enteroPtr(primero(p, "stock_minimo")),
		StockMaximo:    enteroPtr(primero(p, "stock_maximo")),
	}
	if cat := objeto(p, "categorias", "categoria"); cat != nil {
		m.Categoria = texto(primero(cat, "nombre", "name"))
	} else {
		m.Categoria = texto(primero(p, "categoria", "categoria_nombre"))
	}
	if m.ProductoID == "" {
		m.ProductoID = texto(primero(raw, "producto_id", "product_id"))
	}
	if m.ProductoNombre == "" {
		m.ProductoNombre = texto(primero(raw, "producto_nombre", "nombre"))
	}

	if u := objeto(raw, "usuarios", "usuario", "user"); u != nil {
		m.RealizadoPorID = texto(primero(u, "id"))
		m.RealizadoPor = texto(primero(u, "nombre_completo", "nombre", "username"))
	}
	if m.RealizadoPor == "" {
		m.RealizadoPor = texto(primero(raw, "realizado_por", "performedByName"))
	}
	if m.RealizadoPorID == "" {
		m.RealizadoPorID = texto(primero(raw, "usuario_id", "performed_by"))
	}

	venta := objeto(raw, "ventas", "venta", "sale")
	if venta != nil {
		m.VentaID = texto(primero(venta, "id"))
		m.Detalles = parseDetalles(lista(venta, "detalles_venta", "detalles", "items"))
	}
	if len(m.Detalles) == 0 {
		m.Detalles = parseDetalles(lista(raw, "detalles_venta", "detalles"))
	}
	c := objeto(venta, "clientes", "cliente")
	if c == nil {
		c = objeto(raw, "clientes", "cliente", "customer")
	}
	if c != nil {
		m.Cliente = clienteDesde(c)
	} else if nombre := texto(primero(venta, "cliente_nombre")); nombre != "" {
		m.Cliente = &Cliente{ID: texto(primero(venta, "cliente_id")), Nombre: nombre}
	}
	return m
}

func clienteDesde(c Crudo) *Cliente {
	return &Cliente{
		ID:        texto(primero(c, "id")),
		Nombre:    texto(primero(c, "nombre", "name")),
		Contacto:  texto(primero(c, "contacto")),
		Telefono:  texto(primero(c, "telefono", "phone")),
		Email:     texto(primero(c, "email")),
		Direccion: texto(primero(c, "direccion", "address")),
	}
}

func parseDetalles(rows []Crudo) []Detalle {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Detalle, 0, len(rows))
	for _, d := range rows {
		det := Detalle{
			ProductoID:     texto(primero(d, "producto_id")),
			ProductoNombre: texto(primero(d, "producto_nombre", "nombre")),
			SKU:            texto(primero(d, "sku", "producto_sku")),
			PrecioUnitario: decimalPtr(primero(d, "precio_unitario", "precio")),
		}
		det.Cantidad, _ = entero(primero(d, "cantidad", "quantity"))
		if p := objeto(d, clavesProducto...); p != nil {
			if det.ProductoID == "" {
				det.ProductoID = texto(primero(p, "id"))
			}
			if det.ProductoNombre == "" {
				det.ProductoNombre = texto(primero(p, "nombre", "name"))
			}
			if det.SKU == "" {
				det.SKU = texto(primero(p, "sku", "codigo"))
			}
		}
		out = append(out, det)
	}
	return out
}

// completarComunes fills the fields whose keys do not depend on layout.
func completarComunes(m *Movimiento, raw Crudo) {
	m.ID = texto(primero(raw, "id"))
	m.Tipo = strings.ToLower(texto(primero(raw, "tipo", "type")))
	m.Cantidad, _ = entero(primero(raw, "cantidad", "quantity"))
	m.Motivo = texto(primero(raw, "motivo", "reason"))
	m.Fecha = fecha(primero(raw, "fecha", "created_at", "date"))

	notas := []string{
		texto(primero(raw, "notas")),
		texto(primero(raw, "notes")),
		texto(primero(raw, "observaciones")),
	}
	if m.VentaID == "" {
		m.VentaID = texto(primero(raw, "venta_id", "sale_id"))
	}
	if m.VentaID == "" {
		for _, n := range notas {
			if id := VentaIDEn(n); id != "" {
				m.VentaID = id
				break
			}
		}
	}
	m.Notas = ElegirNota(notas...)
	if v, ok := raw["venta_notas"]; ok {
		m.ventaEnLinea = true
		if m.Notas == "" {
			m.Notas = ElegirNota(texto(v))
		}
	}
	m.EsDetalle, _ = primero(raw, "_isDetail").(bool)
	m.ParentID = texto(primero(raw, "parent_id"))

	if m.RealizadoPor == "" {
		m.RealizadoPor = "Sistema"
	}
	m.Crudo = raw
}
