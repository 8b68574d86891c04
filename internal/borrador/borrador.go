// Package borrador models the sale draft a user assembles before registering
// a sale: customer selection, the product picker, line editing and the
// submit-time stock validation.
//
// A Borrador is a plain value; persistence lives in the service layer.
package borrador

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estado is derived from the draft contents, never stored.
type Estado string

const (
	EstadoVacio               Estado = "vacio"
	EstadoClienteSeleccionado Estado = "cliente_seleccionado"
	EstadoEditando            Estado = "editando"
)

const prefijoFilaNueva = "new-"

var (
	ErrClienteRequerido     = errors.New("seleccione un cliente antes de agregar productos")
	ErrClienteInvalido      = errors.New("cliente inválido")
	ErrSelectorCerrado      = errors.New("el selector de productos no está abierto")
	ErrNadaPreparado        = errors.New("no hay ningún producto preparado")
	ErrLineaNoEncontrada    = errors.New("línea no encontrada")
	ErrProductoNoDisponible = errors.New("el producto no está disponible para esta venta")
)

// ProductoRef is the picker's view of a product, read fresh on every call.
type ProductoRef struct {
	ID             string          `json:"id"`
	Nombre         string          `json:"nombre"`
	SKU            string          `json:"sku"`
	Categoria      string          `json:"categoria"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	StockActual    int             `json:"stock_actual"`
}

// ClienteRef identifies the customer the sale is for.
type ClienteRef struct {
	ID     string
	Nombre string
}

// Linea is one row of the draft. An empty ProductoID marks a placeholder row
// that still has to be bound through the picker.
type Linea struct {
	ProductoID     string          `json:"producto_id"`
	ProductoNombre string          `json:"producto_nombre"`
	SKU            string          `json:"sku"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// Vacia reports whether the row is a placeholder.
func (l Linea) Vacia() bool { return l.ProductoID == "" }

// Selector is the product picker sub-dialog. Reemplaza holds the key of the
// row being rebound, empty when the picker appends.
type Selector struct {
	Abierto   bool   `json:"abierto"`
	Reemplaza string `json:"reemplaza,omitempty"`
	Preparada *Linea `json:"preparada,omitempty"`
}

// Item is the payload sent to the sale service for one line.
type Item struct {
	ProductoID     string
	Cantidad       int
	PrecioUnitario decimal.Decimal
}

type Borrador struct {
	ID            string    `json:"id"`
	UsuarioID     string    `json:"usuario_id"`
	ClienteID     string    `json:"cliente_id,omitempty"`
	ClienteNombre string    `json:"cliente_nombre,omitempty"`
	Lineas        []Linea   `json:"lineas"`
	Notas         string    `json:"notas,omitempty"`
	Selector      Selector  `json:"selector"`
	ActualizadoEn time.Time `json:"actualizado_en"`
}

// Nuevo returns an empty draft.
func Nuevo(id, usuarioID string) *Borrador {
	return &Borrador{ID: id, UsuarioID: usuarioID, Lineas: []Linea{}}
}

// Subtotal is cantidad × precio rounded to 2 decimals.
func Subtotal(cantidad int, precio decimal.Decimal) decimal.Decimal {
	return precio.Mul(decimal.NewFromInt(int64(cantidad))).Round(2)
}

func (b *Borrador) Estado() Estado {
	switch {
	case b.ClienteID == "":
		return EstadoVacio
	case len(b.Lineas) == 0:
		return EstadoClienteSeleccionado
	default:
		return EstadoEditando
	}
}

// Reset clears the draft back to the empty state, keeping its identity.
func (b *Borrador) Reset() {
	*b = Borrador{ID: b.ID, UsuarioID: b.UsuarioID, Lineas: []Linea{}}
}

func (b *Borrador) SeleccionarCliente(c ClienteRef) error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrClienteInvalido
	}
	b.ClienteID = c.ID
	b.ClienteNombre = c.Nombre
	return nil
}

// Clave returns the key used to address row i: the product id for bound rows,
// "new-<i>" for placeholders.
func (b *Borrador) Clave(i int) string {
	if b.Lineas[i].Vacia() {
		return prefijoFilaNueva + strconv.Itoa(i)
	}
	return b.Lineas[i].ProductoID
}

func (b *Borrador) indice(clave string) int {
	if strings.HasPrefix(clave, prefijoFilaNueva) {
		i, err := strconv.Atoi(strings.TrimPrefix(clave, prefijoFilaNueva))
		if err != nil || i < 0 || i >= len(b.Lineas) || !b.Lineas[i].Vacia() {
			return -1
		}
		return i
	}
	for i, l := range b.Lineas {
		if l.ProductoID == clave {
			return i
		}
	}
	return -1
}

// AgregarFilaVacia appends a placeholder row and returns its key.
func (b *Borrador) AgregarFilaVacia() (string, error) {
	if b.ClienteID == "" {
		return "", ErrClienteRequerido
	}
	b.Lineas = append(b.Lineas, Linea{Cantidad: 1})
	return b.Clave(len(b.Lineas) - 1), nil
}

// AbrirSelector opens the picker. A non-empty reemplaza rebinds that row
// instead of appending a new one.
func (b *Borrador) AbrirSelector(reemplaza string) error {
	if b.ClienteID == "" {
		return ErrClienteRequerido
	}
	if reemplaza != "" && b.indice(reemplaza) < 0 {
		return ErrLineaNoEncontrada
	}
	b.Selector = Selector{Abierto: true, Reemplaza: reemplaza}
	return nil
}

func (b *Borrador) CerrarSelector() { b.Selector = Selector{} }

// enUso is the set of product ids already in the draft, minus the row the
// picker is replacing.
func (b *Borrador) enUso() map[string]bool {
	usados := make(map[string]bool, len(b.Lineas))
	for _, l := range b.Lineas {
		if !l.Vacia() && l.ProductoID != b.Selector.Reemplaza {
			usados[l.ProductoID] = true
		}
	}
	return usados
}

// ProductosDisponibles lists what the picker may offer: products with stock
// that are not already in the draft, matching filtro on name, sku or category.
func (b *Borrador) ProductosDisponibles(catalogo []ProductoRef, filtro string) []ProductoRef {
	usados := b.enUso()
	f := strings.ToLower(strings.TrimSpace(filtro))
	out := make([]ProductoRef, 0, len(catalogo))
	for _, p := range catalogo {
		if usados[p.ID] || p.StockActual <= 0 {
			continue
		}
		if f != "" &&
			!strings.Contains(strings.ToLower(p.Nombre), f) &&
			!strings.Contains(strings.ToLower(p.SKU), f) &&
			!strings.Contains(strings.ToLower(p.Categoria), f) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Preparar stages a quantity-1 line priced from the product as given.
func (b *Borrador) Preparar(p ProductoRef) error {
	if !b.Selector.Abierto {
		return ErrSelectorCerrado
	}
	if p.ID == "" || b.enUso()[p.ID] {
		return ErrProductoNoDisponible
	}
	b.Selector.Preparada = &Linea{
		ProductoID:     p.ID,
		ProductoNombre: p.Nombre,
		SKU:            p.SKU,
		Cantidad:       1,
		PrecioUnitario: p.PrecioUnitario,
		Subtotal:       Subtotal(1, p.PrecioUnitario),
	}
	return nil
}

func (b *Borrador) comprometer() error {
	if !b.Selector.Abierto {
		return ErrSelectorCerrado
	}
	if b.Selector.Preparada == nil {
		return ErrNadaPreparado
	}
	linea := *b.Selector.Preparada
	if b.Selector.Reemplaza != "" {
		i := b.indice(b.Selector.Reemplaza)
		if i < 0 {
			return ErrLineaNoEncontrada
		}
		b.Lineas[i] = linea
	} else {
		b.Lineas = append(b.Lineas, linea)
	}
	return nil
}

// AgregarATabla commits the staged line and leaves the picker open for the
// next product.
func (b *Borrador) AgregarATabla() error {
	if err := b.comprometer(); err != nil {
		return err
	}
	b.Selector = Selector{Abierto: true}
	return nil
}

// Confirmar commits the staged line and closes the picker.
func (b *Borrador) Confirmar() error {
	if err := b.comprometer(); err != nil {
		return err
	}
	b.CerrarSelector()
	return nil
}

// CambiarCantidad sets the quantity of a row, clamped to a minimum of 1.
func (b *Borrador) CambiarCantidad(clave string, cantidad int) error {
	i := b.indice(clave)
	if i < 0 {
		return ErrLineaNoEncontrada
	}
	if cantidad < 1 {
		cantidad = 1
	}
	b.Lineas[i].Cantidad = cantidad
	b.Lineas[i].Subtotal = Subtotal(cantidad, b.Lineas[i].PrecioUnitario)
	return nil
}

// Quitar removes a row. Placeholder keys splice by index; product keys drop
// every row bound to that product.
func (b *Borrador) Quitar(clave string) error {
	if strings.HasPrefix(clave, prefijoFilaNueva) {
		i := b.indice(clave)
		if i < 0 {
			return ErrLineaNoEncontrada
		}
		b.Lineas = append(b.Lineas[:i], b.Lineas[i+1:]...)
	} else {
		filtradas := b.Lineas[:0]
		for _, l := range b.Lineas {
			if l.ProductoID != clave {
				filtradas = append(filtradas, l)
			}
		}
		if len(filtradas) == len(b.Lineas) {
			return ErrLineaNoEncontrada
		}
		b.Lineas = filtradas
	}
	// placeholder keys shift after a removal
	if b.Selector.Reemplaza != "" {
		b.CerrarSelector()
	}
	return nil
}

func (b *Borrador) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lineas {
		total = total.Add(l.Subtotal)
	}
	return total
}

// Validar checks the draft against the last-known stock per product id.
// An empty map means the draft can be submitted.
func (b *Borrador) Validar(stock map[string]int) map[string]string {
	return ValidarLineas(b.ClienteID, b.Lineas, stock)
}

func (b *Borrador) PuedeConfirmar(stock map[string]int) bool {
	return len(b.Validar(stock)) == 0
}

// Items returns the submit payload, skipping placeholder rows.
func (b *Borrador) Items() []Item {
	items := make([]Item, 0, len(b.Lineas))
	for _, l := range b.Lineas {
		if l.Vacia() {
			continue
		}
		items = append(items, Item{ProductoID: l.ProductoID, Cantidad: l.Cantidad, PrecioUnitario: l.PrecioUnitario})
	}
	return items
}

// ValidarLineas holds the submit rules shared by drafts and direct sale
// requests: a customer, at least one line, every line bound to a product with
// 0 < cantidad <= stock.
func ValidarLineas(clienteID string, lineas []Linea, stock map[string]int) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(clienteID) == "" {
		errs["cliente_id"] = "Seleccione un cliente"
	}
	if len(lineas) == 0 {
		errs["lineas"] = "Agregue al menos un producto"
	}
	for i, l := range lineas {
		campo := fmt.Sprintf("lineas[%d]", i)
		if l.Vacia() {
			errs[campo+".producto_id"] = "Seleccione un producto"
			continue
		}
		disponible, ok := stock[l.ProductoID]
		switch {
		case !ok:
			errs[campo+".producto_id"] = "Producto no encontrado"
		case l.Cantidad <= 0:
			errs[campo+".cantidad"] = "La cantidad debe ser mayor a 0"
		case l.Cantidad > disponible:
			errs[campo+".cantidad"] = fmt.Sprintf("Stock insuficiente (disponible: %d)", disponible)
		}
	}
	return errs
}
