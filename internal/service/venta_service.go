package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/borrador"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	// Comprobante renders the PDF receipt and returns its path.
	Comprobante(ctx context.Context, id uuid.UUID) (string, error)
}

// VentaDeps groups the collaborators of the sale service. Queue and Eventos
// may be nil.
type VentaDeps struct {
	Ventas      repository.VentaRepository
	Productos   repository.ProductoRepository
	Clientes    repository.ClienteRepository
	Movimientos repository.MovimientoRepository
	Usuarios    repository.UsuarioRepository
	Auditoria   AuditoriaService
	Cache       cache.Store
	Queue       Encolador
	Eventos     Publicador
	Config      *config.Config
}

type ventaService struct {
	VentaDeps
	comprobante func(v *model.Venta, negocio, storagePath string) (string, error)
	now         func() time.Time
}

func NewVentaService(deps VentaDeps) VentaService {
	return &ventaService{VentaDeps: deps, comprobante: infra.GenerarComprobantePDF, now: time.Now}
}

// EventoVentaRegistrada is published to the venta.registrada queue.
type EventoVentaRegistrada struct {
	VentaID   string          `json:"venta_id"`
	ClienteID string          `json:"cliente_id"`
	Total     decimal.Decimal `json:"total"`
	Lineas    int             `json:"lineas"`
	Fecha     time.Time       `json:"fecha"`
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// One transaction:
//   1. Insert header + detail rows (name/sku snapshot) with the computed total
//   2. Guarded stock decrement per line (stock_actual >= cantidad)
//   3. Insert one salida movement per line tied to the sale
// followed, after commit, by cache invalidation, low-stock warnings, events
// and the audit entry. None of the post-commit steps can fail the sale.

func (s *ventaService) RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	lineas := make([]borrador.Linea, len(req.Items))
	var ids []uuid.UUID
	for i, it := range req.Items {
		pid := strings.ToLower(strings.TrimSpace(it.ProductoID))
		lineas[i] = borrador.Linea{ProductoID: pid, Cantidad: it.Cantidad}
		if id, err := uuid.Parse(pid); err == nil {
			ids = append(ids, id)
		}
	}

	productos, err := s.Productos.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	porID := make(map[string]model.Producto, len(productos))
	stock := make(map[string]int, len(productos))
	for _, p := range productos {
		porID[p.ID.String()] = p
		stock[p.ID.String()] = p.StockActual
	}

	fields := renombrarCampos(borrador.ValidarLineas(req.ClienteID, lineas, stock))
	cliente := s.buscarCliente(ctx, req.ClienteID, fields)
	for i, it := range req.Items {
		if it.PrecioUnitario != nil && it.PrecioUnitario.IsNegative() {
			fields[fmt.Sprintf("items[%d].precio_unitario", i)] = "El precio no puede ser negativo"
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields, Causa: causaValidacion(fields)}
	}

	venta := &model.Venta{
		ID:            uuid.New(),
		ClienteID:     cliente.ID,
		ClienteNombre: cliente.Nombre,
		Fecha:         s.now().UTC(),
		UsuarioID:     actor.idPtr(),
		RealizadoPor:  actor.Nombre(),
		Notas:         textoOpcional(req.Notas),
	}
	total := decimal.Zero
	for i, it := range req.Items {
		p := porID[lineas[i].ProductoID]
		precio := p.PrecioUnitario
		if it.PrecioUnitario != nil {
			precio = it.PrecioUnitario.Round(2)
		}
		sub := borrador.Subtotal(it.Cantidad, precio)
		total = total.Add(sub)
		venta.Detalles = append(venta.Detalles, model.DetalleVenta{
			VentaID:        venta.ID,
			ProductoID:     p.ID,
			ProductoNombre: p.Nombre,
			SKU:            p.SKU,
			Cantidad:       it.Cantidad,
			PrecioUnitario: precio,
			Subtotal:       sub,
		})
	}
	venta.Total = total

	err = runTx(ctx, s.Ventas.DB(), func(tx *gorm.DB) error {
		if err := s.Ventas.CreateTx(tx, venta); err != nil {
			return err
		}
		for i, d := range venta.Detalles {
			ok, err := s.Productos.DescontarStockTx(tx, d.ProductoID, d.Cantidad)
			if err != nil {
				return err
			}
			if !ok {
				return &ValidationError{
					Fields: map[string]string{fmt.Sprintf("items[%d].cantidad", i): "Stock insuficiente"},
					Causa:  ErrStockInsuficiente,
				}
			}
			pid := d.ProductoID
			mov := &model.MovimientoInventario{
				ProductoID:   &pid,
				Tipo:         model.MovimientoSalida,
				Cantidad:     d.Cantidad,
				Motivo:       "Venta",
				UsuarioID:    venta.UsuarioID,
				RealizadoPor: venta.RealizadoPor,
				Fecha:        venta.Fecha,
				VentaID:      &venta.ID,
			}
			if err := s.Movimientos.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidar(ctx, cache.ColProductos, cache.ColVentas, cache.ColMovimientos, cache.ColClientes, cache.ColDashboard)

	resp := toVentaResponse(venta, venta.RealizadoPor)
	resp.Advertencias = s.advertencias(ctx, venta.ID, ids)
	s.publicar(ctx, infra.ColaVentaRegistrada, EventoVentaRegistrada{
		VentaID:   venta.ID.String(),
		ClienteID: venta.ClienteID.String(),
		Total:     venta.Total,
		Lineas:    len(venta.Detalles),
		Fecha:     venta.Fecha,
	})
	auditar(ctx, s.Auditoria, actor, model.AccionVenta, "ventas", venta.ID.String(),
		fmt.Sprintf("Venta a %s por %s (%d línea(s))", venta.ClienteNombre, venta.Total.StringFixed(2), len(venta.Detalles)))
	return &resp, nil
}

// buscarCliente resolves the customer or records a field error.
func (s *ventaService) buscarCliente(ctx context.Context, raw string, fields map[string]string) *model.Cliente {
	if _, ok := fields["cliente_id"]; ok {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		fields["cliente_id"] = "Cliente inválido"
		return nil
	}
	c, err := s.Clientes.FindByID(ctx, id)
	if err != nil {
		fields["cliente_id"] = "Cliente no encontrado"
		return nil
	}
	return c
}

// advertencias re-reads the sold products and reports those left at or below
// their minimum. The same list is queued for the mail alert and published as
// a stock.bajo event.
func (s *ventaService) advertencias(ctx context.Context, ventaID uuid.UUID, ids []uuid.UUID) []dto.AdvertenciaStock {
	productos, err := s.Productos.FindByIDs(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Str("venta_id", ventaID.String()).Msg("ventas: could not re-read products for stock warnings")
		return nil
	}
	var out []dto.AdvertenciaStock
	var alerta []worker.ProductoAlerta
	for _, p := range productos {
		if !p.EnStockBajo() {
			continue
		}
		out = append(out, dto.AdvertenciaStock{
			ProductoID:     p.ID.String(),
			ProductoNombre: p.Nombre,
			SKU:            p.SKU,
			StockActual:    p.StockActual,
			StockMinimo:    p.StockMinimo,
			Mensaje:        fmt.Sprintf("%s quedó con %d unidad(es), mínimo %d", p.Nombre, p.StockActual, p.StockMinimo),
		})
		alerta = append(alerta, worker.ProductoAlerta{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			SKU:         p.SKU,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
		})
	}
	if len(alerta) == 0 {
		return out
	}
	payload := worker.AlertaStockPayload{VentaID: ventaID.String(), Productos: alerta}
	if s.Queue != nil {
		if err := s.Queue.EnqueueAlertaStock(ctx, payload); err != nil {
			log.Warn().Err(err).Str("venta_id", ventaID.String()).Msg("ventas: low-stock alert not queued")
		}
	}
	s.publicar(ctx, infra.ColaStockBajo, payload)
	return out
}

func (s *ventaService) publicar(ctx context.Context, cola string, evento any) {
	if s.Eventos == nil {
		return
	}
	if err := s.Eventos.Publicar(ctx, cola, evento); err != nil {
		log.Warn().Err(err).Str("cola", cola).Msg("ventas: event not published")
	}
}

// ── Lectura ──────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.Ventas.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Venta no encontrada")
	}
	resp := toVentaResponse(v, RealizadoPor(v.UsuarioID, v.RealizadoPor, s.usuarios(ctx)))
	return &resp, nil
}

func (s *ventaService) Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	key := fmt.Sprintf("lista:%s:%s:%s:%d:%d", filter.ClienteID, filter.Desde, filter.Hasta, filter.Page, filter.Limit)
	return cache.Leer(ctx, s.Cache, cache.ColVentas, key, func() (*dto.VentaListResponse, error) {
		rows, total, err := s.Ventas.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		usuarios := s.usuarios(ctx)
		data := make([]dto.VentaResponse, len(rows))
		for i := range rows {
			data[i] = toVentaResponse(&rows[i], RealizadoPor(rows[i].UsuarioID, rows[i].RealizadoPor, usuarios))
		}
		return &dto.VentaListResponse{
			Data:       data,
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPaginas(total, filter.Limit),
		}, nil
	})
}

func (s *ventaService) Comprobante(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := s.Ventas.FindByID(ctx, id)
	if err != nil {
		return "", noEncontrado(err, "Venta no encontrada")
	}
	return s.comprobante(v, s.Config.BusinessName, s.Config.PDFStoragePath)
}

func (s *ventaService) usuarios(ctx context.Context) map[uuid.UUID]model.Usuario {
	return mapaUsuarios(ctx, s.Usuarios)
}

// mapaUsuarios is best-effort; an empty map falls back to the stored names.
func mapaUsuarios(ctx context.Context, repo repository.UsuarioRepository) map[uuid.UUID]model.Usuario {
	out := map[uuid.UUID]model.Usuario{}
	if repo == nil {
		return out
	}
	users, err := repo.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("ventas: users unavailable for realizado_por")
		return out
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out
}

// RealizadoPor resolves the display name of who registered a record:
// full name, then username of the current user row, then the stored name,
// then "Sistema".
func RealizadoPor(usuarioID *uuid.UUID, almacenado string, usuarios map[uuid.UUID]model.Usuario) string {
	if usuarioID != nil {
		if u, ok := usuarios[*usuarioID]; ok {
			if n := strings.TrimSpace(u.NombreCompleto); n != "" {
				return n
			}
			if u.Username != "" {
				return u.Username
			}
		}
	}
	if n := strings.TrimSpace(almacenado); n != "" {
		return n
	}
	return "Sistema"
}

// renombrarCampos maps the draft field paths onto the request field names.
func renombrarCampos(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if strings.HasPrefix(k, "lineas") {
			k = "items" + strings.TrimPrefix(k, "lineas")
		}
		out[k] = v
	}
	return out
}

func causaValidacion(fields map[string]string) error {
	for _, msg := range fields {
		if strings.HasPrefix(msg, "Stock insuficiente") {
			return ErrStockInsuficiente
		}
	}
	return nil
}

func textoOpcional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func toVentaResponse(v *model.Venta, realizadoPor string) dto.VentaResponse {
	resp := dto.VentaResponse{
		ID:            v.ID.String(),
		ClienteID:     v.ClienteID.String(),
		ClienteNombre: v.ClienteNombre,
		Total:         v.Total,
		Fecha:         v.Fecha,
		RealizadoPor:  realizadoPor,
		Notas:         v.Notas,
		Detalles:      make([]dto.DetalleVentaResponse, len(v.Detalles)),
	}
	for i, d := range v.Detalles {
		resp.Detalles[i] = dto.DetalleVentaResponse{
			ProductoID:     d.ProductoID.String(),
			ProductoNombre: d.ProductoNombre,
			SKU:            d.SKU,
			Cantidad:       d.Cantidad,
			PrecioUnitario: d.PrecioUnitario,
			Subtotal:       d.Subtotal,
		}
	}
	return resp
}
