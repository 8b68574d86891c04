package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/normalizacion"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

type MovimientoService interface {
	// RegistrarEntrada persists the movement and increments stock in one
	// transaction.
	RegistrarEntrada(ctx context.Context, actor Actor, req dto.EntradaRequest) (*normalizacion.Movimiento, error)
	Listar(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
	// Importar stores legacy rows with their original payload. Stock is not
	// touched.
	Importar(ctx context.Context, actor Actor, req dto.ImportarMovimientosRequest) (*dto.ImportarMovimientosResponse, error)
	Alertas(ctx context.Context) ([]dto.ProductoResponse, error)
}

type movimientoService struct {
	repo      repository.MovimientoRepository
	productos repository.ProductoRepository
	ventas    repository.VentaRepository
	clientes  repository.ClienteRepository
	auditoria AuditoriaService
	cache     cache.Store
	now       func() time.Time
}

func NewMovimientoService(
	repo repository.MovimientoRepository,
	productos repository.ProductoRepository,
	ventas repository.VentaRepository,
	clientes repository.ClienteRepository,
	auditoria AuditoriaService,
	store cache.Store,
) MovimientoService {
	return &movimientoService{
		repo:      repo,
		productos: productos,
		ventas:    ventas,
		clientes:  clientes,
		auditoria: auditoria,
		cache:     store,
		now:       time.Now,
	}
}

// ── Entradas ─────────────────────────────────────────────────────────────────

func (s *movimientoService) RegistrarEntrada(ctx context.Context, actor Actor, req dto.EntradaRequest) (*normalizacion.Movimiento, error) {
	pid, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, validacion(map[string]string{"producto_id": "Producto inválido"})
	}
	if req.Cantidad <= 0 {
		return nil, validacion(map[string]string{"cantidad": "La cantidad debe ser mayor a 0"})
	}
	p, err := s.productos.FindByID(ctx, pid)
	if err != nil {
		return nil, noEncontrado(err, "Producto no encontrado")
	}

	mov := &model.MovimientoInventario{
		ID:           uuid.New(),
		ProductoID:   &pid,
		Tipo:         model.MovimientoEntrada,
		Cantidad:     req.Cantidad,
		Motivo:       strings.TrimSpace(req.Motivo),
		UsuarioID:    actor.idPtr(),
		RealizadoPor: actor.Nombre(),
		Fecha:        s.now().UTC(),
		Notas:        textoOpcional(req.Notas),
	}
	err = runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, mov); err != nil {
			return err
		}
		return s.productos.IncrementarStockTx(tx, pid, req.Cantidad)
	})
	if err != nil {
		return nil, noEncontrado(err, "Producto no encontrado")
	}
	s.cache.Invalidar(ctx, cache.ColMovimientos, cache.ColProductos, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionMovimiento, "movimientos_inventario", mov.ID.String(),
		fmt.Sprintf("Entrada de %d unidad(es) de %s (%s): %s", req.Cantidad, p.Nombre, p.SKU, mov.Motivo))

	actual := p.StockActual + req.Cantidad
	out := &normalizacion.Movimiento{
		ID:             mov.ID.String(),
		ProductoID:     pid.String(),
		ProductoNombre: p.Nombre,
		SKU:            p.SKU,
		Tipo:           mov.Tipo,
		Cantidad:       mov.Cantidad,
		Motivo:         mov.Motivo,
		RealizadoPorID: actor.ID.String(),
		RealizadoPor:   mov.RealizadoPor,
		Fecha:          mov.Fecha,
		Notas:          normalizacion.ElegirNota(deref(mov.Notas)),
		StockActual:    &actual,
		StockMinimo:    &p.StockMinimo,
		StockMaximo:    &p.StockMaximo,
	}
	if p.Categoria != nil {
		out.Categoria = p.Categoria.Nombre
	}
	return out, nil
}

// ── Listado ──────────────────────────────────────────────────────────────────
// raw rows → shape detection + typed parser → best-effort enrichment →
// detail expansion → grouped or flat view.

func (s *movimientoService) Listar(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	if filter.Vista == "" {
		filter.Vista = dto.VistaAgrupada
	}
	rows, err := s.repo.ListCrudo(ctx, filter)
	if err != nil {
		return nil, err
	}
	crudos := make([]normalizacion.Crudo, len(rows))
	for i, r := range rows {
		crudos[i] = filaCruda(r)
	}

	movs := normalizacion.Enriquecer(ctx, normalizacion.NormalizarTodos(crudos), s.fuentes())
	if !filter.Debug {
		for i := range movs {
			movs[i].Forma, movs[i].Crudo = "", nil
		}
	}
	expandidos := normalizacion.Expandir(movs)

	if filter.Vista == dto.VistaPlana {
		return &dto.MovimientoListResponse{Vista: filter.Vista, Total: len(expandidos), Data: expandidos}, nil
	}
	filas := normalizacion.Agrupar(expandidos)
	return &dto.MovimientoListResponse{Vista: filter.Vista, Total: len(filas), Data: filas}, nil
}

// filaCruda picks the layout to normalize: the legacy payload when the row
// was imported, the flat join otherwise. The stored row id always wins so
// generated detail ids stay unique. Neither r nor a map payload is modified.
func filaCruda(r map[string]interface{}) normalizacion.Crudo {
	var payload map[string]any
	switch v := r["datos_originales"].(type) {
	case []byte:
		_ = json.Unmarshal(v, &payload)
	case string:
		_ = json.Unmarshal([]byte(v), &payload)
	case map[string]any:
		payload = make(map[string]any, len(v)+2)
		for k, val := range v {
			payload[k] = val
		}
	}
	if payload == nil {
		fila := make(normalizacion.Crudo, len(r))
		for k, val := range r {
			if k != "datos_originales" {
				fila[k] = val
			}
		}
		return fila
	}
	payload["id"] = r["id"]
	if _, ok := payload["fecha"]; !ok {
		payload["fecha"] = r["fecha"]
	}
	return payload
}

func (s *movimientoService) fuentes() normalizacion.Fuentes {
	return normalizacion.Fuentes{
		Ventas: func(ctx context.Context, ids []string) ([]normalizacion.VentaRef, error) {
			uids := parseUUIDsLaxos(ids)
			ventas, err := s.ventas.FindByIDs(ctx, uids)
			if err != nil {
				return nil, err
			}
			out := make([]normalizacion.VentaRef, len(ventas))
			for i, v := range ventas {
				ref := normalizacion.VentaRef{ID: v.ID.String(), Notas: deref(v.Notas)}
				if v.Cliente != nil {
					ref.Cliente = clienteRef(v.Cliente)
				} else {
					ref.Cliente = &normalizacion.Cliente{ID: v.ClienteID.String(), Nombre: v.ClienteNombre}
				}
				for _, d := range v.Detalles {
					precio := d.PrecioUnitario
					ref.Detalles = append(ref.Detalles, normalizacion.Detalle{
						ProductoID:     d.ProductoID.String(),
						ProductoNombre: d.ProductoNombre,
						SKU:            d.SKU,
						Cantidad:       d.Cantidad,
						PrecioUnitario: &precio,
					})
				}
				out[i] = ref
			}
			return out, nil
		},
		Clientes: func(ctx context.Context) ([]normalizacion.Cliente, error) {
			rows, err := s.clientes.List(ctx, dto.ClienteFilter{})
			if err != nil {
				return nil, err
			}
			out := make([]normalizacion.Cliente, len(rows))
			for i := range rows {
				out[i] = *clienteRef(&rows[i])
			}
			return out, nil
		},
		Productos: func(ctx context.Context, ids []string) ([]normalizacion.ProductoRef, error) {
			rows, err := s.productos.FindByIDs(ctx, parseUUIDsLaxos(ids))
			if err != nil {
				return nil, err
			}
			out := make([]normalizacion.ProductoRef, len(rows))
			for i, p := range rows {
				ref := normalizacion.ProductoRef{
					ID:             p.ID.String(),
					Nombre:         p.Nombre,
					SKU:            p.SKU,
					PrecioUnitario: p.PrecioUnitario,
					StockActual:    p.StockActual,
					StockMinimo:    p.StockMinimo,
					StockMaximo:    p.StockMaximo,
				}
				if p.Categoria != nil {
					ref.Categoria = p.Categoria.Nombre
				}
				out[i] = ref
			}
			return out, nil
		},
	}
}

func clienteRef(c *model.Cliente) *normalizacion.Cliente {
	return &normalizacion.Cliente{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Contacto:  deref(c.Contacto),
		Telefono:  deref(c.Telefono),
		Email:     deref(c.Email),
		Direccion: deref(c.Direccion),
	}
}

// ── Importación ──────────────────────────────────────────────────────────────

func (s *movimientoService) Importar(ctx context.Context, actor Actor, req dto.ImportarMovimientosRequest) (*dto.ImportarMovimientosResponse, error) {
	resp := &dto.ImportarMovimientosResponse{}
	movs := normalizacion.NormalizarTodos(req.Filas)

	// Only keep references that still resolve; the rest are stored as nil and
	// survive in the payload.
	var pids, vids []string
	for _, m := range movs {
		pids = append(pids, m.ProductoID)
		vids = append(vids, m.VentaID)
	}
	productos := map[uuid.UUID]bool{}
	if rows, err := s.productos.FindByIDs(ctx, parseUUIDsLaxos(pids)); err == nil {
		for _, p := range rows {
			productos[p.ID] = true
		}
	} else {
		log.Warn().Err(err).Msg("movimientos: product lookup for import failed")
	}
	ventas := map[uuid.UUID]bool{}
	if rows, err := s.ventas.FindByIDs(ctx, parseUUIDsLaxos(vids)); err == nil {
		for _, v := range rows {
			ventas[v.ID] = true
		}
	} else {
		log.Warn().Err(err).Msg("movimientos: sale lookup for import failed")
	}

	var out []model.MovimientoInventario
	for i, m := range movs {
		if m.Tipo != model.MovimientoEntrada && m.Tipo != model.MovimientoSalida {
			resp.Omitidos++
			resp.Errores = append(resp.Errores, fmt.Sprintf("fila %d: tipo inválido %q", i, m.Tipo))
			continue
		}
		if m.Cantidad <= 0 {
			resp.Omitidos++
			resp.Errores = append(resp.Errores, fmt.Sprintf("fila %d: cantidad debe ser mayor a 0", i))
			continue
		}
		payload, err := json.Marshal(req.Filas[i])
		if err != nil {
			resp.Omitidos++
			resp.Errores = append(resp.Errores, fmt.Sprintf("fila %d: %v", i, err))
			continue
		}
		row := model.MovimientoInventario{
			ID:              uuid.New(),
			Tipo:            m.Tipo,
			Cantidad:        m.Cantidad,
			Motivo:          m.Motivo,
			RealizadoPor:    m.RealizadoPor,
			Fecha:           m.Fecha,
			Notas:           textoOpcional(&m.Notas),
			DatosOriginales: datatypes.JSON(payload),
		}
		if row.Fecha.IsZero() {
			row.Fecha = s.now().UTC()
		}
		if id, err := uuid.Parse(m.ProductoID); err == nil && productos[id] {
			row.ProductoID = &id
		}
		if id, err := uuid.Parse(m.VentaID); err == nil && ventas[id] {
			row.VentaID = &id
		}
		out = append(out, row)
	}

	if err := s.repo.CreateBatch(ctx, out); err != nil {
		return nil, err
	}
	resp.Importados = len(out)
	if resp.Importados > 0 {
		s.cache.Invalidar(ctx, cache.ColMovimientos, cache.ColDashboard)
	}
	auditar(ctx, s.auditoria, actor, model.AccionMovimiento, "movimientos_inventario", "",
		fmt.Sprintf("Importación: %d fila(s) importada(s), %d omitida(s)", resp.Importados, resp.Omitidos))
	return resp, nil
}

// ── Alertas ──────────────────────────────────────────────────────────────────

func (s *movimientoService) Alertas(ctx context.Context) ([]dto.ProductoResponse, error) {
	return cache.Leer(ctx, s.cache, cache.ColProductos, "alertas", func() ([]dto.ProductoResponse, error) {
		rows, err := s.productos.StockBajo(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]dto.ProductoResponse, len(rows))
		for i := range rows {
			out[i] = ToProductoResponse(&rows[i])
		}
		return out, nil
	})
}

// parseUUIDsLaxos skips ids that do not parse.
func parseUUIDsLaxos(ids []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := map[uuid.UUID]bool{}
	for _, s := range ids {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
