package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, actor Actor, req dto.ProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
	StockBajo(ctx context.Context) ([]dto.ProductoResponse, error)
}

type productoService struct {
	repo      repository.ProductoRepository
	auditoria AuditoriaService
	cache     cache.Store
}

func NewProductoService(repo repository.ProductoRepository, auditoria AuditoriaService, store cache.Store) ProductoService {
	return &productoService{repo: repo, auditoria: auditoria, cache: store}
}

// ── Validation ──────────────────────────────────────────────────────────────

// ValidarProducto holds the form rules that the struct tags cannot express.
func ValidarProducto(req dto.ProductoRequest) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(req.SKU) == "" {
		errs["sku"] = "El SKU es obligatorio"
	}
	if strings.TrimSpace(req.Nombre) == "" {
		errs["nombre"] = "El nombre es obligatorio"
	}
	if req.StockActual < 0 {
		errs["stock_actual"] = "El stock actual no puede ser negativo"
	}
	if req.StockMinimo < 0 {
		errs["stock_minimo"] = "El stock mínimo no puede ser negativo"
	}
	if req.StockMaximo < req.StockMinimo {
		errs["stock_maximo"] = "El stock máximo debe ser mayor o igual al stock mínimo"
	}
	if req.PrecioUnitario.IsNegative() {
		errs["precio_unitario"] = "El precio no puede ser negativo"
	}
	return errs
}

func (s *productoService) validar(ctx context.Context, req dto.ProductoRequest, propio uuid.UUID) error {
	errs := ValidarProducto(req)
	if _, ok := errs["sku"]; !ok {
		existente, err := s.repo.FindBySKU(ctx, strings.TrimSpace(req.SKU))
		switch {
		case err == nil && existente.ID != propio:
			errs["sku"] = "Ya existe un producto con ese SKU"
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	return validacion(errs)
}

// ── CRUD ────────────────────────────────────────────────────────────────────

func (s *productoService) Crear(ctx context.Context, actor Actor, req dto.ProductoRequest) (*dto.ProductoResponse, error) {
	if err := s.validar(ctx, req, uuid.Nil); err != nil {
		return nil, err
	}
	p := &model.Producto{}
	if err := aplicarProducto(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, restriccion(err, "Ya existe un producto con ese SKU")
	}
	s.escribirProveedores(ctx, p.ID, req.ProveedorIDs)
	s.cache.Invalidar(ctx, cache.ColProductos, cache.ColCategorias, cache.ColProveedores, cache.ColDashboard)

	resp := s.recargar(ctx, p)
	auditar(ctx, s.auditoria, actor, model.AccionCrear, "productos", p.ID.String(),
		fmt.Sprintf("Producto %s (%s)", p.Nombre, p.SKU))
	return &resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	return cache.Leer(ctx, s.cache, cache.ColProductos, "id:"+id.String(), func() (*dto.ProductoResponse, error) {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, noEncontrado(err, "Producto no encontrado")
		}
		resp := ToProductoResponse(p)
		return &resp, nil
	})
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	key := fmt.Sprintf("lista:%s:%s:%t:%d:%d", strings.ToLower(filter.Q), filter.CategoriaID, filter.StockBajo, filter.Page, filter.Limit)
	return cache.Leer(ctx, s.cache, cache.ColProductos, key, func() (*dto.ProductoListResponse, error) {
		rows, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		data := make([]dto.ProductoResponse, len(rows))
		for i := range rows {
			data[i] = ToProductoResponse(&rows[i])
		}
		return &dto.ProductoListResponse{
			Data:       data,
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPaginas(total, filter.Limit),
		}, nil
	})
}

func (s *productoService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Producto no encontrado")
	}
	if err := s.validar(ctx, req, id); err != nil {
		return nil, err
	}
	antes := ToProductoResponse(p)
	if err := aplicarProducto(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, restriccion(err, "Ya existe un producto con ese SKU")
	}
	s.escribirProveedores(ctx, id, req.ProveedorIDs)
	s.cache.Invalidar(ctx, cache.ColProductos, cache.ColCategorias, cache.ColProveedores, cache.ColMovimientos, cache.ColDashboard)

	despues := s.recargar(ctx, p)
	auditar(ctx, s.auditoria, actor, model.AccionEditar, "productos", id.String(),
		ConCambios(fmt.Sprintf("Producto %s (%s)", p.Nombre, p.SKU), antes, despues))
	return &despues, nil
}

func (s *productoService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "Producto no encontrado")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return restriccion(err, "No se puede eliminar el producto: tiene ventas registradas")
	}
	s.cache.Invalidar(ctx, cache.ColProductos, cache.ColCategorias, cache.ColProveedores, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionEliminar, "productos", id.String(),
		fmt.Sprintf("Producto %s (%s)", p.Nombre, p.SKU))
	return nil
}

func (s *productoService) StockBajo(ctx context.Context) ([]dto.ProductoResponse, error) {
	return cache.Leer(ctx, s.cache, cache.ColProductos, "stock_bajo", func() ([]dto.ProductoResponse, error) {
		rows, err := s.repo.StockBajo(ctx)
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

// ── Helpers ─────────────────────────────────────────────────────────────────

// escribirProveedores is best-effort: the product row is already committed.
func (s *productoService) escribirProveedores(ctx context.Context, id uuid.UUID, proveedorIDs []string) {
	ids, err := parseUUIDs(dedup(proveedorIDs))
	if err == nil {
		err = s.repo.ReemplazarProveedores(ctx, id, ids)
	}
	if err != nil {
		log.Warn().Err(err).Str("producto_id", id.String()).Msg("productos: supplier links not written")
	}
}

// recargar re-reads the product so category and supplier names are current,
// falling back to the in-memory row.
func (s *productoService) recargar(ctx context.Context, p *model.Producto) dto.ProductoResponse {
	fresco, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		log.Warn().Err(err).Str("producto_id", p.ID.String()).Msg("productos: reload after write failed")
		return ToProductoResponse(p)
	}
	return ToProductoResponse(fresco)
}

func aplicarProducto(p *model.Producto, req dto.ProductoRequest) error {
	p.SKU = strings.TrimSpace(req.SKU)
	p.Nombre = strings.TrimSpace(req.Nombre)
	p.Descripcion = req.Descripcion
	p.StockActual = req.StockActual
	p.StockMinimo = req.StockMinimo
	p.StockMaximo = req.StockMaximo
	p.PrecioUnitario = req.PrecioUnitario.Round(2)
	p.CategoriaID = nil
	p.Categoria = nil
	if req.CategoriaID != nil && *req.CategoriaID != "" {
		id, err := uuid.Parse(*req.CategoriaID)
		if err != nil {
			return validacion(map[string]string{"categoria_id": "Categoría inválida"})
		}
		p.CategoriaID = &id
	}
	return nil
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		k := strings.ToLower(strings.TrimSpace(id))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// ToProductoResponse derives the supplier id and name lists from the junction
// in orden order. Links whose supplier no longer resolves are left out of
// both lists so they stay the same length.
func ToProductoResponse(p *model.Producto) dto.ProductoResponse {
	resp := dto.ProductoResponse{
		ID:               p.ID.String(),
		SKU:              p.SKU,
		Nombre:           p.Nombre,
		Descripcion:      p.Descripcion,
		CategoriaID:      uuidPtrString(p.CategoriaID),
		StockActual:      p.StockActual,
		StockMinimo:      p.StockMinimo,
		StockMaximo:      p.StockMaximo,
		PrecioUnitario:   p.PrecioUnitario,
		ProveedorIDs:     []string{},
		ProveedorNombres: []string{},
		EnStockBajo:      p.EnStockBajo(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Categoria != nil {
		resp.CategoriaNombre = p.Categoria.Nombre
	}
	for _, pp := range p.Proveedores {
		if pp.Proveedor == nil {
			continue
		}
		resp.ProveedorIDs = append(resp.ProveedorIDs, pp.ProveedorID.String())
		resp.ProveedorNombres = append(resp.ProveedorNombres, pp.Proveedor.Nombre)
	}
	return resp
}
