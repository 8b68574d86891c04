package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

type ProveedorService interface {
	Crear(ctx context.Context, actor Actor, req dto.ProveedorRequest) (*dto.ProveedorResponse, error)
	Listar(ctx context.Context) ([]dto.ProveedorResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ProveedorRequest) (*dto.ProveedorResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type proveedorService struct {
	repo      repository.ProveedorRepository
	auditoria AuditoriaService
	cache     cache.Store
}

func NewProveedorService(repo repository.ProveedorRepository, auditoria AuditoriaService, store cache.Store) ProveedorService {
	return &proveedorService{repo: repo, auditoria: auditoria, cache: store}
}

func (s *proveedorService) Crear(ctx context.Context, actor Actor, req dto.ProveedorRequest) (*dto.ProveedorResponse, error) {
	p := &model.Proveedor{}
	aplicarProveedor(p, req)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, cache.ColProveedores)
	auditar(ctx, s.auditoria, actor, model.AccionCrear, "proveedores", p.ID.String(), "Proveedor "+p.Nombre)
	resp := toProveedorResponse(p, 0)
	return &resp, nil
}

func (s *proveedorService) conteos(ctx context.Context) map[uuid.UUID]int64 {
	return conteosProveedores(ctx, s.repo)
}

// conteosProveedores is best-effort: a failure reports 0 for everyone.
func conteosProveedores(ctx context.Context, repo repository.ProveedorRepository) map[uuid.UUID]int64 {
	if repo == nil {
		return map[uuid.UUID]int64{}
	}
	n, err := repo.ContarProductos(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("proveedores: product counts unavailable")
		return map[uuid.UUID]int64{}
	}
	return n
}

func (s *proveedorService) Listar(ctx context.Context) ([]dto.ProveedorResponse, error) {
	return cache.Leer(ctx, s.cache, cache.ColProveedores, "lista", func() ([]dto.ProveedorResponse, error) {
		rows, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		n := s.conteos(ctx)
		resp := make([]dto.ProveedorResponse, len(rows))
		for i := range rows {
			resp[i] = toProveedorResponse(&rows[i], n[rows[i].ID])
		}
		return resp, nil
	})
}

func (s *proveedorService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Proveedor no encontrado")
	}
	resp := toProveedorResponse(p, s.conteos(ctx)[id])
	return &resp, nil
}

func (s *proveedorService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ProveedorRequest) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Proveedor no encontrado")
	}
	n := s.conteos(ctx)[id]
	antes := toProveedorResponse(p, n)
	aplicarProveedor(p, req)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, cache.ColProveedores, cache.ColProductos)
	despues := toProveedorResponse(p, n)
	auditar(ctx, s.auditoria, actor, model.AccionEditar, "proveedores", id.String(),
		ConCambios("Proveedor "+p.Nombre, antes, despues))
	return &despues, nil
}

func (s *proveedorService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "Proveedor no encontrado")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidar(ctx, cache.ColProveedores, cache.ColProductos, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionEliminar, "proveedores", id.String(), "Proveedor "+p.Nombre)
	return nil
}

func aplicarProveedor(p *model.Proveedor, req dto.ProveedorRequest) {
	p.Nombre = strings.TrimSpace(req.Nombre)
	p.Contacto = req.Contacto
	p.Telefono = req.Telefono
	p.Email = req.Email
	p.Direccion = req.Direccion
}

func toProveedorResponse(p *model.Proveedor, productos int64) dto.ProveedorResponse {
	return dto.ProveedorResponse{
		ID:            p.ID.String(),
		Nombre:        p.Nombre,
		Contacto:      p.Contacto,
		Telefono:      p.Telefono,
		Email:         p.Email,
		Direccion:     p.Direccion,
		ProductsCount: productos,
		CreatedAt:     p.CreatedAt,
	}
}
