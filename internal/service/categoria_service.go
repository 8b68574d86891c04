package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

type CategoriaService interface {
	Crear(ctx context.Context, actor Actor, req dto.CategoriaRequest) (*dto.CategoriaResponse, error)
	Listar(ctx context.Context) ([]dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.CategoriaRequest) (*dto.CategoriaResponse, error)
	// Eliminar refuses with ErrCategoriaEnUso while products reference the
	// category; the delete statement is not issued in that case.
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type categoriaService struct {
	repo      repository.CategoriaRepository
	auditoria AuditoriaService
	cache     cache.Store
}

func NewCategoriaService(repo repository.CategoriaRepository, auditoria AuditoriaService, store cache.Store) CategoriaService {
	return &categoriaService{repo: repo, auditoria: auditoria, cache: store}
}

func (s *categoriaService) Crear(ctx context.Context, actor Actor, req dto.CategoriaRequest) (*dto.CategoriaResponse, error) {
	c := &model.Categoria{Nombre: strings.TrimSpace(req.Nombre), Descripcion: req.Descripcion}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, cache.ColCategorias, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionCrear, "categorias", c.ID.String(), "Categoría "+c.Nombre)
	resp := toCategoriaResponse(c, 0)
	return &resp, nil
}

func (s *categoriaService) Listar(ctx context.Context) ([]dto.CategoriaResponse, error) {
	return cache.Leer(ctx, s.cache, cache.ColCategorias, "lista", func() ([]dto.CategoriaResponse, error) {
		rows, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]dto.CategoriaResponse, len(rows))
		for i := range rows {
			resp[i] = toCategoriaResponse(&rows[i].Categoria, rows[i].ProductCount)
		}
		return resp, nil
	})
}

func (s *categoriaService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.CategoriaRequest) (*dto.CategoriaResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Categoría no encontrada")
	}
	antes := *c
	c.Nombre = strings.TrimSpace(req.Nombre)
	c.Descripcion = req.Descripcion
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	n, _ := s.repo.CountProductos(ctx, id)
	// product rows embed the category name
	s.cache.Invalidar(ctx, cache.ColCategorias, cache.ColProductos, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionEditar, "categorias", id.String(),
		ConCambios("Categoría "+c.Nombre, toCategoriaResponse(&antes, n), toCategoriaResponse(c, n)))
	resp := toCategoriaResponse(c, n)
	return &resp, nil
}

func (s *categoriaService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "Categoría no encontrada")
	}
	n, err := s.repo.CountProductos(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return conMensaje(ErrCategoriaEnUso, "No se puede eliminar la categoría: tiene %d producto(s) asociado(s)", n)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidar(ctx, cache.ColCategorias, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionEliminar, "categorias", id.String(), "Categoría "+c.Nombre)
	return nil
}

func toCategoriaResponse(c *model.Categoria, productos int64) dto.CategoriaResponse {
	return dto.CategoriaResponse{
		ID:           c.ID.String(),
		Nombre:       c.Nombre,
		Descripcion:  c.Descripcion,
		ProductCount: productos,
		CreatedAt:    c.CreatedAt,
	}
}
