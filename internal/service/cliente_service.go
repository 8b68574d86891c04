package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

type ClienteService interface {
	Crear(ctx context.Context, actor Actor, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) ([]dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
}

type clienteService struct {
	repo      repository.ClienteRepository
	auditoria AuditoriaService
	cache     cache.Store
}

func NewClienteService(repo repository.ClienteRepository, auditoria AuditoriaService, store cache.Store) ClienteService {
	return &clienteService{repo: repo, auditoria: auditoria, cache: store}
}

func (s *clienteService) Crear(ctx context.Context, actor Actor, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{TotalCompras: decimal.Zero}
	aplicarCliente(c, req)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, cache.ColClientes, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionCrear, "clientes", c.ID.String(), "Cliente "+c.Nombre)
	resp := toClienteResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) ([]dto.ClienteResponse, error) {
	key := "lista:" + strings.ToLower(filter.Q) + ":" + filter.Estado
	return cache.Leer(ctx, s.cache, cache.ColClientes, key, func() ([]dto.ClienteResponse, error) {
		rows, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		resp := make([]dto.ClienteResponse, len(rows))
		for i := range rows {
			resp[i] = toClienteResponse(&rows[i])
		}
		return resp, nil
	})
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	resp := toClienteResponse(c)
	return &resp, nil
}

// Actualizar never touches TotalCompras.
func (s *clienteService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	antes := toClienteResponse(c)
	aplicarCliente(c, req)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Invalidar(ctx, cache.ColClientes, cache.ColMovimientos)
	despues := toClienteResponse(c)
	auditar(ctx, s.auditoria, actor, model.AccionEditar, "clientes", id.String(),
		ConCambios("Cliente "+c.Nombre, antes, despues))
	return &despues, nil
}

// Eliminar refuses while sales reference the customer.
func (s *clienteService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "Cliente no encontrado")
	}
	n, err := s.repo.CountVentas(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return conMensaje(ErrConflicto, "No se puede eliminar el cliente: tiene %d venta(s) registrada(s)", n)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return restriccion(err, "No se puede eliminar el cliente: tiene ventas registradas")
	}
	s.cache.Invalidar(ctx, cache.ColClientes, cache.ColDashboard)
	auditar(ctx, s.auditoria, actor, model.AccionEliminar, "clientes", id.String(), "Cliente "+c.Nombre)
	return nil
}

func aplicarCliente(c *model.Cliente, req dto.ClienteRequest) {
	c.Nombre = strings.TrimSpace(req.Nombre)
	c.Contacto = req.Contacto
	c.Telefono = req.Telefono
	c.Email = req.Email
	c.Direccion = req.Direccion
	switch {
	case req.Estado != "":
		c.Estado = req.Estado
	case c.Estado == "":
		c.Estado = model.ClienteActivo
	}
}

func toClienteResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:           c.ID.String(),
		Nombre:       c.Nombre,
		Contacto:     c.Contacto,
		Telefono:     c.Telefono,
		Email:        c.Email,
		Direccion:    c.Direccion,
		Estado:       c.Estado,
		TotalCompras: c.TotalCompras,
		CreatedAt:    c.CreatedAt,
	}
}
