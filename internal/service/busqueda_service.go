package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

type BusquedaService interface {
	Buscar(ctx context.Context, f dto.BusquedaFilter) (*dto.BusquedaResponse, error)
}

type busquedaService struct {
	repo        repository.BusquedaRepository
	proveedores repository.ProveedorRepository
	usuarios    repository.UsuarioRepository
}

// NewBusquedaService takes the supplier and user repositories for the
// derived fields. Either may be nil; the lookups are best-effort anyway.
func NewBusquedaService(repo repository.BusquedaRepository, proveedores repository.ProveedorRepository, usuarios repository.UsuarioRepository) BusquedaService {
	return &busquedaService{repo: repo, proveedores: proveedores, usuarios: usuarios}
}

// Buscar queries every entity, or only f.Entidad when set. Entities that
// were not searched come back as empty lists. Supplier product counts and
// the sale performer are resolved the same way as in their own listings.
func (s *busquedaService) Buscar(ctx context.Context, f dto.BusquedaFilter) (*dto.BusquedaResponse, error) {
	resp := &dto.BusquedaResponse{
		Productos:   []dto.ProductoResponse{},
		Clientes:    []dto.ClienteResponse{},
		Proveedores: []dto.ProveedorResponse{},
		Ventas:      []dto.VentaResponse{},
	}
	incluir := func(entidad string) bool { return f.Entidad == "" || f.Entidad == entidad }

	if incluir("productos") {
		rows, err := s.repo.Productos(ctx, f)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			resp.Productos = append(resp.Productos, ToProductoResponse(&rows[i]))
		}
	}
	if incluir("clientes") {
		rows, err := s.repo.Clientes(ctx, f)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			resp.Clientes = append(resp.Clientes, toClienteResponse(&rows[i]))
		}
	}
	if incluir("proveedores") {
		rows, err := s.repo.Proveedores(ctx, f)
		if err != nil {
			return nil, err
		}
		var n map[uuid.UUID]int64
		if len(rows) > 0 {
			n = conteosProveedores(ctx, s.proveedores)
		}
		for i := range rows {
			resp.Proveedores = append(resp.Proveedores, toProveedorResponse(&rows[i], n[rows[i].ID]))
		}
	}
	if incluir("ventas") {
		rows, err := s.repo.Ventas(ctx, f)
		if err != nil {
			return nil, err
		}
		var usuarios map[uuid.UUID]model.Usuario
		if len(rows) > 0 {
			usuarios = mapaUsuarios(ctx, s.usuarios)
		}
		for i := range rows {
			resp.Ventas = append(resp.Ventas, toVentaResponse(&rows[i], RealizadoPor(rows[i].UsuarioID, rows[i].RealizadoPor, usuarios)))
		}
	}
	return resp, nil
}
