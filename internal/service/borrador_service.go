package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/borrador"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

// BorradorService exposes the sale draft state machine over HTTP. Every call
// loads the draft, applies one transition and stores it back.
type BorradorService interface {
	Crear(ctx context.Context, actor Actor) (*dto.BorradorResponse, error)
	Obtener(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error)
	Descartar(ctx context.Context, actor Actor, id string) error
	Reset(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error)
	SeleccionarCliente(ctx context.Context, actor Actor, id string, req dto.SeleccionarClienteRequest) (*dto.BorradorResponse, error)
	AgregarFilaVacia(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error)
	AbrirSelector(ctx context.Context, actor Actor, id string, req dto.AbrirSelectorRequest) (*dto.BorradorResponse, error)
	CerrarSelector(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error)
	Disponibles(ctx context.Context, actor Actor, id, filtro string) ([]borrador.ProductoRef, error)
	Preparar(ctx context.Context, actor Actor, id string, req dto.PrepararLineaRequest) (*dto.BorradorResponse, error)
	AgregarATabla(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error)
	ConfirmarSeleccion(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error)
	CambiarCantidad(ctx context.Context, actor Actor, id, clave string, req dto.CambiarCantidadRequest) (*dto.BorradorResponse, error)
	Quitar(ctx context.Context, actor Actor, id, clave string) (*dto.BorradorResponse, error)
	Notas(ctx context.Context, actor Actor, id string, req dto.NotasBorradorRequest) (*dto.BorradorResponse, error)
	// Confirmar registers the sale. On any failure the draft is left as it was.
	Confirmar(ctx context.Context, actor Actor, id string) (*dto.VentaResponse, error)
}

type borradorService struct {
	store     BorradorStore
	productos repository.ProductoRepository
	clientes  repository.ClienteRepository
	ventas    VentaService
	now       func() time.Time
}

func NewBorradorService(store BorradorStore, productos repository.ProductoRepository, clientes repository.ClienteRepository, ventas VentaService) BorradorService {
	return &borradorService{store: store, productos: productos, clientes: clientes, ventas: ventas, now: time.Now}
}

// catalogo reads the products fresh so staged lines carry the current price.
func (s *borradorService) catalogo(ctx context.Context) ([]borrador.ProductoRef, map[string]int, error) {
	rows, err := s.productos.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	refs := make([]borrador.ProductoRef, len(rows))
	stock := make(map[string]int, len(rows))
	for i, p := range rows {
		ref := borrador.ProductoRef{
			ID:             p.ID.String(),
			Nombre:         p.Nombre,
			SKU:            p.SKU,
			PrecioUnitario: p.PrecioUnitario,
			StockActual:    p.StockActual,
		}
		if p.Categoria != nil {
			ref.Categoria = p.Categoria.Nombre
		}
		refs[i] = ref
		stock[ref.ID] = p.StockActual
	}
	return refs, stock, nil
}

func (s *borradorService) cargar(ctx context.Context, actor Actor, id string) (*borrador.Borrador, error) {
	b, err := s.store.Obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UsuarioID != actor.ID.String() {
		return nil, conMensaje(ErrNoEncontrado, "Borrador no encontrado o expirado")
	}
	return b, nil
}

func (s *borradorService) respuesta(ctx context.Context, b *borrador.Borrador) (*dto.BorradorResponse, error) {
	_, stock, err := s.catalogo(ctx)
	if err != nil {
		return nil, err
	}
	claves := make([]string, len(b.Lineas))
	for i := range b.Lineas {
		claves[i] = b.Clave(i)
	}
	resp := &dto.BorradorResponse{
		Borrador:       b,
		Estado:         b.Estado(),
		Claves:         claves,
		Total:          b.Total(),
		PuedeConfirmar: b.PuedeConfirmar(stock),
	}
	if b.Estado() == borrador.EstadoEditando {
		resp.Errores = b.Validar(stock)
	}
	return resp, nil
}

// mutar applies fn and persists the draft only when fn succeeds.
func (s *borradorService) mutar(ctx context.Context, actor Actor, id string, fn func(b *borrador.Borrador) error) (*dto.BorradorResponse, error) {
	b, err := s.cargar(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, errorBorrador(err)
	}
	b.ActualizadoEn = s.now().UTC()
	if err := s.store.Guardar(ctx, b); err != nil {
		return nil, err
	}
	return s.respuesta(ctx, b)
}

func (s *borradorService) Crear(ctx context.Context, actor Actor) (*dto.BorradorResponse, error) {
	b := borrador.Nuevo(uuid.NewString(), actor.ID.String())
	b.ActualizadoEn = s.now().UTC()
	if err := s.store.Guardar(ctx, b); err != nil {
		return nil, err
	}
	return s.respuesta(ctx, b)
}

func (s *borradorService) Obtener(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error) {
	b, err := s.cargar(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.respuesta(ctx, b)
}

func (s *borradorService) Descartar(ctx context.Context, actor Actor, id string) error {
	if _, err := s.cargar(ctx, actor, id); err != nil {
		return err
	}
	return s.store.Eliminar(ctx, id)
}

func (s *borradorService) Reset(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		b.Reset()
		return nil
	})
}

func (s *borradorService) SeleccionarCliente(ctx context.Context, actor Actor, id string, req dto.SeleccionarClienteRequest) (*dto.BorradorResponse, error) {
	cid, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, validacion(map[string]string{"cliente_id": "Cliente inválido"})
	}
	c, err := s.clientes.FindByID(ctx, cid)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		return b.SeleccionarCliente(borrador.ClienteRef{ID: c.ID.String(), Nombre: c.Nombre})
	})
}

func (s *borradorService) AgregarFilaVacia(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		_, err := b.AgregarFilaVacia()
		return err
	})
}

func (s *borradorService) AbrirSelector(ctx context.Context, actor Actor, id string, req dto.AbrirSelectorRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		return b.AbrirSelector(strings.TrimSpace(req.Reemplaza))
	})
}

func (s *borradorService) CerrarSelector(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		b.CerrarSelector()
		return nil
	})
}

func (s *borradorService) Disponibles(ctx context.Context, actor Actor, id, filtro string) ([]borrador.ProductoRef, error) {
	b, err := s.cargar(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	refs, _, err := s.catalogo(ctx)
	if err != nil {
		return nil, err
	}
	return b.ProductosDisponibles(refs, filtro), nil
}

func (s *borradorService) Preparar(ctx context.Context, actor Actor, id string, req dto.PrepararLineaRequest) (*dto.BorradorResponse, error) {
	refs, _, err := s.catalogo(ctx)
	if err != nil {
		return nil, err
	}
	pid := strings.ToLower(req.ProductoID)
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		for _, p := range b.ProductosDisponibles(refs, "") {
			if p.ID == pid {
				return b.Preparar(p)
			}
		}
		return borrador.ErrProductoNoDisponible
	})
}

func (s *borradorService) AgregarATabla(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error { return b.AgregarATabla() })
}

func (s *borradorService) ConfirmarSeleccion(ctx context.Context, actor Actor, id string) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error { return b.Confirmar() })
}

func (s *borradorService) CambiarCantidad(ctx context.Context, actor Actor, id, clave string, req dto.CambiarCantidadRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		return b.CambiarCantidad(clave, req.Cantidad)
	})
}

func (s *borradorService) Quitar(ctx context.Context, actor Actor, id, clave string) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error { return b.Quitar(clave) })
}

func (s *borradorService) Notas(ctx context.Context, actor Actor, id string, req dto.NotasBorradorRequest) (*dto.BorradorResponse, error) {
	return s.mutar(ctx, actor, id, func(b *borrador.Borrador) error {
		b.Notas = strings.TrimSpace(req.Notas)
		return nil
	})
}

func (s *borradorService) Confirmar(ctx context.Context, actor Actor, id string) (*dto.VentaResponse, error) {
	b, err := s.cargar(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	_, stock, err := s.catalogo(ctx)
	if err != nil {
		return nil, err
	}
	if errs := b.Validar(stock); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs, Causa: causaValidacion(errs)}
	}

	req := dto.RegistrarVentaRequest{ClienteID: b.ClienteID}
	if b.Notas != "" {
		notas := b.Notas
		req.Notas = &notas
	}
	for _, it := range b.Items() {
		precio := it.PrecioUnitario
		req.Items = append(req.Items, dto.ItemVentaRequest{ProductoID: it.ProductoID, Cantidad: it.Cantidad, PrecioUnitario: &precio})
	}

	venta, err := s.ventas.RegistrarVenta(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Eliminar(ctx, id); err != nil {
		log.Warn().Err(err).Str("borrador_id", id).Msg("borradores: confirmed draft not removed")
	}
	return venta, nil
}

// errorBorrador maps state machine errors to a conflict with their message.
func errorBorrador(err error) error {
	for _, e := range []error{
		borrador.ErrClienteRequerido, borrador.ErrClienteInvalido, borrador.ErrSelectorCerrado,
		borrador.ErrNadaPreparado, borrador.ErrLineaNoEncontrada, borrador.ErrProductoNoDisponible,
	} {
		if errors.Is(err, e) {
			return conMensaje(ErrConflicto, "%s", err.Error())
		}
	}
	return err
}
