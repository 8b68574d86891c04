package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/borrador"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

// ── UsuarioRepository ────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	users map[uuid.UUID]*model.Usuario
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) FindByLogin(_ context.Context, login string) (*model.Usuario, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, login) || u.Username == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) ExistsUsername(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	out := make([]model.Usuario, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUsuarioRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *stubUsuarioRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

// ── ProveedorRepository ──────────────────────────────────────────────────────

type stubProveedorRepo struct {
	proveedores map[uuid.UUID]*model.Proveedor
	productos   *stubProductoRepo
	contarErr   error
}

var _ repository.ProveedorRepository = (*stubProveedorRepo)(nil)

func newStubProveedorRepo() *stubProveedorRepo {
	return &stubProveedorRepo{proveedores: make(map[uuid.UUID]*model.Proveedor)}
}

func (r *stubProveedorRepo) Create(_ context.Context, p *model.Proveedor) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.proveedores[p.ID] = &cp
	return nil
}

func (r *stubProveedorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Proveedor, error) {
	p, ok := r.proveedores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProveedorRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Proveedor, error) {
	var out []model.Proveedor
	for _, id := range ids {
		if p, ok := r.proveedores[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProveedorRepo) List(_ context.Context) ([]model.Proveedor, error) {
	out := make([]model.Proveedor, 0, len(r.proveedores))
	for _, p := range r.proveedores {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubProveedorRepo) ContarProductos(_ context.Context) (map[uuid.UUID]int64, error) {
	if r.contarErr != nil {
		return nil, r.contarErr
	}
	out := map[uuid.UUID]int64{}
	if r.productos == nil {
		return out, nil
	}
	for _, ids := range r.productos.vinculos {
		for _, id := range ids {
			out[id]++
		}
	}
	return out, nil
}

func (r *stubProveedorRepo) Update(_ context.Context, p *model.Proveedor) error {
	cp := *p
	r.proveedores[p.ID] = &cp
	return nil
}

func (r *stubProveedorRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.proveedores, id)
	return nil
}

// ── ProductoRepository ───────────────────────────────────────────────────────

type stubProductoRepo struct {
	productos   map[uuid.UUID]*model.Producto
	vinculos    map[uuid.UUID][]uuid.UUID
	categorias  *stubCategoriaRepo
	proveedores *stubProveedorRepo
	findErr     error
	vinculoErr  error
	// descuentoFallido makes the guarded decrement report no row updated,
	// as if another sale took the stock first.
	descuentoFallido bool
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{
		productos: make(map[uuid.UUID]*model.Producto),
		vinculos:  make(map[uuid.UUID][]uuid.UUID),
	}
}

// hidratar mimics the preloads of the real repository.
func (r *stubProductoRepo) hidratar(p model.Producto) model.Producto {
	p.Categoria = nil
	if p.CategoriaID != nil && r.categorias != nil {
		if c, ok := r.categorias.categorias[*p.CategoriaID]; ok {
			cp := *c
			p.Categoria = &cp
		}
	}
	p.Proveedores = nil
	for i, id := range r.vinculos[p.ID] {
		pp := model.ProductoProveedor{ProductoID: p.ID, ProveedorID: id, Orden: i}
		if r.proveedores != nil {
			if prov, ok := r.proveedores.proveedores[id]; ok {
				cp := *prov
				pp.Proveedor = &cp
			}
		}
		p.Proveedores = append(p.Proveedores, pp)
	}
	return p
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	h := r.hidratar(*p)
	return &h, nil
}

func (r *stubProductoRepo) FindBySKU(_ context.Context, sku string) (*model.Producto, error) {
	for _, p := range r.productos {
		if strings.EqualFold(p.SKU, sku) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []model.Producto
	for _, id := range ids {
		if p, ok := r.productos[id]; ok {
			out = append(out, r.hidratar(*p))
		}
	}
	return out, nil
}

func (r *stubProductoRepo) todos() []model.Producto {
	out := make([]model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		out = append(out, r.hidratar(*p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	out := r.todos()
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) ListAll(_ context.Context) ([]model.Producto, error) {
	return r.todos(), nil
}

func (r *stubProductoRepo) StockBajo(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.todos() {
		if p.EnStockBajo() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	cp := *p
	cp.Categoria, cp.Proveedores = nil, nil
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.productos, id)
	delete(r.vinculos, id)
	return nil
}

func (r *stubProductoRepo) ReemplazarProveedores(_ context.Context, productoID uuid.UUID, ids []uuid.UUID) error {
	if r.vinculoErr != nil {
		return r.vinculoErr
	}
	r.vinculos[productoID] = append([]uuid.UUID(nil), ids...)
	return nil
}

func (r *stubProductoRepo) DescontarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) (bool, error) {
	p, ok := r.productos[id]
	if !ok || r.descuentoFallido || p.StockActual < cantidad {
		return false, nil
	}
	p.StockActual -= cantidad
	return true, nil
}

func (r *stubProductoRepo) IncrementarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockActual += cantidad
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

// ── CategoriaRepository ──────────────────────────────────────────────────────

type stubCategoriaRepo struct {
	categorias  map[uuid.UUID]*model.Categoria
	productos   *stubProductoRepo
	deleteCalls int
}

var _ repository.CategoriaRepository = (*stubCategoriaRepo)(nil)

func newStubCategoriaRepo(productos *stubProductoRepo) *stubCategoriaRepo {
	r := &stubCategoriaRepo{categorias: make(map[uuid.UUID]*model.Categoria), productos: productos}
	productos.categorias = r
	return r
}

func (r *stubCategoriaRepo) Create(_ context.Context, c *model.Categoria) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.categorias[c.ID] = &cp
	return nil
}

func (r *stubCategoriaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Categoria, error) {
	c, ok := r.categorias[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoriaRepo) List(ctx context.Context) ([]repository.CategoriaConConteo, error) {
	var out []repository.CategoriaConConteo
	for _, c := range r.categorias {
		n, _ := r.CountProductos(ctx, c.ID)
		out = append(out, repository.CategoriaConConteo{Categoria: *c, ProductCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubCategoriaRepo) CountProductos(_ context.Context, id uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.productos.productos {
		if p.CategoriaID != nil && *p.CategoriaID == id {
			n++
		}
	}
	return n, nil
}

func (r *stubCategoriaRepo) Update(_ context.Context, c *model.Categoria) error {
	cp := *c
	r.categorias[c.ID] = &cp
	return nil
}

func (r *stubCategoriaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.deleteCalls++
	delete(r.categorias, id)
	return nil
}

// ── ClienteRepository ────────────────────────────────────────────────────────

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
	ventas   *stubVentaRepo
	listErr  error
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) List(_ context.Context, _ dto.ClienteFilter) ([]model.Cliente, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.Cliente, 0, len(r.clientes))
	for _, c := range r.clientes {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	prev, ok := r.clientes[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *c
	cp.TotalCompras = prev.TotalCompras
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.clientes, id)
	return nil
}

func (r *stubClienteRepo) CountVentas(_ context.Context, id uuid.UUID) (int64, error) {
	var n int64
	if r.ventas == nil {
		return 0, nil
	}
	for _, v := range r.ventas.ventas {
		if v.ClienteID == id {
			n++
		}
	}
	return n, nil
}

// ── VentaRepository ──────────────────────────────────────────────────────────

type stubVentaRepo struct {
	ventas    map[uuid.UUID]*model.Venta
	orden     []uuid.UUID
	clientes  *stubClienteRepo
	createErr error
}

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

func newStubVentaRepo(clientes *stubClienteRepo) *stubVentaRepo {
	r := &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta), clientes: clientes}
	if clientes != nil {
		clientes.ventas = r
	}
	return r
}

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if r.createErr != nil {
		return r.createErr
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	cp.Detalles = append([]model.DetalleVenta(nil), v.Detalles...)
	r.ventas[v.ID] = &cp
	r.orden = append(r.orden, v.ID)
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubVentaRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Venta, error) {
	var out []model.Venta
	for _, id := range ids {
		v, ok := r.ventas[id]
		if !ok {
			continue
		}
		cp := *v
		if r.clientes != nil {
			if c, ok := r.clientes.clientes[v.ClienteID]; ok {
				cc := *c
				cp.Cliente = &cc
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *stubVentaRepo) List(_ context.Context, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	out := make([]model.Venta, 0, len(r.orden))
	for _, id := range r.orden {
		out = append(out, *r.ventas[id])
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

// ── MovimientoRepository ─────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	movimientos []model.MovimientoInventario
	crudos      []map[string]interface{}
}

var _ repository.MovimientoRepository = (*stubMovimientoRepo)(nil)

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoInventario) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) CreateBatch(_ context.Context, ms []model.MovimientoInventario) error {
	r.movimientos = append(r.movimientos, ms...)
	return nil
}

func (r *stubMovimientoRepo) ListCrudo(_ context.Context, _ dto.MovimientoFilter) ([]map[string]interface{}, error) {
	return r.crudos, nil
}

// ── AuditoriaRepository ──────────────────────────────────────────────────────

type stubAuditoriaRepo struct {
	entries []model.Auditoria
	err     error
}

var _ repository.AuditoriaRepository = (*stubAuditoriaRepo)(nil)

func (r *stubAuditoriaRepo) Create(_ context.Context, a *model.Auditoria) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *a)
	return nil
}

func (r *stubAuditoriaRepo) List(_ context.Context, _ dto.AuditoriaFilter) ([]model.Auditoria, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

func (r *stubAuditoriaRepo) CountByAccion(_ context.Context, accion, _ string) (int64, error) {
	var n int64
	for _, e := range r.entries {
		if e.Accion == accion {
			n++
		}
	}
	return n, nil
}

func (r *stubAuditoriaRepo) acciones() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Accion
	}
	return out
}

// ── Queue, publisher, stores ─────────────────────────────────────────────────

type fakeQueue struct {
	auditorias []worker.AuditoriaPayload
	alertas    []worker.AlertaStockPayload
	err        error
}

var _ service.Encolador = (*fakeQueue)(nil)

func (q *fakeQueue) EnqueueAuditoria(_ context.Context, e worker.AuditoriaPayload) error {
	if q.err != nil {
		return q.err
	}
	q.auditorias = append(q.auditorias, e)
	return nil
}

func (q *fakeQueue) EnqueueAlertaStock(_ context.Context, a worker.AlertaStockPayload) error {
	if q.err != nil {
		return q.err
	}
	q.alertas = append(q.alertas, a)
	return nil
}

type publicado struct {
	cola   string
	evento any
}

type fakePublicador struct {
	eventos []publicado
	err     error
}

func (p *fakePublicador) Publicar(_ context.Context, cola string, evento any) error {
	if p.err != nil {
		return p.err
	}
	p.eventos = append(p.eventos, publicado{cola, evento})
	return nil
}

func (p *fakePublicador) colas() []string {
	out := make([]string, len(p.eventos))
	for i, e := range p.eventos {
		out[i] = e.cola
	}
	return out
}

type memSesionStore struct {
	mu       sync.Mutex
	sesiones map[string]service.Sesion
	ttls     map[string]time.Duration
	setup    bool
}

var _ service.SesionStore = (*memSesionStore)(nil)

func newMemSesionStore() *memSesionStore {
	return &memSesionStore{sesiones: map[string]service.Sesion{}, ttls: map[string]time.Duration{}}
}

func (s *memSesionStore) Guardar(_ context.Context, ses service.Sesion, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sesiones[ses.ID] = ses
	s.ttls[ses.ID] = ttl
	return nil
}

func (s *memSesionStore) Obtener(_ context.Context, id string) (*service.Sesion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ses, ok := s.sesiones[id]
	if !ok {
		return nil, service.ErrSesionInvalida
	}
	return &ses, nil
}

func (s *memSesionStore) Eliminar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sesiones, id)
	return nil
}

func (s *memSesionStore) SetupCompletado(context.Context) (bool, error) { return s.setup, nil }

func (s *memSesionStore) MarcarSetup(context.Context) error {
	s.setup = true
	return nil
}

type memBorradorStore struct {
	borradores map[string]borrador.Borrador
}

var _ service.BorradorStore = (*memBorradorStore)(nil)

func newMemBorradorStore() *memBorradorStore {
	return &memBorradorStore{borradores: map[string]borrador.Borrador{}}
}

func (s *memBorradorStore) Obtener(_ context.Context, id string) (*borrador.Borrador, error) {
	b, ok := s.borradores[id]
	if !ok {
		return nil, service.ErrNoEncontrado
	}
	b.Lineas = append([]borrador.Linea(nil), b.Lineas...)
	return &b, nil
}

func (s *memBorradorStore) Guardar(_ context.Context, b *borrador.Borrador) error {
	cp := *b
	cp.Lineas = append([]borrador.Linea(nil), b.Lineas...)
	s.borradores[b.ID] = cp
	return nil
}

func (s *memBorradorStore) Eliminar(_ context.Context, id string) error {
	delete(s.borradores, id)
	return nil
}

var errBoom = errors.New("boom")

// ── BusquedaRepository ───────────────────────────────────────────────────────

type stubBusquedaRepo struct {
	productos   []model.Producto
	clientes    []model.Cliente
	proveedores []model.Proveedor
	ventas      []model.Venta
	err         error
	consultas   []string
}

var _ repository.BusquedaRepository = (*stubBusquedaRepo)(nil)

func (r *stubBusquedaRepo) Productos(_ context.Context, _ dto.BusquedaFilter) ([]model.Producto, error) {
	r.consultas = append(r.consultas, "productos")
	return r.productos, r.err
}

func (r *stubBusquedaRepo) Clientes(_ context.Context, _ dto.BusquedaFilter) ([]model.Cliente, error) {
	r.consultas = append(r.consultas, "clientes")
	return r.clientes, r.err
}

func (r *stubBusquedaRepo) Proveedores(_ context.Context, _ dto.BusquedaFilter) ([]model.Proveedor, error) {
	r.consultas = append(r.consultas, "proveedores")
	return r.proveedores, r.err
}

func (r *stubBusquedaRepo) Ventas(_ context.Context, _ dto.BusquedaFilter) ([]model.Venta, error) {
	r.consultas = append(r.consultas, "ventas")
	return r.ventas, r.err
}
