package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection and applies the idempotent schema
// patches. AutoMigrate is not used: column types, CHECK constraints and
// partial indexes are kept exactly as written below.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}
	return db, nil
}

// schemaPatches creates the ten tables and their indexes. Every statement is
// guarded with IF NOT EXISTS so re-running on an existing database is a no-op.
var schemaPatches = []struct{ descr, sql string }{
	{"extension pgcrypto", `CREATE EXTENSION IF NOT EXISTS pgcrypto`},
	{"usuarios", `
CREATE TABLE IF NOT EXISTS usuarios (
  id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  username        VARCHAR(100) NOT NULL UNIQUE,
  nombre_completo VARCHAR(200) NOT NULL DEFAULT '',
  email           VARCHAR(200) NOT NULL UNIQUE,
  password_hash   TEXT NOT NULL,
  rol             VARCHAR(20) NOT NULL CHECK (rol IN ('Administrador', 'Empleado')),
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"categorias", `
CREATE TABLE IF NOT EXISTS categorias (
  id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  nombre      VARCHAR(120) NOT NULL,
  descripcion TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"proveedores", `
CREATE TABLE IF NOT EXISTS proveedores (
  id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  nombre     VARCHAR(200) NOT NULL,
  contacto   VARCHAR(200),
  telefono   VARCHAR(50),
  email      VARCHAR(200),
  direccion  TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"productos", `
CREATE TABLE IF NOT EXISTS productos (
  id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  sku             VARCHAR(60) NOT NULL UNIQUE,
  nombre          VARCHAR(200) NOT NULL,
  descripcion     TEXT,
  categoria_id    UUID REFERENCES categorias(id),
  stock_actual    INT NOT NULL DEFAULT 0 CHECK (stock_actual >= 0),
  stock_minimo    INT NOT NULL DEFAULT 0 CHECK (stock_minimo >= 0),
  stock_maximo    INT NOT NULL DEFAULT 0,
  precio_unitario DECIMAL(12,2) NOT NULL DEFAULT 0 CHECK (precio_unitario >= 0),
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT chk_productos_stock_rango CHECK (stock_minimo <= stock_maximo)
)`},
	{"productos_proveedores", `
CREATE TABLE IF NOT EXISTS productos_proveedores (
  producto_id  UUID NOT NULL REFERENCES productos(id) ON DELETE CASCADE,
  proveedor_id UUID NOT NULL REFERENCES proveedores(id) ON DELETE CASCADE,
  orden        INT NOT NULL DEFAULT 0,
  PRIMARY KEY (producto_id, proveedor_id)
)`},
	{"clientes", `
CREATE TABLE IF NOT EXISTS clientes (
  id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  nombre        VARCHAR(200) NOT NULL,
  contacto      VARCHAR(200),
  telefono      VARCHAR(50),
  email         VARCHAR(200),
  direccion     TEXT,
  estado        VARCHAR(10) NOT NULL DEFAULT 'activo' CHECK (estado IN ('activo', 'inactivo')),
  total_compras DECIMAL(14,2) NOT NULL DEFAULT 0,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"ventas", `
CREATE TABLE IF NOT EXISTS ventas (
  id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  cliente_id     UUID NOT NULL REFERENCES clientes(id),
  cliente_nombre VARCHAR(200) NOT NULL DEFAULT '',
  total          DECIMAL(14,2) NOT NULL DEFAULT 0,
  fecha          TIMESTAMPTZ NOT NULL DEFAULT now(),
  usuario_id     UUID REFERENCES usuarios(id) ON DELETE SET NULL,
  realizado_por  VARCHAR(200) NOT NULL DEFAULT '',
  notas          TEXT,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"detalles_venta", `
CREATE TABLE IF NOT EXISTS detalles_venta (
  id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  venta_id        UUID NOT NULL REFERENCES ventas(id) ON DELETE CASCADE,
  producto_id     UUID NOT NULL REFERENCES productos(id),
  producto_nombre VARCHAR(200) NOT NULL,
  sku             VARCHAR(60) NOT NULL,
  cantidad        INT NOT NULL CHECK (cantidad > 0),
  precio_unitario DECIMAL(12,2) NOT NULL CHECK (precio_unitario >= 0),
  subtotal        DECIMAL(14,2) NOT NULL
)`},
	{"movimientos_inventario", `
CREATE TABLE IF NOT EXISTS movimientos_inventario (
  id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  producto_id      UUID REFERENCES productos(id) ON DELETE SET NULL,
  tipo             VARCHAR(10) NOT NULL CHECK (tipo IN ('entrada', 'salida')),
  cantidad         INT NOT NULL CHECK (cantidad > 0),
  motivo           VARCHAR(200) NOT NULL DEFAULT '',
  usuario_id       UUID REFERENCES usuarios(id) ON DELETE SET NULL,
  realizado_por    VARCHAR(200) NOT NULL DEFAULT '',
  fecha            TIMESTAMPTZ NOT NULL DEFAULT now(),
  notas            TEXT,
  venta_id         UUID REFERENCES ventas(id) ON DELETE SET NULL,
  datos_originales JSONB,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"auditoria", `
CREATE TABLE IF NOT EXISTS auditoria (
  id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  usuario_id     UUID,
  usuario_nombre VARCHAR(200) NOT NULL DEFAULT '',
  accion         VARCHAR(20) NOT NULL,
  entidad        VARCHAR(60) NOT NULL DEFAULT '',
  entidad_id     VARCHAR(60) NOT NULL DEFAULT '',
  detalles       TEXT NOT NULL DEFAULT '',
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
	{"idx_productos_categoria", `CREATE INDEX IF NOT EXISTS idx_productos_categoria ON productos (categoria_id)`},
	{"idx_productos_stock_bajo", `CREATE INDEX IF NOT EXISTS idx_productos_stock_bajo ON productos (id) WHERE stock_actual <= stock_minimo`},
	{"idx_ventas_fecha", `CREATE INDEX IF NOT EXISTS idx_ventas_fecha ON ventas (fecha DESC)`},
	{"idx_detalles_venta_venta", `CREATE INDEX IF NOT EXISTS idx_detalles_venta_venta ON detalles_venta (venta_id)`},
	{"idx_movimientos_fecha", `CREATE INDEX IF NOT EXISTS idx_movimientos_fecha ON movimientos_inventario (fecha DESC)`},
	{"idx_movimientos_venta", `CREATE INDEX IF NOT EXISTS idx_movimientos_venta ON movimientos_inventario (venta_id) WHERE venta_id IS NOT NULL`},
	{"idx_auditoria_created", `CREATE INDEX IF NOT EXISTS idx_auditoria_created ON auditoria (created_at DESC)`},
	{"idx_usuarios_email_lower", `CREATE UNIQUE INDEX IF NOT EXISTS idx_usuarios_email_lower ON usuarios (lower(email))`},
}

func applySchemaPatches(db *gorm.DB) error {
	for _, p := range schemaPatches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

// RunMigrations applies the schema on an already-open connection. Used by the
// integration tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	return applySchemaPatches(db)
}
