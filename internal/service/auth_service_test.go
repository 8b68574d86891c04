package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

type authFixture struct {
	usuarios  *stubUsuarioRepo
	sesiones  *memSesionStore
	auditoria *stubAuditoriaRepo
	svc       service.AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		usuarios:  newStubUsuarioRepo(),
		sesiones:  newMemSesionStore(),
		auditoria: &stubAuditoriaRepo{},
	}
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 8, JWTRememberHours: 720}
	f.svc = service.NewAuthService(f.usuarios, f.sesiones, service.NewAuditoriaService(f.auditoria, nil), cfg)
	return f
}

func (f *authFixture) usuario(t *testing.T, email, password string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{
		Username:       strings.Split(email, "@")[0],
		NombreCompleto: "Carlos Ruiz",
		Email:          email,
		PasswordHash:   string(hash),
		Rol:            model.RolAdministrador,
	}
	require.NoError(t, f.usuarios.Create(context.Background(), u))
	return u
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture()
	u := f.usuario(t, "carlos@empresa.com", "secreto123")

	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "CARLOS@empresa.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, u.ID.String(), resp.User.ID)

	claims, err := f.svc.ValidarToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Actor().ID)
	assert.Equal(t, model.RolAdministrador, claims.Rol)
	assert.Equal(t, 8*time.Hour, f.sesiones.ttls[claims.ID])

	assert.Equal(t, []string{model.AccionLogin}, f.auditoria.acciones())
}

func TestLogin_RecordarExtiendeSesion(t *testing.T) {
	f := newAuthFixture()
	f.usuario(t, "carlos@empresa.com", "secreto123")

	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos", Password: "secreto123", Recordar: true})
	require.NoError(t, err)
	assert.Equal(t, 720*3600, resp.ExpiresIn)

	claims, err := f.svc.ValidarToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, f.sesiones.sesiones[claims.ID].Recordar)
}

func TestLogin_FallidosSeAuditan(t *testing.T) {
	f := newAuthFixture()
	u := f.usuario(t, "carlos@empresa.com", "secreto123")

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos@empresa.com", Password: "incorrecta"})
		assert.ErrorIs(t, err, service.ErrCredenciales)
	}

	n, err := f.auditoria.CountByAccion(context.Background(), model.AccionLoginFallido, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	for _, e := range f.auditoria.entries {
		assert.Equal(t, u.ID.String(), e.EntidadID)
		assert.Equal(t, "Carlos Ruiz", e.UsuarioNombre)
	}
	assert.Empty(t, f.sesiones.sesiones)
}

func TestLogin_FallaAuditoriaNoCambiaRespuesta(t *testing.T) {
	f := newAuthFixture()
	f.usuario(t, "carlos@empresa.com", "secreto123")
	f.auditoria.err = errBoom

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos@empresa.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, service.ErrCredenciales)

	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos@empresa.com", Password: "secreto123"})
	assert.NoError(t, err)
}

func TestLogin_UsuarioDesconocido(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "nadie@empresa.com", Password: "x"})
	assert.ErrorIs(t, err, service.ErrCredenciales)

	require.Len(t, f.auditoria.entries, 1)
	e := f.auditoria.entries[0]
	assert.Equal(t, model.AccionLoginFallido, e.Accion)
	assert.Nil(t, e.UsuarioID)
	assert.Equal(t, "Sistema", e.UsuarioNombre)
}

func TestLogin_ActualizaHashLegacy(t *testing.T) {
	f := newAuthFixture()
	sum := sha256.Sum256([]byte("clave-antigua"))
	u := &model.Usuario{
		Username:     "legacy",
		Email:        "legacy@empresa.com",
		PasswordHash: hex.EncodeToString(sum[:]),
		Rol:          model.RolEmpleado,
	}
	require.NoError(t, f.usuarios.Create(context.Background(), u))

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "legacy@empresa.com", Password: "clave-antigua"})
	require.NoError(t, err)

	stored := f.usuarios.users[u.ID].PasswordHash
	assert.True(t, strings.HasPrefix(stored, "$2"), "hash should now be bcrypt, got %q", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("clave-antigua")))

	// second login goes through bcrypt
	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "legacy", Password: "clave-antigua"})
	assert.NoError(t, err)
	assert.Equal(t, stored, f.usuarios.users[u.ID].PasswordHash)
}

func TestLogin_HashLegacyIncorrecto(t *testing.T) {
	f := newAuthFixture()
	sum := sha256.Sum256([]byte("clave-antigua"))
	legacy := hex.EncodeToString(sum[:])
	u := &model.Usuario{Username: "legacy", Email: "legacy@empresa.com", PasswordHash: legacy, Rol: model.RolEmpleado}
	require.NoError(t, f.usuarios.Create(context.Background(), u))

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "legacy", Password: "otra"})
	assert.ErrorIs(t, err, service.ErrCredenciales)
	assert.Equal(t, legacy, f.usuarios.users[u.ID].PasswordHash)
}

func TestLogout_InvalidaToken(t *testing.T) {
	f := newAuthFixture()
	f.usuario(t, "carlos@empresa.com", "secreto123")

	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos", Password: "secreto123"})
	require.NoError(t, err)
	claims, err := f.svc.ValidarToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), claims.ID))
	_, err = f.svc.ValidarToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, service.ErrSesionInvalida)
}

func TestValidarToken_OtraFirma(t *testing.T) {
	f := newAuthFixture()
	f.usuario(t, "carlos@empresa.com", "secreto123")
	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos", Password: "secreto123"})
	require.NoError(t, err)

	otro := service.NewAuthService(f.usuarios, f.sesiones, nil, &config.Config{JWTSecret: "otro-secreto", JWTExpirationHours: 8})
	_, err = otro.ValidarToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, service.ErrSesionInvalida)

	_, err = f.svc.ValidarToken(context.Background(), "no-es-un-jwt")
	assert.ErrorIs(t, err, service.ErrSesionInvalida)
}

func TestCambiarPassword(t *testing.T) {
	f := newAuthFixture()
	u := f.usuario(t, "carlos@empresa.com", "secreto123")
	actor := service.Actor{ID: u.ID, Username: u.Username}

	err := f.svc.CambiarPassword(context.Background(), actor, dto.CambiarPasswordRequest{PasswordActual: "mal", PasswordNuevo: "nueva-clave-1"})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "password_actual")

	require.NoError(t, f.svc.CambiarPassword(context.Background(), actor, dto.CambiarPasswordRequest{PasswordActual: "secreto123", PasswordNuevo: "nueva-clave-1"}))
	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos", Password: "nueva-clave-1"})
	assert.NoError(t, err)
	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "carlos", Password: "secreto123"})
	assert.ErrorIs(t, err, service.ErrCredenciales)
}

func TestSetup_SoloUnaVez(t *testing.T) {
	f := newAuthFixture()

	estado, err := f.svc.EstadoSetup(context.Background())
	require.NoError(t, err)
	assert.False(t, estado.Completado)

	admin, err := f.svc.Setup(context.Background(), dto.SetupRequest{NombreCompleto: "Admin", Email: "admin@empresa.com", Password: "admin-inicial"})
	require.NoError(t, err)
	assert.Equal(t, model.RolAdministrador, admin.Rol)
	assert.Equal(t, "admin", admin.Username)
	assert.True(t, f.sesiones.setup)

	_, err = f.svc.Setup(context.Background(), dto.SetupRequest{NombreCompleto: "Otro", Email: "otro@empresa.com", Password: "admin-inicial"})
	assert.ErrorIs(t, err, service.ErrConflicto)
}

func TestEstadoSetup_UsuariosExistentes(t *testing.T) {
	f := newAuthFixture()
	require.NoError(t, f.usuarios.Create(context.Background(), &model.Usuario{ID: uuid.New(), Username: "x", Email: "x@x.com"}))

	estado, err := f.svc.EstadoSetup(context.Background())
	require.NoError(t, err)
	assert.True(t, estado.Completado)
}
