package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
)

// Claims are the custom claims embedded in every access token. The
// registered ID (jti) is the session key.
type Claims struct {
	UsuarioID      string `json:"user_id"`
	Username       string `json:"username"`
	NombreCompleto string `json:"nombre_completo"`
	Rol            string `json:"rol"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the identity passed to services.
func (c *Claims) Actor() Actor {
	id, _ := uuid.Parse(c.UsuarioID)
	return Actor{ID: id, Username: c.Username, NombreCompleto: c.NombreCompleto, Rol: c.Rol}
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sesionID string) error
	// ValidarToken checks signature, expiry and that the session still exists.
	ValidarToken(ctx context.Context, token string) (*Claims, error)
	Me(ctx context.Context, usuarioID uuid.UUID) (*dto.SesionResponse, error)
	CambiarPassword(ctx context.Context, actor Actor, req dto.CambiarPasswordRequest) error
	EstadoSetup(ctx context.Context) (*dto.SetupEstadoResponse, error)
	Setup(ctx context.Context, req dto.SetupRequest) (*dto.UsuarioResponse, error)
}

type authService struct {
	repo      repository.UsuarioRepository
	sesiones  SesionStore
	auditoria AuditoriaService
	cfg       *config.Config
	now       func() time.Time
}

func NewAuthService(repo repository.UsuarioRepository, sesiones SesionStore, auditoria AuditoriaService, cfg *config.Config) AuthService {
	return &authService{repo: repo, sesiones: sesiones, auditoria: auditoria, cfg: cfg, now: time.Now}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	login := strings.TrimSpace(req.Email)
	user, err := s.repo.FindByLogin(ctx, login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auditar(ctx, s.auditoria, Actor{}, model.AccionLoginFallido, "usuarios", "", "Usuario desconocido: "+login)
		return nil, ErrCredenciales
	}
	if err != nil {
		return nil, err
	}

	ok, legacy := verificarPassword(user.PasswordHash, req.Password)
	if !ok {
		auditar(ctx, s.auditoria, actorDe(user), model.AccionLoginFallido, "usuarios", user.ID.String(), "Contraseña incorrecta para "+login)
		return nil, ErrCredenciales
	}
	if legacy {
		s.actualizarHashLegacy(ctx, user, req.Password)
	}

	horas := s.cfg.JWTExpirationHours
	if req.Recordar {
		horas = s.cfg.JWTRememberHours
	}
	ttl := time.Duration(horas) * time.Hour

	ses := Sesion{ID: uuid.NewString(), UsuarioID: user.ID.String(), Recordar: req.Recordar, CreadaEn: s.now().UTC()}
	if err := s.sesiones.Guardar(ctx, ses, ttl); err != nil {
		return nil, err
	}
	token, err := s.generateToken(user, ses.ID, ttl)
	if err != nil {
		return nil, err
	}

	auditar(ctx, s.auditoria, actorDe(user), model.AccionLogin, "usuarios", user.ID.String(), "Inicio de sesión")
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   horas * 3600,
		User:        toUsuarioResponse(user),
	}, nil
}

// actualizarHashLegacy replaces an unsalted SHA-256 digest with bcrypt after
// a successful login. Failure keeps the legacy hash for the next attempt.
func (s *authService) actualizarHashLegacy(ctx context.Context, user *model.Usuario, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, user.ID, string(hash))
	}
	if err != nil {
		log.Warn().Err(err).Str("usuario", user.Username).Msg("auth: legacy hash upgrade failed")
		return
	}
	user.PasswordHash = string(hash)
	log.Info().Str("usuario", user.Username).Msg("auth: legacy password hash upgraded to bcrypt")
}

func (s *authService) Logout(ctx context.Context, sesionID string) error {
	return s.sesiones.Eliminar(ctx, sesionID)
}

func (s *authService) ValidarToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, ErrSesionInvalida
	}
	ses, err := s.sesiones.Obtener(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if ses.UsuarioID != claims.UsuarioID {
		return nil, ErrSesionInvalida
	}
	return claims, nil
}

func (s *authService) Me(ctx context.Context, usuarioID uuid.UUID) (*dto.SesionResponse, error) {
	user, err := s.repo.FindByID(ctx, usuarioID)
	if err != nil {
		return nil, noEncontrado(err, "Usuario no encontrado")
	}
	return &dto.SesionResponse{User: toUsuarioResponse(user), Ready: true}, nil
}

func (s *authService) CambiarPassword(ctx context.Context, actor Actor, req dto.CambiarPasswordRequest) error {
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return noEncontrado(err, "Usuario no encontrado")
	}
	if ok, _ := verificarPassword(user.PasswordHash, req.PasswordActual); !ok {
		return validacion(map[string]string{"password_actual": "La contraseña actual es incorrecta"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PasswordNuevo), bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	auditar(ctx, s.auditoria, actor, model.AccionCambioPassword, "usuarios", user.ID.String(), "Cambio de contraseña")
	return nil
}

func (s *authService) EstadoSetup(ctx context.Context) (*dto.SetupEstadoResponse, error) {
	hecho, err := s.sesiones.SetupCompletado(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("auth: setup flag unavailable, falling back to user count")
	}
	if hecho {
		return &dto.SetupEstadoResponse{Completado: true}, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SetupEstadoResponse{Completado: n > 0}, nil
}

func (s *authService) Setup(ctx context.Context, req dto.SetupRequest) (*dto.UsuarioResponse, error) {
	estado, err := s.EstadoSetup(ctx)
	if err != nil {
		return nil, err
	}
	if estado.Completado {
		return nil, conMensaje(ErrConflicto, "La configuración inicial ya fue completada")
	}
	u, err := crearUsuario(ctx, s.repo, dto.CrearUsuarioRequest{
		NombreCompleto: req.NombreCompleto,
		Email:          req.Email,
		Password:       req.Password,
		Rol:            model.RolAdministrador,
	})
	if err != nil {
		return nil, err
	}
	if err := s.sesiones.MarcarSetup(ctx); err != nil {
		log.Warn().Err(err).Msg("auth: could not persist setup flag")
	}
	auditar(ctx, s.auditoria, actorDe(u), model.AccionCrear, "usuarios", u.ID.String(), "Configuración inicial: administrador "+u.Username)
	resp := toUsuarioResponse(u)
	return &resp, nil
}

func (s *authService) generateToken(user *model.Usuario, jti string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UsuarioID:      user.ID.String(),
		Username:       user.Username,
		NombreCompleto: user.NombreCompleto,
		Rol:            user.Rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func actorDe(u *model.Usuario) Actor {
	return Actor{ID: u.ID, Username: u.Username, NombreCompleto: u.NombreCompleto, Rol: u.Rol}
}

var reSHA256Hex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// verificarPassword reports whether password matches hash and whether hash is
// a legacy SHA-256 hex digest that should be replaced.
func verificarPassword(hash, password string) (ok, legacy bool) {
	if reSHA256Hex.MatchString(hash) {
		sum := sha256.Sum256([]byte(password))
		digest := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(hash))) == 1, true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
}

// HashPassword returns the bcrypt hash stored for new passwords.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
