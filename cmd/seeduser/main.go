// cmd/seeduser/main.go: crea o actualiza el administrador inicial.
// Uso: go run ./cmd/seeduser -email admin@inventario.local -password secreto123
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/model"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "admin@inventario.local", "email del administrador")
	password := flag.String("password", "", "contraseña (mínimo 8 caracteres)")
	nombre := flag.String("nombre", "Administrador", "nombre completo")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("la contraseña debe tener al menos 8 caracteres")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}
	username := strings.ToLower(strings.SplitN(*email, "@", 2)[0])

	result := db.WithContext(context.Background()).Exec(`
		INSERT INTO usuarios (username, nombre_completo, email, password_hash, rol)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    nombre_completo = EXCLUDED.nombre_completo,
		    email = EXCLUDED.email,
		    rol = EXCLUDED.rol,
		    updated_at = now()
	`, username, *nombre, strings.ToLower(*email), hash, model.RolAdministrador)

	if result.Error != nil {
		log.Fatal().Err(result.Error).Msg("insert error")
	}
	fmt.Printf("Usuario '%s' (%s) creado/actualizado como %s\n", username, *email, model.RolAdministrador)
}
