// issue_token emite un JWT firmado con JWT_SECRET para pruebas locales y scripts.
//
// Uso: go run ./cmd/issue_token -role operador -user 7
//
//	go run ./cmd/issue_token -role cliente -user 12 -client 3
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/pkg/config"
	"github.com/jhoicas/logistica-api/pkg/jwt"
)

func main() {
	role := flag.String("role", entity.RoleOperador, "admin | operador | conductor | cliente")
	userID := flag.Int64("user", 1, "id de usuario (sub)")
	clientID := flag.Int64("client", 0, "cliente al que queda restringido el rol cliente")
	minutes := flag.Int("exp", 0, "minutos de validez; 0 = JWT_EXPIRATION_MINUTES")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	if !entity.IsValidRole(*role) {
		fmt.Fprintf(os.Stderr, "Rol desconocido %q\n", *role)
		os.Exit(2)
	}
	if *role == entity.RoleCliente && *clientID <= 0 {
		fmt.Fprintln(os.Stderr, "El rol cliente requiere -client")
		os.Exit(2)
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}

	token, err := jwt.Generate(cfg.JWT.Secret, *userID, *role, *clientID, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
