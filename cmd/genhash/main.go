// cmd/genhash/main.go: imprime el hash bcrypt de una contraseña.
// Uso: go run ./cmd/genhash <password>
package main

import (
	"fmt"
	"os"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "uso: genhash <password>")
		os.Exit(2)
	}
	h, err := service.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(h)
}
