// cmd/diagnostico: consultas de solo lectura sobre la base.
// Uso: go run ./cmd/diagnostico conteos | dashboard [--json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var salidaJSON bool

var rootCmd = &cobra.Command{
	Use:   "diagnostico",
	Short: "Diagnóstico del inventario",
	Long: `Imprime los mismos agregados que expone la API (conteos por tabla y
tablero) leyendo directamente de la base configurada en DATABASE_URL.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&salidaJSON, "json", false, "Imprime la salida como JSON")
	rootCmd.AddCommand(conteosCmd, dashboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
