package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/cache"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/dto"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/repository"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/service"
)

var conteosCmd = &cobra.Command{
	Use:   "conteos",
	Short: "Cantidad de filas por tabla",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := nuevoReporte()
		if err != nil {
			return err
		}
		conteos, err := svc.Conteos(cmd.Context())
		if err != nil {
			return fmt.Errorf("conteos: %w", err)
		}
		if salidaJSON {
			return imprimirJSON(cmd.OutOrStdout(), conteos)
		}
		imprimirConteos(cmd.OutOrStdout(), conteos)
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Agregados del tablero",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := nuevoReporte()
		if err != nil {
			return err
		}
		d, err := svc.Dashboard(cmd.Context())
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		if salidaJSON {
			return imprimirJSON(cmd.OutOrStdout(), d)
		}
		imprimirDashboard(cmd.OutOrStdout(), d)
		return nil
	},
}

func nuevoReporte() (service.ReporteService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return service.NewReporteService(
		repository.NewReporteRepository(db),
		repository.NewProductoRepository(db),
		cache.NewNopStore(nil),
	), nil
}

func imprimirJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func imprimirConteos(w io.Writer, conteos map[string]int64) {
	tablas := make([]string, 0, len(conteos))
	for t := range conteos {
		tablas = append(tablas, t)
	}
	sort.Strings(tablas)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLA\tFILAS")
	for _, t := range tablas {
		fmt.Fprintf(tw, "%s\t%d\n", t, conteos[t])
	}
	tw.Flush()
}

func imprimirDashboard(w io.Writer, d *dto.DashboardResponse) {
	imprimirConteos(w, d.Conteos)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCATEGORIA\tPRODUCTOS\tUNIDADES")
	for _, c := range d.Categorias {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", c.Nombre, c.Productos, c.Unidades)
	}
	fmt.Fprintln(tw, "\nFECHA\tENTRADAS\tSALIDAS")
	for _, t := range d.Tendencia {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", t.Fecha, t.Entradas, t.Salidas)
	}
	fmt.Fprintln(tw, "\nTOP VENDIDOS\tUNIDADES\tINGRESOS")
	for _, p := range d.TopVendidos {
		fmt.Fprintf(tw, "%s (%s)\t%d\t%s\n", p.Nombre, p.SKU, p.Unidades, p.Ingresos.StringFixed(2))
	}
	fmt.Fprintln(tw, "\nMETRICA\tVALOR\tOBJETIVO\tESTADO")
	for _, m := range d.Calidad {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.0f%%\t%s\n", m.Nombre, m.Valor, m.Objetivo, m.Estado)
	}
	tw.Flush()

	if len(d.StockBajo) > 0 {
		fmt.Fprintf(w, "\nStock bajo (%d):\n", len(d.StockBajo))
		for _, p := range d.StockBajo {
			fmt.Fprintf(w, "  %s %s: %d / mínimo %d\n", p.SKU, p.Nombre, p.StockActual, p.StockMinimo)
		}
	}
}
