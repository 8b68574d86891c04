package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/config"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/infra"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/worker"
)

var dlqLimite int64

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Trabajos agotados en las colas de auditoría y alertas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		porCola := map[string][]worker.DLQEntry{}
		for _, q := range []string{worker.QueueAuditoria, worker.QueueAlertaStock} {
			entries, err := worker.DLQPeek(cmd.Context(), rdb, q, dlqLimite)
			if err != nil {
				return fmt.Errorf("dlq %s: %w", q, err)
			}
			porCola[q] = entries
		}
		if salidaJSON {
			return imprimirJSON(cmd.OutOrStdout(), porCola)
		}
		imprimirDLQ(cmd.OutOrStdout(), porCola)
		return nil
	},
}

func init() {
	dlqCmd.Flags().Int64Var(&dlqLimite, "limite", 20, "Entradas por cola")
	rootCmd.AddCommand(dlqCmd)
}

func imprimirDLQ(w io.Writer, porCola map[string][]worker.DLQEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLA\tTIPO\tINTENTOS\tFALLO\tMOTIVO")
	for _, q := range []string{worker.QueueAuditoria, worker.QueueAlertaStock} {
		for _, e := range porCola[q] {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.OriginalQueue, e.JobType, e.Attempts, e.FailedAt, e.Reason)
		}
	}
	tw.Flush()
}
