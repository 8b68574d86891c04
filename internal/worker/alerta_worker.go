package worker

// alerta_worker.go
// Processes low-stock jobs from QueueAlertaStock. Mails ALERT_EMAIL when SMTP
// is configured, otherwise only logs the alert.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// AlertaStockPayload lists the products a sale left at or below minimum.
type AlertaStockPayload struct {
	VentaID   string           `json:"venta_id"`
	Productos []ProductoAlerta `json:"productos"`
}

type ProductoAlerta struct {
	ProductoID  string `json:"producto_id"`
	Nombre      string `json:"nombre"`
	SKU         string `json:"sku"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
}

// Notificador is satisfied by *infra.Mailer.
type Notificador interface {
	Configurado() bool
	Enviar(to, subject, body string) error
}

type AlertaStockWorker struct {
	mailer       Notificador
	destinatario string
}

func NewAlertaStockWorker(mailer Notificador, destinatario string) *AlertaStockWorker {
	return &AlertaStockWorker{mailer: mailer, destinatario: destinatario}
}

func (w *AlertaStockWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p AlertaStockPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("alerta_worker: invalid payload: %w", err)
	}
	if len(p.Productos) == 0 {
		return nil
	}
	if w.mailer == nil || !w.mailer.Configurado() || w.destinatario == "" {
		for _, pr := range p.Productos {
			log.Warn().Str("sku", pr.SKU).Int("stock", pr.StockActual).Int("minimo", pr.StockMinimo).Msg("alerta_worker: stock bajo")
		}
		return nil
	}

	subject, body := CuerpoAlerta(p)
	if err := w.mailer.Enviar(w.destinatario, subject, body); err != nil {
		return fmt.Errorf("alerta_worker: send: %w", err)
	}
	log.Info().Str("to", w.destinatario).Int("productos", len(p.Productos)).Msg("alerta_worker: alert sent")
	return nil
}

// CuerpoAlerta renders the subject and plain-text body of the alert mail.
func CuerpoAlerta(p AlertaStockPayload) (string, string) {
	var b strings.Builder
	b.WriteString("Los siguientes productos quedaron en o por debajo del stock mínimo")
	if p.VentaID != "" {
		fmt.Fprintf(&b, " tras la venta %s", p.VentaID)
	}
	b.WriteString(":\n\n")
	for _, pr := range p.Productos {
		fmt.Fprintf(&b, "- %s (%s): %d unidades, mínimo %d\n", pr.Nombre, pr.SKU, pr.StockActual, pr.StockMinimo)
	}
	return fmt.Sprintf("Stock bajo: %d producto(s)", len(p.Productos)), b.String()
}
