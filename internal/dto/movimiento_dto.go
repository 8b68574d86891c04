package dto

const (
	VistaAgrupada = "agrupada"
	VistaPlana    = "plana"
)

type EntradaRequest struct {
	ProductoID string  `json:"producto_id" validate:"required,uuid"`
	Cantidad   int     `json:"cantidad"    validate:"required,gt=0"`
	Motivo     string  `json:"motivo"      validate:"required,max=200"`
	Notas      *string `json:"notas"       validate:"omitempty,max=1000"`
}

type MovimientoFilter struct {
	Tipo       string `form:"tipo"        validate:"omitempty,oneof=entrada salida"`
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Vista      string `form:"vista"       validate:"omitempty,oneof=agrupada plana"`
	Debug      bool   `form:"debug"`
	Desde      string `form:"desde"`
	Hasta      string `form:"hasta"`
	Limit      int    `form:"limit,default=200" validate:"min=1,max=1000"`
}

// MovimientoListResponse holds either grouped rows or the flat expanded list
// depending on Vista.
type MovimientoListResponse struct {
	Vista string `json:"vista"`
	Total int    `json:"total"`
	Data  any    `json:"data"`
}

// ImportarMovimientosRequest accepts legacy rows in either known layout.
type ImportarMovimientosRequest struct {
	Filas []map[string]any `json:"filas" validate:"required,min=1,max=1000"`
}

type ImportarMovimientosResponse struct {
	Importados int      `json:"importados"`
	Omitidos   int      `json:"omitidos"`
	Errores    []string `json:"errores,omitempty"`
}
