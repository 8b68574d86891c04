package normalizacion

import (
	"regexp"
	"strings"
)

const patronUUID = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

var (
	reUUID      = regexp.MustCompile(patronUUID)
	reSoloUUID  = regexp.MustCompile(`^` + patronUUID + `$`)
	reNumCorto  = regexp.MustCompile(`^#?\d{1,6}$`)
	reRefVenta  = regexp.MustCompile(`(?i)^(venta|sale)[ _-]?(id)?\s*[:=#]?\s*#?\s*(` + patronUUID + `|\d+)$`)
	reResiduo   = regexp.MustCompile(`[\s#:=\-_.,()\[\]]+`)
	palabrasRef = map[string]bool{
		"venta": true, "sale": true, "id": true, "ventaid": true, "saleid": true,
		"ref": true, "referencia": true, "por": true, "de": true, "salida": true,
		"no": true, "nro": true,
	}
)

// NotaValida reports whether a free-text note is worth showing. Short
// numerics, bare UUIDs and sale references are internal identifiers.
func NotaValida(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	if reNumCorto.MatchString(t) || reSoloUUID.MatchString(t) || reRefVenta.MatchString(t) {
		return false
	}
	if reUUID.MatchString(t) && soloPalabrasRef(reUUID.ReplaceAllString(t, " ")) {
		return false
	}
	return true
}

func soloPalabrasRef(resto string) bool {
	for _, w := range reResiduo.Split(strings.ToLower(resto), -1) {
		if w != "" && !palabrasRef[w] {
			return false
		}
	}
	return true
}

// ElegirNota returns the first candidate that passes NotaValida, or "".
func ElegirNota(candidatos ...string) string {
	for _, c := range candidatos {
		if NotaValida(c) {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

// VentaIDEn extracts the first UUID embedded in s.
func VentaIDEn(s string) string {
	return strings.ToLower(reUUID.FindString(s))
}
