package inventory

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BarcodeSuffixLen longitud del sufijo aleatorio del código de barras.
const BarcodeSuffixLen = 6

// ComposeBarcode arma el código de barras de tienda: tienda + ubicación + SKU + sufijo.
// Cada parte se normaliza a [A-Z0-9] (sin tildes) para que sea imprimible en Code128.
func ComposeBarcode(storeCode, locationCode, sku, suffix string) string {
	var b strings.Builder
	for _, part := range []string{storeCode, locationCode, sku, suffix} {
		b.WriteString(NormalizeCode(part))
	}
	return b.String()
}

// NormalizeCode quita diacríticos, pasa a mayúsculas y descarta todo lo que no sea A-Z o 0-9.
func NormalizeCode(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = strings.ToUpper(plain)
	var b strings.Builder
	for _, r := range plain {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RandomSuffix sufijo aleatorio en mayúsculas hexadecimales.
func RandomSuffix() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(id[:BarcodeSuffixLen])
}
