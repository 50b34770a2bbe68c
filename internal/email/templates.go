package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
)

const subjectOffer = "Tu oferta por tu auto está lista"

type offerEmailData struct {
	ConsumerName   string
	VehicleLabel   string
	OfferFormatted string
}

var offerTemplate = template.Must(template.New("offer").Parse(`<!DOCTYPE html>
<html lang="es">
<body style="font-family: Arial, sans-serif; color: #1a1a1a;">
  <h2>¡Tenemos una oferta para ti{{if .ConsumerName}}, {{.ConsumerName}}{{end}}!</h2>
  <p>Gracias por cotizar tu <strong>{{.VehicleLabel}}</strong> con nosotros.</p>
  <p style="font-size: 24px; font-weight: bold;">{{.OfferFormatted}}</p>
  <p>Un asesor se pondrá en contacto contigo para agendar la inspección.</p>
</body>
</html>`))

func renderOfferEmail(data offerEmailData) (string, error) {
	var buf bytes.Buffer
	if err := offerTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render offer email: %w", err)
	}
	return buf.String(), nil
}

// formatCurrencyMXN formats an offer amount for display, e.g. "$185,000 MXN".
func formatCurrencyMXN(amount float64) string {
	digits := strconv.FormatFloat(amount, 'f', 0, 64)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 && digits[i-1] != '-' {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, d)
	}
	return "$" + string(grouped) + " MXN"
}
