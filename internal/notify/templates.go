package notify

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameCaser = cases.Title(language.Spanish)

// statusCopy holds the customer-facing wording per repair order status.
// Unknown statuses fall back to a generic message rather than erroring.
var statusCopy = map[string]string{
	"RECEIVED":      "hemos recibido tu equipo y pronto comenzaremos el diagnóstico",
	"DIAGNOSING":    "tu equipo está siendo diagnosticado por nuestro equipo técnico",
	"WAITING_PARTS": "estamos esperando repuestos para continuar con la reparación",
	"REPAIRING":     "tu equipo está en reparación",
	"QUALITY_CHECK": "tu equipo está en control de calidad",
	"REPAIRED":      "¡tu equipo está reparado! Puedes pasar a recogerlo",
	"DELIVERED":     "tu equipo fue entregado. ¡Gracias por confiar en nosotros!",
	"CANCELLED":     "tu orden de reparación fue cancelada",
}

// Message is the assembled subject and body for one event.
type Message struct {
	Subject string
	Body    string
}

// buildMessage assembles the templated copy for an event. appName brands
// the greeting; portalURL is included where a link is useful.
func buildMessage(appName string, ev Event, portalURL string) Message {
	name := nameCaser.String(ev.Recipient.Name)
	switch ev.Type {
	case EventWelcome:
		return Message{
			Subject: fmt.Sprintf("Bienvenido a %s", appName),
			Body: fmt.Sprintf(
				"Hola %s, ¡bienvenido a %s! Tu código de cliente es %s. "+
					"Escanea el código QR adjunto o visita %s para consultar tus reparaciones y cotizaciones.",
				name, appName, ev.Token, portalURL),
		}
	case EventQuoteSent:
		return Message{
			Subject: fmt.Sprintf("Cotización %s", ev.EntityNumber),
			Body: fmt.Sprintf(
				"Hola %s, te enviamos la cotización %s. Revisa el documento adjunto y respóndenos para aprobarla.",
				name, ev.EntityNumber),
		}
	case EventRepairStatus:
		copyText, ok := statusCopy[ev.Status]
		if !ok {
			copyText = fmt.Sprintf("tu orden %s cambió de estado", ev.EntityNumber)
		}
		return Message{
			Subject: fmt.Sprintf("Orden de reparación %s", ev.EntityNumber),
			Body:    fmt.Sprintf("Hola %s, %s. Orden: %s.", name, copyText, ev.EntityNumber),
		}
	default:
		return Message{
			Subject: appName,
			Body:    fmt.Sprintf("Hola %s, hay novedades en tu cuenta. Visita %s para más detalles.", name, portalURL),
		}
	}
}
