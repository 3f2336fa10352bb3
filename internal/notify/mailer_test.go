package notify

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIMEMessagePlainText(t *testing.T) {
	msg, err := buildMIMEMessage("no-reply@taller.local", "maria@example.com", "Bienvenida", "Hola Maria", nil)
	require.NoError(t, err)

	body := string(msg)
	assert.Contains(t, body, "From: no-reply@taller.local\r\n")
	assert.Contains(t, body, "To: maria@example.com\r\n")
	assert.Contains(t, body, "Subject: Bienvenida\r\n")
	assert.Contains(t, body, "Content-Type: text/plain; charset=utf-8\r\n\r\nHola Maria")
	assert.NotContains(t, body, "multipart/mixed")
}

func TestBuildMIMEMessageWithAttachment(t *testing.T) {
	att := &Attachment{
		Filename: "Cotizacion_COT-2025-00001_Quispe_2025-03-14.pdf",
		MIMEType: "application/pdf",
		Data:     []byte("%PDF-1.4 fake"),
	}

	msg, err := buildMIMEMessage("no-reply@taller.local", "maria@example.com", "Cotización", "Adjunto", att)
	require.NoError(t, err)

	body := string(msg)
	assert.Contains(t, body, "multipart/mixed; boundary=")
	assert.Contains(t, body, `attachment; filename="Cotizacion_COT-2025-00001_Quispe_2025-03-14.pdf"`)
	assert.Contains(t, body, "Content-Transfer-Encoding: base64")
	assert.Contains(t, body, base64.StdEncoding.EncodeToString(att.Data))
}
