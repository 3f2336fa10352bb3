package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioGateway delivers WhatsApp messages through the Twilio API.
type TwilioGateway struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioGateway constructs a gateway with Twilio credentials. from is the
// WhatsApp-enabled sender number in E.164 format.
func NewTwilioGateway(accountSID, authToken, from string) *TwilioGateway {
	if accountSID == "" || authToken == "" || from == "" {
		return &TwilioGateway{}
	}
	return &TwilioGateway{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

// IsConfigured reports whether credentials were provided.
func (g *TwilioGateway) IsConfigured() bool {
	return g != nil && g.client != nil && g.from != ""
}

// SendText delivers a plain text message.
func (g *TwilioGateway) SendText(ctx context.Context, phone, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + phone)
	params.SetFrom("whatsapp:" + g.from)
	params.SetBody(message)
	if _, err := g.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: send text: %w", err)
	}
	return nil
}

// SendImage delivers an image by public URL with a caption.
func (g *TwilioGateway) SendImage(ctx context.Context, phone, imageURL, caption string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + phone)
	params.SetFrom("whatsapp:" + g.from)
	params.SetBody(caption)
	params.SetMediaUrl([]string{imageURL})
	if _, err := g.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: send image: %w", err)
	}
	return nil
}

// SendDocument delivers a document by public URL. Twilio derives the
// filename and type from the media it fetches.
func (g *TwilioGateway) SendDocument(ctx context.Context, phone, docURL, filename, caption, mimeType string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + phone)
	params.SetFrom("whatsapp:" + g.from)
	params.SetBody(caption)
	params.SetMediaUrl([]string{docURL})
	if _, err := g.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: send document: %w", err)
	}
	return nil
}
