package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CloudGateway talks to a WhatsApp cloud-style HTTP API. It is a black-box
// HTTP client; any non-2xx response or transport error is a send failure.
type CloudGateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewCloudGateway constructs a gateway against the given API endpoint.
func NewCloudGateway(baseURL, token string, timeout time.Duration) *CloudGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CloudGateway{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsConfigured reports whether the gateway has an endpoint and credentials.
func (g *CloudGateway) IsConfigured() bool {
	return g != nil && g.baseURL != "" && g.token != ""
}

type cloudMessage struct {
	To       string         `json:"to"`
	Type     string         `json:"type"`
	Text     *cloudText     `json:"text,omitempty"`
	Image    *cloudMedia    `json:"image,omitempty"`
	Document *cloudDocument `json:"document,omitempty"`
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudMedia struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type cloudDocument struct {
	Link     string `json:"link"`
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
}

// SendText delivers a plain text message.
func (g *CloudGateway) SendText(ctx context.Context, phone, message string) error {
	return g.post(ctx, cloudMessage{To: phone, Type: "text", Text: &cloudText{Body: message}})
}

// SendImage delivers an image by public URL with a caption.
func (g *CloudGateway) SendImage(ctx context.Context, phone, imageURL, caption string) error {
	return g.post(ctx, cloudMessage{To: phone, Type: "image", Image: &cloudMedia{Link: imageURL, Caption: caption}})
}

// SendDocument delivers a document by public URL.
func (g *CloudGateway) SendDocument(ctx context.Context, phone, docURL, filename, caption, mimeType string) error {
	_ = mimeType // the cloud API infers the type from the served content
	return g.post(ctx, cloudMessage{To: phone, Type: "document", Document: &cloudDocument{Link: docURL, Filename: filename, Caption: caption}})
}

func (g *CloudGateway) post(ctx context.Context, msg cloudMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/messages", g.baseURL), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("whatsapp: api returned status %d", resp.StatusCode)
	}
	return nil
}
