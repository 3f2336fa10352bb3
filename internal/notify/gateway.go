package notify

import "context"

// Gateway abstracts the third-party WhatsApp messaging API. Implementations
// must apply bounded timeouts and surface failures as errors; the dispatcher
// converts them into per-channel results.
type Gateway interface {
	// IsConfigured reports whether the gateway has working credentials.
	IsConfigured() bool
	SendText(ctx context.Context, phone, message string) error
	SendImage(ctx context.Context, phone, imageURL, caption string) error
	SendDocument(ctx context.Context, phone, docURL, filename, caption, mimeType string) error
}
