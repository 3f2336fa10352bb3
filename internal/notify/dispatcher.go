package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taller-erp/taller-erp/internal/identity"
)

// Channel names reported in results and metrics.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// ChannelResult is the per-channel outcome of a dispatch. Callers and tests
// assert on these without depending on the real network.
type ChannelResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MetricsObserver records channel outcomes.
type MetricsObserver interface {
	ObserveNotification(channel string, success bool)
}

// Config carries the branding and URL settings the dispatcher needs.
type Config struct {
	AppName       string
	PublicBaseURL string
	PortalPrefix  string
}

// Dispatcher fans an event out to the configured channels. Every channel
// attempt is isolated: a failure is caught, logged and reported in the
// result slice, and Notify itself never returns an error.
type Dispatcher struct {
	cfg     Config
	logger  *slog.Logger
	mailer  Mailer
	gateway Gateway
	assets  AssetStore
	metrics MetricsObserver
}

// NewDispatcher constructs a Dispatcher. mailer, gateway and assets may be
// nil; the corresponding channels are then skipped.
func NewDispatcher(cfg Config, logger *slog.Logger, mailer Mailer, gateway Gateway, assets AssetStore, metrics MetricsObserver) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		logger:  logger,
		mailer:  mailer,
		gateway: gateway,
		assets:  assets,
		metrics: metrics,
	}
}

// Notify delivers the event on every available channel and returns the
// per-channel outcomes. Email is attempted whenever the recipient has an
// address; WhatsApp only when the gateway is configured and the recipient
// has a phone number.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) []ChannelResult {
	portalURL := identity.PortalURL(d.cfg.PublicBaseURL, d.cfg.PortalPrefix, ev.Token)
	msg := buildMessage(d.cfg.AppName, ev, portalURL)

	var results []ChannelResult
	if d.mailer != nil && ev.Recipient.Email != "" {
		results = append(results, d.attempt(ctx, ChannelEmail, ev, func() error {
			return d.mailer.Send(ctx, ev.Recipient.Email, msg.Subject, msg.Body, d.emailAttachment(ev))
		}))
	}
	if d.gateway != nil && d.gateway.IsConfigured() && ev.Recipient.Phone != "" {
		results = append(results, d.attempt(ctx, ChannelWhatsApp, ev, func() error {
			return d.sendWhatsApp(ctx, ev, msg)
		}))
	}
	return results
}

// attempt runs one channel send, converting panics and errors into a result.
func (d *Dispatcher) attempt(ctx context.Context, channel string, ev Event, send func() error) (result ChannelResult) {
	result = ChannelResult{Channel: channel, Success: true}
	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		if !result.Success {
			d.logger.Error("notification channel failed",
				slog.String("channel", channel),
				slog.String("event", string(ev.Type)),
				slog.Int64("customer_id", ev.CustomerID),
				slog.Int64("entity_id", ev.EntityID),
				slog.String("error", result.Error),
			)
		}
		if d.metrics != nil {
			d.metrics.ObserveNotification(channel, result.Success)
		}
	}()
	if err := send(); err != nil {
		result.Success = false
		result.Error = err.Error()
	}
	return result
}

// emailAttachment picks the attachment for the email channel: the explicit
// event attachment, or a freshly rendered QR image for welcome events.
func (d *Dispatcher) emailAttachment(ev Event) *Attachment {
	if ev.Attachment != nil {
		return ev.Attachment
	}
	if ev.Type == EventWelcome && ev.Token != "" {
		img, format, err := identity.RenderQR(identity.PortalURL(d.cfg.PublicBaseURL, d.cfg.PortalPrefix, ev.Token))
		if err != nil {
			d.logger.Warn("render welcome qr", slog.Int64("customer_id", ev.CustomerID), slog.Any("error", err))
			return nil
		}
		return &Attachment{Filename: qrFilename(format), MIMEType: string(format), Data: img}
	}
	return nil
}

// sendWhatsApp delivers the event over the messaging gateway. Media sends
// stage the asset at a public URL first; the staged file is removed best
// effort once the send attempt finishes.
func (d *Dispatcher) sendWhatsApp(ctx context.Context, ev Event, msg Message) error {
	phone := ev.Recipient.Phone

	switch {
	case ev.Attachment != nil:
		url, name, err := d.stage(ctx, ev.Attachment.Filename, ev.Attachment.Data)
		if err != nil {
			return err
		}
		defer d.cleanup(ctx, name)
		return d.gateway.SendDocument(ctx, phone, url, ev.Attachment.Filename, msg.Body, ev.Attachment.MIMEType)

	case ev.Type == EventWelcome && ev.Token != "":
		img, format, err := identity.RenderQR(identity.PortalURL(d.cfg.PublicBaseURL, d.cfg.PortalPrefix, ev.Token))
		if err != nil {
			return err
		}
		url, name, err := d.stage(ctx, qrFilename(format), img)
		if err != nil {
			return err
		}
		defer d.cleanup(ctx, name)
		return d.gateway.SendImage(ctx, phone, url, msg.Body)

	default:
		return d.gateway.SendText(ctx, phone, msg.Body)
	}
}

func (d *Dispatcher) stage(ctx context.Context, filename string, data []byte) (string, string, error) {
	if d.assets == nil {
		return "", "", fmt.Errorf("notify: no asset store configured for media send")
	}
	return d.assets.Put(ctx, filename, data)
}

func (d *Dispatcher) cleanup(ctx context.Context, name string) {
	if err := d.assets.Remove(ctx, name); err != nil {
		d.logger.Warn("asset cleanup", slog.String("asset", name), slog.Any("error", err))
	}
}

func qrFilename(format identity.Format) string {
	if format == identity.FormatSVG {
		return "qr.svg"
	}
	return "qr.png"
}
