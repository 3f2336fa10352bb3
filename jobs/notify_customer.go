package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/taller-erp/taller-erp/internal/customers"
	"github.com/taller-erp/taller-erp/internal/notify"
	"github.com/taller-erp/taller-erp/internal/quotes"
	"github.com/taller-erp/taller-erp/report"
)

// NotifyCustomerJob delivers a lifecycle notification through the dispatcher.
// Quote notifications additionally render the PDF here, off the request path,
// so a slow Gotenberg call never delays a lifecycle transition.
type NotifyCustomerJob struct {
	AppName    string
	Dispatcher *notify.Dispatcher
	Quotes     *quotes.Service
	Customers  *customers.Service
	PDF        *report.Client
	Logger     *slog.Logger
}

// Handle executes the delivery. Channel failures are already absorbed by the
// dispatcher; the task only retries on payload or rendering problems.
func (j *NotifyCustomerJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dispatcher == nil {
		return errors.New("notify customer: handler not configured")
	}
	var ev notify.Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger().With(
		slog.String("event", string(ev.Type)),
		slog.Int64("customer_id", ev.CustomerID),
	)

	if ev.Type == notify.EventQuoteSent && ev.Attachment == nil {
		attachment, err := j.renderQuotePDF(ctx, ev)
		if err != nil {
			logger.Error("render quote pdf", slog.Any("error", err))
			return err
		}
		ev.Attachment = attachment
	}

	results := j.Dispatcher.Notify(ctx, ev)
	for _, r := range results {
		if r.Success {
			logger.Info("notification delivered", slog.String("channel", r.Channel))
		} else {
			logger.Warn("notification failed", slog.String("channel", r.Channel), slog.Any("error", r.Error))
		}
	}
	return nil
}

func (j *NotifyCustomerJob) renderQuotePDF(ctx context.Context, ev notify.Event) (*notify.Attachment, error) {
	if j.PDF == nil || j.Quotes == nil || j.Customers == nil {
		return nil, nil
	}
	quote, err := j.Quotes.Get(ctx, ev.EntityID)
	if err != nil {
		return nil, err
	}
	customer, err := j.Customers.Get(ctx, quote.CustomerID)
	if err != nil {
		return nil, err
	}

	doc := report.QuoteDocument{
		AppName:          j.AppName,
		Quote:            quote,
		CustomerName:     customer.FullName(),
		CustomerLastName: customer.LastName,
	}
	html, err := report.RenderQuoteHTML(doc)
	if err != nil {
		return nil, err
	}
	pdf, err := j.PDF.RenderHTML(ctx, html)
	if err != nil {
		return nil, err
	}
	return &notify.Attachment{
		Filename: doc.Filename(),
		MIMEType: "application/pdf",
		Data:     pdf,
	}, nil
}

func (j *NotifyCustomerJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeNotifyCustomer))
	}
	return slog.Default().With(slog.String("job", TaskTypeNotifyCustomer))
}
