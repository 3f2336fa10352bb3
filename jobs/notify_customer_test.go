package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/notify"
	_ "github.com/taller-erp/taller-erp/internal/testing/guard"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyCustomerTaskRoundTrip(t *testing.T) {
	ev := notify.Event{
		Type:         notify.EventRepairStatus,
		CustomerID:   42,
		EntityID:     7,
		EntityNumber: "RO-2025-00007",
		Status:       "REPAIRED",
		Recipient:    notify.Recipient{Name: "Maria Quispe", Email: "maria@example.com"},
	}

	task, err := NewNotifyCustomerTask(ev)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeNotifyCustomer, task.Type())

	var decoded notify.Event
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, ev, decoded)
}

func TestHandleSkipsMalformedPayload(t *testing.T) {
	job := &NotifyCustomerJob{
		AppName:    "Taller",
		Dispatcher: notify.NewDispatcher(notify.Config{AppName: "Taller"}, discardLogger(), nil, nil, nil, nil),
		Logger:     discardLogger(),
	}

	task := asynq.NewTask(TaskTypeNotifyCustomer, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleWithoutChannelsSucceeds(t *testing.T) {
	job := &NotifyCustomerJob{
		AppName:    "Taller",
		Dispatcher: notify.NewDispatcher(notify.Config{AppName: "Taller"}, discardLogger(), nil, nil, nil, nil),
		Logger:     discardLogger(),
	}

	// No email and no phone: the dispatcher attempts nothing and the task
	// completes without error.
	ev := notify.Event{Type: notify.EventRepairStatus, CustomerID: 1, Status: "REPAIRED"}
	task, err := NewNotifyCustomerTask(ev)
	require.NoError(t, err)

	assert.NoError(t, job.Handle(context.Background(), task))
}
