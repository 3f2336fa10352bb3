package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/taller-erp/taller-erp/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyCustomer delivers a lifecycle notification.
	TaskTypeNotifyCustomer = "notify:customer"
	// TaskTypeSweepAssets removes stale staged media files.
	TaskTypeSweepAssets = "assets:sweep"
)

// NewNotifyCustomerTask constructs an Asynq task carrying the event.
func NewNotifyCustomerTask(ev notify.Event) (*asynq.Task, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyCustomer, data), nil
}

// NewSweepAssetsTask constructs the periodic asset sweep task.
func NewSweepAssetsTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSweepAssets, nil)
}
