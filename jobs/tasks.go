package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/boutique/internal/messaging"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	TaskBackupAutosave      = "backup:autosave"
	TaskBackupCleanup       = "backup:cleanup"
	TaskInventoryLowStock   = "inventory:low_stock_scan"
	TaskInvoicesMarkOverdue = "invoices:mark_overdue"
	TaskMessagingNewsletter = "messaging:newsletter"
)

// Schedules for the periodic tasks.
const (
	CronBackupAutosave      = "*/30 * * * *"
	CronBackupCleanup       = "15 2 * * *"
	CronInventoryLowStock   = "0 7 * * *"
	CronInvoicesMarkOverdue = "30 0 * * *"
)

// NewsletterPayload carries a newsletter request to the worker.
type NewsletterPayload struct {
	Request messaging.NewsletterRequest `json:"request"`
}

// NewBackupAutosaveTask constructs the auto-save task.
func NewBackupAutosaveTask() *asynq.Task {
	return asynq.NewTask(TaskBackupAutosave, nil)
}

// NewBackupCleanupTask constructs the backup retention task.
func NewBackupCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskBackupCleanup, nil)
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskInventoryLowStock, nil)
}

// NewMarkOverdueTask constructs the overdue invoice task.
func NewMarkOverdueTask() *asynq.Task {
	return asynq.NewTask(TaskInvoicesMarkOverdue, nil)
}

// NewNewsletterTask constructs a newsletter task.
func NewNewsletterTask(req messaging.NewsletterRequest) (*asynq.Task, error) {
	data, err := json.Marshal(NewsletterPayload{Request: req})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMessagingNewsletter, data), nil
}

// DefaultCron lists the periodic registrations of the worker.
func DefaultCron() []CronRegistration {
	return []CronRegistration{
		{Spec: CronBackupAutosave, Task: NewBackupAutosaveTask(), Options: []asynq.Option{asynq.Unique(25 * time.Minute)}},
		{Spec: CronBackupCleanup, Task: NewBackupCleanupTask()},
		{Spec: CronInventoryLowStock, Task: NewLowStockScanTask()},
		{Spec: CronInvoicesMarkOverdue, Task: NewMarkOverdueTask()},
	}
}
