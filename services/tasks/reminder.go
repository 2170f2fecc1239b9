package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"morningfocus/models"

	"github.com/hibiken/asynq"
)

const TypeSendReminder = "reminder:send"

// ReminderRetention keeps a finished reminder id around so a second enqueue
// for the same evening is rejected as a duplicate.
const ReminderRetention = 20 * time.Hour

// Enqueuer is the part of *asynq.Client used to queue reminders.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(payload.ReminderID),
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(ReminderRetention),
	}

	return task, opts, nil
}

// EnqueueReminder queues payload for fireAt. A reminder already queued for
// the same id is not an error.
func EnqueueReminder(ctx context.Context, q Enqueuer, payload models.ReminderPayload, fireAt time.Time) (bool, error) {
	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return false, err
	}
	if _, err := q.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func ParseReminderPayload(task *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
