package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"morningfocus/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "x"}, nil
}

func TestEnqueueReminder(t *testing.T) {
	q := &fakeQueue{}
	payload := models.ReminderPayload{ReminderID: "evening-2024-03-01", FireDate: "2024-03-01", Title: "t", Body: "b"}
	fireAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	queued, err := EnqueueReminder(context.Background(), q, payload, fireAt)
	require.NoError(t, err)
	assert.True(t, queued)
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TypeSendReminder, q.tasks[0].Type())

	var sawID, sawAt bool
	for _, o := range q.opts[0] {
		switch o.Type() {
		case asynq.TaskIDOpt:
			sawID = o.Value() == "evening-2024-03-01"
		case asynq.ProcessAtOpt:
			sawAt = o.Value().(time.Time).Equal(fireAt)
		}
	}
	assert.True(t, sawID)
	assert.True(t, sawAt)

	got, err := ParseReminderPayload(q.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEnqueueReminderDuplicate(t *testing.T) {
	q := &fakeQueue{err: asynq.ErrTaskIDConflict}
	queued, err := EnqueueReminder(context.Background(), q, models.ReminderPayload{ReminderID: "a"}, time.Now())
	require.NoError(t, err)
	assert.False(t, queued)

	q.err = errors.New("redis down")
	_, err = EnqueueReminder(context.Background(), q, models.ReminderPayload{ReminderID: "a"}, time.Now())
	assert.Error(t, err)
}
