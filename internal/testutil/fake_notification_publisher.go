package testutil

import (
	"context"
	"sync"

	"github.com/youngchun/callforward/internal/notification"
	"github.com/youngchun/callforward/internal/types"
)

var _ notification.Publisher = (*FakeNotificationPublisher)(nil)

// FakeNotificationPublisher keeps published call tasks in memory
type FakeNotificationPublisher struct {
	mu    sync.Mutex
	Err   error
	tasks []*notification.CallTask
}

func NewFakeNotificationPublisher() *FakeNotificationPublisher {
	return &FakeNotificationPublisher{}
}

func (p *FakeNotificationPublisher) PublishCallTask(ctx context.Context, task *notification.CallTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	if task.ID == "" {
		task.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TASK)
	}
	c := *task
	p.tasks = append(p.tasks, &c)
	return nil
}

func (p *FakeNotificationPublisher) Tasks() []*notification.CallTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*notification.CallTask(nil), p.tasks...)
}
