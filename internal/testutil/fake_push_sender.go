package testutil

import (
	"context"
	"sync"

	"github.com/youngchun/callforward/internal/domain/pushsubscription"
	"github.com/youngchun/callforward/internal/push"
)

var _ push.Sender = (*FakePushSender)(nil)

// FakePushSender records deliveries; Errors maps an endpoint to the error its delivery returns
type FakePushSender struct {
	mu        sync.Mutex
	Disabled  bool
	Errors    map[string]error
	delivered []string
	payloads  [][]byte
}

func NewFakePushSender() *FakePushSender {
	return &FakePushSender{Errors: make(map[string]error)}
}

func (s *FakePushSender) Enabled() bool {
	return !s.Disabled
}

func (s *FakePushSender) Send(ctx context.Context, sub *pushsubscription.Subscription, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.Errors[sub.Endpoint]; ok {
		return err
	}
	s.delivered = append(s.delivered, sub.Endpoint)
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *FakePushSender) Delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.delivered...)
}

func (s *FakePushSender) Payloads() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.payloads...)
}
