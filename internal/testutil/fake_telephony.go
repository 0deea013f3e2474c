package testutil

import (
	"context"
	"fmt"
	"sync"

	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/telephony"
)

var _ telephony.Provider = (*FakeTelephonyProvider)(nil)

// FakeTelephonyProvider records provider calls and hands out sequential numbers
type FakeTelephonyProvider struct {
	mu sync.Mutex

	searches  int
	purchases int
	releases  []string
	sent      []telephony.SMS

	// NoNumbers makes SearchAvailable report an empty inventory
	NoNumbers   bool
	SearchErr   error
	PurchaseErr error
	ReleaseErr  error
	SendErr     error
}

func NewFakeTelephonyProvider() *FakeTelephonyProvider {
	return &FakeTelephonyProvider{}
}

func (p *FakeTelephonyProvider) SearchAvailable(ctx context.Context, country string) (*telephony.AvailableNumber, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.searches++
	if p.SearchErr != nil {
		return nil, p.SearchErr
	}
	if p.NoNumbers {
		return nil, nil
	}
	return &telephony.AvailableNumber{PhoneNumber: fmt.Sprintf("+1555000%04d", p.purchases+1)}, nil
}

func (p *FakeTelephonyProvider) Purchase(ctx context.Context, phoneNumber, voiceURL string) (*telephony.PurchasedNumber, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.PurchaseErr != nil {
		return nil, ierr.WithError(p.PurchaseErr).
			WithHint("Failed to purchase phone number").
			Mark(ierr.ErrProviderPurchaseFailed)
	}
	p.purchases++
	return &telephony.PurchasedNumber{
		PhoneNumber: phoneNumber,
		ResourceID:  fmt.Sprintf("PN%032d", p.purchases),
	}, nil
}

func (p *FakeTelephonyProvider) Release(ctx context.Context, resourceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ReleaseErr != nil {
		return ierr.WithError(p.ReleaseErr).
			WithHint("Failed to release phone number").
			Mark(ierr.ErrProviderReleaseFailed)
	}
	p.releases = append(p.releases, resourceID)
	return nil
}

func (p *FakeTelephonyProvider) SendSMS(ctx context.Context, msg telephony.SMS) (*telephony.SentMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SendErr != nil {
		return nil, p.SendErr
	}
	p.sent = append(p.sent, msg)
	return &telephony.SentMessage{Sid: fmt.Sprintf("SM%032d", len(p.sent)), Status: "queued"}, nil
}

// SetReleaseErr swaps the release failure while other goroutines may be calling
func (p *FakeTelephonyProvider) SetReleaseErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ReleaseErr = err
}

func (p *FakeTelephonyProvider) Searches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searches
}

func (p *FakeTelephonyProvider) Purchases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.purchases
}

func (p *FakeTelephonyProvider) Releases() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.releases...)
}

func (p *FakeTelephonyProvider) SentMessages() []telephony.SMS {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]telephony.SMS(nil), p.sent...)
}

// FakeSignatureValidator accepts exactly one signature value
type FakeSignatureValidator struct {
	Signature string
}

func (v FakeSignatureValidator) Validate(url string, params map[string]string, signature string) bool {
	return signature != "" && signature == v.Signature
}
