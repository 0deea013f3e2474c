package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/youngchun/callforward/internal/types"
)

func TestLinkCheck(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)

	tests := []struct {
		name   string
		link   *Link
		valid  bool
		reason types.LeaveLinkInvalidReason
	}{
		{"missing", nil, false, types.LeaveLinkReasonNotFound},
		{"active", &Link{ExpiresAt: now.Add(time.Hour), Status: types.LeaveLinkStatusActive}, true, ""},
		{"expired", &Link{ExpiresAt: now.Add(-time.Hour), Status: types.LeaveLinkStatusActive}, false, types.LeaveLinkReasonExpired},
		{"used", &Link{ExpiresAt: now.Add(time.Hour), UsedAt: &used, Status: types.LeaveLinkStatusUsed}, false, types.LeaveLinkReasonUsed},
		{"expired wins over used", &Link{ExpiresAt: now.Add(-time.Hour), UsedAt: &used}, false, types.LeaveLinkReasonExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, reason := tt.link.Check(now)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
