package subscription

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/youngchun/callforward/internal/types"
)

func TestMerge(t *testing.T) {
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	existing := &Subscription{
		ID:                 "sub_1",
		CustomerID:         "cus_1",
		Status:             types.SubscriptionStatusActive,
		CurrentPeriodStart: &march,
		CurrentPeriodEnd:   &may,
		UserID:             lo.ToPtr("u1"),
	}

	t.Run("status is last write wins and periods never move back", func(t *testing.T) {
		merged := Merge(existing, &Subscription{
			ID:               "sub_1",
			Status:           types.SubscriptionStatusPending,
			CurrentPeriodEnd: &april,
		})
		assert.Equal(t, types.SubscriptionStatusPending, merged.Status)
		assert.Equal(t, may, *merged.CurrentPeriodEnd)
		assert.Equal(t, march, *merged.CurrentPeriodStart)
		assert.Equal(t, "cus_1", merged.CustomerID)
	})

	t.Run("nil periods keep existing values", func(t *testing.T) {
		merged := Merge(existing, &Subscription{ID: "sub_1", Status: types.SubscriptionStatusCanceled})
		assert.Equal(t, may, *merged.CurrentPeriodEnd)
		assert.Equal(t, types.SubscriptionStatusCanceled, merged.Status)
	})

	t.Run("user id keeps first non-null", func(t *testing.T) {
		merged := Merge(existing, &Subscription{ID: "sub_1", Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u2")})
		assert.Equal(t, "u1", merged.GetUserID())

		unmapped := &Subscription{ID: "sub_2", Status: types.SubscriptionStatusActive}
		merged = Merge(unmapped, &Subscription{ID: "sub_2", Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u2")})
		assert.Equal(t, "u2", merged.GetUserID())
	})

	t.Run("insert copies incoming", func(t *testing.T) {
		merged := Merge(nil, existing)
		assert.Equal(t, existing.ID, merged.ID)
		assert.NotSame(t, existing, merged)
	})
}

func TestIsEntitled(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 1, 0)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"active with user and future end", &Subscription{Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u1"), CurrentPeriodEnd: &end}, true},
		{"pending", &Subscription{Status: types.SubscriptionStatusPending, UserID: lo.ToPtr("u1"), CurrentPeriodEnd: &end}, false},
		{"no user", &Subscription{Status: types.SubscriptionStatusActive, CurrentPeriodEnd: &end}, false},
		{"blank user", &Subscription{Status: types.SubscriptionStatusActive, UserID: lo.ToPtr(""), CurrentPeriodEnd: &end}, false},
		{"ended", &Subscription{Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u1"), CurrentPeriodEnd: &past}, false},
		{"no period", &Subscription{Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u1")}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsEntitled(now))
		})
	}
}

func TestLifecycleEventValidate(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	valid := LifecycleEvent{SubscriptionID: "sub_1", Status: types.SubscriptionStatusActive, PeriodStart: &start, PeriodEnd: &end}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.SubscriptionID = " "
	assert.Error(t, missing.Validate())

	inverted := valid
	inverted.PeriodStart, inverted.PeriodEnd = &end, &start
	assert.Error(t, inverted.Validate())

	unknown := valid
	unknown.Status = types.SubscriptionStatus("weird")
	assert.Error(t, unknown.Validate())

	sub := valid.ToSubscription(start)
	assert.Nil(t, sub.UserID)
	valid.UserID = "u1"
	assert.Equal(t, "u1", valid.ToSubscription(start).GetUserID())
}
