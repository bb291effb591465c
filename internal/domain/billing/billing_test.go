package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPastDue, false},
		{StatusActive, StatusPastDue, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusPending, false},
		{StatusPastDue, StatusActive, true},
		{StatusPastDue, StatusCancelled, true},
		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusPending, false},
		{StatusActive, StatusActive, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(14990), ToMinorUnits(decimal.RequireFromString("149.90")))
	assert.Equal(t, int64(5000), ToMinorUnits(decimal.NewFromInt(50)))
	assert.True(t, decimal.RequireFromString("149.90").Equal(FromMinorUnits(14990)))
	assert.True(t, decimal.Zero.Equal(FromMinorUnits(0)))
}

func TestInGoodStanding(t *testing.T) {
	assert.True(t, (&Subscription{Status: StatusActive}).InGoodStanding())
	assert.True(t, (&Subscription{Status: StatusPastDue}).InGoodStanding())
	assert.False(t, (&Subscription{Status: StatusPending}).InGoodStanding())
	assert.False(t, (&Subscription{Status: StatusCancelled}).InGoodStanding())
}
