package turnflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ludeme/internal/ir"
)

func fourSeats() *ir.TurnFlowConfig {
	return &ir.TurnFlowConfig{
		Seats:       []string{"us", "arvn", "nva", "vc"},
		PassActions: []string{"pass"},
		OptionMatrix: []ir.OptionMatrixRow{
			{First: "operation", Second: []string{"limitedOperation"}},
			{First: "event", Second: []string{"operation", "specialActivity"}},
		},
	}
}

func TestNewPrimesFirstTwoSeats(t *testing.T) {
	r := New(fourSeats())

	assert.Equal(t, "us", r.Card.FirstEligible)
	assert.Equal(t, "arvn", r.Card.SecondEligible)
	assert.Equal(t, "us", r.NextSeat())
	for _, s := range r.SeatOrder {
		assert.True(t, r.Eligibility[s], s)
	}
}

func TestTwoNonPassActionsCompleteTheCard(t *testing.T) {
	r := New(fourSeats())

	r = r.RecordNonPass("us", "event")
	assert.Equal(t, 1, r.Card.NonPassCount)
	assert.Equal(t, "event", r.Card.FirstActionClass)
	assert.Equal(t, "arvn", r.NextSeat())
	assert.False(t, r.CardComplete())

	r = r.RecordNonPass("arvn", "operation")
	assert.True(t, r.CardComplete())
	assert.Equal(t, []string{"us", "arvn"}, r.Card.ActedSeats)
}

func TestPassMovesToNextEligibleSeat(t *testing.T) {
	r := New(fourSeats())

	r = r.RecordPass("us")
	assert.Equal(t, "arvn", r.NextSeat())
	assert.Equal(t, "nva", r.Card.SecondEligible)

	r = r.RecordNonPass("arvn", "operation")
	assert.Equal(t, "nva", r.NextSeat())

	r = r.RecordPass("nva")
	assert.Equal(t, "vc", r.NextSeat())

	r = r.RecordPass("vc")
	assert.True(t, r.CardComplete(), "every remaining seat passed")
}

func TestEndCardEligibility(t *testing.T) {
	r := New(fourSeats())
	r = r.RecordNonPass("us", "operation")
	r = r.RecordNonPass("arvn", "limitedOperation")

	next := r.EndCard().BeginCard(nil)

	assert.False(t, next.Eligibility["us"])
	assert.False(t, next.Eligibility["arvn"])
	assert.True(t, next.Eligibility["nva"])
	assert.True(t, next.Eligibility["vc"])
	assert.Equal(t, "nva", next.NextSeat())

	// Acted seats sit out exactly one card.
	next = next.RecordNonPass("nva", "operation").RecordNonPass("vc", "operation")
	after := next.EndCard()
	assert.True(t, after.Eligibility["us"])
	assert.True(t, after.Eligibility["arvn"])
	assert.False(t, after.Eligibility["nva"])
	assert.False(t, after.Eligibility["vc"])
}

func TestEndCardLeavesOriginalUntouched(t *testing.T) {
	r := New(fourSeats()).RecordNonPass("us", "operation").RecordNonPass("arvn", "operation")
	_ = r.EndCard()

	assert.True(t, r.Eligibility["us"])
	assert.Len(t, r.Card.ActedSeats, 2)
}

func TestOverrideWindows(t *testing.T) {
	r := New(fourSeats())
	r = r.AddOverride(Override{Seat: "us", Eligible: true, WindowID: "remain", Duration: ir.DurationNextTurn})
	r = r.AddOverride(Override{Seat: "vc", Eligible: false, WindowID: "sidelined", Duration: ir.DurationRound})
	r = r.RecordNonPass("us", "event").RecordNonPass("arvn", "operation")

	next := r.EndCard()
	assert.True(t, next.Eligibility["us"], "nextTurn override protects the acted seat")
	assert.False(t, next.Eligibility["arvn"])
	assert.False(t, next.Eligibility["vc"])
	assert.Empty(t, next.PendingOverrides)
	require.Len(t, next.ActiveOverrides, 1)

	// The round override keeps applying until the coup round ends.
	later := next.BeginCard(nil).RecordNonPass("us", "operation").RecordNonPass("nva", "operation").EndCard()
	assert.False(t, later.Eligibility["vc"])

	cleared := later.EndCoupRound()
	assert.True(t, cleared.Eligibility["vc"])
	assert.Empty(t, cleared.ActiveOverrides)
}

func TestAllowedSecondClasses(t *testing.T) {
	cfg := fourSeats()
	r := New(cfg)
	assert.Nil(t, AllowedSecondClasses(cfg, r))

	r = r.RecordNonPass("us", "event")
	assert.Equal(t, []string{"operation", "specialActivity"}, AllowedSecondClasses(cfg, r))
}

func TestCoupRoundCounter(t *testing.T) {
	r := New(fourSeats())
	r = r.WithCoupRound(true).WithCoupRound(true)
	assert.Equal(t, 2, r.ConsecutiveCoupRounds)
	assert.Equal(t, 0, r.WithCoupRound(false).ConsecutiveCoupRounds)
}
