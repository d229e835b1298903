package turnflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSeats() Runtime {
	return Runtime{SeatOrder: []string{"0", "1"}, Eligibility: map[string]bool{"0": true, "1": true}}
}

func TestAddGrantSelfSeat(t *testing.T) {
	r, g, err := twoSeats().AddGrant(GrantRequest{Seat: SelfSeat, OperationClass: "operation", Uses: 3}, "0")
	require.NoError(t, err)

	require.Len(t, r.PendingGrants, 1)
	assert.Equal(t, "0", g.Seat)
	assert.Equal(t, 3, g.RemainingUses)
	assert.Equal(t, "freeOp-0-operation", g.ID)
	assert.Equal(t, g, r.PendingGrants[0])
}

func TestAddGrantSuffixesCollidingIDs(t *testing.T) {
	r := twoSeats()
	req := GrantRequest{ID: "airlift", Seat: "1", OperationClass: "specialActivity", Uses: 1}

	r, first, err := r.AddGrant(req, "0")
	require.NoError(t, err)
	r, second, err := r.AddGrant(req, "0")
	require.NoError(t, err)
	_, third, err := r.AddGrant(req, "0")
	require.NoError(t, err)

	assert.Equal(t, "airlift", first.ID)
	assert.Equal(t, "airlift#2", second.ID)
	assert.Equal(t, "airlift#3", third.ID)
}

func TestAddGrantValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   GrantRequest
		field string
	}{
		{"unknown class", GrantRequest{Seat: "0", OperationClass: "bribe", Uses: 1}, "operation_class"},
		{"unknown seat", GrantRequest{Seat: "7", OperationClass: "operation", Uses: 1}, "seat"},
		{"unknown execute-as seat", GrantRequest{Seat: "0", ExecuteAsSeat: "x", OperationClass: "operation", Uses: 1}, "execute_as_seat"},
		{"zero uses", GrantRequest{Seat: "0", OperationClass: "operation", Uses: 0}, "uses"},
		{"negative step", GrantRequest{Seat: "0", OperationClass: "operation", Uses: 1, HasSequence: true, Chain: "c", Step: -1}, "sequence.step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := twoSeats()
			out, _, err := r.AddGrant(tt.req, "0")
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, out.PendingGrants)
		})
	}
}

func TestConsumeGrant(t *testing.T) {
	r, g, err := twoSeats().AddGrant(GrantRequest{Seat: "0", OperationClass: "operation", Uses: 2}, "0")
	require.NoError(t, err)

	r, err = r.ConsumeGrant(g.ID)
	require.NoError(t, err)
	got, ok := r.Grant(g.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.RemainingUses)

	r, err = r.ConsumeGrant(g.ID)
	require.NoError(t, err)
	assert.Empty(t, r.PendingGrants)

	_, err = r.ConsumeGrant(g.ID)
	assert.Error(t, err)
}

func TestUsableGrantsHonourSequence(t *testing.T) {
	r := twoSeats()
	r, late, err := r.AddGrant(GrantRequest{ID: "b", Seat: "0", OperationClass: "operation", Uses: 1, HasSequence: true, Chain: "march", Step: 1}, "0")
	require.NoError(t, err)
	r, early, err := r.AddGrant(GrantRequest{ID: "a", Seat: "0", OperationClass: "operation", Uses: 1, HasSequence: true, Chain: "march", Step: 0}, "0")
	require.NoError(t, err)

	usable := r.UsableGrants()
	require.Len(t, usable, 1)
	assert.Equal(t, early.ID, usable[0].ID)

	r = r.DropGrant(early.ID)
	usable = r.UsableGrants()
	require.Len(t, usable, 1)
	assert.Equal(t, late.ID, usable[0].ID)
}

func TestGrantAllows(t *testing.T) {
	g := Grant{OperationClass: "operation", ActionIDs: []string{"sweep"}, ZoneFilter: []string{"hue:none"}}

	assert.True(t, GrantAllows(g, "sweep", "operation", []string{"hue:none"}))
	assert.False(t, GrantAllows(g, "assault", "operation", nil))
	assert.False(t, GrantAllows(g, "sweep", "event", nil))
	assert.False(t, GrantAllows(g, "sweep", "operation", []string{"saigon:none"}))
}
