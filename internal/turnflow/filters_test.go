package turnflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ludeme/internal/ir"
)

func ids(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ActionID
	}
	return out
}

func TestFilterOptionMatrix(t *testing.T) {
	cfg := fourSeats()
	r := New(cfg).RecordNonPass("us", "operation")
	cands := []Candidate{
		{ActionID: "train", Class: "operation"},
		{ActionID: "limitedTrain", Class: "limitedOperation"},
		{ActionID: "pass", Class: ""},
		{ActionID: "train", Class: "operation", FreeOperation: true},
	}

	got := FilterOptionMatrix(cfg, r, cands)
	assert.Equal(t, []string{"limitedTrain", "pass", "train"}, ids(got))
	assert.True(t, got[2].FreeOperation)
}

func TestFilterMonsoon(t *testing.T) {
	cfg := fourSeats()
	cfg.Pivotal = &ir.PivotalConfig{Actions: map[string]string{"linebacker": "us"}}
	cfg.Monsoon = &ir.MonsoonConfig{
		Flag:          "monsoon",
		BlockPivotal:  true,
		OverrideParam: "override",
		Restrictions: []ir.MonsoonRestriction{
			{ActionID: "sweep"},
			{ActionID: "airLift", MaxParam: "spaces", Max: 2},
		},
	}
	cands := []Candidate{
		{ActionID: "sweep"},
		{ActionID: "sweep", Params: ir.Object{"override": ir.Bool(true)}},
		{ActionID: "airLift", Params: ir.Object{"spaces": ir.List{ir.Str("a"), ir.Str("b")}}},
		{ActionID: "airLift", Params: ir.Object{"spaces": ir.List{ir.Str("a"), ir.Str("b"), ir.Str("c")}}},
		{ActionID: "linebacker"},
		{ActionID: "rally"},
	}

	assert.Len(t, FilterMonsoon(cfg, Env{}, cands), len(cands), "inactive without the flag")

	got := FilterMonsoon(cfg, Env{MonsoonActive: true}, cands)
	assert.Equal(t, []string{"sweep", "airLift", "rally"}, ids(got))
	assert.Equal(t, ir.Bool(true), got[0].Params["override"])
}

func TestFilterPivotalWindowAndPrecedence(t *testing.T) {
	cfg := fourSeats()
	cfg.Pivotal = &ir.PivotalConfig{
		Actions:    map[string]string{"linebacker": "us", "easter": "nva", "tet": "vc"},
		Precedence: []string{"vc", "nva", "us"},
	}
	cands := []Candidate{{ActionID: "linebacker"}, {ActionID: "easter"}, {ActionID: "tet"}, {ActionID: "train"}}

	r := New(cfg)
	got := FilterPivotal(cfg, r, cands)
	assert.Equal(t, []string{"tet", "train"}, ids(got))

	r.Eligibility["vc"] = false
	got = FilterPivotal(cfg, r, cands)
	assert.Equal(t, []string{"easter", "train"}, ids(got))

	afterFirst := New(cfg).RecordNonPass("arvn", "operation")
	got = FilterPivotal(cfg, afterFirst, cands)
	assert.Equal(t, []string{"train"}, ids(got), "window closes after the first action")
}

func TestFilterCancellation(t *testing.T) {
	rules := []ir.CancellationRule{
		{
			Winner:   ir.MoveSelector{ActionID: "tet"},
			Canceled: ir.MoveSelector{ActionClass: "event", EventTags: []string{"capability"}},
		},
		{
			Winner:   ir.MoveSelector{ActionID: "ambush", Params: ir.Object{"mode": ir.Str("strike")}},
			Canceled: ir.MoveSelector{ActionID: "march"},
		},
	}
	env := Env{CardID: "card-27", CardTags: []string{"capability", "us"}}
	cands := []Candidate{
		{ActionID: "tet", Class: "pivotal"},
		{ActionID: "playEvent", Class: "event"},
		{ActionID: "ambush", Params: ir.Object{"mode": ir.Str("hold")}},
		{ActionID: "march"},
	}

	got := FilterCancellation(rules, env, cands)
	assert.Equal(t, []string{"tet", "ambush", "march"}, ids(got))

	cands[2].Params = ir.Object{"mode": ir.Str("strike")}
	got = FilterCancellation(rules, env, cands)
	assert.Equal(t, []string{"tet", "ambush"}, ids(got))
}

func TestMatchesEventCardID(t *testing.T) {
	sel := ir.MoveSelector{EventCardID: "card-27"}
	env := Env{CardID: "card-27"}

	assert.True(t, Matches(sel, env, Candidate{Class: "event"}))
	assert.False(t, Matches(sel, env, Candidate{Class: "operation"}))
	assert.False(t, Matches(sel, Env{CardID: "card-1"}, Candidate{Class: "event"}))
}
