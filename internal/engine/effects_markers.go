package engine

import (
	"fmt"

	"github.com/roach88/ludeme/internal/ir"
)

func (x *executor) lattice(id string, global bool) (*ir.MarkerLattice, error) {
	var (
		lat *ir.MarkerLattice
		ok  bool
		all []ir.MarkerLattice
	)
	if global {
		lat, ok = x.def.GlobalLattice(id)
		all = x.def.GlobalMarkerLattices
	} else {
		lat, ok = x.def.Lattice(id)
		all = x.def.MarkerLattices
	}
	if ok {
		return lat, nil
	}
	err := runtimeErr(ErrCodeUnknownMarker, "marker", "no marker lattice %q", id)
	for _, l := range all {
		err.Candidates = append(err.Candidates, l.ID)
	}
	return nil, err
}

func checkState(lat *ir.MarkerLattice, state string) error {
	if lat.StateIndex(state) < 0 {
		return &EffectRuntimeError{
			Code:       ErrCodeInvalidMarkerState,
			Field:      "state",
			Message:    fmt.Sprintf("%q is not a state of %s", state, lat.ID),
			Candidates: lat.States,
		}
	}
	return nil
}

// shifted moves state by delta along the lattice, clamped to its ends.
func shifted(lat *ir.MarkerLattice, state string, delta int64) string {
	i := int64(lat.StateIndex(state))
	return lat.States[clamp(saturatingAdd(i, delta), 0, int64(len(lat.States)-1))]
}

func (x *executor) currentMarker(st *GameState, lat *ir.MarkerLattice, space string) string {
	if s, ok := st.marker(space, lat.ID); ok {
		return s
	}
	return lat.Default
}

func (x *executor) currentGlobalMarker(st *GameState, lat *ir.MarkerLattice) string {
	if s, ok := st.GlobalMarkers[lat.ID]; ok {
		return s
	}
	return lat.Default
}

func (x *executor) writeMarker(st *GameState, lat *ir.MarkerLattice, space, state string) *GameState {
	old := x.currentMarker(st, lat, space)
	if old == state {
		return st
	}
	x.trace.emit(TraceMarkerChange, ir.Object{
		"space":  ir.Str(space),
		"marker": ir.Str(lat.ID),
		"from":   ir.Str(old),
		"to":     ir.Str(state),
	})
	return st.withMarker(space, lat.ID, state)
}

func (x *executor) writeGlobalMarker(st *GameState, lat *ir.MarkerLattice, state string) *GameState {
	old := x.currentGlobalMarker(st, lat)
	if old == state {
		return st
	}
	x.trace.emit(TraceGlobalMarkerChange, ir.Object{
		"marker": ir.Str(lat.ID),
		"from":   ir.Str(old),
		"to":     ir.Str(state),
	})
	return st.withGlobalMarker(lat.ID, state)
}

func (x *executor) applySetMarker(st *GameState, e env, n ir.SetMarker) (*GameState, error) {
	space, err := x.resolveZone(st, e, n.Space)
	if err != nil {
		return nil, err
	}
	lat, err := x.lattice(n.Marker, false)
	if err != nil {
		return nil, err
	}
	state, err := x.evalStr(st, e, n.State, "state")
	if err != nil {
		return nil, err
	}
	if err := checkState(lat, state); err != nil {
		return nil, err
	}
	return x.writeMarker(st, lat, space, state), nil
}

func (x *executor) applyShiftMarker(st *GameState, e env, n ir.ShiftMarker) (*GameState, error) {
	space, err := x.resolveZone(st, e, n.Space)
	if err != nil {
		return nil, err
	}
	lat, err := x.lattice(n.Marker, false)
	if err != nil {
		return nil, err
	}
	delta, err := x.evalInt(st, e, n.Delta, "delta")
	if err != nil {
		return nil, err
	}
	next := shifted(lat, x.currentMarker(st, lat, space), delta)
	return x.writeMarker(st, lat, space, next), nil
}

func (x *executor) applySetGlobalMarker(st *GameState, e env, n ir.SetGlobalMarker) (*GameState, error) {
	lat, err := x.lattice(n.Marker, true)
	if err != nil {
		return nil, err
	}
	state, err := x.evalStr(st, e, n.State, "state")
	if err != nil {
		return nil, err
	}
	if err := checkState(lat, state); err != nil {
		return nil, err
	}
	return x.writeGlobalMarker(st, lat, state), nil
}

// applyFlipGlobalMarker swaps a marker between two states. A marker in
// neither state is an error.
func (x *executor) applyFlipGlobalMarker(st *GameState, e env, n ir.FlipGlobalMarker) (*GameState, error) {
	lat, err := x.lattice(n.Marker, true)
	if err != nil {
		return nil, err
	}
	for _, s := range []string{n.StateA, n.StateB} {
		if err := checkState(lat, s); err != nil {
			return nil, err
		}
	}
	switch cur := x.currentGlobalMarker(st, lat); cur {
	case n.StateA:
		return x.writeGlobalMarker(st, lat, n.StateB), nil
	case n.StateB:
		return x.writeGlobalMarker(st, lat, n.StateA), nil
	default:
		return nil, &EffectRuntimeError{
			Code:       ErrCodeInvalidMarkerState,
			Field:      "marker",
			Message:    fmt.Sprintf("%s is %q, neither flip state", lat.ID, cur),
			Candidates: []string{n.StateA, n.StateB},
		}
	}
}

func (x *executor) applyShiftGlobalMarker(st *GameState, e env, n ir.ShiftGlobalMarker) (*GameState, error) {
	lat, err := x.lattice(n.Marker, true)
	if err != nil {
		return nil, err
	}
	delta, err := x.evalInt(st, e, n.Delta, "delta")
	if err != nil {
		return nil, err
	}
	next := shifted(lat, x.currentGlobalMarker(st, lat), delta)
	return x.writeGlobalMarker(st, lat, next), nil
}
