package engine

import (
	"github.com/roach88/ludeme/internal/ir"
)

// Trace event kinds.
const (
	TraceVarChange           = "varChange"
	TraceTokenMove           = "tokenMove"
	TraceTokenCreate         = "tokenCreate"
	TraceTokenDestroy        = "tokenDestroy"
	TraceTokenProp           = "tokenProp"
	TraceReveal              = "reveal"
	TraceShuffle             = "shuffle"
	TraceMarkerChange        = "markerChange"
	TraceGlobalMarkerChange  = "globalMarkerChange"
	TraceRoll                = "roll"
	TraceDecision            = "decision"
	TracePhaseChange         = "phaseChange"
	TraceInterruptPush       = "interruptPush"
	TraceInterruptPop        = "interruptPop"
	TraceGrant               = "grant"
	TraceGrantUsed           = "grantUsed"
	TraceEligibilityOverride = "eligibilityOverride"
	TraceTurnStart           = "turnStart"
	TraceCardEnd             = "cardEnd"
	TraceTrigger             = "trigger"
	TraceMove                = "move"
)

// TraceEvent is one observable state change.
type TraceEvent struct {
	Kind   string
	Fields ir.Object
}

// Object renders the event as a single object with a "kind" key.
func (e TraceEvent) Object() ir.Object {
	out := make(ir.Object, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["kind"] = ir.Str(e.Kind)
	return out
}

// MarshalJSON encodes the event canonically.
func (e TraceEvent) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(e.Object())
}

// Trace collects events for one move application. It is passed explicitly
// through the call tree; sandboxes get their own and drop it.
type Trace struct {
	Events []TraceEvent
}

// NewTrace creates an empty collector.
func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) emit(kind string, fields ir.Object) {
	if t == nil {
		return
	}
	t.Events = append(t.Events, TraceEvent{Kind: kind, Fields: fields})
}

// Kinds lists the event kinds in order.
func (t *Trace) Kinds() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.Events))
	for i, e := range t.Events {
		out[i] = e.Kind
	}
	return out
}

// Canonical encodes the whole trace as canonical JSON.
func (t *Trace) Canonical() ([]byte, error) {
	list := ir.List{}
	if t != nil {
		for _, e := range t.Events {
			list = append(list, e.Object())
		}
	}
	return ir.MarshalCanonical(list)
}
