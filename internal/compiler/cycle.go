package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/ludeme/internal/ir"
)

// CycleWarning represents a potential cycle among triggers.
//
// Cycles are warnings, not errors: the engine cuts trigger chains off at
// the configured depth, and a game may rely on a bounded ping-pong between
// a phaseEnter trigger and an advancePhase effect.
type CycleWarning struct {
	Path    []string `json:"path"`    // ["t-a", "t-b", "t-a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeTriggerCycles reports triggers whose effects can dispatch events
// that fire them again, directly or through other triggers.
//
// The algorithm:
//  1. Collect the lifecycle events each trigger's effects may dispatch
//  2. Add an edge from a trigger to every trigger matching one of them
//  3. Report each SCC with size > 1 or a self-loop as a warning
//
// A DAG (no cycles) returns an empty warning list.
func AnalyzeTriggerCycles(def *ir.GameDef) []CycleWarning {
	if len(def.Triggers) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(def)

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// dependencyGraph maps trigger id -> trigger ids its effects could fire.
// Nodes keeps declaration order so results are stable.
type dependencyGraph struct {
	nodes []string
	edges map[string][]string
}

// emitted is a lifecycle event an effect may dispatch. An empty phase
// stands for a phase only known at runtime.
type emitted struct {
	event string
	phase string
}

func buildDependencyGraph(def *ir.GameDef) dependencyGraph {
	graph := dependencyGraph{edges: make(map[string][]string)}
	cardDriven := def.TurnOrder.Type == ir.TurnOrderCardDriven

	for _, from := range def.Triggers {
		graph.nodes = append(graph.nodes, from.ID)
		events := emittedEvents(from.Effects, cardDriven)
		graph.edges[from.ID] = []string{}
		for _, to := range def.Triggers {
			for _, ev := range events {
				if canFire(ev, to.On) {
					graph.edges[from.ID] = append(graph.edges[from.ID], to.ID)
					break
				}
			}
		}
	}
	return graph
}

// emittedEvents lists the events a trigger's effects may dispatch.
func emittedEvents(effects ir.EffectList, cardDriven bool) []emitted {
	var out []emitted
	w := &visitor{effect: func(_ string, e ir.Effect) {
		switch n := e.(type) {
		case ir.GotoPhaseExact:
			out = append(out, emitted{event: ir.EventPhaseExit}, emitted{event: ir.EventPhaseEnter, phase: n.Phase})
		case ir.PushInterruptPhase:
			out = append(out, emitted{event: ir.EventPhaseExit}, emitted{event: ir.EventPhaseEnter, phase: n.Phase})
		case ir.PopInterruptPhase:
			out = append(out, emitted{event: ir.EventPhaseExit}, emitted{event: ir.EventPhaseEnter})
		case ir.AdvancePhase:
			out = append(out,
				emitted{event: ir.EventPhaseExit},
				emitted{event: ir.EventPhaseEnter},
				emitted{event: ir.EventTurnEnd},
				emitted{event: ir.EventTurnStart},
			)
			if cardDriven {
				out = append(out, emitted{event: ir.EventCardPlayed})
			}
		}
	}}
	w.effects("effects", effects)
	return out
}

// canFire reports whether an emitted event may match a trigger.
// actionResolved is only dispatched by moves, never by effects.
func canFire(ev emitted, on ir.TriggerEvent) bool {
	if ev.event != on.Event || on.Action != "" {
		return false
	}
	return ev.phase == "" || on.Phase == "" || ev.phase == on.Phase
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root node: pop the stack into an SCC.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range graph.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
// For self-loops, the path is [id, id].
func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("Self-triggering trigger detected: %s → %s", id, id),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(orderLike(scc, graph.nodes), graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Potential trigger cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// orderLike sorts the members of an SCC by declaration order.
func orderLike(scc, nodes []string) []string {
	member := make(map[string]bool, len(scc))
	for _, n := range scc {
		member[n] = true
	}
	out := make([]string, 0, len(scc))
	for _, n := range nodes {
		if member[n] {
			out = append(out, n)
		}
	}
	return out
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph.edges[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
