package compiler

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ludeme/internal/ir"
)

// visitor receives the nodes reached by a walk together with their path in
// the document. Nil callbacks are skipped.
type visitor struct {
	effect func(path string, e ir.Effect)
	value  func(path string, n ir.ValueNode)
	cond   func(path string, n ir.CondNode)
	query  func(path string, n ir.QueryNode)
	zone   func(path string, z ir.ZoneSel)
	varRef func(path string, t ir.VarTarget)
}

func (v *visitor) effects(path string, list ir.EffectList) {
	for i, e := range list {
		v.walkEffect(fmt.Sprintf("%s[%d]", path, i), e)
	}
}

func (v *visitor) walkEffect(path string, e ir.Effect) {
	if v.effect != nil {
		v.effect(path, e)
	}
	p := func(field string) string { return path + "." + e.Kind() + "." + field }
	switch n := e.(type) {
	case ir.SetVar:
		v.target(p("var"), n.VarTarget)
		v.expr(p("value"), n.Value)
	case ir.AddVar:
		v.target(p("var"), n.VarTarget)
		v.expr(p("delta"), n.Delta)
	case ir.TransferVar:
		v.target(p("from"), n.From)
		v.target(p("to"), n.To)
		v.expr(p("amount"), n.Amount)
		v.optExpr(p("min"), n.Min)
		v.optExpr(p("max"), n.Max)
	case ir.MoveToken:
		v.expr(p("token"), n.Token)
		if n.From != "" {
			v.zoneSel(p("from"), n.From)
		}
		v.zoneSel(p("to"), n.To)
	case ir.MoveAll:
		v.zoneSel(p("from"), n.From)
		v.zoneSel(p("to"), n.To)
		v.filters(p("filter"), n.Filter)
	case ir.MoveTokenAdjacent:
		v.expr(p("token"), n.Token)
		v.zoneSel(p("to"), n.To)
	case ir.Draw:
		v.zoneSel(p("from"), n.From)
		v.zoneSel(p("to"), n.To)
		v.expr(p("count"), n.Count)
	case ir.Reveal:
		v.zoneSel(p("zone"), n.Zone)
		v.player(p("to"), n.To)
	case ir.Shuffle:
		v.zoneSel(p("zone"), n.Zone)
	case ir.CreateToken:
		v.zoneSel(p("zone"), n.Zone)
		for _, k := range slices.Sorted(maps.Keys(n.Props)) {
			v.expr(p("props."+k), n.Props[k])
		}
	case ir.DestroyToken:
		v.expr(p("token"), n.Token)
	case ir.SetTokenProp:
		v.expr(p("token"), n.Token)
		v.expr(p("value"), n.Value)
	case ir.SetMarker:
		v.zoneSel(p("space"), n.Space)
		v.expr(p("state"), n.State)
	case ir.ShiftMarker:
		v.zoneSel(p("space"), n.Space)
		v.expr(p("delta"), n.Delta)
	case ir.SetGlobalMarker:
		v.expr(p("state"), n.State)
	case ir.FlipGlobalMarker:
	case ir.ShiftGlobalMarker:
		v.expr(p("delta"), n.Delta)
	case ir.If:
		v.walkCond(p("when"), n.When)
		v.effects(p("then"), n.Then)
		v.effects(p("else"), n.Else)
	case ir.ForEach:
		v.walkQuery(p("over"), n.Over)
		v.effects(p("effects"), n.Effects)
		v.optExpr(p("limit"), n.Limit)
		v.effects(p("in"), n.In)
	case ir.Reduce:
		v.walkQuery(p("over"), n.Over)
		v.expr(p("initial"), n.Initial)
		v.expr(p("next"), n.Next)
		v.effects(p("in"), n.In)
	case ir.Let:
		v.expr(p("value"), n.Value)
		v.effects(p("in"), n.In)
	case ir.BindValue:
		v.expr(p("value"), n.Value)
	case ir.EvaluateSubset:
		v.walkQuery(p("source"), n.Source)
		v.expr(p("subset_size"), n.SubsetSize)
		v.effects(p("compute"), n.Compute)
		v.expr(p("score"), n.Score)
		v.effects(p("in"), n.In)
	case ir.RemoveByPriority:
		v.expr(p("budget"), n.Budget)
		for i, g := range n.Groups {
			v.walkQuery(p(fmt.Sprintf("groups[%d].over", i)), g.Over)
			v.effects(p(fmt.Sprintf("groups[%d].effects", i)), g.Effects)
		}
		v.effects(p("in"), n.In)
	case ir.RollRandom:
		v.expr(p("min"), n.Min)
		v.expr(p("max"), n.Max)
		v.effects(p("in"), n.In)
	case ir.ChooseOne:
		v.walkQuery(p("options"), n.Options)
	case ir.ChooseN:
		v.walkQuery(p("options"), n.Options)
		v.optExpr(p("n"), n.N)
		v.optExpr(p("min"), n.Min)
		v.optExpr(p("max"), n.Max)
	case ir.GrantFreeOperation:
		v.optExpr(p("uses"), n.Uses)
		if n.Sequence != nil {
			v.expr(p("sequence.step"), n.Sequence.Step)
		}
	}
}

func (v *visitor) target(path string, t ir.VarTarget) {
	if v.varRef != nil {
		v.varRef(path, t)
	}
	v.player(path+".player", t.Player)
}

func (v *visitor) player(path string, sel *ir.PlayerSel) {
	if sel != nil && sel.Kind == ir.PlayerExpr {
		v.expr(path, sel.Expr)
	}
}

func (v *visitor) zoneSel(path string, z ir.ZoneSel) {
	if v.zone != nil {
		v.zone(path, z)
	}
}

func (v *visitor) filters(path string, fs []ir.PropFilter) {
	for i, f := range fs {
		v.expr(fmt.Sprintf("%s[%d].value", path, i), f.Value)
	}
}

func (v *visitor) optExpr(path string, e *ir.Expr) {
	if e != nil {
		v.expr(path, *e)
	}
}

func (v *visitor) expr(path string, e ir.Expr) {
	if e.Node == nil {
		return
	}
	if v.value != nil {
		v.value(path, e.Node)
	}
	switch n := e.Node.(type) {
	case ir.PVarRef:
		v.player(path+".player", &n.Player)
	case ir.ZoneCount:
		v.zoneSel(path+".zone", n.Zone)
	case ir.TokenProp:
		v.expr(path+".token", n.Token)
	case ir.TokenZone:
		v.expr(path+".token", n.Token)
	case ir.Count:
		v.walkQuery(path+".query", n.Query)
	case ir.Aggregate:
		v.walkQuery(path+".over", n.Over)
		v.expr(path+".value", n.Value)
	case ir.Arith:
		v.expr(path+".left", n.Left)
		v.expr(path+".right", n.Right)
	case ir.IfValue:
		v.walkCond(path+".when", n.When)
		v.expr(path+".then", n.Then)
		v.expr(path+".else", n.Else)
	case ir.MarkerState:
		v.zoneSel(path+".space", n.Space)
	case ir.ZoneAttr:
		v.zoneSel(path+".zone", n.Zone)
	case ir.ListOf:
		for i, item := range n.Items {
			v.expr(fmt.Sprintf("%s[%d]", path, i), item)
		}
	}
}

func (v *visitor) walkCond(path string, c ir.Cond) {
	if c.Node == nil {
		return
	}
	if v.cond != nil {
		v.cond(path, c.Node)
	}
	switch n := c.Node.(type) {
	case ir.And:
		for i, item := range n.Items {
			v.walkCond(fmt.Sprintf("%s.and[%d]", path, i), item)
		}
	case ir.Or:
		for i, item := range n.Items {
			v.walkCond(fmt.Sprintf("%s.or[%d]", path, i), item)
		}
	case ir.Not:
		v.walkCond(path+".not", n.Item)
	case ir.Compare:
		v.expr(path+".left", n.Left)
		v.expr(path+".right", n.Right)
	case ir.In:
		v.expr(path+".item", n.Item)
		v.walkQuery(path+".set", n.Set)
	case ir.Adjacent:
		v.zoneSel(path+".a", n.A)
		v.zoneSel(path+".b", n.B)
	case ir.Exists:
		v.walkQuery(path+".exists", n.Query)
	}
}

func (v *visitor) walkQuery(path string, q ir.Query) {
	if q.Node == nil {
		return
	}
	if v.query != nil {
		v.query(path, q.Node)
	}
	switch n := q.Node.(type) {
	case ir.TokensInZone:
		v.zoneSel(path+".zone", n.Zone)
		v.filters(path+".filter", n.Filter)
	case ir.IntsInRange:
		v.expr(path+".min", n.Min)
		v.expr(path+".max", n.Max)
	case ir.Zones:
		if n.Where != nil {
			v.walkCond(path+".where", *n.Where)
		}
	case ir.AdjacentZones:
		v.zoneSel(path+".zone", n.Zone)
	case ir.Concat:
		for i, item := range n.Items {
			v.walkQuery(fmt.Sprintf("%s.concat[%d]", path, i), item)
		}
	case ir.Filter:
		v.walkQuery(path+".query", n.Query)
		v.walkCond(path+".where", n.Where)
	}
}

// walkGame visits every AST reachable from a definition.
func (v *visitor) walkGame(def *ir.GameDef) {
	v.effects("setup_effects", def.SetupEffects)
	for i, a := range def.Actions {
		base := fmt.Sprintf("actions[%d]", i)
		v.player(base+".executor", a.Executor)
		for j, p := range a.Params {
			v.walkQuery(fmt.Sprintf("%s.params[%d].domain", base, j), p.Domain)
		}
		if a.Pre != nil {
			v.walkCond(base+".pre", *a.Pre)
		}
		v.effects(base+".cost", a.Cost)
		v.effects(base+".effects", a.Effects)
	}
	for i, op := range def.OperationProfiles {
		base := fmt.Sprintf("operation_profiles[%d]", i)
		if op.Applicability != nil {
			v.walkCond(base+".applicability", *op.Applicability)
		}
		if op.Legality != nil {
			v.walkCond(base+".legality", *op.Legality)
		}
		if op.CostValidation != nil {
			v.walkCond(base+".cost_validation", *op.CostValidation)
		}
		v.effects(base+".cost", op.Cost)
		v.effects(base+".targeting", op.Targeting)
		for j, stage := range op.Stages {
			v.effects(fmt.Sprintf("%s.stages[%d]", base, j), stage)
		}
	}
	for i, t := range def.Triggers {
		base := fmt.Sprintf("triggers[%d]", i)
		if t.When != nil {
			v.walkCond(base+".when", *t.When)
		}
		v.effects(base+".effects", t.Effects)
	}
	for i, t := range def.Terminal {
		base := fmt.Sprintf("terminal[%d]", i)
		v.walkCond(base+".when", t.When)
		v.player(base+".result.player", t.Result.Player)
		v.optExpr(base+".result.score", t.Result.Score)
	}
}
