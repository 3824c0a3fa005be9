package rules

import (
	"fmt"
	"slices"
	"time"

	"github.com/biskitgame/biskit-backend/pkg/types"
)

// Biskit fires on an exact total and celebrates. The celebration raises
// the context hold so the turn handoff broadcast waits for it; the rule
// itself never sleeps.
type Biskit struct {
	Target      int
	Celebration time.Duration
}

func NewBiskit() *Biskit {
	return &Biskit{Target: 7, Celebration: 5 * time.Second}
}

func (b *Biskit) Name() string { return "biskit" }

func (b *Biskit) Match(ctx *Context) bool {
	return ctx.Total == b.Target
}

func (b *Biskit) Apply(ctx *Context, emit Emitter) {
	emit.Emit(ctx.Room, types.ServerMessage{
		Type:    types.EvtBiskit,
		Message: fmt.Sprintf("%s rolled a biskit!", ctx.Player.Name),
	})
	if b.Celebration > ctx.Hold {
		ctx.Hold = b.Celebration
	}
}

func (b *Biskit) PlayAgain() bool { return false }

// Double fires when the first two dice match. Double ones are a penalty
// and turn the extra-turn flag off; any other pair turns it on.
type Double struct {
	Again bool
}

func NewDouble() *Double {
	return &Double{Again: true}
}

func (d *Double) Name() string { return "double" }

func (d *Double) Match(ctx *Context) bool {
	return len(ctx.DiceResults) >= 2 && ctx.DiceResults[0] == ctx.DiceResults[1]
}

func (d *Double) Apply(ctx *Context, emit Emitter) {
	if ctx.DiceResults[0] == 1 {
		d.Again = false
		emit.Emit(ctx.Room, types.ServerMessage{
			Type:       types.EvtDoubleOnes,
			PlayerName: ctx.Player.Name,
		})
		return
	}
	d.Again = true
	emit.Emit(ctx.Room, types.ServerMessage{
		Type:  types.EvtDouble,
		Value: ctx.DiceResults[0],
	})
}

func (d *Double) PlayAgain() bool { return d.Again }

// Chicken manages the transferable chicken role on any roll showing a 3.
// The role itself lives on the session, not on the rule, so it follows
// the player list (clearing on disconnect is the store's job).
type Chicken struct{}

func NewChicken() *Chicken { return &Chicken{} }

func (c *Chicken) Name() string { return "chicken" }

func (c *Chicken) Match(ctx *Context) bool {
	return slices.Contains(ctx.DiceResults, 3)
}

func (c *Chicken) Apply(ctx *Context, emit Emitter) {
	s := ctx.Session
	double3 := len(ctx.DiceResults) >= 2 && ctx.DiceResults[0] == 3 && ctx.DiceResults[1] == 3

	switch {
	case s.Chicken != nil && s.Chicken.ID == ctx.Player.ID:
		// The holder rolled another 3: the role goes vacant.
		s.Chicken = nil
		emit.Emit(ctx.Room, types.ServerMessage{
			Type:       types.EvtChickenStatus,
			PlayerName: "VACANT",
		})

	case s.Chicken == nil:
		// A double 3 never assigns the role.
		if double3 {
			return
		}
		p := ctx.Player
		s.Chicken = &p
		emit.Emit(ctx.Room, types.ServerMessage{
			Type:       types.EvtChickenStatus,
			PlayerName: p.Name,
		})

	default:
		penalty := fmt.Sprintf("%s takes a penalty", s.Chicken.Name)
		if double3 {
			penalty = fmt.Sprintf("%s takes a double penalty", s.Chicken.Name)
		}
		emit.Emit(ctx.Room, types.ServerMessage{
			Type:     types.EvtChickenPenalty,
			PlayerID: s.Chicken.ID,
			Message:  penalty,
		})
	}
}

func (c *Chicken) PlayAgain() bool { return false }

// NumberCheck fires on a configured set of totals. The extra-turn flag
// starts on and is only ever written by a total of ten (to off); nine
// and eleven never write it back, so a ten's write sticks across later
// rolls. That carry-over is the authored contract.
type NumberCheck struct {
	Totals []int
	Again  bool
}

func NewNumberCheck() *NumberCheck {
	return &NumberCheck{Totals: []int{9, 10, 11}, Again: true}
}

func (n *NumberCheck) Name() string { return "numbercheck" }

func (n *NumberCheck) Match(ctx *Context) bool {
	return slices.Contains(n.Totals, ctx.Total)
}

func (n *NumberCheck) Apply(ctx *Context, emit Emitter) {
	s := ctx.Session
	switch ctx.Total {
	case 9:
		target := s.Previous()
		emit.Emit(ctx.Room, types.ServerMessage{
			Type:     types.EvtChickenPenalty,
			PlayerID: target.ID,
			Message:  fmt.Sprintf("nine! %s takes a penalty", target.Name),
		})
	case 10:
		n.Again = false
		emit.Emit(ctx.Room, types.ServerMessage{
			Type:     types.EvtChickenPenalty,
			PlayerID: ctx.Player.ID,
			Message:  fmt.Sprintf("ten! %s takes a penalty", ctx.Player.Name),
		})
	case 11:
		target := s.Next()
		emit.Emit(ctx.Room, types.ServerMessage{
			Type:     types.EvtChickenPenalty,
			PlayerID: target.ID,
			Message:  fmt.Sprintf("eleven! %s takes a penalty", target.Name),
		})
	}
}

func (n *NumberCheck) PlayAgain() bool { return n.Again }
