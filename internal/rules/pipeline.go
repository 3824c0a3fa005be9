package rules

import (
	"time"

	"github.com/biskitgame/biskit-backend/internal/game"
	"github.com/biskitgame/biskit-backend/pkg/types"
)

// Emitter is the slice of the event channel rule actions broadcast
// through.
type Emitter interface {
	Emit(room string, msg types.ServerMessage)
}

// Context is the per-roll bundle handed to every rule. Conditions treat
// it as read-only; actions may write session state through Session and
// may raise Hold to pace the turn handoff broadcast.
type Context struct {
	Room        string
	DiceResults []int
	Total       int
	Player      game.Player
	Session     *game.Session
	Hold        time.Duration
}

// Rule is a condition/action pair. Its persistent parameters live as
// struct fields on the rule value and survive across rolls for the life
// of the process; an action that wants a flag reset must write it.
type Rule interface {
	Name() string
	Match(ctx *Context) bool
	Apply(ctx *Context, emit Emitter)
	// PlayAgain reports the rule's current extra-turn flag. The pipeline
	// reads it only for rules that fired this roll.
	PlayAgain() bool
}

type Outcome struct {
	Fired     []string
	PlayAgain bool
	Hold      time.Duration
}

// Pipeline evaluates rules in authored order. Order is the only
// tie-break when two rules touch the same session state.
type Pipeline struct {
	rules []Rule
}

func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// Default returns the standard rule set in its authored order.
func Default() *Pipeline {
	return NewPipeline(NewBiskit(), NewDouble(), NewChicken(), NewNumberCheck())
}

// Evaluate runs every matching rule's action one at a time, strictly in
// order; action N+1 never starts before action N returns. PlayAgain is
// the OR of the fired rules' flags.
func (p *Pipeline) Evaluate(ctx *Context, emit Emitter) Outcome {
	var out Outcome
	for _, r := range p.rules {
		if !r.Match(ctx) {
			continue
		}
		r.Apply(ctx, emit)
		out.Fired = append(out.Fired, r.Name())
		out.PlayAgain = out.PlayAgain || r.PlayAgain()
	}
	out.Hold = ctx.Hold
	return out
}
