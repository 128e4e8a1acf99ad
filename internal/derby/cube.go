package derby

import "github.com/echovale/cubederby/internal/core/dice"

// Cube is one competitor: a name, a track position, and the ability
// that customizes its play.
type Cube struct {
	name    string
	pos     int
	ability Ability
}

// Name returns the cube's display name.
func (c *Cube) Name() string {
	return c.name
}

// Position returns the pad index the cube currently occupies.
func (c *Cube) Position() int {
	return c.pos
}

func (c *Cube) String() string {
	return c.name
}

// Ability customizes how a cube rolls, steps, and reacts after a round.
// Implementations own their trigger state; Reset clears it so a cube can
// race again from scratch.
type Ability interface {
	// Roll produces the turn's movement budget. Every cube rolls before
	// anyone moves, so the context reflects the round-start stacks.
	Roll(src dice.Source, ctx RollContext) Roll
	// Step decides the movement for one unit step of the cube's turn.
	Step(src dice.Source, ctx StepContext) []Action
	// PostRound runs after a winnerless round and may request extra
	// movement or an order override for the next round.
	PostRound(src dice.Source, ctx PostRoundContext) PostRound
	// Reset clears accumulated trigger state.
	Reset()
}

// Roll is one turn's movement budget.
type Roll struct {
	Base  int
	Bonus int
}

// Total returns the number of unit steps the roll grants.
func (r Roll) Total() int {
	return r.Base + r.Bonus
}

// RollContext is the round state visible while rolling. Below and Above
// are the cube's round-start pad neighbors.
type RollContext struct {
	Order []*Cube
	Self  *Cube
	Below []*Cube
	Above []*Cube
}

// First reports whether Self moves first this round.
func (c RollContext) First() bool {
	return len(c.Order) > 0 && c.Order[0] == c.Self
}

// Last reports whether Self moves last this round.
func (c RollContext) Last() bool {
	return len(c.Order) > 0 && c.Order[len(c.Order)-1] == c.Self
}

// StepContext is the state for one unit step of the acting cube's turn.
// Rank is the cube's standing at the start of the turn (1 = furthest
// along), Field the total cube count. Below and Above are the current
// pad neighbors. First and Last mark the boundary steps of the turn.
type StepContext struct {
	Order    []*Cube
	Self     *Cube
	Rank     int
	Field    int
	StepSize int
	Below    []*Cube
	Above    []*Cube
	First    bool
	Last     bool
}

// PostRoundContext is the state handed to post-round hooks. Rank and
// the neighbor slices are fresh for the hook's own cube.
type PostRoundContext struct {
	Order []*Cube
	Self  *Cube
	Rank  int
	Field int
	Below []*Cube
	Above []*Cube
}

// Action asks the resolver to move a cube forward and slot it into the
// destination stack at StackIndex (StackTop appends).
type Action struct {
	Cube       *Cube
	Forward    int
	StackIndex int
}

// move is the common case: advance a cube onto the top of its
// destination stack.
func move(c *Cube, forward int) Action {
	return Action{Cube: c, Forward: forward, StackIndex: StackTop}
}

// PostRound carries a cube's post-round requests.
type PostRound struct {
	Actions []Action
	Order   []OrderOverride
}

// OrderOverride forces a cube's slot in the next round's order: Index
// when ToEnd is false, the final slot otherwise.
type OrderOverride struct {
	Cube  *Cube
	Index int
	ToEnd bool
}

// defaultAbility is the baseline every cube shares: a d3 roll, carrying
// the stack above on each step, and no post-round effect. Variants
// embed it and override what differs.
type defaultAbility struct{}

func (defaultAbility) Roll(src dice.Source, _ RollContext) Roll {
	return Roll{Base: dice.Roll(src, 3)}
}

func (defaultAbility) Step(_ dice.Source, ctx StepContext) []Action {
	return carryAbove(ctx)
}

func (defaultAbility) PostRound(dice.Source, PostRoundContext) PostRound {
	return PostRound{}
}

func (defaultAbility) Reset() {}

// carryAbove moves the acting cube one step forward and drags every
// cube stacked on top of it along, preserving their order.
func carryAbove(ctx StepContext) []Action {
	actions := make([]Action, 0, 1+len(ctx.Above))
	actions = append(actions, move(ctx.Self, ctx.StepSize))
	for _, other := range ctx.Above {
		actions = append(actions, move(other, ctx.StepSize))
	}
	return actions
}
