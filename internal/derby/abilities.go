package derby

import "github.com/echovale/cubederby/internal/core/dice"

// turnOrderBonus adds a flat bonus when the cube draws a specific slot
// in the round order: the first slot, or the last when atEnd is set.
type turnOrderBonus struct {
	defaultAbility
	atEnd bool
	bonus int
}

func (a turnOrderBonus) Roll(src dice.Source, ctx RollContext) Roll {
	r := Roll{Base: dice.Roll(src, 3)}
	if (a.atEnd && ctx.Last()) || (!a.atEnd && ctx.First()) {
		r.Bonus = a.bonus
	}
	return r
}

// carrier is Cantarella's one-shot pickup. The first time she steps onto
// an occupied pad mid-turn she latches onto the cubes already there and
// drags them beneath her, in their original order, until her turn ends.
type carrier struct {
	defaultAbility
	used    bool
	active  bool
	carried int
}

func (a *carrier) Step(_ dice.Source, ctx StepContext) []Action {
	var actions []Action
	switch {
	case ctx.First || len(ctx.Below) == 0:
		actions = carryAbove(ctx)
	case !a.used:
		a.used = true
		a.active = true
		a.carried = len(ctx.Below)
		actions = a.carry(ctx, ctx.Below)
	case a.active:
		picked := ctx.Below
		if len(picked) > a.carried {
			picked = picked[len(picked)-a.carried:]
		}
		actions = a.carry(ctx, picked)
	default:
		actions = carryAbove(ctx)
	}
	if ctx.Last {
		a.active = false
	}
	return actions
}

// carry moves the carried cubes first so they land below the carrier,
// then the carrier, then anything stacked on top of her.
func (a *carrier) carry(ctx StepContext, carried []*Cube) []Action {
	actions := make([]Action, 0, len(carried)+1+len(ctx.Above))
	for _, other := range carried {
		actions = append(actions, move(other, ctx.StepSize))
	}
	actions = append(actions, move(ctx.Self, ctx.StepSize))
	for _, other := range ctx.Above {
		actions = append(actions, move(other, ctx.StepSize))
	}
	return actions
}

func (a *carrier) Reset() {
	*a = carrier{}
}

// momentum is Zani's kit: the die only shows 1 or 3, and rolling with
// passengers stacked above has a 40% chance to bank +2 for the next
// roll. The bank holds one charge.
type momentum struct {
	defaultAbility
	charged bool
}

func (a *momentum) Roll(src dice.Source, ctx RollContext) Roll {
	bonus := 0
	if a.charged {
		a.charged = false
		bonus = 2
	}
	if len(ctx.Above) > 0 && dice.Chance(src, 0.4) {
		a.charged = true
	}
	return Roll{Base: dice.Pick(src, 1, 3), Bonus: bonus}
}

func (a *momentum) Reset() {
	*a = momentum{}
}

// coinFlip is Phoebe: an even chance of one extra pad on every roll.
type coinFlip struct {
	defaultAbility
}

func (coinFlip) Roll(src dice.Source, _ RollContext) Roll {
	r := Roll{Base: dice.Roll(src, 3)}
	if dice.Chance(src, 0.5) {
		r.Bonus = 1
	}
	return r
}

// comeback is Cartethiya: finishing a round ranked last arms her for
// the rest of the match, and every armed roll has a 60% chance of +2.
type comeback struct {
	defaultAbility
	armed bool
}

func (a *comeback) Roll(src dice.Source, _ RollContext) Roll {
	r := Roll{Base: dice.Roll(src, 3)}
	if a.armed && dice.Chance(src, 0.6) {
		r.Bonus = 2
	}
	return r
}

func (a *comeback) PostRound(_ dice.Source, ctx PostRoundContext) PostRound {
	if ctx.Rank == ctx.Field {
		a.armed = true
	}
	return PostRound{}
}

func (a *comeback) Reset() {
	*a = comeback{}
}

// stackClimber is Jinhsi: starting a turn buried under other cubes has
// a 40% chance to pop her to the top of the stack before she steps off
// alone, leaving the others behind.
type stackClimber struct {
	defaultAbility
	active bool
}

func (a *stackClimber) Step(src dice.Source, ctx StepContext) []Action {
	if ctx.First && len(ctx.Above) > 0 {
		a.active = dice.Chance(src, 0.4)
	}
	if a.active {
		a.active = false
		return []Action{
			{Cube: ctx.Self, Forward: 0, StackIndex: StackTop},
			move(ctx.Self, ctx.StepSize),
		}
	}
	return carryAbove(ctx)
}

func (a *stackClimber) Reset() {
	*a = stackClimber{}
}

// groupBoost is Camellya: on a trigger she advances one extra pad per
// other cube sharing her pad while those cubes stay behind.
//
// The stock behavior never arms the trigger: the first-step coin flip
// only re-rolls a flag that is already set, so the boost stays dormant.
// corrected arms the flag with the same coin flip instead, matching the
// published ability text (see Ruleset.CamellyaTrigger).
type groupBoost struct {
	defaultAbility
	corrected bool
	active    bool
}

func (a *groupBoost) Step(src dice.Source, ctx StepContext) []Action {
	if ctx.First {
		if a.corrected {
			a.active = dice.Chance(src, 0.5)
		} else if a.active {
			a.active = dice.Chance(src, 0.5)
		}
	}
	if a.active {
		a.active = false
		return []Action{
			move(ctx.Self, len(ctx.Below)+len(ctx.Above)),
			move(ctx.Self, ctx.StepSize),
		}
	}
	return carryAbove(ctx)
}

func (a *groupBoost) Reset() {
	a.active = false
}

// doubleDown is Carlotta: a 28% chance the bonus mirrors the base roll,
// doubling the move.
type doubleDown struct {
	defaultAbility
}

func (doubleDown) Roll(src dice.Source, _ RollContext) Roll {
	r := Roll{Base: dice.Roll(src, 3)}
	if dice.Chance(src, 0.28) {
		r.Bonus = r.Base
	}
	return r
}

// orderManipulator is Changli: ending a round with cubes beneath her
// has a 65% chance to set a sticky flag, and while it is set she asks
// to move last in every following round.
type orderManipulator struct {
	defaultAbility
	active bool
}

func (a *orderManipulator) PostRound(src dice.Source, ctx PostRoundContext) PostRound {
	if !a.active && len(ctx.Below) > 0 && dice.Chance(src, 0.65) {
		a.active = true
	}
	if !a.active {
		return PostRound{}
	}
	return PostRound{Order: []OrderOverride{{Cube: ctx.Self, ToEnd: true}}}
}

func (a *orderManipulator) Reset() {
	*a = orderManipulator{}
}

// steadyDice is Shorekeeper: the die only shows 2 or 3.
type steadyDice struct {
	defaultAbility
}

func (steadyDice) Roll(src dice.Source, _ RollContext) Roll {
	return Roll{Base: dice.Pick(src, 2, 3)}
}
