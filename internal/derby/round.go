package derby

import (
	"errors"
	"strconv"

	apperrors "github.com/echovale/cubederby/internal/platform/errors"
)

// Round reports one resolved round. A round resolved against a leg
// that already had winners carries those winners and a nil Order.
type Round struct {
	Leg     int
	Number  int
	Order   []*Cube
	Rolls   []Roll
	Winners []*Cube
}

// PlayRound resolves one round of the current leg: draw the order,
// collect every roll against the round-start stacks, walk each turn
// step by step, and run the post-round hooks if nobody finished.
func (m *Match) PlayRound() (Round, error) {
	if winners := m.track.Winners(); len(winners) > 0 {
		return Round{Leg: m.leg, Number: m.round, Winners: winners}, nil
	}
	m.round++

	order := m.drawOrder()
	rolls := make([]Roll, len(order))
	for i, c := range order {
		below, above, err := m.track.Neighbors(c)
		if err != nil {
			return Round{}, m.cubeError(c, err)
		}
		rolls[i] = c.ability.Roll(m.src, RollContext{Order: order, Self: c, Below: below, Above: above})
	}

	round := Round{Leg: m.leg, Number: m.round, Order: order, Rolls: rolls}
	for i, c := range order {
		winners, err := m.takeTurn(order, c, rolls[i])
		if err != nil {
			return Round{}, err
		}
		if len(winners) > 0 {
			round.Winners = winners
			return round, nil
		}
	}

	if err := m.postRound(order); err != nil {
		return Round{}, err
	}
	return round, nil
}

// drawOrder permutes the cube set and then applies any order overrides
// left by the previous round's hooks. Overrides are consumed.
func (m *Match) drawOrder() []*Cube {
	perm := m.src.Perm(len(m.cubes))
	order := make([]*Cube, len(m.cubes))
	for i, j := range perm {
		order[i] = m.cubes[j]
	}
	for _, override := range m.pending {
		order = removeCube(order, override.Cube)
		if override.ToEnd {
			order = append(order, override.Cube)
			continue
		}
		at := override.Index
		if at < 0 {
			at = 0
		}
		if at > len(order) {
			at = len(order)
		}
		order = append(order, nil)
		copy(order[at+1:], order[at:])
		order[at] = override.Cube
	}
	m.pending = nil
	return order
}

func removeCube(cubes []*Cube, c *Cube) []*Cube {
	for i, other := range cubes {
		if other == c {
			return append(cubes[:i], cubes[i+1:]...)
		}
	}
	return cubes
}

// takeTurn walks one cube's turn step by step. The step budget is the
// roll total capped by the distance to the finish; a cube already on
// the finish pad stays put. The finish check runs after every step so
// a carried group can win together.
func (m *Match) takeTurn(order []*Cube, c *Cube, roll Roll) ([]*Cube, error) {
	steps := roll.Total()
	if remaining := m.track.FinishIndex() - c.pos; steps > remaining {
		steps = remaining
	}
	if steps <= 0 {
		return nil, nil
	}

	rank := m.track.Ranks()[c]
	for step := 1; step <= steps; step++ {
		below, above, err := m.track.Neighbors(c)
		if err != nil {
			return nil, m.cubeError(c, err)
		}
		ctx := StepContext{
			Order:    order,
			Self:     c,
			Rank:     rank,
			Field:    len(m.cubes),
			StepSize: 1,
			Below:    below,
			Above:    above,
			First:    step == 1,
			Last:     step == steps,
		}
		for _, action := range c.ability.Step(m.src, ctx) {
			if err := m.apply(c, action); err != nil {
				return nil, err
			}
		}
		if winners := m.track.Winners(); len(winners) > 0 {
			return winners, nil
		}
	}
	return nil, nil
}

// apply executes one action on behalf of the acting cube, clamping the
// destination at the finish pad.
func (m *Match) apply(actor *Cube, action Action) error {
	dest := action.Cube.pos + action.Forward
	if finish := m.track.FinishIndex(); dest > finish {
		dest = finish
	}
	if err := m.track.Place(action.Cube, dest, action.StackIndex); err != nil {
		return apperrors.WrapWithMetadata(errorCode(err), "apply action", map[string]string{
			"leg":     strconv.Itoa(m.leg),
			"round":   strconv.Itoa(m.round),
			"actor":   actor.name,
			"cube":    action.Cube.name,
			"forward": strconv.Itoa(action.Forward),
		}, err)
	}
	return nil
}

// postRound runs every cube's post-round hook against the settled
// track, then applies the requested movement and stores the order
// overrides for the next round. Collecting before applying keeps one
// hook's movement out of another hook's view of the round.
func (m *Match) postRound(order []*Cube) error {
	ranks := m.track.Ranks()
	type request struct {
		actor  *Cube
		action Action
	}
	var requests []request
	var overrides []OrderOverride
	for _, c := range m.cubes {
		below, above, err := m.track.Neighbors(c)
		if err != nil {
			return m.cubeError(c, err)
		}
		result := c.ability.PostRound(m.src, PostRoundContext{
			Order: order,
			Self:  c,
			Rank:  ranks[c],
			Field: len(m.cubes),
			Below: below,
			Above: above,
		})
		for _, action := range result.Actions {
			requests = append(requests, request{actor: c, action: action})
		}
		overrides = append(overrides, result.Order...)
	}
	for _, req := range requests {
		if err := m.apply(req.actor, req.action); err != nil {
			return err
		}
	}
	m.pending = overrides
	return nil
}

// cubeError tags a track error with the round position it surfaced in.
func (m *Match) cubeError(c *Cube, err error) error {
	return apperrors.WrapWithMetadata(errorCode(err), "inspect track", map[string]string{
		"leg":   strconv.Itoa(m.leg),
		"round": strconv.Itoa(m.round),
		"cube":  c.name,
	}, err)
}

func errorCode(err error) apperrors.Code {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return apperrors.CodeUnknown
}
