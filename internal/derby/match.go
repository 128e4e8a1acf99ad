package derby

import "github.com/echovale/cubederby/internal/core/dice"

// DefaultPads is the opening-leg track length when none is configured.
const DefaultPads = 23

// MatchConfig configures one match. A zero Pads falls back to
// DefaultPads. Source overrides Seed when set; otherwise the match
// draws from a deterministic source seeded with Seed.
type MatchConfig struct {
	Pads    int
	Seed    int64
	Shuffle bool
	Source  dice.Source
}

// MatchResult holds both finish-line stacks in arrival order.
type MatchResult struct {
	FirstLeg  []*Cube
	SecondLeg []*Cube
}

// Match runs a two-leg race for a fixed cube set. The second leg starts
// automatically when Play is used; PlayRound exposes the same race one
// round at a time.
type Match struct {
	cubes   []*Cube
	pads    int
	src     dice.Source
	track   *Track
	pending []OrderOverride
	leg     int
	round   int
}

// NewMatch lays out the opening leg for the given cubes. The cube set
// order fixes the initial stack on the first pad (earliest entry at the
// bottom) unless Shuffle randomizes it first.
func NewMatch(cubes []*Cube, cfg MatchConfig) (*Match, error) {
	if cfg.Pads == 0 {
		cfg.Pads = DefaultPads
	}
	if cfg.Pads < 2 {
		return nil, ErrTrackTooShort
	}
	if len(cubes) == 0 {
		return nil, ErrRosterEmpty
	}
	src := cfg.Source
	if src == nil {
		src = dice.NewSource(cfg.Seed)
	}
	m := &Match{
		cubes: append([]*Cube(nil), cubes...),
		pads:  cfg.Pads,
		src:   src,
	}
	if cfg.Shuffle {
		m.shuffleCubes()
	}
	m.startLeg()
	return m, nil
}

// shuffleCubes randomizes the cube set order, which in turn randomizes
// the opening stack.
func (m *Match) shuffleCubes() {
	perm := m.src.Perm(len(m.cubes))
	shuffled := make([]*Cube, len(m.cubes))
	for i, j := range perm {
		shuffled[i] = m.cubes[j]
	}
	m.cubes = shuffled
}

// startLeg lays out the track for the next leg. The opening leg stacks
// every cube on the first pad. The second leg extends the track by one
// pad per occupied finishing pad and seats one finishing group per
// opening pad, keeping the standings: the trailing group starts at pad
// zero, the winners furthest along, and each group keeps its stack
// order.
func (m *Match) startLeg() {
	if m.leg == 0 {
		m.track = &Track{pads: make([]Stack, m.pads)}
		for _, c := range m.cubes {
			m.track.seat(c, 0)
		}
	} else {
		groups := m.track.Summary()
		m.track = &Track{pads: make([]Stack, m.pads+len(groups))}
		for pad, group := range groups {
			for _, c := range group.Cubes {
				m.track.seat(c, pad)
			}
		}
	}
	m.pending = nil
	m.round = 0
	m.leg++
}

// Play runs both legs to completion.
func (m *Match) Play() (MatchResult, error) {
	return m.PlayTraced(nil)
}

// PlayTraced runs both legs and reports every resolved round to
// onRound when it is non-nil. A leg that already has winners resolves
// immediately, so Play after PlayLeg continues into the second leg.
func (m *Match) PlayTraced(onRound func(Round)) (MatchResult, error) {
	first, err := m.runLeg(onRound)
	if err != nil {
		return MatchResult{}, err
	}
	if m.leg == 1 {
		m.startLeg()
	}
	second, err := m.runLeg(onRound)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{FirstLeg: first, SecondLeg: second}, nil
}

// PlayLeg runs the current leg to completion and returns its winners.
// It does not start the next leg.
func (m *Match) PlayLeg() ([]*Cube, error) {
	return m.runLeg(nil)
}

// PlayLegTraced runs the current leg to completion, reporting every
// resolved round to onRound when it is non-nil.
func (m *Match) PlayLegTraced(onRound func(Round)) ([]*Cube, error) {
	return m.runLeg(onRound)
}

func (m *Match) runLeg(onRound func(Round)) ([]*Cube, error) {
	for {
		round, err := m.PlayRound()
		if err != nil {
			return nil, err
		}
		if onRound != nil {
			onRound(round)
		}
		if len(round.Winners) > 0 {
			return round.Winners, nil
		}
	}
}

// Leg returns the current leg number, starting at 1.
func (m *Match) Leg() int {
	return m.leg
}

// Cubes returns the cube set in its current order.
func (m *Match) Cubes() []*Cube {
	return append([]*Cube(nil), m.cubes...)
}

// TrackLen returns the current leg's pad count.
func (m *Match) TrackLen() int {
	return m.track.Len()
}

// Summary returns the current occupied pads in ascending order.
func (m *Match) Summary() []PadGroup {
	return m.track.Summary()
}

// Ranks returns the current rank of every cube, 1 being furthest along.
func (m *Match) Ranks() map[*Cube]int {
	return m.track.Ranks()
}

// Winners returns the finish-pad stack of the current leg, in arrival
// order.
func (m *Match) Winners() []*Cube {
	return m.track.Winners()
}

// ResetAbilities clears every cube's ability state so the set can race
// a fresh match. Triggers persist across the two legs of a single
// match, so nothing calls this mid-match.
func ResetAbilities(cubes []*Cube) {
	for _, c := range cubes {
		c.ability.Reset()
	}
}
