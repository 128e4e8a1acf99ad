package derby

import (
	"strconv"

	apperrors "github.com/echovale/cubederby/internal/platform/errors"
)

var (
	// ErrTrackInvariant indicates a cube was not on the pad its position records.
	ErrTrackInvariant = apperrors.New(apperrors.CodeTrackInvariant, "cube is not on the pad its position records")
	// ErrTrackBounds indicates a placement outside the track.
	ErrTrackBounds = apperrors.New(apperrors.CodeTrackBounds, "pad index is outside the track")
	// ErrTrackTooShort indicates a track without room for a race.
	ErrTrackTooShort = apperrors.New(apperrors.CodeTrackTooShort, "track needs at least two pads")
)

// Stack is the ordered cubes on one pad, bottom (earliest arrival) first.
type Stack []*Cube

func (s Stack) index(c *Cube) int {
	for i, other := range s {
		if other == c {
			return i
		}
	}
	return -1
}

// StackTop appends to the top of the destination stack instead of
// inserting at a fixed index.
const StackTop = -1

// Track is the linear pad sequence for one leg. The last pad is the
// finish line.
type Track struct {
	pads []Stack
}

// NewTrack builds an empty track with the given number of pads.
func NewTrack(pads int) (*Track, error) {
	if pads < 2 {
		return nil, ErrTrackTooShort
	}
	return &Track{pads: make([]Stack, pads)}, nil
}

// Len returns the number of pads.
func (t *Track) Len() int {
	return len(t.pads)
}

// FinishIndex returns the index of the finish pad.
func (t *Track) FinishIndex() int {
	return len(t.pads) - 1
}

// seat adds a cube to a pad's top while laying out a leg. Unlike Place
// it does not remove the cube from a previous pad.
func (t *Track) seat(c *Cube, pad int) {
	t.pads[pad] = append(t.pads[pad], c)
	c.pos = pad
}

// Place moves a cube to the destination pad. The cube is removed from
// the pad its recorded position names — an invariant violation if it is
// not actually there — then inserted at stackIndex (StackTop appends)
// and its recorded position is updated.
func (t *Track) Place(c *Cube, pad int, stackIndex int) error {
	if pad < 0 || pad >= len(t.pads) {
		return apperrors.WithMetadata(apperrors.CodeTrackBounds, "pad index is outside the track", map[string]string{
			"cube": c.name,
			"pad":  strconv.Itoa(pad),
		})
	}
	cur, err := t.locate(c)
	if err != nil {
		return err
	}

	src := t.pads[c.pos]
	t.pads[c.pos] = append(src[:cur], src[cur+1:]...)

	dst := t.pads[pad]
	if stackIndex < 0 || stackIndex >= len(dst) {
		t.pads[pad] = append(dst, c)
	} else {
		dst = append(dst, nil)
		copy(dst[stackIndex+1:], dst[stackIndex:])
		dst[stackIndex] = c
		t.pads[pad] = dst
	}
	c.pos = pad
	return nil
}

// Neighbors returns the cubes stacked below and above the given cube on
// its pad, in stack order. Both slices are copies: later track mutation
// does not reach into them.
func (t *Track) Neighbors(c *Cube) (below, above []*Cube, err error) {
	cur, err := t.locate(c)
	if err != nil {
		return nil, nil, err
	}
	stack := t.pads[c.pos]
	below = append([]*Cube(nil), stack[:cur]...)
	above = append([]*Cube(nil), stack[cur+1:]...)
	return below, above, nil
}

// locate finds the cube's index within the stack of its recorded pad.
func (t *Track) locate(c *Cube) (int, error) {
	if c.pos < 0 || c.pos >= len(t.pads) {
		return 0, apperrors.WithMetadata(apperrors.CodeTrackInvariant, "cube position is outside the track", map[string]string{
			"cube":     c.name,
			"position": strconv.Itoa(c.pos),
		})
	}
	cur := t.pads[c.pos].index(c)
	if cur < 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeTrackInvariant, "cube is not on the pad its position records", map[string]string{
			"cube":     c.name,
			"position": strconv.Itoa(c.pos),
		})
	}
	return cur, nil
}

// PadGroup is one occupied pad and its stack.
type PadGroup struct {
	Pad   int
	Cubes []*Cube
}

// Summary returns the occupied pads in ascending order, stacks
// bottom-first. It feeds second-leg seeding and external rendering.
func (t *Track) Summary() []PadGroup {
	var groups []PadGroup
	for pad, stack := range t.pads {
		if len(stack) == 0 {
			continue
		}
		groups = append(groups, PadGroup{Pad: pad, Cubes: append([]*Cube(nil), stack...)})
	}
	return groups
}

// Leaderboard returns the occupied pads from the finish line backward,
// each stack top-first. Flattening it yields the rank order.
func (t *Track) Leaderboard() []PadGroup {
	var groups []PadGroup
	for pad := len(t.pads) - 1; pad >= 0; pad-- {
		stack := t.pads[pad]
		if len(stack) == 0 {
			continue
		}
		reversed := make([]*Cube, 0, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			reversed = append(reversed, stack[i])
		}
		groups = append(groups, PadGroup{Pad: pad, Cubes: reversed})
	}
	return groups
}

// Ranks assigns rank 1..K to every cube: closer to the finish wins, and
// cubes sharing a pad are ranked top of the stack first. Ranks are
// unique.
func (t *Track) Ranks() map[*Cube]int {
	ranks := make(map[*Cube]int)
	rank := 1
	for _, group := range t.Leaderboard() {
		for _, c := range group.Cubes {
			ranks[c] = rank
			rank++
		}
	}
	return ranks
}

// Winners returns the cubes on the finish pad in arrival order. The
// slice is a copy.
func (t *Track) Winners() []*Cube {
	finish := t.pads[len(t.pads)-1]
	if len(finish) == 0 {
		return nil
	}
	return append([]*Cube(nil), finish...)
}
