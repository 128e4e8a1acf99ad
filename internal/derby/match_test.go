package derby

import (
	"errors"
	"reflect"
	"testing"

	"github.com/echovale/cubederby/internal/core/dice"
	"github.com/echovale/cubederby/internal/testkit/dicefakes"
)

func TestNewMatchDefaults(t *testing.T) {
	cubes := mustRoster(t, "Aalto", "Baizhi")
	m, err := NewMatch(cubes, MatchConfig{Source: &dicefakes.Source{}})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	if m.TrackLen() != DefaultPads {
		t.Fatalf("expected %d pads, got %d", DefaultPads, m.TrackLen())
	}
	if m.Leg() != 1 {
		t.Fatalf("expected leg 1, got %d", m.Leg())
	}

	summary := m.Summary()
	if len(summary) != 1 || summary[0].Pad != 0 {
		t.Fatalf("expected everyone on pad 0, got %+v", summary)
	}
	if got := cubeNames(summary[0].Cubes); !reflect.DeepEqual(got, []string{"Aalto", "Baizhi"}) {
		t.Fatalf("expected the roster order on the opening stack, got %v", got)
	}
}

func TestNewMatchValidation(t *testing.T) {
	cubes := mustRoster(t, "Aalto")

	if _, err := NewMatch(cubes, MatchConfig{Pads: 1}); !errors.Is(err, ErrTrackTooShort) {
		t.Fatalf("expected ErrTrackTooShort, got %v", err)
	}
	if _, err := NewMatch(nil, MatchConfig{Pads: 5}); !errors.Is(err, ErrRosterEmpty) {
		t.Fatalf("expected ErrRosterEmpty, got %v", err)
	}
}

func TestShuffleReordersOpeningStack(t *testing.T) {
	cubes := mustRoster(t, "Aalto", "Baizhi", "Chixia")
	src := &dicefakes.Source{PermQueue: [][]int{{2, 1, 0}}}
	m, err := NewMatch(cubes, MatchConfig{Pads: 5, Shuffle: true, Source: src})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}

	got := cubeNames(m.Summary()[0].Cubes)
	if !reflect.DeepEqual(got, []string{"Chixia", "Baizhi", "Aalto"}) {
		t.Fatalf("expected the shuffled order on pad 0, got %v", got)
	}
	if order := cubeNames(m.Cubes()); !reflect.DeepEqual(order, []string{"Chixia", "Baizhi", "Aalto"}) {
		t.Fatalf("expected the cube set shuffled, got %v", order)
	}
}

func TestSecondLegLayout(t *testing.T) {
	cubes := mustRoster(t, "Aalto", "Baizhi", "Chixia")
	m, err := NewMatch(cubes, MatchConfig{Pads: 5, Source: &dicefakes.Source{}})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	// Fake a finished first leg: a pair mid-track and a winner on the
	// finish pad.
	if err := m.track.Place(cubes[0], 2, StackTop); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := m.track.Place(cubes[1], 2, StackTop); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := m.track.Place(cubes[2], 4, StackTop); err != nil {
		t.Fatalf("place: %v", err)
	}

	m.startLeg()

	if m.Leg() != 2 {
		t.Fatalf("expected leg 2, got %d", m.Leg())
	}
	// Two occupied pads extend the configured track by two.
	if m.TrackLen() != 7 {
		t.Fatalf("expected 7 pads, got %d", m.TrackLen())
	}
	summary := m.Summary()
	if len(summary) != 2 {
		t.Fatalf("expected 2 opening groups, got %+v", summary)
	}
	if summary[0].Pad != 0 || summary[1].Pad != 1 {
		t.Fatalf("expected groups on pads 0 and 1, got %d,%d", summary[0].Pad, summary[1].Pad)
	}
	if got := cubeNames(summary[0].Cubes); !reflect.DeepEqual(got, []string{"Aalto", "Baizhi"}) {
		t.Fatalf("expected the trailing pair first with order kept, got %v", got)
	}
	if got := cubeNames(summary[1].Cubes); !reflect.DeepEqual(got, []string{"Chixia"}) {
		t.Fatalf("expected the leg winner furthest along, got %v", got)
	}
}

func TestPlayRunsBothLegs(t *testing.T) {
	cubes := mustRoster(t, "Aalto", "Baizhi", "Chixia")
	m, err := NewMatch(cubes, MatchConfig{Pads: 6, Source: dice.NewSource(11)})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}

	var rounds []Round
	result, err := m.PlayTraced(func(r Round) { rounds = append(rounds, r) })
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	if len(result.FirstLeg) == 0 || len(result.SecondLeg) == 0 {
		t.Fatalf("expected winners for both legs, got %+v", result)
	}
	if m.Leg() != 2 {
		t.Fatalf("expected the match to end on leg 2, got %d", m.Leg())
	}
	roster := map[string]bool{"Aalto": true, "Baizhi": true, "Chixia": true}
	for _, c := range append(append([]*Cube(nil), result.FirstLeg...), result.SecondLeg...) {
		if !roster[c.Name()] {
			t.Fatalf("unexpected winner %s", c.Name())
		}
	}

	if rounds[0].Leg != 1 || rounds[0].Number != 1 {
		t.Fatalf("expected the trace to start at leg 1 round 1, got %+v", rounds[0])
	}
	sawSecond := false
	for i, r := range rounds {
		if r.Leg == 2 {
			if !sawSecond && r.Number != 1 {
				t.Fatalf("expected the round counter to restart on leg 2, got %d", r.Number)
			}
			sawSecond = true
		}
		if i == len(rounds)-1 && len(r.Winners) == 0 {
			t.Fatalf("expected the final traced round to carry winners")
		}
	}
	if !sawSecond {
		t.Fatalf("expected traced rounds from leg 2")
	}
}

func TestPlayContinuesAFinishedFirstLeg(t *testing.T) {
	cubes := mustRoster(t, "Aalto", "Baizhi")
	m, err := NewMatch(cubes, MatchConfig{Pads: 4, Source: dice.NewSource(3)})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}

	first, err := m.PlayLeg()
	if err != nil {
		t.Fatalf("play leg: %v", err)
	}
	if len(first) == 0 {
		t.Fatalf("expected first-leg winners")
	}
	if m.Leg() != 1 {
		t.Fatalf("expected PlayLeg to stay on leg 1, got %d", m.Leg())
	}

	result, err := m.Play()
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := cubeNames(result.FirstLeg); !reflect.DeepEqual(got, cubeNames(first)) {
		t.Fatalf("expected the recorded first-leg winners, got %v", got)
	}
	if len(result.SecondLeg) == 0 {
		t.Fatalf("expected second-leg winners")
	}
	if m.Leg() != 2 {
		t.Fatalf("expected leg 2 after Play, got %d", m.Leg())
	}
}

func TestStartLegKeepsAbilityState(t *testing.T) {
	cubes := mustRoster(t, "Cantarella", "Aalto")
	m, err := NewMatch(cubes, MatchConfig{Pads: 5, Source: &dicefakes.Source{}})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	ability := cubes[0].ability.(*carrier)
	ability.used = true

	m.startLeg()

	if !ability.used {
		t.Fatalf("expected trigger state to survive the leg change")
	}
}

func TestResetAbilities(t *testing.T) {
	cubes := mustRoster(t, "Cantarella", "Cartethiya")
	cubes[0].ability.(*carrier).used = true
	cubes[1].ability.(*comeback).armed = true

	ResetAbilities(cubes)

	if cubes[0].ability.(*carrier).used {
		t.Fatalf("expected the carrier flag cleared")
	}
	if cubes[1].ability.(*comeback).armed {
		t.Fatalf("expected the comeback flag cleared")
	}
}
