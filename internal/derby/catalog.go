package derby

import (
	"sort"
	"strings"

	apperrors "github.com/echovale/cubederby/internal/platform/errors"
)

var (
	// ErrRosterEmpty indicates a match was requested with no cubes.
	ErrRosterEmpty = apperrors.New(apperrors.CodeRosterEmpty, "roster needs at least one cube")
	// ErrRosterDuplicate indicates two roster entries share a name.
	ErrRosterDuplicate = apperrors.New(apperrors.CodeRosterDuplicate, "roster names must be unique")
)

// Ruleset tunes optional engine behavior.
type Ruleset struct {
	// CamellyaTrigger arms Camellya's group boost with a 50% roll on
	// each of her first steps. Off by default: the stock build ships
	// with the boost dormant (see groupBoost).
	CamellyaTrigger bool
}

// CubeInfo describes one catalog entry.
type CubeInfo struct {
	Name        string
	Description string
}

// catalog maps character names to their published ability text and a
// constructor. Names outside the catalog race with the default
// behavior.
var catalog = map[string]struct {
	description string
	ability     func(Ruleset) Ability
}{
	"Roccia": {
		description: "If Roccia is the last to move, she advances 2 extra pads.",
		ability:     func(Ruleset) Ability { return turnOrderBonus{atEnd: true, bonus: 2} },
	},
	"Brant": {
		description: "If Brant is the first to move, he advances 2 extra pads.",
		ability:     func(Ruleset) Ability { return turnOrderBonus{bonus: 2} },
	},
	"Calcharo": {
		description: "If Calcharo is the last to move, he advances 3 extra pads.",
		ability:     func(Ruleset) Ability { return turnOrderBonus{atEnd: true, bonus: 3} },
	},
	"Cantarella": {
		description: "The first time Cantarella passes by other cubes, she stacks with them and carries them forward. Triggers once per match.",
		ability:     func(Ruleset) Ability { return &carrier{} },
	},
	"Zani": {
		description: "The dice will only roll a 1 or 3. When moving with other cubes stacked above, there is a 40% chance to advance 2 extra pads next turn.",
		ability:     func(Ruleset) Ability { return &momentum{} },
	},
	"Phoebe": {
		description: "There is a 50% chance to advance an extra pad.",
		ability:     func(Ruleset) Ability { return coinFlip{} },
	},
	"Cartethiya": {
		description: "If ranked last after her own action, there is a 60% chance to advance 2 extra pads in all remaining turns. Triggers once per match.",
		ability:     func(Ruleset) Ability { return &comeback{} },
	},
	"Jinhsi": {
		description: "If other cubes are stacked on top of Jinhsi, there is a 40% chance she will move to the top of the stack.",
		ability:     func(Ruleset) Ability { return &stackClimber{} },
	},
	"Camellya": {
		description: "There is a 50% chance of triggering this effect on Camellya's turn. For every other cube on the same pad, she advances 1 extra pad while they stay in place.",
		ability:     func(rules Ruleset) Ability { return &groupBoost{corrected: rules.CamellyaTrigger} },
	},
	"Carlotta": {
		description: "There is a 28% chance to advance twice with one rolled number.",
		ability:     func(Ruleset) Ability { return doubleDown{} },
	},
	"Changli": {
		description: "If other cubes are stacked below Changli, there is a 65% chance she will be the last to move in the next round.",
		ability:     func(Ruleset) Ability { return &orderManipulator{} },
	},
	"Shorekeeper": {
		description: "The dice will only roll a 2 or 3.",
		ability:     func(Ruleset) Ability { return steadyDice{} },
	},
}

// Catalog lists the special-ability cubes in name order.
func Catalog() []CubeInfo {
	infos := make([]CubeInfo, 0, len(catalog))
	for name, entry := range catalog {
		infos = append(infos, CubeInfo{Name: name, Description: entry.description})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// NewCube builds a competitor. Cataloged character names get their
// ability; any other name races with the default behavior.
func NewCube(name string, rules Ruleset) *Cube {
	ability := Ability(defaultAbility{})
	if entry, ok := catalog[name]; ok {
		ability = entry.ability(rules)
	}
	return &Cube{name: name, ability: ability}
}

// DefaultRoster returns the event roster raced when none is
// configured.
func DefaultRoster() []string {
	return []string{"Calcharo", "Phoebe", "Jinhsi", "Brant"}
}

// NewRoster builds the competitor set for one match. Blank entries are
// dropped; the remainder must be non-empty and free of duplicates.
func NewRoster(names []string, rules Ruleset) ([]*Cube, error) {
	cubes := make([]*Cube, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, apperrors.WithMetadata(apperrors.CodeRosterDuplicate, "roster names must be unique", map[string]string{
				"name": name,
			})
		}
		seen[name] = true
		cubes = append(cubes, NewCube(name, rules))
	}
	if len(cubes) == 0 {
		return nil, ErrRosterEmpty
	}
	return cubes, nil
}
