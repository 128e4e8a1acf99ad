package derby

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

func TestCatalogListsEveryCharacter(t *testing.T) {
	infos := Catalog()

	want := []string{
		"Brant", "Calcharo", "Camellya", "Cantarella", "Carlotta",
		"Cartethiya", "Changli", "Jinhsi", "Phoebe", "Roccia",
		"Shorekeeper", "Zani",
	}
	got := make([]string, len(infos))
	for i, info := range infos {
		got[i] = info.Name
		if info.Description == "" {
			t.Fatalf("expected a description for %s", info.Name)
		}
	}
	if !sort.StringsAreSorted(got) {
		t.Fatalf("expected name-sorted catalog, got %v", got)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected catalog %v, got %v", want, got)
	}
}

func TestNewCubeUnknownNameRacesDefault(t *testing.T) {
	cube := NewCube("Aalto", Ruleset{})
	if _, ok := cube.ability.(defaultAbility); !ok {
		t.Fatalf("expected the default ability, got %T", cube.ability)
	}
	if cube.Name() != "Aalto" {
		t.Fatalf("expected name Aalto, got %s", cube.Name())
	}
}

func TestNewCubeCamellyaFollowsRuleset(t *testing.T) {
	stock := NewCube("Camellya", Ruleset{})
	if ability := stock.ability.(*groupBoost); ability.corrected {
		t.Fatalf("expected the dormant boost by default")
	}

	corrected := NewCube("Camellya", Ruleset{CamellyaTrigger: true})
	if ability := corrected.ability.(*groupBoost); !ability.corrected {
		t.Fatalf("expected the corrected boost when enabled")
	}
}

func TestNewRosterFiltersAndValidates(t *testing.T) {
	cubes, err := NewRoster([]string{" Brant ", "", "Aalto", "  "}, Ruleset{})
	if err != nil {
		t.Fatalf("new roster: %v", err)
	}
	if got := cubeNames(cubes); !reflect.DeepEqual(got, []string{"Brant", "Aalto"}) {
		t.Fatalf("expected trimmed roster in order, got %v", got)
	}
	if _, ok := cubes[0].ability.(turnOrderBonus); !ok {
		t.Fatalf("expected Brant to carry his ability, got %T", cubes[0].ability)
	}
}

func TestNewRosterRejectsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{name: "nil", names: nil},
		{name: "all blank", names: []string{"", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRoster(tt.names, Ruleset{}); !errors.Is(err, ErrRosterEmpty) {
				t.Fatalf("expected ErrRosterEmpty, got %v", err)
			}
		})
	}
}

func TestNewRosterRejectsDuplicates(t *testing.T) {
	_, err := NewRoster([]string{"Zani", "Aalto", "Zani"}, Ruleset{})
	if !errors.Is(err, ErrRosterDuplicate) {
		t.Fatalf("expected ErrRosterDuplicate, got %v", err)
	}
}
