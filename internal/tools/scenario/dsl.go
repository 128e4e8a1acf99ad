// Package scenario executes Lua race scripts against the derby engine.
//
// A script builds a Derby value, queues configuration and race steps on
// it, and returns it. The runner replays the steps in order, checking
// any expectations they carry.
package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const derbyTypeName = "derby"

// Scenario is a named ordered list of steps produced by a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one queued scenario action.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua script and returns the Derby scenario
// it built.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return a Derby")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned an invalid Derby")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, derbyTypeName)
	state.NewTable()
	lua.SetFunctions(state, derbyMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, derbyConstructor, 0)
	state.SetGlobal("Derby")
}

var derbyConstructor = []lua.RegistryFunction{
	{Name: "new", Function: derbyNew},
}

func derbyNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, derbyTypeName)
	return 1
}

var derbyMethods = []lua.RegistryFunction{
	{Name: "roster", Function: derbyRoster},
	{Name: "pads", Function: derbyPads},
	{Name: "seed", Function: derbySeed},
	{Name: "shuffle", Function: derbyShuffle},
	{Name: "camellya_trigger", Function: derbyCamellyaTrigger},
	{Name: "round", Function: derbyRound},
	{Name: "play_leg", Function: derbyPlayLeg},
	{Name: "play", Function: derbyPlay},
	{Name: "batch", Function: derbyBatch},
	{Name: "expect_pad", Function: derbyExpectPad},
	{Name: "expect_rank", Function: derbyExpectRank},
	{Name: "expect_track_len", Function: derbyExpectTrackLen},
}

func derbyRoster(state *lua.State) int {
	scenario := checkDerby(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "roster", map[string]any{"cubes": luaToGo(state, 2)})
	return 0
}

func derbyPads(state *lua.State) int {
	scenario := checkDerby(state)
	pads := lua.CheckInteger(state, 2)
	appendStep(scenario, "pads", map[string]any{"pads": pads})
	return 0
}

func derbySeed(state *lua.State) int {
	scenario := checkDerby(state)
	seed := lua.CheckInteger(state, 2)
	appendStep(scenario, "seed", map[string]any{"seed": seed})
	return 0
}

func derbyShuffle(state *lua.State) int {
	scenario := checkDerby(state)
	appendStep(scenario, "shuffle", map[string]any{"enabled": optionalFlag(state, 2)})
	return 0
}

func derbyCamellyaTrigger(state *lua.State) int {
	scenario := checkDerby(state)
	appendStep(scenario, "camellya_trigger", map[string]any{"enabled": optionalFlag(state, 2)})
	return 0
}

func derbyRound(state *lua.State) int {
	scenario := checkDerby(state)
	appendStep(scenario, "round", optionalTable(state, 2))
	return 0
}

func derbyPlayLeg(state *lua.State) int {
	scenario := checkDerby(state)
	appendStep(scenario, "play_leg", optionalTable(state, 2))
	return 0
}

func derbyPlay(state *lua.State) int {
	scenario := checkDerby(state)
	appendStep(scenario, "play", optionalTable(state, 2))
	return 0
}

func derbyBatch(state *lua.State) int {
	scenario := checkDerby(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "batch", tableToMap(state, 2))
	return 0
}

func derbyExpectPad(state *lua.State) int {
	scenario := checkDerby(state)
	name := lua.CheckString(state, 2)
	pad := lua.CheckInteger(state, 3)
	appendStep(scenario, "expect_pad", map[string]any{"cube": name, "pad": pad})
	return 0
}

func derbyExpectRank(state *lua.State) int {
	scenario := checkDerby(state)
	name := lua.CheckString(state, 2)
	rank := lua.CheckInteger(state, 3)
	appendStep(scenario, "expect_rank", map[string]any{"cube": name, "rank": rank})
	return 0
}

func derbyExpectTrackLen(state *lua.State) int {
	scenario := checkDerby(state)
	pads := lua.CheckInteger(state, 2)
	appendStep(scenario, "expect_track_len", map[string]any{"pads": pads})
	return 0
}

func checkDerby(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, derbyTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "derby expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
}

// optionalFlag reads an optional boolean argument that defaults to
// true, so `scene:shuffle()` reads naturally.
func optionalFlag(state *lua.State, index int) bool {
	if state.IsNoneOrNil(index) {
		return true
	}
	return state.ToBoolean(index)
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
