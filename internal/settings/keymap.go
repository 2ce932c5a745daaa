package settings

import (
	"github.com/amalg/go-bombman/internal/game"
)

// KeyMap binds terminal key names (as reported by bubbletea) to the actions
// of one local player.
type KeyMap struct {
	Player  int      `yaml:"player"`
	Up      []string `yaml:"up"`
	Right   []string `yaml:"right"`
	Down    []string `yaml:"down"`
	Left    []string `yaml:"left"`
	Bomb    []string `yaml:"bomb"`
	Special []string `yaml:"special"`
}

type binding struct {
	action game.Action
	keys   []string
}

func (km KeyMap) bindings() []binding {
	return []binding{
		{game.ActionUp, km.Up},
		{game.ActionRight, km.Right},
		{game.ActionDown, km.Down},
		{game.ActionLeft, km.Left},
		{game.ActionBomb, km.Bomb},
		{game.ActionSpecial, km.Special},
	}
}

// Action returns the action bound to a key.
func (km KeyMap) Action(key string) (game.Action, bool) {
	for _, b := range km.bindings() {
		for _, k := range b.keys {
			if k == key {
				return b.action, true
			}
		}
	}
	return 0, false
}

// DefaultKeyMaps returns the bindings of the first three local players.
func DefaultKeyMaps() []KeyMap {
	return []KeyMap{
		{
			Player:  0,
			Up:      []string{"w", "up"},
			Right:   []string{"d", "right"},
			Down:    []string{"s", "down"},
			Left:    []string{"a", "left"},
			Bomb:    []string{"c", " "},
			Special: []string{"v", "x"},
		},
		{
			Player:  1,
			Up:      []string{"i"},
			Right:   []string{"l"},
			Down:    []string{"k"},
			Left:    []string{"j"},
			Bomb:    []string{"o"},
			Special: []string{"p"},
		},
		{
			Player:  2,
			Up:      []string{"8"},
			Right:   []string{"6"},
			Down:    []string{"5"},
			Left:    []string{"4"},
			Bomb:    []string{"0"},
			Special: []string{"."},
		},
	}
}
