// Package settings holds the persisted user settings and the key maps that
// turn terminal key presses into player actions.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/amalg/go-bombman/internal/game"
)

// SoundVolumeThreshold is the volume below which sound counts as off.
const SoundVolumeThreshold = 0.01

// Resolution is a screen size in pixels.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Resolutions lists the supported screen sizes.
var Resolutions = []Resolution{
	{960, 720},
	{1024, 768},
	{1280, 720},
	{1280, 1024},
	{1366, 768},
	{1680, 1050},
	{1920, 1080},
}

// Settings are the user's persisted preferences.
type Settings struct {
	SoundVolume      float64    `yaml:"sound_volume"`
	MusicVolume      float64    `yaml:"music_volume"`
	ScreenResolution Resolution `yaml:"screen_resolution"`
	Fullscreen       bool       `yaml:"fullscreen"`
	ControlByMouse   bool       `yaml:"control_by_mouse"`
	PlayerName       string     `yaml:"player_name"`
	MenuKeys         []string   `yaml:"menu_keys"`
	KeyMaps          []KeyMap   `yaml:"key_maps"`
}

// Default returns the factory settings.
func Default() Settings {
	return Settings{
		SoundVolume:      0.7,
		MusicVolume:      0.2,
		ScreenResolution: Resolutions[0],
		MenuKeys:         []string{"esc"},
		KeyMaps:          DefaultKeyMaps(),
	}
}

// SoundOn reports whether sound effects are audible.
func (s Settings) SoundOn() bool { return s.SoundVolume > SoundVolumeThreshold }

// MusicOn reports whether music is audible.
func (s Settings) MusicOn() bool { return s.MusicVolume > SoundVolumeThreshold }

// ResolutionIndex is the index of the current resolution in Resolutions,
// or 0 when it is not a supported one.
func (s Settings) ResolutionIndex() int {
	for i, r := range Resolutions {
		if r == s.ScreenResolution {
			return i
		}
	}
	return 0
}

// KeyMapFor returns the key map of a local player, if any.
func (s Settings) KeyMapFor(player int) (KeyMap, bool) {
	for _, km := range s.KeyMaps {
		if km.Player == player {
			return km, true
		}
	}
	return KeyMap{}, false
}

// IsMenuKey reports whether the key opens the menu.
func (s Settings) IsMenuKey(key string) bool {
	for _, k := range s.MenuKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks value ranges and key conflicts.
func (s Settings) Validate() error {
	if s.SoundVolume < 0 || s.SoundVolume > 1 {
		return fmt.Errorf("sound volume %.2f out of range", s.SoundVolume)
	}
	if s.MusicVolume < 0 || s.MusicVolume > 1 {
		return fmt.Errorf("music volume %.2f out of range", s.MusicVolume)
	}
	seen := make(map[string]int)
	for _, k := range s.MenuKeys {
		seen[k] = -1
	}
	for _, km := range s.KeyMaps {
		if km.Player < 0 || km.Player >= game.MaxPlayers {
			return fmt.Errorf("key map for invalid player %d", km.Player)
		}
		for _, b := range km.bindings() {
			for _, k := range b.keys {
				if owner, ok := seen[k]; ok {
					return fmt.Errorf("key %q bound twice (players %d and %d)", k, owner, km.Player)
				}
				seen[k] = km.Player
			}
		}
	}
	return nil
}

// Marshal encodes settings as YAML.
func Marshal(s Settings) ([]byte, error) {
	return yaml.Marshal(&s)
}

// Unmarshal decodes YAML settings. Missing fields keep their defaults.
func Unmarshal(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Load reads settings from a file. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read settings: %w", err)
	}
	return Unmarshal(data)
}

// Save writes settings to a file, creating its directory.
func Save(path string, s Settings) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultPath is the settings file in the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bombman.yaml"
	}
	return filepath.Join(dir, "bombman", "settings.yaml")
}
