package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// roomsFile is the on-disk layout of a standalone room table file.
type roomsFile struct {
	Rooms []Room `yaml:"rooms"`
}

// DefaultRooms returns the built-in room table: a practice room, a
// fast-paced tournament room, and the standard tournament room.
//
// Postcondition: Returns a non-empty, valid room table.
func DefaultRooms() []Room {
	return []Room{
		{Name: "test", Port: 23548, WinPoints: 30, TimeLimit: 40 * time.Second},
		{Name: "blitz", Port: 23549, WinPoints: 25, TimeLimit: 21 * time.Second, Tournament: true},
		{Name: "tournament", Port: 23550, WinPoints: 30, TimeLimit: 35 * time.Second, Tournament: true},
	}
}

// LoadRoomsFile reads a standalone room table from a YAML file. Deployments
// that run several room processes against one shared table use this instead
// of inlining rooms in each server config.
//
// Precondition: path must reference a readable YAML file.
// Postcondition: Returns a validated, non-empty room table or a non-nil error.
func LoadRoomsFile(path string) ([]Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rooms file: %w", err)
	}

	var f roomsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rooms file %s: %w", path, err)
	}

	if err := ValidateRooms(f.Rooms); err != nil {
		return nil, fmt.Errorf("invalid rooms file %s: %w", path, err)
	}
	return f.Rooms, nil
}

// ValidateRooms checks the room table invariants.
//
// Postcondition: Returns nil if every room entry is valid and ports are
// unique, or an error describing all violations.
func ValidateRooms(rooms []Room) error {
	var errs []string
	if len(rooms) == 0 {
		errs = append(errs, "rooms must contain at least one entry")
	}
	seen := make(map[int]bool, len(rooms))
	for i, r := range rooms {
		if r.Name == "" {
			errs = append(errs, fmt.Sprintf("rooms[%d].name must not be empty", i))
		}
		if r.Port < 1 || r.Port > 65535 {
			errs = append(errs, fmt.Sprintf("rooms[%d].port must be 1-65535, got %d", i, r.Port))
		}
		if seen[r.Port] {
			errs = append(errs, fmt.Sprintf("rooms[%d].port %d is duplicated", i, r.Port))
		}
		seen[r.Port] = true
		if r.WinPoints < 1 {
			errs = append(errs, fmt.Sprintf("rooms[%d].win_points must be >= 1, got %d", i, r.WinPoints))
		}
		if r.TimeLimit < 0 {
			errs = append(errs, fmt.Sprintf("rooms[%d].time_limit must not be negative", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Room describes one room profile keyed by listening port.
type Room struct {
	// Name is the room display name.
	Name string `mapstructure:"name" yaml:"name"`
	// Port is the listening port that selects this room.
	Port int `mapstructure:"port" yaml:"port"`
	// WinPoints is the point total at which a round is won.
	WinPoints int `mapstructure:"win_points" yaml:"win_points"`
	// TimeLimit is the per-turn time limit passed through to the rules engine.
	TimeLimit time.Duration `mapstructure:"time_limit" yaml:"time_limit"`
	// Tournament enables time-windowed tournament scoring for this room.
	Tournament bool `mapstructure:"tournament" yaml:"tournament"`
}
