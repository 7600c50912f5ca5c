package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz       int `yaml:"tick_rate_hz"`
	DefaultStackSize int `yaml:"default_stack_size"`
	PlayerSlots      int `yaml:"player_slots"`
	MaxQueue         int `yaml:"max_queue"`
	MaxOpenViews     int `yaml:"max_open_views"`
	SaveEveryTicks   int `yaml:"save_every_ticks"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:  "1.0",
		TickRateHz:       20,
		DefaultStackSize: 64,
		PlayerSlots:      36,
		MaxQueue:         8,
		MaxOpenViews:     4,
		SaveEveryTicks:   600,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
