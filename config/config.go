// Package config parses looper project documents. Both JSON and YAML
// documents are accepted.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/tempo"
)

const (
	// DefaultSampleRate is used when project doesn't define sample rate.
	DefaultSampleRate = 44100
	// DefaultFramesPerBuffer is used when project doesn't define buffer size.
	DefaultFramesPerBuffer = 512
)

// Project is a parsed project document.
type Project struct {
	Config  Settings `yaml:"config"`
	Devices []Device `yaml:"devices"`
}

// Settings are the global project settings.
type Settings struct {
	Tempo           Tempo `yaml:"tempo"`
	SampleRate      int   `yaml:"sample_rate"`
	FramesPerBuffer int   `yaml:"frames_per_buffer"`
	StartMeasure    int   `yaml:"start_measure"`
}

// Tempo section of the project. Missing values get defaults.
type Tempo struct {
	BPM             *float64 `yaml:"bpm"`
	BeatsPerMeasure *int     `yaml:"beats_per_measure"`
	BeatDuration    *int     `yaml:"beat_duration"`
}

// Device declares a single block.
type Device struct {
	Name           string                 `yaml:"name"`
	Type           string                 `yaml:"type"`
	InputChannels  []string               `yaml:"input_channels"`
	OutputChannels []string               `yaml:"output_channels"`
	Segments       []Segment              `yaml:"segments"`
	Params         map[string]interface{} `yaml:",inline"`
}

// Segment declares a window of musical time.
type Segment struct {
	Start  *float64 `yaml:"start"`
	Stop   *float64 `yaml:"stop"`
	Offset *float64 `yaml:"offset"`
	Type   string   `yaml:"type"`
	Name   string   `yaml:"name"`
}

// ReadFile reads and parses project file.
func ReadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	return Parse(data)
}

// Parse parses project document, applies defaults and validates it.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Config.SampleRate == 0 {
		p.Config.SampleRate = DefaultSampleRate
	}
	if p.Config.FramesPerBuffer == 0 {
		p.Config.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Project) validate() error {
	if p.Config.SampleRate < 0 {
		return settingsError("sample_rate", "must be positive")
	}
	if p.Config.FramesPerBuffer < 0 {
		return settingsError("frames_per_buffer", "must be positive")
	}
	if p.Config.StartMeasure < 0 {
		return settingsError("start_measure", "must not be negative")
	}
	if _, err := p.Tempo(); err != nil {
		return err
	}
	names := make(map[string]struct{}, len(p.Devices))
	for i, d := range p.Devices {
		if d.Name == "" {
			return &block.ConfigError{Block: fmt.Sprintf("#%d", i), Key: "name", Reason: "missing required field"}
		}
		if _, ok := names[d.Name]; ok {
			return &block.ConfigError{Block: d.Name, Key: "name", Reason: "duplicate device name"}
		}
		names[d.Name] = struct{}{}
		if d.Type == "" {
			return &block.ConfigError{Block: d.Name, Key: "type", Reason: "missing required field"}
		}
		if _, err := d.segments(); err != nil {
			return err
		}
	}
	return nil
}

// Tempo returns tempo settings with defaults applied.
func (p *Project) Tempo() (tempo.Tempo, error) {
	t := tempo.Tempo{
		BPM:             tempo.DefaultBPM,
		BeatsPerMeasure: tempo.DefaultBeatsPerMeasure,
		BeatDuration:    tempo.DefaultBeatDuration,
	}
	if v := p.Config.Tempo.BPM; v != nil {
		if *v <= 0 {
			return t, settingsError("tempo.bpm", "must be positive")
		}
		t.BPM = *v
	}
	if v := p.Config.Tempo.BeatsPerMeasure; v != nil {
		if *v <= 0 {
			return t, settingsError("tempo.beats_per_measure", "must be positive")
		}
		t.BeatsPerMeasure = *v
	}
	if v := p.Config.Tempo.BeatDuration; v != nil {
		if *v <= 0 {
			return t, settingsError("tempo.beat_duration", "must be positive")
		}
		t.BeatDuration = *v
	}
	return t, nil
}

// settingsError is a ConfigError of the project-level settings.
func settingsError(key, reason string) error {
	return &block.ConfigError{Key: key, Reason: reason}
}

// BlockConfig converts device declaration into block configuration.
func (d Device) BlockConfig() (*block.Config, error) {
	segments, err := d.segments()
	if err != nil {
		return nil, err
	}
	params := make(block.Params, len(d.Params))
	for k, v := range d.Params {
		params[k] = normalize(v)
	}
	return &block.Config{
		Name:           d.Name,
		Type:           d.Type,
		InputChannels:  d.InputChannels,
		OutputChannels: d.OutputChannels,
		Segments:       segments,
		Params:         params,
	}, nil
}

func (d Device) segments() (block.Segments, error) {
	segments := make(block.Segments, 0, len(d.Segments))
	for i, s := range d.Segments {
		key := fmt.Sprintf("segments[%d]", i)
		if s.Start == nil || s.Stop == nil {
			return nil, &block.ConfigError{Block: d.Name, Key: key, Reason: "start and stop are required"}
		}
		t, err := block.ParseSegmentType(s.Type)
		if err != nil {
			return nil, &block.ConfigError{Block: d.Name, Key: key, Reason: err.Error()}
		}
		seg := block.Segment{Start: *s.Start, Stop: *s.Stop, Type: t, Name: s.Name}
		if s.Offset != nil {
			seg.Offset = *s.Offset
		}
		if err := seg.Validate(); err != nil {
			return nil, &block.ConfigError{Block: d.Name, Key: key, Reason: err.Error()}
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// normalize converts yaml maps into string-keyed maps so params look the
// same for JSON and YAML documents.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = normalize(item)
		}
		return m
	case []interface{}:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	}
	return v
}
