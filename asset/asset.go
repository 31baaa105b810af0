// Package asset loads clips and instrument definitions from the assets
// directory. Decoded clips are cached and resampled to the project sample
// rate.
package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/wav"
)

// Directories inside of the assets root.
const (
	ClipsDir       = "clips"
	InstrumentsDir = "instruments"
)

// ErrNotFound is returned when asset doesn't exist.
var ErrNotFound = errors.New("asset not found")

// DecodeFunc decodes a file into mono clip and returns its sample rate.
type DecodeFunc func(path string) (*stream.Clip, int, error)

// Store provides access to assets.
type Store struct {
	root       string
	sampleRate int
	log        log.Logger

	mu       sync.Mutex
	decoders map[string]DecodeFunc
	clips    map[string]*stream.Clip
}

// Sound maps a key to a clip.
type Sound struct {
	Key  string `yaml:"key"`
	File string `yaml:"file"`
}

// Instrument is an instrument definition.
type Instrument struct {
	Sounds []Sound `yaml:"sounds"`
}

// New returns a store rooted at provided directory. Wav decoder is always
// registered.
func New(root string, sampleRate int, logger log.Logger) *Store {
	if logger == nil {
		logger = log.Silent()
	}
	s := &Store{
		root:       root,
		sampleRate: sampleRate,
		log:        logger,
		decoders:   make(map[string]DecodeFunc),
		clips:      make(map[string]*stream.Clip),
	}
	s.Register(".wav", func(path string) (*stream.Clip, int, error) {
		clip, format, err := wav.ReadClip(path)
		return clip, format.SampleRate, err
	})
	return s
}

// Register adds decoder for file extension.
func (s *Store) Register(ext string, fn DecodeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decoders[strings.ToLower(ext)] = fn
}

// Root returns assets root directory.
func (s *Store) Root() string {
	return s.root
}

// Clip returns a copy of the named clip. Name may omit the extension, then
// every registered extension is tried.
func (s *Store) Clip(name string) (*stream.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clip, ok := s.clips[name]; ok {
		return clip.Copy(), nil
	}
	path, decode, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	clip, sampleRate, err := decode(path)
	if err != nil {
		return nil, err
	}
	if sampleRate != s.sampleRate && sampleRate > 0 {
		s.log.Debugf("resampling clip %q from %d to %d", name, sampleRate, s.sampleRate)
		clip = stream.NewClip(Resample(clip.Samples(), sampleRate, s.sampleRate))
	}
	s.clips[name] = clip
	return clip.Copy(), nil
}

func (s *Store) resolve(name string) (string, DecodeFunc, error) {
	base := filepath.Join(s.root, ClipsDir, name)
	if fn, ok := s.decoders[strings.ToLower(filepath.Ext(name))]; ok {
		if _, err := os.Stat(base); err == nil {
			return base, fn, nil
		}
	}
	tried := []string{base}
	for ext, fn := range s.decoders {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return path, fn, nil
		}
		tried = append(tried, path)
	}
	return "", nil, fmt.Errorf("clip %q: %w, tried: %s", name, ErrNotFound, strings.Join(tried, ", "))
}

// Instrument reads named instrument definition.
func (s *Store) Instrument(name string) (*Instrument, error) {
	path := filepath.Join(s.root, InstrumentsDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("instrument %q: %w", name, ErrNotFound)
		}
		return nil, err
	}
	var inst Instrument
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("instrument %q: %w", name, err)
	}
	for i, sound := range inst.Sounds {
		if sound.Key == "" || sound.File == "" {
			return nil, fmt.Errorf("instrument %q: sound #%d must define key and file", name, i)
		}
	}
	return &inst, nil
}

// Resample converts samples between sample rates with linear
// interpolation.
func Resample(samples []float64, from, to int) []float64 {
	if from == to || len(samples) == 0 {
		return samples
	}
	ratio := float64(from) / float64(to)
	n := int(float64(len(samples)) / ratio)
	result := make([]float64, n)
	for i := range result {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)
		if j+1 < len(samples) {
			result[i] = samples[j]*(1-frac) + samples[j+1]*frac
		} else {
			result[i] = samples[len(samples)-1]
		}
	}
	return result
}
