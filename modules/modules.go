// Package modules registers every built-in block type.
package modules

import (
	"github.com/pipelined/looper/asset"
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/filter"
	"github.com/pipelined/looper/instrument"
	"github.com/pipelined/looper/loop"
	"github.com/pipelined/looper/metronome"
	"github.com/pipelined/looper/mixer"
	"github.com/pipelined/looper/mp3"
	"github.com/pipelined/looper/portaudio"
	"github.com/pipelined/looper/recorder"
	"github.com/pipelined/looper/toggle"
)

// Decoders returns clip decoders in addition to wav, which is always
// available.
func Decoders() map[string]asset.DecodeFunc {
	return map[string]asset.DecodeFunc{
		".mp3": mp3.ReadClip,
	}
}

// Writers returns recorder writers for every supported format.
func Writers() recorder.Writers {
	writers := recorder.DefaultWriters()
	writers["mp3"] = mp3.Encoder{
		BitRate: mp3.DefaultBitRate,
		Quality: mp3.DefaultQuality,
	}.WriteClip
	return writers
}

// Register adds all built-in types to the registry.
func Register(r *block.Registry) error {
	sources := map[string]block.SourceAllocatorFunc{
		metronome.Type:      metronome.Allocator,
		instrument.Type:     instrument.Allocator,
		portaudio.InputType: portaudio.InputAllocator,
	}
	for name, fn := range sources {
		if err := r.RegisterSource(name, fn); err != nil {
			return err
		}
	}
	transformers := map[string]block.TransformerAllocatorFunc{
		loop.Type:          loop.Allocator,
		loop.AliasType:     loop.Allocator,
		mixer.Type:         mixer.Allocator,
		toggle.Type:        toggle.Allocator,
		filter.LowPassType: filter.LowPassAllocator,
	}
	for name, fn := range transformers {
		if err := r.RegisterTransformer(name, fn); err != nil {
			return err
		}
	}
	sinks := map[string]block.SinkAllocatorFunc{
		recorder.Type:        recorder.Allocator(Writers()),
		portaudio.OutputType: portaudio.OutputAllocator,
	}
	for name, fn := range sinks {
		if err := r.RegisterSink(name, fn); err != nil {
			return err
		}
	}
	return nil
}
