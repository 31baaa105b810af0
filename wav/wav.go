// Package wav reads and writes clips as PCM wav files.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pipelined/looper/signal"
	"github.com/pipelined/looper/stream"
)

// pcmFormat is the wav audio format for uncompressed PCM.
const pcmFormat = 1

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")

// ErrInvalidFile is returned when file is not a valid wav.
var ErrInvalidFile = errors.New("wav is not valid")

// Format describes decoded wav file.
type Format struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
}

// ReadClip decodes the whole file into a mono clip. Multiple channels are
// averaged. Samples are normalized to [-1, 1].
func ReadClip(path string) (*stream.Clip, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Format{}, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, Format{}, fmt.Errorf("%s: %w", path, ErrInvalidFile)
	}
	format := Format{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: int(decoder.NumChans),
		BitDepth:    int(decoder.BitDepth),
	}
	if !signal.BitDepth(format.BitDepth).Valid() {
		return nil, format, fmt.Errorf("%s: %w, got %d", path, ErrUnsupportedBitDepth, format.BitDepth)
	}
	ib, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, format, fmt.Errorf("%s: decode: %w", path, err)
	}
	if format.NumChannels < 1 {
		return nil, format, fmt.Errorf("%s: %w: no channels", path, ErrInvalidFile)
	}

	samples := signal.InterInt{
		Data:        ib.Data,
		NumChannels: format.NumChannels,
		BitDepth:    signal.BitDepth(format.BitDepth),
	}.Mono()
	return stream.NewClip(samples), format, nil
}

// WriteClip encodes mono samples into a new wav file. Samples outside
// [-1, 1] are clipped.
func WriteClip(path string, samples []float64, sampleRate, bitDepth int) (err error) {
	if !signal.BitDepth(bitDepth).Valid() {
		return ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	e := wav.NewEncoder(f, sampleRate, bitDepth, 1, pcmFormat)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           signal.Quantize(samples, signal.BitDepth(bitDepth)),
		SourceBitDepth: bitDepth,
	}
	if err := e.Write(ib); err != nil {
		return err
	}
	return e.Close()
}
