// Package mp3 encodes clips into mp3 files with lame and decodes them
// with go-mp3.
package mp3

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/viert/lame"

	"github.com/pipelined/looper/signal"
)

// Defaults used by recorder.
const (
	DefaultBitRate = 192
	DefaultQuality = 2
)

// Encoder writes clips to mp3 files.
type Encoder struct {
	BitRate int
	Quality int
}

// WriteClip encodes mono samples into a new mp3 file.
func (e Encoder) WriteClip(path string, samples []float64, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	wr := lame.NewWriter(f)
	wr.Encoder.SetBitrate(e.BitRate)
	wr.Encoder.SetQuality(e.Quality)
	wr.Encoder.SetNumChannels(1)
	wr.Encoder.SetInSamplerate(sampleRate)
	wr.Encoder.SetVBR(lame.VBR_RH)
	wr.Encoder.InitParams()

	buf := new(bytes.Buffer)
	for _, v := range signal.Quantize(samples, signal.BitDepth16) {
		if err := binary.Write(buf, binary.LittleEndian, int16(v)); err != nil {
			return err
		}
	}
	if _, err := wr.Write(buf.Bytes()); err != nil {
		return err
	}
	return wr.Close()
}
