package mp3

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/pipelined/looper/signal"
	"github.com/pipelined/looper/stream"
)

// decoded stream is always 16 bit stereo.
const (
	decodedChannels = 2
	bytesPerSample  = 2
)

// ReadClip decodes the whole mp3 file into a mono clip. Returns the sample
// rate of the file.
func ReadClip(path string) (*stream.Clip, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	data, err := io.ReadAll(d)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: decode: %w", path, err)
	}
	ints := make([]int, len(data)/bytesPerSample)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(data[i*bytesPerSample:])))
	}
	samples := signal.InterInt{
		Data:        ints,
		NumChannels: decodedChannels,
		BitDepth:    signal.BitDepth16,
	}.Mono()
	return stream.NewClip(samples), d.SampleRate(), nil
}
