// Package signal converts between integer PCM and float samples. It
// allows to:
//	- mix interleaved int signal down to mono float64
//	- quantize float64 samples to int of provided bit depth
package signal

const (
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// Valid returns true for supported bit depths.
func (bitDepth BitDepth) Valid() bool {
	switch bitDepth {
	case BitDepth16, BitDepth24, BitDepth32:
		return true
	}
	return false
}

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() float64 {
	return float64(int64(1) << uint(bitDepth-1))
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() float64 {
	return float64(int64(1)<<uint(bitDepth-1) - 1)
}

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// Mono averages channels of every frame and normalizes result to [-1, 1].
// Incomplete trailing frame is dropped.
func (ints InterInt) Mono() []float64 {
	if ints.Data == nil || ints.NumChannels < 1 {
		return nil
	}
	devider := ints.BitDepth.devider() * float64(ints.NumChannels)
	frames := len(ints.Data) / ints.NumChannels
	floats := make([]float64, frames)
	for i := range floats {
		var sum float64
		for _, v := range ints.Data[i*ints.NumChannels : (i+1)*ints.NumChannels] {
			sum += float64(v)
		}
		floats[i] = sum / devider
	}
	return floats
}

// Quantize converts float samples into ints of provided bit depth.
// Samples outside [-1, 1] are clipped.
func Quantize(floats []float64, bitDepth BitDepth) []int {
	multiplier := bitDepth.multiplier()
	ints := make([]int, len(floats))
	for i, s := range floats {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		ints[i] = int(s * multiplier)
	}
	return ints
}
