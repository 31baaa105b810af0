// Package portaudio provides input and output device blocks. Hardware
// callbacks exchange buffers with the dispatch loop through a handoff
// slot.
package portaudio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/looper/block"
)

// Type names under which devices are registered.
const (
	InputType  = "InputDevice"
	OutputType = "OutputDevice"
)

// DefaultTimeout bounds waits of hardware callbacks.
const DefaultTimeout = time.Second

var (
	// ErrDeviceNotFound is returned when no device matches the query.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrFrameCount is returned when hardware delivers unexpected number
	// of frames.
	ErrFrameCount = errors.New("unexpected frame count")
)

// Device describes an audio device.
type Device struct {
	Name          string
	HostAPI       string
	Inputs        int
	Outputs       int
	SampleRate    float64
	DefaultInput  bool
	DefaultOutput bool
}

func (d Device) String() string {
	return fmt.Sprintf("%s [%s] in: %d out: %d rate: %v", d.Name, d.HostAPI, d.Inputs, d.Outputs, d.SampleRate)
}

// Devices lists all available devices.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	defaultIn, _ := portaudio.DefaultInputDevice()
	defaultOut, _ := portaudio.DefaultOutputDevice()
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		d := Device{
			Name:          info.Name,
			Inputs:        info.MaxInputChannels,
			Outputs:       info.MaxOutputChannels,
			SampleRate:    info.DefaultSampleRate,
			DefaultInput:  defaultIn != nil && info.Name == defaultIn.Name,
			DefaultOutput: defaultOut != nil && info.Name == defaultOut.Name,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// match returns the first device which name contains the query and which
// has channels in required direction. Query is case-insensitive.
func match(devices []*portaudio.DeviceInfo, query string, input bool) (*portaudio.DeviceInfo, error) {
	q := strings.ToLower(query)
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name)
		channels := d.MaxOutputChannels
		if input {
			channels = d.MaxInputChannels
		}
		if channels > 0 && strings.Contains(strings.ToLower(d.Name), q) {
			return d, nil
		}
	}
	direction := "output"
	if input {
		direction = "input"
	}
	return nil, fmt.Errorf("%w: no %s device matches %q, available devices: [%s]",
		ErrDeviceNotFound, direction, query, strings.Join(names, ", "))
}

// find selects device by query. Empty query selects the default device.
// Portaudio must be initialized.
func find(query string, input bool) (*portaudio.DeviceInfo, error) {
	if query == "" {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	return match(devices, query, input)
}

// settings are common params of device blocks.
type settings struct {
	query   string
	timeout time.Duration
}

func parseSettings(c *block.Config) (settings, error) {
	query, err := c.StringDefault("device", "")
	if err != nil {
		return settings{}, err
	}
	seconds, err := c.FloatDefault("timeout", DefaultTimeout.Seconds())
	if err != nil {
		return settings{}, err
	}
	if seconds <= 0 {
		return settings{}, c.Errorf("timeout", "must be positive")
	}
	return settings{
		query:   query,
		timeout: time.Duration(seconds * float64(time.Second)),
	}, nil
}

// open initializes portaudio and opens a mono stream on selected device.
// Portaudio is terminated if stream cannot be opened.
func open(c *block.Config, s settings, input bool, sampleRate, frames int, callback interface{}) (*portaudio.Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	info, err := find(s.query, input)
	if err != nil {
		portaudio.Terminate()
		return nil, c.Wrap("device", err)
	}
	var params portaudio.StreamParameters
	if input {
		params = portaudio.LowLatencyParameters(info, nil)
		params.Input.Channels = 1
	} else {
		params = portaudio.LowLatencyParameters(nil, info)
		params.Output.Channels = 1
	}
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = frames

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open %s: %w", info.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start %s: %w", info.Name, err)
	}
	return stream, nil
}

// closeStream releases the stream. Failed streams are aborted.
func closeStream(stream *portaudio.Stream, failed bool) error {
	var err error
	if failed {
		err = stream.Abort()
	} else {
		err = stream.Stop()
	}
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
