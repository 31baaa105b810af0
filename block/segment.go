package block

import (
	"fmt"
	"strings"
)

// SegmentType tells if block consumes or produces signal in the segment.
type SegmentType int

const (
	// Input segment is a recording window.
	Input SegmentType = iota
	// Output segment is a playback window.
	Output
)

// ParseSegmentType converts configuration value into SegmentType.
func ParseSegmentType(s string) (SegmentType, error) {
	switch strings.ToLower(s) {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	}
	return 0, fmt.Errorf("unrecognized segment type: %q", s)
}

func (t SegmentType) String() string {
	switch t {
	case Input:
		return "input"
	case Output:
		return "output"
	}
	return "unknown"
}

// Segment is a half-open window of musical time [Start, Stop) in measures.
// Offset is the position in measures where playback of an output segment
// begins.
type Segment struct {
	Start  float64
	Stop   float64
	Offset float64
	Type   SegmentType
	Name   string
}

// Validate checks segment bounds and offset.
func (s Segment) Validate() error {
	if s.Start >= s.Stop {
		return fmt.Errorf("invalid %v segment bounds: [%v, %v)", s.Type, s.Start, s.Stop)
	}
	if s.Offset < 0 {
		return fmt.Errorf("negative %v segment offset: %v", s.Type, s.Offset)
	}
	if s.Offset != 0 && s.Type != Output {
		return fmt.Errorf("offset is only allowed for output segments, got %v segment", s.Type)
	}
	return nil
}

// Segments is a list of segments in declaration order.
type Segments []Segment

// OfType returns segments of provided type.
func (ss Segments) OfType(t SegmentType) Segments {
	var result Segments
	for _, s := range ss {
		if s.Type == t {
			result = append(result, s)
		}
	}
	return result
}
