package robot

import "strings"

// Motion is a movement the robot knows how to perform.
type Motion int

// Motions understood by the robot. MotionUnknown covers every other action.
const (
	MotionUnknown Motion = iota
	MotionForward
	MotionBackward
	MotionLeft
	MotionRight
	MotionStop
)

// String returns the canonical upper-case action name.
func (m Motion) String() string {
	switch m {
	case MotionForward:
		return "FORWARD"
	case MotionBackward:
		return "BACKWARD"
	case MotionLeft:
		return "LEFT"
	case MotionRight:
		return "RIGHT"
	case MotionStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// motions maps lower-case action names to motions. BACK is an alias.
var motions = map[string]Motion{
	"forward":  MotionForward,
	"back":     MotionBackward,
	"backward": MotionBackward,
	"left":     MotionLeft,
	"right":    MotionRight,
	"stop":     MotionStop,
}

// Action is one command received from the relay.
type Action struct {
	Motion Motion
	// Arg is the text after the first ':' ("50" in "FORWARD:50"), or "".
	Arg string
	// Raw is the payload exactly as received.
	Raw string
}

// Known reports whether the action names a supported motion.
func (a Action) Known() bool {
	return a.Motion != MotionUnknown
}

// ParseAction interprets a forwarded payload. The name is matched
// case-insensitively; anything unrecognised yields MotionUnknown.
func ParseAction(raw string) Action {
	name, arg, _ := strings.Cut(raw, ":")
	return Action{
		Motion: motions[strings.ToLower(name)],
		Arg:    arg,
		Raw:    raw,
	}
}
