package relay

import "strings"

// Wire protocol constants.
const (
	// Delimiter separates tokens in a wire message.
	Delimiter = ":"

	// KindRegister is token 0 of a registration message.
	KindRegister = "register"

	// KindCommand is token 0 of a command message.
	KindCommand = "cmd"

	// RoleRobot is the only role tag accepted in a registration.
	RoleRobot = "robot"
)

// Message is the result of parsing one inbound text frame.
// The set of implementations is closed: Registration, Command, Unrecognized.
type Message interface {
	isMessage()
}

// Registration asks the relay to register the sending connection.
type Registration struct {
	DeviceID string
}

// Command asks the relay to forward Action to the device registered as Target.
type Command struct {
	Target string
	Action string
}

// Unrecognized is any message that is neither a valid registration nor a
// valid command.
type Unrecognized struct {
	// Raw is the original message text.
	Raw string

	// Malformed is true when the message used a known kind
	// ("register" or "cmd") but had the wrong shape.
	Malformed bool
}

func (Registration) isMessage() {}
func (Command) isMessage()      {}
func (Unrecognized) isMessage() {}

// Parse classifies a raw message in a single pass.
//
//	register:robot:robot1     -> Registration{DeviceID: "robot1"}
//	cmd:robot1:FORWARD:50     -> Command{Target: "robot1", Action: "FORWARD:50"}
//	register:controller:x     -> Unrecognized{Malformed: true}
//	hello                     -> Unrecognized{}
//
// Tokens after the device id of a registration are ignored. A command
// needs a target and at least one action token; the action is every token
// after the target rejoined with the delimiter, so embedded delimiters
// survive.
func Parse(raw string) Message {
	kind, rest, _ := strings.Cut(raw, Delimiter)

	switch kind {
	case KindRegister:
		parts := strings.Split(rest, Delimiter)
		if len(parts) < 2 || parts[0] != RoleRobot || parts[1] == "" {
			return Unrecognized{Raw: raw, Malformed: true}
		}
		return Registration{DeviceID: parts[1]}

	case KindCommand:
		target, action, ok := strings.Cut(rest, Delimiter)
		if !ok || target == "" {
			return Unrecognized{Raw: raw, Malformed: true}
		}
		return Command{Target: target, Action: action}

	default:
		return Unrecognized{Raw: raw}
	}
}

// FormatRegistration builds the registration frame for deviceID.
func FormatRegistration(deviceID string) string {
	return KindRegister + Delimiter + RoleRobot + Delimiter + deviceID
}

// FormatCommand builds the command frame forwarding action to target.
func FormatCommand(target, action string) string {
	return KindCommand + Delimiter + target + Delimiter + action
}
