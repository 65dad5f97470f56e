// Package robot is the device side of the relay.
//
// Client behaves like the robot firmware: it dials the relay, sends
// "register:robot:<id>" on every connect, and interprets each forwarded
// payload as an action. Names are matched case-insensitively:
//
//	FORWARD          move forward
//	BACK, BACKWARD   move backward
//	LEFT, RIGHT      turn
//	STOP             stop
//
// Anything else is logged as an unknown command. Text after the first ':'
// is passed to the Actuator as an argument, so "FORWARD:50" is a forward
// motion with argument "50". When the connection drops the client waits
// ReconnectDelay (5s by default) and dials again until its context is
// cancelled.
//
// SendCommand is the matching one-shot controller.
package robot
