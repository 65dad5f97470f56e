package robot

import (
	"context"
	"fmt"

	"nhooyr.io/websocket"

	"github.com/nerrad567/robot-relay/internal/relay"
)

// SendCommand dials the relay, sends one "cmd:" frame for deviceID and
// closes the connection. The relay gives no acknowledgement, so a nil error
// only means the frame was written.
func SendCommand(ctx context.Context, url, deviceID, action string) error {
	if url == "" {
		return ErrNoURL
	}
	if err := validateDeviceID(deviceID); err != nil {
		return err
	}

	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.CloseNow() //nolint:errcheck // no-op after a clean close

	if err := ws.Write(ctx, websocket.MessageText, []byte(relay.FormatCommand(deviceID, action))); err != nil {
		return fmt.Errorf("sending command: %w", err)
	}
	if err := ws.Close(websocket.StatusNormalClosure, ""); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}
