package internal_recorder

import (
	"bytes"

	"github.com/gorilla/websocket"

	"github.com/teachermoments/moments/pkg/commons"
)

// stopFrame is the text frame that ends a capture cycle.
const stopFrame = "stop"

// WSCapture is a capture collaborator fed over a websocket: binary frames
// carry audio data, a "stop" text frame materializes the blob. It delivers
// exactly one payload per run, after the stop frame. A connection that drops
// before stop delivers nothing; capture failure has no channel.
type WSCapture struct {
	logger commons.Logger
	conn   *websocket.Conn
}

func NewWSCapture(logger commons.Logger, conn *websocket.Conn) *WSCapture {
	return &WSCapture{logger: logger, conn: conn}
}

// Run reads frames until the stop frame or a connection error, then invokes
// deliver at most once with the accumulated blob.
func (c *WSCapture) Run(deliver func(blob []byte)) error {
	var buf bytes.Buffer
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.Warnf("capture connection closed before stop, discarding %d bytes: %v", buf.Len(), err)
			return err
		}

		switch messageType {
		case websocket.BinaryMessage:
			buf.Write(data)
		case websocket.TextMessage:
			if string(data) == stopFrame {
				blob := make([]byte, buf.Len())
				copy(blob, buf.Bytes())
				c.logger.Debugf("capture complete: %d bytes", len(blob))
				deliver(blob)
				return nil
			}
			c.logger.Debugf("ignoring capture control frame: %s", string(data))
		}
	}
}
