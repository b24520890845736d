package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const (
	writeTimeout = 10 * time.Second
	maxFrameSize = 64 << 10
)

// handleWS upgrades the request and runs one participant or operator
// connection until either side closes it.
func handleWS(logger *slog.Logger, d *dispatcher, sendBuffer int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(maxFrameSize)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := newClient(sendBuffer)
		written := make(chan struct{})
		go func() {
			defer close(written)
			writeLoop(ctx, conn, c, logger)
		}()

		defer func() {
			d.disconnect(c)
			c.close()
			<-written
		}()

		for {
			typ, msg, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}
			if typ != websocket.MessageText {
				d.replyError(c, errBinaryFrame)
				continue
			}
			d.handle(c, msg)
		}
	}
}

// writeLoop drains the client queue onto the socket. It exits when the
// queue is closed or a write fails; a failed write closes the socket so the
// read loop ends too.
func writeLoop(ctx context.Context, conn *websocket.Conn, c *client, logger *slog.Logger) {
	for b := range c.send {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := conn.Write(wctx, websocket.MessageText, b)
		cancel()
		if err != nil {
			logger.Debug("websocket write failed", "error", err)
			conn.CloseNow()
			return
		}
	}
}
