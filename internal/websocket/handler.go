package websocket

import (
	"context"

	"care-relay-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// Lifecycle receives the events of one connection, in order, on the
// connection's own goroutine.
type Lifecycle interface {
	Connect(ctx context.Context, conn Connection)
	HandleMessage(ctx context.Context, conn Connection, text string)
	Disconnect(ctx context.Context, conn Connection)
}

// ServeWs handles websocket requests from the peer. It blocks until the
// connection terminates and the write pump has stopped, since the underlying
// conn is pooled and reused once the handler returns.
func ServeWs(c *websocket.Conn, side Side, participantID string, lc Lifecycle, log logger.ILogger) {
	client := NewClient(c, side, participantID, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.writePump()

	lc.Connect(ctx, client)
	defer lc.Disconnect(context.Background(), client)

	client.readPump(func(text string) {
		lc.HandleMessage(ctx, client, text)
	})

	client.Close()
	<-client.done
}
