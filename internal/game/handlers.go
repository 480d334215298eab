package game

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the server's allow-list middleware
	// before the request reaches this handler.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ConnectHandler upgrades the request and hands the connection to the
// gateway. One websocket per player.
func (g *Gateway) ConnectHandler(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "ip", ctx.ClientIP(), "err", err)
		return
	}
	go g.ServeSession(newWebsocketSession(conn))
}
