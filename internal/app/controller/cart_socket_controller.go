package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gamexpress/storefront/internal/middleware"
	ws "github.com/gamexpress/storefront/internal/websocket"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const refreshTimeout = 10 * time.Second

type cartEvent struct {
	Type string               `json:"type"`
	Cart service.CartSnapshot `json:"cart"`
}

// CartSocketController pushes cart snapshots to every open tab of a visitor.
type CartSocketController struct {
	hub      *ws.Hub
	source   middleware.StorefrontSource
	upgrader websocket.Upgrader
}

func NewCartSocketController(hub *ws.Hub, source middleware.StorefrontSource, allowedOrigins []string) *CartSocketController {
	ctrl := &CartSocketController{
		hub:    hub,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	hub.OnMessage(ctrl.handleMessage)
	return ctrl
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non browser clients send no origin
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// Connect upgrades the request and streams the visitor's cart
// GET /ws/cart
func (ctrl *CartSocketController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	visitorID, _ := middleware.GetVisitorID(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, visitorID)
	ctrl.hub.Register(client)

	client.PushJSON(cartEvent{Type: "cart", Cart: sf.Cart.Snapshot()})
	// the subscriber only queues, it never calls back into the cart
	unsubscribe := sf.Cart.Subscribe(func(snapshot service.CartSnapshot) {
		client.PushJSON(cartEvent{Type: "cart", Cart: snapshot})
	})

	go client.WritePump()
	client.ReadPump()
	unsubscribe()
}

func (ctrl *CartSocketController) handleMessage(client *ws.Client, msg ws.ClientMessage) {
	if msg.Type != "refresh" {
		return
	}
	sf, err := ctrl.source.Storefront(client.VisitorID)
	if err != nil {
		logger.Error("Failed to load storefront for refresh", err, map[string]interface{}{
			"visitor_id": client.VisitorID,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	// the new snapshot reaches the client through its subscription
	_ = sf.Cart.FetchCart(ctx)
}
