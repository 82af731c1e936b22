package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/booking-notifier/internal/api/handlers/notification"
)

func New(handler *notification.Handler) *ginext.Engine {
	e := ginext.New()
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	e.GET("/health", handler.Health)

	api := e.Group("/api/notifications")

	api.GET("/", handler.GetAll)
	api.GET("/pending", handler.GetPending)
	api.GET("/user/:id", handler.GetByUser)
	api.GET("/booking/:id", handler.GetByBooking)
	api.GET("/status/:status", handler.GetByStatus)
	api.GET("/:id", handler.GetByID)
	api.GET("/:id/status", handler.GetStatus)
	api.POST("/test", handler.CreateTest)

	return e
}
