package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/internal/service/booking"
)

// Services bundles what the HTTP surface needs.
type Services struct {
	Seats    SeatService
	Bookings booking.BookingUseCase
	Actors   interface {
		ActorDirectory
		ActorRegistry
	}
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(logger hclog.Logger, jwtSecret string, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), CorrelationID(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	NewUserHandler(svc.Actors).Register(apiGroup.Group("/users"))

	authed := apiGroup.Group("", Authenticate(svc.Actors, jwtSecret))
	seats := authed.Group("/seats")
	NewSeatHandler(svc.Seats).Register(seats)
	NewBookingHandler(svc.Bookings).Register(seats, authed.Group("/bookings"))
	return router
}
