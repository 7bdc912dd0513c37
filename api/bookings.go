package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingResponse struct {
	BookingID int64             `json:"booking_id"`
	SeatID    int64             `json:"seat_id"`
	Status    domain.SeatStatus `json:"status"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the confirmation and lookup routes on seats and the listing on bookings.
func (h *BookingHandler) Register(seats, bookings *gin.RouterGroup) {
	seats.POST("/:id/confirm", h.confirm)
	seats.GET("/:id/booking", h.seatBooking)
	bookings.GET("", h.list)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	id, ok := seatIDParam(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyHeader)
	if key == "" {
		writeError(c, domain.NewError(domain.KindInvalidArgument, "Missing %s header", IdempotencyHeader))
		return
	}

	b, err := h.service.ConfirmSeat(c.Request.Context(), id, actorFrom(c), key)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{BookingID: b.ID, SeatID: b.SeatID, Status: domain.SeatStatusBooked})
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) seatBooking(c *gin.Context) {
	id, ok := seatIDParam(c)
	if !ok {
		return
	}
	b, err := h.service.GetSeatBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
