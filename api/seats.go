package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/service/hold"
)

// SeatService is the hold workflow plus the seat catalogue.
type SeatService interface {
	hold.HoldUseCase
	CreateSeat(ctx context.Context, eventID, seatNumber string) (*domain.Seat, error)
	GetSeat(ctx context.Context, seatID int64) (*domain.Seat, error)
	ListSeats(ctx context.Context, eventID string) ([]domain.Seat, error)
}

type SeatHandler struct {
	service SeatService
}

type createSeatRequest struct {
	EventID    string `json:"event_id"`
	SeatNumber string `json:"seat_number"`
}

type holdSeatResponse struct {
	SeatID        int64             `json:"seat_id"`
	Status        domain.SeatStatus `json:"status"`
	HoldExpiresAt *time.Time        `json:"hold_expires_at,omitempty"`
}

func NewSeatHandler(service SeatService) *SeatHandler {
	return &SeatHandler{service: service}
}

func (h *SeatHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/soft-hold", h.softHold)
	router.POST("/:id/hold", h.hold)
	router.DELETE("/:id/hold", h.release)
}

func seatIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, domain.NewError(domain.KindInvalidArgument, "invalid seat id: %s", c.Param("id")))
		return 0, false
	}
	return id, true
}

func (h *SeatHandler) list(c *gin.Context) {
	seats, err := h.service.ListSeats(c.Request.Context(), c.Query("event_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

func (h *SeatHandler) get(c *gin.Context) {
	id, ok := seatIDParam(c)
	if !ok {
		return
	}
	seat, err := h.service.GetSeat(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

func (h *SeatHandler) create(c *gin.Context) {
	var req createSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.NewError(domain.KindInvalidArgument, "invalid request body: %v", err))
		return
	}
	seat, err := h.service.CreateSeat(c.Request.Context(), req.EventID, req.SeatNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, seat)
}

func (h *SeatHandler) softHold(c *gin.Context) {
	id, ok := seatIDParam(c)
	if !ok {
		return
	}
	if !h.service.CreateSoftHold(c.Request.Context(), id, actorFrom(c)) {
		writeError(c, domain.NewError(domain.KindAlreadyHeld, "Seat is currently being considered by another user"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"seat_id": id, "message": "Soft hold created"})
}

func (h *SeatHandler) hold(c *gin.Context) {
	id, ok := seatIDParam(c)
	if !ok {
		return
	}
	seat, err := h.service.HoldSeat(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, holdSeatResponse{SeatID: seat.ID, Status: seat.Status, HoldExpiresAt: seat.HoldExpiresAt})
}

func (h *SeatHandler) release(c *gin.Context) {
	id, ok := seatIDParam(c)
	if !ok {
		return
	}
	seat, err := h.service.ReleaseHold(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, holdSeatResponse{SeatID: seat.ID, Status: seat.Status})
}
