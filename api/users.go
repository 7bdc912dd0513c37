package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

type ActorRegistry interface {
	RegisterActor(ctx context.Context, actor *domain.Actor) error
}

type UserHandler struct {
	registry ActorRegistry
}

type createUserRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewUserHandler(registry ActorRegistry) *UserHandler {
	return &UserHandler{registry: registry}
}

func (h *UserHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
}

func (h *UserHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.NewError(domain.KindInvalidArgument, "invalid request body: %v", err))
		return
	}
	actor := &domain.Actor{ID: req.ID, Name: req.Name, Email: req.Email}
	if err := h.registry.RegisterActor(c.Request.Context(), actor); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, actor)
}
