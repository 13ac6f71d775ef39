package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/service"
	"github.com/d60-Lab/warbler/pkg/response"
)

// APIHandler serves the read-only JSON API. Mutations stay on the HTML
// side where the session gate lives.
type APIHandler struct {
	users    service.UserService
	messages service.MessageService
	rels     service.RelationshipService
}

func NewAPIHandler(users service.UserService, messages service.MessageService, rels service.RelationshipService) *APIHandler {
	return &APIHandler{users: users, messages: messages, rels: rels}
}

type userDTO struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio,omitempty"`
	Location       string    `json:"location,omitempty"`
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	CreatedAt      time.Time `json:"created_at"`
}

type messageDTO struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{
		ID:             u.ID,
		Username:       u.Username,
		Bio:            u.Bio,
		Location:       u.Location,
		ImageURL:       u.ImageURL,
		HeaderImageURL: u.HeaderImageURL,
		CreatedAt:      u.CreatedAt,
	}
}

func toUserDTOs(users []*model.User) []userDTO {
	out := make([]userDTO, len(users))
	for i, u := range users {
		out[i] = toUserDTO(u)
	}
	return out
}

func toMessageDTO(m *model.Message) messageDTO {
	return messageDTO{
		ID:        m.ID,
		Text:      m.Text,
		UserID:    m.UserID,
		Username:  m.User.Username,
		CreatedAt: m.CreatedAt,
	}
}

func toMessageDTOs(msgs []*model.Message) []messageDTO {
	out := make([]messageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = toMessageDTO(m)
	}
	return out
}

func apiID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ListUsers godoc
// @Summary List users
// @Description Directory of users, optionally filtered by username substring
// @Tags users
// @Produce json
// @Param q query string false "username filter"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users [get]
func (h *APIHandler) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.users.Search(c.Request.Context(), q, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": toUserDTOs(list)})
}

// GetUser godoc
// @Summary Get a user
// @Description Profile snapshot plus message/follow/like counts
// @Tags users
// @Produce json
// @Param id path int true "user ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *APIHandler) GetUser(c *gin.Context) {
	id, ok := apiID(c, "id")
	if !ok {
		response.NotFound(c, "user not found")
		return
	}
	ctx := c.Request.Context()

	u, err := h.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	stats, err := h.users.Stats(ctx, id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user": toUserDTO(u),
		"stats": gin.H{
			"messages":  stats.Messages,
			"following": stats.Following,
			"followers": stats.Followers,
			"likes":     stats.Likes,
		},
	})
}

// ListFollowing godoc
// @Summary List accounts a user follows
// @Tags users
// @Produce json
// @Param id path int true "user ID"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/following [get]
func (h *APIHandler) ListFollowing(c *gin.Context) {
	h.listRelated(c, h.rels.ListFollowing)
}

// ListFollowers godoc
// @Summary List a user's followers
// @Tags users
// @Produce json
// @Param id path int true "user ID"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/followers [get]
func (h *APIHandler) ListFollowers(c *gin.Context) {
	h.listRelated(c, h.rels.ListFollowers)
}

// ListUserMessages godoc
// @Summary List a user's messages
// @Description Newest first
// @Tags messages
// @Produce json
// @Param id path int true "user ID"
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/messages [get]
func (h *APIHandler) ListUserMessages(c *gin.Context) {
	id, ok := apiID(c, "id")
	if !ok {
		response.NotFound(c, "user not found")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.users.Get(ctx, id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.messages.ListByUser(ctx, id, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": toMessageDTOs(list)})
}

// GetMessage godoc
// @Summary Get a message
// @Tags messages
// @Produce json
// @Param id path int true "message ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/messages/{id} [get]
func (h *APIHandler) GetMessage(c *gin.Context) {
	id, ok := apiID(c, "id")
	if !ok {
		response.NotFound(c, "message not found")
		return
	}
	m, err := h.messages.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			response.NotFound(c, "message not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"message": toMessageDTO(m)})
}

// ListMessages godoc
// @Summary Public timeline
// @Description Newest messages across all users
// @Tags messages
// @Produce json
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/messages [get]
func (h *APIHandler) ListMessages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.messages.Recent(c.Request.Context(), page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": toMessageDTOs(list)})
}

func (h *APIHandler) listRelated(c *gin.Context, list func(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)) {
	id, ok := apiID(c, "id")
	if !ok {
		response.NotFound(c, "user not found")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.users.Get(ctx, id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	users, err := list(ctx, id, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": toUserDTOs(users)})
}
