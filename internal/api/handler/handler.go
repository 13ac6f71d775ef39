package handler

import (
	"net/http"
	"strconv"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/warbler/internal/api/middleware"
	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/service"
	"github.com/d60-Lab/warbler/internal/session"
	"github.com/d60-Lab/warbler/pkg/logger"
)

// Handler serves the HTML pages. Every page render carries the
// request's user (when logged in) and any queued flash notices.
type Handler struct {
	auth     service.AuthService
	users    service.UserService
	messages service.MessageService
	rels     service.RelationshipService
	likes    service.LikeService
	sessions *session.Manager
}

func New(
	auth service.AuthService,
	users service.UserService,
	messages service.MessageService,
	rels service.RelationshipService,
	likes service.LikeService,
	sessions *session.Manager,
) *Handler {
	return &Handler{
		auth:     auth,
		users:    users,
		messages: messages,
		rels:     rels,
		likes:    likes,
		sessions: sessions,
	}
}

func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["User"]; !ok {
		if u, ok := middleware.CurrentUser(c); ok {
			data["User"] = u
		}
	}
	data["Flashes"] = h.sessions.ConsumeFlashes(c)
	c.HTML(status, name, data)
}

// NotFound renders the 404 page; it also backs the router's NoRoute.
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "404.html", gin.H{})
}

func (h *Handler) renderError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	h.render(c, http.StatusInternalServerError, "500.html", gin.H{})
}

func (h *Handler) redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusFound, to)
}

// parseID reads a numeric path parameter. Non-numeric ids read as
// "no such page", the same outcome as a numeric id nothing owns.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// messageView pairs a message with the bit of per-viewer state the
// templates need to pick between the like and unlike buttons.
type messageView struct {
	Message *model.Message
	Liked   bool
}

func (h *Handler) messageViews(c *gin.Context, msgs []*model.Message) ([]messageView, error) {
	views := make([]messageView, len(msgs))
	for i, m := range msgs {
		views[i] = messageView{Message: m}
	}
	viewer, ok := middleware.CurrentUser(c)
	if !ok || len(msgs) == 0 {
		return views, nil
	}

	ids := make([]uint, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	liked, err := h.likes.LikedIDs(c.Request.Context(), viewer.ID, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Liked = liked[views[i].Message.ID]
	}
	return views, nil
}
