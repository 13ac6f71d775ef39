package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/service"
)

type messageForm struct {
	Text string `form:"text" binding:"required"`
}

func (h *Handler) MessageForm(c *gin.Context) {
	h.render(c, http.StatusOK, "message_new.html", gin.H{"Text": ""})
}

// MessageCreate posts a new message for the logged-in user.
func (h *Handler) MessageCreate(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}

	var form messageForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "message_new.html", gin.H{
			"Text":  form.Text,
			"Error": "Message text is required.",
		})
		return
	}

	_, err := h.messages.Post(c.Request.Context(), u.ID, form.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageEmpty):
			h.render(c, http.StatusOK, "message_new.html", gin.H{
				"Text":  form.Text,
				"Error": "Message text is required.",
			})
		case errors.Is(err, service.ErrMessageTooLong):
			h.render(c, http.StatusOK, "message_new.html", gin.H{
				"Text":  form.Text,
				"Error": "Message must be 140 characters or fewer.",
			})
		default:
			h.renderError(c, err)
		}
		return
	}
	h.redirect(c, fmt.Sprintf("/users/%d", u.ID))
}

// MessageShow renders a single message page.
func (h *Handler) MessageShow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}

	m, err := h.messages.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err)
		return
	}

	views, err := h.messageViews(c, []*model.Message{m})
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "message_show.html", gin.H{"Messages": views})
}

// MessageDelete removes a message; only its author may do so.
func (h *Handler) MessageDelete(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}

	err := h.messages.Delete(c.Request.Context(), u.ID, id)
	switch {
	case err == nil:
		h.redirect(c, fmt.Sprintf("/users/%d", u.ID))
	case errors.Is(err, service.ErrMessageNotFound):
		h.NotFound(c)
	case errors.Is(err, service.ErrNotMessageOwner):
		_ = h.sessions.Flash(c, "danger", "Access unauthorized.")
		h.redirect(c, "/")
	default:
		h.renderError(c, err)
	}
}
