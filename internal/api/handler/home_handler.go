package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/warbler/internal/api/middleware"
)

// Home renders the timeline for logged-in users and the landing page
// with the latest public messages otherwise.
func (h *Handler) Home(c *gin.Context) {
	if u, ok := middleware.CurrentUser(c); ok {
		msgs, err := h.messages.HomeTimeline(c.Request.Context(), u.ID)
		if err != nil {
			h.renderError(c, err)
			return
		}
		views, err := h.messageViews(c, msgs)
		if err != nil {
			h.renderError(c, err)
			return
		}
		h.render(c, http.StatusOK, "home.html", gin.H{"Messages": views})
		return
	}

	msgs, err := h.messages.Recent(c.Request.Context(), 1, 20)
	if err != nil {
		h.renderError(c, err)
		return
	}
	views, err := h.messageViews(c, msgs)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "home_anon.html", gin.H{"Messages": views})
}
