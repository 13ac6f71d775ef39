package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/warbler/internal/api/middleware"
	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/service"
)

type profileForm struct {
	Username       string `form:"username" binding:"required,username,max=40"`
	Email          string `form:"email" binding:"required,email,max=120"`
	ImageURL       string `form:"image_url" binding:"omitempty,max=255"`
	HeaderImageURL string `form:"header_image_url" binding:"omitempty,max=255"`
	Bio            string `form:"bio"`
	Location       string `form:"location" binding:"omitempty,max=80"`
	Password       string `form:"password" binding:"required"`
}

func (h *Handler) viewer(c *gin.Context) (*model.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		h.redirect(c, "/")
	}
	return u, ok
}

// UserIndex lists users, filtered by the q username search.
func (h *Handler) UserIndex(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	q := c.Query("q")

	users, err := h.users.Search(c.Request.Context(), q, page, 50)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "users_index.html", gin.H{"Users": users, "Query": q})
}

// UserShow renders a profile page with the user's latest messages.
func (h *Handler) UserShow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	ctx := c.Request.Context()

	profile, err := h.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err)
		return
	}

	msgs, err := h.messages.ListByUser(ctx, id, 1, 100)
	if err != nil {
		h.renderError(c, err)
		return
	}
	views, err := h.messageViews(c, msgs)
	if err != nil {
		h.renderError(c, err)
		return
	}
	stats, err := h.users.Stats(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	var isFollowing bool
	if viewer, ok := middleware.CurrentUser(c); ok && viewer.ID != profile.ID {
		isFollowing, err = h.rels.IsFollowing(ctx, viewer.ID, profile.ID)
		if err != nil {
			h.renderError(c, err)
			return
		}
	}

	h.render(c, http.StatusOK, "user_show.html", gin.H{
		"Profile":     profile,
		"Messages":    views,
		"Stats":       stats,
		"IsFollowing": isFollowing,
	})
}

func (h *Handler) Following(c *gin.Context) {
	h.renderUserList(c, "following.html", h.rels.ListFollowing)
}

func (h *Handler) Followers(c *gin.Context) {
	h.renderUserList(c, "followers.html", h.rels.ListFollowers)
}

func (h *Handler) renderUserList(c *gin.Context, tmpl string, list func(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	ctx := c.Request.Context()

	profile, err := h.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	users, err := list(ctx, id, page, 50)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, tmpl, gin.H{"Profile": profile, "Users": users})
}

// Likes renders the messages a user has liked.
func (h *Handler) Likes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	ctx := c.Request.Context()

	profile, err := h.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.NotFound(c)
			return
		}
		h.renderError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	msgs, err := h.likes.ListLiked(ctx, id, page, 50)
	if err != nil {
		h.renderError(c, err)
		return
	}
	views, err := h.messageViews(c, msgs)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "likes.html", gin.H{"Profile": profile, "Messages": views})
}

func (h *Handler) ProfileForm(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "profile_edit.html", gin.H{
		"Form": profileForm{
			Username:       u.Username,
			Email:          u.Email,
			ImageURL:       u.ImageURL,
			HeaderImageURL: u.HeaderImageURL,
			Bio:            u.Bio,
			Location:       u.Location,
		},
	})
}

// ProfileUpdate applies a profile edit after the password check.
func (h *Handler) ProfileUpdate(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}

	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "profile_edit.html", gin.H{
			"Form":  form,
			"Error": "Please enter a valid username and e-mail, and your password to confirm.",
		})
		return
	}

	_, err := h.users.UpdateProfile(c.Request.Context(), u.ID, service.UpdateProfileParams{
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
		Password:       form.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			_ = h.sessions.Flash(c, "danger", "Wrong password, please try again.")
			h.render(c, http.StatusOK, "profile_edit.html", gin.H{"Form": form})
		case errors.Is(err, service.ErrCredentialsTaken):
			_ = h.sessions.Flash(c, "danger", "Username already taken")
			h.render(c, http.StatusOK, "profile_edit.html", gin.H{"Form": form})
		default:
			h.renderError(c, err)
		}
		return
	}
	h.redirect(c, fmt.Sprintf("/users/%d", u.ID))
}

// UserDelete removes the logged-in account and everything it owns.
func (h *Handler) UserDelete(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}
	if err := h.sessions.Clear(c); err != nil {
		h.renderError(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), u.ID); err != nil {
		h.renderError(c, err)
		return
	}
	h.redirect(c, "/signup")
}

func (h *Handler) Follow(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}

	err := h.rels.Follow(c.Request.Context(), u.ID, id)
	switch {
	case err == nil:
		h.redirect(c, fmt.Sprintf("/users/%d/following", u.ID))
	case errors.Is(err, service.ErrUserNotFound):
		h.NotFound(c)
	case errors.Is(err, service.ErrFollowSelf):
		_ = h.sessions.Flash(c, "danger", "You cannot follow yourself.")
		h.redirect(c, "/")
	default:
		h.renderError(c, err)
	}
}

func (h *Handler) StopFollowing(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}

	err := h.rels.Unfollow(c.Request.Context(), u.ID, id)
	switch {
	case err == nil:
		h.redirect(c, fmt.Sprintf("/users/%d/following", u.ID))
	case errors.Is(err, service.ErrUserNotFound):
		h.NotFound(c)
	default:
		h.renderError(c, err)
	}
}

func (h *Handler) AddLike(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "message_id")
	if !ok {
		h.NotFound(c)
		return
	}

	err := h.likes.Like(c.Request.Context(), u.ID, id)
	switch {
	case err == nil:
		h.redirect(c, "/")
	case errors.Is(err, service.ErrMessageNotFound):
		h.NotFound(c)
	default:
		h.renderError(c, err)
	}
}

func (h *Handler) RemoveLike(c *gin.Context) {
	u, ok := h.viewer(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "message_id")
	if !ok {
		h.NotFound(c)
		return
	}

	err := h.likes.Unlike(c.Request.Context(), u.ID, id)
	switch {
	case err == nil:
		h.redirect(c, "/")
	case errors.Is(err, service.ErrMessageNotFound):
		h.NotFound(c)
	default:
		h.renderError(c, err)
	}
}
