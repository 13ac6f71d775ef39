package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/warbler/internal/service"
)

type signupForm struct {
	Username string `form:"username" binding:"required,username,max=40"`
	Email    string `form:"email" binding:"required,email,max=120"`
	Password string `form:"password" binding:"required,min=6,max=72"`
	ImageURL string `form:"image_url" binding:"omitempty,max=255"`
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *Handler) SignupForm(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", gin.H{"Form": signupForm{}})
}

func (h *Handler) Signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "signup.html", gin.H{
			"Form":  form,
			"Error": "Please enter a valid username, e-mail and password (6+ characters).",
		})
		return
	}

	u, err := h.auth.Signup(c.Request.Context(), service.SignupParams{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrCredentialsTaken) {
			_ = h.sessions.Flash(c, "danger", "Username already taken")
			h.render(c, http.StatusOK, "signup.html", gin.H{"Form": form})
			return
		}
		h.renderError(c, err)
		return
	}

	if err := h.sessions.Issue(c, u.ID); err != nil {
		h.renderError(c, err)
		return
	}
	h.redirect(c, "/")
}

func (h *Handler) LoginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"Form": loginForm{}})
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "login.html", gin.H{
			"Form":  form,
			"Error": "Please enter your username and password.",
		})
		return
	}

	u, err := h.auth.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			_ = h.sessions.Flash(c, "danger", "Invalid credentials.")
			h.render(c, http.StatusOK, "login.html", gin.H{"Form": form})
			return
		}
		h.renderError(c, err)
		return
	}

	if err := h.sessions.Issue(c, u.ID); err != nil {
		h.renderError(c, err)
		return
	}
	_ = h.sessions.Flash(c, "success", "Hello, "+u.Username+"!")
	h.redirect(c, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Clear(c); err != nil {
		h.renderError(c, err)
		return
	}
	_ = h.sessions.Flash(c, "success", "You have successfully logged out.")
	h.redirect(c, "/login")
}
