package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/service"
	"github.com/d60-Lab/warbler/internal/session"
)

const userKey = "currentUser"

// LoadUser resolves the session cookie into the logged-in user and
// stashes it on the gin context. It never blocks a request: anonymous
// and stale sessions simply leave no user behind.
func LoadUser(sessions *session.Manager, users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := sessions.Current(c); ok {
			if u, err := users.Get(c.Request.Context(), id); err == nil {
				c.Set(userKey, u)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user LoadUser resolved for this request.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}

// RequireLogin gates a route group behind a login session. Anonymous
// requests are bounced to the landing page with the given flash notice.
func RequireLogin(sessions *session.Manager, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		_ = sessions.Flash(c, "danger", message)
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
}
