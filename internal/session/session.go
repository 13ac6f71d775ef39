package session

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/warbler/config"
	"github.com/d60-Lab/warbler/pkg/logger"
)

// Flash is a one-shot notice queued for the next page render.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

var errNoSession = errors.New("no session")

// sidKey carries a session id minted during the current request, so a
// flash queued right after login lands in the new session rather than
// whatever the request's cookie still names.
const sidKey = "session.sid"

// Manager keeps login state server-side in redis, keyed by a random
// session id. The browser only ever holds the id, signed into a JWT
// cookie, so logout can revoke a session by deleting its redis key.
//
// A cookie whose id has no session key in redis is a guest session: it
// cannot authenticate anything, but it can carry flash notices for
// anonymous visitors.
type Manager struct {
	rdb    *redis.Client
	secret []byte
	cookie string
	ttl    time.Duration
	secure bool
}

func NewManager(rdb *redis.Client, cfg config.SessionConfig) *Manager {
	return &Manager{
		rdb:    rdb,
		secret: []byte(cfg.Secret),
		cookie: cfg.CookieName,
		ttl:    cfg.TTL,
		secure: cfg.Secure,
	}
}

// Issue starts a fresh login session for userID and sets the cookie.
// It always mints a new session id; logging in never reuses whatever
// id the browser presented.
func (m *Manager) Issue(c *gin.Context, userID uint) error {
	sid := uuid.NewString()
	err := m.rdb.Set(c.Request.Context(), sessionKey(sid), strconv.FormatUint(uint64(userID), 10), m.ttl).Err()
	if err != nil {
		return err
	}
	c.Set(sidKey, sid)
	return m.setCookie(c, sid)
}

// Current resolves the request's cookie to a logged-in user id. Any
// failure along the way (no cookie, bad signature, expired token,
// revoked session, redis down) reads as "not logged in".
func (m *Manager) Current(c *gin.Context) (uint, bool) {
	sid, err := m.sidFromCookie(c)
	if err != nil {
		return 0, false
	}
	val, err := m.rdb.Get(c.Request.Context(), sessionKey(sid)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("session lookup failed", zap.Error(err))
		}
		return 0, false
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Clear revokes the login session. The cookie itself survives as a
// guest session so a flash queued right after Clear still reaches the
// next page.
func (m *Manager) Clear(c *gin.Context) error {
	sid, err := m.sidFromCookie(c)
	if err != nil {
		return nil
	}
	return m.rdb.Del(c.Request.Context(), sessionKey(sid)).Err()
}

// Flash queues a one-shot notice for the session, minting a guest
// session first when the request carries no usable cookie.
func (m *Manager) Flash(c *gin.Context, category, message string) error {
	sid, err := m.ensureSID(c)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(Flash{Category: category, Message: message})
	if err != nil {
		return err
	}
	ctx := c.Request.Context()
	pipe := m.rdb.Pipeline()
	pipe.RPush(ctx, flashKey(sid), raw)
	pipe.Expire(ctx, flashKey(sid), m.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// ConsumeFlashes drains the session's queued notices. Each notice is
// shown exactly once; errors just mean nothing to show.
func (m *Manager) ConsumeFlashes(c *gin.Context) []Flash {
	sid, err := m.sidFromCookie(c)
	if err != nil {
		return nil
	}
	ctx := c.Request.Context()
	pipe := m.rdb.Pipeline()
	items := pipe.LRange(ctx, flashKey(sid), 0, -1)
	pipe.Del(ctx, flashKey(sid))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil
	}
	var flashes []Flash
	for _, raw := range items.Val() {
		var f Flash
		if err := json.Unmarshal([]byte(raw), &f); err == nil {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

func (m *Manager) ensureSID(c *gin.Context) (string, error) {
	if sid, err := m.sidFromCookie(c); err == nil {
		return sid, nil
	}
	sid := uuid.NewString()
	if err := m.setCookie(c, sid); err != nil {
		return "", err
	}
	c.Set(sidKey, sid)
	return sid, nil
}

func (m *Manager) setCookie(c *gin.Context, sid string) error {
	token, err := m.signSID(sid)
	if err != nil {
		return err
	}
	c.SetCookie(m.cookie, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

func (m *Manager) sidFromCookie(c *gin.Context) (string, error) {
	if v, ok := c.Get(sidKey); ok {
		if sid, ok := v.(string); ok && sid != "" {
			return sid, nil
		}
	}
	raw, err := c.Cookie(m.cookie)
	if err != nil {
		return "", errNoSession
	}
	return m.parseSID(raw)
}

func (m *Manager) signSID(sid string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parseSID(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errNoSession
	}
	return claims.Subject, nil
}

func sessionKey(sid string) string { return "session:" + sid }
func flashKey(sid string) string   { return "flash:" + sid }
