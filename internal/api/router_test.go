package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/warbler/config"
	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/pkg/database"
)

type env struct {
	router *gin.Engine
	db     *gorm.DB
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		App: config.AppConfig{Name: "warbler-test", Mode: gin.TestMode},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			CookieName: "warbler_session",
			TTL:        time.Hour,
		},
	}
	return &env{router: NewRouter(cfg, db, rdb), db: db}
}

// browser drives the router like a cookie-keeping HTTP client, so a
// login in one request authenticates the next.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (e *env) browser(t *testing.T) *browser {
	return &browser{t: t, h: e.router, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	b.h.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, form)
}

func (e *env) signup(t *testing.T, b *browser, username string) *model.User {
	t.Helper()
	w := b.post("/signup", url.Values{
		"username": {username},
		"email":    {username + "@test.com"},
		"password": {"password123"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	var u model.User
	require.NoError(t, e.db.Where("username = ?", username).First(&u).Error)
	return &u
}

func (e *env) postMessage(t *testing.T, b *browser, text string) *model.Message {
	t.Helper()
	w := b.post("/messages/new", url.Values{"text": {text}})
	require.Equal(t, http.StatusFound, w.Code)

	var m model.Message
	require.NoError(t, e.db.Where("text = ?", text).First(&m).Error)
	return &m
}

func TestSignupLoginLogoutFlow(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)

	e.signup(t, b, "alice")

	// signup logged us in
	w := b.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "@alice")

	w = b.post("/logout", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = b.get("/login")
	assert.Contains(t, w.Body.String(), "You have successfully logged out.")

	// wrong password re-renders the form
	w = b.post("/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials.")

	w = b.post("/login", url.Values{"username": {"alice"}, "password": {"password123"}})
	require.Equal(t, http.StatusFound, w.Code)

	w = b.get("/")
	assert.Contains(t, w.Body.String(), "Hello, alice!")
}

func TestSignupDuplicateUsername(t *testing.T) {
	e := newEnv(t)
	e.signup(t, e.browser(t), "alice")

	w := e.browser(t).post("/signup", url.Values{
		"username": {"alice"},
		"email":    {"fresh@test.com"},
		"password": {"password123"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username already taken")

	var cnt int64
	require.NoError(t, e.db.Model(&model.User{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestSignupRejectsInvalidForm(t *testing.T) {
	e := newEnv(t)

	w := e.browser(t).post("/signup", url.Values{
		"username": {"bad name!"},
		"email":    {"not-an-email"},
		"password": {"pw"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a valid username")

	var cnt int64
	require.NoError(t, e.db.Model(&model.User{}).Count(&cnt).Error)
	assert.Equal(t, int64(0), cnt)
}

func TestLoggedOutGatesPerformNoMutation(t *testing.T) {
	e := newEnv(t)
	owner := e.browser(t)
	u := e.signup(t, owner, "alice")
	m := e.postMessage(t, owner, "keep me around")

	anon := e.browser(t)

	mutations := []struct {
		path string
		form url.Values
	}{
		{"/messages/new", url.Values{"text": {"sneaky"}}},
		{"/messages/1/delete", nil},
		{"/users/follow/1", nil},
		{"/users/stop-following/1", nil},
		{"/users/add_like/1", nil},
		{"/users/remove_like/1", nil},
		{"/users/profile", url.Values{"username": {"evil"}}},
		{"/users/delete", nil},
	}
	for _, mut := range mutations {
		w := anon.post(mut.path, mut.form)
		require.Equal(t, http.StatusFound, w.Code, mut.path)
		assert.Equal(t, "/", w.Header().Get("Location"), mut.path)
	}

	w := anon.get("/")
	assert.Contains(t, w.Body.String(), "Access unauthorized.")

	// nothing changed
	var msgCnt, userCnt, followCnt, likeCnt int64
	require.NoError(t, e.db.Model(&model.Message{}).Count(&msgCnt).Error)
	require.NoError(t, e.db.Model(&model.User{}).Count(&userCnt).Error)
	require.NoError(t, e.db.Model(&model.Follow{}).Count(&followCnt).Error)
	require.NoError(t, e.db.Model(&model.Like{}).Count(&likeCnt).Error)
	assert.Equal(t, int64(1), msgCnt)
	assert.Equal(t, int64(1), userCnt)
	assert.Equal(t, int64(0), followCnt)
	assert.Equal(t, int64(0), likeCnt)

	var still model.User
	require.NoError(t, e.db.First(&still, u.ID).Error)
	assert.Equal(t, "alice", still.Username)
	require.NoError(t, e.db.First(&model.Message{}, m.ID).Error)
}

func TestLoggedOutUserPagesRedirectWithNotice(t *testing.T) {
	e := newEnv(t)
	u := e.signup(t, e.browser(t), "alice")

	anon := e.browser(t)
	w := anon.get("/users/" + itoa(u.ID) + "/following")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = anon.get("/")
	assert.Contains(t, w.Body.String(), "You must be logged in to access this page")
}

func TestFollowCreatesExactlyOneEdge(t *testing.T) {
	e := newEnv(t)
	b1 := e.browser(t)
	u1 := e.signup(t, b1, "testuser1")
	u2 := e.signup(t, e.browser(t), "testuser2")

	w := b1.post("/users/follow/"+itoa(u2.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)

	var edges []model.Follow
	require.NoError(t, e.db.Find(&edges).Error)
	require.Len(t, edges, 1)
	assert.Equal(t, u1.ID, edges[0].FollowerID)
	assert.Equal(t, u2.ID, edges[0].FollowedID)

	// following twice keeps one edge
	b1.post("/users/follow/"+itoa(u2.ID), nil)
	require.NoError(t, e.db.Find(&edges).Error)
	assert.Len(t, edges, 1)

	w = b1.get("/users/" + itoa(u1.ID) + "/following")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "@testuser2")

	w = b1.post("/users/stop-following/"+itoa(u2.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, e.db.Find(&edges).Error)
	assert.Empty(t, edges)
}

func TestFollowSelfAndUnknownTarget(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)
	u := e.signup(t, b, "alice")

	w := b.post("/users/follow/"+itoa(u.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)
	w = b.get("/")
	assert.Contains(t, w.Body.String(), "You cannot follow yourself.")

	w = b.post("/users/follow/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var cnt int64
	require.NoError(t, e.db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(0), cnt)
}

func TestLikeAndUnlikeFlow(t *testing.T) {
	e := newEnv(t)
	author := e.browser(t)
	e.signup(t, author, "author")
	m := e.postMessage(t, author, "like this warble")

	fan := e.browser(t)
	fanUser := e.signup(t, fan, "fan")

	w := fan.post("/users/add_like/"+itoa(m.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)

	var likes []model.Like
	require.NoError(t, e.db.Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.Equal(t, fanUser.ID, likes[0].UserID)
	assert.Equal(t, m.ID, likes[0].MessageID)

	w = fan.get("/users/" + itoa(fanUser.ID) + "/likes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "like this warble")

	w = fan.post("/users/remove_like/"+itoa(m.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, e.db.Find(&likes).Error)
	assert.Empty(t, likes)

	// unlike again stays a no-op
	w = fan.post("/users/remove_like/"+itoa(m.ID), nil)
	require.Equal(t, http.StatusFound, w.Code)

	w = fan.post("/users/add_like/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageDeleteIsOwnerOnly(t *testing.T) {
	e := newEnv(t)
	owner := e.browser(t)
	ownerUser := e.signup(t, owner, "owner")
	m := e.postMessage(t, owner, "my warble")

	other := e.browser(t)
	e.signup(t, other, "other")

	w := other.post("/messages/"+itoa(m.ID)+"/delete", nil)
	require.Equal(t, http.StatusFound, w.Code)
	w = other.get("/")
	assert.Contains(t, w.Body.String(), "Access unauthorized.")
	require.NoError(t, e.db.First(&model.Message{}, m.ID).Error)

	w = owner.post("/messages/"+itoa(m.ID)+"/delete", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/users/"+itoa(ownerUser.ID), w.Header().Get("Location"))

	var cnt int64
	require.NoError(t, e.db.Model(&model.Message{}).Count(&cnt).Error)
	assert.Equal(t, int64(0), cnt)

	// the message page is gone too
	w = owner.get("/messages/" + itoa(m.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = owner.post("/messages/"+itoa(m.ID)+"/delete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageTooLongReRendersForm(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)
	e.signup(t, b, "alice")

	w := b.post("/messages/new", url.Values{"text": {strings.Repeat("a", 141)}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "140 characters or fewer")

	var cnt int64
	require.NoError(t, e.db.Model(&model.Message{}).Count(&cnt).Error)
	assert.Equal(t, int64(0), cnt)
}

func TestProfileEdit(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)
	u := e.signup(t, b, "alice")

	form := url.Values{
		"username": {"alice"},
		"email":    {"alice@test.com"},
		"bio":      {"bird person"},
		"location": {"Aarhus"},
		"password": {"wrongpass"},
	}
	w := b.post("/users/profile", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Wrong password, please try again.")

	form.Set("password", "password123")
	w = b.post("/users/profile", form)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/users/"+itoa(u.ID), w.Header().Get("Location"))

	var got model.User
	require.NoError(t, e.db.First(&got, u.ID).Error)
	assert.Equal(t, "bird person", got.Bio)
	assert.Equal(t, "Aarhus", got.Location)
}

func TestUserShowAndDirectory(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)
	u := e.signup(t, b, "alice")
	e.postMessage(t, b, "hello warblers")
	e.signup(t, e.browser(t), "bob")

	w := b.get("/users/" + itoa(u.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "@alice")
	assert.Contains(t, w.Body.String(), "hello warblers")

	w = b.get("/users/9999")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = b.get("/users?q=bo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "@bob")
	assert.NotContains(t, w.Body.String(), "card-link\">@alice")

	w = b.get("/users?q=zzz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sorry, no users found")
}

func TestAccountDeletion(t *testing.T) {
	e := newEnv(t)
	b := e.browser(t)
	e.signup(t, b, "alice")
	e.postMessage(t, b, "soon gone")

	w := b.post("/users/delete", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signup", w.Header().Get("Location"))

	var userCnt, msgCnt int64
	require.NoError(t, e.db.Model(&model.User{}).Count(&userCnt).Error)
	require.NoError(t, e.db.Model(&model.Message{}).Count(&msgCnt).Error)
	assert.Equal(t, int64(0), userCnt)
	assert.Equal(t, int64(0), msgCnt)

	// the session died with the account
	w = b.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sign up now")
}

func TestHomeTimelineShowsFollowedUsers(t *testing.T) {
	e := newEnv(t)
	friendBrowser := e.browser(t)
	friend := e.signup(t, friendBrowser, "friend")
	e.postMessage(t, friendBrowser, "from your friend")

	strangerBrowser := e.browser(t)
	e.signup(t, strangerBrowser, "stranger")
	e.postMessage(t, strangerBrowser, "from a stranger")

	reader := e.browser(t)
	e.signup(t, reader, "reader")
	reader.post("/users/follow/"+itoa(friend.ID), nil)

	w := reader.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "from your friend")
	assert.NotContains(t, w.Body.String(), "from a stranger")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
