package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/storage"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testOptions struct {
	redis bool
	csrf  bool
	flags string
}

type testApp struct {
	t     *testing.T
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	store *storage.LocalStorage
	mr    *miniredis.Miniredis
	rdb   *redis.Client
}

func newTestApp(t *testing.T, opts testOptions) *testApp {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	ta := &testApp{t: t, db: db, store: store}
	if opts.redis {
		ta.mr = miniredis.RunT(t)
		ta.rdb = redis.NewClient(&redis.Options{Addr: ta.mr.Addr()})
		t.Cleanup(func() { _ = ta.rdb.Close() })
	}
	cache.SetClient(ta.rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := &config.Config{
		Env:           "test",
		JWTSecret:     "test-secret",
		SessionTTL:    time.Hour,
		IndexCacheTTL: 20 * time.Second,
		CSRFEnabled:   opts.csrf,
		FeatureFlags:  opts.flags,
	}
	cfg.SetDefaults()

	srv, err := NewServerWithDeps(cfg, db, ta.rdb, store)
	require.NoError(t, err)
	ta.srv = srv
	ta.app = srv.App()
	return ta
}

func (ta *testApp) do(req *http.Request, user *models.User) *http.Response {
	ta.t.Helper()
	if user != nil {
		token, _, err := ta.srv.sessions.Issue(user.ID, user.Username)
		require.NoError(ta.t, err)
		req.AddCookie(&http.Cookie{Name: "yatube_session", Value: token})
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(ta.t, err)
	return resp
}

func (ta *testApp) get(path string, user *models.User) (*http.Response, string) {
	ta.t.Helper()
	resp := ta.do(httptest.NewRequest(http.MethodGet, path, nil), user)
	return resp, readBody(ta.t, resp)
}

func (ta *testApp) postForm(path string, user *models.User, form url.Values) (*http.Response, string) {
	ta.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := ta.do(req, user)
	return resp, readBody(ta.t, resp)
}

func (ta *testApp) postMultipart(path string, user *models.User, fields map[string]string, filename string, content []byte) (*http.Response, string) {
	ta.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(ta.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(ta.t, err)
		_, err = part.Write(content)
		require.NoError(ta.t, err)
	}
	require.NoError(ta.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := ta.do(req, user)
	return resp, readBody(ta.t, resp)
}

func (ta *testApp) countPosts() int64 {
	ta.t.Helper()
	var n int64
	require.NoError(ta.t, ta.db.Model(&models.Post{}).Count(&n).Error)
	return n
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func countCards(body string) int {
	return strings.Count(body, `<article class="post"`)
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/create/", "/create/"},
		{"/posts/3/edit/?x=1", "/posts/3/edit/?x=1"},
		{"//evil.example/", ""},
		{"https://evil.example/", ""},
		{`/\evil.example`, ""},
		{"relative/path", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, safeNext(tt.in))
		})
	}
}

func TestLinebreaksbr(t *testing.T) {
	got := linebreaksbr("line <one>\r\nline two")
	assert.Equal(t, "line &lt;one&gt;<br>line two", string(got))
}

func TestParseID_RejectsNonNumeric(t *testing.T) {
	ta := newTestApp(t, testOptions{})

	for _, path := range []string{"/posts/abc/", "/posts/0/", "/posts/-4/"} {
		resp, body := ta.get(path, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, body, "Custom 404")
	}
}
