package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hirocks/internal/auth"
	"hirocks/internal/config"
	"hirocks/internal/database"
	"hirocks/internal/testutil"
	"hirocks/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	store  *testutil.MemoryStore
	issuer *auth.Issuer
	topic  models.Topic
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	topic := models.Topic{Name: "타바타", IsActive: true}
	require.NoError(t, db.Create(&topic).Error)

	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            testSecret,
		JWTIssuer:            "hirocks-auth",
		JWTAudience:          "hirocks-api",
		ImageMaxUploadSizeMB: 1,
		PostsPageSize:        15,
		ServiceName:          "hirocks-test",
	}
	store := testutil.NewMemoryStore()
	s, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)

	return &testEnv{
		app:    s.NewApp(),
		db:     db,
		store:  store,
		issuer: auth.NewIssuer(testSecret, "hirocks-auth", "hirocks-api", time.Hour),
		topic:  topic,
	}
}

func (e *testEnv) token(t *testing.T, userID uint, name string) string {
	t.Helper()
	tok, err := e.issuer.Issue(userID, name+"@hirocks.test", name)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request and returns the status and the raw body.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// postForm builds a multipart create-post request.
func postForm(t *testing.T, fields map[string]string, images ...[]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for i, img := range images {
		part, err := w.CreateFormFile("images", "image"+string(rune('a'+i))+".png")
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func pngImage() []byte {
	return testutil.PNG(4, 4)
}
