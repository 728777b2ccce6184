package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/petermazzocco/cloud-vault/internal/apperr"
	"github.com/petermazzocco/cloud-vault/internal/auth"
	"github.com/petermazzocco/cloud-vault/internal/logging"
	"github.com/petermazzocco/cloud-vault/internal/storage"
	"github.com/petermazzocco/cloud-vault/internal/store"
	"github.com/petermazzocco/cloud-vault/internal/store/storetest"
	"github.com/petermazzocco/cloud-vault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	fail error
	got  []byte
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, name, mimeType string) storage.Result {
	f.got = data
	if f.fail != nil {
		return storage.Result{URL: "data:" + mimeType + ";base64,[truncated]", Warning: f.fail.Error()}
	}
	return storage.Result{URL: "https://cdn.example.com/" + name, ExternalID: name, Succeeded: true}
}

type testEnv struct {
	api      *API
	handler  http.Handler
	users    *store.UserStore
	files    *store.FileStore
	uploader *fakeUploader
	authSvc  *auth.Service
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := storetest.NewDB(t)
	users := store.NewUserStore(db)
	files := store.NewFileStore(db)
	up := &fakeUploader{}
	authSvc := auth.NewService(users, logging.Discard())

	api := NewAPI(Config{MaxUploadBytes: 1 << 20}, authSvc, users, files, up,
		func(ctx context.Context) error { return store.Ping(ctx, db) }, logging.Discard())

	return &testEnv{
		api:      api,
		handler:  api.Router(),
		users:    users,
		files:    files,
		uploader: up,
		authSvc:  authSvc,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadReq(t *testing.T, name, mimeType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestRegisterHandler(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, jsonReq(http.MethodPost, "/api/register", `{"username":"alice","password":"pw"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	got := decode[map[string]any](t, rr)
	assert.Equal(t, "alice", got["username"])
	assert.Equal(t, "user", got["role"])
	assert.NotContains(t, got, "password")

	rr = e.do(t, jsonReq(http.MethodPost, "/api/register", `{"username":"alice","password":"pw2"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Username already exists", decode[map[string]string](t, rr)["message"])

	n, err := e.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRegisterHandler_BadInput(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, jsonReq(http.MethodPost, "/api/register", `{"username":"alice"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Username and password required", decode[map[string]string](t, rr)["message"])

	rr = e.do(t, jsonReq(http.MethodPost, "/api/register", `not json`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginHandler(t *testing.T) {
	e := newEnv(t)
	_, err := e.authSvc.Register(context.Background(), "alice", "pw")
	require.NoError(t, err)

	rr := e.do(t, jsonReq(http.MethodPost, "/api/login", `{"username":"alice","password":"pw"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user", decode[map[string]any](t, rr)["role"])

	wrong := e.do(t, jsonReq(http.MethodPost, "/api/login", `{"username":"alice","password":"nope"}`))
	unknown := e.do(t, jsonReq(http.MethodPost, "/api/login", `{"username":"bob","password":"nope"}`))

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestStatsHandler(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.authSvc.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	admin, err := e.users.FindFirstAdmin(ctx)
	require.NoError(t, err)
	plain, err := e.authSvc.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	statsReq := func(id string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		if id != "" {
			req.Header.Set(auth.UserIDHeader, id)
		}
		return req
	}

	assert.Equal(t, http.StatusUnauthorized, e.do(t, statsReq("")).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, statsReq(strconv.Itoa(int(plain.ID)))).Code)

	rr := e.do(t, statsReq(strconv.Itoa(int(admin.ID))))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"totalFiles":0,"totalUsers":2,"totalSizeUsed":0}`, rr.Body.String())

	e.do(t, uploadReq(t, "a.png", "image/png", make([]byte, 10)))
	e.do(t, uploadReq(t, "b.pdf", "application/pdf", make([]byte, 32)))

	rr = e.do(t, statsReq(strconv.Itoa(int(admin.ID))))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"totalFiles":2,"totalUsers":2,"totalSizeUsed":42}`, rr.Body.String())
}

func TestUploadHandler_Types(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, uploadReq(t, "photo.png", "image/png", []byte("0123456789")))
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[map[string]any](t, rr)
	assert.Equal(t, "photo", got["type"])
	assert.EqualValues(t, 10, got["size"])
	assert.Equal(t, "photo.png", got["name"])
	assert.Equal(t, "https://cdn.example.com/photo.png", got["url"])
	assert.NotContains(t, got, "warning")
	assert.Equal(t, []byte("0123456789"), e.uploader.got)

	rr = e.do(t, uploadReq(t, "report.pdf", "application/pdf", []byte("%PDF-1.7")))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "document", decode[map[string]any](t, rr)["type"])
}

func TestUploadHandler_DegradedStillPersists(t *testing.T) {
	e := newEnv(t)
	e.uploader.fail = errors.New("Invalid cloud_name")

	rr := e.do(t, uploadReq(t, "photo.png", "image/png", []byte("0123456789")))
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[map[string]any](t, rr)
	assert.Equal(t, "Invalid cloud_name", got["warning"])
	assert.Equal(t, "data:image/png;base64,[truncated]", got["url"])

	rr = e.do(t, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]models.File](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "photo.png", list[0].Name)
	assert.EqualValues(t, got["id"], list[0].ID)
}

func TestUploadHandler_NoFile(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, jsonReq(http.MethodPost, "/api/upload", `{}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No file uploaded", decode[map[string]string](t, rr)["message"])

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr = e.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadHandler_TooLarge(t *testing.T) {
	e := newEnv(t)
	e.api.cfg.MaxUploadBytes = 16

	rr := e.do(t, uploadReq(t, "big.bin", "application/octet-stream", make([]byte, 17)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "File too large", decode[map[string]string](t, rr)["message"])
}

type failingFiles struct{}

func (failingFiles) Create(context.Context, *models.File) (*models.File, error) {
	return nil, apperr.Store("create file", errors.New("connection reset"))
}

func (failingFiles) ListAll(context.Context) ([]models.File, error) {
	return nil, apperr.Store("list files", errors.New("connection reset"))
}

func TestHandlers_StoreFailures(t *testing.T) {
	e := newEnv(t)
	api := NewAPI(Config{MaxUploadBytes: 1 << 20}, e.authSvc, e.users, failingFiles{}, e.uploader,
		func(context.Context) error { return errors.New("down") }, logging.Discard())
	h := api.Router()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadReq(t, "a.png", "image/png", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode[map[string]string](t, rr)
	assert.Equal(t, "Upload failed", body["message"])
	assert.NotEmpty(t, body["error"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to get files", decode[map[string]string](t, rr)["message"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestListFilesHandler_Filters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	seed := []models.File{
		{Name: "beach.png", Type: models.TypePhoto, Category: models.DefaultCategory},
		{Name: "Beach.pdf", Type: models.TypeDocument, Category: models.DefaultCategory},
		{Name: "cat.jpg", Type: models.TypePhoto, Category: "Pets"},
		{Name: "notes.txt", Type: models.TypeDocument, Category: "Pets"},
	}
	for i := range seed {
		seed[i].URL = "https://cdn/" + seed[i].Name
		seed[i].Size = int64(i + 1)
		_, err := e.files.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	names := func(q string) []string {
		rr := e.do(t, httptest.NewRequest(http.MethodGet, "/api/files"+q, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var out []string
		for _, f := range decode[[]models.File](t, rr) {
			out = append(out, f.Name)
		}
		return out
	}

	assert.Equal(t, []string{"beach.png", "Beach.pdf", "cat.jpg", "notes.txt"}, names(""))
	assert.Equal(t, []string{"beach.png"}, names("?search=beach"))
	assert.Equal(t, []string{"beach.png"}, names("?category=Uncategorized&type=photo"))
	assert.Equal(t, []string{"cat.jpg", "notes.txt"}, names("?category=Pets"))
	assert.Equal(t, []string{"cat.jpg"}, names("?category=Pets&type=photo&search=at"))
	assert.Empty(t, names("?type=video"))
}

func TestListFilesHandler_EmptyIsArray(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHomeAndHealth(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Cloud Vault")

	rr = e.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = e.do(t, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t)
	api := NewAPI(Config{MaxUploadBytes: 1 << 20, RateLimitPerMinute: 2}, e.authSvc, e.users, e.files,
		e.uploader, func(context.Context) error { return nil }, logging.Discard())
	h := api.Router()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/files", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
