package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/krishkalaria12/snap-gallery/batches"
	"github.com/krishkalaria12/snap-gallery/gallery"
	"github.com/krishkalaria12/snap-gallery/generation"
	handler "github.com/krishkalaria12/snap-gallery/handlers"
	"github.com/krishkalaria12/snap-gallery/logger"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/storage/storagetest"
	"github.com/krishkalaria12/snap-gallery/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type env struct {
	app        *fiber.App
	auth       *auth.Service
	bucket     *storagetest.MemoryBucket
	sourceHits *int32
	falHits    *int32
	falFail    *atomic.Bool
	sourceBig  *atomic.Bool
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 60))
	for x := 0; x < 80; x++ {
		for y := 0; y < 60; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y * 4), B: uint8(x * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{sourceHits: new(int32), falHits: new(int32), falFail: new(atomic.Bool), sourceBig: new(atomic.Bool)}
	imgData := testPNG(t)

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(e.sourceHits, 1)
		w.Header().Set("Content-Type", "image/png")
		if e.sourceBig.Load() {
			_, _ = w.Write(make([]byte, gallery.MaxImageBytes+1))
			return
		}
		_, _ = w.Write(imgData)
	}))
	t.Cleanup(source.Close)

	fal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(e.falHits, 1)
		if e.falFail.Load() {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"images":[{"url":%q}]}`, fmt.Sprintf("%s/fal/%d.png", source.URL, n))
	}))
	t.Cleanup(fal.Close)

	e.bucket = storagetest.NewMemoryBucket("")
	blobs := httptest.NewServer(e.bucket)
	t.Cleanup(blobs.Close)
	e.bucket.BaseURL = blobs.URL

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.GalleryImage{}))

	e.auth = auth.NewService(auth.Options{
		Secret:         "test-secret",
		Issuer:         "snap-gallery-test",
		URL:            "http://localhost:3000",
		AvatarPath:     t.TempDir(),
		TokenDuration:  time.Hour,
		CookieDuration: time.Hour,
	}, db)

	log := logger.NewNop()
	catalog := generation.NewCatalog()
	falClient := generation.NewFalClient(fal.URL, "key", fal.Client())
	for _, m := range generation.DefaultModels {
		catalog.Register(m, falClient)
	}

	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	h := handler.New(handler.Deps{
		Auth:      e.auth,
		Gallery:   gallery.NewService(gallery.NewGormStore(db), e.bucket, nil, log, gallery.WithAllowedHosts("127.0.0.1")),
		Generator: generation.NewOrchestrator(catalog, log),
		Batches:   batches.NewStore(time.Hour),
		Views:     renderer,
		Log:       log,
	})

	e.app = fiber.New()
	SetupRoutes(e.app, h, e.auth)
	return e
}

func (e *env) token(t *testing.T, username string) string {
	t.Helper()
	user, err := e.auth.Register(username, username+"@example.com", strings.ToUpper(username[:1])+username[1:], "password123")
	require.NoError(t, err)
	tok, err := e.auth.IssueToken(user)
	require.NoError(t, err)
	return tok
}

type response struct {
	status int
	header http.Header
	body   string
}

func (e *env) do(t *testing.T, method, path, token string, body io.Reader, contentType string) response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "JWT", Value: token})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: string(data)}
}

func (e *env) form(t *testing.T, path, token string, values url.Values) response {
	return e.do(t, http.MethodPost, path, token, strings.NewReader(values.Encode()), fiber.MIMEApplicationForm)
}

func (e *env) json(t *testing.T, method, path, token string, payload interface{}) (response, map[string]interface{}) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	res := e.do(t, method, path, token, body, fiber.MIMEApplicationJSON)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.body), &out), res.body)
	return res, out
}

func (e *env) generate(t *testing.T, token string) string {
	t.Helper()
	res := e.form(t, "/generate", token, url.Values{
		"prompt":   {"a red fox in snow"},
		"model_id": {"fal-ai/fast-sdxl"},
	})
	require.Equal(t, fiber.StatusSeeOther, res.status, res.body)
	loc := res.header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/batches/"), loc)
	return loc
}

func TestAnonymousGenerateShowsNoSaveControl(t *testing.T) {
	e := newEnv(t)

	batchPath := e.generate(t, "")
	assert.EqualValues(t, 4, atomic.LoadInt32(e.falHits))

	page := e.do(t, http.MethodGet, batchPath, "", nil, "")
	require.Equal(t, fiber.StatusOK, page.status)
	assert.Equal(t, 4, strings.Count(page.body, "<img src="))
	assert.Equal(t, 4, strings.Count(page.body, `title="Copy image URL"`))
	assert.Equal(t, 4, strings.Count(page.body, `title="Download image"`))
	assert.NotContains(t, page.body, "/save")

	res := e.form(t, batchPath+"/slots/0/save", "", url.Values{})
	assert.Equal(t, fiber.StatusSeeOther, res.status)
	assert.Zero(t, atomic.LoadInt32(e.sourceHits))
	assert.Zero(t, e.bucket.Uploads())
}

func TestGenerateFailureRendersNoResults(t *testing.T) {
	e := newEnv(t)
	e.falFail.Store(true)

	res := e.form(t, "/generate", "", url.Values{
		"prompt":   {"a red fox in snow"},
		"model_id": {"fal-ai/fast-sdxl"},
	})
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Contains(t, res.body, "Failed to generate images")
	assert.NotContains(t, res.body, "<img src=")
	assert.Equal(t, 4, strings.Count(res.body, "Generated Image "))
}

func TestSaveToGalleryFlow(t *testing.T) {
	e := newEnv(t)
	alice := e.token(t, "alice")
	bob := e.token(t, "bob")

	empty := e.do(t, http.MethodGet, "/gallery", alice, nil, "")
	require.Equal(t, fiber.StatusOK, empty.status)
	assert.Contains(t, empty.body, "Your gallery is empty.")

	batchPath := e.generate(t, alice)
	page := e.do(t, http.MethodGet, batchPath, alice, nil, "")
	assert.Equal(t, 4, strings.Count(page.body, "/save\""))

	res := e.form(t, batchPath+"/slots/1/save", alice, url.Values{})
	require.Equal(t, fiber.StatusSeeOther, res.status)
	assert.Equal(t, 1, e.bucket.Uploads())

	// saved slots ignore further saves
	e.form(t, batchPath+"/slots/1/save", alice, url.Values{})
	assert.Equal(t, 1, e.bucket.Uploads())

	page = e.do(t, http.MethodGet, batchPath, alice, nil, "")
	assert.Contains(t, page.body, `title="Saved!"`)

	_, body := e.json(t, http.MethodGet, "/api/gallery", alice, nil)
	assert.Equal(t, "success", body["status"])
	records := body["data"].([]interface{})
	require.Len(t, records, 1)
	record := records[0].(map[string]interface{})
	assert.Equal(t, "a red fox in snow", record["prompt"])
	assert.Equal(t, "fal-ai/fast-sdxl", record["modelId"])
	assert.True(t, strings.HasPrefix(record["imageUrl"].(string), e.bucket.BaseURL+"/user_galleries/"+auth.LocalUserID("alice")+"/"))

	gal := e.do(t, http.MethodGet, "/gallery", alice, nil, "")
	assert.Contains(t, gal.body, "a red fox in snow")
	assert.Contains(t, gal.body, "/gallery/"+record["id"].(string)+"/thumbnail")

	_, body = e.json(t, http.MethodGet, "/api/gallery", bob, nil)
	assert.Empty(t, body["data"])

	thumb := e.do(t, http.MethodGet, "/gallery/"+record["id"].(string)+"/thumbnail", alice, nil, "")
	require.Equal(t, fiber.StatusOK, thumb.status)
	assert.Equal(t, "image/jpeg", thumb.header.Get("Content-Type"))
	img, err := jpeg.Decode(strings.NewReader(thumb.body))
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())

	denied := e.do(t, http.MethodGet, "/gallery/"+record["id"].(string)+"/thumbnail", bob, nil, "")
	assert.Equal(t, fiber.StatusNotFound, denied.status)
}

func TestGalleryPageUnauthenticated(t *testing.T) {
	e := newEnv(t)

	res := e.do(t, http.MethodGet, "/gallery", "", nil, "")
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Contains(t, res.body, "Access Denied")

	res = e.do(t, http.MethodGet, "/gallery/whatever/thumbnail", "", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
}

func TestCopyAndDownload(t *testing.T) {
	e := newEnv(t)
	batchPath := e.generate(t, "")

	_, body := e.json(t, http.MethodPost, batchPath+"/slots/2/copy", "", nil)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Contains(t, data["url"], "/fal/")

	page := e.do(t, http.MethodGet, batchPath, "", nil, "")
	assert.Contains(t, page.body, ">Copied<")

	dl := e.do(t, http.MethodGet, batchPath+"/slots/2/download", "", nil, "")
	require.Equal(t, fiber.StatusOK, dl.status)
	assert.Contains(t, dl.header.Get("Content-Disposition"), "generated-image-3.png")
	assert.Equal(t, "image/png", dl.header.Get("Content-Type"))

	res, _ := e.json(t, http.MethodPost, batchPath+"/slots/9/copy", "", nil)
	assert.Equal(t, fiber.StatusNotFound, res.status)
}

func TestDownload_OversizedImageRedirectsBack(t *testing.T) {
	e := newEnv(t)
	batchPath := e.generate(t, "")
	e.sourceBig.Store(true)

	dl := e.do(t, http.MethodGet, batchPath+"/slots/0/download", "", nil, "")
	assert.Equal(t, fiber.StatusSeeOther, dl.status)
	assert.Equal(t, batchPath, dl.header.Get("Location"))
	assert.Empty(t, dl.header.Get("Content-Disposition"))
}

func TestAPI(t *testing.T) {
	e := newEnv(t)

	_, body := e.json(t, http.MethodGet, "/api/models", "", nil)
	models := body["data"].([]interface{})
	require.Len(t, models, 3)
	assert.Equal(t, "fal-ai/ideogram/v2", models[0].(map[string]interface{})["id"])

	res, body := e.json(t, http.MethodPost, "/api/generate", "", map[string]string{"prompt": "", "model_id": "fal-ai/fast-sdxl"})
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	assert.Equal(t, "error", body["status"])

	res, _ = e.json(t, http.MethodPost, "/api/generate", "", map[string]string{"prompt": "fox", "model_id": "nope"})
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res, body = e.json(t, http.MethodPost, "/api/generate", "", map[string]string{"prompt": "fox", "model_id": "fal-ai/fast-sdxl"})
	require.Equal(t, fiber.StatusOK, res.status)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["images"], 4)
	assert.NotEmpty(t, data["batch_id"])

	res, _ = e.json(t, http.MethodPost, "/api/gallery", "", map[string]string{"image_url": "https://x/y.png", "model_id": "m"})
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
	assert.Zero(t, e.bucket.Uploads())
}

func TestAPI_PromptLengthCountsTrimmedText(t *testing.T) {
	e := newEnv(t)
	padded := "  " + strings.Repeat("a", generation.MaxPromptLength) + "\n"

	res, body := e.json(t, http.MethodPost, "/api/generate", "", map[string]string{"prompt": padded, "model_id": "fal-ai/fast-sdxl"})
	require.Equal(t, fiber.StatusOK, res.status, res.body)
	assert.Len(t, body["data"].(map[string]interface{})["images"], 4)

	res, body = e.json(t, http.MethodPost, "/api/generate", "", map[string]string{"prompt": strings.Repeat("a", generation.MaxPromptLength+1), "model_id": "fal-ai/fast-sdxl"})
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	assert.Equal(t, "Prompt too long (max 1000 characters)", body["message"])
}

func TestAPI_SaveRejectsHostsOutsideAllowList(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "alice")

	for _, u := range []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost:8080/admin",
		"http://10.0.0.5/internal.png",
	} {
		res, _ := e.json(t, http.MethodPost, "/api/gallery", tok, map[string]string{"image_url": u, "model_id": "m"})
		assert.Equal(t, fiber.StatusBadRequest, res.status, u)
	}
	assert.Zero(t, e.bucket.Uploads())

	_, body := e.json(t, http.MethodGet, "/api/gallery", tok, nil)
	assert.Empty(t, body["data"])
}

func TestRegisterLoginMe(t *testing.T) {
	e := newEnv(t)

	res, body := e.json(t, http.MethodPost, "/api/users", "", map[string]string{
		"username": "carol",
		"email":    "carol@example.com",
		"name":     "Carol",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, res.status, res.body)

	res, _ = e.json(t, http.MethodPost, "/api/users", "", map[string]string{
		"username": "carol",
		"email":    "carol2@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, res.status)

	res, body = e.json(t, http.MethodPost, "/api/users", "", map[string]string{"username": "x"})
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	assert.Contains(t, body["message"], "email is required")

	res, _ = e.json(t, http.MethodPost, "/api/auth/login", "", map[string]string{"identity": "carol", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, res.status)

	res, body = e.json(t, http.MethodPost, "/api/auth/login", "", map[string]string{"identity": "carol@example.com", "password": "password123"})
	require.Equal(t, fiber.StatusOK, res.status)
	tok := body["data"].(map[string]interface{})["token"].(string)
	assert.Contains(t, res.header.Get("Set-Cookie"), "JWT=")

	res, body = e.json(t, http.MethodGet, "/api/users/me", tok, nil)
	require.Equal(t, fiber.StatusOK, res.status)
	me := body["data"].(map[string]interface{})
	assert.Equal(t, auth.LocalUserID("carol"), me["id"])
	assert.Equal(t, "Carol", me["name"])

	res, _ = e.json(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
}
