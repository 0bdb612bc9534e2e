package adminapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/orangeboy/storefront/config"
	"github.com/orangeboy/storefront/internal/app"
	"github.com/orangeboy/storefront/internal/catalog"
	"github.com/orangeboy/storefront/internal/domain"
	"github.com/orangeboy/storefront/internal/webserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testEnv struct {
	t       *testing.T
	app     *app.Application
	handler http.Handler
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Web.Secret = "adminapi-test-secret"
	cfg.Web.AdminPassword = "s3cret"

	a := app.NewApplication(&cfg)
	require.NoError(t, a.InitServices())
	webserver.Init(a)
	Init()

	token, _, err := webserver.IssueToken(cfg.Web.Secret, cfg.Web.AdminUsername, cfg.TokenTTL())
	require.NoError(t, err)
	return &testEnv{t: t, app: a, handler: webserver.Handler(), token: token}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) public(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(req)
}

func (e *testEnv) admin(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	return e.do(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateThenListWithoutDurableBackend(t *testing.T) {
	env := newTestEnv(t)

	rec := env.admin(http.MethodPost, "/api/admin/products", `{"name":"Kimchi","price":5000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.ProductEntry](t, rec)
	assert.Equal(t, int64(1), created.Data.ID)
	assert.Equal(t, catalog.SourceFallback, created.Meta.Source)

	rec = env.public(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	col := decode[domain.ProductCollection](t, rec)
	require.Len(t, col.Data, 1)
	assert.Equal(t, "Kimchi", col.Data[0].Name)
	assert.Equal(t, 5000.0, col.Data[0].Price)
	assert.Equal(t, catalog.SourceFallback, col.Meta.Source)
	assert.Empty(t, col.Meta.Backend)
	assert.Equal(t, 1, col.Meta.Count)

	rec = env.public(http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kimchi", decode[domain.ProductEntry](t, rec).Data.Name)
}

func TestUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.admin(http.MethodPost, "/api/admin/products", `{"name":"Kimchi","price":5000}`).Code)

	body := `{"name":"  Spicy kimchi ","price":"5500","category":"Food"}`
	for i := 0; i < 2; i++ {
		rec := env.admin(http.MethodPut, "/api/admin/products/1", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		entry := decode[domain.ProductEntry](t, rec)
		assert.Equal(t, "Spicy kimchi", entry.Data.Name)
		assert.Equal(t, 5500.0, entry.Data.Price)
		require.NotNil(t, entry.Data.Category)
		assert.Equal(t, "food", *entry.Data.Category)
	}

	rec := env.public(http.MethodGet, "/api/products?category=food", "")
	col := decode[domain.ProductCollection](t, rec)
	require.Len(t, col.Data, 1)
	assert.Equal(t, "Spicy kimchi", col.Data[0].Name)

	rec = env.admin(http.MethodDelete, "/api/admin/products/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.public(http.MethodGet, "/api/products/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	rec := env.admin(http.MethodDelete, "/api/admin/products/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[webserver.ErrorBody](t, rec).Error)
}

func TestInvalidProductID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.admin(http.MethodPut, "/api/admin/products/abc", `{"name":"Kimchi","price":5000}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decode[webserver.ErrorBody](t, rec).Error)

	rec = env.admin(http.MethodDelete, "/api/admin/products/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decode[webserver.ErrorBody](t, rec).Error)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]string{
		`{"name":"   ","price":5000}`:   "invalid_name",
		`{"price":5000}`:                "invalid_name",
		`{"name":"Kimchi","price":"x"}`: "invalid_price",
		`{"name":"Kimchi"}`:             "invalid_price",
		`[1,2]`:                         "invalid_body",
		`not json`:                      "invalid_body",
	}
	for body, code := range cases {
		rec := env.admin(http.MethodPost, "/api/admin/products", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, code, decode[webserver.ErrorBody](t, rec).Error, body)
	}
	assert.Equal(t, 0, env.app.FallbackStore().Len())
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.public(http.MethodPost, "/api/admin/products", `{"name":"Kimchi","price":5000}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[webserver.ErrorBody](t, rec).Error)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)
	assert.Equal(t, 0, env.app.FallbackStore().Len())
}

func TestLoginSessionAndLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.public(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.public(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[loginResponse](t, rec)
	assert.NotEmpty(t, login.Token)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// session cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode[map[string]string](t, rec)["username"])

	// so does the returned bearer token
	req = httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	assert.Equal(t, http.StatusOK, env.do(req).Code)

	rec = env.public(http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTranslateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.public(http.MethodPost, "/api/translate", `{"targetLang":"vi","texts":["Food","All"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Food", "All"}, decode[translateResponse](t, rec).Data)

	rec = env.public(http.MethodPost, "/api/translate", `{"targetLang":"ko","texts":["김치"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"김치"}, decode[translateResponse](t, rec).Data)

	rec = env.public(http.MethodPost, "/api/translate", `{"texts":["Food"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[webserver.ErrorBody](t, rec).Error)

	rec = env.public(http.MethodPost, "/api/translate", `{"targetLang":"en","texts":"Food"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListLanguages(t *testing.T) {
	env := newTestEnv(t)
	rec := env.public(http.MethodGet, "/api/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "ko", body["default"])
	assert.NotEmpty(t, body["data"])
}

func multipartUpload(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "kimchi.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)

	for i, field := range []string{"files", "file"} {
		body, contentType := multipartUpload(t, field, []byte("png"))
		req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+env.token)
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		img := decode[domain.Image](t, rec)
		assert.Equal(t, int64(1001+i), img.ID)
		assert.True(t, strings.HasPrefix(img.URL, "data:"), img.URL)
	}

	body, contentType := multipartUpload(t, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := env.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file_required", decode[webserver.ErrorBody](t, rec).Error)
}

func TestUploadedImageAttachesToProduct(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartUpload(t, "files", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+env.token)
	img := decode[domain.Image](t, env.do(req))

	rec := env.admin(http.MethodPost, "/api/admin/products", `{"name":"Kimchi","price":5000,"imageId":1001}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[domain.ProductEntry](t, rec)
	require.NotNil(t, entry.Data.Image)
	assert.Equal(t, img.URL, entry.Data.Image.URL)
}

func TestExportProducts(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.admin(http.MethodPost, "/api/admin/products", `{"name":"Kimchi","price":5000,"category":"food"}`).Code)

	rec := env.admin(http.MethodGet, "/api/admin/products/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,name,price,category"))
	assert.Contains(t, lines[1], "Kimchi")

	rec = env.admin(http.MethodGet, "/api/admin/products/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = env.admin(http.MethodGet, "/api/admin/products/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.admin(http.MethodGet, "/api/admin/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Data  []app.JobStatus `json:"data"`
		Total int             `json:"total"`
	}](t, rec)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "backend_probe", body.Data[0].Name)

	rec = env.admin(http.MethodPost, "/api/admin/jobs/translation_cache_stats/run", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.admin(http.MethodPost, "/api/admin/jobs/unknown/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
