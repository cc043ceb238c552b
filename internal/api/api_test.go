package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/coralwatch/coralwatch-go/internal/conf"
	"github.com/coralwatch/coralwatch-go/internal/datastore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// setupTestAPI builds a Controller over an in-memory store and a
// temporary upload directory.
func setupTestAPI(t *testing.T) (*echo.Echo, *Controller) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Path = ":memory:"
	settings.Upload.Path = t.TempDir()
	settings.Upload.MaxSizeMB = 8
	settings.Upload.ServeImages = true

	ds := datastore.New(settings)
	require.NoError(t, ds.Open())
	t.Cleanup(func() {
		require.NoError(t, ds.Close())
	})

	e := echo.New()
	controller := New(e, ds, settings)
	return e, controller
}

func postJSON(t *testing.T, e *echo.Echo, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// uploadImage posts a multipart observation upload and returns the recorder.
func uploadImage(t *testing.T, e *echo.Echo, filename, siteName, existingID string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader("fake image bytes"))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("dive_site_name", siteName))
	if existingID != "" {
		require.NoError(t, writer.WriteField("existing_coral_internal_id", existingID))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := get(t, e, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSiteAndList(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := postJSON(t, e, "/api/v1/dive_sites", map[string]any{
		"name":      "Playa Kalki",
		"latitude":  12.375,
		"longitude": -69.158,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var site datastore.DiveSite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &site))
	assert.NotZero(t, site.ID)
	assert.Equal(t, "Playa Kalki", site.Name)

	rec = get(t, e, "/api/v1/dive_sites")
	require.Equal(t, http.StatusOK, rec.Code)

	var sites []datastore.DiveSite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sites))
	assert.Len(t, sites, 1)
}

func TestCreateSiteRejectsOutOfRangeLatitudeBeforeWrite(t *testing.T) {
	t.Parallel()
	e, c := setupTestAPI(t)

	rec := postJSON(t, e, "/api/v1/dive_sites", map[string]any{
		"name":     "Nowhere",
		"latitude": 95.0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sites, err := c.DS.GetAllDiveSites(t.Context())
	require.NoError(t, err)
	assert.Empty(t, sites, "rejected input must not write a row")
}

func TestCreateSiteRequiresName(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := postJSON(t, e, "/api/v1/dive_sites", map[string]any{"latitude": 10.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSiteDuplicateNameConflicts(t *testing.T) {
	t.Parallel()
	e, c := setupTestAPI(t)

	rec := postJSON(t, e, "/api/v1/dive_sites", map[string]any{"name": "Tugboat"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, e, "/api/v1/dive_sites", map[string]any{"name": "Tugboat"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	sites, err := c.DS.GetAllDiveSites(t.Context())
	require.NoError(t, err)
	assert.Len(t, sites, 1)
}

func TestUploadRequiresImageAndSiteName(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	// no image part at all
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("dive_site_name", "Blue Hole"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// image present but no site name
	rec = uploadImage(t, e, "img1.jpg", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadUnknownExistingCoral(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := uploadImage(t, e, "img1.jpg", "Blue Hole", "BH_20240115_deadbeef")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestTimelineUnknownCoral(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := get(t, e, "/api/v1/coral_timeline/BH_20240115_deadbeef")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoralsAtUnknownSite(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := get(t, e, "/api/v1/corals_at_site/42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeImageRejectsUnsafeFilename(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := get(t, e, "/api/v1/images/..%2F..%2Fconfig.yaml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestUploadEndToEnd walks the whole flow: create a site, report a new
// coral there, re-sight it with the returned identifier, then check the
// timeline and the per-site listing.
func TestUploadEndToEnd(t *testing.T) {
	t.Parallel()
	e, _ := setupTestAPI(t)

	rec := postJSON(t, e, "/api/v1/dive_sites", map[string]any{"name": "Blue Hole"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var site datastore.DiveSite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &site))

	// first sighting mints a new identity
	rec = uploadImage(t, e, "img1.jpg", "Blue Hole", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "New coral record created", first.Message)
	assert.Regexp(t, `^BH_\d{8}_[0-9a-f]{8}$`, first.CoralInternalID)
	assert.Equal(t, "Blue Hole", first.DiveSite)

	// re-sighting with the returned identifier appends
	rec = uploadImage(t, e, "img2.jpg", "Blue Hole", first.CoralInternalID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var second UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, "Image added to existing coral", second.Message)
	assert.Equal(t, first.CoralInternalID, second.CoralInternalID)

	// timeline is newest first
	rec = get(t, e, "/api/v1/coral_timeline/"+first.CoralInternalID)
	require.Equal(t, http.StatusOK, rec.Code)

	var timeline []TimelineEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	require.Len(t, timeline, 2)
	assert.True(t, strings.HasPrefix(timeline[0].ImageFilename, "img2_"), "newest first, got %q", timeline[0].ImageFilename)
	assert.True(t, strings.HasPrefix(timeline[1].ImageFilename, "img1_"))

	// per-site listing shows the earliest image as thumbnail
	rec = get(t, e, fmt.Sprintf("/api/v1/corals_at_site/%d", site.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []datastore.CoralSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, first.CoralInternalID, summaries[0].InternalID)
	require.NotNil(t, summaries[0].Thumbnail)
	assert.True(t, strings.HasPrefix(*summaries[0].Thumbnail, "img1_"), "thumbnail is the earliest observation, got %q", *summaries[0].Thumbnail)

	// the stored image is served back
	rec = get(t, e, "/api/v1/images/"+first.Filename)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake image bytes", rec.Body.String())
}
