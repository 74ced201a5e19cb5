package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"postdeck/internal/config"
	"postdeck/internal/database"
	"postdeck/internal/models"
	"postdeck/internal/service"
	"postdeck/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Env:                 "test",
		DBDriver:            "sqlite",
		AllowedOrigins:      "http://localhost:5173",
		MediaMaxUploadSize:  "1MiB",
		PreviewMaxDimension: 32,
		SessionIdleTimeout:  time.Minute,
	}
}

func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	s, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)
	t.Cleanup(s.sessions.Shutdown)
	return s, s.NewApp()
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func do(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
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
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func createSession(t *testing.T, app *fiber.App) session.State {
	t.Helper()
	resp := do(t, app, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var st session.State
	decode(t, resp, &st)
	require.NotEmpty(t, st.SessionID)
	return st
}

type namedFile struct {
	name    string
	content []byte
}

func upload(t *testing.T, app *fiber.App, method, path, field string, files ...namedFile) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthChecks(t *testing.T) {
	_, app := newTestServer(t)

	resp := do(t, app, http.MethodGet, "/health/live", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/health/ready", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestGetPlatforms(t *testing.T) {
	_, app := newTestServer(t)

	resp := do(t, app, http.MethodGet, "/api/platforms", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var platforms []models.PlatformInfo
	decode(t, resp, &platforms)
	require.Len(t, platforms, len(models.Platforms))
	assert.Equal(t, models.PlatformFacebook, platforms[0].ID)
}

func TestSessionLifecycle(t *testing.T) {
	s, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID

	assert.Empty(t, st.Draft.Platforms)
	assert.Equal(t, models.PostTypePost, st.Draft.PostType)
	assert.False(t, st.Draft.Publishable)

	resp := do(t, app, http.MethodPost, base+"/platforms/instagram/toggle", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, []models.Platform{models.PlatformInstagram}, st.Draft.Platforms)
	require.Len(t, st.Previews, 1)

	resp = do(t, app, http.MethodPut, base+"/body", TextRequest{Text: "Spring launch"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, "Spring launch", st.Draft.Body)
	assert.True(t, st.Draft.Publishable)

	resp = do(t, app, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var infos []session.Info
	decode(t, resp, &infos)
	require.Len(t, infos, 1)
	assert.Equal(t, st.SessionID, infos[0].ID)

	resp = do(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, s.sessions.Len())

	resp = do(t, app, http.MethodGet, base, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestTogglePlatformUnknown(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)

	resp := do(t, app, http.MethodPost, "/api/sessions/"+st.SessionID+"/platforms/myspace/toggle", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/api/sessions/"+st.SessionID+"/platforms/twitter/toggle", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, []models.Platform{models.PlatformX}, st.Draft.Platforms)
}

func TestUnknownSessionOperations(t *testing.T) {
	_, app := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/sessions/missing", nil},
		{http.MethodPut, "/api/sessions/missing/body", TextRequest{Text: "x"}},
		{http.MethodPost, "/api/sessions/missing/tags/commit", nil},
		{http.MethodGet, "/api/sessions/missing/preview", nil},
		{http.MethodPost, "/api/sessions/missing/submit", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestTags(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID

	do(t, app, http.MethodPut, base+"/tag-input", TextRequest{Text: "  launch  "})
	resp := do(t, app, http.MethodPost, base+"/tags/commit", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, []string{"launch"}, st.Draft.Tags)
	assert.Empty(t, st.TagInput)

	// A duplicate commit still clears the input.
	do(t, app, http.MethodPut, base+"/tag-input", TextRequest{Text: "launch"})
	resp = do(t, app, http.MethodPost, base+"/tags/commit", nil)
	decode(t, resp, &st)
	assert.Equal(t, []string{"launch"}, st.Draft.Tags)
	assert.Empty(t, st.TagInput)

	resp = do(t, app, http.MethodPost, base+"/tags", TagRequest{Tag: "spring sale"})
	decode(t, resp, &st)
	assert.Equal(t, []string{"launch", "spring sale"}, st.Draft.Tags)

	resp = do(t, app, http.MethodDelete, base+"/tags/spring%20sale", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, []string{"launch"}, st.Draft.Tags)
}

func TestPostTypeAndMetadata(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID

	resp := do(t, app, http.MethodPut, base+"/post-type", PostTypeRequest{PostType: "reel"})
	decode(t, resp, &st)
	assert.Equal(t, models.PostTypeReel, st.Draft.PostType)

	resp = do(t, app, http.MethodPut, base+"/post-type", PostTypeRequest{PostType: "carousel"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, models.PostTypeReel, st.Draft.PostType)

	do(t, app, http.MethodPut, base+"/title", TextRequest{Text: "Behind the scenes"})
	resp = do(t, app, http.MethodPut, base+"/description", TextRequest{Text: "How we shot it"})
	decode(t, resp, &st)
	assert.Equal(t, "Behind the scenes", st.Draft.Title)
	assert.Equal(t, "How we shot it", st.Draft.Description)

	resp = do(t, app, http.MethodPut, base+"/body", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUploadMediaDropsRejectedFiles(t *testing.T) {
	s, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID
	do(t, app, http.MethodPost, base+"/platforms/instagram/toggle", nil)

	resp := upload(t, app, http.MethodPost, base+"/media", mediaFormField,
		namedFile{"cover.png", tinyPNG(t, 64, 48)},
		namedFile{"notes.txt", []byte("not media")},
		namedFile{"empty.png", nil},
		namedFile{"huge.png", bytes.Repeat([]byte{0x89}, 2<<20)},
	)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)

	require.Len(t, st.Draft.Media, 1)
	assert.Equal(t, "cover.png", st.Draft.Media[0].Filename)
	assert.Equal(t, "image/png", st.Draft.Media[0].ContentType)
	assert.Equal(t, 1, st.Handles)
	assert.Equal(t, 1, s.registry.Len())
	assert.True(t, st.Draft.Publishable)
}

func TestUploadMediaRequiresFiles(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)

	resp := upload(t, app, http.MethodPost, "/api/sessions/"+st.SessionID+"/media", "other",
		namedFile{"cover.png", tinyPNG(t, 4, 4)})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodPost, "/api/sessions/"+st.SessionID+"/media", TextRequest{Text: "x"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPreviewServingAndRelease(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID
	do(t, app, http.MethodPost, base+"/platforms/instagram/toggle", nil)

	resp := upload(t, app, http.MethodPost, base+"/media", mediaFormField,
		namedFile{"cover.png", tinyPNG(t, 64, 48)})
	decode(t, resp, &st)
	require.Len(t, st.Previews, 1)
	previewURL := st.Previews[0].Visual.URL
	require.True(t, strings.HasPrefix(previewURL, "/api/previews/"), previewURL)

	resp = do(t, app, http.MethodGet, previewURL, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = do(t, app, http.MethodGet, previewURL+"?format=jpeg", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	img, _, err := image.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())

	resp = do(t, app, http.MethodDelete, base+"/media/0", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Empty(t, st.Draft.Media)
	assert.Equal(t, 0, st.Handles)

	resp = do(t, app, http.MethodGet, previewURL, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, base+"/media/zero", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEndSessionReleasesPreviews(t *testing.T) {
	s, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID

	upload(t, app, http.MethodPost, base+"/media", mediaFormField,
		namedFile{"a.png", tinyPNG(t, 8, 8)},
		namedFile{"b.png", tinyPNG(t, 9, 9)},
	)
	require.Equal(t, 2, s.registry.Len())

	do(t, app, http.MethodDelete, base, nil)
	assert.Equal(t, 0, s.registry.Len())
}

func TestThumbnail(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID

	resp := upload(t, app, http.MethodPut, base+"/thumbnail", thumbnailFormField,
		namedFile{"thumb.png", tinyPNG(t, 16, 16)})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	require.NotNil(t, st.Draft.Thumbnail)
	assert.Equal(t, "thumb.png", st.Draft.Thumbnail.Filename)

	resp = upload(t, app, http.MethodPut, base+"/thumbnail", thumbnailFormField,
		namedFile{"thumb.txt", []byte("text")})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	require.NotNil(t, st.Draft.Thumbnail)
	assert.Equal(t, "thumb.png", st.Draft.Thumbnail.Filename)

	resp = do(t, app, http.MethodDelete, base+"/thumbnail", nil)
	decode(t, resp, &st)
	assert.Nil(t, st.Draft.Thumbnail)
}

func TestThumbnailAcceptsAnyImageType(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="thumbnail"; filename="cover.webp"`)
	header.Set("Content-Type", "image/webp")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(tinyPNG(t, 8, 8))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/sessions/"+st.SessionID+"/thumbnail", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	require.NotNil(t, st.Draft.Thumbnail)
	assert.Equal(t, "cover.webp", st.Draft.Thumbnail.Filename)
	assert.Equal(t, "image/webp", st.Draft.Thumbnail.ContentType)
	assert.Empty(t, st.Draft.Media)
}

func TestRemoveMediaOutOfRangeIsNoop(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID

	resp := upload(t, app, http.MethodPost, base+"/media", mediaFormField,
		namedFile{"a.png", tinyPNG(t, 4, 4)})
	decode(t, resp, &st)
	require.Len(t, st.Draft.Media, 1)

	for _, index := range []string{"-1", "7"} {
		resp = do(t, app, http.MethodDelete, base+"/media/"+index, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, index)
		decode(t, resp, &st)
		require.Len(t, st.Draft.Media, 1, index)
		assert.Equal(t, "a.png", st.Draft.Media[0].Filename)
	}
}

func TestSubmitDraft(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID

	resp := do(t, app, http.MethodPost, base+"/submit", SubmitRequest{Mode: "now"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	var errBody models.ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, models.CodeNotPublishable, errBody.Code)

	do(t, app, http.MethodPost, base+"/platforms/x/toggle", nil)
	do(t, app, http.MethodPut, base+"/body", TextRequest{Text: "Shipping today"})

	resp = do(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out SubmitResponse
	decode(t, resp, &out)
	require.NotNil(t, out.Post)
	assert.NotZero(t, out.Post.ID)
	assert.Equal(t, models.PostStatusPublished, out.Post.Status)
	assert.Equal(t, "Shipping today", out.Post.Content)

	at := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	resp = do(t, app, http.MethodPost, base+"/submit", SubmitRequest{Mode: string(service.SubmitSchedule), ScheduledFor: &at})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	decode(t, resp, &out)
	assert.Equal(t, models.PostStatusScheduled, out.Post.Status)
	assert.True(t, at.Equal(out.Post.ScheduledFor))

	resp = do(t, app, http.MethodGet, "/api/posts/upcoming", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var upcoming []models.ScheduledPost
	decode(t, resp, &upcoming)
	require.Len(t, upcoming, 1)
	assert.Equal(t, out.Post.ID, upcoming[0].ID)

	past := time.Now().Add(-time.Hour)
	resp = do(t, app, http.MethodPost, base+"/submit", SubmitRequest{Mode: "schedule", ScheduledFor: &past})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDashboardEndpoints(t *testing.T) {
	s, app := newTestServer(t)
	require.NoError(t, s.db.Create(&models.SocialAccount{
		Platform: models.PlatformYouTube, Username: "acme", Connected: true, Followers: 5000,
	}).Error)

	resp := do(t, app, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var overview service.Dashboard
	decode(t, resp, &overview)
	require.Len(t, overview.Accounts, 1)
	assert.Equal(t, "acme", overview.Accounts[0].Username)
	assert.Empty(t, overview.Upcoming)
	assert.Nil(t, overview.Analytics)

	resp = do(t, app, http.MethodGet, "/api/accounts", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/analytics", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/calendar", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/calendar?from=yesterday", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/calendar?from=2026-03-10T00:00:00Z&to=2026-03-01T00:00:00Z", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/posts/upcoming?limit=-1", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPlatformSettingsEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	resp := do(t, app, http.MethodGet, "/api/settings/platforms", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var all []models.PlatformSettings
	decode(t, resp, &all)
	assert.Len(t, all, len(models.Platforms))

	resp = do(t, app, http.MethodPut, "/api/settings/platforms/instagram", service.UpdateSettingsInput{
		Enabled:        true,
		BestTimeToPost: []string{"0 12 * * *"},
		DefaultPrivacy: "public",
		CrossPosting:   []string{"facebook", "instagram"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated models.PlatformSettings
	decode(t, resp, &updated)
	assert.Equal(t, models.PlatformInstagram, updated.Platform)
	assert.Equal(t, []string{"0 12 * * *"}, updated.BestTimeToPost)

	resp = do(t, app, http.MethodGet, "/api/settings/platforms/instagram", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got models.PlatformSettings
	decode(t, resp, &got)
	assert.True(t, got.Enabled)

	resp = do(t, app, http.MethodPut, "/api/settings/platforms/instagram", service.UpdateSettingsInput{
		BestTimeToPost: []string{"whenever"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/settings/platforms/myspace", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScheduleUsesBestTime(t *testing.T) {
	_, app := newTestServer(t)

	do(t, app, http.MethodPut, "/api/settings/platforms/linkedin", service.UpdateSettingsInput{
		Enabled:        true,
		BestTimeToPost: []string{"0 9 * * *"},
	})

	st := createSession(t, app)
	base := "/api/sessions/" + st.SessionID
	do(t, app, http.MethodPost, base+"/platforms/linkedin/toggle", nil)
	do(t, app, http.MethodPut, base+"/body", TextRequest{Text: "Hiring"})

	resp := do(t, app, http.MethodPost, base+"/submit", SubmitRequest{Mode: "schedule"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out SubmitResponse
	decode(t, resp, &out)
	assert.Equal(t, 9, out.Post.ScheduledFor.UTC().Hour())
	assert.Equal(t, 0, out.Post.ScheduledFor.UTC().Minute())
	assert.True(t, out.Post.ScheduledFor.After(time.Now()))
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	_, app := newTestServer(t)
	st := createSession(t, app)

	resp := do(t, app, http.MethodGet, "/api/ws/sessions/"+st.SessionID, nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestDraftChangesReachLocalStreams(t *testing.T) {
	s, app := newTestServer(t)
	st := createSession(t, app)

	client, err := s.hub.Register(st.SessionID, nil)
	require.NoError(t, err)

	do(t, app, http.MethodPut, "/api/sessions/"+st.SessionID+"/body", TextRequest{Text: "hello"})

	select {
	case msg := <-client.Send:
		var event struct {
			Type      string        `json:"type"`
			SessionID string        `json:"session_id"`
			Payload   session.State `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, "draft.updated", event.Type)
		assert.Equal(t, "hello", event.Payload.Draft.Body)
	case <-time.After(time.Second):
		t.Fatal("no draft.updated event")
	}

	do(t, app, http.MethodDelete, "/api/sessions/"+st.SessionID, nil)
	assert.Equal(t, 0, s.hub.SessionCount(st.SessionID))
}

func TestStreamRegisteredAfterEndIsClosed(t *testing.T) {
	s, app := newTestServer(t)
	st := createSession(t, app)

	sess, err := s.sessions.Get(st.SessionID)
	require.NoError(t, err)
	live, err := s.hub.Register(st.SessionID, nil)
	require.NoError(t, err)
	assert.True(t, s.admitStream(sess, live))
	s.hub.UnregisterClient(live)

	require.True(t, s.sessions.End(st.SessionID))
	late, err := s.hub.Register(st.SessionID, nil)
	require.NoError(t, err)
	assert.False(t, s.admitStream(sess, late))

	msg, ok := <-late.Send
	require.True(t, ok)
	var event struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "session.ended", event.Type)
	_, ok = <-late.Send
	assert.False(t, ok, "send channel should be closed")
	assert.Equal(t, 0, s.hub.SessionCount(st.SessionID))
}
