package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catphotos"
	"catphotos/gateway"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListPhotos(ctx context.Context, familyID string) ([]catphotos.PhotoRecord, error) {
	args := m.Called(ctx, familyID)
	return args.Get(0).([]catphotos.PhotoRecord), args.Error(1)
}

func (m *MockService) CreateUploadTarget(ctx context.Context, familyID, contentType, title string) (catphotos.UploadTarget, error) {
	args := m.Called(ctx, familyID, contentType, title)
	return args.Get(0).(catphotos.UploadTarget), args.Error(1)
}

func (m *MockService) PersistMetadata(ctx context.Context, familyID, photoID, objectKey string, details catphotos.PhotoDetails) (catphotos.PhotoRecord, error) {
	args := m.Called(ctx, familyID, photoID, objectKey, details)
	return args.Get(0).(catphotos.PhotoRecord), args.Error(1)
}

func (m *MockService) FetchDownloadTarget(ctx context.Context, familyID, photoID string) (string, error) {
	args := m.Called(ctx, familyID, photoID)
	return args.String(0), args.Error(1)
}

func (m *MockService) StoreBinary(ctx context.Context, objectKey string, data []byte, contentType string) error {
	args := m.Called(ctx, objectKey, data, contentType)
	return args.Error(0)
}

// newHandler builds an API-only handler; newWebHandler adds the page renderer.
func newHandler(t *testing.T, allowedIDs ...string) (*gateway.Handler, *MockService) {
	t.Helper()
	service := new(MockService)
	h := gateway.NewHandler(&gateway.HandlerConfig{
		Auth: catphotos.NewAuthenticator(allowedIDs),
	}, service)
	return h, service
}

func newWebHandler(t *testing.T, allowedIDs ...string) (*gateway.Handler, *MockService) {
	t.Helper()
	service := new(MockService)
	h := gateway.NewHandler(&gateway.HandlerConfig{
		Auth:  catphotos.NewAuthenticator(allowedIDs),
		Pages: gateway.NewHTMLRenderer(),
	}, service)
	return h, service
}

func newEvent(method, path string) events.APIGatewayV2HTTPRequest {
	event := events.APIGatewayV2HTTPRequest{RawPath: path}
	event.RequestContext.HTTP.Method = method
	return event
}

func withFamilyHeader(event events.APIGatewayV2HTTPRequest, familyID string) events.APIGatewayV2HTTPRequest {
	if event.Headers == nil {
		event.Headers = map[string]string{}
	}
	event.Headers["x-family-id"] = familyID
	return event
}

func TestHandler_Health(t *testing.T) {
	h, _ := newHandler(t)

	resp, err := h.Handle(context.Background(), newEvent(http.MethodGet, "/health"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body)
}

func TestHandler_UnknownRoute(t *testing.T) {
	h, _ := newHandler(t)

	resp, err := h.Handle(context.Background(), newEvent(http.MethodGet, "/nope"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Not Found"}`, resp.Body)
}

func TestHandler_MethodMatters(t *testing.T) {
	h, _ := newHandler(t)

	resp, err := h.Handle(context.Background(), newEvent(http.MethodDelete, "/health"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_StageStripping(t *testing.T) {
	h, _ := newHandler(t)

	event := newEvent(http.MethodGet, "/dev/health")
	event.RequestContext.Stage = "dev"

	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_ListPhotos(t *testing.T) {
	t.Run("requires a family id", func(t *testing.T) {
		h, service := newHandler(t)

		resp, err := h.Handle(context.Background(), newEvent(http.MethodGet, "/photos"))
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Missing family identifier"}`, resp.Body)
		service.AssertNotCalled(t, "ListPhotos")
	})

	t.Run("rejects ids outside the allow-list", func(t *testing.T) {
		h, service := newHandler(t, "family-123")

		event := withFamilyHeader(newEvent(http.MethodGet, "/photos"), "family-999")
		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Family id not authorized"}`, resp.Body)
		service.AssertNotCalled(t, "ListPhotos")
	})

	t.Run("wraps records in items", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("ListPhotos", mock.Anything, "family-123").Return([]catphotos.PhotoRecord{
			{PhotoID: "photo-2", ObjectKey: "family-123/photo-2.jpg", UploadedAt: "2026-08-30T12:00:00Z"},
			{PhotoID: "photo-1", ObjectKey: "family-123/photo-1.jpg", UploadedAt: "2026-08-29T12:00:00Z"},
		}, nil)

		event := withFamilyHeader(newEvent(http.MethodGet, "/photos"), "family-123")
		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"items":[
			{"photoId":"photo-2","objectKey":"family-123/photo-2.jpg","uploadedAt":"2026-08-30T12:00:00Z"},
			{"photoId":"photo-1","objectKey":"family-123/photo-1.jpg","uploadedAt":"2026-08-29T12:00:00Z"}
		]}`, resp.Body)
		service.AssertExpectations(t)
	})

	t.Run("empty family yields empty items array", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("ListPhotos", mock.Anything, "family-123").
			Return([]catphotos.PhotoRecord(nil), nil)

		event := withFamilyHeader(newEvent(http.MethodGet, "/photos"), "family-123")
		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.JSONEq(t, `{"items":[]}`, resp.Body)
	})

	t.Run("service failure is a 500", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("ListPhotos", mock.Anything, "family-123").
			Return([]catphotos.PhotoRecord(nil), errors.New("table unavailable"))

		event := withFamilyHeader(newEvent(http.MethodGet, "/photos"), "family-123")
		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Unable to list photos"}`, resp.Body)
	})
}

func TestHandler_CreateUploadURL(t *testing.T) {
	t.Run("issues a presigned target", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("CreateUploadTarget", mock.Anything, "family-123", "image/png", "Nap time").
			Return(catphotos.UploadTarget{
				PhotoID:          "photo-1",
				ObjectKey:        "family-123/photo-1.png",
				UploadURL:        "https://bucket.example/upload",
				Title:            "Nap time",
				ContentType:      "image/png",
				ExpiresInSeconds: 900,
			}, nil)

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos/upload-url"), "family-123")
		event.Body = `{"contentType":"image/png","title":"Nap time"}`

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.JSONEq(t, `{
			"photoId":"photo-1",
			"objectKey":"family-123/photo-1.png",
			"uploadUrl":"https://bucket.example/upload",
			"title":"Nap time",
			"contentType":"image/png",
			"expiresInSeconds":900
		}`, resp.Body)
		service.AssertExpectations(t)
	})

	t.Run("content type defaults to jpeg", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("CreateUploadTarget", mock.Anything, "family-123", "image/jpeg", "").
			Return(catphotos.UploadTarget{PhotoID: "photo-1"}, nil)

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos/upload-url"), "family-123")
		event.Body = `{}`

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		service.AssertExpectations(t)
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		h, service := newHandler(t)

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos/upload-url"), "family-123")
		event.Body = "{not json"

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Invalid JSON body"}`, resp.Body)
		service.AssertNotCalled(t, "CreateUploadTarget")
	})

	t.Run("presign failure is a 500", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("CreateUploadTarget", mock.Anything, "family-123", "image/jpeg", "").
			Return(catphotos.UploadTarget{}, errors.New("signing failed"))

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos/upload-url"), "family-123")

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Unable to create upload URL"}`, resp.Body)
	})
}

func TestHandler_RecordMetadata(t *testing.T) {
	t.Run("records and echoes the key pair", func(t *testing.T) {
		h, service := newHandler(t)

		details := catphotos.PhotoDetails{Title: "Nap time", ContentType: "image/jpeg"}
		service.On("PersistMetadata", mock.Anything, "family-123", "photo-1", "family-123/photo-1.jpg", details).
			Return(catphotos.PhotoRecord{PhotoID: "photo-1", ObjectKey: "family-123/photo-1.jpg"}, nil)

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos"), "family-123")
		event.Body = `{"photoId":"photo-1","objectKey":"family-123/photo-1.jpg","title":"Nap time","contentType":"image/jpeg"}`

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.JSONEq(t, `{"photoId":"photo-1","objectKey":"family-123/photo-1.jpg"}`, resp.Body)
		service.AssertExpectations(t)
	})

	t.Run("missing required fields", func(t *testing.T) {
		h, service := newHandler(t)

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos"), "family-123")
		event.Body = `{"photoId":"photo-1"}`

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Missing required fields","required":["objectKey","photoId"]}`, resp.Body)
		service.AssertNotCalled(t, "PersistMetadata")
	})

	t.Run("duplicate photo is a conflict", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("PersistMetadata", mock.Anything, "family-123", "photo-1", "key", catphotos.PhotoDetails{}).
			Return(catphotos.PhotoRecord{}, catphotos.ErrConflict)

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos"), "family-123")
		event.Body = `{"photoId":"photo-1","objectKey":"key"}`

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Photo already recorded"}`, resp.Body)
	})

	t.Run("repo failure is a 500", func(t *testing.T) {
		h, service := newHandler(t)

		service.On("PersistMetadata", mock.Anything, "family-123", "photo-1", "key", catphotos.PhotoDetails{}).
			Return(catphotos.PhotoRecord{}, errors.New("write failed"))

		event := withFamilyHeader(newEvent(http.MethodPost, "/photos"), "family-123")
		event.Body = `{"photoId":"photo-1","objectKey":"key"}`

		resp, err := h.Handle(context.Background(), event)
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"message":"Unable to save metadata"}`, resp.Body)
	})
}

func TestHandler_FamilyIDFromCookie(t *testing.T) {
	h, service := newHandler(t)

	service.On("ListPhotos", mock.Anything, "family-123").
		Return([]catphotos.PhotoRecord{}, nil)

	event := newEvent(http.MethodGet, "/photos")
	event.Cookies = []string{"family_id=family-123"}

	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	service.AssertExpectations(t)
}
