package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"catphotos"
)

// Service is what the request router needs from the photo service.
type Service interface {
	ListPhotos(ctx context.Context, familyID string) ([]catphotos.PhotoRecord, error)
	CreateUploadTarget(ctx context.Context, familyID, contentType, title string) (catphotos.UploadTarget, error)
	PersistMetadata(ctx context.Context, familyID, photoID, objectKey string, details catphotos.PhotoDetails) (catphotos.PhotoRecord, error)
	FetchDownloadTarget(ctx context.Context, familyID, photoID string) (string, error)
	StoreBinary(ctx context.Context, objectKey string, data []byte, contentType string) error
}

// HandlerConfig configures the request handler. Pages is optional: without a
// renderer the handler serves the JSON API only and the HTML routes 404.
type HandlerConfig struct {
	Auth  *catphotos.Authenticator
	Pages PageRenderer
}

// Handler dispatches gateway events to route handlers. One Handler instance
// serves every invocation; it holds only process-lifetime dependencies.
type Handler struct {
	service Service
	auth    *catphotos.Authenticator
	pages   PageRenderer
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	auth := config.Auth
	if auth == nil {
		auth = catphotos.NewAuthenticator(nil)
	}
	return &Handler{
		service: service,
		auth:    auth,
		pages:   config.Pages,
	}
}

// Handle routes a single gateway event. Dispatch is exact on method and
// case-sensitive on path; only the photo content route prefix-matches. The
// error return exists to satisfy the Lambda handler signature and is always
// nil: every failure maps to a response.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (Response, error) {
	req := NormalizeRequest(event)

	switch {
	case req.Method == http.MethodGet && req.Path == "/":
		return h.handleHome(ctx, &req), nil
	case req.Method == http.MethodPost && req.Path == "/session":
		return h.handleLogin(&req), nil
	case req.Method == http.MethodPost && req.Path == "/session/logout":
		return h.handleLogout(&req), nil
	case req.Method == http.MethodPost && req.Path == "/photos/form-upload":
		return h.handleFormUpload(ctx, &req), nil
	case req.Method == http.MethodGet && strings.HasPrefix(req.Path, "/photos/") && strings.HasSuffix(req.Path, "/content"):
		return h.handlePhotoContent(ctx, &req), nil
	case req.Method == http.MethodGet && req.Path == "/health":
		return JSON(http.StatusOK, map[string]string{"status": "ok"}), nil
	}

	switch {
	case req.Method == http.MethodGet && req.Path == "/photos":
		return h.withFamily(&req, func(familyID string) Response {
			return h.handleListPhotos(ctx, familyID)
		}), nil
	case req.Method == http.MethodPost && req.Path == "/photos/upload-url":
		return h.withFamily(&req, func(familyID string) Response {
			return h.handleCreateUploadURL(ctx, familyID, &req)
		}), nil
	case req.Method == http.MethodPost && req.Path == "/photos":
		return h.withFamily(&req, func(familyID string) Response {
			return h.handleRecordMetadata(ctx, familyID, &req)
		}), nil
	}

	return JSONMessage(http.StatusNotFound, "Not Found"), nil
}

// withFamily enforces hard authentication before running an API route.
func (h *Handler) withFamily(req *Request, next func(familyID string) Response) Response {
	familyID, err := h.auth.Authorize(req.FamilyID(nil))
	if err != nil {
		return HandleError(err)
	}
	return next(familyID)
}

func (h *Handler) handleListPhotos(ctx context.Context, familyID string) Response {
	items, err := h.service.ListPhotos(ctx, familyID)
	if err != nil {
		slog.Error("failed to list photos", "family_id", familyID, "error", err)
		return JSONMessage(http.StatusInternalServerError, "Unable to list photos")
	}
	if items == nil {
		items = []catphotos.PhotoRecord{}
	}
	return JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) handleCreateUploadURL(ctx context.Context, familyID string, req *Request) Response {
	payload, err := req.JSONBody()
	if err != nil {
		return JSONMessage(http.StatusBadRequest, "Invalid JSON body")
	}

	contentType := stringField(payload, "contentType")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	target, err := h.service.CreateUploadTarget(ctx, familyID, contentType, stringField(payload, "title"))
	if err != nil {
		slog.Error("failed to create upload target", "family_id", familyID, "error", err)
		return JSONMessage(http.StatusInternalServerError, "Unable to create upload URL")
	}
	return JSON(http.StatusCreated, target)
}

func (h *Handler) handleRecordMetadata(ctx context.Context, familyID string, req *Request) Response {
	payload, err := req.JSONBody()
	if err != nil {
		return JSONMessage(http.StatusBadRequest, "Invalid JSON body")
	}

	photoID := stringField(payload, "photoId")
	objectKey := stringField(payload, "objectKey")
	if photoID == "" || objectKey == "" {
		return JSON(http.StatusBadRequest, map[string]any{
			"message":  "Missing required fields",
			"required": []string{"objectKey", "photoId"},
		})
	}

	details := catphotos.PhotoDetails{
		Title:       stringField(payload, "title"),
		Description: stringField(payload, "description"),
		ContentType: stringField(payload, "contentType"),
		TakenAt:     stringField(payload, "takenAt"),
	}

	rec, err := h.service.PersistMetadata(ctx, familyID, photoID, objectKey, details)
	if err != nil {
		if errors.Is(err, catphotos.ErrConflict) {
			return JSONMessage(http.StatusConflict, "Photo already recorded")
		}
		slog.Error("failed to persist metadata", "family_id", familyID, "photo_id", photoID, "error", err)
		return JSONMessage(http.StatusInternalServerError, "Unable to save metadata")
	}

	return JSON(http.StatusCreated, map[string]string{
		"photoId":   rec.PhotoID,
		"objectKey": rec.ObjectKey,
	})
}

func stringField(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}
