package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"catphotos"
)

// The HTML routes: home page, session login/logout, multipart upload, and
// the content redirect. All but the redirect require a configured
// PageRenderer and fall back to 404 without one.

const expiredCookieDate = "Thu, 01 Jan 1970 00:00:00 GMT"

// cookieAttributes builds the attribute tail for the family_id cookie,
// adding Secure when the original request came in over HTTPS.
func cookieAttributes(req *Request) string {
	attributes := "Path=/; HttpOnly; SameSite=Lax"
	if req.IsHTTPS() {
		attributes += "; Secure"
	}
	return attributes
}

func (h *Handler) renderPage(status int, state PageState) Response {
	return HTML(status, h.pages.RenderHome(state))
}

func (h *Handler) handleHome(ctx context.Context, req *Request) Response {
	if h.pages == nil {
		return JSONMessage(http.StatusNotFound, "Not Found")
	}

	var message string
	switch status := req.Query["status"]; status {
	case "":
	case "welcome":
		if id := req.FamilyID(nil); id != "" {
			message = "Signed in as " + id
		}
	case "uploaded":
		message = "Photo uploaded successfully"
	case "goodbye":
		message = "Signed out"
	default:
		message = status
	}

	errMsg := req.Query["error"]

	// Soft auth: an unresolved identifier renders the login form rather
	// than failing, and the allow-list is not consulted for display.
	familyID := req.FamilyID(nil)
	var photos []catphotos.PhotoRecord
	if familyID != "" {
		var err error
		photos, err = h.service.ListPhotos(ctx, familyID)
		if err != nil {
			slog.Error("failed to load photos for home page", "family_id", familyID, "error", err)
			if errMsg == "" {
				errMsg = "Unable to load photos right now."
			}
		}
	}

	return h.renderPage(http.StatusOK, PageState{
		FamilyID: familyID,
		Message:  message,
		Error:    errMsg,
		Photos:   photos,
	})
}

func (h *Handler) handleLogin(req *Request) Response {
	if h.pages == nil {
		return JSONMessage(http.StatusNotFound, "Not Found")
	}

	fields, _, err := req.FormData()
	if err != nil {
		return h.renderPage(http.StatusBadRequest, PageState{Error: "Could not read the sign-in form."})
	}

	familyID, err := h.auth.Authorize(strings.TrimSpace(fields["family_id"]))
	if err != nil {
		return h.renderPage(http.StatusForbidden, PageState{Error: authFailureMessage(err)})
	}

	cookie := "family_id=" + url.QueryEscape(familyID) + "; " + cookieAttributes(req)
	return Redirect(http.StatusSeeOther, "/?status=welcome", cookie)
}

func (h *Handler) handleLogout(req *Request) Response {
	if h.pages == nil {
		return JSONMessage(http.StatusNotFound, "Not Found")
	}

	cookie := "family_id=deleted; " + cookieAttributes(req) +
		"; Expires=" + expiredCookieDate + "; Max-Age=0"
	return Redirect(http.StatusSeeOther, "/?status=goodbye", cookie)
}

func (h *Handler) handleFormUpload(ctx context.Context, req *Request) Response {
	if h.pages == nil {
		return JSONMessage(http.StatusNotFound, "Not Found")
	}

	fields, files, err := req.FormData()
	if err != nil {
		return h.renderPage(http.StatusBadRequest, PageState{Error: "Could not read the upload form."})
	}

	familyID, err := h.auth.Authorize(req.FamilyID(fields))
	if err != nil {
		return h.renderPage(http.StatusForbidden, PageState{Error: authFailureMessage(err)})
	}

	file, ok := files["photo"]
	if !ok || len(file.Data) == 0 {
		return h.renderPage(http.StatusBadRequest, PageState{
			FamilyID: familyID,
			Error:    "Please choose an image to upload",
		})
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	extension := catphotos.ExtensionForContentType(contentType)
	if extension == "" {
		extension = ".jpg"
	}

	photoID := uuid.NewString()
	objectKey := familyID + "/" + photoID + extension

	if err := h.service.StoreBinary(ctx, objectKey, file.Data, contentType); err != nil {
		slog.Error("failed to upload photo object", "object_key", objectKey, "error", err)
		return h.renderPage(http.StatusInternalServerError, PageState{
			FamilyID: familyID,
			Error:    "Could not store the photo. Please try again.",
		})
	}

	details := catphotos.PhotoDetails{
		Title:       strings.TrimSpace(fields["title"]),
		Description: strings.TrimSpace(fields["description"]),
		ContentType: contentType,
		TakenAt:     strings.TrimSpace(fields["taken_at"]),
	}
	if _, err := h.service.PersistMetadata(ctx, familyID, photoID, objectKey, details); err != nil {
		slog.Error("failed to record photo metadata", "object_key", objectKey, "error", err)
		return h.renderPage(http.StatusInternalServerError, PageState{
			FamilyID: familyID,
			Error:    "Unable to save photo details.",
		})
	}

	return Redirect(http.StatusSeeOther, "/?status=uploaded")
}

func (h *Handler) handlePhotoContent(ctx context.Context, req *Request) Response {
	segments := strings.FieldsFunc(req.Path, func(r rune) bool { return r == '/' })
	if len(segments) < 3 {
		return JSONMessage(http.StatusNotFound, "Not Found")
	}
	photoID := segments[1]
	if unescaped, err := url.PathUnescape(photoID); err == nil {
		photoID = unescaped
	}

	familyID, err := h.auth.Authorize(req.FamilyID(nil))
	if err != nil {
		// Browsers land here from <img> tags; bounce to the login page
		// instead of serving a JSON 403.
		return Redirect(http.StatusFound, "/")
	}

	downloadURL, err := h.service.FetchDownloadTarget(ctx, familyID, photoID)
	if err != nil {
		if errors.Is(err, catphotos.ErrNotFound) {
			return JSONMessage(http.StatusNotFound, "Photo not found")
		}
		slog.Error("failed to fetch photo", "family_id", familyID, "photo_id", photoID, "error", err)
		return JSONMessage(http.StatusInternalServerError, "Unable to fetch photo")
	}

	resp := Redirect(http.StatusFound, downloadURL)
	resp.Headers["Cache-Control"] = "private, max-age=30"
	return resp
}
