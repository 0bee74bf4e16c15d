package gateway

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"catphotos"
)

// Response is the gateway response envelope.
type Response = events.APIGatewayV2HTTPResponse

const (
	hstsHeader = "Strict-Transport-Security"
	hstsValue  = "max-age=63072000; includeSubDomains; preload"

	htmlContentType = "text/html; charset=utf-8"
	jsonContentType = "application/json"
)

// buildResponse assembles the response envelope. The HSTS header is always
// attached; explicit headers win over defaults, including Content-Type.
func buildResponse(status int, contentType, body string, headers map[string]string, cookies []string) Response {
	responseHeaders := map[string]string{hstsHeader: hstsValue}
	if contentType != "" {
		responseHeaders["Content-Type"] = contentType
	}
	for name, value := range headers {
		responseHeaders[name] = value
	}

	return Response{
		StatusCode: status,
		Headers:    responseHeaders,
		Body:       body,
		Cookies:    cookies,
	}
}

// JSON serializes body as a JSON response; nil serializes as {}.
func JSON(status int, body any) Response {
	if body == nil {
		body = map[string]any{}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to encode response body", "error", err)
		return buildResponse(http.StatusInternalServerError, jsonContentType, `{"message":"Internal error"}`, nil, nil)
	}
	return buildResponse(status, jsonContentType, string(encoded), nil, nil)
}

// JSONMessage is the {"message": ...} error/status shape used by API routes.
func JSONMessage(status int, message string) Response {
	return JSON(status, map[string]string{"message": message})
}

// HTML wraps a complete HTML document.
func HTML(status int, doc string) Response {
	return buildResponse(status, htmlContentType, doc, nil, nil)
}

// Binary base64-encodes raw bytes and flags the body accordingly.
func Binary(status int, data []byte, contentType string) Response {
	resp := buildResponse(status, contentType, base64.StdEncoding.EncodeToString(data), nil, nil)
	resp.IsBase64Encoded = true
	return resp
}

// Redirect produces an empty text response with a Location header and
// optional Set-Cookie values.
func Redirect(status int, location string, cookies ...string) Response {
	return buildResponse(status, "text/plain", "", map[string]string{"Location": location}, cookies)
}

// HandleError maps a failure to the JSON error response for API routes:
// unauthorized 403, not found 404, bad input 400, conflict 409, and anything
// else a logged 500 with a generic message.
func HandleError(err error) Response {
	switch {
	case errors.Is(err, catphotos.ErrUnauthorized):
		return JSONMessage(http.StatusForbidden, authFailureMessage(err))
	case errors.Is(err, catphotos.ErrNotFound):
		return JSONMessage(http.StatusNotFound, "Not Found")
	case errors.Is(err, catphotos.ErrInvalidInput):
		return JSONMessage(http.StatusBadRequest, "Invalid request body")
	case errors.Is(err, catphotos.ErrConflict):
		return JSONMessage(http.StatusConflict, "Photo already recorded")
	default:
		slog.Error("request failed", "error", err)
		return JSONMessage(http.StatusInternalServerError, "Internal error")
	}
}

// authFailureMessage picks the user-facing text for an authorization error.
func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, catphotos.ErrFamilyNotAllowed):
		return "Family id not authorized"
	default:
		return "Missing family identifier"
	}
}
