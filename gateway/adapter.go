package gateway

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// AdaptHTTP wraps the handler as a plain http.Handler so the same routing
// code can run behind a local HTTP server instead of the gateway.
func AdaptHTTP(h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event, err := EventFromHTTP(r)
		if err != nil {
			slog.Error("failed to adapt request", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		resp, err := h.Handle(r.Context(), event)
		if err != nil {
			slog.Error("handler failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		WriteResponse(w, resp)
	})
}

// EventFromHTTP converts an incoming request into the gateway event shape.
// Bodies with non-textual content types are base64-encoded and flagged, the
// way the gateway delivers them.
func EventFromHTTP(r *http.Request) (events.APIGatewayV2HTTPRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayV2HTTPRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}
	headers["Host"] = r.Host

	query := map[string]string{}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			query[key] = vals[0]
		}
	}

	var cookies []string
	for _, c := range r.Cookies() {
		cookies = append(cookies, c.Name+"="+c.Value)
	}

	event := events.APIGatewayV2HTTPRequest{
		RawPath:               r.URL.Path,
		RawQueryString:        r.URL.RawQuery,
		Headers:               headers,
		QueryStringParameters: query,
		Cookies:               cookies,
	}
	event.RequestContext.HTTP.Method = r.Method

	if len(body) > 0 {
		if isTextualContent(r.Header.Get("Content-Type")) {
			event.Body = string(body)
		} else {
			event.Body = base64.StdEncoding.EncodeToString(body)
			event.IsBase64Encoded = true
		}
	}

	return event, nil
}

// WriteResponse writes a gateway response back onto a ResponseWriter.
func WriteResponse(w http.ResponseWriter, resp Response) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	for _, cookie := range resp.Cookies {
		w.Header().Add("Set-Cookie", cookie)
	}
	w.WriteHeader(resp.StatusCode)

	if resp.IsBase64Encoded {
		data, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			slog.Error("failed to decode response body", "error", err)
			return
		}
		_, _ = w.Write(data)
		return
	}
	_, _ = io.WriteString(w, resp.Body)
}

func isTextualContent(contentType string) bool {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/json", mediaType == "application/x-www-form-urlencoded":
		return true
	default:
		return false
	}
}
