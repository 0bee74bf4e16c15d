package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"catphotos"
)

// FormFile is one uploaded file part of a multipart request.
type FormFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Request is the normalized view of a gateway event: method, stage-stripped
// path, case-insensitive headers, first-value query parameters, and merged
// cookies. The body stays raw until JSONBody or FormData decodes it.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	Cookies map[string]string

	rawBody  string
	isBase64 bool
}

// NormalizeRequest extracts a Request from an API Gateway V2 event.
func NormalizeRequest(event events.APIGatewayV2HTTPRequest) Request {
	headers := make(map[string]string, len(event.Headers))
	for name, value := range event.Headers {
		headers[strings.ToLower(name)] = value
	}

	req := Request{
		Method:   event.RequestContext.HTTP.Method,
		Path:     normalizePath(event.RawPath, event.RequestContext.Stage),
		Headers:  headers,
		Query:    parseQuery(event),
		rawBody:  event.Body,
		isBase64: event.IsBase64Encoded,
	}
	req.Cookies = parseCookies(event.Cookies, req.Header("cookie"))
	return req
}

// normalizePath strips a non-default deployment-stage prefix and any trailing
// slashes. "/{stage}" maps to "/" exactly; an empty result collapses to "/".
func normalizePath(rawPath, stage string) string {
	path := rawPath
	if path == "" {
		path = "/"
	}

	if stage != "" && stage != "$default" {
		prefix := "/" + stage
		switch {
		case path == prefix:
			path = "/"
		case strings.HasPrefix(path, prefix+"/"):
			path = path[len(prefix):]
		}
	}

	path = strings.TrimRight(path, "/")
	if path == "" {
		path = "/"
	}
	return path
}

// parseQuery prefers the structured parameters and falls back to the raw
// query string, taking the first value per key.
func parseQuery(event events.APIGatewayV2HTTPRequest) map[string]string {
	if len(event.QueryStringParameters) > 0 {
		query := make(map[string]string, len(event.QueryStringParameters))
		for key, value := range event.QueryStringParameters {
			query[key] = value
		}
		return query
	}

	query := map[string]string{}
	if event.RawQueryString == "" {
		return query
	}
	// ParseQuery returns what it could parse even on error; malformed pairs
	// are dropped, not fatal.
	values, _ := url.ParseQuery(event.RawQueryString)
	for key, vals := range values {
		if len(vals) > 0 {
			query[key] = vals[0]
		}
	}
	return query
}

// parseCookies merges the structured cookie list with the Cookie header.
// Each entry is a semicolon-delimited name=value sequence; malformed pairs
// are skipped individually rather than failing the request.
func parseCookies(cookieList []string, cookieHeader string) map[string]string {
	jar := map[string]string{}

	raws := cookieList
	if cookieHeader != "" {
		raws = append(append([]string{}, cookieList...), cookieHeader)
	}

	for _, raw := range raws {
		for pair := range strings.SplitSeq(raw, ";") {
			name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
			if !found || name == "" {
				continue
			}
			if unquoted, err := url.QueryUnescape(value); err == nil {
				value = unquoted
			}
			jar[name] = value
		}
	}
	return jar
}

// Header returns a header value by case-insensitive name.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// FamilyID resolves the caller's family identifier with the precedence
// header > cookie > query > form field. Pass nil form when the route has no
// form body.
func (r *Request) FamilyID(form map[string]string) string {
	return catphotos.FirstNonEmpty(
		func() string { return r.Header("x-family-id") },
		func() string { return r.Cookies["family_id"] },
		func() string { return r.Query["family_id"] },
		func() string { return form["family_id"] },
	)
}

// IsHTTPS reports whether the original request arrived over HTTPS, going by
// the forwarded protocol header.
func (r *Request) IsHTTPS() bool {
	return strings.EqualFold(r.Header("x-forwarded-proto"), "https")
}

func (r *Request) body() ([]byte, error) {
	if r.rawBody == "" {
		return nil, nil
	}
	if r.isBase64 {
		data, err := base64.StdEncoding.DecodeString(r.rawBody)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", catphotos.ErrInvalidInput)
		}
		return data, nil
	}
	return []byte(r.rawBody), nil
}

// JSONBody decodes the body as a JSON object. An absent body yields an empty
// map; malformed JSON or invalid UTF-8 yields ErrInvalidInput.
func (r *Request) JSONBody() (map[string]any, error) {
	data, err := r.body()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("invalid JSON body: %w", catphotos.ErrInvalidInput)
	}

	payload := map[string]any{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", catphotos.ErrInvalidInput)
	}
	return payload, nil
}

// FormData decodes the body as either url-encoded fields or multipart
// form-data, returning plain fields and file parts separately. Parts without
// a name are skipped; parts with a filename are files, the rest are fields.
// Other content types yield empty maps.
func (r *Request) FormData() (map[string]string, map[string]FormFile, error) {
	fields := map[string]string{}
	files := map[string]FormFile{}

	data, err := r.body()
	if err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return fields, files, nil
	}

	mediaType, params, _ := mime.ParseMediaType(r.Header("content-type"))

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		values, _ := url.ParseQuery(string(data))
		for key, vals := range values {
			if len(vals) > 0 {
				fields[key] = vals[0]
			}
		}
		return fields, files, nil

	case mediaType == "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return nil, nil, fmt.Errorf("multipart body without boundary: %w", catphotos.ErrInvalidInput)
		}
		mr := multipart.NewReader(strings.NewReader(string(data)), boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, nil, fmt.Errorf("parse multipart body: %w", catphotos.ErrInvalidInput)
			}

			name := part.FormName()
			if name == "" {
				continue
			}
			content, readErr := io.ReadAll(part)
			if readErr != nil {
				return nil, nil, fmt.Errorf("read multipart part %q: %w", name, catphotos.ErrInvalidInput)
			}

			if filename := part.FileName(); filename != "" {
				files[name] = FormFile{
					Filename:    filename,
					ContentType: part.Header.Get("Content-Type"),
					Data:        content,
				}
			} else {
				fields[name] = string(content)
			}
		}
		return fields, files, nil
	}

	return fields, files, nil
}
