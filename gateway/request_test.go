package gateway_test

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catphotos"
	"catphotos/gateway"
)

func TestNormalizeRequest_Path(t *testing.T) {
	tests := []struct {
		name    string
		rawPath string
		stage   string
		want    string
	}{
		{"plain path", "/photos", "", "/photos"},
		{"stage prefix stripped", "/dev/photos", "dev", "/photos"},
		{"stage only maps to root", "/dev", "dev", "/"},
		{"default stage untouched", "/photos", "$default", "/photos"},
		{"similar prefix not stripped", "/devices", "dev", "/devices"},
		{"trailing slash trimmed", "/photos/", "", "/photos"},
		{"stage with trailing slash", "/dev/", "dev", "/"},
		{"empty path", "", "", "/"},
		{"root", "/", "", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := events.APIGatewayV2HTTPRequest{RawPath: tt.rawPath}
			event.RequestContext.Stage = tt.stage

			req := gateway.NormalizeRequest(event)
			assert.Equal(t, tt.want, req.Path)
		})
	}
}

func TestRequest_Header(t *testing.T) {
	event := events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"X-Family-Id": "family-123", "content-type": "application/json"},
	}

	req := gateway.NormalizeRequest(event)
	assert.Equal(t, "family-123", req.Header("x-family-id"))
	assert.Equal(t, "family-123", req.Header("X-FAMILY-ID"))
	assert.Equal(t, "application/json", req.Header("Content-Type"))
	assert.Equal(t, "", req.Header("missing"))
}

func TestNormalizeRequest_Cookies(t *testing.T) {
	t.Run("structured cookie list", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Cookies: []string{"family_id=family-123; theme=dark"},
		}

		req := gateway.NormalizeRequest(event)
		assert.Equal(t, "family-123", req.Cookies["family_id"])
		assert.Equal(t, "dark", req.Cookies["theme"])
	})

	t.Run("cookie header merged", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Cookies: []string{"theme=dark"},
			Headers: map[string]string{"Cookie": "family_id=family-123"},
		}

		req := gateway.NormalizeRequest(event)
		assert.Equal(t, "family-123", req.Cookies["family_id"])
		assert.Equal(t, "dark", req.Cookies["theme"])
	})

	t.Run("url-encoded values decoded", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Cookies: []string{"family_id=smith%20family"},
		}

		req := gateway.NormalizeRequest(event)
		assert.Equal(t, "smith family", req.Cookies["family_id"])
	})

	t.Run("malformed pairs skipped", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Cookies: []string{"garbage; =nameless; family_id=family-123"},
		}

		req := gateway.NormalizeRequest(event)
		assert.Equal(t, map[string]string{"family_id": "family-123"}, req.Cookies)
	})
}

func TestRequest_FamilyID(t *testing.T) {
	t.Run("header wins over everything", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Headers:               map[string]string{"x-family-id": "from-header"},
			Cookies:               []string{"family_id=from-cookie"},
			QueryStringParameters: map[string]string{"family_id": "from-query"},
		}

		req := gateway.NormalizeRequest(event)
		assert.Equal(t, "from-header", req.FamilyID(map[string]string{"family_id": "from-form"}))
	})

	t.Run("cookie beats query and form", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Cookies:               []string{"family_id=from-cookie"},
			QueryStringParameters: map[string]string{"family_id": "from-query"},
		}

		req := gateway.NormalizeRequest(event)
		assert.Equal(t, "from-cookie", req.FamilyID(map[string]string{"family_id": "from-form"}))
	})

	t.Run("form is the last resort", func(t *testing.T) {
		req := gateway.NormalizeRequest(events.APIGatewayV2HTTPRequest{})
		assert.Equal(t, "from-form", req.FamilyID(map[string]string{"family_id": "from-form"}))
	})

	t.Run("values are trimmed", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Headers: map[string]string{"x-family-id": "  family-123  "},
		}

		req := gateway.NormalizeRequest(event)
		assert.Equal(t, "family-123", req.FamilyID(nil))
	})

	t.Run("nothing resolves to empty", func(t *testing.T) {
		req := gateway.NormalizeRequest(events.APIGatewayV2HTTPRequest{})
		assert.Equal(t, "", req.FamilyID(nil))
	})
}

func TestRequest_IsHTTPS(t *testing.T) {
	req := gateway.NormalizeRequest(events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"X-Forwarded-Proto": "HTTPS"},
	})
	assert.True(t, req.IsHTTPS())

	req = gateway.NormalizeRequest(events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"x-forwarded-proto": "http"},
	})
	assert.False(t, req.IsHTTPS())

	req = gateway.NormalizeRequest(events.APIGatewayV2HTTPRequest{})
	assert.False(t, req.IsHTTPS())
}

func TestRequest_JSONBody(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{Body: `{"contentType":"image/png"}`}

		req := gateway.NormalizeRequest(event)
		payload, err := req.JSONBody()
		require.NoError(t, err)
		assert.Equal(t, "image/png", payload["contentType"])
	})

	t.Run("base64 body", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Body:            base64.StdEncoding.EncodeToString([]byte(`{"title":"Nap"}`)),
			IsBase64Encoded: true,
		}

		req := gateway.NormalizeRequest(event)
		payload, err := req.JSONBody()
		require.NoError(t, err)
		assert.Equal(t, "Nap", payload["title"])
	})

	t.Run("empty body yields empty map", func(t *testing.T) {
		req := gateway.NormalizeRequest(events.APIGatewayV2HTTPRequest{})
		payload, err := req.JSONBody()
		require.NoError(t, err)
		assert.Empty(t, payload)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{Body: "{not json"}

		req := gateway.NormalizeRequest(event)
		_, err := req.JSONBody()
		assert.ErrorIs(t, err, catphotos.ErrInvalidInput)
	})

	t.Run("invalid base64", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{Body: "!!not-base64!!", IsBase64Encoded: true}

		req := gateway.NormalizeRequest(event)
		_, err := req.JSONBody()
		assert.ErrorIs(t, err, catphotos.ErrInvalidInput)
	})
}

func TestRequest_FormData(t *testing.T) {
	t.Run("url-encoded fields", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
			Body:    "family_id=family-123&title=Nap+time",
		}

		req := gateway.NormalizeRequest(event)
		fields, files, err := req.FormData()
		require.NoError(t, err)
		assert.Equal(t, "family-123", fields["family_id"])
		assert.Equal(t, "Nap time", fields["title"])
		assert.Empty(t, files)
	})

	t.Run("multipart fields and file", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("family_id", "family-123"))
		part, err := w.CreateFormFile("photo", "cat.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg bytes"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		event := events.APIGatewayV2HTTPRequest{
			Headers:         map[string]string{"Content-Type": w.FormDataContentType()},
			Body:            base64.StdEncoding.EncodeToString(buf.Bytes()),
			IsBase64Encoded: true,
		}

		req := gateway.NormalizeRequest(event)
		fields, files, err := req.FormData()
		require.NoError(t, err)
		assert.Equal(t, "family-123", fields["family_id"])

		file, ok := files["photo"]
		require.True(t, ok)
		assert.Equal(t, "cat.jpg", file.Filename)
		assert.Equal(t, []byte("jpeg bytes"), file.Data)
	})

	t.Run("multipart without boundary", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Headers: map[string]string{"Content-Type": "multipart/form-data"},
			Body:    "irrelevant",
		}

		req := gateway.NormalizeRequest(event)
		_, _, err := req.FormData()
		assert.ErrorIs(t, err, catphotos.ErrInvalidInput)
	})

	t.Run("other content types yield empty maps", func(t *testing.T) {
		event := events.APIGatewayV2HTTPRequest{
			Headers: map[string]string{"Content-Type": "text/plain"},
			Body:    "hello",
		}

		req := gateway.NormalizeRequest(event)
		fields, files, err := req.FormData()
		require.NoError(t, err)
		assert.Empty(t, fields)
		assert.Empty(t, files)
	})
}
