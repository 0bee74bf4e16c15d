package gateway_test

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catphotos/gateway"
)

func TestEventFromHTTP(t *testing.T) {
	t.Run("textual bodies stay raw", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/photos?family_id=family-123", strings.NewReader(`{"photoId":"photo-1"}`))
		r.Header.Set("Content-Type", "application/json")
		r.AddCookie(&http.Cookie{Name: "family_id", Value: "family-123"})

		event, err := gateway.EventFromHTTP(r)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, event.RequestContext.HTTP.Method)
		assert.Equal(t, "/photos", event.RawPath)
		assert.Equal(t, `{"photoId":"photo-1"}`, event.Body)
		assert.False(t, event.IsBase64Encoded)
		assert.Equal(t, "family-123", event.QueryStringParameters["family_id"])
		assert.Contains(t, event.Cookies, "family_id=family-123")
	})

	t.Run("binary bodies are base64 flagged", func(t *testing.T) {
		data := []byte{0xff, 0xd8, 0xff}
		r := httptest.NewRequest(http.MethodPut, "/objects/key", bytes.NewReader(data))
		r.Header.Set("Content-Type", "image/jpeg")

		event, err := gateway.EventFromHTTP(r)
		require.NoError(t, err)

		assert.True(t, event.IsBase64Encoded)
		assert.Equal(t, base64.StdEncoding.EncodeToString(data), event.Body)
	})
}

func TestWriteResponse(t *testing.T) {
	t.Run("writes headers, cookies, and body", func(t *testing.T) {
		w := httptest.NewRecorder()

		gateway.WriteResponse(w, gateway.Response{
			StatusCode: http.StatusSeeOther,
			Headers:    map[string]string{"Location": "/?status=welcome"},
			Cookies:    []string{"family_id=family-123; Path=/"},
		})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/?status=welcome", w.Header().Get("Location"))
		assert.Equal(t, "family_id=family-123; Path=/", w.Header().Get("Set-Cookie"))
	})

	t.Run("decodes base64 bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := []byte{0xff, 0xd8, 0xff}

		gateway.WriteResponse(w, gateway.Response{
			StatusCode:      http.StatusOK,
			Body:            base64.StdEncoding.EncodeToString(data),
			IsBase64Encoded: true,
		})

		assert.Equal(t, data, w.Body.Bytes())
	})
}
