package numeric

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thulrus/ParallaxIndex/internal/httpfetch"
)

func serveBody(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCollect_JSONValueField(t *testing.T) {
	server := serveBody(t, "application/json", `{"value": 42.5}`)
	p := New(httpfetch.NewClient(), 0)
	source := sourceWithConfig(map[string]any{"url": server.URL})
	source.ID = uuid.New()

	raw, err := p.Collect(context.Background(), source)
	require.NoError(t, err)

	payload := raw.Payload.(map[string]any)
	assert.Equal(t, 42.5, payload["value"])
	assert.Equal(t, source.ID, raw.SourceID)
	assert.Equal(t, http.StatusOK, raw.Diagnostics.StatusCode)
	assert.Equal(t, "application/json", raw.Diagnostics.ContentType)
}

func TestCollect_JSONPath(t *testing.T) {
	server := serveBody(t, "application/json", `{"data": {"series": [{"close": 187.3}]}}`)
	p := New(httpfetch.NewClient(), 0)
	source := sourceWithConfig(map[string]any{
		"url":       server.URL,
		"json_path": "data.series[0].close",
	})

	raw, err := p.Collect(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 187.3, raw.Payload.(map[string]any)["value"])
}

func TestCollect_Plaintext(t *testing.T) {
	server := serveBody(t, "text/plain", "  3.14\n")
	p := New(httpfetch.NewClient(), 0)
	source := sourceWithConfig(map[string]any{"url": server.URL})

	raw, err := p.Collect(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 3.14, raw.Payload.(map[string]any)["value"])
}

func TestCollect_UnparseableBody(t *testing.T) {
	server := serveBody(t, "text/html", "<html>not a number</html>")
	p := New(httpfetch.NewClient(), 0)
	source := sourceWithConfig(map[string]any{"url": server.URL})

	_, err := p.Collect(context.Background(), source)
	assert.ErrorContains(t, err, "cannot parse response as number")
}

func TestCollect_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	p := New(httpfetch.NewClient(), 0)
	source := sourceWithConfig(map[string]any{"url": server.URL})

	_, err := p.Collect(context.Background(), source)
	assert.ErrorContains(t, err, "status 500")
}

func TestCollect_MissingURL(t *testing.T) {
	p := New(httpfetch.NewClient(), 0)
	source := sourceWithConfig(map[string]any{})

	_, err := p.Collect(context.Background(), source)
	assert.ErrorContains(t, err, "no url configured")
}
