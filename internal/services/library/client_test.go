package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&common.LibraryConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		UserID:  "12345",
	}, arbor.NewLogger())
	require.NoError(t, err)
	return client
}

func TestFetchAttachmentMetadataFirstStoredWins(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/12345/items/ITEM1/children", r.URL.Path)
		assert.Equal(t, "attachment", r.URL.Query().Get("itemType"))
		assert.Equal(t, "test-key", r.Header.Get("Zotero-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"key":"LINK1","data":{"itemType":"attachment","title":"Web link","linkMode":"linked_url"}},
			{"key":"ATT1","data":{"itemType":"attachment","title":"Paper","filename":"paper.pdf","contentType":"application/pdf","linkMode":"imported_file"}},
			{"key":"ATT2","data":{"itemType":"attachment","title":"Second","filename":"second.pdf","contentType":"application/pdf","linkMode":"imported_file"}}
		]`))
	})
	client := newTestClient(t, handler)

	ref, err := client.FetchAttachmentMetadata(context.Background(), "ITEM1")

	require.NoError(t, err)
	assert.Equal(t, "ATT1", ref.Key)
	assert.Equal(t, "ITEM1", ref.ItemID)
	assert.Equal(t, "application/pdf", ref.ContentType)
	assert.Equal(t, "paper.pdf", ref.Filename)
}

func TestFetchAttachmentMetadataNoStoredAttachment(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"key":"LINK1","data":{"itemType":"attachment","linkMode":"linked_url"}}]`))
	})
	client := newTestClient(t, handler)

	_, err := client.FetchAttachmentMetadata(context.Background(), "ITEM1")
	assert.ErrorIs(t, err, interfaces.ErrNoAttachment)
}

func TestFetchAttachmentMetadataMissingItem(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	client := newTestClient(t, handler)

	_, err := client.FetchAttachmentMetadata(context.Background(), "GONE")
	assert.ErrorIs(t, err, interfaces.ErrNoAttachment)
}

func TestDownloadAttachment(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/12345/items/ATT1/file", r.URL.Path)
		w.Write([]byte("document bytes"))
	})
	client := newTestClient(t, handler)

	data, err := client.DownloadAttachment(context.Background(), &interfaces.AttachmentRef{Key: "ATT1", ItemID: "ITEM1"})

	require.NoError(t, err)
	assert.Equal(t, []byte("document bytes"), data)
}

func TestPublishNote(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/12345/items", r.URL.Path)

		var payload []map[string]any
		require.NoError(t, decodeJSONBody(r, &payload))
		require.Len(t, payload, 1)
		assert.Equal(t, "note", payload[0]["itemType"])
		assert.Equal(t, "ITEM1", payload[0]["parentItem"])
		assert.Equal(t, "<p>summary</p>", payload[0]["note"])

		w.Write([]byte(`{"successful":{"0":{"key":"NOTE1"}}}`))
	})
	client := newTestClient(t, handler)

	noteID, err := client.PublishNote(context.Background(), "ITEM1", "<p>summary</p>", "precis-summary")

	require.NoError(t, err)
	assert.Equal(t, "NOTE1", noteID)
}

func TestPublishNoteNoCreatedKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"successful":{}}`))
	})
	client := newTestClient(t, handler)

	_, err := client.PublishNote(context.Background(), "ITEM1", "<p>s</p>", "")
	assert.Error(t, err)
}

func TestPublishNoteServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	})
	client := newTestClient(t, handler)

	_, err := client.PublishNote(context.Background(), "ITEM1", "<p>s</p>", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestNewClientWithoutUserID(t *testing.T) {
	client, err := NewClient(&common.LibraryConfig{BaseURL: "https://api.example.org/"}, arbor.NewLogger())

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org", client.baseURL)
}

func TestNewClientRejectsBadTimeout(t *testing.T) {
	_, err := NewClient(&common.LibraryConfig{BaseURL: "https://api.example.org", Timeout: "soon"}, arbor.NewLogger())
	assert.Error(t, err)
}

func decodeJSONBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
