package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpdatesCarriesOffsetAndTimeout(t *testing.T) {
	var gotPath, gotOffset, gotTimeout string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotOffset = r.URL.Query().Get("offset")
		gotTimeout = r.URL.Query().Get("timeout")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": []map[string]interface{}{{"update_id": 7, "message": map[string]interface{}{"text": "/catch"}}},
		})
	}))
	defer srv.Close()

	c := NewClient("tok")
	c.APIBase = srv.URL

	ups, err := c.GetUpdates(context.Background(), 42, 25)
	require.NoError(t, err)
	assert.Equal(t, "/bottok/getUpdates", gotPath)
	assert.Equal(t, "42", gotOffset)
	assert.Equal(t, "25", gotTimeout)
	require.Len(t, ups, 1)
	assert.Equal(t, 7, ups[0].UpdateID)
	require.NotNil(t, ups[0].Message)
	assert.Equal(t, "/catch", ups[0].Message.Text)
}

func TestSendAppliesMessageFormats(t *testing.T) {
	var got Outgoing
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Outgoing{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer srv.Close()

	c := NewClient("tok")
	c.APIBase = srv.URL
	ctx := context.Background()

	require.NoError(t, c.Send(ctx, Reply(5, "Gotcha!")))
	assert.Equal(t, int64(5), got.ChatID)
	assert.Equal(t, "*Gotcha!*", got.Text)
	assert.Equal(t, "Markdown", got.ParseMode)

	require.NoError(t, c.Send(ctx, Addressed(5, "U1", "It's your move.")))
	assert.Equal(t, "@U1 It's your move.", got.Text)

	require.NoError(t, c.Send(ctx, Announcement(5, "A wild Pidgey appeared!")))
	assert.Equal(t, "A wild Pidgey appeared!", got.Text)
	assert.Empty(t, got.ParseMode, "announcements stay plain text")
}

func TestSendSurfacesAPIDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})
	}))
	defer srv.Close()

	c := NewClient("tok")
	c.APIBase = srv.URL

	err := c.Send(context.Background(), Reply(5, "hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestGetUpdatesAbortsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient("tok")
	c.APIBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetUpdates(ctx, 0, 25)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
