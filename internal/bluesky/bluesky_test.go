package bluesky

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/aqibot/internal/article"
	"github.com/deusflow/aqibot/internal/post"
	"github.com/deusflow/aqibot/internal/retry"
)

const (
	testHandle   = "aqi.example.social"
	testPassword = "app-password"
	testJWT      = "jwt-token"
	testDID      = "did:plc:abc123"

	sessionPath      = "/xrpc/com.atproto.server.createSession"
	createRecordPath = "/xrpc/com.atproto.repo.createRecord"
)

// wireRecord is the createRecord body as it appears on the wire.
type wireRecord struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     struct {
		Type      string `json:"$type"`
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
		Facets    []struct {
			Index struct {
				ByteStart int `json:"byteStart"`
				ByteEnd   int `json:"byteEnd"`
			} `json:"index"`
			Features []struct {
				Type string `json:"$type"`
				URI  string `json:"uri"`
			} `json:"features"`
		} `json:"facets"`
	} `json:"record"`
}

func testClient(host string, clock clockwork.Clock) *Client {
	return NewClient(host, testHandle, testPassword, 5*time.Second, clock,
		retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sessionHandler(t *testing.T, w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	if body["password"] != testPassword {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"AuthenticationRequired","message":"Invalid identifier or password"}`)
		return
	}
	assert.Equal(t, testHandle, body["identifier"])
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(atproto.ServerCreateSession_Output{
		AccessJwt:  testJWT,
		RefreshJwt: "refresh-token",
		Did:        testDID,
		Handle:     testHandle,
	}))
}

func writeRecordResponse(t *testing.T, w http.ResponseWriter, uri string) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"uri": uri, "cid": "bafyreib2rxk3rybk3aobmv5cjuql3bm2twh4jo5uxgf5jc6trh4qwyqg3e"}))
}

func TestClient_Publish(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC))
	records := make(chan wireRecord, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case sessionPath:
			sessionHandler(t, w, r)
		case createRecordPath:
			assert.Equal(t, "Bearer "+testJWT, r.Header.Get("Authorization"))
			var req wireRecord
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			records <- req
			writeRecordResponse(t, w, "at://did:plc:abc123/app.bsky.feed.post/1")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := post.Assemble("Cache🟢 5-12 🟢 24hr➡️", article.Candidate{Title: "Clean air week", URL: "https://news.example.com/clean"})
	uri, err := testClient(srv.URL, clock).Publish(context.Background(), p)
	require.NoError(t, err)
	got := <-records

	assert.Equal(t, "at://did:plc:abc123/app.bsky.feed.post/1", uri)
	assert.Equal(t, testDID, got.Repo)
	assert.Equal(t, postCollection, got.Collection)
	assert.Equal(t, postCollection, got.Record.Type)
	assert.Equal(t, p.Text, got.Record.Text)
	assert.Equal(t, "2024-01-15T14:00:00Z", got.Record.CreatedAt)
	require.Len(t, got.Record.Facets, 1)
	assert.Equal(t, p.Facet.ByteStart, got.Record.Facets[0].Index.ByteStart)
	assert.Equal(t, p.Facet.ByteEnd, got.Record.Facets[0].Index.ByteEnd)
	require.Len(t, got.Record.Facets[0].Features, 1)
	assert.Equal(t, linkFeature, got.Record.Facets[0].Features[0].Type)
	assert.Equal(t, "https://news.example.com/clean", got.Record.Facets[0].Features[0].URI)
}

func TestClient_Publish_BadPasswordIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, clockwork.NewRealClock()).Publish(context.Background(), post.Post{Text: "hi"})
	require.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Publish_RejectedRecordIsNotRetried(t *testing.T) {
	var records atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case sessionPath:
			sessionHandler(t, w, r)
		case createRecordPath:
			records.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"InvalidRequest","message":"Record/text must not be longer than 300 graphemes"}`)
		}
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, clockwork.NewRealClock()).Publish(context.Background(), post.Post{Text: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), records.Load())
}

func TestClient_Publish_RetriesServerErrors(t *testing.T) {
	var records atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case sessionPath:
			sessionHandler(t, w, r)
		case createRecordPath:
			if records.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			writeRecordResponse(t, w, "at://ok")
		}
	}))
	defer srv.Close()

	uri, err := testClient(srv.URL, clockwork.NewRealClock()).Publish(context.Background(), post.Post{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "at://ok", uri)
	assert.Equal(t, int32(3), records.Load())
}

func TestClient_RecordWithoutLink(t *testing.T) {
	c := testClient("http://unused", clockwork.NewFakeClock())
	rec := c.record(post.Post{Text: "report only"})
	assert.Empty(t, rec.Facets)
	assert.Equal(t, postCollection, rec.LexiconTypeID)
}
