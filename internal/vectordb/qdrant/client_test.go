package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a connected client at the given httptest server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	config := DefaultConfig()
	config.Host = u.Hostname()
	config.HTTPPort = port
	config.MaxRetries = 0

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	client, err := NewClient(config, logger)
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	return client
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Host = ""

	_, err := NewClient(config, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestConnectAndHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	assert.True(t, client.IsConnected())
	assert.NoError(t, client.HealthCheck(context.Background()))

	require.NoError(t, client.Close())
	assert.False(t, client.IsConnected())
}

func TestConnectFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	port, _ := strconv.Atoi(u.Port())
	config := DefaultConfig()
	config.Host = u.Hostname()
	config.HTTPPort = port
	config.MaxRetries = 0

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	client, err := NewClient(config, logger)
	require.NoError(t, err)

	err = client.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, client.IsConnected())
}

func TestSearch(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		require.Equal(t, "/collections/legal_qa/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		resp := map[string]interface{}{
			"result": []map[string]interface{}{
				{"id": "1", "score": 0.92, "payload": map[string]interface{}{"record_id": "QA_750F0D91", "content": "noi dung"}},
				{"id": "2", "score": 0.81, "payload": map[string]interface{}{"record_id": "QA_AB12CD34", "content": "khac"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server)

	opts := DefaultSearchOptions()
	opts.Limit = 3
	opts.Filter = map[string]interface{}{
		"should": []map[string]interface{}{
			{"key": "content", "match": map[string]interface{}{"text": "doanh nghiệp"}},
		},
	}

	hits, err := client.Search(context.Background(), "legal_qa", []float32{0.1, 0.2}, opts)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, float32(0.92), hits[0].Score)
	assert.Equal(t, "QA_750F0D91", hits[0].Payload["record_id"])

	assert.EqualValues(t, 3, gotBody["limit"])
	assert.NotNil(t, gotBody["filter"])
}

func TestSearchAppliesConfiguredScoreThreshold(t *testing.T) {
	var bodies []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"result": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	client.config.ScoreThreshold = 0.35

	// Nil options pick up the client-wide threshold.
	_, err := client.Search(context.Background(), "legal_qa", []float32{0.1}, nil)
	require.NoError(t, err)

	// A per-call threshold overrides it.
	opts := DefaultSearchOptions()
	opts.ScoreThreshold = 0.7
	_, err = client.Search(context.Background(), "legal_qa", []float32{0.1}, opts)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.InDelta(t, 0.35, bodies[0]["score_threshold"], 1e-6)
	assert.InDelta(t, 0.7, bodies[1]["score_threshold"], 1e-6)
}

func TestSearchNotConnected(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	client, err := NewClient(DefaultConfig(), logger)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "legal_qa", []float32{0.1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestEnsureCollection(t *testing.T) {
	created := 0
	exists := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/collections/legal_doc":
			if exists {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut && r.URL.Path == "/collections/legal_doc":
			created++
			exists = true
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"result": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	ctx := context.Background()

	require.NoError(t, client.EnsureCollection(ctx, "legal_doc", 384, DistanceCosine))
	require.NoError(t, client.EnsureCollection(ctx, "legal_doc", 384, DistanceCosine))
	assert.Equal(t, 1, created, "second ensure must be a no-op")
}

func TestUpsertPointsAssignsIDs(t *testing.T) {
	var gotPoints []Point
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		var body struct {
			Points []Point `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotPoints = body.Points
		_, _ = w.Write([]byte(`{"result": true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	points := []Point{
		{Vector: []float32{0.1}, Payload: map[string]interface{}{"record_id": "QA_1"}},
		{ID: "fixed", Vector: []float32{0.2}},
	}
	require.NoError(t, client.UpsertPoints(context.Background(), "legal_qa", points))

	require.Len(t, gotPoints, 2)
	assert.NotEmpty(t, gotPoints[0].ID)
	assert.Equal(t, "fixed", gotPoints[1].ID)
}

func TestCountPoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		require.Equal(t, "/collections/legal_qa/points/count", r.URL.Path)
		_, _ = w.Write([]byte(`{"result": {"count": 42}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	count, err := client.CountPoints(context.Background(), "legal_qa")
	require.NoError(t, err)
	assert.EqualValues(t, 42, count)
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": {"error": "boom"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)

	_, err := client.Search(context.Background(), "legal_qa", []float32{0.1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
