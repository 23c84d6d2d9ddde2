package roster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:      baseURL,
		RateInterval: time.Millisecond,
		MaxRetries:   3,
		RetryDelay:   time.Millisecond,
		Timeout:      time.Second,
	}, zerolog.Nop())
}

func TestGetRosters_RetriesOnRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{"rosters":[{"slug":"FA24","descr":"Fall 2024"}]}}`))
	}))
	defer server.Close()

	rosters, err := testClient(server.URL).GetRosters(context.Background())
	require.NoError(t, err)
	require.Len(t, rosters, 1)
	assert.Equal(t, "FA24", rosters[0].Slug)
	assert.Equal(t, 3, calls)
}

func TestGetRosters_GivesUpAfterBoundedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetRosters(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGetSubjects_PassesRosterParam(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FA24", r.URL.Query().Get("roster"))
		w.Write([]byte(`{"data":{"subjects":[{"value":"CS","descr":"Computer Science"}]}}`))
	}))
	defer server.Close()

	subjects, err := testClient(server.URL).GetSubjects(context.Background(), "FA24")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "CS", subjects[0].Value)
}

func TestGetClasses_DropsMalformedRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"classes":[
			{"subject":"CS","catalogNbr":"4780","titleLong":"Machine Learning"},
			{"subject":"CS","catalogNbr":"9999"},
			{"subject":141}
		]}}`))
	}))
	defer server.Close()

	classes, err := testClient(server.URL).GetClasses(context.Background(), "FA24", "CS")
	require.NoError(t, err)

	// The record missing its title and the one with a non-string subject are
	// both dropped; the valid record survives.
	require.Len(t, classes, 1)
	assert.Equal(t, "4780", classes[0].CatalogNbr)
}

func TestGetClasses_NonRetryableStatusFailsFast(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetClasses(context.Background(), "FA24", "CS")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
