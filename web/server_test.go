// ABOUTME: Tests for the HTTP server
// ABOUTME: Exercises routes with httptest against an in-memory graph
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/metrics"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/strength"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "kinship")
	agg := strength.New(database.Store, logging.Discard(), m)
	engine := cascade.New(database, time.Minute, logging.Discard(), m)

	rel, err := database.CreateRelationship(ctx, models.UserRef("alice"), models.UserRef("bob"), nil)
	require.NoError(t, err)
	_, err = agg.Strengthen(ctx, models.UserRef("alice"), models.RelationshipRef(rel.ID))
	require.NoError(t, err)
	_, err = database.Bookmark(ctx, models.UserRef("carol"), models.RelationshipRef(rel.ID))
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(database, agg, engine, reg, logging.Discard()).Handler())
	t.Cleanup(srv.Close)
	return srv, rel.ID
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestRelationshipEndpoint(t *testing.T) {
	srv, relID := setupServer(t)

	var body struct {
		Strength int64 `json:"strength"`
		Changes  []any `json:"changes"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/relationships/"+relID, &body))
	assert.Equal(t, int64(1), body.Strength)
	assert.Len(t, body.Changes, 1)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/relationships/missing", nil))
}

func TestBookmarksAndDependents(t *testing.T) {
	srv, relID := setupServer(t)

	var bookmarks []models.Bookmark
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/users/carol/bookmarks", &bookmarks))
	require.Len(t, bookmarks, 1)
	assert.Equal(t, relID, bookmarks[0].Bookmarked.ID)

	var stats struct {
		Dependents map[string]int
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/relationships/"+relID+"/dependents", &stats))
	assert.Equal(t, 1, stats.Dependents["bookmarks"])
	assert.Equal(t, 1, stats.Dependents["adjustments"])

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/situations/x/dependents", nil))
}

func TestGraphAndMetrics(t *testing.T) {
	srv, relID := setupServer(t)

	resp, err := http.Get(srv.URL + "/relationships/" + relID + "/graph")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
