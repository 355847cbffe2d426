package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-tracker/internal/api"
	"inventory-tracker/internal/db"
	"inventory-tracker/internal/parse"
	"inventory-tracker/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	gormDB, err := db.OpenInMemory(t.Name())
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	router := api.NewRouter(store.NewGormStore(gormDB), api.Options{
		RateLimit:     1000,
		RateBurst:     1000,
		CacheTTL:      time.Minute,
		AllowedOrigin: "*",
		Logger:        zerolog.Nop(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_AgainstServer(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL + "/")
	ctx := context.Background()

	tree, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tree)

	rootID, err := c.AddMachine(ctx, "Press", nil)
	require.NoError(t, err)
	childID, err := c.AddMachine(ctx, "Die", &rootID)
	require.NoError(t, err)
	partID, err := c.AddPart(ctx, childID, parse.PartInput{PartNumber: "PN-1", Quantity: 2, Location: "A"})
	require.NoError(t, err)

	require.NoError(t, c.EditMachine(ctx, childID, "Die 2"))
	require.NoError(t, c.EditPart(ctx, partID, parse.PartInput{PartNumber: "PN-1b", Quantity: 5, Location: "B"}))

	tree, err = c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Die 2", tree[0].Children[0].Name)
	assert.Equal(t, 5, tree[0].Children[0].Parts[0].Quantity)

	otherID, err := c.AddMachine(ctx, "Other", nil)
	require.NoError(t, err)
	require.NoError(t, c.MoveMachine(ctx, otherID, 0))
	_, err = c.AddPart(ctx, childID, parse.PartInput{PartNumber: "PN-2", Quantity: 1, Location: "C"})
	require.NoError(t, err)
	require.NoError(t, c.MovePart(ctx, partID, 1))

	tree, err = c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Other", tree[0].Name)
	assert.Equal(t, "PN-2", tree[1].Children[0].Parts[0].PartNumber)

	require.NoError(t, c.DeletePart(ctx, partID))
	require.NoError(t, c.DeleteMachine(ctx, rootID))

	tree, err = c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	_, err := c.AddMachine(context.Background(), " ", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Name is required", apiErr.Message)

	err = c.DeleteMachine(context.Background(), 404)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Machine not found", apiErr.Message)
}

func TestClient_Payloads(t *testing.T) {
	var got map[string]any
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/actions", r.URL.Path)
		gotHeader = r.Header.Get("X-Request-ID")
		body, _ := io.ReadAll(r.Body)
		got = nil
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"id":9}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	id, err := c.AddPart(context.Background(), 3, parse.PartInput{PartNumber: "X", Quantity: 0, Location: "Y"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.Equal(t, map[string]any{
		"action": "add_part", "machine_id": float64(3), "partNumber": "X", "quantity": float64(0), "location": "Y",
	}, got)
	assert.Len(t, gotHeader, 36)

	_, err = c.AddMachine(context.Background(), "Top", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"action": "add_machine", "name": "Top"}, got)
}

func TestClient_BadResponses(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		wantAPI bool
	}{
		{name: "plain error page", status: http.StatusBadGateway, body: "<html>bad gateway</html>", wantAPI: true},
		{name: "garbage json", status: http.StatusOK, body: "{not json"},
		{name: "not acknowledged", status: http.StatusOK, body: `{"success":false}`, wantAPI: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := New(srv.URL).DeletePart(context.Background(), 1)
			require.Error(t, err)
			var apiErr *APIError
			assert.Equal(t, tc.wantAPI, errors.As(err, &apiErr))
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Load(context.Background())
	assert.ErrorContains(t, err, "http request failed")
}
