package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-tracker/internal/db"
	"inventory-tracker/internal/model"
	"inventory-tracker/internal/parse"
	"inventory-tracker/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testOptions() Options {
	return Options{
		RateLimit:     1000,
		RateBurst:     1000,
		CacheTTL:      time.Minute,
		AllowedOrigin: "*",
		Logger:        zerolog.Nop(),
	}
}

func setupRouter(t *testing.T) (*gin.Engine, store.Store) {
	gormDB, err := db.OpenInMemory(t.Name())
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.NewGormStore(gormDB)
	return NewRouter(s, testOptions()), s
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type createdResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

func mustCreate(t *testing.T, r http.Handler, body string) int64 {
	t.Helper()
	w := do(r, http.MethodPost, "/api/actions", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp createdResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotZero(t, resp.ID)
	return resp.ID
}

type treeResponse struct {
	Machines []model.Machine `json:"machines"`
}

func load(t *testing.T, r http.Handler, path string) treeResponse {
	t.Helper()
	w := do(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp treeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLoadEmpty(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/api/machines", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"machines":[]}`, w.Body.String())

	w = do(r, http.MethodGet, "/api.php?load", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"machines":[]}`, w.Body.String())
}

func TestActionsRoundTrip(t *testing.T) {
	r, _ := setupRouter(t)

	rootID := mustCreate(t, r, `{"action":"add_machine","name":"  Press  "}`)
	childID := mustCreate(t, r, `{"action":"add_machine","name":"Head","parent_id":"`+itoa(rootID)+`"}`)
	partID := mustCreate(t, r, `{"action":"add_part","machine_id":`+itoa(childID)+`,"partNumber":"PN-1","quantity":"4","location":"Shelf A"}`)

	w := do(r, http.MethodGet, "/api/machines", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"machines":[{"id":`+itoa(rootID)+`,"name":"Press","parent_id":null,"parts":[],"children":[
		{"id":`+itoa(childID)+`,"name":"Head","parent_id":`+itoa(rootID)+`,"children":[],"parts":[
			{"id":`+itoa(partID)+`,"machine_id":`+itoa(childID)+`,"partNumber":"PN-1","quantity":4,"location":"Shelf A"}
		]}
	]}]}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/actions", `{"action":"edit_part","id":`+itoa(partID)+`,"partNumber":"PN-2","quantity":0,"location":"Bin"}`)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/actions", `{"action":"edit_machine","id":`+itoa(childID)+`,"name":"Spindle"}`)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	tree := load(t, r, "/api/machines")
	require.Len(t, tree.Machines, 1)
	child := tree.Machines[0].Children[0]
	assert.Equal(t, "Spindle", child.Name)
	assert.Equal(t, "PN-2", child.Parts[0].PartNumber)
	assert.Equal(t, 0, child.Parts[0].Quantity)

	w = do(r, http.MethodPost, "/api/actions", `{"action":"delete_part","id":`+itoa(partID)+`}`)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/actions", `{"action":"delete_machine","id":`+itoa(rootID)+`}`)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	tree = load(t, r, "/api/machines")
	assert.Empty(t, tree.Machines)
}

func TestLegacyEndpoint(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api.php", `{"action":"add_machine","name":"Lathe","parent_id":""}`)
	require.Equal(t, http.StatusOK, w.Code)

	tree := load(t, r, "/api.php?load=1")
	require.Len(t, tree.Machines, 1)
	assert.Equal(t, "Lathe", tree.Machines[0].Name)

	w = do(r, http.MethodGet, "/api.php", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())

	w = do(r, http.MethodDelete, "/api.php", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = do(r, http.MethodOptions, "/api.php", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestActionErrors(t *testing.T) {
	r, _ := setupRouter(t)
	parentID := mustCreate(t, r, `{"action":"add_machine","name":"Parent"}`)
	mustCreate(t, r, `{"action":"add_machine","name":"Child","parent_id":`+itoa(parentID)+`}`)
	loneID := mustCreate(t, r, `{"action":"add_machine","name":"Lone"}`)

	testCases := []struct {
		name         string
		body         string
		expectedCode int
		expectedBody string
	}{
		{name: "malformed json", body: `{"action":`, expectedCode: 400, expectedBody: `{"error":"Invalid JSON"}`},
		{name: "empty object", body: `{}`, expectedCode: 400, expectedBody: `{"error":"Invalid JSON"}`},
		{name: "empty body", body: ``, expectedCode: 400, expectedBody: `{"error":"Invalid JSON"}`},
		{name: "unknown action", body: `{"action":"explode"}`, expectedCode: 400, expectedBody: `{"error":"Unknown action"}`},
		{name: "missing action", body: `{"name":"x"}`, expectedCode: 400, expectedBody: `{"error":"Unknown action"}`},
		{name: "add machine no name", body: `{"action":"add_machine","name":"  "}`, expectedCode: 400, expectedBody: `{"error":"Name is required"}`},
		{name: "add machine list name", body: `{"action":"add_machine","name":["Press"]}`, expectedCode: 400, expectedBody: `{"error":"Name is required"}`},
		{name: "object action", body: `{"action":{"x":1},"name":"x"}`, expectedCode: 400, expectedBody: `{"error":"Unknown action"}`},
		{name: "add part object number", body: `{"action":"add_part","machine_id":` + itoa(loneID) + `,"partNumber":{},"quantity":1,"location":"L"}`, expectedCode: 400, expectedBody: `{"error":"Missing or invalid part data"}`},
		{name: "edit machine no id", body: `{"action":"edit_machine","name":"x"}`, expectedCode: 400, expectedBody: `{"error":"ID and name are required"}`},
		{name: "edit machine no name", body: `{"action":"edit_machine","id":1}`, expectedCode: 400, expectedBody: `{"error":"ID and name are required"}`},
		{name: "edit machine unknown", body: `{"action":"edit_machine","id":999,"name":"x"}`, expectedCode: 404, expectedBody: `{"error":"Machine not found"}`},
		{name: "delete machine no id", body: `{"action":"delete_machine","id":"abc"}`, expectedCode: 400, expectedBody: `{"error":"ID is required"}`},
		{name: "delete machine unknown", body: `{"action":"delete_machine","id":999}`, expectedCode: 404, expectedBody: `{"error":"Machine not found"}`},
		{name: "delete part no id", body: `{"action":"delete_part","id":0}`, expectedCode: 400, expectedBody: `{"error":"ID is required"}`},
		{name: "delete part unknown", body: `{"action":"delete_part","id":999}`, expectedCode: 404, expectedBody: `{"error":"Part not found"}`},
		{name: "add part negative qty", body: `{"action":"add_part","machine_id":` + itoa(loneID) + `,"partNumber":"P","quantity":-1,"location":"L"}`, expectedCode: 400, expectedBody: `{"error":"Missing or invalid part data"}`},
		{name: "add part missing qty", body: `{"action":"add_part","machine_id":` + itoa(loneID) + `,"partNumber":"P","location":"L"}`, expectedCode: 400, expectedBody: `{"error":"Missing or invalid part data"}`},
		{name: "add part text qty", body: `{"action":"add_part","machine_id":` + itoa(loneID) + `,"partNumber":"P","quantity":"many","location":"L"}`, expectedCode: 400, expectedBody: `{"error":"Missing or invalid part data"}`},
		{name: "add part no location", body: `{"action":"add_part","machine_id":` + itoa(loneID) + `,"partNumber":"P","quantity":1,"location":" "}`, expectedCode: 400, expectedBody: `{"error":"Missing or invalid part data"}`},
		{name: "add part no machine", body: `{"action":"add_part","partNumber":"P","quantity":1,"location":"L"}`, expectedCode: 400, expectedBody: `{"error":"Missing or invalid part data"}`},
		{name: "add part unknown machine", body: `{"action":"add_part","machine_id":999,"partNumber":"P","quantity":1,"location":"L"}`, expectedCode: 404, expectedBody: `{"error":"Machine not found"}`},
		{name: "edit part unknown", body: `{"action":"edit_part","id":999,"partNumber":"P","quantity":1,"location":"L"}`, expectedCode: 404, expectedBody: `{"error":"Part not found"}`},
		{name: "move machine no position", body: `{"action":"move_machine","id":` + itoa(loneID) + `}`, expectedCode: 400, expectedBody: `{"error":"Invalid position"}`},
		{name: "move part no id", body: `{"action":"move_part","position":1}`, expectedCode: 400, expectedBody: `{"error":"ID is required"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/actions", tc.body)
			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}

	t.Run("part on machine with children", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/actions", `{"action":"add_part","machine_id":`+itoa(parentID)+`,"partNumber":"P","quantity":1,"location":"L"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	})

	t.Run("numeric text fields are kept", func(t *testing.T) {
		id := mustCreate(t, r, `{"action":"add_machine","name":42}`)
		mustCreate(t, r, `{"action":"add_part","machine_id":`+itoa(id)+`,"partNumber":1001,"quantity":1,"location":7}`)

		tree := load(t, r, "/api/machines")
		last := tree.Machines[len(tree.Machines)-1]
		assert.Equal(t, "42", last.Name)
		require.Len(t, last.Parts, 1)
		assert.Equal(t, "1001", last.Parts[0].PartNumber)
		assert.Equal(t, "7", last.Parts[0].Location)
	})

	t.Run("parent does not exist", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/actions", `{"action":"add_machine","name":"X","parent_id":999}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMoveActions(t *testing.T) {
	r, _ := setupRouter(t)
	a := mustCreate(t, r, `{"action":"add_machine","name":"A"}`)
	mustCreate(t, r, `{"action":"add_machine","name":"B"}`)
	mustCreate(t, r, `{"action":"add_machine","name":"C"}`)

	w := do(r, http.MethodPost, "/api/actions", `{"action":"move_machine","id":`+itoa(a)+`,"position":"9"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tree := load(t, r, "/api/machines")
	var got []string
	for _, m := range tree.Machines {
		got = append(got, m.Name)
	}
	assert.Equal(t, []string{"B", "C", "A"}, got)

	p1 := mustCreate(t, r, `{"action":"add_part","machine_id":`+itoa(a)+`,"partNumber":"P1","quantity":1,"location":"L"}`)
	mustCreate(t, r, `{"action":"add_part","machine_id":`+itoa(a)+`,"partNumber":"P2","quantity":1,"location":"L"}`)

	w = do(r, http.MethodPost, "/api/actions", `{"action":"move_part","id":`+itoa(p1)+`,"position":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tree = load(t, r, "/api/machines")
	parts := tree.Machines[2].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "P2", parts[0].PartNumber)
	assert.Equal(t, "P1", parts[1].PartNumber)
}

func TestLoadCacheInvalidatedByWrites(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/api/machines", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = do(r, http.MethodGet, "/api/machines", "")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	mustCreate(t, r, `{"action":"add_machine","name":"Fresh"}`)

	w = do(r, http.MethodGet, "/api/machines", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), "Fresh")
}

func TestRouterFallbacks(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(r, http.MethodPut, "/api/actions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())

	w = do(r, http.MethodOptions, "/api/actions", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = do(r, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/machines", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestView(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No machines yet.")

	id := mustCreate(t, r, `{"action":"add_machine","name":"<Mixer>"}`)
	mustCreate(t, r, `{"action":"add_part","machine_id":`+itoa(id)+`,"partNumber":"PN-77","quantity":3,"location":"Rack 2"}`)

	w = do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "&lt;Mixer&gt;")
	assert.Contains(t, body, "PN-77")
	assert.Contains(t, body, "Rack 2")
}

// failingStore returns errDown from every call.
type failingStore struct{ store.Store }

var errDown = errors.New("database is down")

func (failingStore) LoadTree(context.Context) ([]model.Machine, error) { return nil, errDown }
func (failingStore) DeletePart(context.Context, int64) error            { return errDown }
func (failingStore) UpdatePart(context.Context, int64, parse.PartInput) error {
	return errDown
}

func TestStoreFailures(t *testing.T) {
	r := NewRouter(failingStore{}, testOptions())

	w := do(r, http.MethodGet, "/api/machines", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to load machines"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/actions", `{"action":"delete_part","id":3}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Database error"}`, w.Body.String())

	w = do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
