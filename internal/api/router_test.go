// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/models"

	_ "github.com/tomtom215/geoimport/docs"
)

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("live status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing on health endpoint")
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}

	env.ready = errors.New("badger closed")
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil), "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "badger closed") {
		t.Errorf("readiness body %s does not name the failing check", body)
	}
}

func TestSwaggerDocument(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("doc.json status = %d, want 200", rec.Code)
	}
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	if doc.Info.Title != "Geoimport API" {
		t.Errorf("title = %q, want %q", doc.Info.Title, "Geoimport API")
	}
	for _, p := range []string{"/uploads", "/executions", "/executions/{id}", "/handlers", "/resources/{id}"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("doc.json has no path %s", p)
		}
	}
}

func TestAuthenticationRequired(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	paths := []string{"/api/v1/executions", "/api/v1/handlers", "/api/v1/resources/res-1"}
	for _, p := range paths {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, p, nil), "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", p, rec.Code)
		}
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/handlers", nil), "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET with malformed token = %d, want 401", rec.Code)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/executions", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := env.do(t, req, "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec = env.do(t, req, "")
	if got := rec.Header().Get("X-Request-ID"); got != "trace-42" {
		t.Errorf("X-Request-ID = %q, want trace-42", got)
	}
	if env := decode(t, rec); env.Meta == nil || env.Meta.RequestID != "trace-42" {
		t.Errorf("meta = %+v, want request_id trace-42", env.Meta)
	}
}

func TestUploadStagesFiles(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body, contentType := multipartBody(t,
		map[string][2]string{
			"base_file": {"roads.shp", "shp-bytes"},
			"dbf_file":  {"roads.dbf", "dbf-bytes"},
			"shx_file":  {`C:\gis\roads.shx`, "shx-bytes"},
		},
		map[string]string{"overwrite_existing_layer": "true", "title": "Roads"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := env.do(t, req, env.token(t, "alice", "editor"))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp submissionResponse
	decodeData(t, rec, &resp)
	if resp.ExecutionID == "" || len(resp.Steps) == 0 {
		t.Errorf("response = %+v, want execution id and steps", resp)
	}

	got := env.pipeline.last(t)
	if got.User != "alice" || got.Role != "editor" || got.Action != "upload" {
		t.Errorf("request = %+v", got)
	}
	if got.Data["overwrite_existing_layer"] != "true" || got.Data["title"] != "Roads" {
		t.Errorf("data = %v", got.Data)
	}
	if _, ok := got.Data["action"]; ok {
		t.Error("action leaked into request data")
	}

	want := map[fileset.Role]string{
		fileset.RoleBase: "shp-bytes",
		fileset.RoleDBF:  "dbf-bytes",
		fileset.RoleSHX:  "shx-bytes",
	}
	dir := filepath.Dir(got.Files[fileset.RoleBase])
	for role, content := range want {
		path := got.Files[role]
		if filepath.Dir(path) != dir {
			t.Errorf("%s staged at %s, want under %s", role, path, dir)
		}
		if !strings.HasPrefix(path, env.cfg.Upload.StagingDir) {
			t.Errorf("%s staged outside the staging dir: %s", role, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(data) != content {
			t.Errorf("%s content = %q, want %q", role, data, content)
		}
	}
	if filepath.Base(got.Files[fileset.RoleSHX]) != "roads.shx" {
		t.Errorf("shx staged as %s, want roads.shx", got.Files[fileset.RoleSHX])
	}
}

func TestUploadRejectedRemovesStaging(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.pipeline.setErr(models.Errorf(models.ErrParallelismLimit, "alice has 5 of 5 uploads running"))

	body, contentType := multipartBody(t,
		map[string][2]string{"base_file": {"roads.geojson", `{"type":"FeatureCollection","features":[]}`}},
		nil,
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := env.do(t, req, env.token(t, "alice", "editor"))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Error == nil || resp.Error.Code != "UPLOAD_PARALLELISM_LIMIT" || resp.Error.Category != models.CategoryQuota {
		t.Errorf("error = %+v", resp.Error)
	}

	entries, err := os.ReadDir(env.cfg.Upload.StagingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("staging dir still holds %d entries after rejection", len(entries))
	}
}

func TestUploadRejectsMalformedForms(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	token := env.token(t, "alice", "editor")

	tests := []struct {
		name   string
		files  map[string][2]string
		fields map[string]string
	}{
		{"no files", nil, map[string]string{"title": "x"}},
		{"unknown field", map[string][2]string{"payload": {"x.sh", "rm -rf"}}, nil},
		{"hidden file", map[string][2]string{"base_file": {".htaccess", "x"}}, nil},
		{"duplicate names", map[string][2]string{
			"base_file": {"roads.shp", "a"},
			"dbf_file":  {"roads.shp", "b"},
		}, nil},
		{"copy with files", map[string][2]string{"base_file": {"roads.shp", "a"}}, map[string]string{"action": "copy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body, contentType := multipartBody(t, tt.files, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
			req.Header.Set("Content-Type", contentType)
			rec := env.do(t, req, token)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	if rec := env.do(t, req, token); rec.Code != http.StatusBadRequest {
		t.Errorf("non-multipart status = %d, want 400", rec.Code)
	}
}

func TestCreateExecution(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	staged := filepath.Join(env.cfg.Upload.StagingDir, "batch", "extra.geojson")
	tests := []struct {
		name string
		body string
		want int
	}{
		{"copy", `{"action":"copy","resource_pk":"res-1","title":"Roads copy"}`, http.StatusAccepted},
		{"append staged file", `{"action":"append","resource_pk":"res-1","files":{"base_file":"` + staged + `"}}`, http.StatusAccepted},
		{"file outside staging", `{"action":"append","resource_pk":"res-1","files":{"base_file":"/etc/passwd"}}`, http.StatusBadRequest},
		{"unknown field", `{"action":"copy","resource_pk":"res-1","owner":"mallory"}`, http.StatusBadRequest},
		{"malformed json", `{"action":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/executions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := env.do(t, req, env.token(t, "root", "admin"))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	got := env.pipeline.last(t)
	if got.Action != "append" || got.Files[fileset.RoleBase] != staged || got.Data["resource_pk"] != "res-1" {
		t.Errorf("last request = %+v", got)
	}
}

func TestCreateExecutionForwardsFlags(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body := `{"action":"copy","resource_pk":"res-1","skip_existing_layers":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/executions", strings.NewReader(body))
	rec := env.do(t, req, env.token(t, "root", "admin"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; body = %s", rec.Code, rec.Body.String())
	}
	got := env.pipeline.last(t)
	if got.Data["skip_existing_layers"] != "true" {
		t.Errorf("data = %v", got.Data)
	}
	if _, ok := got.Data["overwrite_existing_layer"]; ok {
		t.Error("unset flag forwarded")
	}
	if len(got.Files) != 0 {
		t.Errorf("copy forwarded files %v", got.Files)
	}
}

func TestExecutionVisibility(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	mine := env.seed(t, "alice", models.StatusRunning)
	env.seed(t, "bob", models.StatusSucceeded)

	alice := env.token(t, "alice", "editor")
	bob := env.token(t, "bob", "editor")
	admin := env.token(t, "root", "admin")

	get := func(token string) int {
		return env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/executions/"+mine.ID, nil), token).Code
	}
	if code := get(alice); code != http.StatusOK {
		t.Errorf("owner GET = %d, want 200", code)
	}
	if code := get(bob); code != http.StatusNotFound {
		t.Errorf("other user GET = %d, want 404", code)
	}
	if code := get(admin); code != http.StatusOK {
		t.Errorf("admin GET = %d, want 200", code)
	}

	list := func(path, token string) []*models.Execution {
		t.Helper()
		rec := env.do(t, httptest.NewRequest(http.MethodGet, path, nil), token)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d; body = %s", path, rec.Code, rec.Body.String())
		}
		var execs []*models.Execution
		decodeData(t, rec, &execs)
		return execs
	}
	if execs := list("/api/v1/executions", alice); len(execs) != 1 || execs[0].ID != mine.ID {
		t.Errorf("alice list = %d executions", len(execs))
	}
	if execs := list("/api/v1/executions?all=true", admin); len(execs) != 2 {
		t.Errorf("admin list all = %d executions, want 2", len(execs))
	}
	if execs := list("/api/v1/executions?status=succeeded", alice); len(execs) != 0 {
		t.Errorf("alice succeeded = %d executions, want 0", len(execs))
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/executions?all=true", nil), bob)
	if rec.Code != http.StatusForbidden {
		t.Errorf("editor list all = %d, want 403", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/executions?status=exploded", nil), alice)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d, want 400", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/executions/does-not-exist", nil), alice)
	if resp := decode(t, rec); rec.Code != http.StatusNotFound || resp.Error.Code != "EXECUTION_NOT_FOUND" {
		t.Errorf("missing execution = %d %+v", rec.Code, resp.Error)
	}
}

func TestCancelExecution(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	exec := env.seed(t, "alice", models.StatusRunning)
	path := "/api/v1/executions/" + exec.ID

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, path, nil), env.token(t, "alice", "viewer"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer cancel = %d, want 403", rec.Code)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, path, nil), env.token(t, "bob", "editor"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("other editor cancel = %d, want 404", rec.Code)
	}

	alice := env.token(t, "alice", "editor")
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, path, nil), alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner cancel = %d; body = %s", rec.Code, rec.Body.String())
	}
	var cancelled models.Execution
	decodeData(t, rec, &cancelled)
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, path, nil), alice)
	if resp := decode(t, rec); rec.Code != http.StatusConflict || resp.Error.Code != "EXECUTION_FINISHED" {
		t.Errorf("second cancel = %d %+v, want 409 EXECUTION_FINISHED", rec.Code, resp.Error)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	viewer := env.token(t, "alice", "viewer")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/handlers", nil), viewer)
	if rec.Code != http.StatusOK {
		t.Fatalf("handlers = %d", rec.Code)
	}
	if resp := decode(t, rec); resp.Meta == nil || resp.Meta.Count == nil || *resp.Meta.Count != 2 {
		t.Errorf("handlers meta = %+v, want count 2", resp.Meta)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/res-2", nil), viewer)
	var res models.Resource
	decodeData(t, rec, &res)
	if res.Alternate != "rivers" {
		t.Errorf("resource = %+v", res)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources", nil), viewer)
	var own []*models.Resource
	decodeData(t, rec, &own)
	if len(own) != 1 || own[0].ID != "res-1" {
		t.Errorf("own resources = %+v", own)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources?all=true", nil), viewer)
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer list all = %d, want 403", rec.Code)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/resources/res-9", nil), viewer)
	if resp := decode(t, rec); rec.Code != http.StatusNotFound || resp.Error.Code != "RESOURCE_NOT_FOUND" {
		t.Errorf("missing resource = %d %+v", rec.Code, resp.Error)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil), viewer)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d, want 404", rec.Code)
	}
}

type streamMessage struct {
	Type string            `json:"type"`
	Data *models.Execution `json:"data"`
}

func dialStream(t *testing.T, srv *httptest.Server, id, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/executions/" + id + "/ws"
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial: %v (status %d)", err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readStream(t *testing.T, conn *websocket.Conn) (streamMessage, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return streamMessage{}, err
	}
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg, nil
}

func TestWatchExecutionStreamsUntilTerminal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	t.Cleanup(srv.Close)

	exec := env.seed(t, "alice", models.StatusCreated)
	conn := dialStream(t, srv, exec.ID, env.token(t, "alice", "viewer"))

	snapshot, err := readStream(t, conn)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.Type != "execution" || snapshot.Data.ID != exec.ID || snapshot.Data.Status != models.StatusCreated {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	ctx := context.Background()
	if _, err := env.store.StartStep(ctx, exec.ID, models.StepStartImport); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.CompleteExecution(ctx, exec.ID, nil); err != nil {
		t.Fatal(err)
	}

	var last models.Status
	for {
		msg, err := readStream(t, conn)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("stream ended with %v, want normal closure", err)
			}
			break
		}
		last = msg.Data.Status
	}
	if last != models.StatusSucceeded {
		t.Errorf("last streamed status = %q, want succeeded", last)
	}
}

func TestWatchFinishedExecutionClosesAfterSnapshot(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	t.Cleanup(srv.Close)

	exec := env.seed(t, "alice", models.StatusFailed)
	conn := dialStream(t, srv, exec.ID, env.token(t, "alice", "viewer"))

	msg, err := readStream(t, conn)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg.Data.Status != models.StatusFailed {
		t.Errorf("snapshot status = %q, want failed", msg.Data.Status)
	}
	if _, err := readStream(t, conn); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("read after snapshot = %v, want normal closure", err)
	}
}

func TestWatchExecutionOfOtherUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	exec := env.seed(t, "alice", models.StatusRunning)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/executions/"+exec.ID+"/ws", nil), env.token(t, "bob", "viewer"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAuditTrail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	alice := env.token(t, "alice", "editor")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/executions", strings.NewReader(`{"action":"append","resource_pk":"res-1","files":{"base_file":"/etc/passwd"}}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := env.do(t, req, alice); rec.Code != http.StatusBadRequest {
		t.Fatalf("append outside staging = %d, want 400", rec.Code)
	}

	exec := env.seed(t, "alice", models.StatusRunning)
	if rec := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/executions/"+exec.ID, nil), alice); rec.Code != http.StatusOK {
		t.Fatalf("cancel = %d; body = %s", rec.Code, rec.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.audit.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("audit events = %d, want 2", env.audit.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil), alice); rec.Code != http.StatusForbidden {
		t.Fatalf("editor audit = %d, want 403", rec.Code)
	}

	admin := env.token(t, "root", "admin")
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/audit?actor=alice&type=execution.cancelled", nil), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin audit = %d; body = %s", rec.Code, rec.Body.String())
	}
	var events []struct {
		Type        string `json:"type"`
		ExecutionID string `json:"execution_id"`
		Actor       struct {
			Name string `json:"name"`
		} `json:"actor"`
	}
	decodeData(t, rec, &events)
	if len(events) != 1 || events[0].ExecutionID != exec.ID || events[0].Actor.Name != "alice" {
		t.Errorf("events = %+v", events)
	}

	for _, query := range []string{"limit=0", "limit=abc", "since=yesterday"} {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/audit?"+query, nil), admin)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", query, rec.Code)
		}
	}
}
