package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikeboe/research-assistant/pkg/database"
	"github.com/mikeboe/research-assistant/pkg/research"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func doJSON(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResearchEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		engine     *fakeEngine
		wantStatus int
		want       research.Response
	}{
		{
			name:       "Success",
			path:       "/api/research",
			body:       `{"topic": "Go", "format": "summary"}`,
			engine:     &fakeEngine{result: "Go is a language."},
			wantStatus: http.StatusOK,
			want:       research.Response{Success: true, Result: "Go is a language."},
		},
		{
			name:       "Legacy path",
			path:       "/research",
			body:       `{"topic": "Go", "format": ""}`,
			engine:     &fakeEngine{result: "ok"},
			wantStatus: http.StatusOK,
			want:       research.Response{Success: true, Result: "ok"},
		},
		{
			name:       "Engine failure",
			path:       "/api/research",
			body:       `{"topic": "Go", "format": "summary"}`,
			engine:     &fakeEngine{err: errors.New("model unavailable")},
			wantStatus: http.StatusOK,
			want:       research.Response{Success: false, Error: "Failed to process research request: model unavailable"},
		},
		{
			name:       "Blank topic",
			path:       "/api/research",
			body:       `{"topic": "  ", "format": "summary"}`,
			engine:     &fakeEngine{},
			wantStatus: http.StatusBadRequest,
			want:       research.Response{Success: false, Error: "topic is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(NewService(tt.engine, nil, quietLogger, Info{}))
			w := doJSON(r, http.MethodPost, tt.path, tt.body, nil)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var got research.Response
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if got != tt.want {
				t.Errorf("body = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResearchEndpointInvalidJSON(t *testing.T) {
	engine := &fakeEngine{}
	r := newTestRouter(NewService(engine, nil, quietLogger, Info{}))
	w := doJSON(r, http.MethodPost, "/api/research", `{"topic":`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var got research.Response
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Success || got.Error == "" {
		t.Errorf("body = %+v", got)
	}
	if len(engine.topics) != 0 {
		t.Error("engine called for invalid body")
	}
}

func TestResearchEndpointSetsJobHeader(t *testing.T) {
	store := newMemoryStore()
	r := newTestRouter(NewService(&fakeEngine{result: "ok"}, store, quietLogger, Info{}))
	w := doJSON(r, http.MethodPost, "/api/research", `{"topic": "Go"}`, nil)

	id := w.Header().Get(JobIDHeader)
	if id == "" {
		t.Fatal("missing job id header")
	}

	w = doJSON(r, http.MethodGet, "/api/jobs/"+id, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET job status = %d", w.Code)
	}
	var job database.Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("invalid job: %v", err)
	}
	if job.Status != database.StatusCompleted {
		t.Errorf("status = %q", job.Status)
	}

	w = doJSON(r, http.MethodGet, "/api/jobs", "", nil)
	var jobs []database.Job
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil || len(jobs) != 1 {
		t.Errorf("jobs = %s (%v)", w.Body.String(), err)
	}

	w = doJSON(r, http.MethodGet, "/api/jobs/"+id+"/logs", "", nil)
	var logs []database.LogEntry
	if err := json.Unmarshal(w.Body.Bytes(), &logs); err != nil || len(logs) == 0 {
		t.Errorf("logs = %s (%v)", w.Body.String(), err)
	}
}

func TestJobEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		store      JobStore
		path       string
		wantStatus int
	}{
		{"No database list", nil, "/api/jobs", http.StatusServiceUnavailable},
		{"No database get", nil, "/api/jobs/7b4f6a52-3c11-4a6f-9a0e-2f7f8b0c1d2e", http.StatusServiceUnavailable},
		{"Invalid uuid", newMemoryStore(), "/api/jobs/not-a-uuid", http.StatusBadRequest},
		{"Invalid uuid logs", newMemoryStore(), "/api/jobs/not-a-uuid/logs", http.StatusBadRequest},
		{"Unknown job", newMemoryStore(), "/api/jobs/7b4f6a52-3c11-4a6f-9a0e-2f7f8b0c1d2e", http.StatusInternalServerError},
		{"Empty list", newMemoryStore(), "/api/jobs", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(NewService(&fakeEngine{}, tt.store, quietLogger, Info{}))
			w := doJSON(r, http.MethodGet, tt.path, "", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestEmptyJobListIsArray(t *testing.T) {
	r := newTestRouter(NewService(&fakeEngine{}, newMemoryStore(), quietLogger, Info{}))
	w := doJSON(r, http.MethodGet, "/api/jobs", "", nil)
	if w.Body.String() != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(NewService(&fakeEngine{}, nil, quietLogger, Info{Model: "gemini-test", APIKeySet: true}))

	for _, path := range []string{"/api/health", "/api/test"} {
		w := doJSON(r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
		var body struct {
			Status      string `json:"status"`
			Credentials struct {
				APIKeyAvailable   bool   `json:"api_key_available"`
				Model             string `json:"model"`
				DatabaseAvailable bool   `json:"database_available"`
			} `json:"credentials"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if body.Status != "ok" || !body.Credentials.APIKeyAvailable || body.Credentials.Model != "gemini-test" || body.Credentials.DatabaseAvailable {
			t.Errorf("%s body = %+v", path, body)
		}
	}

	if w := doJSON(r, http.MethodGet, "/", "", nil); w.Code != http.StatusOK {
		t.Errorf("home status = %d", w.Code)
	}
}

func TestClientServerRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		engine     *fakeEngine
		topic      string
		wantResult string
		wantErr    string
	}{
		{"Success", &fakeEngine{result: "Point A\n- item"}, "Go", "Point A\n- item", ""},
		{"Engine failure", &fakeEngine{err: errors.New("boom")}, "Go", "", "Failed to process research request: boom"},
		{"Rejected topic", &fakeEngine{}, " ", "", "topic is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(newTestRouter(NewService(tt.engine, nil, quietLogger, Info{})))
			defer srv.Close()

			client := research.NewClient(srv.URL+"/api", research.WithLogger(quietLogger))
			result, err := client.Send(context.Background(), tt.topic, "summary")
			if tt.wantErr == "" {
				if err != nil || result != tt.wantResult {
					t.Fatalf("Send() = %q, %v", result, err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Send() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func mcpCall(t *testing.T, r http.Handler, session, body string) (MCPResponse, *httptest.ResponseRecorder) {
	t.Helper()
	headers := map[string]string{}
	if session != "" {
		headers["Mcp-Session-Id"] = session
	}
	w := doJSON(r, http.MethodPost, "/mcp", body, headers)
	var resp MCPResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid MCP response %q: %v", w.Body.String(), err)
	}
	return resp, w
}

func TestMCPFlow(t *testing.T) {
	r := newTestRouter(NewService(&fakeEngine{result: "MCP result"}, nil, quietLogger, Info{}))

	resp, w := mcpCall(t, r, "", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	session := w.Header().Get("Mcp-Session-Id")
	if resp.Error != nil || session == "" {
		t.Fatalf("initialize: %+v, session %q", resp.Error, session)
	}

	resp, _ = mcpCall(t, r, session, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	tools := resp.Result.(map[string]interface{})["tools"].([]interface{})
	if len(tools) != 1 || tools[0].(map[string]interface{})["name"] != "research" {
		t.Errorf("tools = %v", tools)
	}

	resp, _ = mcpCall(t, r, session, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"research","arguments":{"topic":"Go","format":"summary"}}}`)
	if resp.Error != nil {
		t.Fatalf("tools/call error: %+v", resp.Error)
	}
	content := resp.Result.(map[string]interface{})["content"].([]interface{})
	if text := content[0].(map[string]interface{})["text"]; text != "MCP result" {
		t.Errorf("text = %v", text)
	}

	resp, _ = mcpCall(t, r, session, `{"jsonrpc":"2.0","id":4,"method":"ping"}`)
	if resp.Error != nil {
		t.Errorf("ping error: %+v", resp.Error)
	}
}

func TestMCPErrors(t *testing.T) {
	r := newTestRouter(NewService(&fakeEngine{}, nil, quietLogger, Info{}))

	_, w := mcpCall(t, r, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing session status = %d", w.Code)
	}

	_, w = mcpCall(t, r, "unknown", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown session status = %d", w.Code)
	}

	_, w = mcpCall(t, r, "", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	session := w.Header().Get("Mcp-Session-Id")

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"Unknown method", `{"jsonrpc":"2.0","id":2,"method":"resources/list"}`, -32601},
		{"Unknown tool", `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope","arguments":{}}}`, -32601},
		{"Blank topic", `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"research","arguments":{"topic":""}}}`, -32602},
		{"Bad params", `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":"oops"}`, -32602},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := mcpCall(t, r, session, tt.body)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %d", resp.Error, tt.wantCode)
			}
		})
	}
}
