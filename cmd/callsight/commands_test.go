package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kresler/callsight/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"ok":false,"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestAnalyzeRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/analyze": `{"ok":true,"id":"r-1","summary":"Customer reported a failed payment; agent re-sent the link.","sentiment":"Negative","timestamp":"2026-08-25 10:00:00 UTC","truncated":false}`,
	})

	client := ts.client()

	resp, err := client.post(ctx, "/api/analyze", map[string]string{"transcript": "the payment failed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Summary   string `json:"summary"`
		Sentiment string `json:"sentiment"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if result.Sentiment != "Negative" {
		t.Errorf("sentiment = %q, want Negative", result.Sentiment)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}

	r := ts.requests[0]
	if r.Method != "POST" {
		t.Errorf("method = %q, want POST", r.Method)
	}
	if r.Path != "/api/analyze" {
		t.Errorf("path = %q, want /api/analyze", r.Path)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["transcript"] != "the payment failed" {
		t.Errorf("body.transcript = %q, want 'the payment failed'", body["transcript"])
	}
}

func TestAnalyzeCommand_MissingSource(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"analyze"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing transcript source")
	}
	if !strings.Contains(err.Error(), "--file") {
		t.Errorf("error = %q, want it to mention --file", err.Error())
	}
}

func TestResolveTranscript(t *testing.T) {
	if _, err := resolveTranscript(ctx, nil, "", ""); err == nil {
		t.Error("expected error with no sources")
	}
	if _, err := resolveTranscript(ctx, []string{"text"}, "file.txt", ""); err == nil {
		t.Error("expected error with two sources")
	}

	got, err := resolveTranscript(ctx, []string{"Customer:", "hello"}, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Customer: hello" {
		t.Errorf("transcript = %q, want joined args", got)
	}
}

func TestResolveTranscript_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.txt")
	if err := os.WriteFile(path, []byte("Agent: how can I help?"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	got, err := resolveTranscript(ctx, nil, path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Agent: how can I help?" {
		t.Errorf("transcript = %q, want file contents", got)
	}
}

func TestHistoryRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /history": `[{"timestamp":"2026-08-25 10:00:00 UTC","transcript":"t","summary":"s","sentiment":"Positive"}]`,
	})

	client := ts.client()
	resp, err := client.get(ctx, "/history")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var records []struct {
		Sentiment string `json:"sentiment"`
	}
	if err := decodeJSON(resp, &records); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Sentiment != "Positive" {
		t.Errorf("sentiment = %q, want Positive", records[0].Sentiment)
	}
}

func TestExportRequest_NoHistory(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	client := ts.client()
	resp, err := client.get(ctx, "/download")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServerNotReachable(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/history")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{"ok":false,"error":{"message":"unrecognizable sentiment","type":"classification_error"}}`))
	}))
	defer srv.Close()

	client := &apiClient{
		baseURL:    srv.URL,
		httpClient: srv.Client(),
	}

	resp, err := client.get(ctx, "/history")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error = %q, want it to contain '422'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestPrintError(t *testing.T) {
	oldNoColor := noColor
	oldStderr := os.Stderr
	defer func() {
		noColor = oldNoColor
		os.Stderr = oldStderr
	}()
	noColor = true

	f, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatalf("creating capture file: %v", err)
	}
	os.Stderr = f

	printError("analyze failed: %v", errForTest{})

	os.Stderr = oldStderr
	f.Close()
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("reading capture file: %v", err)
	}
	if !strings.Contains(string(data), "✗ analyze failed: boom") {
		t.Errorf("stderr = %q, want the formatted error line", string(data))
	}
}

type errForTest struct{}

func (errForTest) Error() string { return "boom" }

func TestColorizeSentiment(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = false

	if got := colorizeSentiment("Positive"); !strings.Contains(got, colorGreen) {
		t.Errorf("Positive = %q, want green", got)
	}
	if got := colorizeSentiment("Negative"); !strings.Contains(got, colorRed) {
		t.Errorf("Negative = %q, want red", got)
	}
	if got := colorizeSentiment("Neutral"); !strings.Contains(got, colorYellow) {
		t.Errorf("Neutral = %q, want yellow", got)
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4000
	cfg.Groq.Model = "llama-3.1-8b-instant"

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "4000" {
			found = true
		}
	}
	if !found {
		t.Error("expected to find server.port=4000 in ShowAll output")
	}
}
