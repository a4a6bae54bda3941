package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/axsol/varconfig/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	// nil store: history endpoints come back empty
	return NewServer(cfg, nil)
}

func multipartCSV(t *testing.T, csvBody string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "variables.csv")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write([]byte(csvBody)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleProcess(t *testing.T) {
	srv := testServer(t)

	csvBody := "plcVariableName;mbRegister;mbFunctionCode;mbType;multiplier;addressOffset;mbUsed\n" +
		"Temp;100;3;UINT16;2;2;1\n" +
		"Pressure;200;4;UINT32;1;0;true\n"
	body, contentType := multipartCSV(t, csvBody)

	req := httptest.NewRequest(http.MethodPost, "/api/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp processResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(resp.Rows))
	}
	if resp.Rows[0]["mbHandler"] != "1" {
		t.Errorf("Temp mbHandler = %q, want \"1\"", resp.Rows[0]["mbHandler"])
	}
	if resp.HandlerCount == 0 {
		t.Error("handler count is zero")
	}
	if !strings.HasPrefix(resp.Summary, "Handlers: ") {
		t.Errorf("unexpected summary: %q", resp.Summary)
	}
	if resp.RunID != "" {
		t.Errorf("run id = %q, want empty without a database", resp.RunID)
	}
}

func TestHandleProcessRawBody(t *testing.T) {
	srv := testServer(t)

	csvBody := "plcVariableName;mbRegister;mbFunctionCode;mbType\nTemp;100;3;UINT16\n"
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleProcessCSVFormat(t *testing.T) {
	srv := testServer(t)

	csvBody := "plcVariableName;mbRegister;mbFunctionCode;mbType\nTemp;100;3;UINT16\n"
	req := httptest.NewRequest(http.MethodPost, "/api/process?format=csv", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q, want text/csv", ct)
	}
	if !strings.Contains(rec.Body.String(), "mbHandler") {
		t.Errorf("csv response missing mbHandler column: %q", rec.Body.String())
	}
}

func TestHandleProcessRejectsBadRegister(t *testing.T) {
	srv := testServer(t)

	csvBody := "plcVariableName;mbRegister;mbFunctionCode;mbType\nBad;oops;3;UINT16\n"
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleProcessRejectsEmptyCSV(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader("a;b\n"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDetect(t *testing.T) {
	srv := testServer(t)

	csvBody := "Topic,Register Address,Type\nplant/power,100,UINT16\n"
	req := httptest.NewRequest(http.MethodPost, "/api/detect", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["kind"] != "device" {
		t.Errorf("kind = %v, want \"device\"", resp["kind"])
	}
}

func TestHandleListRunsWithoutDatabase(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	runs, ok := resp["runs"].([]any)
	if !ok || len(runs) != 0 {
		t.Errorf("runs = %v, want empty list", resp["runs"])
	}
}

func TestHandleGetRunWithoutDatabase(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/0b39cf1e-74d4-4f19-9357-1f1932e40a11", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
