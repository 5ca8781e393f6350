package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func multipartReq(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadHandler_StoresFile(t *testing.T) {
	dir := t.TempDir()
	h := NewUploadHandler(dir)
	rec := httptest.NewRecorder()

	csv := "name,age\nalice,30\nbob,25\n"
	h.ServeHTTP(rec, multipartReq(t, "file", "people.csv", csv))

	data := parseData(t, rec, http.StatusCreated)
	if data["filename"] != "people.csv" {
		t.Errorf("unexpected filename: %v", data["filename"])
	}
	if int(data["size_bytes"].(float64)) != len(csv) {
		t.Errorf("unexpected size_bytes: %v", data["size_bytes"])
	}

	ref, ok := data["file_ref"].(string)
	if !ok {
		t.Fatalf("file_ref missing: %v", data)
	}
	stored, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(stored) != csv {
		t.Errorf("stored content differs from upload")
	}
}

func TestUploadHandler_MissingFileField(t *testing.T) {
	h := NewUploadHandler(t.TempDir())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, multipartReq(t, "attachment", "people.csv", "a,b\n1,2\n"))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest || code != "INVALID_REQUEST" {
		t.Errorf("expected 400 INVALID_REQUEST, got %d %s", status, code)
	}
}

func TestUploadHandler_RejectsNonCSV(t *testing.T) {
	h := NewUploadHandler(t.TempDir())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, multipartReq(t, "file", "report.pdf", "%PDF-1.4"))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest || code != "UNSUPPORTED_FILE_TYPE" {
		t.Errorf("expected 400 UNSUPPORTED_FILE_TYPE, got %d %s", status, code)
	}
}

func TestUploadHandler_AcceptsUppercaseExtension(t *testing.T) {
	h := NewUploadHandler(t.TempDir())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, multipartReq(t, "file", "DATA.CSV", "a,b\n1,2\n"))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}
