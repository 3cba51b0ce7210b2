package handlers_test

import (
	"bytes"
	"net/http"
	"testing"
)

func TestUploadDocumentAcceptsWordFiles(t *testing.T) {
	env := newTestEnv(t)

	for _, filename := range []string{"notes.doc", "report.docx", "REPORT.DOCX"} {
		rec := env.doMultipart(t, http.MethodPost, "/upload", "", "upload", filename, []byte("word bytes"))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got %d, body %s", filename, rec.Code, rec.Body.String())
		}
	}
}

func TestUploadDocumentNeedsNoAuthentication(t *testing.T) {
	env := newTestEnv(t)

	// no Authorization header at all: the endpoint is public
	rec := env.doMultipart(t, http.MethodPost, "/upload", "", "upload", "notes.docx", []byte("word bytes"))

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200 without credentials, body %s", rec.Code, rec.Body.String())
	}
}

func TestUploadDocumentRejectsOtherExtensions(t *testing.T) {
	env := newTestEnv(t)

	for _, filename := range []string{"notes.pdf", "notes.txt", "notes", "notes.doc.exe"} {
		rec := env.doMultipart(t, http.MethodPost, "/upload", "", "upload", filename, []byte("whatever"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", filename, rec.Code)
		}
	}
}

func TestUploadDocumentRejectsOversize(t *testing.T) {
	env := newTestEnv(t)

	huge := bytes.Repeat([]byte{'a'}, 1_000_001)

	rec := env.doMultipart(t, http.MethodPost, "/upload", "", "upload", "big.docx", huge)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}
