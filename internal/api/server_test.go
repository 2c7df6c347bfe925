package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dharsanguruparan/LinguaDrop/internal/auth"
	"github.com/dharsanguruparan/LinguaDrop/internal/config"
	"github.com/dharsanguruparan/LinguaDrop/internal/docs"
	"github.com/dharsanguruparan/LinguaDrop/internal/pipeline"
	"github.com/dharsanguruparan/LinguaDrop/internal/storage"
	"github.com/dharsanguruparan/LinguaDrop/internal/translator"
)

type fakeTranslator struct{}

func (fakeTranslator) Submit(context.Context, []byte, string, string, string) (translator.Job, error) {
	return translator.Job{ID: "job-1", Key: "key-1"}, nil
}

func (fakeTranslator) Poll(context.Context, translator.Job) (translator.Status, error) {
	return translator.StatusDone, nil
}

func (fakeTranslator) Fetch(context.Context, translator.Job) ([]byte, error) {
	return []byte("translated body"), nil
}

type fakeObjects struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{blobs: make(map[string][]byte)}
}

func (f *fakeObjects) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[bucket+"/"+key] = data
	return nil
}

func (f *fakeObjects) Get(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (f *fakeObjects) Delete(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + bucket + "/" + key, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		UploadBucket:     "uploads",
		TranslatedBucket: "translated",
		MaxFileSize:      1 << 20,
		AllowedTypes:     []string{"text/plain"},
		SignedURLTTL:     time.Minute,
	}
	objects := newFakeObjects()
	documents := storage.NewMemoryDocuments()
	folders := storage.NewMemoryFolders()
	users := storage.NewMemoryUsers()
	buckets := pipeline.Buckets{Uploads: "uploads", Translated: "translated"}
	orchestrator := pipeline.New(fakeTranslator{}, objects, documents, buckets, pipeline.Options{
		PollInterval: time.Millisecond,
		MaxWait:      time.Second,
	})
	docsSvc := docs.NewService(documents, folders, objects, docs.Buckets{Uploads: "uploads", Translated: "translated"})
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	return New(cfg, orchestrator, docsSvc, users, tokens, objects, nil, nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func signupAndSignin(t *testing.T, handler http.Handler, username string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/signup", "", map[string]string{
		"username": username, "password": "hunter22pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/signin", "", map[string]string{
		"username": username, "password": "hunter22pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("no token in signin response: %s", rec.Body.String())
	}
	return out.Token
}

func submitDocument(t *testing.T, handler http.Handler, token, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(fw, content)
	mw.WriteField("source_lang", "ES")
	mw.WriteField("target_lang", "EN-US")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var res pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.OriginalName != filename || res.TranslatedName != "translated-"+filename {
		t.Fatalf("unexpected result %+v", res)
	}
	return res.DocumentID
}

func TestSubmitListGetDelete(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Routes()
	token := signupAndSignin(t, handler, "alice")

	id := submitDocument(t, handler, token, "contract.txt", "el contrato")

	rec := doJSON(t, handler, http.MethodGet, "/api/documents", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	var listing struct {
		Documents []docs.Listing `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(listing.Documents))
	}
	doc := listing.Documents[0]
	if doc.OriginalName != "contract.txt" || doc.TranslatedName != "translated-contract.txt" {
		t.Errorf("unexpected names %+v", doc)
	}
	if !strings.HasPrefix(doc.OriginalKey, "alice-") || !strings.HasPrefix(doc.TranslatedKey, "alice-translated-") {
		t.Errorf("unexpected keys %+v", doc)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/documents/"+id+"?lang=EN-US", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	var view docs.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Content != "translated body" {
		t.Errorf("translated view content = %q", view.Content)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/documents/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/documents/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestOwnerIsolation(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Routes()
	aliceToken := signupAndSignin(t, handler, "alice")
	bobToken := signupAndSignin(t, handler, "bob")

	id := submitDocument(t, handler, aliceToken, "secret.txt", "confidencial")

	rec := doJSON(t, handler, http.MethodGet, "/api/documents/"+id, bobToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner get: %d, want 404", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "confidencial") {
		t.Error("cross-owner get leaked content")
	}
	rec = doJSON(t, handler, http.MethodDelete, "/api/documents/"+id, bobToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner delete: %d, want 404", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/documents/"+id, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("owner get after foreign delete attempt: %d", rec.Code)
	}
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Routes()
	for _, path := range []string{"/api/documents", "/api/folders", "/api/chat", "/api/check-auth"} {
		rec := doJSON(t, handler, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: %d, want 401", path, rec.Code)
		}
	}
}

func TestFoldersAndMove(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Routes()
	token := signupAndSignin(t, handler, "alice")
	id := submitDocument(t, handler, token, "contract.txt", "el contrato")

	rec := doJSON(t, handler, http.MethodPost, "/api/folders", token, map[string]string{"name": "contracts"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create folder: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Folder struct {
			ID string `json:"id"`
		} `json:"folder"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.Folder.ID == "" {
		t.Fatalf("decode folder: %v %s", err, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/documents/"+id+"/move", token,
		map[string]string{"folderId": created.Folder.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("move: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/documents", token, nil)
	var listing struct {
		Documents []docs.Listing `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Documents) != 1 || listing.Documents[0].FolderID == nil ||
		*listing.Documents[0].FolderID != created.Folder.ID {
		t.Errorf("folder assignment missing from listing: %+v", listing.Documents)
	}
}

func TestSubmitValidation(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Routes()
	token := signupAndSignin(t, handler, "alice")

	// Unknown target language.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "a.txt")
	fmt.Fprint(fw, "hello")
	mw.WriteField("source_lang", "ES")
	mw.WriteField("target_lang", "EN") // bare EN is not a valid target
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad language pair: %d, want 400", rec.Code)
	}

	// Missing file part.
	rec = doJSON(t, handler, http.MethodPost, "/api/documents", token, map[string]string{"source_lang": "ES"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: %d, want 400", rec.Code)
	}
}

func TestDownloadURL(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Routes()
	token := signupAndSignin(t, handler, "alice")
	id := submitDocument(t, handler, token, "contract.txt", "el contrato")

	rec := doJSON(t, handler, http.MethodGet, "/api/documents/"+id+"/download-url?name=translated-contract.txt", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download url: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.URL, "/translated/alice-translated-") {
		t.Errorf("expected translated-side url, got %q", out.URL)
	}
}
