// Package api exposes the HTTP surface: account endpoints, synchronous and
// queued translation submissions, document retrieval and folders, and the
// chat proxy. Identity is carried by a bearer token and passed explicitly
// into every service call.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/LinguaDrop/internal/auth"
	"github.com/dharsanguruparan/LinguaDrop/internal/config"
	"github.com/dharsanguruparan/LinguaDrop/internal/docs"
	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
	"github.com/dharsanguruparan/LinguaDrop/internal/pipeline"
	"github.com/dharsanguruparan/LinguaDrop/internal/queue"
)

// UserStore is the account slice the server needs.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Asker answers questions about document content.
type Asker interface {
	Ask(ctx context.Context, documentContent, question string) (string, error)
}

// Enqueuer hands a background translation job to the queue.
type Enqueuer func(ctx context.Context, payload queue.TranslatePayload) error

// Server exposes HTTP endpoints for the translation pipeline and retrieval.
type Server struct {
	cfg          *config.Config
	orchestrator *pipeline.Orchestrator
	docs         *docs.Service
	users        UserStore
	tokens       *auth.TokenIssuer
	staging      pipeline.ObjectStore
	enqueue      Enqueuer
	chat         Asker
	server       *http.Server
	once         sync.Once
}

// New constructs a Server. chat and enqueue may be nil; the corresponding
// endpoints then report the capability as unavailable.
func New(cfg *config.Config, orchestrator *pipeline.Orchestrator, docsSvc *docs.Service, users UserStore,
	tokens *auth.TokenIssuer, staging pipeline.ObjectStore, enqueue Enqueuer, chatClient Asker) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		docs:         docsSvc,
		users:        users,
		tokens:       tokens,
		staging:      staging,
		enqueue:      enqueue,
		chat:         chatClient,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: corsMiddleware(loggingMiddleware(s.Routes())),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	log.Printf("api listening on %s", s.cfg.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Routes builds the handler tree. Exported so handler tests can exercise it
// without binding a socket.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/signup", s.handleSignup)
	mux.HandleFunc("/api/signin", s.handleSignin)
	mux.HandleFunc("/api/check-auth", s.handleCheckAuth)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/api/documents/", s.handleDocumentRoute)
	mux.HandleFunc("/api/folders", s.handleFolders)
	mux.HandleFunc("/api/chat", s.handleChat)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// owner authenticates the request and returns the caller identity.
func (s *Server) owner(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fault.New(fault.Unauthorized, "missing identity token")
	}
	return s.tokens.Verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
}

type credentialsRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName,omitempty"`
	Email       string `json:"email,omitempty"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fault.New(fault.InvalidInput, "invalid json body"))
		return
	}
	if !auth.ValidUsername(req.Username) {
		respondError(w, fault.New(fault.InvalidInput, "username must be 3-32 chars of a-z, 0-9 or _"))
		return
	}
	if len(req.Password) < 8 {
		respondError(w, fault.New(fault.InvalidInput, "password must be at least 8 characters"))
		return
	}
	if _, err := s.users.GetByUsername(r.Context(), req.Username); err == nil {
		respondError(w, fault.New(fault.InvalidInput, "username already exists"))
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		CompanyName:  req.CompanyName,
		Email:        req.Email,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fault.New(fault.InvalidInput, "invalid json body"))
		return
	}
	user, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown user and wrong password.
		respondError(w, fault.New(fault.Unauthorized, "invalid credentials"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   s.tokens.Issue(user.Username),
	})
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	username, err := s.owner(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"authenticated": true, "username": username})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	owner, err := s.owner(r)
	if err != nil {
		respondError(w, err)
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r, owner)
	case http.MethodGet:
		s.handleList(w, r, owner)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, owner string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1024)
	if err := r.ParseMultipartForm(s.cfg.MaxFileSize); err != nil {
		respondError(w, fault.Wrap(fault.InvalidInput, "expecting multipart form", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, fault.New(fault.InvalidInput, "missing file part"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, fault.Wrap(fault.InvalidInput, "read upload", err))
		return
	}
	if len(data) == 0 {
		respondError(w, fault.New(fault.InvalidInput, "empty file"))
		return
	}
	contentType := http.DetectContentType(sniffPrefix(data))
	if !s.allowedType(contentType) {
		respondError(w, fault.Newf(fault.InvalidInput, "file type %s not allowed", contentType))
		return
	}

	job := pipeline.Job{
		Owner:       owner,
		FileName:    header.Filename,
		Data:        data,
		ContentType: contentType,
		SourceLang:  r.FormValue("source_lang"),
		TargetLang:  r.FormValue("target_lang"),
	}
	if r.FormValue("mode") == "async" {
		s.submitAsync(w, r, job)
		return
	}
	res, err := s.orchestrator.Run(r.Context(), job)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// submitAsync stages the blob and hands the job to the queue; the worker
// drives the pipeline later.
func (s *Server) submitAsync(w http.ResponseWriter, r *http.Request, job pipeline.Job) {
	if s.enqueue == nil {
		respondError(w, fault.New(fault.ProviderUnavailable, "background queue not configured"))
		return
	}
	stagingKey := fmt.Sprintf("staging/%s-%s", uuid.NewString(), job.FileName)
	if err := s.staging.Put(r.Context(), s.cfg.UploadBucket, stagingKey, job.Data, job.ContentType); err != nil {
		respondError(w, fault.Wrap(fault.StorageWriteFailed, "stage upload", err))
		return
	}
	payload := queue.TranslatePayload{
		Owner:      job.Owner,
		StagingKey: stagingKey,
		FileName:   job.FileName,
		SourceLang: job.SourceLang,
		TargetLang: job.TargetLang,
	}
	if err := s.enqueue(r.Context(), payload); err != nil {
		if delErr := s.staging.Delete(r.Context(), s.cfg.UploadBucket, stagingKey); delErr != nil {
			log.Printf("delete staged upload %s: %v", stagingKey, delErr)
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, owner string) {
	listings, err := s.docs.List(r.Context(), owner)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": listings})
}

func (s *Server) handleDocumentRoute(w http.ResponseWriter, r *http.Request) {
	owner, err := s.owner(r)
	if err != nil {
		respondError(w, err)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleDocument(w, r, id, owner)
		case http.MethodDelete:
			s.handleDelete(w, r, id, owner)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}
	switch parts[1] {
	case "move":
		s.handleMove(w, r, id, owner)
	case "download-url":
		s.handleDownloadURL(w, r, id, owner)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, id, owner string) {
	view, err := s.docs.Get(r.Context(), id, owner, r.URL.Query().Get("lang"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, id, owner string) {
	if err := s.docs.Delete(r.Context(), id, owner); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, id, owner string) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		FolderID *string `json:"folderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fault.New(fault.InvalidInput, "invalid json body"))
		return
	}
	if err := s.docs.Move(r.Context(), id, owner, req.FolderID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDownloadURL(w http.ResponseWriter, r *http.Request, id, owner string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, fault.New(fault.InvalidInput, "file name is required"))
		return
	}
	url, err := s.docs.DownloadURL(r.Context(), id, owner, name, s.cfg.SignedURLTTL)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	owner, err := s.owner(r)
	if err != nil {
		respondError(w, err)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, fault.New(fault.InvalidInput, "invalid json body"))
			return
		}
		folder, err := s.docs.CreateFolder(r.Context(), owner, req.Name)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"success": true, "folder": folder})
	case http.MethodGet:
		folders, err := s.docs.ListFolders(r.Context(), owner)
		if err != nil {
			respondError(w, err)
			return
		}
		if folders == nil {
			folders = []*model.Folder{}
		}
		respondJSON(w, http.StatusOK, map[string]any{"folders": folders})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	owner, err := s.owner(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.chat == nil {
		respondError(w, fault.New(fault.ProviderUnavailable, "chat not configured"))
		return
	}
	var req struct {
		DocumentID string `json:"documentId"`
		Message    string `json:"message"`
		Lang       string `json:"lang,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fault.New(fault.InvalidInput, "invalid json body"))
		return
	}
	if req.DocumentID == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, fault.New(fault.InvalidInput, "documentId and message are required"))
		return
	}
	// Content is resolved server-side, never trusted from the client.
	view, err := s.docs.Get(r.Context(), req.DocumentID, owner, req.Lang)
	if err != nil {
		respondError(w, err)
		return
	}
	answer, err := s.chat.Ask(r.Context(), view.Content, req.Message)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"response": answer})
}

func (s *Server) allowedType(contentType string) bool {
	// DetectContentType may append a charset suffix.
	base := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, allowed := range s.cfg.AllowedTypes {
		if allowed == base {
			return true
		}
	}
	return false
}

func sniffPrefix(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

var kindStatus = map[fault.Kind]int{
	fault.InvalidInput:        http.StatusBadRequest,
	fault.Unauthorized:        http.StatusUnauthorized,
	fault.NotFound:            http.StatusNotFound,
	fault.Timeout:             http.StatusGatewayTimeout,
	fault.ProviderUnavailable: http.StatusBadGateway,
	fault.StorageWriteFailed:  http.StatusInternalServerError,
	fault.StorageReadFailed:   http.StatusInternalServerError,
	fault.Inconsistent:        http.StatusInternalServerError,
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := "internal error"
	var fe *fault.Error
	if errors.As(err, &fe) {
		if mapped, ok := kindStatus[fe.Kind]; ok {
			status = mapped
		}
		detail = fe.Detail
	}
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	respondJSON(w, status, map[string]string{"error": detail})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
