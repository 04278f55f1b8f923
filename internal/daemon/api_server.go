package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rafaeljuniorvip/downyoutube/internal/api"
	"github.com/rafaeljuniorvip/downyoutube/internal/config"
	"github.com/rafaeljuniorvip/downyoutube/internal/logging"
	"github.com/rafaeljuniorvip/downyoutube/internal/logs"
	"github.com/rafaeljuniorvip/downyoutube/internal/media"
	"github.com/rafaeljuniorvip/downyoutube/internal/services"
	"github.com/rafaeljuniorvip/downyoutube/internal/tasks"
	"github.com/rafaeljuniorvip/downyoutube/internal/textutil"
	"github.com/rafaeljuniorvip/downyoutube/internal/workflow"
)

const (
	maxRequestBody      = 1 << 20
	defaultHistoryLimit = 50
	defaultLogLimit     = 100
	logFollowWait       = 10 * time.Second
	maxRequestIDLength  = 64
)

type apiServer struct {
	bind     string
	logPath  string
	logger   *slog.Logger
	daemon   *Daemon
	workflow *workflow.Manager
	handler  http.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		logPath:  cfg.LogPath(),
		logger:   logging.NewComponentLogger(logger, "api-server"),
		daemon:   d,
		workflow: d.workflow,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("POST /api/info", srv.handleInfo)
	mux.HandleFunc("POST /api/download", srv.handleSubmit)
	mux.HandleFunc("POST /api/batch", srv.handleBatch)
	mux.HandleFunc("GET /api/tasks/{id}", srv.handleTask)
	mux.HandleFunc("GET /api/tasks/{id}/entries", srv.handleTaskEntries)
	mux.HandleFunc("GET /api/progress/{id}", srv.handleTask)
	mux.HandleFunc("GET /api/queue", srv.handleQueue)
	mux.HandleFunc("DELETE /api/queue/{id}", srv.handleCancel)
	mux.HandleFunc("POST /api/queue/clear", srv.handleClear)
	mux.HandleFunc("GET /api/download-file/{id}", srv.handleTaskFile)
	mux.HandleFunc("GET /api/list-downloads", srv.handleListDownloads)
	mux.HandleFunc("GET /api/download-existing/{name}", srv.handleExistingFile)
	mux.HandleFunc("GET /api/history", srv.handleHistory)
	mux.HandleFunc("GET /api/logs", srv.handleLogs)

	srv.handler = requestIDMiddleware(authMiddleware(cfg.Paths.APIToken, mux))
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled", logging.String(logging.FieldEventType, "api_disabled"))
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

func (s *apiServer) stop() {
	if s.listener == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.listener = nil
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		LockFilePath: status.LockFilePath,
		DownloadDir:  status.DownloadDir,
		FreeBytes:    status.FreeBytes,
		HistoryPath:  status.HistoryPath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: api.FromDependencies(status.Dependencies),
	})
}

func (s *apiServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req api.InfoRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	meta, err := s.workflow.Info(r.Context(), req.URL, media.Credentials{Cookies: req.Cookies})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromMetadata(meta))
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if !s.decode(w, r, &req) {
		return
	}
	var kind tasks.Kind
	if raw := strings.TrimSpace(req.Type); raw != "" {
		parsed, ok := tasks.ParseKind(strings.ToLower(raw))
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid type %q", raw))
			return
		}
		kind = parsed
	}
	id, err := s.workflow.Submit(req.URL, kind, media.Credentials{Cookies: req.Cookies})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmitResponse{TaskID: id})
}

func (s *apiServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	items, err := s.workflow.EnqueueBatch(r.Context(), req.URLs, media.Credentials{Cookies: req.Cookies})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.BatchResponse{
		Message: fmt.Sprintf("%d item(s) added to the queue", len(items)),
		Items:   api.FromBatchItems(items),
	})
}

func (s *apiServer) handleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.workflow.Task(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTask(task))
}

func (s *apiServer) handleTaskEntries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	children, err := s.workflow.Entries(id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := api.TaskEntriesResponse{ParentID: id, Entries: make([]api.Task, 0, len(children))}
	for _, child := range children {
		resp.Entries = append(resp.Entries, api.FromTask(child))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromQueueView(s.workflow.ListQueue()))
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.workflow.Cancel(id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Message: fmt.Sprintf("task %s cancelled", id)})
}

func (s *apiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	removed := s.workflow.PurgeTerminal()
	s.writeJSON(w, http.StatusOK, api.ClearResponse{
		Message: fmt.Sprintf("%d finished item(s) removed from the queue", removed),
		Removed: removed,
	})
}

func (s *apiServer) handleTaskFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.workflow.OutputFile(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.serveFile(w, r, path)
}

func (s *apiServer) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	files, err := s.workflow.ListDownloads()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromDownloads(files))
}

func (s *apiServer) handleExistingFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.workflow.OpenDownload(r.PathValue("name"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.serveFile(w, r, path)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	records, err := s.workflow.History(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromHistory(records))
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := logs.TailOptions{Offset: -1, Limit: defaultLogLimit}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		opts.Offset = offset
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = limit
	}
	if follow, _ := strconv.ParseBool(query.Get("follow")); follow {
		opts.Follow = true
		opts.Wait = logFollowWait
	}
	if s.logPath == "" {
		s.writeJSON(w, http.StatusOK, api.LogsResponse{Lines: []string{}})
		return
	}
	result, err := logs.Tail(r.Context(), s.logPath, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeServiceError(w, r, err)
		return
	}
	lines := result.Lines
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Lines: lines, Offset: result.Offset})
}

func (s *apiServer) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	file, err := os.Open(path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := filepath.Base(path)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), file)
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			logging.String(logging.FieldEventType, "api_request_failed"),
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeError(w, status, services.Message(err))
}

func statusForError(err error) int {
	switch services.Classify(err) {
	case services.ClassValidation:
		return http.StatusBadRequest
	case services.ClassNotFound:
		return http.StatusNotFound
	case services.ClassConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

// requestIDMiddleware tags each request context with a correlation id,
// honouring a cleaned incoming X-Request-ID header.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := textutil.Token(r.Header.Get("X-Request-ID"), maxRequestIDLength)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}
