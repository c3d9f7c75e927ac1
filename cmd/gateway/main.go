package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"audio-summarizer/internal/app"
	"audio-summarizer/internal/engine"
	"audio-summarizer/internal/extract"
	"audio-summarizer/internal/httputil"
	"audio-summarizer/internal/preference"
	"audio-summarizer/internal/rouge"
	"audio-summarizer/internal/store"
	"audio-summarizer/internal/transcriber"
	"audio-summarizer/internal/uploads"
)

const (
	msgSelectFile = "Please select a file"
	listJobsLimit = 50
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".txt":  true,
	".pdf":  true,
}

type preferenceRequest struct {
	Method  string `json:"method" validate:"required,oneof=local remote python gemini"`
	ModelID string `json:"modelId" validate:"max=200"`
}

type uploadResponse struct {
	JobID         uuid.UUID     `json:"jobId"`
	Message       string        `json:"message"`
	Transcription string        `json:"transcription"`
	Summary       string        `json:"summary"`
	Metrics       rouge.Metrics `json:"metrics"`
	UseRemote     bool          `json:"useRemote"`
	ModelID       string        `json:"modelId,omitempty"`
}

type modelInfo struct {
	Name string `json:"name"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	if mem, ok := deps.Preferences.(*preference.MemoryStore); ok {
		go mem.RunJanitor(ctx, 10*time.Minute)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	deps.Log.Info("gateway listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		deps.Log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	r.Group(func(r chi.Router) {
		r.Use(httputil.Session(deps.Config.SessionTTL))

		r.Post("/api/uploads", uploadHandler(deps))
		r.Get("/api/jobs", listJobsHandler(deps))
		r.Get("/api/jobs/{id}", jobHandler(deps))
		r.Get("/api/preferences", getPreferencesHandler(deps))
		r.Post("/api/preferences", savePreferencesHandler(deps))
		r.Get("/api/models", modelsHandler(deps))
		r.Get("/files", listFilesHandler(deps))
		r.Get("/files/{filename}", serveFileHandler(deps))
	})
	return r
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := httputil.SessionID(ctx)

		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusRequestEntityTooLarge)
			return
		}
		// Leave room for the multipart envelope around the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+1<<20)

		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), err, http.StatusRequestEntityTooLarge)
				return
			}
			httputil.Fail(deps.Log, w, msgSelectFile, err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size == 0 {
			httputil.Fail(deps.Log, w, msgSelectFile, nil, http.StatusBadRequest)
			return
		}
		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusRequestEntityTooLarge)
			return
		}
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			httputil.Fail(deps.Log, w, "unsupported file type (audio, TXT or PDF expected)", nil, http.StatusBadRequest)
			return
		}

		path, err := deps.Uploads.Save(header.Filename, file)
		if err != nil {
			if errors.Is(err, uploads.ErrInvalidName) {
				httputil.Fail(deps.Log, w, "invalid file name", err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "failed to store file", err, http.StatusInternalServerError)
			return
		}
		input, err := extract.Prepare(path)
		if err != nil {
			httputil.Fail(deps.Log, w, "could not extract text from document", err, http.StatusUnprocessableEntity)
			return
		}

		pref, err := deps.Preferences.Get(ctx, sessionID)
		if err != nil {
			deps.Log.Warn("failed to load preference, using local summary", "err", err, "session_id", sessionID)
			pref = nil
		}

		filename := filepath.Base(path)
		job, err := deps.Store.CreateJob(ctx, sessionID, filename)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to record job", err, http.StatusInternalServerError)
			return
		}

		if async, _ := strconv.ParseBool(r.FormValue("async")); async {
			if !deps.Jobs.Async() {
				failJob(ctx, deps, job.ID, "asynchronous processing is not configured")
				httputil.Fail(deps.Log, w, "asynchronous processing is not configured", nil, http.StatusServiceUnavailable)
				return
			}
			if err := deps.Jobs.Enqueue(ctx, job, input, pref); err != nil {
				httputil.Fail(deps.Log.With("job_id", job.ID), w, "failed to enqueue file; please retry", err, http.StatusServiceUnavailable)
				return
			}
			httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
				"job_id": job.ID.String(),
				"status": store.StatusProcessing,
			})
			return
		}

		out, err := deps.Jobs.Run(ctx, job, input, pref)
		if err != nil {
			var toolErr *transcriber.ExternalToolError
			if errors.As(err, &toolErr) {
				httputil.Fail(deps.Log.With("job_id", job.ID), w, "Failed to process file: "+toolErr.Message, err, http.StatusBadGateway)
				return
			}
			httputil.Fail(deps.Log.With("job_id", job.ID), w, "failed to process file", err, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, newUploadResponse(job.ID, filename, out))
	}
}

func newUploadResponse(jobID uuid.UUID, filename string, out engine.Outcome) uploadResponse {
	return uploadResponse{
		JobID:         jobID,
		Message:       "You successfully uploaded " + filename + " and processed it!",
		Transcription: out.Transcription,
		Summary:       out.Summary,
		Metrics:       out.Metrics,
		UseRemote:     out.UsedRemote,
		ModelID:       out.ModelID,
	}
}

func failJob(ctx context.Context, deps app.Deps, id uuid.UUID, message string) {
	if err := deps.Store.FailJob(ctx, id, message); err != nil {
		deps.Log.Error("failed to mark job failed", "job_id", id, "err", err)
	}
}

func jobHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		job, err := deps.Store.GetJob(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrJobNotFound) {
				httputil.Fail(deps.Log, w, "job not found", err, http.StatusNotFound)
				return
			}
			httputil.Fail(deps.Log, w, "failed to load job", err, http.StatusInternalServerError)
			return
		}
		// Jobs are only visible to the session that created them.
		if job.SessionID != httputil.SessionID(r.Context()) {
			httputil.Fail(deps.Log, w, "job not found", nil, http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, job)
	}
}

func listJobsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := deps.Store.ListJobs(r.Context(), httputil.SessionID(r.Context()), listJobsLimit)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list jobs", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	}
}

func getPreferencesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pref, err := deps.Preferences.Get(r.Context(), httputil.SessionID(r.Context()))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load preferences", err, http.StatusInternalServerError)
			return
		}
		if pref == nil {
			pref = &preference.Preference{Method: preference.MethodLocal}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"method":  string(pref.Method),
			"modelId": pref.ModelID,
		})
	}
}

func savePreferencesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req preferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		req.Method = strings.ToLower(strings.TrimSpace(req.Method))
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		method, err := preference.ParseMethod(req.Method)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid method", err, http.StatusBadRequest)
			return
		}

		pref := preference.Preference{Method: method, ModelID: strings.TrimSpace(req.ModelID)}
		if err := deps.Preferences.Put(r.Context(), httputil.SessionID(r.Context()), pref); err != nil {
			httputil.Fail(deps.Log, w, "failed to save preferences", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func modelsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Models == nil {
			httputil.Fail(deps.Log, w, "no remote provider configured", nil, http.StatusServiceUnavailable)
			return
		}
		names, err := deps.Models.ListModels(r.Context())
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list models", err, http.StatusBadGateway)
			return
		}
		models := make([]modelInfo, 0, len(names))
		for _, n := range names {
			models = append(models, modelInfo{Name: n})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"models": models})
	}
}

func listFilesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := deps.Uploads.List()
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list files", err, http.StatusInternalServerError)
			return
		}
		files := make([]map[string]string, 0, len(names))
		for _, n := range names {
			files = append(files, map[string]string{"name": n, "url": "/files/" + n})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"files": files})
	}
}

func serveFileHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		path, err := deps.Uploads.Path(name)
		if err != nil {
			if errors.Is(err, uploads.ErrNotFound) || errors.Is(err, uploads.ErrInvalidName) {
				httputil.Fail(deps.Log, w, "file not found", err, http.StatusNotFound)
				return
			}
			httputil.Fail(deps.Log, w, "failed to open file", err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(path)))
		http.ServeFile(w, r, path)
	}
}
