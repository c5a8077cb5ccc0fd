package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/investor-scout/internal/browser"
	"github.com/sells-group/investor-scout/internal/config"
	"github.com/sells-group/investor-scout/internal/input"
	"github.com/sells-group/investor-scout/internal/pipeline"
	"github.com/sells-group/investor-scout/internal/sink"
	"github.com/sells-group/investor-scout/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the batch control HTTP API",
	Long:  "Serves upload, start, status, stop, and download endpoints for driving batches remotely. One batch runs at a time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		mgr := browser.NewManager(cfg.Browser)
		defer mgr.Close() //nolint:errcheck

		// Server batches pace differently than CLI ones.
		batchCfg := cfg.Batch
		if cfg.Server.InvestorDelay.MaxSecs > 0 {
			batchCfg.InvestorDelay = cfg.Server.InvestorDelay
		}
		runner, err := buildRunner(mgr, batchCfg)
		if err != nil {
			return err
		}

		api := &serverAPI{cfg: cfg.Server, runner: runner, st: st}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(ctx, api),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
		err = g.Wait()

		// The signal also cancelled the in-flight batch; wait for its
		// final save and terminal status update before closing the
		// store and browser.
		api.wg.Wait()
		return err
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// serverAPI carries the serve command's shared state: the batch runner, the
// history store, and the handle of the in-flight batch.
type serverAPI struct {
	cfg    config.ServerConfig
	runner *pipeline.Runner
	st     store.Store

	mu      sync.Mutex
	batch   *pipeline.Batch
	batchID string
	wg      sync.WaitGroup
}

// buildRouter assembles the control API. Batches started over HTTP run on
// ctx, so a server shutdown stops them cooperatively.
func buildRouter(ctx context.Context, api *serverAPI) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/upload", api.handleUpload)
	r.Post("/start", func(w http.ResponseWriter, req *http.Request) {
		api.startBatch(ctx, w, req)
	})
	r.Get("/status", api.handleStatus)
	r.Post("/stop", api.handleStop)
	r.Get("/download/{filename}", api.handleDownload)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

type uploadResponse struct {
	Success  bool     `json:"success"`
	Filename string   `json:"filename"`
	Count    int      `json:"count"`
	Preview  []string `json:"preview"`
}

func (a *serverAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(a.cfg.MaxUploadMB)<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", a.cfg.MaxUploadMB))
			return
		}
		jsonError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		jsonError(w, http.StatusBadRequest, "unsupported file type, use .csv or .xlsx")
		return
	}

	if err := os.MkdirAll(a.cfg.UploadDir, 0o755); err != nil {
		jsonError(w, http.StatusInternalServerError, "create upload dir")
		return
	}

	name := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8], ext)
	dst := filepath.Join(a.cfg.UploadDir, name)
	if err := saveUpload(dst, file); err != nil {
		zap.L().Error("serve: save upload", zap.String("filename", header.Filename), zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "save upload")
		return
	}

	names, err := input.ReadNames(dst)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "parse upload: "+err.Error())
		return
	}

	preview := names
	if len(preview) > 10 {
		preview = preview[:10]
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:  true,
		Filename: name,
		Count:    len(names),
		Preview:  preview,
	})
}

func saveUpload(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrap(err, "create upload file")
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close() //nolint:errcheck
		return eris.Wrap(err, "write upload file")
	}
	return eris.Wrap(out.Close(), "close upload file")
}

type startRequest struct {
	Filename string `json:"filename"`
	Names    string `json:"names"`
}

type startResponse struct {
	Success     bool   `json:"success"`
	BatchID     string `json:"batch_id"`
	ResultsFile string `json:"results_file"`
}

func (a *serverAPI) startBatch(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var names []string
	switch {
	case req.Names != "":
		names = pipeline.NormalizeNames(req.Names)
	case req.Filename != "":
		// Uploaded files resolve inside the upload dir only.
		path := filepath.Join(a.cfg.UploadDir, filepath.Base(req.Filename))
		var err error
		names, err = input.ReadNames(path)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "read upload: "+err.Error())
			return
		}
	default:
		jsonError(w, http.StatusBadRequest, "filename or names is required")
		return
	}
	if len(names) == 0 {
		jsonError(w, http.StatusBadRequest, "no investor names in input")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeLocked() {
		jsonError(w, http.StatusConflict, "a batch is already running")
		return
	}

	if err := os.MkdirAll(a.cfg.ResultsDir, 0o755); err != nil {
		jsonError(w, http.StatusInternalServerError, "create results dir")
		return
	}
	resultsFile := fmt.Sprintf("results_%s.csv", time.Now().Format("20060102_150405"))
	outPath := filepath.Join(a.cfg.ResultsDir, resultsFile)

	csvSink, err := sink.NewCSVSink(outPath)
	if err != nil {
		zap.L().Error("serve: create results sink", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "create results sink")
		return
	}

	rec, err := a.st.CreateBatch(r.Context(), len(names), resultsFile)
	if err != nil {
		zap.L().Error("serve: create batch record", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "create batch record")
		return
	}
	snk := sink.Multi{csvSink, store.NewBatchSink(a.st, rec.ID, resultsFile)}

	b, err := a.runner.Start(ctx, names, snk, nil)
	if err != nil {
		if errors.Is(err, pipeline.ErrBatchActive) {
			jsonError(w, http.StatusConflict, "a batch is already running")
			return
		}
		zap.L().Error("serve: start batch", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "start batch")
		return
	}
	a.batch, a.batchID = b, rec.ID

	a.wg.Add(1)
	go a.finalize(b, rec.ID, len(names))

	zap.L().Info("batch started",
		zap.String("batch_id", rec.ID),
		zap.Int("investors", len(names)),
		zap.String("results_file", resultsFile),
	)

	writeJSON(w, http.StatusAccepted, startResponse{
		Success:     true,
		BatchID:     rec.ID,
		ResultsFile: resultsFile,
	})
}

// finalize records the terminal status once the batch goroutine exits.
func (a *serverAPI) finalize(b *pipeline.Batch, batchID string, total int) {
	defer a.wg.Done()
	results, err := b.Results()
	status, errMsg := finalStatus(err, len(results), total)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.st.CompleteBatch(ctx, batchID, status, errMsg); err != nil {
		zap.L().Warn("serve: record final batch status", zap.String("batch_id", batchID), zap.Error(err))
		return
	}
	zap.L().Info("batch finished", zap.String("batch_id", batchID), zap.String("status", string(status)))
}

func (a *serverAPI) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.runner.Status().Snapshot())
}

func (a *serverAPI) handleStop(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.activeLocked() {
		jsonError(w, http.StatusConflict, "no active batch")
		return
	}

	a.batch.Stop()
	zap.L().Info("batch stop requested", zap.String("batch_id", a.batchID))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *serverAPI) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))
	if name == "." || name == string(filepath.Separator) {
		jsonError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(a.cfg.ResultsDir, name)
	if _, err := os.Stat(path); err != nil {
		jsonError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// activeBatch returns the current batch handle, nil when none has started.
func (a *serverAPI) activeBatch() *pipeline.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.batch
}

// activeLocked reports whether a batch is still running. Callers hold a.mu.
func (a *serverAPI) activeLocked() bool {
	if a.batch == nil {
		return false
	}
	select {
	case <-a.batch.Done():
		return false
	default:
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
