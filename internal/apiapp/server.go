package apiapp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phillip-england/turntime/internal/envutil"
	"github.com/phillip-england/turntime/internal/leaderboard"
	"github.com/phillip-england/turntime/internal/middleware"
	"github.com/phillip-england/turntime/internal/render"
	"github.com/phillip-england/turntime/internal/report"
)

const (
	uploadField        = "files"
	failedCountHeader  = "X-Turntime-Failed"
	defaultMaxUploadMB = 20
)

type Config struct {
	Addr           string
	Thresholds     render.Thresholds
	MaxUploadBytes int64
}

func DefaultConfigFromEnv() (Config, error) {
	defaults := render.DefaultThresholds()
	green, err := envutil.FloatOrDefault("TURNTIME_GREEN", defaults.Green)
	if err != nil {
		return Config{}, err
	}
	yellowHi, err := envutil.FloatOrDefault("TURNTIME_YELLOW_HI", defaults.YellowHi)
	if err != nil {
		return Config{}, err
	}
	maxMB, err := envutil.IntOrDefault("TURNTIME_MAX_UPLOAD_MB", defaultMaxUploadMB)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Addr:           envutil.OrDefault("TURNTIME_ADDR", ":8080"),
		Thresholds:     render.Thresholds{Green: green, YellowHi: yellowHi},
		MaxUploadBytes: int64(maxMB) << 20,
	}, nil
}

type server struct {
	thresholds render.Thresholds
	maxUpload  int64
	renderer   *render.Renderer
	metrics    *report.Metrics
	logger     *log.Logger
}

type leaderboardResponse struct {
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	Rows         []leaderboard.Row `json:"rows"`
	Stats        leaderboard.Stats `json:"stats"`
	Grid         render.Grid       `json:"grid"`
	ImageData    string            `json:"imageData"`
	WorkbookData string            `json:"workbookData,omitempty"`
	ChartData    string            `json:"chartData,omitempty"`
}

type failureResponse struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type batchResponse struct {
	Leaderboards []leaderboardResponse `json:"leaderboards"`
	Errors       []failureResponse     `json:"errors"`
}

// NewHandler builds the HTTP surface. Metrics are registered on reg.
func NewHandler(cfg Config, logger *log.Logger, reg *prometheus.Registry) (http.Handler, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadMB << 20
	}
	if logger == nil {
		logger = log.Default()
	}
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &server{
		thresholds: cfg.Thresholds,
		maxUpload:  cfg.MaxUploadBytes,
		renderer:   renderer,
		metrics:    report.NewMetrics(reg),
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Get("/api/health", s.health)
	r.Post("/api/leaderboards", s.createLeaderboards)
	r.Post("/api/leaderboards/archive", s.createArchive)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	csp := strings.Join([]string{
		"default-src 'none'",
		"img-src 'self' data:",
		"frame-ancestors 'none'",
	}, "; ")

	return middleware.Chain(
		r,
		middleware.RequestID,
		middleware.AccessLog(logger),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
	), nil
}

func Run(ctx context.Context, cfg Config) error {
	handler, err := NewHandler(cfg, log.Default(), prometheus.NewRegistry())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("turntime listening on http://localhost%s", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) createLeaderboards(w http.ResponseWriter, r *http.Request) {
	pipeline, files, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := pipeline.RunFiles(files)
	resp := batchResponse{
		Leaderboards: make([]leaderboardResponse, 0, len(result.Artifacts)),
		Errors:       make([]failureResponse, 0, len(result.Failures)),
	}
	for _, art := range result.Artifacts {
		item := leaderboardResponse{
			Name:      art.Name,
			Title:     art.Title,
			Rows:      art.Board.Rows,
			Stats:     art.Board.Stats,
			Grid:      art.Grid,
			ImageData: dataURL("image/png", art.PNG),
		}
		if len(art.Workbook) > 0 {
			item.WorkbookData = dataURL("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", art.Workbook)
		}
		if len(art.Chart) > 0 {
			item.ChartData = dataURL("image/png", art.Chart)
		}
		resp.Leaderboards = append(resp.Leaderboards, item)
	}
	for _, f := range result.Failures {
		resp.Errors = append(resp.Errors, failureResponse{Name: f.Name, Error: f.Err.Error()})
	}

	status := http.StatusOK
	if len(resp.Leaderboards) == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *server) createArchive(w http.ResponseWriter, r *http.Request) {
	pipeline, files, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := report.DefaultArchiveName
	contentType := "application/zip"
	if strings.EqualFold(strings.TrimSpace(r.FormValue("format")), "tar.xz") {
		name = "leaderboards.tar.xz"
		contentType = "application/x-xz"
	}

	result := pipeline.RunFiles(files)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set(failedCountHeader, strconv.Itoa(len(result.Failures)))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteArchive(w, name, result); err != nil {
		s.logger.Printf("write archive: %v", err)
	}
}

func (s *server) parseUpload(w http.ResponseWriter, r *http.Request) (*report.Pipeline, []report.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, nil, errors.New("expected a multipart upload within the size limit")
	}

	th := s.thresholds
	var err error
	if th.Green, err = parseOptionalFloat(r.FormValue("green"), th.Green); err != nil {
		return nil, nil, fmt.Errorf("invalid green threshold: %w", err)
	}
	if th.YellowHi, err = parseOptionalFloat(r.FormValue("yellow_hi"), th.YellowHi); err != nil {
		return nil, nil, fmt.Errorf("invalid yellow_hi threshold: %w", err)
	}
	if err := th.Validate(); err != nil {
		return nil, nil, err
	}

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		return nil, nil, errors.New("at least one file is required")
	}
	files := make([]report.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadedFile(fh))
	}

	pipeline := &report.Pipeline{
		Thresholds: th,
		Renderer:   s.renderer,
		Workbook:   parseBoolQueryValue(r.FormValue("xlsx")),
		Chart:      parseBoolQueryValue(r.FormValue("chart")),
		Logger:     s.logger,
		Metrics:    s.metrics,
	}
	return pipeline, files, nil
}

func uploadedFile(fh *multipart.FileHeader) report.File {
	return report.File{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func parseOptionalFloat(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseBoolQueryValue(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
