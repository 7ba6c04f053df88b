package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"goaliegen/internal/adapters/email"
	"goaliegen/internal/adapters/http/metrics"
	"goaliegen/internal/adapters/http/middleware"
	modalStore "goaliegen/internal/adapters/storage/modal"
	"goaliegen/internal/application/orchestrators"
	"goaliegen/internal/application/projections"
	"goaliegen/internal/domain/analytics"
	"goaliegen/internal/domain/document"
	"goaliegen/internal/domain/upload"
)

//go:embed templates/*.html content/*.md
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps holds everything the handlers need.
type Deps struct {
	Modals    modalStore.Store
	Assembler document.Assembler
	Recorder  analytics.Recorder
	Stats     projections.StatsStore
	Sender    email.Sender // nil hides the email form
	Materials fs.FS
	Metrics   *metrics.Metrics // optional

	SiteURL        string
	CSRFKey        []byte // 32 bytes
	SecureCookies  bool
	TrustedOrigins []string
	SlowRequest    time.Duration

	GenerateID func() string
	Now        func() time.Time
}

// Global dependencies (set by NewMux)
var deps Deps

// RateLimitPerMinute controls the per-IP limit on generation and email posts. Tests can increase this.
var RateLimitPerMinute = 20

// maxBody leaves room for the form fields around a maximum size logo.
const maxBody = upload.MaxImageBytes + 1<<20

// NewMux wires HTTP handlers for the app.
func NewMux(d Deps) http.Handler {
	if d.GenerateID == nil {
		d.GenerateID = uuid.NewString
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.SiteURL = strings.TrimRight(d.SiteURL, "/")
	deps = d

	limiter := middleware.NewRateLimiter(RateLimitPerMinute, time.Minute)
	limited := middleware.RateLimit(limiter)

	mux := http.NewServeMux()
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /{$}", handleIndex)
	mux.HandleFunc("POST /modals", handleOpenModal)
	mux.HandleFunc("GET /modals/{id}", handleModal)
	mux.Handle("POST /modals/{id}/generate", limited(http.HandlerFunc(handleGenerate)))
	mux.HandleFunc("GET /modals/{id}/download", handleDownload)
	mux.Handle("POST /modals/{id}/email", limited(http.HandlerFunc(handleEmail)))
	mux.HandleFunc("POST /modals/{id}/close", handleClose)
	mux.HandleFunc("GET /materials/{file}", handleMaterial)
	mux.HandleFunc("GET /api/stats", handleStats)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Oversize posts skip the form parsing and get the modal back with the image problem.
	protect := middleware.CSRF(d.CSRFKey, d.SecureCookies, d.TrustedOrigins)
	tooLarge := http.NewServeMux()
	tooLarge.HandleFunc("GET /modals/{id}/generate", handleGenerateTooLarge)
	tooLarge.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, http.StatusRequestEntityTooLarge, "The request is too large.")
	})

	// Apply middleware: Timing -> Recover -> SecurityHeaders -> LimitBody -> CSRF -> Mux
	return middleware.Chain(mux,
		protect,
		middleware.LimitBody(maxBody, protect(tooLarge)),
		middleware.SecurityHeaders,
		middleware.Recover,
		middleware.Timing(d.Metrics, d.SlowRequest),
	)
}

// observer returns the metrics as an orchestrator Observer, or nil.
func observer() orchestrators.Observer {
	if deps.Metrics == nil {
		return nil
	}
	return deps.Metrics
}
