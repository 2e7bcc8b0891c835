package server

import (
	"embed"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/ytget/yt-splitter/internal/store"
)

//go:embed static/index.html
var staticFiles embed.FS

// Defaults
const (
	DefaultWorkers = 2
	ChunkSize      = 512 * 1024
)

// Deps are the collaborators of the HTTP layer
type Deps struct {
	Extractor Extractor
	Splitter  Splitter
	Playlists PlaylistParser
	Index     store.Index
	Workers   int     // concurrent /download and /split jobs
	RateLimit float64 // API requests per second, 0 disables limiting
	RateBurst int
	Logger    logrus.FieldLogger
}

// Server routes API requests to the extraction and segmentation services
type Server struct {
	extractor Extractor
	splitter  Splitter
	playlists PlaylistParser
	index     store.Index
	jobs      *semaphore.Weighted
	limiter   *rate.Limiter
	log       logrus.FieldLogger
	handler   http.Handler
}

// New builds the router and wraps it with logging, panic recovery and CORS
func New(deps Deps) *Server {
	workers := deps.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	index := deps.Index
	if index == nil {
		index = store.NewMemoryIndex()
	}

	s := &Server{
		extractor: deps.Extractor,
		splitter:  deps.Splitter,
		playlists: deps.Playlists,
		index:     index,
		jobs:      semaphore.NewWeighted(int64(workers)),
		log:       log,
	}
	if deps.RateLimit > 0 {
		burst := deps.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(deps.RateLimit), burst)
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/fetch", s.limited(s.handleFetch)).Methods(http.MethodPost)
	r.HandleFunc("/download", s.limited(s.handleDownload)).Methods(http.MethodGet)
	r.HandleFunc("/split", s.limited(s.handleSplit)).Methods(http.MethodGet)
	r.HandleFunc(SegmentPath, s.handleSegment).Methods(http.MethodGet)
	r.HandleFunc("/playlist", s.limited(s.handlePlaylist)).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition", RequestIDHeader},
	})

	s.handler = s.requestLogger(s.recoverer(c.Handler(r)))
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
