package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"filesmanager/internal/blobstore"
	"filesmanager/internal/models"
	"filesmanager/internal/store"
)

const (
	readHeaderTimeout    = 5 * time.Second
	readTimeout          = 60 * time.Second
	writeTimeout         = 120 * time.Second
	idleTimeout          = 60 * time.Second
	shutdownTimeout      = 10 * time.Second
	defaultPurgeInterval = time.Hour
)

// Store is the persistence the HTTP surface needs.
type Store interface {
	store.UserStore
	store.FileStore
	store.SessionStore
	Ping(ctx context.Context) error
}

// JobQueue receives thumbnail jobs. Enqueue must not wait for the job to run.
type JobQueue interface {
	Enqueue(ctx context.Context, payload any) (*models.Job, error)
	Stats(ctx context.Context) (map[models.JobStatus]int, error)
}

// Config wires a Server.
type Config struct {
	Addr           string
	Store          Store
	Blobs          blobstore.BlobStore
	Queue          JobQueue
	Logger         *slog.Logger
	UploadMaxBytes int64
	PurgeInterval  time.Duration
	Now            func() time.Time

	// ConnectMaxFailures failed logins from one address within ConnectWindow
	// block that address for ConnectBlock. Zero values use defaults; a negative
	// ConnectMaxFailures disables the limit.
	ConnectMaxFailures int
	ConnectWindow      time.Duration
	ConnectBlock       time.Duration
}

// Server wraps HTTP handlers for the files manager API.
type Server struct {
	addr           string
	store          Store
	blobs          blobstore.BlobStore
	queue          JobQueue
	auth           *AuthService
	files          *FileService
	logger         *slog.Logger
	uploadMaxBytes int64
	purgeInterval  time.Duration
	connectLimiter *connectLimiter
}

// New creates a new server instance.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	uploadMax := cfg.UploadMaxBytes
	if uploadMax <= 0 {
		uploadMax = defaultUploadMaxBody
	}
	purgeInterval := cfg.PurgeInterval
	if purgeInterval <= 0 {
		purgeInterval = defaultPurgeInterval
	}

	maxFailures := cfg.ConnectMaxFailures
	if maxFailures == 0 {
		maxFailures = defaultConnectMaxFailures
	}
	window := cfg.ConnectWindow
	if window <= 0 {
		window = defaultConnectWindow
	}
	block := cfg.ConnectBlock
	if block <= 0 {
		block = defaultConnectBlock
	}

	return &Server{
		addr:           cfg.Addr,
		store:          cfg.Store,
		blobs:          cfg.Blobs,
		queue:          cfg.Queue,
		auth:           NewAuthService(cfg.Store, cfg.Store, cfg.Now),
		files:          NewFileService(cfg.Store, cfg.Blobs, cfg.Queue, logger),
		logger:         logger,
		uploadMaxBytes: uploadMax,
		purgeInterval:  purgeInterval,
		connectLimiter: newConnectLimiter(maxFailures, window, block),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Serve runs the HTTP server and the expired-session purge loop until ctx ends,
// then shuts the listener down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log().Info("starting server", "addr", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.auth.RunPurge(gctx, s.purgeInterval, s.log())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.log().Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
