// Package gin exposes registered extractors over HTTP using the gin router.
package gin

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/manhwa"
	"github.com/gin-gonic/gin"
)

// DefaultShutdownTimeout bounds graceful shutdown in Close.
const DefaultShutdownTimeout = 5 * time.Second

// Client-visible error messages. Operation failures never echo the
// underlying error.
const (
	MsgPluginNotFound  = "Plugin not found"
	MsgWorkFailed      = "Failed to get manhwa"
	MsgSearchFailed    = "Failed to get manhwa list"
	MsgChapterFailed   = "Failed to get chapter images"
	MsgNotFound        = "Not found"
	MsgInternalFailure = "Internal server error"
)

// Server dispatches requests to extractors resolved by key.
type Server struct {
	ln     net.Listener
	server *http.Server
	router *gin.Engine

	extractors manhwa.ExtractorLookup
	events     http.Handler
	logger     *slog.Logger

	// Addr is the listen address used by Open.
	Addr string

	ShutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access lines and operation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEvents mounts h at /plugins/events. Without it the route answers 404.
func WithEvents(h http.Handler) Option {
	return func(s *Server) {
		s.events = h
	}
}

// NewServer creates a Server that resolves extractors through lookup.
func NewServer(lookup manhwa.ExtractorLookup, opts ...Option) *Server {
	s := &Server{
		extractors:      lookup,
		logger:          slog.New(slog.DiscardHandler),
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = gin.New()
	// Chapter URLs arrive as a single percent-encoded segment.
	s.router.UseRawPath = true
	s.router.UnescapePathValues = true
	s.router.Use(requestID(), accessLog(s.logger), recovery(s.logger))
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgNotFound})
	})

	s.router.GET("/plugins", s.handleListPlugins)
	s.router.GET("/plugins/events", s.handleEvents)
	s.router.GET("/plugins/:key", s.handleIdentity)
	s.router.GET("/:key/manhwa/:id", s.handleWork)
	s.router.GET("/:key/search/:name", s.handleSearch)
	s.router.GET("/:key/chapter/:url", s.handleChapter)

	// The router never backtracks out of /plugins/:key, so a plugin keyed
	// "plugins" gets its operation routes spelled out.
	s.router.GET("/plugins/manhwa/:id", withKey("plugins"), s.handleWork)
	s.router.GET("/plugins/search/:name", withKey("plugins"), s.handleSearch)
	s.router.GET("/plugins/chapter/:url", withKey("plugins"), s.handleChapter)

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Open starts listening on Addr and serves in the background.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return manhwa.Errorf(manhwa.EINVALID, "listen on %s: %v", s.Addr, err)
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "err", err)
		}
	}()
	s.logger.Info("http server listening", "addr", s.ln.Addr().String())
	return nil
}

// URL returns the base URL of the listening server, or "" before Open.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Close stops accepting connections and waits up to ShutdownTimeout for
// in-flight requests.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleListPlugins(c *gin.Context) {
	c.JSON(http.StatusOK, s.extractors.Keys())
}

func (s *Server) handleEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgNotFound})
		return
	}
	s.events.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleIdentity(c *gin.Context) {
	ext, ok := s.extractor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ext.Identity())
}

func (s *Server) handleWork(c *gin.Context) {
	ext, ok := s.extractor(c)
	if !ok {
		return
	}
	work, err := ext.FetchWorkByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, MsgWorkFailed, err)
		return
	}
	c.JSON(http.StatusOK, work)
}

func (s *Server) handleSearch(c *gin.Context) {
	ext, ok := s.extractor(c)
	if !ok {
		return
	}
	works, err := ext.SearchByTitle(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.fail(c, MsgSearchFailed, err)
		return
	}
	c.JSON(http.StatusOK, works)
}

func (s *Server) handleChapter(c *gin.Context) {
	ext, ok := s.extractor(c)
	if !ok {
		return
	}
	images, err := ext.FetchChapterPages(c.Request.Context(), c.Param("url"))
	if err != nil {
		s.fail(c, MsgChapterFailed, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

// extractor resolves the :key parameter. It writes the error response and
// returns false when the key cannot be resolved.
func (s *Server) extractor(c *gin.Context) (manhwa.Extractor, bool) {
	key := c.Param("key")
	ext, err := s.extractors.Lookup(key)
	if err == nil {
		return ext, true
	}
	if manhwa.ErrorCode(err) == manhwa.ENOTFOUND {
		c.JSON(http.StatusNotFound, gin.H{"error": MsgPluginNotFound})
		return nil, false
	}
	s.fail(c, MsgInternalFailure, err)
	return nil, false
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	s.logger.Error(msg,
		"key", c.Param("key"),
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey),
		"code", manhwa.ErrorCode(err),
		"err", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
