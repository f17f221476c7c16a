// Package sandbox is an in-memory stand-in for the Realms admin API.
//
// It speaks the same envelope and session rules as a real deployment so the
// CLI and the console views can be exercised without one. State lives in
// memory and is reseeded on every start.
package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

// Options configures a Server.
type Options struct {
	UserID  int64
	Session string
	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool
	Logger  *slog.Logger
	Now     func() time.Time
}

// Server is the sandbox admin API server
type Server struct {
	router  *gin.Engine
	state   *state
	metrics *metrics
	log     *slog.Logger

	userID  int64
	session string

	faultsMu sync.Mutex
	faults   []*Fault
}

// NewServer creates a seeded sandbox server
func NewServer(opts Options) *Server {
	if opts.UserID <= 0 {
		opts.UserID = 1
	}
	if opts.Session == "" {
		opts.Session = "sandbox-session"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	router := gin.New()
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.MaxMultipartMemory = maxReplyMemory

	s := &Server{
		router:  router,
		state:   newState(opts.Now),
		log:     opts.Logger,
		userID:  opts.UserID,
		session: opts.Session,
	}
	s.state.seed(opts.UserID)

	router.Use(gin.Recovery(), s.requestID())
	if opts.Metrics {
		s.metrics = newMetrics()
		router.Use(s.metrics.middleware())
		router.GET("/metrics", gin.WrapH(s.metrics.handler()))
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api", s.requireSession(), s.injectFaults())
	s.registerChannelGroups(apiGroup.Group("/admin/channel-groups"))
	s.registerMainGroups(apiGroup.Group("/admin/main-groups"))
	s.registerChannels(apiGroup.Group("/channel"))
	s.registerUsers(apiGroup.Group("/admin/users"))
	s.registerTickets(apiGroup.Group("/admin/tickets"))
	s.registerOAuthApps(apiGroup.Group("/admin/oauth-apps"))
	s.registerAnnouncements(apiGroup.Group("/admin/announcements"))
	s.registerPaymentChannels(apiGroup.Group("/admin/payment-channels"))
	s.registerSubscriptions(apiGroup.Group("/admin/subscriptions"), apiGroup.Group("/admin/orders"))
	s.registerSettings(apiGroup.Group("/admin/settings"))

	return s
}

// Handler returns the HTTP handler, for httptest or embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("sandbox listening", "addr", addr, "user_id", s.userID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func ok(c *gin.Context, data any) {
	if data == nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func okMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// fail answers the way Realms does: HTTP 200 with success=false.
func fail(c *gin.Context, message string) {
	c.Set(failedKey, true)
	c.JSON(http.StatusOK, gin.H{"success": false, "message": message})
}

func notFound(c *gin.Context) {
	c.Set(failedKey, true)
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not Found"})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		fail(c, name+" 不合法")
		return 0, false
	}
	return id, true
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, "参数错误")
		return false
	}
	return true
}

func created(c *gin.Context, id int64) {
	ok(c, api.Created{ID: id})
}
