// services/diag/server.go
package diag

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"motioncam-go/bus"
	"motioncam-go/services/metrics"
	"motioncam-go/services/scheduler"
	"motioncam-go/types"
)

const (
	DefaultEventLimit = 32
	shutdownTimeout   = 2 * time.Second
)

type Config struct {
	Listen     string
	DeviceID   string
	BootID     string
	Version    string
	EventLimit int
}

// Server is the local read-only diagnostics endpoint. It observes the node
// only through bus snapshots and the metrics registry.
type Server struct {
	cfg     Config
	router  *gin.Engine
	log     *zap.Logger
	started time.Time

	stateSub  *bus.Subscription
	linkSub   *bus.Subscription
	eventsSub *bus.Subscription

	mu     sync.RWMutex
	state  *types.NodeState
	link   *types.LinkStatus
	events []types.MotionEvent // oldest first, capped at EventLimit
}

// New subscribes to node topics on conn and builds the router. m may be nil.
func New(cfg Config, conn *bus.Connection, m *metrics.Metrics, log *zap.Logger) *Server {
	if cfg.EventLimit <= 0 {
		cfg.EventLimit = DefaultEventLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		log:       log,
		started:   time.Now(),
		stateSub:  conn.Subscribe(scheduler.TopicState),
		linkSub:   conn.Subscribe(scheduler.TopicLink),
		eventsSub: conn.Subscribe(scheduler.TopicEvents),
	}
	s.setupRoutes(m)
	return s
}

func (s *Server) setupRoutes(m *metrics.Metrics) {
	router := gin.New()
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(p gin.LogFormatterParams) string {
			s.log.Debug("diag request",
				zap.String("method", p.Method),
				zap.String("path", p.Path),
				zap.Int("status", p.StatusCode),
				zap.Duration("latency", p.Latency),
			)
			return ""
		},
	}))
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.GET("/events", s.handleEvents)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}
	s.router = router
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Watch folds bus messages into the served snapshot until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.stateSub.Channel():
			if !ok {
				return
			}
			if st, ok := msg.Payload.(types.NodeState); ok {
				s.mu.Lock()
				s.state = &st
				s.mu.Unlock()
			}
		case msg, ok := <-s.linkSub.Channel():
			if !ok {
				return
			}
			if ls, ok := msg.Payload.(types.LinkStatus); ok {
				s.mu.Lock()
				s.link = &ls
				s.mu.Unlock()
			}
		case msg, ok := <-s.eventsSub.Channel():
			if !ok {
				return
			}
			if ev, ok := msg.Payload.(types.MotionEvent); ok {
				s.addEvent(ev)
			}
		}
	}
}

func (s *Server) addEvent(ev types.MotionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= s.cfg.EventLimit {
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
	s.events = append(s.events, ev)
}

// Start serves on cfg.Listen until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.Watch(ctx)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	s.log.Info("diagnostics listening", zap.String("addr", s.cfg.Listen))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler implementations

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	body := gin.H{
		"device_id": s.cfg.DeviceID,
		"boot_id":   s.cfg.BootID,
		"version":   s.cfg.Version,
		"uptime_s":  int64(time.Since(s.started).Seconds()),
		"state":     *s.state,
	}
	if s.link != nil {
		body["link"] = *s.link
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleEvents(c *gin.Context) {
	s.mu.RLock()
	out := make([]types.MotionEvent, len(s.events))
	copy(out, s.events)
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"events": out})
}
