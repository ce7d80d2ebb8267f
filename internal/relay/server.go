package relay

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Teyk0o/wwsnb/internal/relay/events"
	"github.com/Teyk0o/wwsnb/internal/relay/middleware"
	"github.com/Teyk0o/wwsnb/pkg/config"
)

// App wires the hub, metrics and HTTP surface of the relay.
type App struct {
	logger    *slog.Logger
	hub       *Hub
	metrics   *Metrics
	publisher *events.Publisher
	wg        sync.WaitGroup
	http      *http.Server
	config    *config.Config

	mu    sync.Mutex
	conns map[uuid.UUID]*Conn

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config) (*App, error) {
	metrics := NewMetrics()

	var publisher *events.Publisher
	if cfg.Relay.AMQP.URL != "" {
		p, err := events.NewPublisher(cfg.Relay.AMQP.URL, cfg.Relay.AMQP.Exchange, logger)
		if err != nil {
			return nil, err
		}
		publisher = p
	}

	app := &App{
		logger:    logger,
		hub:       NewHub(logger, metrics, publisher),
		metrics:   metrics,
		publisher: publisher,
		config:    cfg,
		conns:     make(map[uuid.UUID]*Conn),
		ctx:       rootCtx,
	}

	mux := http.NewServeMux()
	upgradeHandler := http.HandlerFunc(app.upgradeHandler)
	mux.Handle("/ws",
		middleware.Chain(upgradeHandler,
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(app.logger),
			middleware.NewSessionGate(app.logger),
		),
	)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Relay.EnableMetrics {
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}

	app.http = &http.Server{Addr: cfg.Relay.Address, Handler: mux, BaseContext: func(l net.Listener) context.Context {
		return app.ctx
	}}

	return app, nil
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Relay starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("sessionToken", reqMeta.SessionToken),
	)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := NewConn(r.Context(), &a.wg, wsConn, reqMeta.SessionToken, a.logger)
	a.mu.Lock()
	a.conns[conn.ID()] = conn
	a.mu.Unlock()

	a.hub.Join(conn)
	conn.SetOnFrameHandler(a.hub.HandleFrame)
	conn.SetOnCloseHandler(func(c *Conn, err error) {
		connLogger.Info("Detaching connection", slog.String("connID", c.ID().String()))
		a.hub.Leave(c)
		a.mu.Lock()
		delete(a.conns, c.ID())
		a.mu.Unlock()
	})

	connLogger.Info("Connection established", slog.String("connID", conn.ID().String()))
	conn.Run()
	<-conn.Done()
}

// Shutdown runs the graceful teardown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down relay...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("Closing all active connections...")
	a.mu.Lock()
	conns := make([]*Conn, 0, len(a.conns))
	for _, c := range a.conns {
		conns = append(conns, c)
	}
	a.mu.Unlock()
	for _, c := range conns {
		c.Close(errors.New("graceful shutdown"))
	}

	a.wg.Wait()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("Failed to close event publisher", slog.Any("error", err))
		}
	}
	a.logger.Info("Relay shut down gracefully.")
	return nil
}
