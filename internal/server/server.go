// =============================================================================
// Sales Order Aggregator - HTTP Server
// =============================================================================
//
// This module exposes the parser over HTTP.
//
// ROUTES:
//   GET  /test    - Health check
//   POST /handle  - Parse orders and return the status envelope
//
// POST /handle accepts:
//   - application/json     {"data": "<tab-separated text>"}
//   - multipart/form-data  a "file" field holding .xlsx or tab-separated text
//   - any other type       the raw body as tab-separated text
//
// RESPONSES (HTTP 200, status in the body):
//   {"status": "204"}                 - nothing was recorded
//   {"status": "206", "value": {...}} - the value contains row errors
//   {"status": "200", "value": {...}} - every admitted row was valid
//
// Malformed requests get HTTP 400 and {"error": "..."}.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-order-aggregator/internal/config"
	"github.com/ginjaninja78/sales-order-aggregator/internal/jsonwriter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
	"github.com/ginjaninja78/sales-order-aggregator/internal/xlsxparser"
)

// RequestIDHeader carries the request id on responses.
const RequestIDHeader = "X-Request-ID"

// Server is the HTTP adapter around an orders.Parser.
type Server struct {
	cfg    *config.MainConfig
	parser *orders.Parser
	logger *zap.Logger
	engine *gin.Engine
}

// HandleRequest is the JSON body of POST /handle.
type HandleRequest struct {
	Data string `json:"data"`
}

// New builds the server and its routes. A nil logger disables logging.
func New(cfg *config.MainConfig, parser *orders.Parser, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		parser: parser,
		logger: logger,
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.limitBody(), cors.Default())
	s.engine.GET("/test", s.handleTest)
	s.engine.POST("/handle", s.handleOrders)

	return s
}

// Handler returns the http.Handler serving the routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on cfg.ListenAddr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.MaxBodyBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
		}
		c.Next()
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "200", "message": "hello! Test is a success"})
}

func (s *Server) handleOrders(c *gin.Context) {
	table, err := s.readTable(c)
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		s.logger.Warn("rejected request",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	agg, err := s.parser.ParseTable(table)
	if err != nil && !errors.Is(err, orders.ErrNoHeader) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, jsonwriter.NewEnvelope(agg))
}

// readTable extracts the order table from the request body.
func (s *Server) readTable(c *gin.Context) (*tsvparser.Table, error) {
	switch c.ContentType() {
	case gin.MIMEJSON:
		var req HandleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return tsvparser.Parse(req.Data), nil

	case gin.MIMEMultipartPOSTForm:
		return s.readUpload(c)

	default:
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return tsvparser.Parse(string(body)), nil
	}
}

func (s *Server) readUpload(c *gin.Context) (*tsvparser.Table, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file field: %w", err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		table, err := xlsxparser.ParseReader(f, s.cfg.XLSXOptions())
		if err != nil {
			return nil, err
		}
		table.SourceFile = header.Filename
		return table, nil
	}

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	table := tsvparser.Parse(string(body))
	table.SourceFile = header.Filename
	return table, nil
}
