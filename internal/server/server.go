// Package server exposes the classifier over HTTP: upload a CSV of
// log lines, get the same CSV back with a target_label column.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cascadehq/cascadelog/internal/csvio"
	"github.com/cascadehq/cascadelog/internal/model"
)

// Classifier is the batch contract the server depends on: same row
// count and order as the input, always.
type Classifier interface {
	ClassifyBatch(ctx context.Context, records []model.LogRecord) []model.ClassificationResult
}

// Server serves the upload endpoint over echo.
type Server struct {
	echo       *echo.Echo
	classifier Classifier
	addr       string
}

// New creates a Server around the given classifier.
func New(classifier Classifier, addr string) (*Server, error) {
	if classifier == nil {
		return nil, fmt.Errorf("server: classifier is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start))
			return err
		}
	})

	s := &Server{echo: e, classifier: classifier, addr: addr}
	e.POST("/classify", s.handleClassify)
	e.GET("/healthz", s.handleHealth)
	e.GET("/sample", s.handleSample)
	return s, nil
}

// Start begins serving and blocks until the listener fails or the
// server is shut down.
func (s *Server) Start() error {
	err := s.echo.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleClassify accepts a multipart CSV upload, classifies every row,
// and responds with the labeled CSV as a download.
func (s *Server) handleClassify(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "upload a CSV file under the 'file' field")
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".csv") {
		return echo.NewHTTPError(http.StatusBadRequest, "file must be a CSV")
	}

	f, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer f.Close()

	batch, err := csvio.Read(f)
	if err != nil {
		if errors.Is(err, csvio.ErrMissingColumns) {
			return echo.NewHTTPError(http.StatusBadRequest, csvio.ErrMissingColumns.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	results := s.classifier.ClassifyBatch(c.Request().Context(), batch.Records())

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="cascadelog_results.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	if err := batch.Write(c.Response(), results); err != nil {
		// Headers are gone; all we can do is log.
		slog.Error("writing labeled csv", "error", err)
		return err
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleSample serves the example CSV format callers should follow.
func (s *Server) handleSample(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="cascadelog_sample.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(csvio.Sample()))
}
