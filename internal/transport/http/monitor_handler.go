package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/oinktech/StockAPI/internal/errors"
)

// MonitorHandler serves the request monitor
type MonitorHandler struct {
	service      StockServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(service StockServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MonitorHandler {
	return &MonitorHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "monitor")),
		errorHandler: errorHandler,
	}
}

// Routes sets up the monitor routes
func (h *MonitorHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMonitor)
	r.Get("/chart", h.GetMonitorChart)
	return r
}

// GetMonitor returns the request count
func (h *MonitorHandler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Monitor())
}

// GetMonitorChart returns the request count as a PNG image
func (h *MonitorHandler) GetMonitorChart(w http.ResponseWriter, r *http.Request) {
	png, err := h.service.MonitorChart()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write monitor chart", slog.String("error", err.Error()))
	}
}
