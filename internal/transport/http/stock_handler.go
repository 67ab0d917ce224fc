package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/internal/exporter"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// maxRequestBody caps the JSON body of stock-data requests
const maxRequestBody = 1 << 20

// StockHandler handles stock-data HTTP requests with RFC 7807 compliance
type StockHandler struct {
	service      StockServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewStockHandler creates a new stock handler
func NewStockHandler(service StockServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *StockHandler {
	return &StockHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "stock_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the stock-data routes
func (h *StockHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/stock-data", h.GetStockData)
	r.Post("/stock-data/save", h.SaveStockData)
	r.Get("/live-price/{ticker}", h.GetLivePrice)
	r.Get("/tickers", h.GetTickers)
	r.Get("/industries", h.GetIndustries)

	return r
}

// GetStockData handles POST /api/stock-data and responds with the artifact bytes
func (h *StockHandler) GetStockData(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Export(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	artifact := result.Artifact
	name := artifact.FileName(result.Params.StartDate(), result.Params.EndDate())

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Content)))
	w.Header().Set("ETag", strconv.Quote(exporter.Checksum(artifact.Content)))
	w.Header().Set("X-Run-ID", result.RunID)
	w.Header().Set("X-Tickers-Succeeded", strconv.Itoa(result.Succeeded))
	w.Header().Set("X-Tickers-Failed", strconv.Itoa(len(result.Failed)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(artifact.Content); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write artifact",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

// SaveStockData handles POST /api/stock-data/save
func (h *StockHandler) SaveStockData(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	saved, err := h.service.Save(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, saved)
}

// GetLivePrice handles GET /api/live-price/{ticker}
func (h *StockHandler) GetLivePrice(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	quote, err := h.service.LivePrice(r.Context(), ticker)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"ticker":     quote.Ticker,
		"last_price": quote.LastPrice,
		"currency":   quote.Currency,
	})
}

// GetTickers handles GET /api/tickers
func (h *StockHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.service.Tickers(r.Context(), r.URL.Query().Get("industry"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if tickers == nil {
		tickers = []domain.TickerInfo{}
	}

	render.JSON(w, r, map[string]interface{}{
		"count": len(tickers),
		"data":  tickers,
	})
}

// GetIndustries handles GET /api/industries
func (h *StockHandler) GetIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := h.service.Industries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if industries == nil {
		industries = []string{}
	}

	render.JSON(w, r, map[string]interface{}{
		"count": len(industries),
		"data":  industries,
	})
}

func (h *StockHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.Request, bool) {
	var req domain.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return req, false
	}
	return req, true
}
