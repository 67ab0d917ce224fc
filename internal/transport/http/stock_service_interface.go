package http

import (
	"context"

	"github.com/oinktech/StockAPI/internal/pipeline"
	"github.com/oinktech/StockAPI/internal/services"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

// StockServiceInterface defines the stock-data operations used by the handlers
type StockServiceInterface interface {
	Export(ctx context.Context, req domain.Request) (*pipeline.Result, error)
	Save(ctx context.Context, req domain.Request) (*services.SaveResult, error)
	LivePrice(ctx context.Context, ticker string) (domain.Quote, error)
	Tickers(ctx context.Context, industry string) ([]domain.TickerInfo, error)
	Industries(ctx context.Context) ([]string, error)
	Monitor() services.MonitorSnapshot
	MonitorChart() ([]byte, error)
}
