package registry

import "github.com/oinktech/StockAPI/pkg/contracts/domain"

// FilterByIndustry keeps the tickers whose industry equals industry exactly.
// An empty industry returns the input unchanged.
func FilterByIndustry(tickers []domain.TickerInfo, industry string) []domain.TickerInfo {
	if industry == "" {
		return tickers
	}
	out := make([]domain.TickerInfo, 0, len(tickers))
	for _, t := range tickers {
		if t.Industry == industry {
			out = append(out, t)
		}
	}
	return out
}

// Industries returns the distinct non-empty industries in first-seen order.
func Industries(tickers []domain.TickerInfo) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tickers {
		if t.Industry == "" {
			continue
		}
		if _, ok := seen[t.Industry]; ok {
			continue
		}
		seen[t.Industry] = struct{}{}
		out = append(out, t.Industry)
	}
	return out
}
