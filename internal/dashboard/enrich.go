// Package dashboard keeps a live, valued view of a user's portfolio.
package dashboard

import (
	"tradedesk/internal/apiclient"
	"tradedesk/internal/feed"
	"tradedesk/internal/valuation"
)

type quote struct {
	symbol  string
	name    string
	current float64
	open    float64
}

// Enrich joins holdings with their stocks' latest prices. Holdings whose
// stock is unknown or has no bar yet are dropped.
func Enrich(holdings []apiclient.Holding, stocks []apiclient.Stock) []*valuation.EnrichedHolding {
	quotes := make(map[string]quote, len(stocks))
	for _, s := range stocks {
		if s.LatestOHLC == nil {
			continue
		}
		quotes[s.ID] = quote{
			symbol:  s.Symbol,
			name:    s.CompanyName,
			current: s.LatestOHLC.Close,
			open:    s.LatestOHLC.Open,
		}
	}

	enriched := make([]*valuation.EnrichedHolding, 0, len(holdings))
	for _, h := range holdings {
		q, ok := quotes[h.StockID]
		if !ok {
			continue
		}
		enriched = append(enriched, &valuation.EnrichedHolding{
			ID:                  h.ID,
			StockID:             h.StockID,
			Symbol:              q.symbol,
			CompanyName:         q.name,
			Quantity:            h.Quantity,
			AverageCostPerShare: h.AverageCostPerShare,
			CurrentPrice:        q.current,
			OpenPrice:           q.open,
			LastUpdated:         h.LastUpdated,
		})
	}
	return enriched
}

// PatchPrice returns holdings with CurrentPrice replaced on every entry for
// u.Symbol, and how many entries changed. Patched entries are copies; all
// others keep their identity and the input slice is left untouched. When
// nothing matches the input slice itself is returned.
func PatchPrice(holdings []*valuation.EnrichedHolding, u feed.PriceUpdate) ([]*valuation.EnrichedHolding, int) {
	var out []*valuation.EnrichedHolding
	patched := 0
	for i, h := range holdings {
		if h.Symbol != u.Symbol {
			continue
		}
		if out == nil {
			out = make([]*valuation.EnrichedHolding, len(holdings))
			copy(out, holdings)
		}
		c := *h
		c.CurrentPrice = u.Price
		out[i] = &c
		patched++
	}
	if out == nil {
		return holdings, 0
	}
	return out, patched
}
