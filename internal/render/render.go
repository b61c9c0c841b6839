// Package render formats portfolio data as Markdown and displays it in the
// terminal.
package render

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"tradedesk/internal/apiclient"
	"tradedesk/internal/dashboard"
	"tradedesk/internal/valuation"
)

//go:embed templates/*.md
var templates embed.FS

// Renderer turns API and dashboard data into Markdown, formatting amounts
// in one currency.
type Renderer struct {
	currency string
	tmpl     *template.Template
}

// New creates a renderer for an ISO 4217 currency code such as "INR".
func New(currency string) *Renderer {
	r := &Renderer{currency: strings.ToUpper(currency)}
	r.tmpl = template.Must(template.New("").Funcs(template.FuncMap{
		"money":       r.Money,
		"signed":      r.Signed,
		"pct":         Percent,
		"marketValue": marketValue,
		"gain":        gain,
	}).ParseFS(templates, "templates/*.md"))
	return r
}

// Money formats an amount with the currency symbol and grouping, rounded
// to the currency's minor unit.
func (r *Renderer) Money(amount float64) string {
	cur := money.New(0, r.currency).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Signed formats an amount with an explicit sign for gains.
func (r *Renderer) Signed(amount float64) string {
	s := r.Money(amount)
	if amount > 0 {
		return "+" + s
	}
	return s
}

// Percent formats a percentage with an explicit sign.
func Percent(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}

func marketValue(h *valuation.EnrichedHolding) float64 {
	return float64(h.Quantity) * h.CurrentPrice
}

func gain(h *valuation.EnrichedHolding) float64 {
	return (h.CurrentPrice - h.AverageCostPerShare) * float64(h.Quantity)
}

type summaryData struct {
	dashboard.View
	Name string
}

// Summary renders the headline cards, holdings, allocation and movers.
func (r *Renderer) Summary(name string, v dashboard.View) string {
	return r.execute("summary.md", summaryData{View: v, Name: name})
}

// Transactions renders one page of the trade log.
func (r *Renderer) Transactions(p *apiclient.TransactionPage) string {
	return r.execute("transactions.md", p)
}

// History renders a stock's daily bars.
func (r *Renderer) History(h *apiclient.StockHistory) string {
	return r.execute("history.md", h)
}

// Trade renders the outcome of an order.
func (r *Renderer) Trade(res *apiclient.TradeResult) string {
	return r.execute("trade.md", res)
}

func (r *Renderer) execute(name string, data any) string {
	var b strings.Builder
	if err := r.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", name, err)
	}
	return b.String()
}

// Terminal styles Markdown for display. style is a glamour standard style
// ("dark", "light", "notty") or "auto" to detect the terminal.
func Terminal(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
