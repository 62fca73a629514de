package table

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/simaogato/flowviz/internal/domain"
)

// Row is one transfer as listed in the budget table
type Row struct {
	From      string          `json:"from"`
	Type      domain.Category `json:"type"`
	Amount    string          `json:"amount"`
	To        string          `json:"to"`
	RawAmount decimal.Decimal `json:"raw_amount"`
}

// TableService renders the transfer table. It re-fetches the document on
// every call and does not depend on the canvas pipeline.
type TableService struct {
	Source domain.DocumentSource
	Logger *zap.Logger
	Locale language.Tag
}

// NewTableService creates a new TableService instance
func NewTableService(source domain.DocumentSource, logger *zap.Logger) *TableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableService{
		Source: source,
		Logger: logger.Named("table"),
		Locale: language.BrazilianPortuguese,
	}
}

// FormatCurrency formats an amount the way pt-BR locales do ("R$ 1.234,5")
func (s *TableService) FormatCurrency(amount decimal.Decimal) string {
	p := message.NewPrinter(s.Locale)
	return "R$ " + p.Sprint(number.Decimal(amount.InexactFloat64()))
}

// Rows fetches the document and resolves every transfer into a row.
// Unknown entity ids are shown as the raw id.
func (s *TableService) Rows(ctx context.Context) ([]Row, error) {
	doc, err := s.Source.Load(ctx)
	if err != nil {
		s.Logger.Error("failed to load document for table", zap.Error(err))
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	names := make(map[string]string, len(doc.Entities))
	for _, e := range doc.Entities {
		names[e.ID] = e.Name
	}
	resolve := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	}

	rows := make([]Row, 0, len(doc.Transfers))
	for _, t := range doc.Transfers {
		rows = append(rows, Row{
			From:     resolve(t.From),
			Type:     t.Type,
			Amount:   s.FormatCurrency(t.Amount),
			To:       resolve(t.To),
			RawAmount: t.Amount,
		})
	}
	return rows, nil
}

var rowsTemplate = template.Must(template.New("tbody").Parse(
	`{{range .}}<tr>
  <td>{{.From}}</td>
  <td>{{.Type}}</td>
  <td>{{.Amount}}</td>
  <td>{{.To}}</td>
</tr>
{{end}}`))

// RenderHTML renders rows as the contents of #tabela-orcamento tbody
func RenderHTML(rows []Row) (string, error) {
	var buf bytes.Buffer
	if err := rowsTemplate.Execute(&buf, rows); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}
	return buf.String(), nil
}
