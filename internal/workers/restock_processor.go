// internal/workers/restock_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// RestockLine is one (product, quantity) pair read from an import file
type RestockLine struct {
	Row       int
	ProductID string
	Quantity  int64
}

// ImportJournal tracks the rows of a job that were already applied
type ImportJournal interface {
	AppliedRows(ctx context.Context, jobID string) (map[int]bool, error)
	MarkApplied(ctx context.Context, jobID string, row int) error
}

// RestockProcessor applies uploaded restock files through the ledger
type RestockProcessor struct {
	ledger  ports.LedgerService
	storage ports.ObjectStorage
	journal ImportJournal
	logger  *slog.Logger
}

// NewRestockProcessor creates a new restock import processor. A nil journal
// disables resuming of redelivered jobs.
func NewRestockProcessor(ledger ports.LedgerService, storage ports.ObjectStorage,
	journal ImportJournal, logger *slog.Logger) *RestockProcessor {
	return &RestockProcessor{
		ledger:  ledger,
		storage: storage,
		journal: journal,
		logger:  logger.With(slog.String("processor", "restock")),
	}
}

// ProcessXLSX imports a spreadsheet of restock lines
func (p *RestockProcessor) ProcessXLSX(ctx context.Context, t *asynq.Task) error {
	return p.process(ctx, t, ParseRestockSheet)
}

// ProcessPDF imports a supplier delivery note
func (p *RestockProcessor) ProcessPDF(ctx context.Context, t *asynq.Task) error {
	return p.process(ctx, t, ParseDeliveryNote)
}

func (p *RestockProcessor) process(ctx context.Context, t *asynq.Task,
	parse func([]byte) ([]RestockLine, []string, error)) error {
	start := time.Now()

	var payload RestockImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := p.logger.With(
		slog.String("job_id", payload.JobID),
		slog.String("object_key", payload.ObjectKey))
	logger.InfoContext(ctx, "processing restock import", slog.String("format", payload.Format))

	data, err := p.storage.Download(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", payload.ObjectKey, err)
	}

	lines, problems, err := parse(data)
	if err != nil {
		logger.ErrorContext(ctx, "restock file unreadable", slog.String("error", err.Error()))
		return fmt.Errorf("failed to parse %s: %v: %w", payload.ObjectKey, err, asynq.SkipRetry)
	}

	result := RestockImportResult{
		JobID:     payload.JobID,
		LinesRead: len(lines),
		Errors:    problems,
	}

	applied := map[int]bool{}
	if p.journal != nil {
		if applied, err = p.journal.AppliedRows(ctx, payload.JobID); err != nil {
			return fmt.Errorf("failed to load journal: %w", err)
		}
		if len(applied) > 0 {
			logger.InfoContext(ctx, "resuming restock import", slog.Int("rows_already_applied", len(applied)))
		}
	}

	// Per-line failures are reported instead of returned, since returning would
	// retry the whole file. A redelivered job skips journaled rows; a row applied
	// but not yet journaled when the worker died is applied again.
	for _, line := range lines {
		if applied[line.Row] {
			result.LinesResumed++
			continue
		}
		if _, err := p.ledger.Restock(ctx, line.ProductID, line.Quantity); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %v", line.Row, line.ProductID, err))
			logger.WarnContext(ctx, "restock line failed",
				slog.Int("row", line.Row),
				slog.String("product_id", line.ProductID),
				slog.String("error", err.Error()))
			continue
		}
		result.LinesApplied++
		result.UnitsRestocked += line.Quantity

		if p.journal != nil {
			if err := p.journal.MarkApplied(ctx, payload.JobID, line.Row); err != nil {
				logger.WarnContext(ctx, "failed to journal applied row",
					slog.Int("row", line.Row),
					slog.String("error", err.Error()))
			}
		}
	}
	result.ProcessingTime = time.Since(start).String()

	if w := t.ResultWriter(); w != nil {
		if body, err := json.Marshal(result); err == nil {
			if _, err := w.Write(body); err != nil {
				logger.WarnContext(ctx, "failed to write task result", slog.String("error", err.Error()))
			}
		}
	}

	if err := p.storage.Delete(ctx, payload.ObjectKey); err != nil {
		logger.WarnContext(ctx, "failed to delete processed import", slog.String("error", err.Error()))
	}

	logger.InfoContext(ctx, "restock import completed",
		slog.Int("lines_read", result.LinesRead),
		slog.Int("lines_applied", result.LinesApplied),
		slog.Int("lines_resumed", result.LinesResumed),
		slog.Int64("units_restocked", result.UnitsRestocked),
		slog.Int("errors", len(result.Errors)),
		slog.String("duration", result.ProcessingTime))
	return nil
}

// ParseRestockSheet reads the first sheet of an xlsx file. The header row names
// the product and quantity columns; without recognised headers the first two
// columns are used. Bad rows are reported and skipped.
func ParseRestockSheet(data []byte) ([]RestockLine, []string, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, nil, errors.New("spreadsheet has no sheets")
	}

	var (
		lines    []RestockLine
		problems []string
		rowIdx   int
		productC = 0
		qtyC     = 1
	)

	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			return strings.TrimSpace(c.String())
		}

		if rowIdx == 1 {
			productC, qtyC = headerColumns(r, productC, qtyC)
			return nil
		}

		productID := get(productC)
		rawQty := get(qtyC)
		if productID == "" && rawQty == "" {
			return nil
		}

		line, err := newRestockLine(rowIdx, productID, rawQty)
		if err != nil {
			problems = append(problems, err.Error())
			return nil
		}
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read spreadsheet rows: %w", err)
	}

	return lines, problems, nil
}

func headerColumns(r *xlsx.Row, productC, qtyC int) (int, int) {
	for i := 0; i < r.Sheet.MaxCol; i++ {
		c := r.GetCell(i)
		if c == nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(c.String())) {
		case "product_id", "product", "sku":
			productC = i
		case "quantity", "qty":
			qtyC = i
		}
	}
	return productC, qtyC
}

var (
	noteHeaderRe = regexp.MustCompile(`(?i)(PRODUCT|SKU).*(QTY|QUANTITY)`)
	noteFooterRe = regexp.MustCompile(`(?i)^(TOTAL|RECEIVED BY|SIGNATURE)`)
	noteLineRe   = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._\-]*)\s+(?:.*\s)?(-?\d+)$`)
)

// ParseDeliveryNote extracts restock lines from a supplier delivery note PDF
func ParseDeliveryNote(data []byte) ([]RestockLine, []string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var text []string
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read page %d: %w", pageNum, err)
		}
		text = append(text, strings.Split(content, "\n")...)
	}

	lines, problems := ParseDeliveryNoteText(text)
	return lines, problems, nil
}

// ParseDeliveryNoteText reads "<product_id> [description] <quantity>" lines
// between the column header and the totals footer.
func ParseDeliveryNoteText(text []string) ([]RestockLine, []string) {
	start := 0
	for i, line := range text {
		if noteHeaderRe.MatchString(line) {
			start = i + 1
			break
		}
	}

	var (
		lines    []RestockLine
		problems []string
	)
	for i := start; i < len(text); i++ {
		line := strings.TrimSpace(text[i])
		if line == "" {
			continue
		}
		if noteFooterRe.MatchString(line) {
			break
		}

		m := noteLineRe.FindStringSubmatch(line)
		if m == nil {
			problems = append(problems, fmt.Sprintf("line %d: unrecognised %q", i+1, line))
			continue
		}

		rl, err := newRestockLine(i+1, m[1], m[2])
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		lines = append(lines, rl)
	}
	return lines, problems
}

func newRestockLine(row int, productID, rawQty string) (RestockLine, error) {
	if productID == "" {
		return RestockLine{}, fmt.Errorf("row %d: product_id is required", row)
	}
	qty, err := strconv.ParseInt(strings.ReplaceAll(rawQty, ",", ""), 10, 64)
	if err != nil {
		return RestockLine{}, fmt.Errorf("row %d (%s): invalid quantity %q", row, productID, rawQty)
	}
	if qty <= 0 {
		return RestockLine{}, fmt.Errorf("row %d (%s): quantity must be positive", row, productID)
	}
	return RestockLine{Row: row, ProductID: productID, Quantity: qty}, nil
}
