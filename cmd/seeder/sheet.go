// cmd/seeder/sheet.go
package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
)

var seedColumns = []string{"product_id", "on_hand", "minimum", "maximum", "location"}

// parseStockSheet reads initial stock records from the first sheet. The header
// row must name product_id; the other columns are optional.
func parseStockSheet(file *xlsx.File, now time.Time) ([]domain.StockRecord, []string, error) {
	if len(file.Sheets) == 0 {
		return nil, nil, errors.New("spreadsheet has no sheets")
	}

	var (
		records  []domain.StockRecord
		problems []string
		columns  map[string]int
		rowIdx   int
		seen     = make(map[string]int)
	)

	err := file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		get := func(name string) string {
			i, ok := columns[name]
			if !ok {
				return ""
			}
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			return strings.TrimSpace(c.String())
		}

		if rowIdx == 1 {
			columns = make(map[string]int)
			for i := 0; i < len(seedColumns)*2; i++ {
				c := r.GetCell(i)
				if c == nil {
					continue
				}
				name := strings.ToLower(strings.TrimSpace(c.String()))
				for _, want := range seedColumns {
					if name == want {
						columns[name] = i
					}
				}
			}
			if _, ok := columns["product_id"]; !ok {
				return errors.New("header row has no product_id column")
			}
			return nil
		}

		productID := get("product_id")
		if productID == "" {
			return nil
		}
		if first, dup := seen[productID]; dup {
			problems = append(problems, fmt.Sprintf("row %d: %s already defined on row %d", rowIdx, productID, first))
			return nil
		}

		rec := domain.StockRecord{
			ProductID: productID,
			Location:  get("location"),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		var err error
		if rec.OnHand, err = parseCount(get("on_hand")); err != nil {
			problems = append(problems, fmt.Sprintf("row %d: on_hand: %v", rowIdx, err))
			return nil
		}
		if rec.Minimum, err = parseCount(get("minimum")); err != nil {
			problems = append(problems, fmt.Sprintf("row %d: minimum: %v", rowIdx, err))
			return nil
		}
		if raw := get("maximum"); raw != "" {
			maxQty, err := parseCount(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("row %d: maximum: %v", rowIdx, err))
				return nil
			}
			rec.Maximum = &maxQty
		}
		if err := rec.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("row %d: %v", rowIdx, err))
			return nil
		}

		seen[productID] = rowIdx
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return records, problems, nil
}

// parseCount accepts whole numbers written as "12", "1,200" or "12.0"
func parseCount(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	raw = strings.ReplaceAll(raw, ",", "")
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%q is not a whole non-negative number", raw)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if f < 0 || f >= 1<<53 || f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not a whole non-negative number", raw)
	}
	return int64(f), nil
}
