package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

// SearchScanner looks for a term in the textual cells of allow-listed
// tables by reading them in full. Cost is linear in the number of cells
// scanned; large stores should use a native text index instead.
type SearchScanner struct {
	repo   *RecordRepository
	logger *slog.Logger
}

func NewSearchScanner(repo *RecordRepository, logger *slog.Logger) *SearchScanner {
	return &SearchScanner{repo: repo, logger: logger}
}

// Search scans tables in the given order (the allow-list order when tables
// is empty). Only tables with matches or a scan failure appear in the
// result; a failing table does not stop the scan.
func (s *SearchScanner) Search(ctx context.Context, term string, tables []string) ([]domain.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.Validationf("search", "", "search term is required")
	}
	if len(tables) == 0 {
		tables = s.repo.Catalog().AllowList().Tables()
	}

	start := time.Now()
	fold := cases.Fold()
	needle := fold.String(term)

	var results []domain.SearchResult
	scanned := 0
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return results, domain.Classify("search", table, err)
		}

		schema, err := s.repo.Catalog().Describe(ctx, table)
		if err == nil {
			var records []domain.Record
			records, err = s.repo.ListWithSchema(ctx, schema)
			if err == nil {
				scanned++
				if matches := matchRecords(fold, needle, records); len(matches) > 0 {
					results = append(results, domain.SearchResult{
						Table:   schema.Table,
						Columns: schema.ColumnNames(),
						Records: matches,
					})
				}
				continue
			}
		}

		s.logger.WarnContext(ctx, "search skipped table",
			slog.String("db.operation.name", "search"),
			slog.String("db.collection.name", table),
			slog.String("error.type", domain.KindName(err)),
			slog.String("error", err.Error()),
		)
		results = append(results, domain.SearchResult{Table: table, Err: err})
	}

	s.logger.InfoContext(ctx, "search completed",
		slog.String("db.operation.name", "search"),
		slog.Int("tables", scanned),
		slog.Int("matches", countMatches(results)),
		slog.Duration("duration", time.Since(start)),
	)
	return results, nil
}

func matchRecords(fold cases.Caser, needle string, records []domain.Record) []domain.Record {
	var out []domain.Record
	for _, rec := range records {
		for _, v := range rec.Values {
			text, ok := v.(string)
			if ok && strings.Contains(fold.String(text), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func countMatches(results []domain.SearchResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Records)
	}
	return n
}
