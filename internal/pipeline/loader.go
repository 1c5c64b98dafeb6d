// Package pipeline imports expense exports into the ledger and turns ledger
// contents into per-project budget and deadline reports.
package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/source"
	"github.com/theirongolddev/pburn/internal/store"
)

// ImportResult holds the output of an import run.
type ImportResult struct {
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
	ParseErrors int
	Imported    int
	Duplicates  int
	Rejected    int
	// UnknownProjects lists project references that matched nothing.
	UnknownProjects []string
}

// ProgressFunc is called during parsing to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Ledger is the subset of the store the pipeline needs.
type Ledger interface {
	FindProject(idOrName string) (model.Project, error)
	AddExpense(e model.Expense) (model.Expense, error)
	ListProjects() ([]model.Project, error)
	AllExpenses() (map[string][]model.Expense, error)
}

// Import parses files with a bounded worker pool, then writes the parsed
// expenses to the ledger sequentially. Records whose ID is already stored
// count as duplicates, so importing the same file twice is harmless.
func Import(l Ledger, files []source.DiscoveredFile, progressFn ProgressFunc, logger *zap.Logger) (*ImportResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	result := &ImportResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	projectIDs := make(map[string]string)
	unknown := make(map[string]struct{})

	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			logger.Warn("import: reading file failed",
				zap.String("path", files[i].Path),
				zap.Error(pr.Err),
			)
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors

		for _, pe := range pr.Expenses {
			id, ok := projectIDs[pe.ProjectRef]
			if !ok {
				p, err := l.FindProject(pe.ProjectRef)
				switch {
				case errors.Is(err, store.ErrNotFound):
					unknown[pe.ProjectRef] = struct{}{}
				case err != nil:
					return result, fmt.Errorf("resolving project %q: %w", pe.ProjectRef, err)
				default:
					id = p.ID
				}
				projectIDs[pe.ProjectRef] = id
			}
			if id == "" {
				result.Rejected++
				continue
			}

			e := pe.Expense
			e.ProjectID = id
			_, err := l.AddExpense(e)
			switch {
			case err == nil:
				result.Imported++
			case errors.Is(err, store.ErrDuplicate):
				result.Duplicates++
			case errors.Is(err, store.ErrInvalid):
				result.Rejected++
				logger.Warn("import: expense rejected",
					zap.String("expense_id", e.ID),
					zap.Error(err),
				)
			default:
				return result, fmt.Errorf("storing expense %s: %w", e.ID, err)
			}
		}
	}

	for ref := range unknown {
		result.UnknownProjects = append(result.UnknownProjects, ref)
	}
	sort.Strings(result.UnknownProjects)

	logger.Info("import finished",
		zap.Int("files", result.TotalFiles),
		zap.Int("imported", result.Imported),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("rejected", result.Rejected),
		zap.Int("parse_errors", result.ParseErrors),
	)
	return result, nil
}
