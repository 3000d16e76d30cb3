package batch

import (
	"context"
	"path/filepath"

	"ndjaka/mineral-tax/internal/fileutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/parser"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent file parsing when no worker count is given.
const DefaultWorkers = 4

// FileResult is the outcome of parsing one file of a batch.
type FileResult struct {
	File    string
	Entries []models.FuelEntry
	Skipped bool // header did not match the parser's format
	Err     error
}

// Processor parses every CSV file of a directory.
type Processor struct {
	parser  parser.FullParser
	logger  logging.Logger
	workers int
}

// NewProcessor creates a Processor running at most workers parses at a time.
func NewProcessor(p parser.FullParser, logger logging.Logger, workers int) *Processor {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Processor{parser: p, logger: logger, workers: workers}
}

// ProcessDirectory parses every *.csv file in dir. Results are returned in
// file-name order. A file that fails to parse is reported in its FileResult
// and does not stop the others; only context cancellation aborts the batch.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) ([]FileResult, error) {
	files, err := fileutils.ListFilesWithExtension(dir, ".csv")
	if err != nil {
		return nil, err
	}
	return p.ProcessFiles(ctx, files)
}

// ProcessFiles parses files concurrently, keeping their order in the result.
func (p *Processor) ProcessFiles(ctx context.Context, files []string) ([]FileResult, error) {
	p.logger.Info("Processing fuel-entry files",
		logging.F(logging.FieldCount, len(files)),
		logging.F(logging.FieldWorkerCount, p.workers))

	results := make([]FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.processFile(file)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info("Batch processing completed",
		logging.F(logging.FieldCount, len(files)),
		logging.F("failed", failed))
	return results, nil
}

func (p *Processor) processFile(file string) FileResult {
	result := FileResult{File: file}
	logger := p.logger.WithField(logging.FieldFile, filepath.Base(file))

	valid, err := p.parser.ValidateFormat(file)
	if err != nil {
		logger.WithError(err).Error("Failed to validate file")
		result.Err = err
		return result
	}
	if !valid {
		logger.Warn("Skipping file that is not a fuel-entry export")
		result.Skipped = true
		return result
	}

	entries, err := p.parser.ParseFile(file)
	if err != nil {
		logger.WithError(err).Error("Failed to parse file")
		result.Err = err
		return result
	}

	logger.Debug("Loaded entries from file", logging.F(logging.FieldCount, len(entries)))
	result.Entries = entries
	return result
}

// Entries concatenates the entries of every successful result, in order.
func Entries(results []FileResult) []models.FuelEntry {
	var all []models.FuelEntry
	for _, r := range results {
		all = append(all, r.Entries...)
	}
	return all
}

// Failed returns the results that ended in an error.
func Failed(results []FileResult) []FileResult {
	var failed []FileResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
