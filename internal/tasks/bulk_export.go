package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk exports.
type BulkExportOpts struct {
	Kind       models.Kind      // album or playlist
	Format     formatter.Format // Export format
	OutputDir  string           // Base output directory (default: tunex_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 5, max 10)
	RateLimit  float64          // Fetches per second (default: 5)
	SongLimit  int              // Songs fetched per playlist (default: 100)
}

// ExportJob is one fetched collection waiting to be written.
type ExportJob struct {
	ID         string
	Collection *Collection
}

// ExportResult is the outcome of exporting one collection.
type ExportResult struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Success bool     `json:"success"`
	Files   []string `json:"files"`
	Error   error    `json:"-"`
	Reason  string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Provider          string         `json:"provider"`
	Kind              models.Kind    `json:"type"`
	Format            string         `json:"format"`
	Total             int            `json:"total"`
	SuccessfulExports int            `json:"successful"`
	FailedExports     int            `json:"failed"`
	OutputDirectory   string         `json:"output_directory"`
	ManifestPath      string         `json:"-"`
	Results           []ExportResult `json:"results"`
}

// BulkExport exports multiple albums or playlists concurrently with rate limiting and progress tracking.
//
// A single producer fetches collections through the limiter and hands them to
// a worker pool that writes the files. Failed fetches and writes are recorded
// and the remaining ids are still exported.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Kind != models.KindAlbum && opts.Kind != models.KindPlaylist {
		return nil, shared.Errorf(shared.KindInvalidRequest, "cannot export %ss", opts.Kind)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tunex_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.SongLimit <= 0 {
		opts.SongLimit = 100
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Provider:        e.catalog.Provider().String(),
		Kind:            opts.Kind,
		Format:          string(opts.Format),
		Total:           len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan ExportJob, len(ids))
	results := make(chan ExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, fetchingUpdate(len(ids), opts.Kind))
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			c, err := e.Fetch(ctx, opts.Kind, id, opts.SongLimit)
			if err != nil {
				e.logger.Warn("fetch failed", "id", id, "err", err)
				results <- ExportResult{
					ID:    id,
					Name:  fmt.Sprintf("Unknown (%s)", id),
					Error: fmt.Errorf("failed to fetch %s: %w", opts.Kind, err),
				}
				continue
			}

			jobs <- ExportJob{ID: id, Collection: c}
			e.sendProgress(prog, exportingUpdate(i+1, len(ids), c))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Reason = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.Name, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.Name, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := formatter.ToJSON(result)
	if err == nil {
		err = os.WriteFile(manifestPath, data, 0644)
	}
	if err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that writes collections from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan ExportJob,
	results chan<- ExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- ExportResult{ID: job.ID, Name: job.Collection.Name, Error: ctx.Err()}
			continue
		default:
		}

		results <- e.exportSingle(ctx, job, opts)
	}
}

// exportSingle writes one collection in the requested format.
func (e *Exporter) exportSingle(ctx context.Context, j ExportJob, opts BulkExportOpts) ExportResult {
	c := j.Collection
	result := ExportResult{
		ID:    j.ID,
		Name:  c.Name,
		Files: []string{},
	}

	var (
		path string
		data []byte
		err  error
	)

	switch opts.Format {
	case formatter.FormatMarkdown:
		md, warnings, err := formatter.WriteMarkdownExport(ctx, e.httpClient, filepath.Join(opts.OutputDir, c.ID), c.Name, c.Description, c.ImageURL, c.Songs)
		for _, w := range warnings {
			e.logger.Warn("cover download failed", "id", c.ID, "err", w)
		}
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = md.Files
		result.Success = true
		return result
	case formatter.FormatCSV:
		path = filepath.Join(opts.OutputDir, c.ID+".csv")
		data, err = formatter.SongsToCSV(c.Songs)
	case formatter.FormatText:
		path = filepath.Join(opts.OutputDir, c.ID+"_songs.txt")
		data = formatter.SongsToText(c.Name, c.Songs)
	default:
		path = filepath.Join(opts.OutputDir, c.ID+".json")
		data, err = formatter.ToJSON(c)
	}
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		result.Error = fmt.Errorf("%s write failed: %w", opts.Format, err)
		return result
	}
	result.Files = []string{path}
	result.Success = true
	return result
}
