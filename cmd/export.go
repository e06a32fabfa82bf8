package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/desertthunder/tunex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes several albums or playlists to disk and prints progress as it goes.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalog(cmd)
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one id", shared.ErrMissingArgument)
	}
	kind, ok := models.ParseKind(strings.ToLower(cmd.String("kind")))
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidArgument, cmd.String("kind"))
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	progress := make(chan tasks.ProgressUpdate, len(ids)*2+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.writePlain("%s\n", u.Message)
		}
	}()

	exporter := tasks.NewExporter(catalog, r.httpClient, r.logger)
	result, err := exporter.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Kind:       kind,
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("Exported %d/%d to %s", result.SuccessfulExports, result.Total, result.OutputDirectory)
	if result.FailedExports > 0 {
		return r.writePlain("%s\n", formatter.Styles.Warn(summary))
	}
	return r.writePlain("%s\n", formatter.Styles.Ok(summary))
}
