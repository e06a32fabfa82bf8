package main

import (
	"context"

	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/urfave/cli/v3"
)

// CacheClear drops access tokens and extracted app credentials, including
// credentials persisted in the store.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	r.registry.ClearCaches()
	r.logger.Info("provider caches cleared")
	return r.writePlain("%s\n", formatter.Styles.Ok("✓ Caches cleared"))
}
