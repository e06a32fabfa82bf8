package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/tunex/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.registry == nil {
		return fmt.Errorf("provider registry not initialized")
	}

	host, port := r.config.Server.Host, r.config.Server.Port
	if h := cmd.String("host"); h != "" {
		host = h
	}
	if p := cmd.Int("port"); p > 0 {
		port = p
	}

	srv := server.New(r.registry, r.logger, server.Options{Timeout: cmd.Duration("timeout")})
	return srv.ListenAndServe(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
}
