package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/desertthunder/tunex/internal/models"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin establishes a user session with a password, a token, or a token
// captured from a browser request.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.registry.Authenticator(cmd.String("provider"))
	if err != nil {
		return err
	}

	creds := services.Credentials{
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Token:    cmd.String("token"),
	}

	curlCmd, curlFile := cmd.String("curl"), cmd.String("curl-file")
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}
	if curlCmd != "" || curlFile != "" {
		token, err := tokenFromCurl(curlCmd, curlFile)
		if err != nil {
			return err
		}
		creds.Token = token
	}

	if creds.Token == "" && (creds.Username == "" || creds.Password == "") {
		return fmt.Errorf("%w: --username and --password, --token, or --curl/--curl-file", shared.ErrMissingArgument)
	}

	session, err := auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	r.logger.Info("logged in", "provider", session.Provider, "user", session.UserID)

	r.writePlain("%s\n", formatter.Styles.Ok("✓ Authentication successful"))
	return r.writeSession(session)
}

// tokenFromCurl extracts a user token from a captured request: the
// X-User-Auth-Token header, a user_auth_token query parameter, or a bearer token.
func tokenFromCurl(curlCmd, curlFile string) (string, error) {
	var req *shared.CurlRequest
	var err error
	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
	} else {
		req, err = shared.ParseCurlCommand(curlCmd)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse cURL command: %w", err)
	}

	for _, token := range []string{req.Header("X-User-Auth-Token"), req.QueryParam("user_auth_token"), req.BearerToken()} {
		if token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: no user token found in cURL command", shared.ErrInvalidArgument)
}

// AuthLogout drops the provider's user session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.registry.Authenticator(cmd.String("provider"))
	if err != nil {
		return err
	}
	if err := auth.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.Styles.Ok("✓ Logged out"))
}

// AuthStatus shows the session of one provider, or of every provider with user sessions.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	names := []string{cmd.String("provider")}
	if names[0] == "" {
		names = names[:0]
		for _, p := range services.Providers {
			names = append(names, p.String())
		}
	}

	sessions := []models.Session{}
	for _, name := range names {
		auth, err := r.registry.Authenticator(name)
		if err != nil {
			if cmd.String("provider") != "" {
				return err
			}
			continue
		}
		sessions = append(sessions, auth.Session())
	}

	if cmd.Bool("json") {
		return r.writeJSON(sessions, true)
	}
	for _, s := range sessions {
		if err := r.writeSession(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writeSession(s models.Session) error {
	state := formatter.Styles.Warn(s.State.String())
	if s.Authenticated() {
		state = formatter.Styles.Ok(s.State.String())
	}

	if err := r.writePlain("%s: %s\n", formatter.Styles.Title(s.Provider), state); err != nil {
		return err
	}
	if s.DisplayName != "" || s.UserID != "" {
		r.writePlain("  User: %s (%s)\n", s.DisplayName, s.UserID)
	}
	if s.Subscription != "" {
		r.writePlain("  Subscription: %s\n", s.Subscription)
	}
	return nil
}
