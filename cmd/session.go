package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/modelpub/internal/client"
	"github.com/kamusis/modelpub/internal/config"
	"github.com/kamusis/modelpub/internal/datasource"
	"github.com/kamusis/modelpub/internal/logging"
	"github.com/kamusis/modelpub/internal/publish"
	"github.com/kamusis/modelpub/internal/ui"
)

// passwordEnv supplies the server password for non-interactive runs.
const passwordEnv = "MODELPUB_PASSWORD"

// session bundles everything a command needs to talk to one server.
type session struct {
	server   publish.ServerEndpoint
	client   *client.Client
	registry *datasource.Registry
	console  *ui.Console
}

func openSession(cmd *cobra.Command) (*session, error) {
	server, err := resolveServer(appConfig.CurrentServer)
	if err != nil {
		return nil, err
	}
	logger := *logging.Default()
	c := server.Client(appConfig.Timeout)

	yes, _ := cmd.Flags().GetBool("yes")
	return &session{
		server:   server,
		client:   c,
		registry: datasource.NewRegistry(c, datasource.WithLogger(logger)),
		console:  ui.NewConsole(cmd.OutOrStdout(), ui.WithAssumeYes(yes)),
	}, nil
}

func (s *session) orchestrator() *publish.Orchestrator {
	return publish.NewOrchestrator(s.client, s.server, s.registry, s.console, s.console,
		publish.WithLogger(*logging.Default()),
		publish.WithStagingDir(appConfig.StagingDir),
	)
}

// resolveServer turns a profile name into an endpoint with its password. The
// password comes from MODELPUB_PASSWORD, the credentials store, or a prompt,
// in that order.
func resolveServer(name string) (publish.ServerEndpoint, error) {
	if name == "" {
		return publish.ServerEndpoint{}, errors.New("no server selected; use --server or 'modelpub server use <name>'")
	}
	profile, err := config.GetServer(name)
	if err != nil {
		return publish.ServerEndpoint{}, err
	}
	if profile == nil {
		return publish.ServerEndpoint{}, fmt.Errorf("server %q is not configured; add it with 'modelpub server add'", name)
	}

	password := os.Getenv(passwordEnv)
	if password == "" {
		_, password, err = config.GetCredentials(config.ServerCredentialKey(name))
		if err != nil {
			return publish.ServerEndpoint{}, fmt.Errorf("reading credentials: %w", err)
		}
	}
	if password == "" {
		password, err = ui.PromptPassword(fmt.Sprintf("%s@%s", profile.Username, name))
		if err != nil {
			return publish.ServerEndpoint{}, fmt.Errorf("no password for server %s (set %s): %w", name, passwordEnv, err)
		}
		if profile.SavePassword {
			if err := config.SetCredentials(config.ServerCredentialKey(name), profile.Username, password); err != nil {
				logging.Default().Warn().Err(err).Str("server", name).Msg("could not save password")
			}
		}
	}

	return publish.NewServerEndpoint(name, profile.URL, profile.Username, password), nil
}

// outcomeError turns a non-successful outcome into the command's error so
// the process exits non-zero.
type outcomeError struct {
	outcome publish.Outcome
}

func (e *outcomeError) Error() string {
	return fmt.Sprintf("publish ended with %s (code %d)", e.outcome, e.outcome.Code())
}

func outcomeResult(o publish.Outcome) error {
	if o == publish.Success {
		return nil
	}
	return &outcomeError{outcome: o}
}

func plainOutput() bool {
	return appConfig != nil && appConfig.Output.Plain
}
