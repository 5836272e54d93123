package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/confdoc/server"
)

// ServerSubcommand runs the main and admin listeners.
type ServerSubcommand struct {
	watch bool
}

func (*ServerSubcommand) Name() string  { return "server" }
func (*ServerSubcommand) Short() string { return "Run the server" }

func (s *ServerSubcommand) Flags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.watch, "watch", true, "reload the configuration when the file changes")
}

func (s *ServerSubcommand) Run(ctx context.Context, env *Env) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.watch && env.Holder.Path() != "" {
		if err := env.Holder.WatchFile(); err != nil {
			return err
		}
	}
	env.Holder.WatchSignals()

	srv := server.New(server.Options{
		Holder:  env.Holder,
		Metrics: env.Metrics,
		Logger:  env.Logger,
	})
	if env.App.Routes != nil {
		env.App.Routes(srv.Main, env)
	}
	return srv.Run(ctx)
}

// ValidateSubcommand checks the configuration and reports success. Loading
// happens before any subcommand runs, so reaching Run means the file is valid.
type ValidateSubcommand struct{}

func (*ValidateSubcommand) Name() string  { return "validate" }
func (*ValidateSubcommand) Short() string { return "Validate the configuration file" }

func (*ValidateSubcommand) Run(_ context.Context, env *Env) error {
	name := env.Holder.Path()
	if name == "" {
		name = "defaults"
	}
	_, err := fmt.Fprintf(env.Out, "%s: configuration is valid (generation %s)\n", name, env.Holder.Generation())
	return err
}

// ShowSubcommand prints the effective configuration, or the JSON Schema of
// the application's configuration.
type ShowSubcommand struct {
	format string
}

func (*ShowSubcommand) Name() string  { return "show" }
func (*ShowSubcommand) Short() string { return "Print the effective configuration" }

func (s *ShowSubcommand) Flags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.format, "format", "f", "yaml", "output format: yaml, json or schema")
}

func (s *ShowSubcommand) Run(_ context.Context, env *Env) error {
	var (
		out []byte
		err error
	)
	switch s.format {
	case "yaml":
		out, err = env.Config().YAML()
	case "json":
		out, err = json.MarshalIndent(env.Config(), "", "  ")
		out = append(out, '\n')
	case "schema":
		js, serr := env.App.Schema.JSONSchema()
		if serr != nil {
			return fmt.Errorf("export schema: %w", serr)
		}
		out, err = json.MarshalIndent(js, "", "  ")
		out = append(out, '\n')
	default:
		return fmt.Errorf("unknown format %q (want yaml, json or schema)", s.format)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", s.format, err)
	}
	_, err = env.Out.Write(out)
	return err
}
