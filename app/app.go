// Package app wires a configuration schema, its loader and a set of
// subcommands into a command line application.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/confdoc"
	"github.com/reoring/confdoc/config"
	"github.com/reoring/confdoc/internal/metrics"
)

// Subcommand is a named operation run with the loaded configuration.
type Subcommand interface {
	Name() string
	Short() string
	Run(ctx context.Context, env *Env) error
}

// Env is the environment a subcommand runs in.
type Env struct {
	App     *Application
	Holder  *config.Holder
	Logger  zerolog.Logger
	Metrics *metrics.Collector
	// Args are the positional arguments of the subcommand.
	Args []string
	// Passthrough holds everything after a literal "--".
	Passthrough []string
	Out         io.Writer
}

// Config returns the current configuration document.
func (e *Env) Config() *confdoc.Document { return e.Holder.Get() }

// Application is a named program with a configuration schema and a registry
// of subcommands.
type Application struct {
	Name   string
	Schema *confdoc.Schema
	// Initialize runs once before the command line is parsed, typically to
	// register subcommands.
	Initialize func(*Application) error
	// Routes mounts the application's endpoints on the main router of the
	// server subcommand.
	Routes func(r chi.Router, env *Env)
	// EnvPrefix selects environment overrides; config.EnvPrefix when empty.
	EnvPrefix string

	subcommands map[string]Subcommand
	out         io.Writer
	errOut      io.Writer
	logOut      io.Writer
}

// New creates an application. A nil schema uses config.Root.
func New(name string, schema *confdoc.Schema) *Application {
	if schema == nil {
		schema = config.Root
	}
	return &Application{
		Name:        name,
		Schema:      schema,
		subcommands: map[string]Subcommand{},
		out:         os.Stdout,
		errOut:      os.Stderr,
		logOut:      os.Stdout,
	}
}

// SetOutput redirects command output, errors and logs.
func (a *Application) SetOutput(out, errOut, logOut io.Writer) {
	a.out, a.errOut, a.logOut = out, errOut, logOut
}

// AddSubcommand registers sc. Names are unique.
func (a *Application) AddSubcommand(sc Subcommand) error {
	if _, ok := a.subcommands[sc.Name()]; ok {
		return fmt.Errorf("subcommand %s has already been registered", sc.Name())
	}
	a.subcommands[sc.Name()] = sc
	return nil
}

// Subcommands returns the registered names in sorted order.
func (a *Application) Subcommands() []string {
	names := make([]string, 0, len(a.subcommands))
	for n := range a.subcommands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run initializes the application, registers the built-in subcommands that
// were not overridden, and executes args (without the program name).
func (a *Application) Run(ctx context.Context, args []string) error {
	if a.Initialize != nil {
		if err := a.Initialize(a); err != nil {
			return fmt.Errorf("initialize %s: %w", a.Name, err)
		}
	}
	for _, sc := range []Subcommand{&ServerSubcommand{}, &ValidateSubcommand{}, &ShowSubcommand{}} {
		if _, ok := a.subcommands[sc.Name()]; !ok {
			a.subcommands[sc.Name()] = sc
		}
	}
	args, passthrough := SplitArgs(args)
	root := a.command(passthrough)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Execute runs the application with the process arguments and exits with
// status 1 on failure.
func (a *Application) Execute() {
	if err := a.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(a.errOut, err)
		os.Exit(1)
	}
}

// SplitArgs separates the arguments before the first "--" from the ones
// after it.
func SplitArgs(args []string) (own, passthrough []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

func (a *Application) command(passthrough []string) *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:           a.Name,
		Short:         a.Name + " application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults only when empty)")

	for _, name := range a.Subcommands() {
		sc := a.subcommands[name]
		cmd := &cobra.Command{
			Use:   sc.Name(),
			Short: sc.Short(),
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := a.env(cmd.Context(), cfgFile)
				if err != nil {
					return err
				}
				defer env.Holder.Stop()
				env.Args = args
				env.Passthrough = passthrough
				return sc.Run(cmd.Context(), env)
			},
		}
		if f, ok := sc.(interface{ Flags(*cobra.Command) }); ok {
			f.Flags(cmd)
		}
		root.AddCommand(cmd)
	}
	return root
}

// env loads the configuration and builds the subcommand environment.
func (a *Application) env(ctx context.Context, cfgFile string) (*Env, error) {
	prefix := a.EnvPrefix
	if prefix == "" {
		prefix = config.EnvPrefix
	}
	m := metrics.New()
	loader := config.Loader{Schema: a.Schema, EnvPrefix: prefix, Recorder: m}
	// the logger is built from the loaded document
	holder, err := config.NewHolder(ctx, loader, cfgFile, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	logger := config.LoggerFor(holder.Get(), a.logOut).With().Str("app", a.Name).Logger()
	holder.SetLogger(logger)
	return &Env{
		App:     a,
		Holder:  holder,
		Logger:  logger,
		Metrics: m,
		Out:     a.out,
	}, nil
}
