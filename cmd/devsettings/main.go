// Package main is the entry point for the devsettings tool, which inspects
// and edits persisted developer tools settings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/dshills/devtoolsettings/internal/config"
	"github.com/dshills/devtoolsettings/internal/config/notify"
	"github.com/dshills/devtoolsettings/internal/host"
	"github.com/dshills/devtoolsettings/internal/logging"
	"github.com/dshills/devtoolsettings/internal/settings/legacy"
	"github.com/dshills/devtoolsettings/internal/settings/propertytype"
	"github.com/dshills/devtoolsettings/internal/settings/store"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	dir       string
	backend   string
	logLevel  string
	logFormat string
	command   string
	args      []string
}

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stdout, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	logger := logging.New(stderr, opts.logLevel, logging.ParseFormat(opts.logFormat))
	defer func() { _ = logger.Sync() }()

	if err := execute(ctx, opts, stdout, logger); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func parseFlags(args []string, stdout, stderr io.Writer) (options, error) {
	var opts options
	var showVersion bool

	fs := flag.NewFlagSet("devsettings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.dir, "dir", config.DefaultDir(), "Settings directory")
	fs.StringVar(&opts.backend, "backend", host.BackendFile, "State backend (file, sqlite)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFormat, "log-format", "console", "Log format (console, json)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "devsettings - inspect and edit developer tools settings\n\n")
		fmt.Fprintf(stderr, "Usage: devsettings [options] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  dump                  Print the persisted state of every scope\n")
		fmt.Fprintf(stderr, "  list                  List tool configurations\n")
		fmt.Fprintf(stderr, "  flags                 Print the general settings\n")
		fmt.Fprintf(stderr, "  set-flag KEY VALUE    Change and save a general setting\n")
		fmt.Fprintf(stderr, "  reset-flag KEY        Remove the saved value of a general setting\n")
		fmt.Fprintf(stderr, "  watch                 Print general settings changes until interrupted\n")
		fmt.Fprintf(stderr, "  migrate LEGACY.json   Import a legacy settings document\n")
		fmt.Fprintf(stderr, "  types [NAME...]       List property types or resolve legacy type names\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if showVersion {
		fmt.Fprintf(stdout, "devsettings %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, flag.ErrHelp
	}

	switch opts.logLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		return opts, errUsage
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return opts, errUsage
	}
	opts.command = fs.Arg(0)
	opts.args = fs.Args()[1:]
	return opts, nil
}

func execute(ctx context.Context, opts options, stdout io.Writer, logger *zap.SugaredLogger) (retErr error) {
	backend, err := host.Open(opts.backend, opts.dir)
	if err != nil {
		return err
	}

	cfgOpts := []config.Option{config.WithDir(opts.dir), config.WithLogger(logger)}
	hostOpts := []host.Option{host.WithLogger(logger)}
	switch opts.command {
	case "migrate":
		hostOpts = append(hostOpts, host.WithLegacyFile(""))
	case "watch":
		// Changes arrive on the watcher goroutine; printing must not hold it up.
		n := notify.New(notify.WithAsync(64))
		defer n.Close()
		cfgOpts = append(cfgOpts, config.WithWatcher(true), config.WithNotifier(n))
		hostOpts = append(hostOpts, host.WithNotifier(n))
	}
	cfg := config.New(cfgOpts...)
	h := host.New(cfg, backend, hostOpts...)
	defer func() {
		retErr = errors.Join(retErr, h.Close(ctx))
	}()

	if err := h.Start(ctx); err != nil {
		return err
	}

	switch opts.command {
	case "dump":
		return dump(h, stdout)
	case "list":
		return list(h, stdout)
	case "flags":
		return flags(cfg, stdout)
	case "set-flag":
		if len(opts.args) != 2 {
			return fmt.Errorf("%w: set-flag KEY VALUE", errUsage)
		}
		if err := cfg.SetString(opts.args[0], opts.args[1]); err != nil {
			return err
		}
		return cfg.Save()
	case "reset-flag":
		if len(opts.args) != 1 {
			return fmt.Errorf("%w: reset-flag KEY", errUsage)
		}
		if err := cfg.Reset(opts.args[0]); err != nil {
			return err
		}
		return cfg.Save()
	case "watch":
		return watch(ctx, cfg, stdout)
	case "migrate":
		if len(opts.args) != 1 {
			return fmt.Errorf("%w: migrate LEGACY.json", errUsage)
		}
		return migrate(ctx, h, opts.args[0], stdout, logger)
	case "types":
		return types(h.Registry(), opts.args, stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, opts.command)
	}
}

func dump(h *host.Host, stdout io.Writer) error {
	states := make(map[store.Scope]*store.InstanceState)
	for _, scope := range h.Scopes() {
		s, err := h.Store(scope)
		if err != nil {
			return err
		}
		states[scope] = s.GetState()
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(states)
}

func list(h *host.Host, stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tTOOL\tID\tNAME\tPROPERTIES")
	for _, scope := range h.Scopes() {
		s, err := h.Store(scope)
		if err != nil {
			return err
		}
		for _, toolID := range s.ToolIDs() {
			for _, c := range s.Configurations(toolID) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
					scope, toolID, c.ID(), c.Name(), len(c.PersistentProperties()))
			}
		}
	}
	return tw.Flush()
}

func flags(cfg *config.Config, stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tORIGIN\tENV\tDESCRIPTION")
	values := cfg.Values()
	for _, s := range cfg.Registry().All() {
		fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%s\n", s.Key, values[s.Key], cfg.Origin(s.Key), cfg.EnvName(s.Key), s.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "\nPrecedence: %s\n", strings.Join(cfg.Layers(), " > "))
	return err
}

// watch prints every general settings change until ctx is done.
func watch(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	var mu sync.Mutex
	sub := cfg.Subscribe(func(ch notify.Change) {
		if ch.Type != notify.ChangeSet {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(stdout, "%s: %v -> %v (%s)\n", ch.Path, ch.OldValue, ch.NewValue, ch.Source)
	})
	defer sub.Unsubscribe()

	fmt.Fprintf(stdout, "Watching %s\n", cfg.Path())
	<-ctx.Done()
	return nil
}

func migrate(ctx context.Context, h *host.Host, path string, stdout io.Writer, logger *zap.SugaredLogger) error {
	target, err := h.Store(store.ScopeDialog)
	if err != nil {
		return err
	}

	report, err := legacy.NewImporter(h.Config(), target, legacy.WithLogger(logger)).ImportFile(path)
	if err != nil {
		return err
	}
	if err := h.Config().Save(); err != nil {
		return err
	}
	if err := h.Flush(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Imported %s (version %s)\n", path, report.Version)
	for _, r := range report.Migrations {
		fmt.Fprintf(stdout, "  %s -> %s: %s\n", r.From, r.To, r.Description)
	}
	fmt.Fprintf(stdout, "Settings applied: %d\n", report.Settings)
	fmt.Fprintf(stdout, "Configurations: %d\n", report.Configurations)
	return nil
}

// types lists the canonical property type names, or resolves each name to
// its canonical type when names are given.
func types(r *propertytype.Registry, names []string, stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	if len(names) == 0 {
		fmt.Fprintln(tw, "TYPE\tCONSTANTS")
		for _, name := range r.Names() {
			fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(r.EnumConstants(name), ","))
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, "NAME\tTYPE")
	var errs []error
	for _, name := range names {
		pt, ok := r.Resolve(name)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown property type %q", name))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, pt.Name)
	}
	return errors.Join(append(errs, tw.Flush())...)
}
