package main

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/app"
	"github.com/xenking/storefront/internal/persist"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/internal/view/term"
)

// cli holds state shared by every subcommand.
type cli struct {
	out     io.Writer
	verbose bool

	driver string
	path   string
	dir    string
	key    string
	source string
	dump   string

	lg  *zap.Logger
	cfg *app.Config
}

// session is an opened storefront bound to the terminal surface.
type session struct {
	app     *storefront.App
	surface *term.Surface
	res     *app.Resources
}

func (s *session) Close() error {
	return s.res.Close()
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the catalog and manage the persisted cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.lg != nil {
				_ = c.lg.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	f := root.PersistentFlags()
	f.BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr")
	f.StringVar(&c.driver, "driver", "", "slot driver: memory, file, sqlite, postgres or redis")
	f.StringVar(&c.path, "path", "", "sqlite database file")
	f.StringVar(&c.dir, "dir", "", "directory for the file driver")
	f.StringVar(&c.key, "key", "", "slot key holding the cart")
	f.StringVar(&c.source, "catalog-url", "", "upstream catalog base URL")
	f.StringVar(&c.dump, "dump", "", "serve the catalog from a dump file")

	root.AddCommand(
		c.showCmd(),
		c.addCmd(),
		c.adjustCmd(),
		c.removeCmd(),
		c.searchCmd(),
		c.suggestCmd(),
		c.inspectCmd(),
	)
	return root
}

// setup loads configuration and applies flag overrides.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := app.LoadConfig(true)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Storage.Driver = c.driver
	}
	if flags.Changed("path") {
		cfg.Storage.Path = c.path
	}
	if flags.Changed("dir") {
		cfg.Storage.Dir = c.dir
	}
	if flags.Changed("key") {
		cfg.Key = c.key
	}
	if flags.Changed("catalog-url") {
		cfg.Catalog.Source = app.SourceUpstream
		cfg.Catalog.URL = c.source
	}
	if flags.Changed("dump") {
		cfg.Catalog.Source = app.SourceDump
		cfg.Catalog.Dump = c.dump
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	if c.verbose {
		lg, err := zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "create logger")
		}
		c.lg = lg
	} else {
		c.lg = zap.NewNop()
	}
	return nil
}

// open connects resources and restores the cart. With index set the full
// catalog is loaded for search as well.
func (c *cli) open(ctx context.Context, index bool) (*session, error) {
	res, err := app.Open(ctx, c.lg, c.cfg, otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		return nil, err
	}

	surface := term.New(c.out)
	sf, err := storefront.New(storefront.Options{
		Catalog:          res.Catalog,
		Adapter:          persist.NewAdapter(res.Slot, c.cfg.Key, c.lg.Named("persist")),
		Surface:          surface,
		Logger:           c.lg.Named("storefront"),
		FetchConcurrency: c.cfg.FetchConcurrency,
	})
	if err != nil {
		_ = res.Close()
		return nil, errors.Wrap(err, "create storefront")
	}

	if index {
		sf.Start(ctx)
	} else {
		sf.Restore(ctx)
	}
	return &session{app: sf, surface: surface, res: res}, nil
}

// run opens a session, calls fn and renders the resulting view.
func (c *cli) run(cmd *cobra.Command, index bool, fn func(s *session) error) (rerr error) {
	s, err := c.open(cmd.Context(), index)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	if err := fn(s); err != nil {
		return err
	}
	return s.surface.Flush()
}
