package app

import (
	"fmt"
	"net"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foorest/sleep/config"
	"github.com/foorest/sleep/pkg/router"
)

type flags struct {
	port      string
	host      string
	env       string
	configDir string
	envFile   string
	set       []string
}

func (a *Application) rootCommand(argv []string) *cobra.Command {
	f := &flags{}

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := f.load()
		if err != nil {
			return err
		}
		return a.serve(cmd.Context(), cfg, argv)
	}

	root := &cobra.Command{
		Use:           a.opts.Name,
		Short:         a.opts.Name + " web application",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          serve,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.port, "port", "p", "", "listen port (APP_PORT)")
	pf.StringVar(&f.host, "host", "", "listen host (APP_HOST)")
	pf.StringVar(&f.env, "env", "", "environment name (APP_ENV)")
	pf.StringVar(&f.configDir, "config", "config", "directory holding app.json / app.yaml")
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file")
	pf.StringArrayVar(&f.set, "set", nil, "override a config key, KEY=VALUE (repeatable)")

	root.AddCommand(&cobra.Command{
		Use:     "serve",
		Aliases: []string{"start", "run", "s"},
		Short:   "Start the HTTP server",
		Args:    cobra.NoArgs,
		RunE:    serve,
	})

	root.AddCommand(&cobra.Command{
		Use:   "route:list",
		Short: "List all named routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listRoutes(cmd)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "config:show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			return a.showConfig(cmd, cfg, argv)
		},
	})

	return root
}

// load reads files and environment, then applies command-line overrides.
func (f *flags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configDir, f.envFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	for _, pair := range f.set {
		k, v, err := config.ParseOverride(pair)
		if err != nil {
			return nil, err
		}
		cfg.Set(k, v)
	}
	if f.port != "" {
		cfg.Set(config.KeyAppPort, f.port)
	}
	if f.host != "" {
		cfg.Set(config.KeyAppHost, f.host)
	}
	if f.env != "" {
		cfg.Set(config.KeyAppEnv, f.env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *Application) listRoutes(cmd *cobra.Command) error {
	r := router.New()
	cfg := config.New()
	for _, fn := range a.routesFns {
		fn(r, cfg)
	}

	infos := r.Routes()
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No named routes registered.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}

func (a *Application) showConfig(cmd *cobra.Command, cfg *config.Config, argv []string) error {
	out := cmd.OutOrStdout()
	eff := cfg.Effective()

	fmt.Fprintf(out, "# args: %q\n", config.MaskArgs(argv))
	fmt.Fprintf(out, "# security: %s\n", securityState(a.securityActive(cfg)))
	fmt.Fprintf(out, "# listen: %s\n", listenAddr(cfg))
	for _, k := range cfg.Keys() {
		fmt.Fprintf(out, "%s=%s\n", k, eff[k])
	}
	return nil
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.String(config.KeyAppHost), cfg.String(config.KeyAppPort))
}

func securityState(active bool) string {
	if active {
		return "active"
	}
	return "disabled"
}
