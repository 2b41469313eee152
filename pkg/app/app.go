// Package app is the embedded web-application runtime.
//
// A service declares itself once and hands the process arguments over:
//
//	func main() {
//	    app.New(app.Options{Name: "orders", Security: app.SecurityDisabled}).
//	        Routes(routes.RegisterAPI).
//	        Run(os.Args[1:])
//	}
//
// The arguments are interpreted here, never by the caller:
//
//	orders                         # serve
//	orders serve --port 9000 --set SLEEP_MAX_MS=500
//	orders route:list
//	orders config:show --env production
package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/foorest/sleep/config"
	"github.com/foorest/sleep/pkg/router"
)

// RouteFunc registers routes. cfg is the effective configuration.
type RouteFunc func(r *router.Router, cfg *config.Config)

// SecurityMode selects whether security auto-configuration may run.
type SecurityMode int

const (
	// SecurityAuto installs the security filter unless SECURITY_AUTOCONFIG
	// is false.
	SecurityAuto SecurityMode = iota
	// SecurityDisabled never installs it, whatever the configuration says.
	SecurityDisabled
)

func (m SecurityMode) String() string {
	if m == SecurityDisabled {
		return "disabled"
	}
	return "auto"
}

// Options declares the application to the runtime.
type Options struct {
	Name     string
	Security SecurityMode
	// ETag adds strong ETags to responses and answers If-None-Match with 304.
	ETag bool
	// LogOutput receives the runtime's logs. Defaults to os.Stdout.
	LogOutput io.Writer
}

// Application is the root configuration unit handed to the runtime.
type Application struct {
	opts      Options
	routesFns []RouteFunc
	started   []func(net.Addr)
	out       io.Writer
}

// New creates an Application from opts.
func New(opts Options) *Application {
	if opts.Name == "" {
		opts.Name = "app"
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}
	return &Application{opts: opts, out: os.Stdout}
}

// Routes adds a route-registration callback. Callbacks run in order.
func (a *Application) Routes(fn RouteFunc) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// OnStarted adds a hook that runs once the listener is bound.
func (a *Application) OnStarted(fn func(net.Addr)) *Application {
	a.started = append(a.started, fn)
	return a
}

// Output redirects command output (route:list, config:show).
func (a *Application) Output(w io.Writer) *Application {
	a.out = w
	return a
}

// Run executes args and returns when the runtime stops. Any failure is
// printed to stderr and exits the process with status 1.
func (a *Application) Run(args []string) {
	if err := a.Execute(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Execute interprets args exactly as given. Serving stops on SIGINT,
// SIGTERM, cancellation of ctx or the shutdown endpoint.
func (a *Application) Execute(ctx context.Context, args []string) error {
	if args == nil {
		// cobra falls back to os.Args on a nil slice.
		args = []string{}
	}
	root := a.rootCommand(args)
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.out)
	return root.ExecuteContext(ctx)
}
