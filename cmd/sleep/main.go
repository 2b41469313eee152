// Command sleep is a test fixture service for end-to-end API testing tools.
// It serves GET /api/sleep/{ms} with security auto-configuration switched
// off, so tools can call it without credentials.
package main

import (
	"os"

	"github.com/foorest/sleep/app/routes"
	"github.com/foorest/sleep/pkg/app"
)

func main() {
	newApplication().Run(os.Args[1:])
}

func newApplication() *app.Application {
	return app.New(app.Options{Name: "sleep", Security: app.SecurityDisabled}).
		Routes(routes.RegisterAPI)
}
