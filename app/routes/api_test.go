package routes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foorest/sleep/app/routes"
	"github.com/foorest/sleep/config"
	"github.com/foorest/sleep/pkg/router"
	"github.com/foorest/sleep/pkg/testkit"
)

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	cfg := config.New()
	cfg.Set(config.KeySleepMaxMs, "200")

	r := router.New()
	routes.RegisterAPI(r, cfg)
	return r
}

func TestSleepScenarios(t *testing.T) {
	testkit.RunDir(t, newRouter(t).Handler(), "testdata")
}

func TestSleepRouteIsNamedAndDocumented(t *testing.T) {
	r := newRouter(t)

	path, ok := r.Path("sleep")
	require.True(t, ok)
	assert.Equal(t, "/api/sleep/{ms}", path)

	infos := r.Routes()
	require.Len(t, infos, 1)
	assert.Equal(t, "integer", infos[0].Doc.Params["ms"])
}
