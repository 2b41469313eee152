package routes

import (
	"net/http"

	"github.com/foorest/sleep/app/controllers"
	"github.com/foorest/sleep/config"
	"github.com/foorest/sleep/pkg/router"
)

func RegisterAPI(r *router.Router, cfg *config.Config) {
	sleep := controllers.NewSleepController(cfg.Int(config.KeySleepMaxMs))

	api := r.Group("/api")
	api.Get("/sleep/{ms}", "sleep", sleep.Sleep)

	_ = r.Document("sleep", router.Doc{
		Summary: "Respond after the given number of milliseconds",
		Params:  map[string]string{"ms": "integer"},
		Responses: map[int]string{
			http.StatusOK:         "Slept for ms milliseconds",
			http.StatusBadRequest: "ms is not an integer in range",
		},
	})
}
