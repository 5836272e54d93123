// Command confdoc runs an application with the standard configuration
// schema: it validates and prints configuration files and serves the admin
// endpoints.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reoring/confdoc/app"
	"github.com/reoring/confdoc/config"
	_ "github.com/reoring/confdoc/source" // go-json decoding for JSON files
)

func main() {
	a := app.New("confdoc", config.Root)
	a.Routes = func(r chi.Router, env *app.Env) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("confdoc " + env.Holder.Generation() + "\n"))
		})
	}
	a.Execute()
}
