package server

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Route is one registered endpoint.
type Route struct {
	Method  string
	Pattern string
	Handler string
}

// Routes lists the endpoints of r sorted by pattern, then method.
func Routes(r chi.Routes) ([]Route, error) {
	var out []Route
	err := chi.Walk(r, func(method, route string, h http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, Route{Method: method, Pattern: route, Handler: handlerName(h)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk routes: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}

// LogRoutes logs every endpoint of r under the listener name.
func LogRoutes(logger zerolog.Logger, listener string, r chi.Routes) {
	routes, err := Routes(r)
	if err != nil {
		logger.Error().Err(err).Str("listener", listener).Msg("unable to list routes")
		return
	}
	logger.Info().Str("listener", listener).Int("count", len(routes)).Msg("serving routes")
	for _, rt := range routes {
		logger.Info().
			Str("listener", listener).
			Str("method", rt.Method).
			Str("route", rt.Pattern).
			Str("handler", rt.Handler).
			Msg("route")
	}
}

func handlerName(h http.Handler) string {
	if hf, ok := h.(http.HandlerFunc); ok {
		if fn := runtime.FuncForPC(reflect.ValueOf(hf).Pointer()); fn != nil {
			return strings.TrimSuffix(fn.Name(), "-fm")
		}
	}
	return fmt.Sprintf("%T", h)
}
