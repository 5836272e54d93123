// Package middleware validates JSON request bodies against a confdoc schema
// at the HTTP boundary.
package middleware

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/reoring/confdoc"
)

// DefaultMaxBytes caps request bodies read by Body.
const DefaultMaxBytes = 1 << 20

type ctxKeyDocument struct{}

// ContextWithDocument attaches a loaded document to the context.
func ContextWithDocument(ctx context.Context, doc *confdoc.Document) context.Context {
	return context.WithValue(ctx, ctxKeyDocument{}, doc)
}

// DocumentFromContext retrieves the document stored by Body.
func DocumentFromContext(ctx context.Context) (*confdoc.Document, bool) {
	doc, ok := ctx.Value(ctxKeyDocument{}).(*confdoc.Document)
	return doc, ok
}

// DefaultLoadOpt returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors, every failing field is reported, and bodies are
// capped at DefaultMaxBytes.
func DefaultLoadOpt() confdoc.LoadOpt {
	return confdoc.LoadOpt{
		DuplicateKeys: confdoc.Error,
		CollectAll:    true,
		MaxBytes:      DefaultMaxBytes,
		MaxDepth:      32,
	}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues confdoc.Issues) map[string]any {
	out := make([]map[string]any, 0, len(issues))
	for _, it := range issues {
		item := map[string]any{"code": it.Code, "message": it.Message}
		if it.Path != "" {
			item["path"] = it.Path
		}
		if it.Rule != "" {
			item["rule"] = it.Rule
		}
		if len(it.Params) > 0 {
			item["params"] = it.Params
		}
		out = append(out, item)
	}
	return map[string]any{"issues": out}
}

// Body loads the JSON request body against s and stores the document in the
// request context. Invalid bodies are answered with 400 (413 when too large)
// and an ErrorPayload.
func Body(s *confdoc.Schema, opt confdoc.LoadOpt) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			doc, err := confdoc.LoadJSONReader(r.Context(), s, r.Body, opt)
			if err != nil {
				writeIssues(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithDocument(r.Context(), doc)))
		})
	}
}

func writeIssues(w http.ResponseWriter, err error) {
	iss, ok := confdoc.AsIssues(err)
	if !ok {
		iss = confdoc.Issues{{Code: confdoc.CodeCustom, Message: err.Error(), Cause: err}}
	}
	status := http.StatusBadRequest
	switch {
	case iss.First().Code == confdoc.CodeTruncated:
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, confdoc.ErrSchemaMisuse):
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorPayload(iss))
}
