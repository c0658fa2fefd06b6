package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Runs     *RunHandler
	Meetings *MeetingHandler
	Health   *HealthHandler
	Metrics  http.Handler
	// TriggerAuth guards POST /runs. When nil the trigger endpoint is not mounted.
	TriggerAuth func(http.Handler) http.Handler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Runs != nil {
		if cfg.TriggerAuth != nil {
			trigger := cfg.TriggerAuth(http.HandlerFunc(cfg.Runs.Trigger))
			mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				trigger.ServeHTTP(w, r)
			})
		}
		mux.HandleFunc("/runs/latest", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Runs.Latest(w, r)
		})
	}

	if cfg.Meetings != nil {
		mux.HandleFunc("/clubs/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/clubs/")
			idPart, resource, found := strings.Cut(rest, "/")
			if !found || resource != "meetings" || idPart == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			clubID, err := strconv.ParseInt(idPart, 10, 64)
			if err != nil {
				cfg.Meetings.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClubID)
				return
			}
			ctx := ContextWithClubID(r.Context(), clubID)
			cfg.Meetings.List(w, r.WithContext(ctx))
		})
	}

	if cfg.Health != nil {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Health.Check(w, r)
		})
	}

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
