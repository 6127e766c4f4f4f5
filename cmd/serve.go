package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/identity"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/search"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(requestLogger)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/api/research", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Identifier  string `json:"identifier"`
				Domain      string `json:"domain"`
				CompanyName string `json:"company_name"`
				Depth       string `json:"depth"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, eris.Wrap(model.ErrInvalidIdentifier, "invalid request body"))
				return
			}

			ref := model.Identifier{Domain: body.Domain, CompanyName: body.CompanyName}
			if body.Identifier != "" {
				ref = identity.ParseIdentifier(body.Identifier)
			}
			depth, err := resolveDepth(body.Depth)
			if err != nil {
				writeError(w, err)
				return
			}

			result, err := env.Service.Research(req.Context(), ref, depth)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/api/profile", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				IdentityID string   `json:"identity_id"`
				FocusAreas []string `json:"focus_areas"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, eris.Wrap(model.ErrInvalidIdentifier, "invalid request body"))
				return
			}

			result, err := env.Service.CreateProfile(req.Context(), body.IdentityID, body.FocusAreas)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/api/prospects/{id}", func(w http.ResponseWriter, req *http.Request) {
			includeContent := req.URL.Query().Get("content") == "true"
			var kinds []model.DocumentKind
			for _, k := range req.URL.Query()["kind"] {
				kinds = append(kinds, model.DocumentKind(k))
			}

			data, err := env.Service.GetProspectData(req.Context(), chi.URLParam(req, "id"), includeContent, kinds)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, data)
		})

		r.Get("/api/search", func(w http.ResponseWriter, req *http.Request) {
			params := req.URL.Query()
			q := search.Query{
				CompanyName:   params.Get("name"),
				Domain:        params.Get("domain"),
				ContentSearch: params.Get("q"),
			}
			for _, s := range params["status"] {
				q.Statuses = append(q.Statuses, model.ProspectStatus(s))
			}
			if raw := params.Get("limit"); raw != "" {
				if _, err := fmt.Sscanf(raw, "%d", &q.Limit); err != nil {
					writeError(w, eris.Wrapf(model.ErrInvalidIdentifier, "bad limit %q", raw))
					return
				}
			}

			results, total, err := env.Service.SearchProspects(req.Context(), q)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"results":     results,
				"total_found": total,
			})
		})

		if cfg.Server.RefreshCron != "" {
			maxAge := time.Duration(cfg.Server.RefreshMaxAgeHours) * time.Hour
			depth, err := resolveDepth("")
			if err != nil {
				return err
			}

			c := cron.New()
			_, err = c.AddFunc(cfg.Server.RefreshCron, func() {
				n, err := env.Service.RefreshStale(ctx, maxAge, depth)
				if err != nil {
					zap.L().Error("stale refresh sweep failed", zap.Error(err))
					return
				}
				zap.L().Info("stale refresh sweep done", zap.Int("refreshed", n))
			})
			if err != nil {
				return eris.Wrap(err, "schedule refresh cron")
			}
			c.Start()
			defer c.Stop()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		zap.L().Info("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the caller-input error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, model.ErrInvalidIdentifier):
		status = http.StatusBadRequest
	case eris.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case eris.Is(err, model.ErrInvalidState):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
