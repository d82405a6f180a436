package app

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Farhaan96/CollisionOS-sub000/internal/importer"
	"github.com/Farhaan96/CollisionOS-sub000/internal/platform/httpx"
	"github.com/Farhaan96/CollisionOS-sub000/internal/shared"
	"github.com/Farhaan96/CollisionOS-sub000/jobs"
)

// RouterParams groups dependencies for building the operational router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	JobHandler *jobs.Handler
	Imports    *importer.Repository
	Audit      *shared.AuditLogger
}

// NewRouter constructs the chi.Router exposing health and ops endpoints.
// Business mutations happen through the worker, not over HTTP.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				params.Logger.Error("healthz db ping", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "database unreachable")
				return
			}
		}
		if params.Redis != nil {
			if err := params.Redis.Ping(req.Context()).Err(); err != nil {
				params.Logger.Error("healthz redis ping", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "redis unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/ops", func(r chi.Router) {
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
		if params.Imports != nil {
			r.Get("/import/batches/{id}", params.batchStatus)
		}
		if params.Audit != nil {
			r.Get("/audit/{entity}/{id}", params.auditTrail)
		}
	})

	return r
}

func (p RouterParams) batchStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "batch id must be numeric")
		return
	}
	batch, err := p.Imports.GetBatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, importer.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "batch not found")
			return
		}
		p.Logger.Error("batch status", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	files, err := p.Imports.ListFiles(r.Context(), id)
	if err != nil {
		p.Logger.Error("batch files", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"batch": batch, "files": files})
}

func (p RouterParams) auditTrail(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	entityID := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := p.Audit.Trail(r.Context(), entity, entityID, limit)
	if err != nil {
		p.Logger.Error("audit trail", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": logs})
}
