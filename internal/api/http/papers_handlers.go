package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	authmw "github.com/mind-engage/mindengage-assembly/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assembly/internal/paper"
	"github.com/mind-engage/mindengage-assembly/internal/platform/logger"
	"github.com/mind-engage/mindengage-assembly/internal/rbac"
)

func MountPapers(r chi.Router, svc *paper.Service, log *logger.Logger) {
	r.With(rbac.Require(rbac.PermPaperAssemble)).Post("/assemble", AssembleHandler(svc, log, false))
	r.With(rbac.Require(rbac.PermPaperAssemble)).Post("/preview", AssembleHandler(svc, log, true))
	r.With(rbac.Require(rbac.PermPaperFeasibility)).Post("/feasibility", FeasibilityHandler(svc, log))
	r.With(rbac.Require(rbac.PermPaperView)).Get("/", ListPapersHandler(svc, log))
	r.With(rbac.Require(rbac.PermPaperView)).Get("/{paperID}", GetPaperHandler(svc, log))
}

// AssembleHandler runs the assembly for the caller's bank. With preview set
// the request is always a dry run. A committed paper answers 201.
func AssembleHandler(svc *paper.Service, log *logger.Logger, preview bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, log, err)
			return
		}
		var req paper.Request
		if err := decodeValidated(body, "request", &req); err != nil {
			writeError(w, log, err)
			return
		}
		if preview {
			req.DryRun = true
		}

		out, err := svc.Assemble(r.Context(), authmw.SubjectFromContext(r.Context()), req)
		switch {
		case errors.Is(err, paper.ErrNoItems):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "result": out.Result})
			return
		case err != nil:
			writeError(w, log, err)
			return
		}
		status := http.StatusCreated
		if out.DryRun {
			status = http.StatusOK
		}
		writeJSON(w, status, out)
	}
}

// FeasibilityHandler takes a bare assembly config.
func FeasibilityHandler(svc *paper.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeError(w, log, err)
			return
		}
		var cfg assembly.Config
		if err := decodeValidated(body, "config", &cfg); err != nil {
			writeError(w, log, err)
			return
		}
		rep, err := svc.CheckFeasibility(r.Context(), authmw.SubjectFromContext(r.Context()), cfg)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func ListPapersHandler(svc *paper.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), authmw.SubjectFromContext(r.Context()), queryInt(r, "limit"), queryInt(r, "offset"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetPaperHandler(svc *paper.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "paperID"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
