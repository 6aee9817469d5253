package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"faircircle/internal/fairscore"
	dErrors "faircircle/pkg/domain-errors"
	id "faircircle/pkg/domain"
	"faircircle/pkg/platform/httputil"
	"faircircle/pkg/requestcontext"
)

// Handler exposes fair-score lookups, mirroring the upstream FairScale
// surface: /fairscale/score returns the full report, /fairscale/fairScore
// only the numeric score.
type Handler struct {
	oracle fairscore.Oracle
	logger *slog.Logger
}

func New(oracle fairscore.Oracle, logger *slog.Logger) *Handler {
	return &Handler{oracle: oracle, logger: logger}
}

// Register mounts the score endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/fairscale", func(r chi.Router) {
		r.Get("/score", h.HandleReport)
		r.Get("/fairScore", h.HandleScore)
	})
}

// ReportResponse is the JSON shape of a full fair-score report.
type ReportResponse struct {
	Principal   string   `json:"principal"`
	FairScore   uint8    `json:"fairscore"`
	Tier        string   `json:"tier"`
	Badges      []string `json:"badges"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

// ScoreResponse is the lightweight score shape.
type ScoreResponse struct {
	Principal string `json:"principal"`
	FairScore uint8  `json:"fairscore"`
}

// HandleReport returns the caller's full score report.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	report, err := h.oracle.Report(ctx, caller)
	if err != nil {
		h.logError(ctx, "score report failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ReportResponse{
		Principal:   report.Principal.String(),
		FairScore:   report.Value,
		Tier:        string(report.Tier),
		Badges:      report.Badges,
		LastUpdated: report.LastUpdated,
	})
}

// HandleScore returns only the caller's numeric score.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	score, err := h.oracle.Lookup(ctx, caller)
	if err != nil {
		h.logError(ctx, "score lookup failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ScoreResponse{
		Principal: caller.String(),
		FairScore: score,
	})
}

func (h *Handler) requirePrincipal(w http.ResponseWriter, ctx context.Context) (id.Principal, bool) {
	caller := requestcontext.Principal(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.NilPrincipal, false
	}
	return caller, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
