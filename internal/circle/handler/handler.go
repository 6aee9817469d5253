package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"faircircle/internal/circle/models"
	"faircircle/internal/circle/service"
	id "faircircle/pkg/domain"
	dErrors "faircircle/pkg/domain-errors"
	"faircircle/pkg/platform/httputil"
	"faircircle/pkg/requestcontext"
)

// Service defines the circle operations the handler exposes.
type Service interface {
	Create(ctx context.Context, creator id.Principal, req service.CreateCircleRequest) (*models.Circle, error)
	Get(ctx context.Context, circleID id.CircleID) (*models.Circle, error)
	List(ctx context.Context) ([]*models.Circle, error)
	Join(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error)
	Activate(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error)
	Contribute(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error)
	Claim(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error)
	UpdateScore(ctx context.Context, circleID id.CircleID, caller, member id.Principal, newScore uint8) (*models.Circle, error)
	Cancel(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error)
}

// Handler wires circle endpoints to the circle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a circle handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts circle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/circles", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{circleID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Post("/join", h.HandleJoin)
			r.Post("/activate", h.HandleActivate)
			r.Post("/contributions", h.HandleContribute)
			r.Post("/claim", h.HandleClaim)
			r.Post("/cancel", h.HandleCancel)
			r.Put("/members/{principal}/score", h.HandleUpdateScore)
		})
	})
}

// HandleCreate handles POST /circles requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	var req CreateCircleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	circle, err := h.service.Create(ctx, caller, req.ToServiceRequest())
	if err != nil {
		h.logError(ctx, "create circle failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromCircle(circle))
}

// HandleList handles GET /circles requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	circles, err := h.service.List(ctx)
	if err != nil {
		h.logError(ctx, "list circles failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromCircles(circles))
}

// HandleGet handles GET /circles/{circleID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	circleID, ok := h.circleID(w, r)
	if !ok {
		return
	}

	circle, err := h.service.Get(ctx, circleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromCircle(circle))
}

// HandleJoin handles POST /circles/{circleID}/join requests.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, "join circle failed", h.service.Join)
}

// HandleActivate handles POST /circles/{circleID}/activate requests.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, "activate circle failed", h.service.Activate)
}

// HandleContribute handles POST /circles/{circleID}/contributions requests.
func (h *Handler) HandleContribute(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, "contribution failed", h.service.Contribute)
}

// HandleClaim handles POST /circles/{circleID}/claim requests.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, "claim failed", h.service.Claim)
}

// HandleCancel handles POST /circles/{circleID}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, "cancel circle failed", h.service.Cancel)
}

// HandleUpdateScore handles PUT /circles/{circleID}/members/{principal}/score.
func (h *Handler) HandleUpdateScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}
	circleID, ok := h.circleID(w, r)
	if !ok {
		return
	}
	member, err := id.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member principal"))
		return
	}

	var req UpdateScoreRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	circle, err := h.service.UpdateScore(ctx, circleID, caller, member, req.Score)
	if err != nil {
		h.logError(ctx, "update score failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromCircle(circle))
}

// memberAction runs an operation taking only circle ID and caller, the shape
// of every state transition endpoint.
func (h *Handler) memberAction(w http.ResponseWriter, r *http.Request, logMsg string, op func(ctx context.Context, circleID id.CircleID, caller id.Principal) (*models.Circle, error)) {
	ctx := r.Context()
	start := time.Now()

	caller, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}
	circleID, ok := h.circleID(w, r)
	if !ok {
		return
	}

	circle, err := op(ctx, circleID, caller)
	if err != nil {
		h.logError(ctx, logMsg, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "circle operation completed",
		"request_id", requestcontext.RequestID(ctx),
		"circle_id", circleID.String(),
		"caller", caller.String(),
		"status", string(circle.Status),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromCircle(circle))
}

func (h *Handler) requirePrincipal(w http.ResponseWriter, ctx context.Context) (id.Principal, bool) {
	caller := requestcontext.Principal(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.NilPrincipal, false
	}
	return caller, true
}

func (h *Handler) circleID(w http.ResponseWriter, r *http.Request) (id.CircleID, bool) {
	circleID, err := id.ParseCircleID(chi.URLParam(r, "circleID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid circle id"))
		return id.NilCircleID, false
	}
	return circleID, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
