// Package handler exposes the identifier service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sportsuid/internal/uid/composite"
	"sportsuid/internal/uid/format"
	"sportsuid/internal/uid/models"
	"sportsuid/pkg/platform/httputil"
	"sportsuid/pkg/requestcontext"
)

// Service is the subset of the identifier service the handler calls.
type Service interface {
	GenerateUID(ctx context.Context, req models.GenerateRequest) (string, error)
	GenerateEventUID(ctx context.Context, req models.EventRequest) (string, error)
	GenerateBatch(ctx context.Context, reqs []models.GenerateRequest) ([]string, error)
	ValidateUID(id string) models.ValidationResult
	FormatUIDForDisplay(id string) string
	CertificateIdentifier(eventID, studentID string) (string, error)
	OrderIdentifier(eventID, coachID string) (string, error)
	SplitComposite(id string) (composite.Parts, error)
	VerifyIssued(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identifier endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/uids", h.HandleGenerate)
		r.Post("/uids/batch", h.HandleGenerateBatch)
		r.Get("/uids/{uid}", h.HandleValidate)
		r.Get("/uids/{uid}/display", h.HandleDisplay)
		r.Post("/events/uids", h.HandleGenerateEvent)
		r.Post("/certificates/uids", h.HandleCertificate)
		r.Post("/orders/uids", h.HandleOrder)
		r.Get("/composites/{id}", h.HandleSplitComposite)
	})
}

// HandleGenerate handles POST /v1/uids.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[GenerateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	uid, err := h.service.GenerateUID(ctx, models.GenerateRequest{
		Category: req.Category,
		Region:   req.Region,
		Date:     req.ParsedDate(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "uid generation failed",
			"request_id", requestID,
			"category", req.Category,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "uid generated",
		"request_id", requestID,
		"uid", uid,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, &UIDResponse{UID: uid, Display: h.service.FormatUIDForDisplay(uid)})
}

// HandleGenerateBatch handles POST /v1/uids/batch.
func (h *Handler) HandleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	items := make([]models.GenerateRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.GenerateRequest{Category: it.Category, Region: it.Region, Date: it.ParsedDate()}
	}
	uids, err := h.service.GenerateBatch(ctx, items)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch generation failed",
			"request_id", requestID,
			"items", len(items),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch generated",
		"request_id", requestID,
		"items", len(uids),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, &BatchResponse{UIDs: uids})
}

// HandleGenerateEvent handles POST /v1/events/uids.
func (h *Handler) HandleGenerateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	uid, err := h.service.GenerateEventUID(ctx, models.EventRequest{
		Sport:  req.Sport,
		Region: req.Region,
		Date:   req.ParsedDate(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "event uid generation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event uid generated",
		"request_id", requestID,
		"uid", uid,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, &UIDResponse{UID: uid})
}

// HandleValidate handles GET /v1/uids/{uid}. A malformed identifier is a
// valid answer, not a client error, so the status is 200 either way.
// Display-form identifiers are accepted. ?verify=true also asks whether the
// identifier was actually issued.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	uid := format.FromDisplay(chi.URLParam(r, "uid"))
	resp := fromValidation(h.service.ValidateUID(uid))

	if verify, _ := strconv.ParseBool(r.URL.Query().Get("verify")); verify && resp.Valid {
		issued, err := h.service.VerifyIssued(ctx, uid)
		if err != nil {
			h.logger.ErrorContext(ctx, "issuance check failed",
				"request_id", requestID,
				"uid", uid,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		resp.Issued = &issued
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleDisplay handles GET /v1/uids/{uid}/display.
func (h *Handler) HandleDisplay(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &DisplayResponse{
		Display: h.service.FormatUIDForDisplay(chi.URLParam(r, "uid")),
	})
}

// HandleCertificate handles POST /v1/certificates/uids.
func (h *Handler) HandleCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CertificateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	uid, err := h.service.CertificateIdentifier(format.FromDisplay(req.EventID), format.FromDisplay(req.StudentID))
	if err != nil {
		h.logger.WarnContext(ctx, "certificate identifier rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &UIDResponse{UID: uid})
}

// HandleOrder handles POST /v1/orders/uids.
func (h *Handler) HandleOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[OrderRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	uid, err := h.service.OrderIdentifier(format.FromDisplay(req.EventID), format.FromDisplay(req.CoachID))
	if err != nil {
		h.logger.WarnContext(ctx, "order identifier rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &UIDResponse{UID: uid})
}

// HandleSplitComposite handles GET /v1/composites/{id}.
func (h *Handler) HandleSplitComposite(w http.ResponseWriter, r *http.Request) {
	parts, err := h.service.SplitComposite(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromParts(parts))
}
