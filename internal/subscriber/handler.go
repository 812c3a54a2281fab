package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/pkg/utilities"
)

const (
	msgCreated = "Subscription added successfully. Please check your email to confirm."
	msgUpdated = "Subscription updated successfully"

	errEmailRequired = "Email is required"
	errEmailInvalid  = "Valid email is required"
	errInvalidBody   = "Invalid request body"
	errCreateFailed  = "Failed to add subscription"
	errUpdateFailed  = "Failed to update subscription"
	errInternal      = "Internal server error"
)

const maxRequestBody = 1 << 20

// Reconciler is the flow the handler drives; *Service implements it.
type Reconciler interface {
	Subscribe(ctx context.Context, in entity.Subscriber) (entity.Outcome, error)
}

// Handler exposes the subscription endpoint.
type Handler struct {
	svc    Reconciler
	logger *zap.SugaredLogger
}

func NewHandler(svc Reconciler, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

// SubscribeResponse is the success body.
type SubscribeResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	IsUpdate bool   `json:"isUpdate"`
}

// Subscribe handles POST with a JSON subscriber record. Provider details are
// logged here and never written to the response.
func (h *Handler) Subscribe(rw http.ResponseWriter, r *http.Request) {
	reqID := utilities.RequestIDFrom(r.Context())
	w := &startedWriter{ResponseWriter: rw}
	defer func() {
		if v := recover(); v != nil {
			h.logger.Errorw("subscribe panic", "request_id", reqID, "panic", v, "response_started", w.started)
			// the status line is already out; nothing more can be sent
			if !w.started {
				h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": errInternal})
			}
		}
	}()

	var in entity.Subscriber
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debugw("invalid subscribe payload", "request_id", reqID, "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidBody})
		return
	}

	outcome, err := h.svc.Subscribe(r.Context(), in)
	if err != nil {
		status, msg := h.mapError(reqID, in, err)
		h.writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	resp := SubscribeResponse{Success: true, Message: msgCreated}
	if outcome == entity.OutcomeUpdated {
		resp.Message = msgUpdated
		resp.IsUpdate = true
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// mapError logs err with its diagnostic detail and returns the status and the
// generic message for the caller.
func (h *Handler) mapError(reqID string, in entity.Subscriber, err error) (int, string) {
	switch {
	case errors.Is(err, ErrEmailRequired):
		return http.StatusBadRequest, errEmailRequired
	case errors.Is(err, ErrEmailInvalid):
		h.logger.Debugw("rejected email", "request_id", reqID, "email", in.Email)
		return http.StatusBadRequest, errEmailInvalid
	case errors.Is(err, ErrNotConfigured):
		h.logger.Errorw("subscribe misconfigured", "request_id", reqID, "err", err)
		return http.StatusInternalServerError, errInternal
	}

	fields := []any{"request_id", reqID, "email", in.Normalize().Email, "err", err}
	var pe *directory.ProviderError
	if errors.As(err, &pe) {
		fields = append(fields, "provider_status", pe.Status, "provider_body", pe.Body)
	}

	var re *ReconcileError
	if !errors.As(err, &re) {
		h.logger.Errorw("subscribe failed", fields...)
		return http.StatusInternalServerError, errInternal
	}
	switch re.Stage {
	case StageCreate:
		h.logger.Errorw("failed to add member", fields...)
		return http.StatusInternalServerError, errCreateFailed
	case StageUpdate:
		h.logger.Errorw("failed to update member", fields...)
		return http.StatusInternalServerError, errUpdateFailed
	default:
		h.logger.Errorw("member lookup failed", fields...)
		return http.StatusInternalServerError, errInternal
	}
}

// startedWriter records whether the response status has been sent.
type startedWriter struct {
	http.ResponseWriter
	started bool
}

func (sw *startedWriter) WriteHeader(code int) {
	sw.started = true
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *startedWriter) Write(b []byte) (int, error) {
	sw.started = true
	return sw.ResponseWriter.Write(b)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
