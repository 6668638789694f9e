package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/internal/approval"
	"teknologiumum.com/pesto/internal/gate"
	"teknologiumum.com/pesto/internal/trial"
	"teknologiumum.com/pesto/internal/waitinglist"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

const TokenHeader = "X-Pesto-Token"

type Handler struct {
	gate           *gate.GateService
	waitingList    *waitinglist.WaitingListService
	workflow       *approval.Workflow
	trial          *trial.TrialService
	store          repository.RecordStore
	requestTimeout time.Duration
	logger         *logrus.Entry
}

func NewHandler(gateSvc *gate.GateService, waitingList *waitinglist.WaitingListService, workflow *approval.Workflow, trialSvc *trial.TrialService, store repository.RecordStore, requestTimeout time.Duration) *Handler {
	return &Handler{
		gate:           gateSvc,
		waitingList:    waitingList,
		workflow:       workflow,
		trial:          trialSvc,
		store:          store,
		requestTimeout: requestTimeout,
		logger:         logrus.WithField("component", "http"),
	}
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

// Authenticate is the admission check placed in front of the execution
// engine. Any method is accepted.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	decision := h.gate.Authorize(r.Context(), r.Header.Get(TokenHeader))

	switch decision.Outcome {
	case gate.Allow:
		w.WriteHeader(http.StatusOK)
	case gate.Unauthorized:
		writeMessage(w, http.StatusUnauthorized, decision.Message)
	case gate.RateLimited:
		writeMessage(w, http.StatusTooManyRequests, decision.Message)
	default:
		writeMessage(w, http.StatusInternalServerError, decision.Message)
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Readyz reports whether the record store answers.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Healthz(w, r)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.HumanUser
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, r, models.ErrInvalidBody)
		return
	}
	if user.Email == "" {
		h.writeError(w, r, models.ErrEmptyEmail)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.waitingList.Submit(ctx, user); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Created")
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	users, err := h.waitingList.ListAll(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req models.ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, models.ErrInvalidBody)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.workflow.Approve(ctx, req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OK")
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, models.ErrInvalidBody)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.workflow.Revoke(ctx, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OK")
}

func (h *Handler) Trial(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	token, err := h.trial.Issue(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TokenRequest{Token: token})
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
