package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/helpdesk-webhooks/webhook"
	"github.com/marcelsud/helpdesk-webhooks/webhook/payload"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
	maxBodyBytes    = 1 << 20
)

/* HTTP layer DTOs for the webhook API
 * Separate from domain entities to avoid leaking internal structure
 */

// createRequest accepts events as a comma-separated string or a list
type createRequest struct {
	URL       string  `json:"url"`
	Events    any     `json:"events"`
	Mailboxes []int64 `json:"mailboxes"`
}

type subscriptionResponse struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	Events       []string   `json:"events"`
	Mailboxes    []int64    `json:"mailboxes,omitempty"`
	LastRunTime  *time.Time `json:"last_run_time,omitempty"`
	LastRunError string     `json:"last_run_error,omitempty"`
}

type createResponse struct {
	Webhook  *subscriptionResponse `json:"webhook,omitempty"`
	Rejected []string              `json:"rejected_events,omitempty"`
	Error    string                `json:"error,omitempty"`
}

type logResponse struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"webhook_id"`
	Event          string          `json:"event"`
	StatusCode     int             `json:"status_code"`
	Payload        payload.Payload `json:"payload"`
	Error          string          `json:"error"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type outcomeResponse struct {
	WebhookID  string `json:"webhook_id,omitempty"`
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	LogID      string `json:"log_id,omitempty"`
	Branch     string `json:"branch"`
}

type fireResponse struct {
	Event      string            `json:"event"`
	Deliveries []outcomeResponse `json:"deliveries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSubscriptionResponse(s webhook.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:           s.ID,
		URL:          s.URL,
		Events:       s.Events,
		Mailboxes:    s.Mailboxes,
		LastRunError: s.LastRunError,
	}
	if !s.LastRunTime.IsZero() {
		t := s.LastRunTime
		resp.LastRunTime = &t
	}
	return resp
}

func toOutcomeResponse(id string, o webhook.Outcome) outcomeResponse {
	return outcomeResponse{
		WebhookID:  id,
		Success:    o.Success,
		Status:     o.Status.String(),
		StatusCode: o.StatusCode,
		Error:      o.Error,
		LogID:      o.LogID,
		Branch:     o.Branch.String(),
	}
}

// getEvents handles GET /v1/events
func getEvents(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"events": webhookService.Events()})
	})
}

// postWebhook handles POST /v1/webhooks
func postWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		res, err := webhookService.CreateWithMailboxes(r.Context(), req.URL, req.Events, req.Mailboxes)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !res.Created() {
			writeJSON(w, http.StatusUnprocessableEntity, createResponse{
				Rejected: res.Rejected,
				Error:    "url and at least one recognized event are required",
			})
			return
		}

		sub := toSubscriptionResponse(*res.Subscription)
		writeJSON(w, http.StatusCreated, createResponse{Webhook: &sub, Rejected: res.Rejected})
	})
}

// getWebhooks handles GET /v1/webhooks
func getWebhooks(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subs, err := webhookService.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		result := make([]subscriptionResponse, 0, len(subs))
		for _, s := range subs {
			result = append(result, toSubscriptionResponse(s))
		}
		writeJSON(w, http.StatusOK, result)
	})
}

// getWebhook handles GET /v1/webhooks/{id}
func getWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := webhookService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
	})
}

// deleteWebhook handles DELETE /v1/webhooks/{id}
func deleteWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := webhookService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// getWebhookLogs handles GET /v1/webhooks/{id}/logs?limit=N
func getWebhookLogs(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLogLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxLogLimit)
		}

		entries, err := webhookService.Logs(r.Context(), chi.URLParam(r, "id"), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		result := make([]logResponse, 0, len(entries))
		for _, e := range entries {
			result = append(result, logResponse{
				ID:             e.ID,
				SubscriptionID: e.SubscriptionID,
				Event:          e.Event,
				StatusCode:     e.StatusCode,
				Payload:        e.Payload,
				Error:          e.Error,
				CorrelationID:  e.CorrelationID,
				CreatedAt:      e.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, result)
	})
}

// postEvent handles POST /v1/events/{event}?mailbox=ID
// The body is the canonical payload of the entity the event is about
func postEvent(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event := chi.URLParam(r, "event")

		var mailboxID int64
		if s := r.URL.Query().Get("mailbox"); s != "" {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "mailbox must be a non-negative integer")
				return
			}
			mailboxID = n
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		entity, err := payload.Parse(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
			return
		}

		deliveries, err := webhookService.Fire(r.Context(), event, entity, mailboxID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		resp := fireResponse{Event: event, Deliveries: make([]outcomeResponse, 0, len(deliveries))}
		for _, d := range deliveries {
			resp.Deliveries = append(resp.Deliveries, toOutcomeResponse(d.SubscriptionID, d.Outcome))
		}
		writeJSON(w, http.StatusAccepted, resp)
	})
}

// postRetry handles POST /v1/logs/{id}/retry
func postRetry(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, err := webhookService.Retry(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toOutcomeResponse("", outcome))
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, webhook.ErrNotFound), errors.Is(err, webhook.ErrInvalidEvent):
		return http.StatusNotFound
	case errors.Is(err, webhook.ErrMaxAttempts):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
