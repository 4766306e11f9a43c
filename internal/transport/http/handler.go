package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fluent-freelance/messaging-service/internal/domain"
	"github.com/fluent-freelance/messaging-service/internal/postgres"
	"github.com/fluent-freelance/messaging-service/internal/service"
	httpmw "github.com/fluent-freelance/messaging-service/internal/transport/http/middleware"
	"github.com/fluent-freelance/messaging-service/internal/transport/ws"
	"github.com/fluent-freelance/messaging-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// Handler is the REST surface next to the real-time hub: history reads, a
// presence probe and the non-real-time interview scheduling variant. The
// interview endpoint goes through the same workflow as the socket path and
// attempts the same room broadcast.
type Handler struct {
	svc      *service.MessagingService
	engine   *ws.Engine
	registry *ws.Registry
}

func NewHandler(svc *service.MessagingService, engine *ws.Engine, registry *ws.Registry) *Handler {
	return &Handler{svc: svc, engine: engine, registry: registry}
}

// GET /conversations/{id}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	email := httpmw.EmailFromCtx(r.Context())

	conv, err := h.svc.Authorize(r.Context(), id, email)
	if err != nil {
		h.writeError(w, r, "GetConversation", err)
		return
	}

	httputil.JSON(w, http.StatusOK, ConversationResponse{
		ID:            conv.ID,
		Participants:  conv.Participants,
		LastMessageID: conv.LastMessageID,
		CreatedAt:     conv.CreatedAt,
		UpdatedAt:     conv.UpdatedAt,
	})
}

// GET /conversations/{id}/messages?after=&limit=
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	email := httpmw.EmailFromCtx(r.Context())
	after := r.URL.Query().Get("after")
	limit := queryInt(r, "limit", 50)

	items, next, err := h.svc.History(r.Context(), id, email, after, limit)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			httputil.JSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		h.writeError(w, r, "GetMessages", err)
		return
	}

	resp := MessagesResponse{Items: make([]ChatMessageItem, 0, len(items)), NextCursor: next}
	for _, m := range items {
		resp.Items = append(resp.Items, toChatMessageItem(&m, m.SenderEmail == email))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// POST /conversations/{id}/interview
//
// Produces the same persisted state as the interview_scheduled socket frame
// and broadcasts to whichever participants are connected.
func (h *Handler) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	email := httpmw.EmailFromCtx(r.Context())

	var req ScheduleInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.svc.ScheduleInterview(r.Context(), id, email, req.Interview, req.ProposalID)
	if err != nil {
		h.writeError(w, r, "ScheduleInterview", err)
		return
	}

	h.engine.NotifyMessage(ws.TypeInterviewScheduled, ws.TypeInterviewScheduled, msg)

	httputil.JSON(w, http.StatusCreated, toChatMessageItem(msg, true))
}

// GET /presence
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	snapshot := h.registry.Snapshot()
	resp := PresenceResponse{Users: make([]PresenceUser, 0, len(snapshot))}
	for _, u := range snapshot {
		resp.Users = append(resp.Users, PresenceUser{UserEmail: u.UserEmail, UserName: u.UserName})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		httputil.JSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotParticipant):
		httputil.JSON(w, http.StatusForbidden, ErrorResponse{Error: "access denied"})
	case errors.Is(err, domain.ErrNotInterviewMessage),
		errors.Is(err, domain.ErrEmptyContent):
		httputil.JSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		// detail stays in the log; clients get a generic body
		slog.Error("handler."+op+":", slog.Any("err", err))
		httputil.JSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func toChatMessageItem(m *domain.Message, isOwn bool) ChatMessageItem {
	return ChatMessageItem{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderEmail:    m.SenderEmail,
		ReceiverEmail:  m.ReceiverEmail,
		Content:        m.Content,
		Type:           string(m.Type),
		IsRead:         m.IsRead,
		IsOwn:          isOwn,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func queryInt(r *http.Request, name string, def int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}
