package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
)

const dateLayout = "2006-01-02"

type meetingQueryService interface {
	UpcomingMeetings(ctx context.Context, clubID int64, from time.Time) ([]application.Meeting, error)
}

type MeetingHandler struct {
	service   meetingQueryService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingQueryService, logger *slog.Logger) *MeetingHandler {
	return &MeetingHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clubID, ok := ClubIDFromContext(r.Context())
	if !ok || clubID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClubID)
		return
	}

	var from time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidFromDate)
			return
		}
		from = parsed
	}

	meetings, err := h.service.UpcomingMeetings(r.Context(), clubID, from)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "MeetingHandler", "List", "club_id", clubID).
		Debug("meetings listed", "count", len(meetings))

	dtos := make([]meetingDTO, 0, len(meetings))
	for _, m := range meetings {
		dtos = append(dtos, toMeetingDTO(m))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingListResponse{Meetings: dtos})
}

type meetingDTO struct {
	ID                string  `json:"id"`
	ClubID            int64   `json:"club_id"`
	Name              string  `json:"name"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	Place             string  `json:"place"`
	ArrivalTime       *string `json:"arrival_time,omitempty"`
	AgendaLink        *string `json:"agenda_link,omitempty"`
	EntryInstructions *string `json:"entry_instructions,omitempty"`
}

type meetingListResponse struct {
	Meetings []meetingDTO `json:"meetings"`
}

func toMeetingDTO(m application.Meeting) meetingDTO {
	return meetingDTO{
		ID:                m.ID,
		ClubID:            m.ClubID,
		Name:              m.Name,
		Date:              m.Date.Format(dateLayout),
		Time:              m.Time,
		Place:             m.Place,
		ArrivalTime:       m.ArrivalTime,
		AgendaLink:        m.AgendaLink,
		EntryInstructions: m.EntryInstructions,
	}
}
