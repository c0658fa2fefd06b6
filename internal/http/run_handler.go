package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
)

type runService interface {
	Run(ctx context.Context) (application.RunReport, error)
}

type latestRunSource interface {
	Latest() (application.RunReport, bool)
}

type RunHandler struct {
	service   runService
	latest    latestRunSource
	timeout   time.Duration
	responder responder
	logger    *slog.Logger
}

// NewRunHandler wires the trigger endpoints. timeout bounds a triggered run; zero leaves it to the request context.
func NewRunHandler(service runService, latest latestRunSource, timeout time.Duration, logger *slog.Logger) *RunHandler {
	return &RunHandler{service: service, latest: latest, timeout: timeout, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// The run outlives a dropped client connection.
	ctx := context.WithoutCancel(r.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	logger := handlerLogger(r.Context(), h.logger, "RunHandler", "Trigger")
	report, err := h.service.Run(ctx)
	if err != nil {
		if errors.Is(err, application.ErrClubDirectoryUnavailable) {
			logger.Error("scheduler run aborted", "error", err)
			h.responder.writeJSON(r.Context(), w, http.StatusInternalServerError, toRunReportDTO(report))
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info("scheduler run triggered", "run_id", report.RunID, "outcome", report.Outcome())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRunReportDTO(report))
}

func (h *RunHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.latest == nil {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errNoRunYet)
		return
	}
	report, ok := h.latest.Latest()
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errNoRunYet)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRunReportDTO(report))
}

type runReportDTO struct {
	application.RunReport
	Month      string `json:"month"`
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
}

func toRunReportDTO(report application.RunReport) runReportDTO {
	if report.Clubs == nil {
		report.Clubs = []application.ClubReport{}
	}
	month := ""
	if report.Year != 0 {
		month = time.Date(report.Year, report.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	}
	return runReportDTO{
		RunReport:  report,
		Month:      month,
		Outcome:    report.Outcome(),
		DurationMS: report.Duration().Milliseconds(),
	}
}
