package api

import (
	"time"

	"SignalPulse/internal/domain/models"
	domrepo "SignalPulse/internal/domain/repository"
	"SignalPulse/internal/usecase"
	xhttp "SignalPulse/pkg/http"
	xlogger "SignalPulse/pkg/logger"
	"SignalPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// AlertsEchoHandler exposes the pipeline's read-only operational API.
type AlertsEchoHandler struct {
	logger   *xlogger.Logger
	recorder *usecase.EventRecorder
	history  domrepo.AlertHistory
	stream   domrepo.MarketStream
}

func NewAlertsEchoHandler(logger *xlogger.Logger, recorder *usecase.EventRecorder, history domrepo.AlertHistory, stream domrepo.MarketStream) *AlertsEchoHandler {
	return &AlertsEchoHandler{
		logger:   logger,
		recorder: recorder,
		history:  history,
		stream:   stream,
	}
}

func (h *AlertsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/alerts/recent", h.RecentAlerts)
	g.GET("/alerts/history", h.History)
	g.GET("/events/recent", h.RecentEvents)
}

func (h *AlertsEchoHandler) Health(c echo.Context) error {
	status := models.HealthStatus{
		Status:     "ok",
		Components: map[string]string{},
	}

	if h.stream != nil {
		if h.stream.IsConnected() {
			status.Components["feed"] = "ok"
		} else {
			status.Components["feed"] = "disconnected"
			status.Status = "degraded"
		}
	}

	if h.history != nil {
		if err := h.history.Health(c.Request().Context()); err != nil {
			status.Components["history"] = "unreachable"
			status.Status = "degraded"
		} else {
			status.Components["history"] = "ok"
		}
	}

	if status.Status != "ok" {
		return xhttp.ServiceUnavailableResponse(c, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *AlertsEchoHandler) RecentAlerts(c echo.Context) error {
	req := &models.RecentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alerts, err := h.recorder.RecentDeliveredAlerts(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("recent alerts lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if req.Symbol != "" {
		filtered := alerts[:0]
		for _, a := range alerts {
			if a.Symbol == req.Symbol {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *AlertsEchoHandler) RecentEvents(c echo.Context) error {
	req := &models.RecentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	events := h.recorder.Recent(req.Limit)
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *AlertsEchoHandler) History(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("alert history is not configured"))
	}

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	from := util.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(req.To, now)
	if !from.Before(to) {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_RANGE",
			Field:   "from",
			Message: "from must be before to",
		}})
	}

	alerts, err := h.history.Query(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("alert history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}
