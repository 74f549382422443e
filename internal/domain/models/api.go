package models

// RecentRequest filters the recent alerts and events feeds.
type RecentRequest struct {
	Symbol string `query:"symbol"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

// HistoryRequest filters the alert history query.
type HistoryRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// HealthStatus reports component health for the health endpoint.
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
