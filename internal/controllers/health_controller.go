package controllers

import (
	"fmt"
	"net/http"
	"time"
	"watchtime/internal/services"
	"watchtime/internal/structures"
)

type HealthController struct {
	engine    services.AggregationServiceInterface
	driver    string
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Pending       int     `json:"pending"`
	Mode          string  `json:"mode"`
	Storage       string  `json:"storage"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Pending:       hc.engine.Pending(),
		Mode:          hc.engine.Mode(),
		Storage:       hc.driver,
	})
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(conf *structures.Config, engine services.AggregationServiceInterface) *HealthController {
	return &HealthController{
		engine:    engine,
		driver:    conf.Storage.Driver,
		startTime: time.Now(),
	}
}
