package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"sud/internal/goals"
	"sud/internal/services"
)

type HealthController struct {
	service   services.UsageTimerServiceInterface
	goals     goals.ServiceInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	TotalMinutes  int     `json:"total_minutes"`
	TimerActive   bool    `json:"timer_active"`
	Goals         int     `json:"goals"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		TotalMinutes:  hc.service.GetCurrentMinutes(),
		TimerActive:   hc.service.IsActive(),
		Goals:         hc.goals.Count(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(service services.UsageTimerServiceInterface, goals goals.ServiceInterface) *HealthController {
	return &HealthController{
		service:   service,
		goals:     goals,
		startTime: time.Now(),
	}
}
