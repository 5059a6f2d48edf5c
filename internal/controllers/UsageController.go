package controllers

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"sud/internal/history"
	"sud/internal/models"
	"sud/internal/providers"
	"sud/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type UsageController struct {
	logger  providers.Logger
	service services.UsageTimerServiceInterface
	repo    history.RepositoryInterface
	archive history.ArchiveInterface
	cache   providers.CacheProviderInterface
}

func NewUsageController(logger providers.Logger, service services.UsageTimerServiceInterface, repo history.RepositoryInterface, archive history.ArchiveInterface, cache providers.CacheProviderInterface) *UsageController {
	return &UsageController{
		logger:  logger,
		service: service,
		repo:    repo,
		archive: archive,
		cache:   cache,
	}
}

type usageStatus struct {
	TotalMinutes int    `json:"total_minutes"`
	Active       bool   `json:"active"`
	LastActiveAt string `json:"last_active_at,omitempty"`
}

// activityPayload accepts both wire shapes: the current {"state": "..."}
// and the legacy {"visible": bool, "focused": bool} pair.
type activityPayload struct {
	State   string `json:"state"`
	Visible *bool  `json:"visible"`
	Focused *bool  `json:"focused"`
}

func normalizeActivity(p *activityPayload) (models.ActivityEvent, bool) {
	if p.State != "" {
		return models.ParseActivityEvent(p.State)
	}
	if p.Visible == nil && p.Focused == nil {
		return 0, false
	}
	// Legacy shape: losing visibility outranks losing focus
	if p.Visible != nil && !*p.Visible {
		return models.EventHidden, true
	}
	if p.Focused != nil && !*p.Focused {
		return models.EventBlur, true
	}
	return models.EventVisible, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	gson, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (uc *UsageController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := uc.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	uc.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (uc *UsageController) status() usageStatus {
	st := usageStatus{
		TotalMinutes: uc.service.GetCurrentMinutes(),
		Active:       uc.service.IsActive(),
	}
	if last := uc.service.LastActiveTime(); !last.IsZero() {
		st.LastActiveAt = last.UTC().Format(time.RFC3339)
	}
	return st
}

// ReceiveActivity handles visibility and focus changes from clients.
func (uc *UsageController) ReceiveActivity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload activityPayload
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	event, ok := normalizeActivity(&payload)
	if !ok {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	uc.service.HandleEvent(event, time.Now())
	writeJSON(w, http.StatusOK, uc.status())
}

// GetStatus reports the live counter. Never cached, the activity state
// has to be current.
func (uc *UsageController) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, uc.status())
}

type addMinutesPayload struct {
	Minutes int `json:"minutes"`
}

// AddMinutes credits minutes directly, bypassing the clock.
func (uc *UsageController) AddMinutes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload addMinutesPayload
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	uc.service.AddMinutes(payload.Minutes)
	writeJSON(w, http.StatusOK, uc.status())
}

// Reset zeroes the counter.
func (uc *UsageController) Reset(w http.ResponseWriter, r *http.Request) {
	uc.service.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (uc *UsageController) GetStreak(w http.ResponseWriter, r *http.Request) {
	uc.serveFromCacheOrCompute(w, "streak", func() (any, error) {
		return uc.service.StreakInfo(time.Now()), nil
	})
}

// GetHistory lists the most recent days, newest first.
func (uc *UsageController) GetHistory(w http.ResponseWriter, r *http.Request) {
	days := cast.ToInt(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 7
	}
	if days > 365 {
		days = 365
	}
	ctx := r.Context()
	uc.serveFromCacheOrCompute(w, "history:"+cast.ToString(days), func() (any, error) {
		rows, err := uc.repo.Recent(ctx, days)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []models.DailyUsage{}
		}
		return rows, nil
	})
}

type historyDayResponse struct {
	Date     string `json:"date"`
	Minutes  int    `json:"minutes"`
	Archived bool   `json:"archived"`
}

// GetHistoryDay serves a single day, falling back to the archive for
// days already pruned from the database.
func (uc *UsageController) GetHistoryDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	uc.serveFromCacheOrCompute(w, "day:"+date, func() (any, error) {
		minutes, err := uc.repo.Minutes(ctx, date)
		if err != nil {
			return nil, err
		}
		resp := historyDayResponse{Date: date, Minutes: minutes}
		if minutes == 0 {
			if archived, ok := uc.archive.Lookup(date); ok {
				resp.Minutes = archived
				resp.Archived = true
			}
		}
		return resp, nil
	})
}
