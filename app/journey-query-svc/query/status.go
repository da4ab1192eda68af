package query

import (
	"encoding/json"
	"net/http"
	"time"
)

// statusResponse mirrors spec.md §6's HTTP side channel: GET /status.
type statusResponse struct {
	ReloadQueueCreated         bool      `json:"reload_queue_created"`
	InitialRealTimeReloadDone  bool      `json:"initial_realtime_reload_done"`
	LastLoadAt                time.Time `json:"last_load_at"`
	LastRealTimeDataLoadedAt  time.Time `json:"last_rt_data_loaded"`
	IsConnectedToMessageQueue bool      `json:"is_connected_to_rabbitmq"`
}

type statusHandler struct {
	service *Service
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	lastRT, _ := h.service.lastRTDataLoaded.Load().(time.Time)
	resp := statusResponse{
		ReloadQueueCreated:        true,
		InitialRealTimeReloadDone: !lastRT.IsZero(),
		LastLoadAt:                h.service.lastLoadAt,
		LastRealTimeDataLoadedAt:  lastRT,
		// This service never connects to the broker itself (that's the
		// dedicated disruption-ingest-svc process, spec.md §5); it only
		// ever reads the overlay snapshot that process publishes.
		IsConnectedToMessageQueue: false,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
