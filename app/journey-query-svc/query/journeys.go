package query

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/transitcore/pathfinder/business/data/model"
	businessquery "github.com/transitcore/pathfinder/business/query"
)

type journeysHandler struct {
	service *Service
}

// journeyResponse is the JSON rendering of a businessquery.Response,
// mirroring spec.md §6's RPC surface shape closely enough for a caller to
// render results without needing the protobuf definitions this engine
// never implements (those are an out-of-scope collaborator).
type journeyResponse struct {
	Journeys []journeyJSON `json:"journeys,omitempty"`
	Partial  bool          `json:"partial,omitempty"`
	Error    *errorJSON    `json:"error,omitempty"`
}

type errorJSON struct {
	Id      string `json:"id"`
	Message string `json:"message"`
}

type journeyJSON struct {
	Sections      []sectionJSON `json:"sections"`
	DurationSecs  uint32        `json:"duration"`
	NbTransfers   int           `json:"nb_transfers"`
	Departure     time.Time     `json:"departure_date_time"`
	Arrival       time.Time     `json:"arrival_date_time"`
}

type sectionJSON struct {
	Kind             string    `json:"type"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	FromDatetime     time.Time `json:"from_datetime"`
	ToDatetime       time.Time `json:"to_datetime"`
	VehicleJourneyId string    `json:"vehicle_journey_id,omitempty"`
	ImpactIds        []string  `json:"impact_ids,omitempty"`
}

func (h *journeysHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(journeyResponse{Error: &errorJSON{Id: "InternalError", Message: err.Error()}})
		return
	}

	view := businessquery.Base
	if r.URL.Query().Get("realtime_level") == "realtime" {
		view = businessquery.RealTime
	}

	resp := businessquery.Solve(r.Context(), h.service.base, h.service.store, h.service.overlay, view, req)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toJSON(resp))
}

func parseRequest(r *http.Request) (businessquery.Request, error) {
	q := r.URL.Query()

	var req businessquery.Request
	if origin := q.Get("origin"); origin != "" {
		req.Origins = []businessquery.Place{{StopPointId: model.StopPointId(origin)}}
	}
	if destination := q.Get("destination"); destination != "" {
		req.Destinations = []businessquery.Place{{StopPointId: model.StopPointId(destination)}}
	}

	datetime := q.Get("datetime")
	t, err := time.Parse(time.RFC3339, datetime)
	if err != nil {
		return req, err
	}
	if q.Get("direction") == "arrival" {
		req.ArrivalTime = t
	} else {
		req.DepartureTime = t
	}

	if maxTransfers := q.Get("max_transfers"); maxTransfers != "" {
		n, err := strconv.Atoi(maxTransfers)
		if err == nil {
			req.MaxNbOfLegs = n + 1
		}
	}
	if q.Get("loads") == "true" {
		req.UseOccupancy = true
	}

	return req, nil
}

func toJSON(resp businessquery.Response) journeyResponse {
	out := journeyResponse{Partial: resp.Partial}
	if resp.Error != nil {
		out.Error = &errorJSON{Id: resp.Error.Id.String(), Message: resp.Error.Message}
		return out
	}
	for _, j := range resp.Journeys {
		jj := journeyJSON{
			DurationSecs: j.Duration.TotalSeconds(),
			NbTransfers:  j.NbTransfers,
			Departure:    j.DepartureTime,
			Arrival:      j.ArrivalTime,
		}
		for _, s := range j.Sections {
			jj.Sections = append(jj.Sections, sectionJSON{
				Kind:             s.Kind.String(),
				From:             string(s.From),
				To:               string(s.To),
				FromDatetime:     s.FromDatetime,
				ToDatetime:       s.ToDatetime,
				VehicleJourneyId: s.VehicleJourneyId,
				ImpactIds:        s.ImpactIds,
			})
		}
		out.Journeys = append(out.Journeys, jj)
	}
	return out
}
