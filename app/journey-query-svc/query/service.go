// Package query wires the C9 journey-planning facade into an HTTP surface:
// a /status endpoint (spec.md §6's HTTP side channel) and a /journeys
// endpoint translating request parameters into a business/query.Request.
// Raw dataset parsing, protobuf wire decoding and the full RPC surface
// itself are out of scope (spec.md §1); this package only ever reads the
// base model a (out-of-scope) loader has already written, and accepts plain
// query-string parameters rather than a protobuf Request envelope.
package query

import (
	"context"
	logger "log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"github.com/transitcore/pathfinder/business/data/model"
	"github.com/transitcore/pathfinder/business/data/occupancy"
	"github.com/transitcore/pathfinder/business/realtime"
	"github.com/transitcore/pathfinder/business/timetable"
)

// Service holds the loaded base model, C4 timetable store and C6 overlay a
// running process answers queries against, plus the bookkeeping the /status
// endpoint reports (spec.md §6).
type Service struct {
	log *logger.Logger

	base  *model.BaseModel
	store *timetable.Store
	occ   *occupancy.Store

	overlay *realtime.Store

	lastLoadAt       time.Time
	lastRTDataLoaded atomic.Value // time.Time
}

// NewService loads dataSetId's base model from db, groups every vehicle
// journey into the timetable store, and builds an empty real-time overlay
// ready for a disruption-ingest process to populate.
func NewService(log *logger.Logger, db *sqlx.DB, dataSetId int64) (*Service, error) {
	ds, err := model.GetDataSetAt(db, time.Now())
	if err != nil {
		ds = &model.DataSet{Id: dataSetId}
	}
	firstDate := time.Now().AddDate(-1, 0, 0)
	lastDate := time.Now().AddDate(1, 0, 0)

	base, err := model.LoadBaseModel(context.Background(), db, ds.Id, firstDate, lastDate)
	if err != nil {
		return nil, err
	}

	store := timetable.NewStore()
	for _, vj := range base.VehicleJourneys() {
		occupancies := make([]occupancy.Level, len(vj.StopTimes)-1)
		if err := store.Insert(vj, occupancies); err != nil {
			log.Printf("query: skipping vehicle journey %q: %v", vj.Id, err)
		}
	}

	occStore, err := occupancy.Load(context.Background(), db, ds.Id)
	if err != nil {
		log.Printf("query: loading occupancy side-car: %v", err)
		occStore = &occupancy.Store{}
	}

	svc := &Service{
		log:      log,
		base:     base,
		store:    store,
		occ:      occStore,
		overlay:  realtime.NewStore(base),
		lastLoadAt: time.Now(),
	}
	svc.lastRTDataLoaded.Store(time.Time{})
	return svc, nil
}

// HTTPServer builds the *http.Server exposing /status and /journeys.
func (s *Service) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	router := mux.NewRouter()
	router.Handle("/status", &statusHandler{service: s}).Methods(http.MethodGet)
	router.Handle("/journeys", &journeysHandler{service: s}).Methods(http.MethodGet)

	return &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

// NoteRealTimeReload records that the disruption-ingest process has applied
// at least one update, surfaced via /status's last_rt_data_loaded field.
func (s *Service) NoteRealTimeReload(at time.Time) {
	s.lastRTDataLoaded.Store(at)
}
