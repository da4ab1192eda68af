package model

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DataSet tracks one loaded snapshot of the underlying transit dataset (the
// NTFS/GTFS parse itself is out of scope; this only records bookkeeping for
// the rows a loader already produced). Mirrors the versioned-replacement
// pattern used elsewhere in this codebase for tracking ingested snapshots.
type DataSet struct {
	Id                    int64
	URL                   string
	ETag                  string     `db:"e_tag"`
	LastModifiedTimestamp int64      `db:"last_modified_timestamp"`
	DownloadedAt          time.Time  `db:"downloaded_at"`
	SavedAt               *time.Time `db:"saved_at"`
	ReplacedAt            *time.Time `db:"replaced_at"`
}

func (d DataSet) String() string {
	return fmt.Sprintf("DataSet id:%d, url:%s, ETag:%s", d.Id, d.URL, d.ETag)
}

// SaveAndTerminateReplacedDataSet closes out whichever DataSet is currently
// active at now and saves ds as its replacement.
func SaveAndTerminateReplacedDataSet(tx *sqlx.Tx, ds *DataSet, now time.Time) error {
	endDate, err := time.Parse("2006-01-02", "9999-12-31")
	if err != nil {
		return err
	}
	aMomentAgo := now.Add(-time.Microsecond)
	statementString := tx.Rebind("update data_set set replaced_at = ? where ? between saved_at and replaced_at")
	if _, err := tx.Exec(statementString, aMomentAgo, now); err != nil {
		return err
	}
	ds.SavedAt = &now
	ds.ReplacedAt = &endDate
	return SaveDataSet(tx, ds)
}

// SaveDataSet inserts ds, or updates it in place if it already has an Id.
func SaveDataSet(tx *sqlx.Tx, ds *DataSet) error {
	statementString := "insert into data_set (url, e_tag, last_modified_timestamp, downloaded_at, saved_at, replaced_at) " +
		"values (:url, :e_tag, :last_modified_timestamp, :downloaded_at, :saved_at, :replaced_at)"
	if ds.Id != 0 {
		statementString = "update data_set set url = :url, e_tag = :e_tag, " +
			"last_modified_timestamp = :last_modified_timestamp, downloaded_at = :downloaded_at, " +
			"saved_at = :saved_at, replaced_at = :replaced_at where id = :id"
	}
	statementString = tx.Rebind(statementString)
	if _, err := tx.NamedExec(statementString, ds); err != nil {
		return err
	}
	if ds.Id == 0 {
		statementString = tx.Rebind("select id from data_set where e_tag = ? and last_modified_timestamp = ? and downloaded_at = ? limit 1")
		if err := tx.Get(&ds.Id, statementString, ds.ETag, ds.LastModifiedTimestamp, ds.DownloadedAt); err != nil {
			return err
		}
	}
	return nil
}

// GetLatestDataSet retrieves the DataSet active right now.
func GetLatestDataSet(db *sqlx.DB) (*DataSet, error) {
	return GetDataSetAt(db, time.Now())
}

// GetDataSetAt retrieves the DataSet active at the given time.
func GetDataSetAt(db *sqlx.DB, at time.Time) (*DataSet, error) {
	query := "select * from data_set where ? between saved_at and replaced_at order by saved_at desc limit 1"
	ds := DataSet{}
	if err := db.Get(&ds, db.Rebind(query), at); err != nil {
		return nil, fmt.Errorf("model: unable to retrieve data set active at %v: %w", at, err)
	}
	return &ds, nil
}

// stopPointRow is one row of the (out-of-scope) parser's stop_point table.
type stopPointRow struct {
	StopPointId string `db:"stop_point_id"`
}

// transferRow is one row of a precomputed walking-transfer table.
type transferRow struct {
	FromStopPointId string `db:"from_stop_point_id"`
	ToStopPointId   string `db:"to_stop_point_id"`
	WalkingSeconds  uint32 `db:"walking_seconds"`
	MinTransferSecs uint32 `db:"min_transfer_seconds"`
}

// serviceDayRow is one row of a service calendar already expanded to
// individual active dates (the calendar/calendar_dates combination logic is
// out of scope; the loader trusts the rows it is given).
type serviceDayRow struct {
	ServiceId string    `db:"service_id"`
	Date      time.Time `db:"date"`
}

// vehicleJourneyRow is one row of the vehicle_journey table.
type vehicleJourneyRow struct {
	VehicleJourneyId      string  `db:"vehicle_journey_id"`
	ServiceId             string  `db:"service_id"`
	TimezoneOffsetSeconds int32   `db:"timezone_offset_seconds"`
	BlockId               *string `db:"block_id"`
}

// stopTimeRow is one row of the stop_time table, joined to its owning
// vehicle journey and ordered by stop_sequence.
type stopTimeRow struct {
	VehicleJourneyId string `db:"vehicle_journey_id"`
	StopSequence     int    `db:"stop_sequence"`
	StopPointId      string `db:"stop_point_id"`
	BoardSeconds     int32  `db:"board_seconds"`
	DebarkSeconds    int32  `db:"debark_seconds"`
	Flow             int    `db:"flow"`
	LocalZoneId      *int32 `db:"local_zone_id"`
}

// BaseModel is the immutable snapshot of a dataset loaded at a particular
// DataSet version: the union of C1 (calendar/days-patterns), C3 (stops and
// transfers) and C4/C5 data (vehicle journeys and their stay-in chaining)
// that the real-time overlay and solver read against.
type BaseModel struct {
	DataSet  *DataSet
	Calendar *Calendar
	Days     *DaysPatterns
	Stops    *StopRegistry
	Transfers *TransferIndex
	StayIns  *StayInIndex

	vehicleJourneys []*VehicleJourney
}

// NewBaseModel assembles a BaseModel directly from already-built components,
// bypassing LoadBaseModel's database query. Used to construct fixtures
// without a live connection.
func NewBaseModel(calendar *Calendar, days *DaysPatterns, stops *StopRegistry, transfers *TransferIndex, vehicleJourneys []*VehicleJourney) *BaseModel {
	return &BaseModel{
		Calendar:        calendar,
		Days:            days,
		Stops:           stops,
		Transfers:       transfers,
		StayIns:         BuildStayInIndex(vehicleJourneys),
		vehicleJourneys: vehicleJourneys,
	}
}

// VehicleJourney implements VehicleJourneyLookup over the base snapshot.
func (m *BaseModel) VehicleJourney(idx VJIdx) *VehicleJourney {
	if idx.IsNew() || int(idx.Index()) >= len(m.vehicleJourneys) {
		return nil
	}
	return m.vehicleJourneys[idx.Index()]
}

// VehicleJourneys returns every base vehicle journey, in load order.
func (m *BaseModel) VehicleJourneys() []*VehicleJourney { return m.vehicleJourneys }

// IsScheduledInBase reports whether vj's base calendar includes date,
// implementing the baseLookup interface the real-time overlay consults for
// trips it carries no recorded version of.
func (m *BaseModel) IsScheduledInBase(vj VJIdx, date time.Time) bool {
	if vj.IsNew() {
		return false
	}
	journey := m.VehicleJourney(vj)
	if journey == nil {
		return false
	}
	offset, err := m.Calendar.OffsetOf(date)
	if err != nil {
		return false
	}
	return m.Days.Contains(journey.Service, offset)
}

// LoadBaseModel assembles a BaseModel for dataSetId by querying the rows a
// (out-of-scope) parser has already written into stop_point, transfer,
// service-day and vehicle_journey/stop_time tables, spanning [firstDate,
// lastDate].
func LoadBaseModel(ctx context.Context, db *sqlx.DB, dataSetId int64, firstDate, lastDate time.Time) (*BaseModel, error) {
	calendar, err := NewCalendar(firstDate, lastDate)
	if err != nil {
		return nil, fmt.Errorf("model: loading base model: %w", err)
	}
	days := NewDaysPatterns(calendar.NbOfDays())

	serviceDays, err := loadServiceDayPatterns(ctx, db, dataSetId, calendar, days)
	if err != nil {
		return nil, err
	}

	stops := NewStopRegistry()
	var stopRows []stopPointRow
	if err := db.SelectContext(ctx, &stopRows, db.Rebind(
		"select stop_point_id from stop_point where data_set_id = ?"), dataSetId); err != nil {
		return nil, fmt.Errorf("model: loading stop points: %w", err)
	}
	for _, row := range stopRows {
		stops.EnsureBaseStop(StopPointId(row.StopPointId))
	}

	transfers := NewTransferIndex()
	var transferRows []transferRow
	if err := db.SelectContext(ctx, &transferRows, db.Rebind(
		"select from_stop_point_id, to_stop_point_id, walking_seconds, min_transfer_seconds "+
			"from transfer where data_set_id = ?"), dataSetId); err != nil {
		return nil, fmt.Errorf("model: loading transfers: %w", err)
	}
	for _, row := range transferRows {
		from, ok := stops.StopPointIdx(StopPointId(row.FromStopPointId))
		if !ok {
			continue
		}
		to, ok := stops.StopPointIdx(StopPointId(row.ToStopPointId))
		if !ok {
			continue
		}
		transfers.AddTransfer(from, to,
			NewPositiveDuration(0, 0, row.WalkingSeconds),
			NewPositiveDuration(0, 0, row.MinTransferSecs))
	}

	vehicleJourneys, err := loadVehicleJourneys(ctx, db, dataSetId, stops, serviceDays, days)
	if err != nil {
		return nil, err
	}

	stayIns := BuildStayInIndex(vehicleJourneys)

	ds, err := GetDataSetAt(db, time.Now())
	if err != nil {
		ds = &DataSet{Id: dataSetId}
	}

	return &BaseModel{
		DataSet:         ds,
		Calendar:        calendar,
		Days:            days,
		Stops:           stops,
		Transfers:       transfers,
		StayIns:         stayIns,
		vehicleJourneys: vehicleJourneys,
	}, nil
}

func loadServiceDayPatterns(ctx context.Context, db *sqlx.DB, dataSetId int64, calendar *Calendar, days *DaysPatterns) (map[string]DaysPatternId, error) {
	var rows []serviceDayRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(
		"select service_id, date from service_day where data_set_id = ?"), dataSetId); err != nil {
		return nil, fmt.Errorf("model: loading service days: %w", err)
	}

	byService := make(map[string][]DayOffset)
	for _, row := range rows {
		offset, err := calendar.OffsetOf(row.Date)
		if err != nil {
			continue
		}
		byService[row.ServiceId] = append(byService[row.ServiceId], offset)
	}

	patterns := make(map[string]DaysPatternId, len(byService))
	for serviceId, offsets := range byService {
		id, err := days.FromDays(offsets)
		if err != nil {
			return nil, fmt.Errorf("model: interning days pattern for service %q: %w", serviceId, err)
		}
		patterns[serviceId] = id
	}
	return patterns, nil
}

func loadVehicleJourneys(ctx context.Context, db *sqlx.DB, dataSetId int64, stops *StopRegistry, serviceDays map[string]DaysPatternId, days *DaysPatterns) ([]*VehicleJourney, error) {
	var vjRows []vehicleJourneyRow
	if err := db.SelectContext(ctx, &vjRows, db.Rebind(
		"select vehicle_journey_id, service_id, timezone_offset_seconds, block_id "+
			"from vehicle_journey where data_set_id = ?"), dataSetId); err != nil {
		return nil, fmt.Errorf("model: loading vehicle journeys: %w", err)
	}

	var stopTimeRows []stopTimeRow
	if err := db.SelectContext(ctx, &stopTimeRows, db.Rebind(
		"select st.vehicle_journey_id, st.stop_sequence, st.stop_point_id, st.board_seconds, "+
			"st.debark_seconds, st.flow, st.local_zone_id "+
			"from stop_time st join vehicle_journey vj on vj.vehicle_journey_id = st.vehicle_journey_id "+
			"where vj.data_set_id = ? order by st.vehicle_journey_id, st.stop_sequence"), dataSetId); err != nil {
		return nil, fmt.Errorf("model: loading stop times: %w", err)
	}

	stopTimesByVJ := make(map[string][]StopTime, len(vjRows))
	for _, row := range stopTimeRows {
		stopIdx, ok := stops.StopPointIdx(StopPointId(row.StopPointId))
		if !ok {
			return nil, fmt.Errorf("model: stop time references unknown stop point %q", row.StopPointId)
		}
		board, err := NewSecondsTz(row.BoardSeconds)
		if err != nil {
			return nil, fmt.Errorf("model: vehicle journey %q: %w", row.VehicleJourneyId, err)
		}
		debark, err := NewSecondsTz(row.DebarkSeconds)
		if err != nil {
			return nil, fmt.Errorf("model: vehicle journey %q: %w", row.VehicleJourneyId, err)
		}
		var localZone *LocalZoneId
		if row.LocalZoneId != nil {
			z := LocalZoneId(*row.LocalZoneId)
			localZone = &z
		}
		stopTimesByVJ[row.VehicleJourneyId] = append(stopTimesByVJ[row.VehicleJourneyId], StopTime{
			Stop:       stopIdx,
			BoardTime:  board,
			DebarkTime: debark,
			Flow:       FlowDirection(row.Flow),
			LocalZone:  localZone,
		})
	}

	vehicleJourneys := make([]*VehicleJourney, 0, len(vjRows))
	for _, row := range vjRows {
		service, ok := serviceDays[row.ServiceId]
		if !ok {
			service = days.Empty()
		}
		stopTimes := stopTimesByVJ[row.VehicleJourneyId]
		if err := ValidateStopTimes(stopTimes); err != nil {
			return nil, fmt.Errorf("model: vehicle journey %q: %w", row.VehicleJourneyId, err)
		}

		var blockId *BlockId
		if row.BlockId != nil {
			b := BlockId(*row.BlockId)
			blockId = &b
		}

		vj := &VehicleJourney{
			Idx:                   NewBaseVJIdx(uint32(len(vehicleJourneys))),
			Id:                    row.VehicleJourneyId,
			StopTimes:             stopTimes,
			TimezoneOffsetSeconds: row.TimezoneOffsetSeconds,
			Service:               service,
			BlockId:               blockId,
		}
		vehicleJourneys = append(vehicleJourneys, vj)
	}

	// Stop occurrences (Mission, Position) are recorded once the timetable
	// store groups these vehicle journeys into missions, not here.

	return vehicleJourneys, nil
}
