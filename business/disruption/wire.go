// Package disruption compiles already-decoded chaos and kirin disruption
// messages into real-time overlay operations (C7). Protobuf wire decoding of
// the upstream chaos/kirin feeds happens before a message reaches this
// package; what arrives here is the plain JSON shape a decoder would have
// already produced.
package disruption

import "time"

// Effect mirrors chaos's severity effect taxonomy. Only NoService changes
// solver-visible behavior; for the others the compiler resolves the
// informed entities (so unresolved ones are reported) and writes nothing to
// the overlay.
type Effect string

const (
	EffectNoService         Effect = "NO_SERVICE"
	EffectReducedService    Effect = "REDUCED_SERVICE"
	EffectSignificantDelays Effect = "SIGNIFICANT_DELAYS"
	EffectDetour            Effect = "DETOUR"
	EffectAdditionalService Effect = "ADDITIONAL_SERVICE"
	EffectModifiedService   Effect = "MODIFIED_SERVICE"
	EffectStopMoved         Effect = "STOP_MOVED"
	EffectOtherEffect       Effect = "OTHER_EFFECT"
	EffectUnknownEffect     Effect = "UNKNOWN_EFFECT"
)

// PtObjectType names what kind of transit object an informed entity refers
// to: the object-scoped granularity chaos disruptions operate at.
type PtObjectType string

const (
	ObjectNetwork        PtObjectType = "Network"
	ObjectLine           PtObjectType = "Line"
	ObjectRoute          PtObjectType = "Route"
	ObjectLineSection    PtObjectType = "Line_Section"
	ObjectRailSection    PtObjectType = "Rail_Section"
	ObjectStopArea       PtObjectType = "Stop_Area"
	ObjectStopPoint      PtObjectType = "Stop_Point"
	ObjectVehicleJourney PtObjectType = "Trip"
)

// LineSection bounds a Line_Section entity's affected span and the stop
// areas to remove from each matching trip while preserving stop order.
type LineSection struct {
	FromStopAreaURI string   `json:"from_stop_area_uri"`
	ToStopAreaURI   string   `json:"to_stop_area_uri"`
	BlockedStopURIs []string `json:"blocked_stop_area_uris,omitempty"`
}

// InformedEntity names one object a chaos impact applies to.
type InformedEntity struct {
	Type        PtObjectType `json:"pt_object_type"`
	URI         string       `json:"uri"`
	LineSection *LineSection `json:"line_section,omitempty"`
	RailSection *LineSection `json:"rail_section,omitempty"`
}

// ApplicationPeriod is a closed UTC instant range an impact is active within.
type ApplicationPeriod struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// TimeSlot restricts a pattern's matched dates to a time-of-day window,
// expressed as seconds since noon minus 12h local to the trip, the same
// convention stop_times use.
type TimeSlot struct {
	BeginSeconds int32 `json:"begin"`
	EndSeconds   int32 `json:"end"`
}

// ApplicationPattern restricts an impact to specific weekdays within a date
// range, e.g. "every weekday except holidays, between these two dates",
// optionally further narrowed to specific times of day.
type ApplicationPattern struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// WeeklyPattern indexes Monday=0 .. Sunday=6, true when the impact
	// applies on that weekday.
	WeeklyPattern [7]bool `json:"weekly_pattern"`
	// TimeSlots further restricts matched dates to these time-of-day
	// windows. Empty means the whole day.
	TimeSlots []TimeSlot `json:"time_slots,omitempty"`
	// ExcludeHolidays applies a holiday-aware exception to WeeklyPattern: a
	// weekday that would otherwise match is skipped when it falls on a
	// recognized holiday.
	ExcludeHolidays bool `json:"exclude_holidays"`
}

// Impact is one disruption's effect on a set of informed entities, active
// across the given periods and patterns.
type Impact struct {
	Id                  string               `json:"id"`
	Effect              Effect               `json:"effect"`
	InformedEntities    []InformedEntity     `json:"informed_entities"`
	ApplicationPeriods  []ApplicationPeriod  `json:"application_periods"`
	ApplicationPatterns []ApplicationPattern `json:"application_patterns"`
}

// ChaosMessage is the object-scoped disruption message this package
// compiles into overlay deletions; impacts with effects beyond NoService
// produce no overlay change.
// IsDeleted cancels a previously-applied disruption identified by
// DisruptionId, mirroring a FeedMessage entity's is_deleted flag.
type ChaosMessage struct {
	DisruptionId string   `json:"disruption_id"`
	IsDeleted    bool     `json:"is_deleted"`
	Impacts      []Impact `json:"impacts,omitempty"`
}

// FlowType mirrors model.FlowDirection on the wire.
type FlowType string

const (
	FlowBoardAndDebark FlowType = "board_and_debark"
	FlowBoardOnly      FlowType = "board_only"
	FlowDebarkOnly     FlowType = "debark_only"
	FlowNoBoardDebark  FlowType = "no_board_debark"
)

// WireStopTime is one stop-time entry of a kirin add/modify update.
type WireStopTime struct {
	StopId        string   `json:"stop_id"`
	ArrivalTime   int32    `json:"arrival_time"`
	DepartureTime int32    `json:"departure_time"`
	Flow          FlowType `json:"flow"`
}

// KirinMessage is the trip-scoped, stop-time-level disruption message this
// package compiles into a single overlay operation for one (vehicle
// journey, date) pair: either Cancelled, or a full replacement of
// StopTimes. Whether a non-cancelled update compiles to an overlay Add or
// Modify depends on whether the trip is currently present, not on anything
// carried on the wire.
type KirinMessage struct {
	DisruptionId     string         `json:"disruption_id"`
	VehicleJourneyId string         `json:"vehicle_journey_id"`
	ReferenceDate    time.Time      `json:"reference_date"`
	Cancelled        bool           `json:"cancelled"`
	StopTimes        []WireStopTime `json:"stop_times,omitempty"`
	// ReceivedAt orders competing kirin updates for the same trip: a later
	// kirin message always supersedes an earlier one, independent of
	// delivery order.
	ReceivedAt time.Time `json:"received_at"`
}
