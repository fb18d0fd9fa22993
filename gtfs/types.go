package gtfs

// Stop corresponds to a row in stops.txt.
type Stop struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
}

// Route corresponds to a row in routes.txt.
type Route struct {
	ID        string
	ShortName string
	LongName  string
	Type      int
	Color     string
}

// DisplayName returns the name shown to riders: the short name when the
// feed provides one, otherwise the route id. Merge keys use the same rule.
func (r Route) DisplayName() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	return r.ID
}

// Trip corresponds to a row in trips.txt.
type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
	Headsign  string
	Direction int
}

// CalendarService is the weekly recurrence pattern for a service_id from
// calendar.txt. Weekdays is indexed Sun=0..Sat=6. StartDate and EndDate are
// inclusive YYYYMMDD integers.
type CalendarService struct {
	ServiceID string
	Weekdays  [7]bool
	StartDate int
	EndDate   int
}

// ExceptionKind is the polarity of a calendar_dates.txt row.
type ExceptionKind int

const (
	ServiceAdded   ExceptionKind = 1
	ServiceRemoved ExceptionKind = 2
)

// CalendarException is a date-specific override for a service_id.
type CalendarException struct {
	ServiceID string
	Date      int // YYYYMMDD
	Kind      ExceptionKind
}

// StopTimeEntry corresponds to a row in stop_times.txt. ArrivalTime and
// DepartureTime are wall-clock HH:MM:SS strings; hours may exceed 23 for
// post-midnight service.
type StopTimeEntry struct {
	TripID        string
	StopID        string
	ArrivalTime   string
	DepartureTime string
	Sequence      int
}

// Schedule holds the raw record sequences for one loaded static feed, in
// input row order. Derived lookups live on ScheduleIndex.
type Schedule struct {
	Stops         []Stop
	Routes        []Route
	Trips         []Trip
	StopTimes     []StopTimeEntry
	Calendars     []CalendarService
	CalendarDates []CalendarException
}
