package config

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// GTFSConfig locates one static schedule.
type GTFSConfig struct {
	// StaticPath is a directory of .txt tables or a .zip archive.
	StaticPath string `yaml:"staticPath" validate:"required"`
	// CachePath, when set, is a gob cache of the parsed tables used to
	// skip the CSV pass on restart.
	CachePath string `yaml:"cachePath"`
}

// GTFSRTConfig locates the realtime feeds for one schedule. Either URL may
// be empty; realtime enrichment is optional.
type GTFSRTConfig struct {
	TripUpdatesURL      string `yaml:"tripUpdatesURL" validate:"omitempty,url"`
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" validate:"omitempty,url"`
	TimeoutMS           int    `yaml:"timeoutMS" validate:"gte=0"`
}

// EngineConfig tunes projection and merge behavior.
type EngineConfig struct {
	// RefreshIntervalS is the coarse static+realtime refresh cadence.
	RefreshIntervalS int `yaml:"refreshIntervalS" validate:"gte=0"`
	// ShortHorizonMin bounds the live "next arrivals" view.
	ShortHorizonMin int `yaml:"shortHorizonMin" validate:"gte=0"`
	// FullHorizonMin bounds the full-day timetable view.
	FullHorizonMin int `yaml:"fullHorizonMin" validate:"gte=0"`
	// MergeToleranceMin is the maximum scheduled-to-realtime distance for
	// a match.
	MergeToleranceMin int `yaml:"mergeToleranceMin" validate:"gte=0"`
	// MaxArrivalsPerStop caps the live view; 0 means no cap.
	MaxArrivalsPerStop int `yaml:"maxArrivalsPerStop" validate:"gte=0"`
}

// Feed is one named static+realtime feed pair. Bus and metro networks run
// through the same engine, parameterized by their own Feed entry.
type Feed struct {
	Name   string       `yaml:"name" validate:"required"`
	GTFS   GTFSConfig   `yaml:"gtfs" validate:"required"`
	GTFSRT GTFSRTConfig `yaml:"gtfsrt"`
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
	Feeds  []Feed       `yaml:"feeds" validate:"min=1,dive"`
}
