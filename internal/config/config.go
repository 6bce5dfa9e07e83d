package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Telematics  TelematicsConfig  `mapstructure:"telematics"`
	FileMaker   FileMakerConfig   `mapstructure:"filemaker"`
	Geocoding   GeocodingConfig   `mapstructure:"geocoding"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Hygiene     HygieneConfig     `mapstructure:"hygiene"`
	Storage     StorageConfig     `mapstructure:"storage"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// TelematicsConfig configures the vehicle-stats API client.
type TelematicsConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIToken  string        `mapstructure:"api_token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PageLimit int           `mapstructure:"page_limit"`
}

// FileMakerConfig configures the FileMaker Data API client.
type FileMakerConfig struct {
	Host     string        `mapstructure:"host"`
	Database string        `mapstructure:"database"`
	Layout   string        `mapstructure:"layout"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
	MaxJobs  int           `mapstructure:"max_jobs"`
	// ActiveOnly restricts the find request to non-terminal statuses.
	ActiveOnly bool `mapstructure:"active_only"`
}

type GeocodingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	UserAgent   string        `mapstructure:"user_agent"`
	CountryCode string        `mapstructure:"country_code"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheSize   int           `mapstructure:"cache_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	BatchWidth  int           `mapstructure:"batch_width"`
	BatchDelay  time.Duration `mapstructure:"batch_delay"`
	// Persist keeps resolved addresses in the database between restarts.
	Persist bool `mapstructure:"persist"`
}

// CorrelationConfig holds the matching thresholds, in miles.
type CorrelationConfig struct {
	AtLocationMiles        float64 `mapstructure:"at_location_miles"`
	VeryCloseMiles         float64 `mapstructure:"very_close_miles"`
	NearbyMiles            float64 `mapstructure:"nearby_miles"`
	MaxDistanceMiles       float64 `mapstructure:"max_distance_miles"`
	ParkedRadiusMiles      float64 `mapstructure:"parked_radius_miles"`
	ApproachMiles          float64 `mapstructure:"approach_miles"`
	ApproachHeadingDegrees float64 `mapstructure:"approach_heading_degrees"`
	MaxCandidates          int     `mapstructure:"max_candidates"`
	// RecordRuns stores a summary row per pass.
	RecordRuns bool `mapstructure:"record_runs"`
}

// HygieneConfig holds the schedule-hygiene rule cut-offs, in hours.
type HygieneConfig struct {
	ArrivalWarningHours    float64 `mapstructure:"arrival_warning_hours"`
	ArrivalCriticalHours   float64 `mapstructure:"arrival_critical_hours"`
	StatusLagCriticalHours float64 `mapstructure:"status_lag_critical_hours"`
	OverdueWarningHours    float64 `mapstructure:"overdue_warning_hours"`
	OverdueCriticalHours   float64 `mapstructure:"overdue_critical_hours"`
	IdleWarningHours       float64 `mapstructure:"idle_warning_hours"`
	IdleActionHours        float64 `mapstructure:"idle_action_hours"`
	IdleCriticalHours      float64 `mapstructure:"idle_critical_hours"`
}

// StorageConfig configures the S3-compatible archive for run snapshots.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	Prefix    string `mapstructure:"prefix"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	_ = v.BindEnv("telematics.api_token", "TELEMATICS_API_TOKEN")
	_ = v.BindEnv("telematics.base_url", "TELEMATICS_BASE_URL")
	_ = v.BindEnv("filemaker.host", "FILEMAKER_HOST")
	_ = v.BindEnv("filemaker.database", "FILEMAKER_DATABASE")
	_ = v.BindEnv("filemaker.layout", "FILEMAKER_LAYOUT")
	_ = v.BindEnv("filemaker.username", "FILEMAKER_USERNAME")
	_ = v.BindEnv("filemaker.password", "FILEMAKER_PASSWORD")
	_ = v.BindEnv("geocoding.api_key", "GEOCODING_API_KEY")
	_ = v.BindEnv("geocoding.base_url", "GEOCODING_BASE_URL")
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("database.password", "DATABASE_PASSWORD")
	_ = v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	_ = v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	_ = v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	_ = v.BindEnv("storage.bucket", "S3_BUCKET")
	_ = v.BindEnv("storage.region", "S3_REGION")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/dispatchtracker.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("telematics.base_url", "https://api.samsara.com")
	v.SetDefault("telematics.timeout", 15*time.Second)
	v.SetDefault("telematics.page_limit", 512)

	v.SetDefault("filemaker.layout", "jobs_api")
	v.SetDefault("filemaker.timeout", 30*time.Second)
	v.SetDefault("filemaker.page_size", 500)
	v.SetDefault("filemaker.max_jobs", 5000)
	v.SetDefault("filemaker.active_only", true)

	v.SetDefault("geocoding.enabled", true)
	v.SetDefault("geocoding.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "dispatchtracker/1.0")
	v.SetDefault("geocoding.country_code", "us")
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("geocoding.cache_size", 4096)
	v.SetDefault("geocoding.cache_ttl", 24*time.Hour)
	v.SetDefault("geocoding.batch_width", 5)
	v.SetDefault("geocoding.batch_delay", 200*time.Millisecond)
	v.SetDefault("geocoding.persist", true)

	v.SetDefault("correlation.at_location_miles", 0.5)
	v.SetDefault("correlation.very_close_miles", 2.0)
	v.SetDefault("correlation.nearby_miles", 5.0)
	v.SetDefault("correlation.max_distance_miles", 50.0)
	v.SetDefault("correlation.parked_radius_miles", 1.0)
	v.SetDefault("correlation.approach_miles", 5.0)
	v.SetDefault("correlation.approach_heading_degrees", 45.0)
	v.SetDefault("correlation.max_candidates", 3)
	v.SetDefault("correlation.record_runs", true)

	v.SetDefault("hygiene.arrival_warning_hours", 2.0)
	v.SetDefault("hygiene.arrival_critical_hours", 4.0)
	v.SetDefault("hygiene.status_lag_critical_hours", 2.0)
	v.SetDefault("hygiene.overdue_warning_hours", 4.0)
	v.SetDefault("hygiene.overdue_critical_hours", 24.0)
	v.SetDefault("hygiene.idle_warning_hours", 6.0)
	v.SetDefault("hygiene.idle_action_hours", 8.0)
	v.SetDefault("hygiene.idle_critical_hours", 12.0)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "dispatchtracker")
	v.SetDefault("storage.prefix", "runs")
}

// Validate checks that the configuration has all required values.
// Returns an error describing the first validation failure, or nil if valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.Telematics.BaseURL == "" {
		return fmt.Errorf("telematics: base_url is required")
	}
	if c.Telematics.APIToken == "" {
		return fmt.Errorf("telematics: api_token is required (set TELEMATICS_API_TOKEN)")
	}
	if c.FileMaker.Host == "" {
		return fmt.Errorf("filemaker: host is required (set FILEMAKER_HOST)")
	}
	if c.FileMaker.Database == "" {
		return fmt.Errorf("filemaker: database is required")
	}
	if c.FileMaker.Username == "" || c.FileMaker.Password == "" {
		return fmt.Errorf("filemaker: username and password are required")
	}
	if c.Correlation.AtLocationMiles <= 0 || c.Correlation.MaxDistanceMiles < c.Correlation.NearbyMiles {
		return fmt.Errorf("correlation: distance bands must be positive and increasing")
	}
	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return fmt.Errorf("storage: endpoint and bucket are required when enabled")
		}
	}
	return c.Database.Validate()
}
