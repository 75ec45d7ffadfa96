package courtfinder

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"courtfinder/lib/configutil"

	"dario.cat/mergo"
)

const ConfigFile = "courtfinder.json5"

type SiteConfig struct {
	BaseUrl    string `json:"base_url"`
	LoginPath  string `json:"login_path"`
	InvitePath string `json:"invite_path"`
	SearchPath string `json:"search_path"`
	UserAgent  string `json:"user_agent"`
}

func (s SiteConfig) LoginUrl() string {
	return joinUrl(s.BaseUrl, s.LoginPath)
}

func (s SiteConfig) InviteUrl() string {
	return joinUrl(s.BaseUrl, s.InvitePath)
}

func (s SiteConfig) SearchUrl() string {
	return joinUrl(s.BaseUrl, s.SearchPath)
}

func joinUrl(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

type CredentialsConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// all timeouts are in seconds
type TimeoutsConfig struct {
	Login         int `json:"login"`
	ValidateToken int `json:"validate_token"`
	LoginToken    int `json:"login_token"`
	Reload        int `json:"reload"`
	Request       int `json:"request"`
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Config enumerates every option of a scan. zero values in a config file
// mean "use the default", see LoadConfig.
type Config struct {
	DaysAhead     int     `json:"days"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	StepMinutes   int     `json:"step"`
	DurationHours float64 `json:"duration"`
	UnitId        int     `json:"unit"`
	CourtType     int     `json:"type"`
	Concurrency   int     `json:"concurrency"`
	Out           string  `json:"out"`
	Headful       bool    `json:"headful"`
	Login         bool    `json:"login"`

	StatePath   string            `json:"state_path"`
	Timezone    string            `json:"timezone"`
	DumpDir     string            `json:"dump_dir"`
	Site        SiteConfig        `json:"site"`
	Credentials CredentialsConfig `json:"credentials"`
	Timeouts    TimeoutsConfig    `json:"timeouts"`
}

func DefaultConfig() Config {
	return Config{
		DaysAhead:     14,
		Start:         "20:00",
		End:           "23:00",
		StepMinutes:   30,
		DurationHours: 2,
		UnitId:        11,
		CourtType:     1,
		Concurrency:   6,
		Out:           "slots.json",
		StatePath:     filepath.Join("data", "auth.json"),
		Timezone:      "Asia/Jerusalem",
		Site: SiteConfig{
			BaseUrl:    "https://center.tennis.org.il",
			LoginPath:  "/self_services/login",
			InvitePath: "/self_services/court_invitation",
			SearchPath: "/self_services/search_court.js",
		},
		Timeouts: TimeoutsConfig{
			Login:         120,
			ValidateToken: 20,
			LoginToken:    30,
			Reload:        15,
			Request:       30,
		},
	}
}

// LoadConfig reads `path` and merges its non-zero values over the defaults.
// a missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	fileCfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = mergo.Merge(&cfg, fileCfg, mergo.WithOverride)
	if err != nil {
		return Config{}, fmt.Errorf("merge config: %w", err)
	}
	slog.Debug("loaded config", "path", path)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DaysAhead < 0 {
		return fmt.Errorf("days must not be negative, got %d", c.DaysAhead)
	}
	if c.StepMinutes <= 0 {
		return fmt.Errorf("step must be positive, got %d", c.StepMinutes)
	}
	start, err := parseClock(c.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := parseClock(c.End)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if start > end {
		return fmt.Errorf("start %s is after end %s", c.Start, c.End)
	}
	if c.DurationHours <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.DurationHours)
	}
	if c.UnitId <= 0 {
		return fmt.Errorf("unit must be positive, got %d", c.UnitId)
	}
	if c.CourtType <= 0 {
		return fmt.Errorf("type must be positive, got %d", c.CourtType)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.StatePath == "" {
		return fmt.Errorf("state path must not be empty")
	}
	switch strings.ToLower(filepath.Ext(c.Out)) {
	case "", ".json", ".db", ".sqlite":
	default:
		return fmt.Errorf("unsupported output format %q, expected .json, .db or .sqlite", c.Out)
	}
	if c.Out != "" && filepath.Ext(c.Out) == "" {
		return fmt.Errorf("output %q has no extension, expected .json, .db or .sqlite", c.Out)
	}

	base, err := url.Parse(c.Site.BaseUrl)
	if err != nil {
		return fmt.Errorf("site base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("site base url must be absolute, got %q", c.Site.BaseUrl)
	}

	t := c.Timeouts
	if t.Login <= 0 || t.ValidateToken <= 0 || t.LoginToken <= 0 || t.Reload <= 0 || t.Request <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func (c Config) Grid() GridConfig {
	return GridConfig{
		DaysAhead:     c.DaysAhead,
		Start:         c.Start,
		End:           c.End,
		StepMinutes:   c.StepMinutes,
		ResourceId:    c.UnitId,
		ResourceType:  c.CourtType,
		DurationHours: c.DurationHours,
	}
}

func (c Config) Session() SessionConfig {
	return SessionConfig{
		LoginUrl:             c.Site.LoginUrl(),
		InviteUrl:            c.Site.InviteUrl(),
		Headful:              c.Headful,
		LoginTimeout:         seconds(c.Timeouts.Login),
		ValidateTokenTimeout: seconds(c.Timeouts.ValidateToken),
		LoginTokenTimeout:    seconds(c.Timeouts.LoginToken),
		ReloadTimeout:        seconds(c.Timeouts.Reload),
	}
}

func (c Config) Search() SearchConfig {
	return SearchConfig{
		SearchUrl:      c.Site.SearchUrl(),
		Origin:         strings.TrimSuffix(c.Site.BaseUrl, "/"),
		Referer:        c.Site.InviteUrl(),
		RequestTimeout: seconds(c.Timeouts.Request),
	}
}
