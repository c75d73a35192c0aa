package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// Config represents application configuration
type Config struct {
	// Browser configuration
	Browser BrowserConfig

	// LinkedIn navigation configuration
	LinkedIn LinkedInConfig

	// Agent configuration (OpenAI-compatible endpoint)
	Agent AgentConfig

	// Session-to-thread mapping configuration
	Session SessionConfig

	// Local store configuration
	Store StoreConfig

	// HTTP API configuration
	API APIConfig

	// Unread watcher configuration
	Watch WatchConfig

	// MCP bridge configuration
	MCP MCPConfig

	// Selector overrides (loaded from YAML)
	Selectors *SelectorsConfig

	// Debug mode
	Debug bool
}

// BrowserConfig contains Chromium launch configuration
type BrowserConfig struct {
	Bin          string // browser binary path, empty lets the launcher find one
	Headless     bool
	UserDataDir  string
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	ObserverURL  string // CDP endpoint of an externally managed browser; empty launches our own
}

// LinkedInConfig contains site navigation configuration
type LinkedInConfig struct {
	BaseURL      string
	NavTimeout   time.Duration // container/visibility waits, hard failure
	ClickTimeout time.Duration // click-confirmation waits, soft failure
}

// AgentConfig contains the LLM endpoint configuration
type AgentConfig struct {
	APIKey   string
	BaseURL  string // empty uses the default OpenAI endpoint
	Model    string
	MaxTurns int // bound on tool-call round trips per turn
}

// SessionConfig contains session persistence configuration
type SessionConfig struct {
	DBPath      string
	IdleMinutes int // stored mappings idle longer than this are not resumed
}

// StoreConfig contains local persistence paths
type StoreConfig struct {
	SnapshotDir    string
	DBPath         string
	DiagnosticsDir string
}

// APIConfig contains HTTP API configuration
type APIConfig struct {
	Host string
	Port int

	// DisplayURL is where a human can watch the live browser (noVNC),
	// served by /processing-url so clients can hand it to the user for
	// manual login.
	DisplayURL string
}

// WatchConfig contains the unread watcher configuration
type WatchConfig struct {
	Interval time.Duration // 0 disables the watcher
	Digest   bool          // run an agent digest turn for newly unread threads
}

// MCPConfig contains MCP bridge configuration
type MCPConfig struct {
	IPCDir string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".linkedin-agent")
	}

	userDataDir := os.Getenv("BROWSER_USER_DATA_DIR")
	if userDataDir == "" {
		userDataDir = filepath.Join(dataDir, "browser-profile")
	}

	userAgent := os.Getenv("BROWSER_USER_AGENT")
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
	}

	headless := true
	if val := os.Getenv("BROWSER_HEADLESS"); val != "" {
		headless = val != "false" && val != "0"
	}

	windowWidth := envInt("BROWSER_WINDOW_WIDTH", 1440)
	windowHeight := envInt("BROWSER_WINDOW_HEIGHT", 1440)

	baseURL := os.Getenv("LINKEDIN_BASE_URL")
	if baseURL == "" {
		baseURL = "https://www.linkedin.com"
	}

	navTimeout := envInt("NAV_TIMEOUT_SECONDS", 15)
	clickTimeout := envInt("CLICK_TIMEOUT_SECONDS", 5)

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}

	snapshotDir := os.Getenv("SNAPSHOT_DIR")
	if snapshotDir == "" {
		snapshotDir = filepath.Join(dataDir, "snapshots")
	}

	dbPath := os.Getenv("VISITS_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "visits.db")
	}

	sessionDBPath := os.Getenv("SESSION_DB_PATH")
	if sessionDBPath == "" {
		sessionDBPath = filepath.Join(dataDir, "sessions.db")
	}

	diagnosticsDir := os.Getenv("DIAGNOSTICS_DIR")
	if diagnosticsDir == "" {
		diagnosticsDir = filepath.Join(dataDir, "diagnostics")
	}

	ipcDir := os.Getenv("MCP_IPC_DIR")
	if ipcDir == "" {
		ipcDir = dataDir
	}

	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	displayURL := os.Getenv("HTTP_DISPLAY_URL")
	if displayURL == "" {
		displayURL = "http://localhost:6080/vnc.html?autoconnect=true&resize=scale&reconnect_delay=1000&reconnect=1"
	}

	// Load selector overrides from YAML
	selectorsPath := os.Getenv("SELECTORS_CONFIG_PATH")
	selectors, _ := LoadSelectorsConfig(selectorsPath)

	return &Config{
		Browser: BrowserConfig{
			Bin:          os.Getenv("BROWSER_BIN"),
			Headless:     headless,
			UserDataDir:  userDataDir,
			UserAgent:    userAgent,
			WindowWidth:  windowWidth,
			WindowHeight: windowHeight,
			ObserverURL:  os.Getenv("BROWSER_CDP_URL"),
		},
		LinkedIn: LinkedInConfig{
			BaseURL:      baseURL,
			NavTimeout:   time.Duration(navTimeout) * time.Second,
			ClickTimeout: time.Duration(clickTimeout) * time.Second,
		},
		Agent: AgentConfig{
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			BaseURL:  os.Getenv("OPENAI_BASE_URL"),
			Model:    model,
			MaxTurns: envInt("AGENT_MAX_TURNS", 12),
		},
		Session: SessionConfig{
			DBPath:      sessionDBPath,
			IdleMinutes: envInt("SESSION_IDLE_MINUTES", 1440),
		},
		Store: StoreConfig{
			SnapshotDir:    snapshotDir,
			DBPath:         dbPath,
			DiagnosticsDir: diagnosticsDir,
		},
		API: APIConfig{
			Host:       host,
			Port:       envInt("PORT", 8080),
			DisplayURL: displayURL,
		},
		Watch: WatchConfig{
			Interval: time.Duration(envInt("WATCH_INTERVAL_MINUTES", 0)) * time.Minute,
			Digest:   os.Getenv("WATCH_DIGEST") == "true",
		},
		MCP: MCPConfig{
			IPCDir: ipcDir,
		},
		Selectors: selectors,
		Debug:     os.Getenv("DEBUG") == "true",
	}
}

// ToSessionConfig converts to the domain session freshness policy
func (c *SessionConfig) ToSessionConfig() domain.SessionConfig {
	return domain.SessionConfig{
		IdleTimeout: time.Duration(c.IdleMinutes) * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LinkedIn.NavTimeout <= 0 {
		return &ConfigError{Field: "NAV_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	if c.LinkedIn.ClickTimeout <= 0 {
		return &ConfigError{Field: "CLICK_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return &ConfigError{Field: "PORT", Message: "must be a valid port"}
	}
	if c.Watch.Digest && c.Agent.APIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "required when WATCH_DIGEST is enabled"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
