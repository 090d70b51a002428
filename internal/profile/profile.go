package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Oracle (LLM) configuration. All providers speak the OpenAI-compatible
	// protocol, so one config block covers openai, deepseek, ollama and any
	// custom base URL.
	LLMProvider string // openai, deepseek, ollama, or any compatible provider
	LLMAPIKey   string
	LLMBaseURL  string // optional, has a default per provider
	LLMModel    string
	LLMTimeout  int // request timeout in seconds (default: 120)

	// Agent loop tuning.
	HistoryWindow int // turns of history fed to the oracle (default: 10)
	MaxToolRounds int // oracle<->capability rounds before giving up (default: 6)

	// Optional Redis menu cache. Empty RedisAddr disables caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// External WhatsApp bridge for outbound replies and menu PDF delivery.
	// Empty disables outbound relay; the agent still works over plain HTTP.
	WhatsAppBridgeURL string

	// DefaultRestaurant is used when a request omits restaurant_name.
	DefaultRestaurant string

	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string
}

// Provider defaults, applied when base URL or model are not set explicitly.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("MESERO_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("MESERO_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("MESERO_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("MESERO_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("MESERO_LLM_TIMEOUT_SECONDS", 120)

	p.HistoryWindow = getEnvOrDefaultInt("MESERO_HISTORY_WINDOW", 10)
	p.MaxToolRounds = getEnvOrDefaultInt("MESERO_MAX_TOOL_ROUNDS", 6)

	p.RedisAddr = getEnvOrDefault("MESERO_REDIS_ADDR", "")
	p.RedisPassword = getEnvOrDefault("MESERO_REDIS_PASSWORD", "")
	p.RedisDB = getEnvOrDefaultInt("MESERO_REDIS_DB", 0)

	p.WhatsAppBridgeURL = getEnvOrDefault("MESERO_WHATSAPP_BRIDGE_URL", "")
	p.DefaultRestaurant = getEnvOrDefault("MESERO_DEFAULT_RESTAURANT", "Macchiato")

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, treating as OpenAI-compatible", "provider", p.LLMProvider)
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "postgres" && p.Driver != "sqlite" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a dsn")
	}

	if p.LLMAPIKey == "" && p.LLMProvider != "ollama" {
		slog.Warn("no LLM API key configured, oracle calls will fail", "provider", p.LLMProvider)
	}

	if p.HistoryWindow <= 0 {
		p.HistoryWindow = 10
	}
	if p.MaxToolRounds <= 0 {
		p.MaxToolRounds = 6
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("mesero_%s.db", p.Mode))
	}

	return nil
}
