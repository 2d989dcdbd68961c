package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

type Config struct {
	Log      Log      `yaml:"log"`
	Telegram Telegram `yaml:"telegram" validate:"required"`
	LLM      LLM      `yaml:"llm" validate:"required"`
	Google   Google   `yaml:"google"`
	Prompt   Prompt   `yaml:"prompt"`
	Catalog  Catalog  `yaml:"catalog"`
	Orders   Orders   `yaml:"orders"`
	Notify   Notify   `yaml:"notify"`
	Examples Examples `yaml:"examples"`
	Buttons  Buttons  `yaml:"buttons"`
	Bot      Bot      `yaml:"bot"`
	HTTP     HTTP     `yaml:"http"`
	DB       DB       `yaml:"db"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

type Telegram struct {
	// Bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789" validate:"required"`
	// Public URL for webhook mode. Long polling is used when empty
	WebhookURL string `yaml:"webhook_url" example:"https://bot.example.com/telegram/webhook" validate:"omitempty,url"`
	// Long polling timeout in seconds
	PollTimeout int `yaml:"poll_timeout" example:"30"`
	// Outbound messages per second
	RateLimit float64 `yaml:"rate_limit" example:"25"`
}

type LLM struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// API token
	Token string `yaml:"token" example:"sk-or-v1-abc123" validate:"required"`
	// Model name
	Model string `yaml:"model" example:"deepseek/deepseek-chat-v3-0324:free" validate:"required"`
	// Sampling temperature
	Temperature float64 `yaml:"temperature" example:"0.7"`
	// Completion call timeout
	Timeout time.Duration `yaml:"timeout" example:"60s"`
}

type Google struct {
	// Path to the service account key json
	CredentialsFile string `yaml:"credentials_file" example:"service-account.json"`
}

type Prompt struct {
	// Inline system instruction, used when doc_url is empty or fails to load
	Text string `yaml:"text"`
	// Google Doc holding the system instruction
	DocURL string `yaml:"doc_url" example:"https://docs.google.com/document/d/1AbC/edit" validate:"omitempty,url"`
}

type Catalog struct {
	// Google Sheet with the list of services
	SheetURL string `yaml:"sheet_url" example:"https://docs.google.com/spreadsheets/d/1AbC/edit" validate:"omitempty,url"`
	// Cron spec for reloading the catalog and the prompt
	RefreshCron string `yaml:"refresh_cron" example:"@every 15m"`
}

type Orders struct {
	// Where orders are written: sheets, postgres or file
	Backend string `yaml:"backend" example:"sheets" validate:"oneof=sheets postgres file"`
	// Google Sheet receiving order rows (sheets backend)
	SheetURL string `yaml:"sheet_url" example:"https://docs.google.com/spreadsheets/d/1XyZ/edit" validate:"required_if=Backend sheets"`
	// JSONL journal path (file backend)
	FilePath string `yaml:"file_path" example:"data/orders.jsonl"`
	// Timeout for persistence and notifications
	Timeout time.Duration `yaml:"timeout" example:"20s"`
}

type Notify struct {
	// Telegram chat receiving new order notifications
	TelegramChatID int64 `yaml:"telegram_chat_id" example:"-1001234567890"`
	// SMTP notifier, enabled only when every field is set
	Email Email `yaml:"email"`
}

type Email struct {
	Host     string `yaml:"host" example:"smtp.yandex.ru"`
	Port     int    `yaml:"port" example:"587"`
	User     string `yaml:"user" example:"bot@example.com"`
	Password string `yaml:"password"`
	// Recipient of order notifications
	To string `yaml:"to" example:"manager@example.com" validate:"omitempty,email"`
}

func (e Email) Enabled() bool {
	return e.Host != "" && e.Port != 0 && e.User != "" && e.Password != "" && e.To != ""
}

type Examples struct {
	// Drive folder with the best works
	BestLocator string `yaml:"best_locator" example:"https://drive.google.com/drive/folders/1AbC"`
	// Timeout for fetching examples and generating a caption
	Timeout time.Duration `yaml:"timeout" example:"60s"`
}

type Buttons struct {
	// Labels that open the best works set
	BestExamplePhrases []string `yaml:"best_example_phrases"`
	// Label that opens the example of the service mentioned by the user
	TopicExamplePhrase string `yaml:"topic_example_phrase"`
	// Unused tokens older than this are dropped; zero keeps them forever
	TokenTTL time.Duration `yaml:"token_ttl" example:"24h"`
}

type Bot struct {
	// Maximum number of history messages per chat
	MaxHistory int `yaml:"max_history" example:"20" validate:"gte=1"`
	// Maximum number of events processed at once
	MaxConcurrentEvents int `yaml:"max_concurrent_events" example:"32" validate:"gte=1"`
}

type HTTP struct {
	// Listen address for health and webhook endpoints, disabled when empty
	Listen string `yaml:"listen" example:":8080"`
}

type DB struct {
	// Postgres username
	User string `yaml:"user" example:"postgres"`
	// Postgres password
	Pass string `yaml:"pass"`
	// Postgres host
	Host string `yaml:"host" example:"localhost:5432"`
	// Postgres database name
	Database string `yaml:"database" example:"assistbot"`
}

func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var result Config

	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyDefaults(result *Config) {
	if result.Telegram.PollTimeout == 0 {
		result.Telegram.PollTimeout = 30
	}
	if result.Telegram.RateLimit == 0 {
		result.Telegram.RateLimit = 25
	}
	if result.LLM.Timeout == 0 {
		result.LLM.Timeout = 60 * time.Second
	}
	if result.LLM.Temperature == 0 {
		result.LLM.Temperature = 0.7
	}
	if result.Google.CredentialsFile == "" {
		result.Google.CredentialsFile = "service-account.json"
	}
	if result.Catalog.RefreshCron == "" {
		result.Catalog.RefreshCron = "@every 15m"
	}
	if result.Orders.Backend == "" {
		result.Orders.Backend = "file"
	}
	if result.Orders.FilePath == "" {
		result.Orders.FilePath = "data/orders.jsonl"
	}
	if result.Orders.Timeout == 0 {
		result.Orders.Timeout = 20 * time.Second
	}
	if result.Examples.Timeout == 0 {
		result.Examples.Timeout = 60 * time.Second
	}
	if len(result.Buttons.BestExamplePhrases) == 0 {
		result.Buttons.BestExamplePhrases = []string{
			"Посмотреть примеры работ",
			"Примеры работ",
			"Лучшие работы",
		}
	}
	if result.Buttons.TopicExamplePhrase == "" {
		result.Buttons.TopicExamplePhrase = "Посмотреть пример этой услуги"
	}
	if result.Bot.MaxHistory == 0 {
		result.Bot.MaxHistory = 20
	}
	if result.Bot.MaxConcurrentEvents == 0 {
		result.Bot.MaxConcurrentEvents = 32
	}
	if result.DB.User == "" {
		result.DB.User = "postgres"
	}
	if result.DB.Pass == "" {
		result.DB.Pass = "postgres"
	}
	if result.DB.Host == "" {
		result.DB.Host = "localhost:5432"
	}
	if result.DB.Database == "" {
		result.DB.Database = "assistbot"
	}
}
