package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string
	Model    ModelConfig
	Report   ReportConfig
	Telegram TelegramConfig
}

type ModelConfig struct {
	Backend   string
	Dir       string
	ServerURL string
	Timeout   time.Duration
}

type ReportConfig struct {
	Dir      string
	FontPath string
}

type TelegramConfig struct {
	BotToken     string
	DoctorChatID int64
}

// Keys double as upper-cased environment variable names.
const (
	KeyEnv            = "env"
	KeyPort           = "port"
	KeyLogLevel       = "log_level"
	KeyModelBackend   = "model_backend"
	KeyModelDir       = "model_dir"
	KeyModelServerURL = "model_server_url"
	KeyModelTimeout   = "model_timeout"
	KeyReportDir      = "report_dir"
	KeyReportFontPath = "report_font_path"
	KeyTelegramToken  = "telegram_bot_token"
	KeyDoctorChatID   = "doctor_chat_id"
)

// SetDefaults registers defaults and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyModelBackend, "file")
	v.SetDefault(KeyModelDir, "models")
	v.SetDefault(KeyModelServerURL, "")
	v.SetDefault(KeyModelTimeout, 30*time.Second)
	v.SetDefault(KeyReportDir, os.TempDir())
	v.SetDefault(KeyReportFontPath, "")
	v.SetDefault(KeyTelegramToken, "")
	v.SetDefault(KeyDoctorChatID, int64(0))
	v.AutomaticEnv()
}

// LoadDotEnv reads .env files into the process environment when present.
// Variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads the configuration from v, optionally merging a config file.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return &Config{
		Env:      v.GetString(KeyEnv),
		Port:     v.GetString(KeyPort),
		LogLevel: v.GetString(KeyLogLevel),
		Model: ModelConfig{
			Backend:   v.GetString(KeyModelBackend),
			Dir:       v.GetString(KeyModelDir),
			ServerURL: v.GetString(KeyModelServerURL),
			Timeout:   v.GetDuration(KeyModelTimeout),
		},
		Report: ReportConfig{
			Dir:      v.GetString(KeyReportDir),
			FontPath: v.GetString(KeyReportFontPath),
		},
		Telegram: TelegramConfig{
			BotToken:     v.GetString(KeyTelegramToken),
			DoctorChatID: v.GetInt64(KeyDoctorChatID),
		},
	}, nil
}
