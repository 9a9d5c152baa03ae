package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cancer-diagnosis/internal/config"
	"cancer-diagnosis/internal/diagnosis"
	"cancer-diagnosis/internal/model"
	"cancer-diagnosis/internal/platform/telegram"
	"cancer-diagnosis/internal/report"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "cancer-diagnosis",
	Short: "Multi-cancer diagnosis form and API",
	Long:  "Collects clinical inputs for breast, lung or skin cancer, runs the trained classifier and reports the result with a PDF export.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return config.LoadDotEnv(envFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.SetDefaults(v)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a config file (yaml, json or toml)")
	pf.String("env-file", ".env", "Path to a .env file loaded before reading the environment")
	pf.String("model-backend", "", "Model backend: file or http (overrides MODEL_BACKEND)")
	pf.String("model-dir", "", "Directory holding the model artifacts (overrides MODEL_DIR)")
	pf.String("model-server-url", "", "Inference server base URL for the http backend (overrides MODEL_SERVER_URL)")
	pf.String("report-dir", "", "Directory for transient PDF reports (overrides REPORT_DIR)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	for key, flag := range map[string]string{
		config.KeyModelBackend:   "model-backend",
		config.KeyModelDir:       "model-dir",
		config.KeyModelServerURL: "model-server-url",
		config.KeyReportDir:      "report-dir",
		config.KeyLogLevel:       "log-level",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(schemasCmd)
}

// app holds the wired services shared by the commands.
type app struct {
	cfg       *config.Config
	diagnosis diagnosis.Service
	reports   *report.Service
}

func newApp(cmd *cobra.Command) (*app, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.InitLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	models, err := model.NewRepository(cfg.Model.Backend, cfg.Model.Dir, cfg.Model.ServerURL, cfg.Model.Timeout)
	if err != nil {
		return nil, err
	}

	var tg report.TelegramClient
	if cfg.Telegram.BotToken != "" {
		client, err := telegram.NewClient(cfg.Telegram.BotToken)
		if err != nil {
			slog.Warn("telegram delivery disabled", "error", err)
		} else {
			tg = client
		}
		if cfg.Telegram.DoctorChatID == 0 {
			slog.Warn("DOCTOR_CHAT_ID is not set or invalid. Reports will not be sent to a doctor chat.")
		}
	}

	reports := report.NewService(cfg.Report.Dir, cfg.Report.FontPath, tg, cfg.Telegram.DoctorChatID)
	if !reports.FontAvailable() {
		slog.Warn("no TTF font found, PDF export will fail until REPORT_FONT_PATH is set")
	}

	return &app{
		cfg:       cfg,
		diagnosis: diagnosis.NewService(models, reports),
		reports:   reports,
	}, nil
}
