package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/api"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/flow"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/genai"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/lockfile"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/messaging"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/mood"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/onboarding"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/payment"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/store"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/telegram"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/twiliowhatsapp"
	"github.com/Kimberly-ops177/MindVibe-AI/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for MindVibe state data
	DefaultStateDir = "/var/lib/mindvibe"
	// DefaultAppDBFileName is the default SQLite database filename for application data
	DefaultAppDBFileName = "mindvibe.db"
	// DefaultWhatsAppDBFileName is the default SQLite database filename for the whatsmeow session
	DefaultWhatsAppDBFileName = "whatsapp.db"
)

// Chat channels selectable with -channel.
const (
	ChannelNone     = "none"
	ChannelWhatsApp = "whatsapp"
	ChannelTwilio   = "twilio"
	ChannelTelegram = "telegram"
)

// Config holds environment configuration.
type Config struct {
	StateDir      string        `env:"MINDVIBE_STATE_DIR" envDefault:"/var/lib/mindvibe"`
	APIAddr       string        `env:"API_ADDR" envDefault:":8080"`
	DatabaseDSN   string        `env:"DATABASE_DSN"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	WhatsAppDBDSN string        `env:"WHATSAPP_DB_DSN"`
	Channel       string        `env:"CHAT_CHANNEL" envDefault:"none"`
	QuestionsFile string        `env:"QUESTIONS_FILE"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	MaxSessions   int           `env:"MAX_ONBOARDING_SESSIONS" envDefault:"10000"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL"`

	MoodAPIURL    string `env:"MOOD_API_URL"`
	PaymentAPIURL string `env:"PAYMENT_API_URL"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_FROM_NUMBER"`
	TwilioPublicURL  string `env:"TWILIO_WEBHOOK_URL"`

	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
}

// Flags holds command line flag values.
type Flags struct {
	stateDir      *string
	apiAddr       *string
	dbDSN         *string
	waDSN         *string
	channel       *string
	questionsFile *string
	openaiKey     *string
	moodURL       *string
	paymentURL    *string
	qrOutput      *string
	numeric       *bool
}

func main() {
	initializeLogger()

	config, err := loadEnvironmentConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	flags := parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping MindVibe", "state_dir", *flags.stateDir, "api_addr", *flags.apiAddr, "channel", *flags.channel)
	if err := run(ctx, config, flags); err != nil {
		slog.Error("MindVibe failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("MindVibe exited successfully")
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig reads an optional .env file, then parses the
// environment into Config and fills the derived defaults.
func loadEnvironmentConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = config.DatabaseURL
	}
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultAppDBFileName)
	}
	if config.WhatsAppDBDSN == "" {
		config.WhatsAppDBDSN = defaultWhatsAppDSN(config.StateDir)
	}

	slog.Debug("environment variables loaded",
		"MINDVIBE_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"DATABASE_DSN_SET", config.DatabaseDSN != "",
		"CHAT_CHANNEL", config.Channel,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"MOOD_API_URL", config.MoodAPIURL,
		"PAYMENT_API_URL", config.PaymentAPIURL)
	return config, nil
}

func defaultWhatsAppDSN(stateDir string) string {
	return "file:" + filepath.Join(stateDir, DefaultWhatsAppDBFileName) + "?_foreign_keys=on"
}

// parseCommandLineFlags parses args with environment values as defaults.
// Database paths derived from the state directory follow -state-dir.
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) Flags {
	flags := Flags{
		stateDir:      fs.String("state-dir", config.StateDir, "state directory for MindVibe data (overrides $MINDVIBE_STATE_DIR)"),
		apiAddr:       fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		dbDSN:         fs.String("db-dsn", config.DatabaseDSN, "application database DSN (overrides $DATABASE_DSN or $DATABASE_URL)"),
		waDSN:         fs.String("whatsapp-db-dsn", config.WhatsAppDBDSN, "whatsmeow session database DSN (overrides $WHATSAPP_DB_DSN)"),
		channel:       fs.String("channel", config.Channel, "chat channel: none, whatsapp, twilio or telegram (overrides $CHAT_CHANNEL)"),
		questionsFile: fs.String("questions", config.QuestionsFile, "YAML onboarding question set (overrides $QUESTIONS_FILE)"),
		openaiKey:     fs.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		moodURL:       fs.String("mood-api-url", config.MoodAPIURL, "mood analysis backend base URL (overrides $MOOD_API_URL)"),
		paymentURL:    fs.String("payment-api-url", config.PaymentAPIURL, "payment backend base URL (overrides $PAYMENT_API_URL)"),
		qrOutput:      fs.String("qr-output", "", "path to write the WhatsApp login QR code"),
		numeric:       fs.Bool("numeric-code", false, "print the WhatsApp login code instead of a QR code"),
	}
	if err := fs.Parse(args); err != nil {
		slog.Warn("parseCommandLineFlags: flag parsing stopped", "error", err)
	}

	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultAppDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultAppDBFileName)
		}
		if *flags.waDSN == defaultWhatsAppDSN(config.StateDir) {
			*flags.waDSN = defaultWhatsAppDSN(*flags.stateDir)
		}
		slog.Debug("Database paths follow state directory", "state_dir", *flags.stateDir)
	}
	*flags.channel = strings.ToLower(strings.TrimSpace(*flags.channel))
	return flags
}

// run wires every module and blocks until ctx is cancelled or the API server fails.
func run(ctx context.Context, config Config, flags Flags) error {
	lock, err := lockfile.Acquire(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	st, err := openStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	questions, err := loadQuestionSet(*flags.questionsFile)
	if err != nil {
		return err
	}

	profiles := onboarding.NewService(st, buildOnboardingOptions(config, flags)...)

	apiOpts := []api.Option{
		api.WithAddr(*flags.apiAddr),
		api.WithQuestions(questions),
		api.WithSessionTTL(config.SessionTTL),
		api.WithMaxSessions(config.MaxSessions),
	}
	if *flags.moodURL != "" {
		analyzer, err := mood.NewClient(*flags.moodURL)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithMoodTracker(mood.NewTracker(analyzer, st)))
	}
	if *flags.paymentURL != "" {
		payments, err := payment.NewClient(*flags.paymentURL)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithPaymentClient(payments))
	}

	svc, err := buildMessagingService(config, flags)
	if err != nil {
		return err
	}
	if svc != nil {
		defer svc.Stop()
		if twilio, ok := svc.(*messaging.TwilioService); ok {
			apiOpts = append(apiOpts, api.WithTwilioWebhook(twilio))
		}
		if err := startChatOnboarding(ctx, svc, st, questions, profiles); err != nil {
			return err
		}
	}

	server, err := api.NewServer(profiles, apiOpts...)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}

// openStore selects the backend from the DSN; an empty DSN keeps data in memory.
func openStore(dsn string) (store.Store, error) {
	if dsn == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_set", true)
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

func loadQuestionSet(path string) ([]flow.Question, error) {
	if path == "" {
		return flow.DefaultQuestions(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question set: %w", err)
	}
	defer f.Close()
	questions, err := flow.LoadQuestions(f)
	if err != nil {
		return nil, fmt.Errorf("load question set %s: %w", path, err)
	}
	slog.Debug("Loaded question set", "path", path, "questions", len(questions))
	return questions, nil
}

// buildOnboardingOptions attaches the GenAI welcome generator when an API key is available.
func buildOnboardingOptions(config Config, flags Flags) []onboarding.Option {
	if *flags.openaiKey == "" {
		slog.Debug("No OpenAI API key, using static welcome messages")
		return nil
	}
	genaiOpts := []genai.Option{genai.WithAPIKey(*flags.openaiKey)}
	if config.OpenAIBaseURL != "" {
		genaiOpts = append(genaiOpts, genai.WithBaseURL(config.OpenAIBaseURL))
	}
	if config.OpenAIModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(config.OpenAIModel))
	}
	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Warn("GenAI client unavailable, using static welcome messages", "error", err)
		return nil
	}
	return []onboarding.Option{onboarding.WithWelcomeGenerator(client)}
}

var errUnknownChannel = errors.New("unknown chat channel")

// buildMessagingService returns nil, nil when the chat channel is disabled.
func buildMessagingService(config Config, flags Flags) (messaging.Service, error) {
	switch *flags.channel {
	case "", ChannelNone:
		return nil, nil
	case ChannelWhatsApp:
		waOpts := []whatsapp.Option{whatsapp.WithDBDSN(*flags.waDSN)}
		if *flags.qrOutput != "" {
			waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			waOpts = append(waOpts, whatsapp.WithNumericCode())
		}
		client, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return nil, err
		}
		return messaging.NewWhatsAppService(client), nil
	case ChannelTwilio:
		client, err := twiliowhatsapp.NewClient(
			twiliowhatsapp.WithAccountSID(config.TwilioAccountSID),
			twiliowhatsapp.WithAuthToken(config.TwilioAuthToken),
			twiliowhatsapp.WithFromWhats(config.TwilioFrom),
		)
		if err != nil {
			return nil, err
		}
		var validator *twiliowhatsapp.SignatureValidator
		if config.TwilioPublicURL != "" {
			validator = twiliowhatsapp.NewSignatureValidator(config.TwilioAuthToken, config.TwilioPublicURL)
		} else {
			slog.Warn("TWILIO_WEBHOOK_URL not set, webhook signatures are not verified")
		}
		return messaging.NewTwilioService(client, validator), nil
	case ChannelTelegram:
		client, err := telegram.NewClient(telegram.WithToken(config.TelegramToken))
		if err != nil {
			return nil, err
		}
		return messaging.NewTelegramService(client), nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownChannel, *flags.channel)
	}
}

// startChatOnboarding enrolls every new chat participant into the onboarding flow.
func startChatOnboarding(ctx context.Context, svc messaging.Service, st store.Store, questions []flow.Question, profiles *onboarding.Service) error {
	handler := messaging.NewResponseHandler(svc, st)
	router, err := flow.NewChatRouter(handler, svc, questions, profiles, flow.NewStoreBasedStateManager(st))
	if err != nil {
		return err
	}
	router.EnableAutoEnroll()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start messaging service: %w", err)
	}
	handler.Start(ctx)
	slog.Info("Chat onboarding enabled")
	return nil
}
