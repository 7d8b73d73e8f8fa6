package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MeteOShape/shapebot/internal/api"
	"github.com/MeteOShape/shapebot/internal/dispatch"
	"github.com/MeteOShape/shapebot/internal/flow"
	"github.com/MeteOShape/shapebot/internal/genai"
	"github.com/MeteOShape/shapebot/internal/lockfile"
	"github.com/MeteOShape/shapebot/internal/messaging"
	"github.com/MeteOShape/shapebot/internal/scheduler"
	"github.com/MeteOShape/shapebot/internal/store"
	"github.com/MeteOShape/shapebot/internal/util"
	"github.com/MeteOShape/shapebot/internal/whatsapp"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ShapeBot state data
	DefaultStateDir = "/var/lib/shapebot"
	// DefaultDBFileName is the default JSON document filename
	DefaultDBFileName = "db.json"
	// DefaultTimeZone is the deployment time zone for reminder hours
	DefaultTimeZone = "America/Sao_Paulo"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("ShapeBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ShapeBot exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir        string
	DBPath          string
	DatabaseURL     string
	WhatsAppDSN     string
	WhatsAppEnabled bool
	OpenAIKey       string
	APIAddr         string
	CronSchedule    string
	TimeZone        string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbPath       *string
	databaseURL  *string
	whatsappDSN  *string
	whatsapp     *bool
	qrOutput     *string
	numeric      *bool
	openaiKey    *string
	apiAddr      *string
	cronSchedule *string
	timeZone     *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:        util.EnvOrDefault("SHAPEBOT_STATE_DIR", DefaultStateDir),
		DBPath:          os.Getenv("DB_PATH"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		WhatsAppDSN:     os.Getenv("WHATSAPP_DB_DSN"),
		WhatsAppEnabled: util.ParseBoolEnv("WHATSAPP_ENABLED", false),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		APIAddr:         os.Getenv("API_ADDR"),
		CronSchedule:    util.EnvOrDefault("CRON_SCHEDULE", scheduler.DefaultTickExpr),
		TimeZone:        util.EnvOrDefault("TZ", DefaultTimeZone),
	}

	// The original deployment exposed PORT; honor it when API_ADDR is unset.
	if config.APIAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			config.APIAddr = ":" + port
		}
	}
	if config.DBPath == "" {
		config.DBPath = filepath.Join(config.StateDir, DefaultDBFileName)
	}

	slog.Debug("environment variables loaded",
		"SHAPEBOT_STATE_DIR", config.StateDir,
		"DB_PATH", config.DBPath,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_ENABLED", config.WhatsAppEnabled,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"CRON_SCHEDULE", config.CronSchedule,
		"TZ", config.TimeZone)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for ShapeBot data (overrides $SHAPEBOT_STATE_DIR)"),
		dbPath:       flag.String("db-path", config.DBPath, "path to the JSON user document (overrides $DB_PATH)"),
		databaseURL:  flag.String("database-url", config.DatabaseURL, "SQLite path or Postgres DSN for the user store (overrides $DATABASE_URL)"),
		whatsappDSN:  flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "database DSN for the WhatsApp session store (overrides $WHATSAPP_DB_DSN)"),
		whatsapp:     flag.Bool("whatsapp", config.WhatsAppEnabled, "connect directly via WhatsApp instead of the Twilio webhook (overrides $WHATSAPP_ENABLED)"),
		qrOutput:     flag.String("qr-output", "", "path to write login QR code"),
		numeric:      flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for free-text Q&A (overrides $OPENAI_API_KEY)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR or $PORT)"),
		cronSchedule: flag.String("cron", config.CronSchedule, "cron expression for reminder ticks (overrides $CRON_SCHEDULE)"),
		timeZone:     flag.String("tz", config.TimeZone, "IANA time zone for reminder hours (overrides $TZ)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbPath", *flags.dbPath,
		"databaseURL_set", *flags.databaseURL != "",
		"whatsapp", *flags.whatsapp,
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"cron", *flags.cronSchedule,
		"tz", *flags.timeZone)

	return flags
}

func run(flags Flags) error {
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	users, err := buildUserStore(flags)
	if err != nil {
		return err
	}
	guarded := store.NewGuarded(users)
	defer guarded.Close()

	location, err := time.LoadLocation(*flags.timeZone)
	if err != nil {
		slog.Warn("Invalid time zone, falling back to local", "tz", *flags.timeZone, "error", err)
		location = time.Local
	}

	var asker genai.Asker
	if *flags.openaiKey != "" {
		client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
		if err != nil {
			slog.Warn("Q&A collaborator unavailable, using static fallback", "error", err)
		} else {
			asker = client
		}
	}

	engine := flow.NewEngine(guarded, flow.WithAsker(asker))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	msgService, err := buildMessagingService(ctx, flags, engine)
	if err != nil {
		return err
	}

	dispatcher := dispatch.NewDispatcher(guarded, msgService, dispatch.Config{
		Location:       location,
		CheckinWeekday: time.Monday,
		CheckinHour:    8,
	})

	sched := scheduler.NewScheduler(cron.WithLocation(location))
	defer sched.Stop()
	if err := sched.AddJob(*flags.cronSchedule, func() {
		sent, err := dispatcher.Tick(context.Background())
		if err != nil {
			slog.Error("Scheduled dispatch tick failed", "error", err, "sent", sent)
			return
		}
		slog.Info("Scheduled dispatch tick", "sent", sent)
	}); err != nil {
		return err
	}

	apiOpts := []api.Option{}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(engine, dispatcher, apiOpts...)

	slog.Info("ShapeBot bootstrapped", "addr", *flags.apiAddr, "tz", location.String(), "cron", *flags.cronSchedule)
	return server.Run(ctx)
}

// buildUserStore picks the persistence backend: DATABASE_URL selects SQLite
// or Postgres; otherwise the JSON document file is used.
func buildUserStore(flags Flags) (store.Store, error) {
	if dsn := *flags.databaseURL; dsn != "" {
		if store.DetectDSNType(dsn) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
			return store.NewPostgresStore(store.WithDSN(dsn))
		}
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
		return store.NewSQLiteStore(store.WithDSN(dsn))
	}
	slog.Debug("No DATABASE_URL, using JSON file store", "db_path", *flags.dbPath)
	return store.NewFileStore(store.WithDSN(*flags.dbPath))
}

// buildMessagingService picks the outbound transport: Twilio when credentials
// are configured, a direct WhatsApp connection when enabled, dry-run
// otherwise. The direct connection also pumps inbound events to the engine.
func buildMessagingService(ctx context.Context, flags Flags, engine *flow.Engine) (messaging.Service, error) {
	if os.Getenv("TWILIO_ACCOUNT_SID") != "" && os.Getenv("TWILIO_AUTH_TOKEN") != "" {
		slog.Info("Using Twilio messaging transport")
		return messaging.NewTwilioService()
	}

	if *flags.whatsapp {
		waOpts := []whatsapp.Option{}
		if *flags.whatsappDSN != "" {
			waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.whatsappDSN))
		}
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
		service := messaging.NewWhatsAppService(client)
		if err := service.Start(ctx); err != nil {
			return nil, err
		}
		go pumpInbound(ctx, service, engine)
		slog.Info("Using direct WhatsApp messaging transport")
		return service, nil
	}

	return messaging.NewDryRunService(), nil
}

// pumpInbound feeds direct-connection chat events through the engine and
// sends the replies back on the same transport.
func pumpInbound(ctx context.Context, service *messaging.WhatsAppService, engine *flow.Engine) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-service.Inbound():
			if !ok {
				return
			}
			reply := engine.HandleInbound(ctx, in)
			to, err := service.ValidateAndCanonicalizeRecipient(in.Sender)
			if err != nil {
				slog.Warn("Cannot reply to sender", "sender", in.Sender, "error", err)
				continue
			}
			if err := service.SendMessage(ctx, to, reply); err != nil {
				slog.Error("Failed to send reply", "to", to, "error", err)
			}
		}
	}
}
