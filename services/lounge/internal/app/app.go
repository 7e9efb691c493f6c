package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/lounge/pkg"
	"github.com/appetiteclub/lounge/pkg/event"
	"github.com/appetiteclub/lounge/services/lounge/internal/events"
	"github.com/appetiteclub/lounge/services/lounge/internal/form"
	"github.com/appetiteclub/lounge/services/lounge/internal/mongo"
	"github.com/appetiteclub/lounge/services/lounge/internal/redis"
	"github.com/appetiteclub/lounge/services/lounge/internal/stoplist"
	"github.com/appetiteclub/lounge/services/lounge/internal/telegram"
	"github.com/appetiteclub/lounge/services/lounge/internal/template"
	"github.com/appetiteclub/lounge/services/lounge/internal/ticket"
	"github.com/appetiteclub/lounge/services/lounge/internal/zone"
)

const (
	AppName    = "lounge"
	AppVersion = "0.1.0"
)

// App encapsulates the lounge order bot
type App struct {
	config *apt.Config
	logger apt.Logger
	micro  *apt.Micro
}

func New(config *apt.Config, logger apt.Logger) (*App, error) {
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Settings are the bot values read from config.
type Settings struct {
	StaffChatID     int64
	FallbackTopicID int
	InboxShards     int
	ZonesFile       string
}

func LoadSettings(config *apt.Config) (Settings, error) {
	var s Settings

	raw, _ := config.GetString("telegram.staff_chat_id")
	if raw == "" {
		return s, fmt.Errorf("telegram.staff_chat_id is required")
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return s, fmt.Errorf("invalid telegram.staff_chat_id %q: %w", raw, err)
	}
	s.StaffChatID = chatID

	topic, err := strconv.Atoi(config.GetStringOrDef("telegram.fallback_topic_id", "0"))
	if err != nil || topic < 0 {
		return s, fmt.Errorf("invalid telegram.fallback_topic_id")
	}
	s.FallbackTopicID = topic

	shards, err := strconv.Atoi(config.GetStringOrDef("inbox.shards", strconv.Itoa(form.DefaultShards)))
	if err != nil || shards <= 0 {
		return s, fmt.Errorf("invalid inbox.shards")
	}
	s.InboxShards = shards

	s.ZonesFile, _ = config.GetString("zones.file")
	return s, nil
}

// LoadResolver reads zone rules from file, or falls back to the built-in table.
func LoadResolver(path string, logger apt.Logger) (*zone.Resolver, error) {
	if path == "" {
		logger.Info("zones.file not set, using default zone rules")
		return zone.NewResolver(nil), nil
	}
	rules, err := zone.LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load zone rules: %w", err)
	}
	logger.Infof("Loaded %d zone rules from %s", len(rules), path)
	return zone.NewResolver(rules), nil
}

// Initialize sets up all dependencies and components
func (a *App) Initialize(ctx context.Context) error {
	settings, err := LoadSettings(a.config)
	if err != nil {
		return err
	}

	resolver, err := LoadResolver(settings.ZonesFile, a.logger)
	if err != nil {
		return err
	}

	// Storage
	store := mongo.NewStore(a.config, a.logger)
	templateRepo := mongo.NewTemplateRepo(store)
	ticketRepo := mongo.NewTicketRepo(store)
	stopListRepo := redis.NewStopListRepo(a.config, a.logger)
	stopList := stoplist.New(stopListRepo, a.logger)

	// NATS
	natsURL := a.config.GetStringOrDef("nats.url", "nats://localhost:4222")

	var ticketStream *pkg.NATSStream
	var eventPublisher aptevents.Publisher

	streamEnabled, _ := a.config.GetString("nats.stream.enabled")
	if streamEnabled == "true" {
		streamCfg := pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "LOUNGE_TICKETS",
			Topic:        event.OrderTicketsTopic,
			ConsumerName: "lounge-registry",
			MaxAge:       ticket.DefaultRetention,
			MaxMsgs:      0,
		}
		ticketStream, err = pkg.NewNATSStream(streamCfg)
		if err != nil {
			return err
		}
		a.logger.Info("NATS stream initialized for persistent ticket events")
		eventPublisher = ticketStream
	} else {
		publisher, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			return err
		}
		eventPublisher = publisher
	}

	readySub, err := pkg.NewNATSSubscriber(natsURL, a.logger)
	if err != nil {
		return err
	}

	// Tickets
	var streamForRegistry aptevents.StreamConsumer
	if ticketStream != nil {
		streamForRegistry = ticketStream
	}
	registry := ticket.NewRegistry(streamForRegistry, ticketRepo, a.logger)

	bot := telegram.NewBot(a.config.GetStringOrDef("telegram.token", ""), a.logger)

	dispatcher := ticket.NewDispatcher(ticket.Deps{
		Registry:  registry,
		Messenger: bot,
		Resolver:  resolver,
		Repo:      ticketRepo,
		Publisher: eventPublisher,
	}, ticket.Config{
		ChatID:          settings.StaffChatID,
		FallbackTopicID: settings.FallbackTopicID,
	}, a.logger)

	// Conversation
	machine := form.NewMachine(form.Deps{
		Store:     form.NewSessionStore(),
		Messenger: bot,
		Resolver:  resolver,
		Tickets:   dispatcher,
		Templates: templateRepo,
		StopList:  stopList,
	}, a.logger)

	inbox := form.NewInbox(machine, settings.InboxShards, form.DefaultBufferSize, a.logger)
	bot.Bind(inbox)

	readySubscriber := events.NewReadySubscriber(readySub, dispatcher, a.logger)

	// HTTP
	ticketHandler := ticket.NewHandler(dispatcher, a.logger)
	templateHandler := template.NewHandler(templateRepo, a.logger)
	stopListHandler := stoplist.NewHandler(stopList, a.logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: true,
	})
	stack = append(stack, middleware.InternalOnly())

	// Repos start first, the bot last so no update arrives before its collaborators.
	lifecycles := []interface{}{store, stopListRepo, stopList, registry, inbox, readySubscriber, bot}

	if ticketStream != nil {
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStop: func(context.Context) error { return ticketStream.Close() },
		})
	} else if publisher, ok := eventPublisher.(*pkg.NATSPublisher); ok {
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStop: func(context.Context) error { return publisher.Close() },
		})
	}
	lifecycles = append(lifecycles, apt.LifecycleHooks{
		OnStop: func(context.Context) error { return readySub.Close() },
	})

	options := []apt.Option{
		apt.WithConfig(a.config),
		apt.WithLogger(a.logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", ticketHandler, templateHandler, stopListHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(AppName),
	}

	a.micro = apt.NewMicro(options...)
	return nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}
