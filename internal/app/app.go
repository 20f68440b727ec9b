package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "trainingcrm/docs"
	"trainingcrm/internal/config"
	"trainingcrm/internal/handlers"
	"trainingcrm/internal/middleware"
	"trainingcrm/internal/pdf"
	"trainingcrm/internal/realtime"
	"trainingcrm/internal/repositories"
	"trainingcrm/internal/routes"
	"trainingcrm/internal/services"
	"trainingcrm/internal/store"
	"trainingcrm/internal/utils"
)

// App is the wired service: the store, its services and the HTTP router.
type App struct {
	Config        *config.Config
	Store         *store.Store
	Opportunities *services.OpportunityService
	Dashboard     *services.DashboardService
	Hub           *realtime.Hub
	Watcher       *services.StaleWatcher
	Router        *gin.Engine

	closer      io.Closer
	unsubscribe func()
}

// OpenTable opens the opportunity table described by cfg.
func OpenTable(ctx context.Context, cfg *config.Config) (repositories.OpportunityTable, io.Closer, error) {
	return repositories.Open(ctx, repositories.OpenOptions{
		Driver:        cfg.Table.Driver,
		DSN:           cfg.Table.DSN,
		Table:         cfg.Table.Name,
		RESTURL:       cfg.Table.RESTURL,
		APIKey:        cfg.Table.APIKey,
		SelectRetries: cfg.Table.SelectRetries,
		Timeout:       cfg.Table.Timeout,
		EnsureSchema:  cfg.Table.EnsureSchema,
	})
}

// New opens the table and wires everything on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	table, closer, err := OpenTable(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithTable(cfg, table, closer, time.Now), nil
}

// NewWithTable wires the app over an already opened table. closer may be
// nil.
func NewWithTable(cfg *config.Config, table repositories.OpportunityTable, closer io.Closer, now func() time.Time) *App {
	loc := cfg.Loc()
	notifier := buildNotifier(cfg)

	storeOpts := []store.Option{store.WithClock(now)}
	if notifier != nil {
		storeOpts = append(storeOpts, store.WithNotifier(notifier))
	}
	st := store.New(table, storeOpts...)

	hub := realtime.NewHub()
	unsubscribe := st.Subscribe(func(e store.Event) {
		ev := realtime.Event{Type: string(e.Type), ID: e.ID}
		switch e.Type {
		case store.EventReloaded, store.EventChanged:
			ev.Type = realtime.EventOpportunitiesChanged
		case store.EventNotice:
			if e.Notice != nil {
				ev.Message = e.Notice.Message
			}
		}
		hub.Enqueue(ev)
	})

	oppService := services.NewOpportunityService(st, now)
	dashboard := services.NewDashboardService(st, now, loc)

	var digest services.Messenger
	if notifier != nil && cfg.Stale.Notify {
		digest = notifier
	}
	watcher := services.NewStaleWatcher(st, now, cfg.Stale.Interval, hub, digest)

	gen := pdf.NewProposalGenerator(cfg.Files.RootDir, cfg.Files.FontPath, cfg.Files.Company)
	gen.Now = now
	gen.Location = loc

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		handlers.NewStateHandler(st),
		handlers.NewOpportunityHandler(oppService),
		handlers.NewReportHandler(dashboard),
		handlers.NewDocumentHandler(oppService, gen),
		hub,
	)

	return &App{
		Config:        cfg,
		Store:         st,
		Opportunities: oppService,
		Dashboard:     dashboard,
		Hub:           hub,
		Watcher:       watcher,
		Router:        router,
		closer:        closer,
		unsubscribe:   unsubscribe,
	}
}

// buildNotifier returns nil when no channel is configured.
func buildNotifier(cfg *config.Config) *services.MultiNotifier {
	var channels []services.Messenger
	if cfg.Email.Enabled() {
		channels = append(channels, services.NewEmailNotifier(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
			cfg.Email.To,
		))
	}
	if cfg.Telegram.Enabled() {
		tg, err := services.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatIDs)
		if err != nil {
			utils.Log.WithError(err).Warn("[app] telegram notifier disabled")
		} else {
			channels = append(channels, tg)
		}
	}
	if len(channels) == 0 {
		return nil
	}
	return services.NewMultiNotifier(channels...)
}

// Run loads the store, starts the socket fan-out and the stale watcher, and
// serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Store.Load(ctx); err != nil {
		// the UI shows the error state; the server still comes up
		utils.Log.WithError(err).Error("[app] initial load failed")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.Hub.Run(ctx)
	go a.Watcher.Run(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	utils.Log.Info("Shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
