package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	revieweat "github.com/revieweat/server"
	"github.com/revieweat/server/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

type App struct {
	config  *gconfig.Container[*config.BaseConfig]
	bunDB   *bun.DB
	gate    revieweat.Authenticator
	auther  revieweat.HTTPAuthenticator
	repo    revieweat.RepositoryManager
	sweeper *revieweat.SweepSessionsHandler
	srv     router.Server[*fiber.App]
	fiber   *fiber.App
	logger  *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) SetLogger(lgr *glog.BaseLogger) *App {
	a.logger = lgr
	return a
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("revieweat"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		panic(err)
	}

	StartSessionSweep(ctx, app)

	app.srv.Serve(app.Config().GetServer().GetAddr())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config.Raw().GetPersistence()

	var db *sql.DB
	var dialect schema.Dialect
	var err error

	switch cfg.GetDriver() {
	case "postgres":
		db = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.GetDSN())))
		dialect = pgdialect.New()
	default:
		db, err = sql.Open(sqliteshim.ShimName, cfg.GetDSN())
		if err != nil {
			return err
		}
		dialect = sqlitedialect.New()
	}

	persistence.RegisterModel((*revieweat.User)(nil))
	persistence.RegisterModel((*revieweat.Review)(nil))
	persistence.RegisterModel((*revieweat.SearchHistory)(nil))

	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(revieweat.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	if cfg.GetSeed() {
		client.RegisterFixtures(fixturesFS).AddOptions(persistence.WithTrucateTables())
		if err := client.Seed(ctx); err != nil {
			return err
		}
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		fmt.Printf("report: %s\n", report.String())
	}

	app.bunDB = client.DB()
	app.repo = revieweat.NewRepositoryManager(app.bunDB)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		app.fiber = router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: app.Config().GetApp().GetDebug(),
			StrictRouting:     false,
		}))
		return app.fiber
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv

	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	if err := app.repo.Validate(); err != nil {
		return err
	}

	provider := revieweat.NewUserProvider(app.repo.Users())
	provider.WithLogger(app.GetLogger("auth:prv"))

	mirror := revieweat.NewSessionMirror(app.repo.Users()).
		WithLogger(app.GetLogger("auth:mirror"))

	gate := revieweat.NewAuthenticator(provider, app.repo.Users(), cfg).
		WithLogger(app.GetLogger("auth:gate")).
		WithSessionMirror(mirror)
	app.gate = gate

	httpAuth, err := revieweat.NewHTTPAuthenticator(gate, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))
	app.auther = httpAuth

	app.sweeper = revieweat.NewSweepSessionsHandler(mirror)

	protected := httpAuth.ProtectedRoute(cfg, httpAuth.MakeClientRouteAuthErrorHandler(false))

	r := app.srv.Router()

	authCtrl := revieweat.NewAuthController(
		revieweat.WithAuthControllerRepo(app.repo),
		revieweat.WithAuthControllerAuther(httpAuth, gate),
		revieweat.WithAuthControllerConfig(cfg),
		revieweat.WithAuthControllerSweeper(app.sweeper),
		revieweat.WithAuthControllerLogger(app.GetLogger("auth:ctrl")),
	)
	revieweat.RegisterAuthRoutes(r, authCtrl, protected)

	reviewsCtrl := revieweat.NewReviewsController(app.repo, gate, cfg, httpAuth.WriteError).
		WithLogger(app.GetLogger("reviews"))
	revieweat.RegisterReviewRoutes(r, reviewsCtrl, protected)

	searchCtrl := revieweat.NewSearchHistoryController(app.repo, gate, cfg, httpAuth.WriteError).
		WithLogger(app.GetLogger("search"))
	revieweat.RegisterSearchHistoryRoutes(r, searchCtrl, protected)

	// Multipart uploads go straight to fiber; go-router contexts do not
	// expose SaveFile.
	store, err := revieweat.NewImageStore(app.Config().GetUploads().GetDir())
	if err != nil {
		return err
	}
	store.WithLogger(app.GetLogger("uploads"))
	app.fiber.Post("/reviews/:id/images", revieweat.NewReviewImageUploadHandler(
		gate,
		app.repo.Reviews(),
		store,
		cfg,
		app.GetLogger("uploads:http"),
	))

	return nil
}

// StartSessionSweep clears expired session mirror rows on a fixed interval.
// Tokens expire on their own; this only keeps the session columns tidy.
func StartSessionSweep(ctx context.Context, app *App) {
	interval := app.Config().GetAuth().GetSweepInterval()
	logger := app.GetLogger("auth:sweep")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := app.sweeper.Execute(ctx, revieweat.SweepSessionsMessage{}); err != nil {
					logger.Error("session sweep failed", "error", err)
					continue
				}
				logger.Debug("session sweep completed", "cleared", app.sweeper.Cleared())
			}
		}
	}()
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
