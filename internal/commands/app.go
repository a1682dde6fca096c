package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/activity"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/database"
	"github.com/cleared-dev/ledger/internal/integration"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/periods"
	"github.com/cleared-dev/ledger/internal/reports"
	"github.com/cleared-dev/ledger/internal/store/gormstore"
)

// app is the wired ledger behind one CLI invocation.
type app struct {
	cfg   *config.Config
	root  string // directory holding ledger.yaml
	actor string
	log   *zap.Logger
	db    *gorm.DB

	store    *gormstore.Store
	accounts *accounts.Service
	periods  *periods.Resolver
	journal  *journal.Engine
	reports  *reports.Engine
	recorder *integration.Recorder
	activity *activity.Log
}

// openApp loads the config at g.configPath, connects to the database and
// migrates the schema.
func openApp(ctx context.Context, g *globals) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(filepath.Dir(g.configPath))
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return newApp(ctx, cfg, root, g.actor)
}

func newApp(ctx context.Context, cfg *config.Config, root, actor string) (*app, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	dbCfg := cfg.Database
	if (dbCfg.Driver == database.DriverSQLite || dbCfg.Driver == "") &&
		dbCfg.DSN != ":memory:" && !filepath.IsAbs(dbCfg.DSN) {
		dbCfg.DSN = filepath.Join(root, dbCfg.DSN)
	}
	db, err := database.Open(dbCfg, log)
	if err != nil {
		return nil, err
	}

	st := gormstore.New(db)
	if err := st.Migrate(ctx); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	if actor == "" {
		actor = cfg.Ledger.Actor
	}
	resolver := periods.NewResolver(st, log)
	engine := journal.NewEngine(st, resolver, log)
	return &app{
		cfg:      cfg,
		root:     root,
		actor:    actor,
		log:      log,
		db:       db,
		store:    st,
		accounts: accounts.NewService(st),
		periods:  resolver,
		journal:  engine,
		reports:  reports.NewEngine(st),
		recorder: integration.NewRecorder(st, engine, cfg.Integration, log),
		activity: activity.New(root),
	}, nil
}

// record appends to the activity log. The ledger change is already
// committed, so a failed write is logged rather than returned.
func (a *app) record(action activity.Action, details, entryNumber string) {
	a.recordActivity(activity.Record{Action: action, Details: details, EntryNumber: entryNumber})
}

func (a *app) recordActivity(r activity.Record) {
	r.Actor = a.actor
	if err := a.activity.Append(r); err != nil {
		a.log.Warn("failed to write activity log",
			zap.String("action", string(r.Action)),
			zap.Error(err),
		)
	}
}

func (a *app) Close() error {
	_ = a.log.Sync()
	return database.Close(a.db)
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(ctx context.Context, g *globals, fn func(a *app) error) error {
	a, err := openApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
