package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/levelsave/internal/archive"
	"github.com/l1jgo/levelsave/internal/config"
	"github.com/l1jgo/levelsave/internal/core/event"
	coresys "github.com/l1jgo/levelsave/internal/core/system"
	"github.com/l1jgo/levelsave/internal/data"
	"github.com/l1jgo/levelsave/internal/level"
	"github.com/l1jgo/levelsave/internal/levelfile"
	"github.com/l1jgo/levelsave/internal/persist"
	"github.com/l1jgo/levelsave/internal/saveset"
	"github.com/l1jgo/levelsave/internal/scripting"
	"github.com/l1jgo/levelsave/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, worldType level.Type) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              levelsave v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s \033[90m(%s)\033[0m\n\n", name, worldType)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/levelsave.toml"
	if p := os.Getenv("LEVELSAVE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	worldType, err := level.ParseType(cfg.World.Type)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.World.Name, worldType)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	schemaVersion, err := persist.MigrateLevelStore(ctx, db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("schema at version %d", schemaVersion))
	fmt.Println()

	levelRepo := persist.NewLevelRepo(db)
	opts := archiveOptions(cfg.Archive)

	// 4. Build the world, from stored blobs when there are any
	printSection("levels")
	world := level.NewWorld(cfg.World.Name, worldType)
	settings, err := loadLevels(ctx, world, levelRepo, cfg.World.LevelFile, opts, log)
	if err != nil {
		return err
	}
	for _, s := range settings {
		if err := s.PreInitialize(); err != nil {
			return fmt.Errorf("pre-initialize %s: %w", s.Level().FullName(), err)
		}
		printStat(s.Level().Name(), s.Level().Len())
	}

	// 5. Authoring worlds run editor scripts
	if worldType.IsEditor() {
		engine := scripting.NewEngine(world, log)
		defer engine.Close()
		n, err := engine.RunDir(cfg.World.ScriptDir)
		if err != nil {
			return fmt.Errorf("editor scripts: %w", err)
		}
		for _, s := range settings {
			engine.CallHook("on_level_loaded", map[string]any{
				"level":  s.Level().Name(),
				"actors": s.Level().Len(),
			})
		}
		printStat("editor scripts", n)
	}
	fmt.Println()

	event.Subscribe(world.Bus(), func(ev event.LevelSaved) {
		log.Debug("level saved",
			zap.String("level", ev.Level),
			zap.Int("members", ev.Members),
			zap.Int("bytes", ev.Bytes))
	})

	// 6. Systems
	autosave := system.NewAutosaveSystem(settings, levelRepo, opts, log, cfg.World.AutosaveTicks)
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(world.Bus()))
	runner.Register(autosave)
	runner.Register(system.NewCleanupSystem(world))

	// 7. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (tick: %s, autosave every %d ticks)", cfg.World.TickRate, cfg.World.AutosaveTicks))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.World.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			autosave.SaveAll()
			for _, s := range settings {
				s.Teardown()
			}
			log.Info("stopped")
			return nil
		}
	}
}

// loadLevels decodes every stored level of the world. With nothing stored
// it populates the world from the YAML fixture instead.
func loadLevels(ctx context.Context, w *level.World, repo *persist.LevelRepo, fixture string, opts levelfile.Options, log *zap.Logger) ([]*saveset.Settings, error) {
	names, err := repo.ListLevels(ctx, w.Name())
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}

	if len(names) == 0 {
		def, err := data.LoadLevelDef(fixture)
		if err != nil {
			return nil, err
		}
		n, err := def.Populate(w)
		if err != nil {
			return nil, err
		}
		printStat("fixture actors", n)

		var out []*saveset.Settings
		for _, lvl := range w.Levels() {
			s, err := saveset.NewSettings(lvl, log)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}

	out := make([]*saveset.Settings, 0, len(names))
	for _, name := range names {
		row, err := repo.LoadLevel(ctx, w.Name(), name)
		if errors.Is(err, persist.ErrLevelNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s, err := levelfile.Decode(row.Payload, w, opts, log)
		if err != nil {
			return nil, fmt.Errorf("decode level %s: %w", name, err)
		}
		if row.CustomVersion < archive.CachedSaveActors {
			log.Info("legacy level rebuilt its save set",
				zap.String("level", name), zap.Int32("version", row.CustomVersion))
		}
		out = append(out, s)
	}
	printOK(fmt.Sprintf("%d stored levels decoded", len(out)))
	return out, nil
}

func archiveOptions(cfg config.ArchiveConfig) levelfile.Options {
	opts := levelfile.Options{Cooking: cfg.Cook}
	if cfg.WriteVersion > 0 {
		opts.WriteVersions = archive.Versions{archive.FactoryGameGUID: cfg.WriteVersion}
	}
	return opts
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	if cfg.File == "" {
		return zapCfg.Build()
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		LocalTime:  true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotated),
		zapCfg.Level,
	)
	return zapCfg.Build(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}
