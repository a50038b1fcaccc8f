package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/missingbox/compool/internal/config"
	"github.com/missingbox/compool/internal/core/event"
	coresys "github.com/missingbox/compool/internal/core/system"
	"github.com/missingbox/compool/internal/data"
	"github.com/missingbox/compool/internal/scripting"
	"github.com/missingbox/compool/internal/system"
	"github.com/missingbox/compool/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(capacity int, tickRate string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          compool testbed  v0.1.0          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     a pooled component testbed in Go      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mstore:\033[0m %d slots \033[90m(tick: %s)\033[0m\n\n", capacity, tickRate)
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

// ── Testbed logic ──────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/testbed.toml"
	if p := os.Getenv("TESTBED_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Engine.Capacity, cfg.Engine.TickRate.String())

	// 3. Load data tables
	printSection("data")

	catTable, err := data.LoadCatTable(cfg.Data.CatTable)
	if err != nil {
		return fmt.Errorf("load cat table: %w", err)
	}
	printStat("cat templates", catTable.Count())

	spawnList, err := data.LoadSpawnList(cfg.Data.SpawnList)
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("spawn entries", len(spawnList))

	// 4. Initialize Lua scripting engine
	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("behavior scripts loaded")
	fmt.Println()

	// 5. Build the world: event bus, cat store, spawn queue
	bus := event.NewBus()
	ws, err := world.NewState(cfg.Engine.Capacity, catTable, luaEngine, bus, log)
	if err != nil {
		return fmt.Errorf("world state: %w", err)
	}
	ws.QueueSpawns(spawnList)

	// 6. Create systems and register with runner
	runner := coresys.NewRunner()
	runner.Register(system.NewDispatchSystem(bus))
	runner.Register(system.NewBehaviorSystem(ws))
	runner.Register(system.NewCommitSystem(ws, cfg.Demo.SpawnInterval))
	runner.Register(system.NewStatsSystem(ws, log, cfg.Demo.StatsInterval))

	// 7. Start tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	printSection("testbed ready")
	printReady(fmt.Sprintf("spawn queue %d deep", ws.PendingSpawns()))
	if cfg.Demo.RunTicks > 0 {
		printReady(fmt.Sprintf("tick loop started (%d ticks, then exit)", cfg.Demo.RunTicks))
	} else {
		printReady(fmt.Sprintf("tick loop started (tick: %s, ctrl-c to stop)", cfg.Engine.TickRate))
	}
	fmt.Println()

	ticks := 0
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Engine.TickRate)
			ticks++
			if cfg.Demo.RunTicks > 0 && ticks >= cfg.Demo.RunTicks {
				log.Info("run complete", zap.Int("ticks", ticks))
				printFinalStats(ws)
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			printFinalStats(ws)
			return nil
		}
	}
}

func printFinalStats(ws *world.State) {
	store := ws.Store()
	st := store.Stats()
	fmt.Println()
	printSection("final statistics")
	printStat("live cats", store.Len())
	printStat("active", store.ActiveLen())
	printStat("sleeping", store.SleepingLen())
	printStat("spawns pending", ws.PendingSpawns())
	printStat("created", int(st.Created))
	printStat("destroyed", int(st.Destroyed))
	printStat("naps taken", int(st.Slept))
	printStat("wakes", int(st.Woken))
	fmt.Println()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
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
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
