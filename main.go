// Command allocheck is the airdrop allocation estimator daemon and CLI.
// Entry point: wires all packages and starts the HTTP server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Manjussha/allocheck/internal/allocation"
	"github.com/Manjussha/allocheck/internal/api"
	"github.com/Manjussha/allocheck/internal/auth"
	"github.com/Manjussha/allocheck/internal/config"
	"github.com/Manjussha/allocheck/internal/console"
	"github.com/Manjussha/allocheck/internal/db"
	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/history"
	"github.com/Manjussha/allocheck/internal/limiter"
	"github.com/Manjussha/allocheck/internal/notify"
	"github.com/Manjussha/allocheck/internal/platform"
	"github.com/Manjussha/allocheck/internal/report"
	"github.com/Manjussha/allocheck/internal/scheduler"
	"github.com/Manjussha/allocheck/internal/telegram"
	"github.com/Manjussha/allocheck/internal/telemetry"
	"github.com/Manjussha/allocheck/internal/webhook"
	"github.com/Manjussha/allocheck/internal/ws"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "check":
			os.Exit(runCheck(os.Args[2:]))
		case "version", "--version", "-v":
			fmt.Println("allocheck", Version)
			return
		}
	}
	serve()
}

// runCheck evaluates one address without the daemon. It prints a human report
// on a terminal and JSON otherwise. Returns the process exit code.
func runCheck(args []string) int {
	cfg := config.Load()
	tty := console.IsTerminal(os.Stdout)

	address := strings.TrimSpace(strings.Join(args, " "))
	if address == "" && console.IsTerminal(os.Stdin) {
		var err error
		if address, err = console.PromptAddress(bufio.NewReader(os.Stdin), os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	// Only the terminal path waits out the simulated latency.
	latency := time.Duration(0)
	if tty {
		latency = cfg.SimulatedLatency
	}
	est := estimator.New(latency, allocation.NewJitterSource(cfg.JitterMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := est.Evaluate(estimator.WithSource(ctx, estimator.SourceCLI), address)
	if err != nil {
		if errors.Is(err, telemetry.ErrInvalidAddress) {
			fmt.Fprintln(os.Stderr, "error:", telemetry.UserMessage(err))
		} else {
			fmt.Fprintln(os.Stderr, "error: failed to fetch data, please check the address and try again")
		}
		return 1
	}

	if err := writeCheck(os.Stdout, result, tty); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func writeCheck(w io.Writer, est *estimator.Estimate, human bool) error {
	if !human {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	}
	body := report.Estimate(est, false)
	head, rest, _ := strings.Cut(body, "\n")
	_, err := fmt.Fprintf(w, "\n%s\n%s\n", console.TierColor(est.Allocation.Tier, head, true), rest)
	return err
}

func serve() {
	console.Banner(os.Stdout, Version, console.IsTerminal(os.Stdout))
	log.Printf("allocheck %s starting…", Version)

	// ── 1. Load configuration ────────────────────────────────────────────────
	cfg := config.Load()
	log.Printf("Config: port=%s workDir=%s jitter=%s", cfg.Port, cfg.WorkDir, cfg.JitterMode)

	// ── 2. Ensure work directory exists ──────────────────────────────────────
	if err := platform.EnsureDir(cfg.WorkDir); err != nil {
		log.Fatalf("EnsureDir %s: %v", cfg.WorkDir, err)
	}

	// ── 3. Open database + migrate ───────────────────────────────────────────
	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db.New: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("db.Migrate: %v", err)
	}
	log.Printf("Database ready: %s", cfg.DBPath)
	console.PrintDashboardURLs(os.Stdout, cfg.Port)

	// Root context, cancelled on shutdown signal.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 4. Admin credentials ─────────────────────────────────────────────────
	var admin *auth.Admin
	if cfg.AdminPassword != "" {
		if admin, err = auth.NewAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("auth.NewAdmin: %v", err)
		}
		if cfg.AdminPassword == "changeme" {
			log.Println("⚠  ADMIN_PASSWORD is the default — set it before exposing the admin API.")
		}
	} else {
		log.Println("ADMIN_PASSWORD empty — admin routes disabled")
	}

	// ── 5. Services ──────────────────────────────────────────────────────────
	svc := newServices(cfg, database)

	// Sinks are registered; start the background loops.
	go svc.hub.Run(ctx)
	if svc.bot != nil {
		go svc.bot.Start(ctx)
		log.Printf("Telegram bot started (chatID=%d)", cfg.TelegramChatID)
	}

	// ── 6. Cron scheduler ────────────────────────────────────────────────────
	if err := svc.scheduler.Start(ctx, cfg.PruneCron, cfg.DigestCron); err != nil {
		log.Printf("scheduler.Start: %v", err)
	} else {
		for _, next := range svc.scheduler.NextRuns() {
			log.Printf("scheduler: next run %s", next.Format(time.RFC3339))
		}
	}

	// ── 7. HTTP router ───────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.SetupRoutes(mux, &api.Deps{
		DB:        database,
		Config:    cfg,
		Estimator: svc.estimator,
		History:   svc.history,
		Hub:       svc.hub,
		Webhook:   svc.webhook,
		Limiter:   limiter.New(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		Admin:     admin,
	})

	// Recovery + logging middleware.
	handler := loggingMiddleware(recoveryMiddleware(mux))

	// ── 8. Start HTTP server ────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received %s — shutting down…", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("allocheck listening on http://0.0.0.0:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
	log.Printf("allocheck stopped.")
}

// services holds the wired daemon components. Nothing in it is running yet.
type services struct {
	estimator *estimator.Estimator
	history   *history.Store
	hub       *ws.Hub
	bot       *telegram.Bot
	webhook   *webhook.Dispatcher
	scheduler *scheduler.Engine
}

// newServices builds every component and registers all estimator sinks.
func newServices(cfg *config.Config, database *db.DB) *services {
	hist := history.New(database)
	hub := ws.NewHub()
	est := estimator.New(cfg.SimulatedLatency, allocation.NewJitterSource(cfg.JitterMode))

	bot, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID, telegram.NewCommandHandler(est, hist))
	if err != nil {
		log.Printf("Telegram init error (continuing without Telegram): %v", err)
	}

	webhookDispatcher := webhook.New(database)
	notifier := notify.New(telegramSender(bot), webhookDispatcher, database)

	est.AddSink(hist)
	est.AddSink(hub)
	est.AddSink(notifier)

	sched := scheduler.New(hist, notifier, database, cfg.HistoryRetentionDays)
	sched.SetFeed(hub)

	return &services{
		estimator: est,
		history:   hist,
		hub:       hub,
		bot:       bot,
		webhook:   webhookDispatcher,
		scheduler: sched,
	}
}

// loggingMiddleware logs each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log.Printf("panic: %v", rv)
				http.Error(w, `{"success":false,"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// telegramSender wraps *telegram.Bot to implement notify.Sender.
// Returns nil if bot is nil (Telegram disabled).
func telegramSender(bot *telegram.Bot) notify.Sender {
	if bot == nil {
		return nil
	}
	return bot
}
