package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"upbit-llm-trader/internal/logger"
	"upbit-llm-trader/internal/store"
	"upbit-llm-trader/internal/trace"
	"upbit-llm-trader/internal/tradelog"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()
	must(logger.Init())
	must(trace.Init())

	cfg, err := store.LoadConfig("config.yaml")
	must(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = tradelog.CompressOlder(n)
	}

	eng, led, err := buildEngine(cfg)
	must(err)
	defer led.Close()

	if cfg.Mode == "DRY_RUN" {
		log.Println(">> DRY_RUN mode: orders are simulated")
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("Bot started. market=%s cadence=%s", cfg.Market, cfg.Schedule.Cadence)
	for {
		next, err := cfg.Schedule.Next(time.Now())
		must(err)
		log.Printf("Next tick at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			st, err := eng.Tick(ctx)
			if err != nil {
				log.Printf("[%s] tick error: %v", cfg.Market, err)
			}
			if st != nil {
				b, _ := json.Marshal(st)
				fmt.Println(string(b))
			}
		case <-sigc:
			timer.Stop()
			log.Println("Shutting down...")
			_ = trace.Shutdown(ctx)
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
