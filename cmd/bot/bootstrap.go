package main

import (
	"fmt"
	"os"

	"upbit-llm-trader/internal/engine"
	"upbit-llm-trader/internal/exchange/exchangeobs"
	"upbit-llm-trader/internal/exchange/upbit"
	"upbit-llm-trader/internal/interfaces"
	"upbit-llm-trader/internal/ledger"
	"upbit-llm-trader/internal/news"
	"upbit-llm-trader/internal/oracle"
	"upbit-llm-trader/internal/oracle/claude"
	"upbit-llm-trader/internal/oracle/noop"
	"upbit-llm-trader/internal/oracle/openai"
	"upbit-llm-trader/internal/oracle/oracleobs"
	"upbit-llm-trader/internal/store"
)

// buildEngine wires the exchange, oracle, feeds and ledger from config
// and environment. Exchange keys are required in both modes: DRY_RUN
// only simulates order submission, balance reads are still signed.
func buildEngine(cfg *store.Config) (*engine.Engine, *ledger.Store, error) {
	accessKey := os.Getenv("UPBIT_ACCESS_KEY")
	secretKey := os.Getenv("UPBIT_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil, nil, fmt.Errorf("UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY are required")
	}

	ex := exchangeobs.Wrap(upbit.New(upbit.Params{
		Mode:      cfg.Mode,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Timeout:   cfg.HTTPTimeout(),
	}))

	advisor, err := buildAdvisor(cfg)
	if err != nil {
		return nil, nil, err
	}
	orc := oracleobs.Wrap(oracle.NewClient(advisor, cfg.Oracle.MaxRetries, cfg.RetryDelay()))

	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger %s: %w", cfg.Ledger.Path, err)
	}

	eng := engine.New(cfg, engine.Deps{
		Exchange:  ex,
		Oracle:    orc,
		News:      buildNewsFeed(cfg),
		FearGreed: news.NewFearGreedClient(cfg.HTTPTimeout()),
		Ledger:    led,
	})
	return eng, led, nil
}

func buildAdvisor(cfg *store.Config) (oracle.Advisor, error) {
	instructions, err := os.ReadFile(cfg.Oracle.InstructionsPath)
	if err != nil {
		return nil, fmt.Errorf("read instructions %s: %w", cfg.Oracle.InstructionsPath, err)
	}

	switch cfg.Oracle.Provider {
	case "OPENAI":
		if os.Getenv("OPENAI_API_KEY") == "" {
			return nil, fmt.Errorf("oracle provider OPENAI requires OPENAI_API_KEY")
		}
		return openai.NewAdvisor(cfg.Oracle.Model, cfg.Oracle.MaxTokens, cfg.Oracle.Temperature, string(instructions), cfg.HTTPTimeout()), nil
	case "CLAUDE":
		if os.Getenv("CLAUDE_API_KEY") == "" {
			return nil, fmt.Errorf("oracle provider CLAUDE requires CLAUDE_API_KEY")
		}
		return claude.NewAdvisor(cfg.Oracle.Model, cfg.Oracle.MaxTokens, cfg.Oracle.Temperature, string(instructions), cfg.HTTPTimeout()), nil
	case "NOOP":
		return noop.NewAdvisor(), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
}

// buildNewsFeed prefers the SERP API and falls back to scraping Google
// News directly when no key is configured.
func buildNewsFeed(cfg *store.Config) interfaces.NewsFeed {
	if key := os.Getenv("SERPAPI_API_KEY"); key != "" {
		return news.NewSerpClient(key, cfg.News.Query, cfg.News.MaxItems, cfg.HTTPTimeout())
	}
	return news.NewScraper(cfg.News.Query, cfg.News.MaxItems, cfg.HTTPTimeout())
}
