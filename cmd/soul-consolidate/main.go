// Command soul-consolidate runs one consolidation pass and exits. It is
// intended to be scheduled (cron, systemd timer); the file lock inside the
// job makes overlapping schedules safe.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/consolidation"
	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/soul"
	"github.com/soulmesh/soulmem-go/pkg/stores/webhook"
)

func main() {
	var (
		lockPath = flag.String("lock", consolidation.DefaultLockPath, "single-instance lock file")
		lookback = flag.Duration("lookback", consolidation.DefaultLookback, "how far back to read signals")
		maxWall  = flag.Duration("max-runtime", 10*time.Minute, "hard wall-clock cap for the run")
	)
	flag.Parse()

	cfg, err := soul.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	emb, err := soul.NewEmbedderProvider(cfg.Embedder)
	if err != nil {
		log.Fatalf("embedder: %v", err)
	}
	st, err := soul.OpenStores(cfg, emb)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer st.Docs.Close()

	provider, err := soul.NewLLMProvider(cfg.LLM)
	if err != nil {
		log.Fatalf("llm provider: %v", err)
	}
	if provider != nil {
		defer provider.Close()
	}

	opts := []consolidation.Option{
		consolidation.WithLockPath(*lockPath),
		consolidation.WithLookback(*lookback),
		consolidation.WithSink(webhook.New(cfg.WebhookURL)),
	}
	if st.LongTerm != nil {
		opts = append(opts, consolidation.WithLongTermStore(st.LongTerm))
	}
	if provider != nil {
		opts = append(opts, consolidation.WithProvider(provider))
	}
	job := consolidation.NewJob(st.Docs, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), *maxWall)
	defer cancel()

	// A stuck store must not leave a zombie process behind the lock.
	force := time.AfterFunc(*maxWall+time.Minute, func() {
		log.Printf("wall-clock cap exceeded, forcing exit")
		os.Exit(2)
	})
	defer force.Stop()

	if err := job.Run(ctx); err != nil {
		if errors.Is(err, core.ErrJobLocked) {
			log.Printf("another instance is consolidating, nothing to do")
			return
		}
		log.Fatalf("consolidation failed: %v", err)
	}
}
