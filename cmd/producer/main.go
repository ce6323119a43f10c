// Command producer creates the shared region, seeds it with entries and
// keeps updating a heartbeat key until interrupted, then tears the region
// down and unlinks it from the namespace.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/shmkv/internal/config"
	"github.com/srediag/shmkv/internal/logger"
	"github.com/srediag/shmkv/pkg/shmkv"
)

var seed = []struct {
	key, value string
}{
	{"username", "john_doe"},
	{"email", "john@example.com"},
	{"age", "25"},
	{"city", "New York"},
	{"status", "active"},
	{"score", "100"},
	{"level", "5"},
	{"role", "admin"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "producer:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := shmkv.Create(ctx, shmkv.Options{Name: cfg.Region})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Default.Warnf("close: %v", err)
		}
		// Creator removes the name once it expects no further attachers.
		if err := shmkv.Unlink(cfg.Region); err != nil {
			logger.Default.Warnf("unlink: %v", err)
		} else {
			fmt.Println("producer: region unlinked")
		}
	}()

	if cfg.HealthAddr != "" {
		srv := healthServer(cfg, store)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Default.Warnf("health listener: %v", err)
			}
		}()
		// Registered after the store defer so the listener stops first
		// and no scrape can land on a closed handle.
		defer func() {
			if err := srv.Close(); err != nil {
				logger.Default.Warnf("health shutdown: %v", err)
			}
		}()
	}

	fmt.Println("producer: region created, writing seed pairs")
	for _, p := range seed {
		if err := store.Set(p.key, p.value); err != nil {
			return fmt.Errorf("set %q: %w", p.key, err)
		}
		fmt.Printf("producer: set %q = %q\n", p.key, p.value)
	}
	fmt.Printf("producer: version %d, entries %d; press Ctrl+C to exit\n",
		store.Version(), store.EntryCount())

	// Keep mutating so attached consumers have version changes to observe.
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	beats := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nproducer: shutting down")
			return nil
		case <-ticker.C:
			beats++
			if err := store.Set("score", strconv.Itoa(100+beats)); err != nil {
				logger.Default.Warnf("heartbeat set: %v", err)
			}
		}
	}
}

func healthServer(cfg config.Config, store *shmkv.Store) *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(shmkv.NewCollector(store))

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(200))
	health.AddReadinessCheck("region-attached", func() error {
		if shmkv.Attached(cfg.Region) == 0 {
			return fmt.Errorf("no handle on region %q", cfg.Region)
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/live", http.HandlerFunc(health.LiveEndpoint))
	mux.Handle("/ready", http.HandlerFunc(health.ReadyEndpoint))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{Addr: cfg.HealthAddr, Handler: mux}
}
