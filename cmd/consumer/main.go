// Command consumer attaches to the region the producer created, waiting
// for it to appear, and prints a consistent snapshot every time the
// version counter moves, until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/shmkv/internal/config"
	"github.com/srediag/shmkv/internal/logger"
	"github.com/srediag/shmkv/pkg/shmkv"
	"github.com/srediag/shmkv/pkg/watch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "consumer:", err)
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

	fmt.Printf("consumer: waiting for region %q\n", cfg.Region)
	store, err := shmkv.OpenWithRetry(ctx, shmkv.Options{Name: cfg.Region},
		backoff.NewExponentialBackOff())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Default.Warnf("close: %v", err)
		}
	}()

	snap := store.Snapshot()
	fmt.Printf("consumer: attached, %s\n", snap)

	wcfg := watch.DefaultConfig()
	wcfg.Interval = cfg.PollInterval
	watcher, err := watch.New(store, wcfg)
	if err != nil {
		return err
	}
	watcher.Subscribe(func(ev watch.Event) {
		fmt.Printf("consumer: store updated (version %d, entries %d)\n%s\n",
			ev.Version, ev.EntryCount, store.Snapshot())
	})

	fmt.Println("consumer: watching for updates; press Ctrl+C to exit")
	err = watcher.Run(ctx)
	fmt.Println("\nconsumer: shutting down")
	return err
}
