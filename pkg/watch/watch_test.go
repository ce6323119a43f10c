package watch

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/shmkv/pkg/shmkv"
)

type WatchTestSuite struct {
	suite.Suite
	name   string
	store  *shmkv.Store
	cancel context.CancelFunc
}

func (s *WatchTestSuite) SetupTest() {
	s.name = fmt.Sprintf("shmkv_watch_test_%d", os.Getpid())
	_ = shmkv.Unlink(s.name)
	var err error
	s.store, err = shmkv.Create(context.Background(), shmkv.Options{Name: s.name})
	s.Require().NoError(err)
}

func (s *WatchTestSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	_ = s.store.Close()
	s.Require().NoError(shmkv.Unlink(s.name))
}

func (s *WatchTestSuite) startWatcher(cfg Config) (*Watcher, chan Event) {
	w, err := New(s.store, cfg)
	s.Require().NoError(err)
	events := make(chan Event, 64)
	w.Subscribe(func(ev Event) { events <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = w.Run(ctx) }()
	return w, events
}

func (s *WatchTestSuite) TestVerifyConfig() {
	s.Require().NoError(VerifyConfig(DefaultConfig()))

	cfg := DefaultConfig()
	cfg.Interval = 0
	s.Require().Error(VerifyConfig(cfg))

	cfg = DefaultConfig()
	cfg.QueueCap = 0
	s.Require().Error(VerifyConfig(cfg))

	cfg = DefaultConfig()
	cfg.Workers = 0
	s.Require().Error(VerifyConfig(cfg))
}

func (s *WatchTestSuite) TestObservesMutation() {
	cfg := DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	_, events := s.startWatcher(cfg)

	s.Require().NoError(s.store.Set("k", "v"))

	select {
	case ev := <-events:
		s.Require().EqualValues(1, ev.Version)
		s.Require().EqualValues(1, ev.EntryCount)
	case <-time.After(5 * time.Second):
		s.FailNow("no event observed")
	}
}

func (s *WatchTestSuite) TestQuietStoreEmitsNothing() {
	cfg := DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	_, events := s.startWatcher(cfg)

	select {
	case ev := <-events:
		s.FailNowf("unexpected event", "%+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func (s *WatchTestSuite) TestFullQueueDoesNotLoseFinalChange() {
	cfg := Config{
		Interval: 5 * time.Millisecond,
		QueueCap: 1,
		Workers:  1,
	}
	w, err := New(s.store, cfg)
	s.Require().NoError(err)
	events := make(chan Event, 64)
	release := make(chan struct{})
	w.Subscribe(func(ev Event) {
		events <- ev
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = w.Run(ctx) }()

	// First mutation lands in the handler, which now blocks. The worker,
	// the dispatcher's in-flight submit and the one ring slot fill up
	// behind it; every later poll finds the ring full.
	s.Require().NoError(s.store.Set("k", "v0"))
	select {
	case <-events:
	case <-time.After(5 * time.Second):
		s.FailNow("no initial event observed")
	}
	for i := 1; i <= 8; i++ {
		s.Require().NoError(s.store.Set("k", fmt.Sprintf("v%d", i)))
		time.Sleep(3 * cfg.Interval)
	}
	final := s.store.Version()
	close(release)

	// Backpressure may coalesce intermediate versions, but the last
	// change must still come through once the handler drains.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Version == final {
				return
			}
		case <-deadline:
			s.FailNowf("final change never delivered", "want version %d", final)
		}
	}
}

func (s *WatchTestSuite) TestCooperativeShutdown() {
	cfg := DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	w, err := New(s.store, cfg)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		s.Require().NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("watcher did not stop")
	}
	// Close after Run's own Close must be a no-op.
	w.Close()
}

func TestWatchTestSuite(t *testing.T) {
	suite.Run(t, new(WatchTestSuite))
}
