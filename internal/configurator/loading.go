// Package configurator implements the chair viewer: model loading with
// retries, animated cover changes and the AR request hand-off.
//
// Every type here is driven by a loop.Scheduler and must only be touched from
// the goroutine that ticks it.
package configurator

import (
	"context"
	"fmt"
	"sync"

	"github.com/Faultbox/beanbag/internal/assets"
	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/engine/loop"
	"github.com/Faultbox/beanbag/internal/engine/scene"
	"go.uber.org/zap"
)

// Messages shown by the loading panel.
const (
	msgRetrying = "Loading failed, retrying (%d/%d)..."
	msgFailed   = "Failed to load 3D model. Please reload the viewer."
)

// LoadState is what the loading panel renders.
type LoadState struct {
	Progress   int // 0 to 100
	Loaded     bool
	Error      string
	RetryCount int
	Failed     bool // retries exhausted, only Reload recovers
}

// LoadController fetches the model while showing simulated progress, retrying
// failed attempts after a fixed delay.
type LoadController struct {
	cfg     config.ModelConfig
	sched   loop.Scheduler
	fetcher assets.Fetcher
	log     *zap.Logger

	state LoadState

	progressTimer loop.Handle
	retryTimer    loop.Handle
	settleTimer   loop.Handle

	cancel  context.CancelFunc
	attempt uint64
	closed  bool
	wg      sync.WaitGroup

	// OnChange is called after every state change.
	OnChange func(LoadState)
	// OnLoaded is called once Loaded flips to true.
	OnLoaded func(*scene.Scene)
}

// NewLoadController creates a controller. Nothing happens until StartLoad.
func NewLoadController(cfg config.ModelConfig, sched loop.Scheduler, fetcher assets.Fetcher, log *zap.Logger) *LoadController {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoadController{
		cfg:     cfg,
		sched:   sched,
		fetcher: fetcher,
		log:     log,
	}
}

// State returns the current load state.
func (c *LoadController) State() LoadState {
	return c.state
}

// StartLoad begins one load attempt: progress restarts at zero, the previous
// error is cleared and the fetch runs in the background.
func (c *LoadController) StartLoad() {
	if c.closed {
		return
	}
	c.stop()

	c.state.Progress = 0
	c.state.Error = ""
	c.state.Failed = false
	c.notify()

	c.progressTimer = c.sched.SetInterval(c.cfg.ProgressInterval, c.advanceProgress)

	c.attempt++
	attempt := c.attempt
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	url := c.cfg.URL

	c.log.Debug("loading model",
		zap.String("url", url),
		zap.Int("retry", c.state.RetryCount))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		sc, err := c.fetcher.Fetch(ctx, url)
		c.sched.Post(func() { c.finish(attempt, sc, err) })
	}()
}

// Reload is the manual reload action. It resets the retry budget and starts a
// fresh attempt, and is the only way out of the Failed state.
func (c *LoadController) Reload() {
	if c.closed {
		return
	}
	c.state.RetryCount = 0
	c.state.Loaded = false
	c.StartLoad()
}

// Close cancels every pending timer and the in-flight fetch, then waits for
// the fetch goroutine. The state is never changed after Close.
func (c *LoadController) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.stop()
	c.wg.Wait()
}

// stop cancels timers and the running fetch.
func (c *LoadController) stop() {
	c.sched.Cancel(c.progressTimer)
	c.sched.Cancel(c.retryTimer)
	c.sched.Cancel(c.settleTimer)
	c.progressTimer, c.retryTimer, c.settleTimer = 0, 0, 0
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *LoadController) advanceProgress() {
	if c.state.Progress >= c.cfg.ProgressCap {
		c.sched.Cancel(c.progressTimer)
		c.progressTimer = 0
		return
	}
	c.state.Progress = min(c.state.Progress+c.cfg.ProgressStep, c.cfg.ProgressCap)
	if c.state.Progress >= c.cfg.ProgressCap {
		c.sched.Cancel(c.progressTimer)
		c.progressTimer = 0
	}
	c.notify()
}

// finish runs on the loop with the result of a fetch. Results from superseded
// attempts or arriving after Close are dropped.
func (c *LoadController) finish(attempt uint64, sc *scene.Scene, err error) {
	if c.closed || attempt != c.attempt {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sched.Cancel(c.progressTimer)
	c.progressTimer = 0

	if err != nil {
		c.fail(err)
		return
	}

	c.state.Progress = 100
	c.notify()
	c.settleTimer = c.sched.SetTimeout(c.cfg.SettleDelay, func() {
		c.settleTimer = 0
		c.state.Loaded = true
		c.log.Info("model loaded",
			zap.String("url", c.cfg.URL),
			zap.Int("meshes", len(sc.Meshes())),
			zap.Int("retries", c.state.RetryCount))
		c.notify()
		if c.OnLoaded != nil {
			c.OnLoaded(sc)
		}
	})
}

func (c *LoadController) fail(err error) {
	if c.state.RetryCount < c.cfg.MaxRetries {
		c.state.RetryCount++
		c.state.Error = fmt.Sprintf(msgRetrying, c.state.RetryCount, c.cfg.MaxRetries)
		c.log.Warn("model load failed, retrying",
			zap.String("url", c.cfg.URL),
			zap.Int("retry", c.state.RetryCount),
			zap.Duration("delay", c.cfg.RetryDelay),
			zap.Error(err))
		c.notify()
		c.retryTimer = c.sched.SetTimeout(c.cfg.RetryDelay, func() {
			c.retryTimer = 0
			c.StartLoad()
		})
		return
	}

	c.state.Error = msgFailed
	c.state.Failed = true
	c.log.Error("model load failed",
		zap.String("url", c.cfg.URL),
		zap.Int("retries", c.state.RetryCount),
		zap.Error(err))
	c.notify()
}

func (c *LoadController) notify() {
	if c.OnChange != nil {
		c.OnChange(c.state)
	}
}
