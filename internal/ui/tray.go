package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/heimdex/heimdex-splitter/internal/jobs"
)

const refreshInterval = 2 * time.Second

type Tray struct {
	store  jobs.Store
	addr   string
	logger *slog.Logger

	statusItem *systray.MenuItem
	addrItem   *systray.MenuItem

	mu   sync.Mutex
	done chan struct{}

	onSweep func() int
	onQuit  func()
}

type TrayConfig struct {
	Store  jobs.Store
	Addr   string
	Logger *slog.Logger
	// OnSweep removes finished jobs and returns how many were removed.
	OnSweep func() int
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		store:   cfg.Store,
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		onSweep: cfg.OnSweep,
		onQuit:  cfg.OnQuit,
		done:    make(chan struct{}),
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Splitter")
	systray.SetTooltip("Heimdex Splitter")

	t.statusItem = systray.AddMenuItem(statusTitle(0, 0), "Current job status")
	t.statusItem.Disable()

	t.addrItem = systray.AddMenuItem("API: http://"+t.addr, "HTTP API address")
	t.addrItem.Disable()

	systray.AddSeparator()

	sweepItem := systray.AddMenuItem("Remove Finished Jobs", "Delete finished jobs and their clips")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Splitter")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-sweepItem.ClickedCh:
				t.handleSweep()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.done)
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tray) refresh() {
	active := jobs.CountActive(t.store)
	total := len(t.store.List())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusItem.SetTitle(statusTitle(active, total))
}

func (t *Tray) handleSweep() {
	if t.onSweep == nil {
		return
	}
	removed := t.onSweep()
	t.logger.Info("finished jobs removed from tray", "removed", removed)
	t.refresh()
}

func (t *Tray) Quit() {
	systray.Quit()
}

func statusTitle(active, total int) string {
	if active == 0 {
		return fmt.Sprintf("Status: Idle (%d jobs)", total)
	}
	return fmt.Sprintf("Status: Splitting %d of %d jobs", active, total)
}
