// Package tasks runs fire-and-forget background work: confirmation mails,
// featured speaker detection and announcement refreshes.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"conference-webapp/cache"
	"conference-webapp/config"
	"conference-webapp/metrics"
	"conference-webapp/model"
)

const (
	TaskConfirmationEmail   = "send_confirmation_email"
	TaskFeaturedSpeaker     = "set_featured_speaker"
	TaskRefreshAnnouncement = "refresh_announcement"

	DefaultQueueSize = 256
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes mails to the log instead of delivering them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Logger.Info("mail", "to", to, "subject", subject, "body", body)
	return nil
}

type task struct {
	name string
	run  func(ctx context.Context) error
}

type Dispatcher struct {
	cache   *cache.Cache
	mailer  Mailer
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan task
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewDispatcher(c *cache.Cache, mailer Mailer, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	return &Dispatcher{
		cache:   c,
		mailer:  mailer,
		logger:  logger,
		metrics: m,
		queue:   make(chan task, DefaultQueueSize),
		done:    make(chan struct{}),
	}
}

// Start runs the worker and, when refresh is positive, a periodic
// announcement refresh. Stop ends both.
func (d *Dispatcher) Start(ctx context.Context, refresh time.Duration) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for t := range d.queue {
			err := t.run(ctx)
			d.metrics.Task(t.name, err)
			if err != nil {
				d.logger.Error("task failed", "task", t.name, "err", err)
			}
		}
	}()

	if refresh <= 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.RefreshAnnouncement()
			case <-d.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop drains queued tasks and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.done)
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(t task) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- t:
	default:
		d.logger.Warn("task queue full, dropping task", "task", t.name)
		d.metrics.Task(t.name, fmt.Errorf("dropped"))
	}
}

func (d *Dispatcher) ConferenceCreated(organizer model.Identity, conf model.ConferenceView) {
	if organizer.Email == "" {
		return
	}
	d.enqueue(task{name: TaskConfirmationEmail, run: func(ctx context.Context) error {
		body := fmt.Sprintf("Hi, you have created the following conference:\r\n\r\n%s (%s)", conf.Name, conf.WebsafeKey)
		return d.mailer.Send(ctx, organizer.Email, "You created a new Conference!", body)
	}})
}

func (d *Dispatcher) SessionCreated(conferenceKey model.Key, speaker string) {
	d.enqueue(task{name: TaskFeaturedSpeaker, run: func(ctx context.Context) error {
		_, err := d.cache.CacheFeaturedSpeaker(ctx, conferenceKey, speaker)
		return err
	}})
}

// SeatsChanged matches registration.Coordinator's hook.
func (d *Dispatcher) SeatsChanged(model.Key) {
	d.RefreshAnnouncement()
}

func (d *Dispatcher) RefreshAnnouncement() {
	d.enqueue(task{name: TaskRefreshAnnouncement, run: func(ctx context.Context) error {
		_, err := d.cache.RefreshAnnouncement(ctx)
		return err
	}})
}
