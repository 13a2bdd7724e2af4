// ABOUTME: Dashboard aggregator for the landing screen
// ABOUTME: Loads the precomputed stats bundle and runs quick-create shortcuts
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/salesdesk/entities"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/listing"
	"github.com/harperreed/salesdesk/models"
	"github.com/harperreed/salesdesk/notify"
)

// QuickActions are the collections offered as create shortcuts, in order.
var QuickActions = []string{"leads", "tasks", "outlets", "activities"}

var ErrNoQuickAction = errors.New("no quick action for that entity")

// Source loads the dashboard bundle. *api.Client satisfies it.
type Source interface {
	DashboardStats(ctx context.Context) (models.DashboardBundle, error)
}

// Pages finds the entity page a quick action creates through.
type Pages interface {
	Get(name string) (entities.Page, bool)
}

type Aggregator struct {
	src      Source
	pages    Pages
	notifier notify.Notifier
	logger   *log.Logger

	mu      sync.RWMutex
	bundle  models.DashboardBundle
	issued  uint64
	loading bool
	err     error
}

func New(src Source, pages Pages, notifier notify.Notifier, logger *log.Logger) *Aggregator {
	return &Aggregator{
		src:      src,
		pages:    pages,
		notifier: notifier,
		logger:   logger,
		bundle:   models.DefaultDashboard(),
	}
}

func (a *Aggregator) Bundle() models.DashboardBundle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bundle
}

func (a *Aggregator) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

func (a *Aggregator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Refresh loads the bundle. On failure the zeroed defaults are shown and a
// notice raised instead of blocking the screen. Only the most recently
// started refresh lands; older ones return listing.ErrSuperseded.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.mu.Lock()
	a.issued++
	seq := a.issued
	a.loading = true
	a.mu.Unlock()

	bundle, err := a.src.DashboardStats(ctx)

	a.mu.Lock()
	if seq != a.issued {
		a.mu.Unlock()
		a.logger.Debug("dropping stale dashboard response", "seq", seq, "latest", a.issued)
		return listing.ErrSuperseded
	}
	a.loading = false
	a.err = err
	if err != nil {
		a.bundle = models.DefaultDashboard()
	} else {
		a.bundle = normalize(bundle)
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Error("failed to load dashboard", "err", err)
		a.notifier.Notify(notify.Errorf(err, "Failed to load dashboard"))
		return err
	}
	return nil
}

func normalize(b models.DashboardBundle) models.DashboardBundle {
	if b.Pipeline == nil {
		b.Pipeline = []models.PipelineStage{}
	}
	if b.RecentActivities == nil {
		b.RecentActivities = []models.RecentActivity{}
	}
	if b.Monthly == nil {
		b.Monthly = []models.MonthlyPoint{}
	}
	return b
}

func (a *Aggregator) page(entity string) (entities.Page, error) {
	p, ok := a.pages.Get(entity)
	if !ok || !slices.Contains(QuickActions, p.Name()) {
		return nil, fmt.Errorf("%w: %s", ErrNoQuickAction, entity)
	}
	return p, nil
}

// QuickForm opens the same add form the entity's own screen uses.
func (a *Aggregator) QuickForm(entity string) (*forms.Form, error) {
	p, err := a.page(entity)
	if err != nil {
		return nil, err
	}
	return p.AddForm(), nil
}

// QuickCreate submits an add form through its entity page, then reloads the
// dashboard so the new record shows in the counts.
func (a *Aggregator) QuickCreate(ctx context.Context, f *forms.Form) error {
	p, err := a.page(f.Schema().Entity)
	if err != nil {
		return err
	}
	if err := p.Submit(ctx, f); err != nil {
		return err
	}
	f.Reset()
	if err := a.Refresh(ctx); err != nil && !errors.Is(err, listing.ErrSuperseded) {
		return err
	}
	return nil
}
