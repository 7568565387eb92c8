// Package session owns the in-memory ledger of one operator session. It
// applies mutations immediately, writes them back to the store after a quiet
// period, and replaces its state with snapshots pushed by the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/bentoledger/internal/events"
	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/metrics"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/chrisdamba/bentoledger/internal/repositories"
	"github.com/sirupsen/logrus"
)

const defaultFlushTimeout = 10 * time.Second

// Gate reports whether mutations are currently allowed.
type Gate interface {
	Authenticated() bool
}

// GateFunc adapts a plain func to Gate.
type GateFunc func() bool

func (f GateFunc) Authenticated() bool { return f() }

type Options struct {
	Debounce     time.Duration
	FlushTimeout time.Duration
	InitialNames []string
	DefaultMenu  []models.MenuItem
	Location     *time.Location
	Publisher    events.Publisher
	Topic        string
	Metrics      *metrics.Metrics
	Log          *logrus.Entry
	Now          func() time.Time

	// OnPersistenceError is called after every failed background flush.
	OnPersistenceError func(error)
}

func (o *Options) setDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = models.DefaultDebounce
	}
	if o.FlushTimeout <= 0 {
		o.FlushTimeout = defaultFlushTimeout
	}
	if o.InitialNames == nil {
		o.InitialNames = models.DefaultInitialNames
	}
	if len(o.DefaultMenu) == 0 {
		o.DefaultMenu = models.DefaultMenu
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Publisher == nil {
		o.Publisher = events.NopPublisher{}
	}
	if o.Topic == "" {
		o.Topic = models.TopicLedgerEvents
	}
	if o.Log == nil {
		o.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type Session struct {
	store repositories.Store
	gate  Gate
	opts  Options
	log   *logrus.Entry

	mu     sync.Mutex
	menu   ledger.Menu
	roster ledger.Roster
	// A document is dirty while its version is ahead of the saved version.
	menuVersion   uint64
	menuSaved     uint64
	rosterVersion uint64
	rosterSaved   uint64
	// Own writes whose change notification has not come back yet, and the
	// fingerprint of the body most recently sent to the store. Snapshots are
	// dropped while a document has writes in flight.
	menuInFlight    int
	rosterInFlight  int
	menuCommitted   string
	rosterCommitted string
	lastErr         error
	closed          bool

	// writeMu serializes store writes so an older snapshot never lands
	// after a newer one.
	writeMu     sync.Mutex
	debouncer   *debouncer
	unsubscribe repositories.Unsubscribe
}

// Open loads both documents, falling back to the default menu and a default
// roster when the store has none, and subscribes to the change feed.
func Open(ctx context.Context, store repositories.Store, gate Gate, opts Options) (*Session, error) {
	opts.setDefaults()
	s := &Session{
		store: store,
		gate:  gate,
		opts:  opts,
		log:   opts.Log,
	}
	s.debouncer = newDebouncer(opts.Debounce, s.backgroundFlush)

	menu, err := store.LoadMenu(ctx)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		menu = ledger.Menu(opts.DefaultMenu).Clone()
	case err != nil:
		return nil, &models.PersistenceError{Op: "load", Document: models.DocumentMenu, Err: err}
	}
	s.menu = menu

	roster, err := store.LoadRoster(ctx)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		roster = ledger.DefaultRoster(opts.InitialNames)
	case err != nil:
		return nil, &models.PersistenceError{Op: "load", Document: models.DocumentRoster, Err: err}
	}
	s.roster = roster

	s.unsubscribe, err = store.Subscribe(ctx, s.applyMenuSnapshot, s.applyRosterSnapshot)
	if err != nil {
		return nil, fmt.Errorf("subscribe to store changes: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"menu_items": len(s.menu),
		"users":      len(s.roster),
	}).Debug("session opened")
	return s, nil
}

func (s *Session) applyMenuSnapshot(items []models.MenuItem) {
	s.opts.Metrics.ObserveSnapshot(models.DocumentMenu)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !settleEcho(&s.menuInFlight, s.menuCommitted, func() string { return menuFingerprint(items) }) {
		return
	}
	if s.menuVersion != s.menuSaved {
		return
	}
	s.menu = items
}

func (s *Session) applyRosterSnapshot(accounts []models.UserAccount) {
	s.opts.Metrics.ObserveSnapshot(models.DocumentRoster)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !settleEcho(&s.rosterInFlight, s.rosterCommitted, func() string { return rosterFingerprint(accounts) }) {
		return
	}
	if s.rosterVersion != s.rosterSaved {
		return
	}
	s.roster = accounts
}

// settleEcho accounts for one snapshot against the writes still in flight
// and reports whether the snapshot may replace memory. While writes are in
// flight every snapshot is one of our own notifications, possibly for an
// older write, so it is dropped. A snapshot matching the last body we sent
// means the store has caught up, even if earlier notifications were lost.
func settleEcho(inFlight *int, committed string, fingerprint func() string) bool {
	if *inFlight == 0 {
		return true
	}
	if fingerprint() == committed {
		*inFlight = 0
	} else {
		*inFlight--
	}
	return false
}

func menuFingerprint(items []models.MenuItem) string {
	body, err := repositories.EncodeMenu(items)
	if err != nil {
		return ""
	}
	return string(body)
}

// rosterFingerprint encodes normalized copies so a nil and an empty
// selections map compare equal.
func rosterFingerprint(accounts []models.UserAccount) string {
	normalized := make([]models.UserAccount, len(accounts))
	for i, account := range accounts {
		normalized[i] = account.Clone()
		ledger.Normalize(&normalized[i])
	}
	body, err := repositories.EncodeRoster(normalized)
	if err != nil {
		return ""
	}
	return string(body)
}

func (s *Session) checkWritable() error {
	if s.closed {
		return errors.New("session closed")
	}
	if !s.gate.Authenticated() {
		return models.ErrUnauthenticated
	}
	return nil
}

// updateRoster runs fn against the live roster and schedules a flush when fn
// reports a change.
func (s *Session) updateRoster(fn func(*ledger.Roster) (bool, error)) error {
	s.mu.Lock()
	if err := s.checkWritable(); err != nil {
		s.mu.Unlock()
		return err
	}
	changed, err := fn(&s.roster)
	if err != nil || !changed {
		s.mu.Unlock()
		return err
	}
	s.rosterVersion++
	s.mu.Unlock()

	s.debouncer.Trigger()
	return nil
}

func (s *Session) updateMenu(fn func(*ledger.Menu) error) error {
	s.mu.Lock()
	if err := s.checkWritable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := fn(&s.menu); err != nil {
		s.mu.Unlock()
		return err
	}
	s.menuVersion++
	s.mu.Unlock()

	s.debouncer.Trigger()
	return nil
}

func (s *Session) publish(event models.LedgerEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.FlushTimeout)
	defer cancel()
	err := s.opts.Publisher.Publish(ctx, s.opts.Topic, event)
	s.opts.Metrics.ObservePublish(err)
	if err != nil {
		s.log.WithError(err).WithField("type", event.Type).Warn("publish ledger event")
	}
}

func (s *Session) newEvent(eventType string) models.LedgerEvent {
	return events.NewEvent(eventType, s.opts.Now())
}

func (s *Session) AddUser(name string) error {
	err := s.updateRoster(func(r *ledger.Roster) (bool, error) {
		return true, r.AddUser(name)
	})
	if err != nil {
		return err
	}
	event := s.newEvent(models.EventUserAdded)
	event.UserName = name
	s.publish(event)
	return nil
}

// RenameUser moves balance and selections to newName. Renaming to the same
// name does nothing.
func (s *Session) RenameUser(oldName, newName string) error {
	var changed bool
	err := s.updateRoster(func(r *ledger.Roster) (bool, error) {
		if err := r.RenameUser(oldName, newName); err != nil {
			return false, err
		}
		changed = oldName != newName
		return changed, nil
	})
	if err != nil || !changed {
		return err
	}
	event := s.newEvent(models.EventUserRenamed)
	event.UserName = newName
	event.Previous = oldName
	s.publish(event)
	return nil
}

// RemoveUser deletes the account with its balance and history.
func (s *Session) RemoveUser(name string) error {
	var balance int64
	err := s.updateRoster(func(r *ledger.Roster) (bool, error) {
		user, err := r.Find(name)
		if err != nil {
			return false, err
		}
		balance = user.Balance
		return true, r.RemoveUser(name)
	})
	if err != nil {
		return err
	}
	event := s.newEvent(models.EventUserRemoved)
	event.UserName = name
	event.Balance = balance
	s.publish(event)
	return nil
}

func (s *Session) validateSelection(menu ledger.Menu, date models.DateKey, itemID string, n int) error {
	if _, err := ledger.ParseDateKey(string(date), s.opts.Location); err != nil {
		return fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	if n > 0 {
		if _, ok := menu.Lookup(itemID); !ok {
			return fmt.Errorf("%w: %s", models.ErrMenuItemNotFound, itemID)
		}
	}
	return nil
}

// SetQuantity stores n of itemID for the user on date. Positive quantities
// need an item on the menu; zero clears any item, including orphans.
func (s *Session) SetQuantity(name string, date models.DateKey, itemID string, n int) error {
	return s.updateRoster(func(r *ledger.Roster) (bool, error) {
		user, err := r.Find(name)
		if err != nil {
			return false, err
		}
		if err := s.validateSelection(s.menu, date, itemID, n); err != nil {
			return false, err
		}
		ledger.SetQuantity(user, date, itemID, n)
		return true, nil
	})
}

func (s *Session) AdjustQuantity(name string, date models.DateKey, itemID string, delta int) error {
	return s.updateRoster(func(r *ledger.Roster) (bool, error) {
		user, err := r.Find(name)
		if err != nil {
			return false, err
		}
		next := ledger.Quantity(*user, date, itemID) + delta
		if err := s.validateSelection(s.menu, date, itemID, next); err != nil {
			return false, err
		}
		ledger.AdjustQuantity(user, date, itemID, delta)
		return true, nil
	})
}

// Deposit applies a deposit entry in the given mode and returns the new
// balance. A zero delta changes nothing.
func (s *Session) Deposit(name, mode string, amount int64) (int64, error) {
	var delta, balance int64
	err := s.updateRoster(func(r *ledger.Roster) (bool, error) {
		user, err := r.Find(name)
		if err != nil {
			return false, err
		}
		delta, err = ledger.ApplyDeposit(user, mode, amount)
		if err != nil {
			return false, err
		}
		balance = user.Balance
		return delta != 0, nil
	})
	if err != nil || delta == 0 {
		return balance, err
	}
	event := s.newEvent(models.EventBalanceAdjusted)
	event.UserName = name
	event.Amount = delta
	event.Balance = balance
	s.publish(event)
	return balance, nil
}

func (s *Session) AddMenuItem(item models.MenuItem) (models.MenuItem, error) {
	var added models.MenuItem
	err := s.updateMenu(func(m *ledger.Menu) error {
		var err error
		added, err = m.Add(item)
		return err
	})
	if err != nil {
		return models.MenuItem{}, err
	}
	s.publishMenuUpdate()
	return added, nil
}

func (s *Session) UpdateMenuItem(item models.MenuItem) error {
	if err := s.updateMenu(func(m *ledger.Menu) error { return m.Update(item) }); err != nil {
		return err
	}
	s.publishMenuUpdate()
	return nil
}

// RemoveMenuItem drops the item. Selections that reference it stay and are
// priced at zero from then on.
func (s *Session) RemoveMenuItem(id string) error {
	if err := s.updateMenu(func(m *ledger.Menu) error { return m.Remove(id) }); err != nil {
		return err
	}
	s.publishMenuUpdate()
	return nil
}

func (s *Session) publishMenuUpdate() {
	s.publish(s.newEvent(models.EventMenuUpdated))
}

// SettleWeek deducts the week's spend from every balance and clears the
// week's selections, committed as one roster write. When the write fails the
// in-memory roster is untouched.
func (s *Session) SettleWeek(ctx context.Context, weekStart time.Time) (ledger.SettlementReport, error) {
	week := ledger.WeekDates(weekStart.In(s.opts.Location))

	s.writeMu.Lock()
	s.mu.Lock()
	if err := s.checkWritable(); err != nil {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return ledger.SettlementReport{}, err
	}

	settled, report := ledger.SettleRoster(s.roster, week, s.menu)
	s.rosterInFlight++
	s.rosterCommitted = rosterFingerprint(settled)
	err := s.store.SaveRoster(ctx, settled)
	s.opts.Metrics.ObserveFlush(models.DocumentRoster, err)
	if err != nil {
		s.rosterInFlight--
		s.mu.Unlock()
		s.writeMu.Unlock()
		perr := &models.PersistenceError{Op: "settle", Document: models.DocumentRoster, Err: err}
		s.log.WithError(err).WithField("week", week.Start()).Error("settlement not committed")
		return ledger.SettlementReport{}, perr
	}

	s.roster = settled
	s.rosterSaved = s.rosterVersion
	menuDirty := s.menuVersion != s.menuSaved
	s.mu.Unlock()
	s.writeMu.Unlock()

	if !menuDirty {
		s.debouncer.Cancel()
	}

	s.opts.Metrics.ObserveSettlement(report.TotalSpend, report.OrphanedReferences)
	s.log.WithFields(logrus.Fields{
		"week":        week.String(),
		"total_spend": report.TotalSpend,
		"users":       len(report.Accounts),
		"orphans":     report.OrphanedReferences,
	}).Info("week settled")

	for _, account := range report.Accounts {
		event := s.newEvent(models.EventWeekSettled)
		event.UserName = account.UserName
		event.WeekStart = report.WeekStart
		event.Amount = account.Spend
		event.Balance = account.NewBalance
		event.Orphans = account.OrphanedReferences
		s.publish(event)
	}
	summary := s.newEvent(models.EventRosterSettled)
	summary.WeekStart = report.WeekStart
	summary.Amount = report.TotalSpend
	summary.Users = len(report.Accounts)
	summary.Orphans = report.OrphanedReferences
	s.publish(summary)

	return report, nil
}

// Flush writes every dirty document now.
func (s *Session) Flush(ctx context.Context) error {
	s.debouncer.Cancel()
	return s.flush(ctx)
}

func (s *Session) backgroundFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.FlushTimeout)
	defer cancel()
	if err := s.flush(ctx); err != nil {
		if hook := s.opts.OnPersistenceError; hook != nil {
			hook(err)
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			s.debouncer.Trigger()
		}
	}
}

func (s *Session) flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	var (
		menu          ledger.Menu
		roster        ledger.Roster
		menuVersion   = s.menuVersion
		rosterVersion = s.rosterVersion
		menuDirty     = s.menuVersion != s.menuSaved
		rosterDirty   = s.rosterVersion != s.rosterSaved
	)
	if menuDirty {
		menu = s.menu.Clone()
		s.menuInFlight++
		s.menuCommitted = menuFingerprint(menu)
	}
	if rosterDirty {
		roster = s.roster.Clone()
		s.rosterInFlight++
		s.rosterCommitted = rosterFingerprint(roster)
	}
	s.mu.Unlock()

	var errs []error
	if rosterDirty {
		if err := s.save(ctx, models.DocumentRoster, func() error { return s.store.SaveRoster(ctx, roster) }); err != nil {
			errs = append(errs, err)
			s.mu.Lock()
			s.rosterInFlight--
			s.mu.Unlock()
		} else {
			s.mu.Lock()
			s.rosterSaved = rosterVersion
			s.mu.Unlock()
		}
	}
	if menuDirty {
		if err := s.save(ctx, models.DocumentMenu, func() error { return s.store.SaveMenu(ctx, menu) }); err != nil {
			errs = append(errs, err)
			s.mu.Lock()
			s.menuInFlight--
			s.mu.Unlock()
		} else {
			s.mu.Lock()
			s.menuSaved = menuVersion
			s.mu.Unlock()
		}
	}
	return errors.Join(errs...)
}

func (s *Session) save(ctx context.Context, document string, write func() error) error {
	err := write()
	s.opts.Metrics.ObserveFlush(document, err)
	if err != nil {
		perr := &models.PersistenceError{Op: "save", Document: document, Err: err}
		s.log.WithError(err).WithField("document", document).Error("flush failed, will retry")
		s.mu.Lock()
		s.lastErr = perr
		s.mu.Unlock()
		return perr
	}
	s.log.WithField("document", document).Debug("flushed")
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// LastError is the most recent flush failure, cleared by the next success.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Pending reports whether local edits have not been written yet.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menuVersion != s.menuSaved || s.rosterVersion != s.rosterSaved
}

func (s *Session) Menu() ledger.Menu {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menu.Clone()
}

func (s *Session) Roster() ledger.Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.Clone()
}

func (s *Session) Account(name string) (models.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.roster.Find(name)
	if err != nil {
		return models.UserAccount{}, err
	}
	return user.Clone(), nil
}

// Week returns the Monday..Friday window containing t in the session zone.
func (s *Session) Week(t time.Time) ledger.Week {
	return ledger.WeekDates(t.In(s.opts.Location))
}

func (s *Session) Report(weekStart time.Time) ledger.WeeklyReport {
	week := s.Week(weekStart)
	s.mu.Lock()
	defer s.mu.Unlock()
	report := ledger.BuildWeeklyReport(s.roster.Clone(), week, s.menu.Clone())
	s.opts.Metrics.SetOrphanedReferences(report.OrphanedReferences)
	return report
}

// Close stops the change feed. A flush still waiting on the debounce timer is
// dropped; call Flush first to keep it.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return nil
}
