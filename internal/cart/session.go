package cart

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/google/uuid"
)

const (
	storeRemote = "remote"
	storeDevice = "device"
)

// Store persists the full line list of an owner.
type Store interface {
	Load(ctx context.Context, owner Owner) ([]Line, error)
	Save(ctx context.Context, owner Owner, lines []Line) error
}

type metricsRecorder interface {
	IncOperation(op, owner string)
	IncPersistFailure(store string)
	IncLoadFailure(store string)
	ObserveLoad(store string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) IncOperation(string, string)       {}
func (noopMetrics) IncPersistFailure(string)          {}
func (noopMetrics) IncLoadFailure(string)             {}
func (noopMetrics) ObserveLoad(string, time.Duration) {}

// SessionOptions wires a Session to its backing stores.
type SessionOptions struct {
	Remote          Store
	Device          Store
	Policy          MergePolicy
	MaxLineQuantity int
	Logger          *logger.Logger
	Metrics         metricsRecorder
}

// Session is the in-memory cart of a single owner. It reads the owner's
// backing store when the owner is resolved and writes the whole list back
// after every mutation. Store failures never reach the caller: a failed read
// yields an empty cart and a failed write keeps the in-memory change. After a
// failed read the session is stale and never writes until a reload succeeds.
type Session struct {
	mu sync.Mutex

	remote  Store
	device  Store
	policy  MergePolicy
	maxQty  int
	logg    *logger.Logger
	metrics metricsRecorder

	owner      Owner
	hasOwner   bool
	state      State
	lines      []Line
	stale      bool
	generation uint64

	listeners  map[int]func(Snapshot)
	listenerID int
}

// NewSession builds an uninitialized session. Call SwitchOwner before mutating.
func NewSession(opts SessionOptions) *Session {
	policy := opts.Policy
	if policy == "" {
		policy = MergeNone
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	var recorder metricsRecorder = noopMetrics{}
	if opts.Metrics != nil {
		recorder = opts.Metrics
	}
	return &Session{
		remote:    opts.Remote,
		device:    opts.Device,
		policy:    policy,
		maxQty:    opts.MaxLineQuantity,
		logg:      logg,
		metrics:   recorder,
		state:     StateUninitialized,
		lines:     []Line{},
		listeners: make(map[int]func(Snapshot)),
	}
}

// SwitchOwner makes owner the holder of this cart and reloads the lines from
// the owner's store. The previous owner's lines stay in their own store.
func (s *Session) SwitchOwner(ctx context.Context, owner Owner) error {
	if !owner.valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner requires a user or device id")
	}

	s.mu.Lock()
	previous, hadPrevious := s.owner, s.hasOwner
	previousLines := cloneLines(s.lines)
	s.owner = owner
	s.hasOwner = true
	s.state = StateLoading
	s.lines = []Line{}
	s.stale = false
	s.generation++
	gen := s.generation
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, snap)

	ctx = s.logContext(ctx, owner)
	lines, loaded := s.load(ctx, owner)

	// merging into a remote cart that failed to load would overwrite it
	if loaded && s.shouldMerge(previous, hadPrevious, owner) {
		merged, changed := unionLines(lines, previousLines, s.maxQty)
		if changed {
			lines = merged
			s.persist(ctx, owner, lines)
			s.persist(ctx, previous, nil)
			s.logg.Info(ctx, "cart.merged_anonymous_lines")
		}
	}

	s.mu.Lock()
	if s.generation != gen {
		// a later SwitchOwner superseded this load
		s.mu.Unlock()
		return nil
	}
	s.lines = lines
	s.stale = !loaded
	s.state = StateReady
	snap, listeners = s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()
	notify(listeners, snap)
	return nil
}

func (s *Session) shouldMerge(previous Owner, hadPrevious bool, next Owner) bool {
	return s.policy == MergeUnion &&
		hadPrevious &&
		previous.IsAnonymous() &&
		!next.IsAnonymous()
}

// AddLine adds candidate to the cart. If a line for the same product exists
// its quantity grows by candidate.Quantity; otherwise candidate is appended.
// A non-positive quantity behaves like SetQuantity and never creates a line.
func (s *Session) AddLine(ctx context.Context, candidate Line) error {
	if candidate.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if candidate.Quantity <= 0 {
		return s.SetQuantity(ctx, candidate.ProductID, candidate.Quantity)
	}
	if candidate.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if candidate.LineID == uuid.Nil {
		candidate.LineID = uuid.New()
	}

	return s.mutate(ctx, "add", func(lines []Line) ([]Line, bool) {
		if idx := indexOf(lines, candidate.ProductID); idx >= 0 {
			lines[idx].Quantity = clampQuantity(lines[idx].Quantity+candidate.Quantity, s.maxQty)
			return lines, true
		}
		candidate.Quantity = clampQuantity(candidate.Quantity, s.maxQty)
		return append(lines, candidate), true
	})
}

// RemoveLine drops any line for productID. Removing an absent product is a
// no-op and writes nothing.
func (s *Session) RemoveLine(ctx context.Context, productID int64) error {
	return s.mutate(ctx, "remove", func(lines []Line) ([]Line, bool) {
		if indexOf(lines, productID) < 0 {
			return lines, false
		}
		return removeProduct(lines, productID), true
	})
}

// SetQuantity overwrites the quantity of the line for productID. A quantity of
// zero or less removes the line; an absent product is left alone.
func (s *Session) SetQuantity(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return s.RemoveLine(ctx, productID)
	}
	return s.mutate(ctx, "set_quantity", func(lines []Line) ([]Line, bool) {
		idx := indexOf(lines, productID)
		if idx < 0 {
			return lines, false
		}
		next := clampQuantity(qty, s.maxQty)
		if lines[idx].Quantity == next {
			return lines, false
		}
		lines[idx].Quantity = next
		return lines, true
	})
}

// Clear empties the cart.
func (s *Session) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func(lines []Line) ([]Line, bool) {
		return []Line{}, len(lines) > 0
	})
}

func (s *Session) has(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.lines, productID) >= 0
}

func (s *Session) isStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Total is Σ UnitPrice × Quantity over the current lines.
func (s *Session) Total() money.Cents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalOf(s.lines)
}

func (s *Session) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *Session) Owner() Owner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a Snapshot after every state change. The
// returned func unregisters it.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.listenerID++
	id := s.listenerID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) mutate(ctx context.Context, op string, apply func([]Line) ([]Line, bool)) error {
	s.mu.Lock()
	if !s.hasOwner {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session has no owner")
	}
	owner, stale, gen := s.owner, s.stale, s.generation
	s.mu.Unlock()

	ctx = s.logContext(ctx, owner)
	ctx = s.logg.WithField(ctx, "cart_op", op)
	if stale {
		s.reload(ctx, owner, gen)
	}

	s.mu.Lock()
	owner, stale = s.owner, s.stale
	lines, changed := apply(cloneLines(s.lines))
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.lines = lines
	persisted := cloneLines(s.lines)
	snap, listeners := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	s.metrics.IncOperation(op, owner.Kind())
	notify(listeners, snap)

	if stale {
		// the list was built on the empty fallback; saving it would replace the stored cart
		_, name := s.storeFor(owner)
		s.metrics.IncPersistFailure(name)
		s.logg.Warn(s.logg.WithField(ctx, "cart_store", name), "cart.persist_skipped_stale")
		return nil
	}
	s.persist(ctx, owner, persisted)
	return nil
}

// reload retries the read that failed when owner was resolved. On success the
// stored lines replace the fallback view.
func (s *Session) reload(ctx context.Context, owner Owner, gen uint64) {
	lines, loaded := s.load(ctx, owner)
	if !loaded {
		return
	}
	s.mu.Lock()
	if s.generation == gen && s.stale {
		s.lines = lines
		s.stale = false
	}
	s.mu.Unlock()
}

func (s *Session) load(ctx context.Context, owner Owner) ([]Line, bool) {
	store, name := s.storeFor(owner)
	if store == nil {
		return []Line{}, true
	}

	started := time.Now()
	lines, err := store.Load(ctx, owner)
	s.metrics.ObserveLoad(name, time.Since(started))
	if err != nil {
		s.metrics.IncLoadFailure(name)
		s.logg.Error(s.logg.WithField(ctx, "cart_store", name), "cart.load_failed", err)
		return []Line{}, false
	}
	return sanitize(lines, s.maxQty), true
}

func (s *Session) persist(ctx context.Context, owner Owner, lines []Line) {
	store, name := s.storeFor(owner)
	if store == nil {
		return
	}
	if err := store.Save(ctx, owner, lines); err != nil {
		s.metrics.IncPersistFailure(name)
		s.logg.Error(s.logg.WithField(ctx, "cart_store", name), "cart.persist_failed", err)
	}
}

func (s *Session) storeFor(owner Owner) (Store, string) {
	if owner.IsAnonymous() {
		return s.device, storeDevice
	}
	return s.remote, storeRemote
}

func (s *Session) logContext(ctx context.Context, owner Owner) context.Context {
	if owner.IsAnonymous() {
		return s.logg.WithDeviceID(ctx, owner.DeviceID)
	}
	return s.logg.WithUserID(ctx, owner.UserID.String())
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Owner: s.owner,
		State: s.state,
		Lines: cloneLines(s.lines),
		Total: totalOf(s.lines),
	}
}

func (s *Session) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func removeProduct(lines []Line, productID int64) []Line {
	out := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			out = append(out, line)
		}
	}
	return out
}

// sanitize drops non-positive rows and collapses duplicate products, keeping
// the summed quantity within maxQty.
func sanitize(lines []Line, maxQty int) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 || line.ProductID <= 0 {
			continue
		}
		if idx := indexOf(out, line.ProductID); idx >= 0 {
			out[idx].Quantity = clampQuantity(out[idx].Quantity+line.Quantity, maxQty)
			continue
		}
		if line.LineID == uuid.Nil {
			line.LineID = uuid.New()
		}
		line.Quantity = clampQuantity(line.Quantity, maxQty)
		out = append(out, line)
	}
	return out
}
