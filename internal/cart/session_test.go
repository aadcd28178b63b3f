package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	carts    map[Owner][]Line
	loadErr  error
	saveErr  error
	saves    int
	lastSave []Line
}

func newMemoryStore() *memoryStore {
	return &memoryStore{carts: map[Owner][]Line{}}
}

func (m *memoryStore) Load(_ context.Context, owner Owner) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return cloneLines(m.carts[owner]), nil
}

func (m *memoryStore) Save(_ context.Context, owner Owner, lines []Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.lastSave = cloneLines(lines)
	if len(lines) == 0 {
		delete(m.carts, owner)
		return nil
	}
	m.carts[owner] = cloneLines(lines)
	return nil
}

func (m *memoryStore) stored(owner Owner) []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLines(m.carts[owner])
}

type countingMetrics struct {
	noopMetrics
	ops             []string
	persistFailures int
	loadFailures    int
}

func (c *countingMetrics) IncOperation(op, _ string) { c.ops = append(c.ops, op) }
func (c *countingMetrics) IncPersistFailure(string)  { c.persistFailures++ }
func (c *countingMetrics) IncLoadFailure(string)     { c.loadFailures++ }

func line(productID int64, price money.Cents, qty int) Line {
	return Line{ProductID: productID, Name: "producto", UnitPrice: price, Quantity: qty}
}

func readySession(t *testing.T, opts SessionOptions, owner Owner) *Session {
	t.Helper()
	if opts.Remote == nil {
		opts.Remote = newMemoryStore()
	}
	if opts.Device == nil {
		opts.Device = newMemoryStore()
	}
	s := NewSession(opts)
	require.NoError(t, s.SwitchOwner(context.Background(), owner))
	require.Equal(t, StateReady, s.State())
	return s
}

func TestAddLineIsAdditive(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))

	require.NoError(t, s.AddLine(ctx, line(7, 1000, 2)))
	require.NoError(t, s.AddLine(ctx, line(7, 1000, 3)))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.NotEqual(t, uuid.Nil, lines[0].LineID)
}

func TestDoubleAddOfSameProduct(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))

	require.NoError(t, s.AddLine(ctx, line(1, 59999, 1)))
	require.NoError(t, s.AddLine(ctx, line(1, 59999, 1)))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, money.Cents(119998), s.Total())
}

func TestRemoveThenAddYieldsSingleLine(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))

	require.NoError(t, s.AddLine(ctx, line(3, 500, 4)))
	require.NoError(t, s.RemoveLine(ctx, 3))
	require.NoError(t, s.AddLine(ctx, line(3, 500, 1)))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestSetQuantityZeroMatchesRemove(t *testing.T) {
	ctx := context.Background()
	viaSet := readySession(t, SessionOptions{}, AnonymousOwner("a"))
	viaRemove := readySession(t, SessionOptions{}, AnonymousOwner("b"))

	for _, s := range []*Session{viaSet, viaRemove} {
		require.NoError(t, s.AddLine(ctx, line(1, 100, 1)))
		require.NoError(t, s.AddLine(ctx, line(2, 200, 2)))
	}
	require.NoError(t, viaSet.SetQuantity(ctx, 2, 0))
	require.NoError(t, viaRemove.RemoveLine(ctx, 2))

	assert.Equal(t, productIDs(viaRemove.Lines()), productIDs(viaSet.Lines()))
	assert.Equal(t, viaRemove.Total(), viaSet.Total())
}

func TestAddLineWithNonPositiveQuantityNeverCreatesLine(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))

	require.NoError(t, s.AddLine(ctx, line(9, 100, 0)))
	assert.Empty(t, s.Lines())

	require.NoError(t, s.AddLine(ctx, line(9, 100, 2)))
	require.NoError(t, s.AddLine(ctx, line(9, 100, -1)))
	assert.Empty(t, s.Lines())
}

func TestAddLineValidatesCandidate(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))

	err := s.AddLine(ctx, line(0, 100, 1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = s.AddLine(ctx, line(1, -1, 1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestTotalIsSumOfSubtotals(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))
	assert.Equal(t, money.Cents(0), s.Total())

	require.NoError(t, s.AddLine(ctx, line(1, 1000, 1)))
	require.NoError(t, s.AddLine(ctx, line(2, 2000, 2)))

	var want money.Cents
	for _, l := range s.Lines() {
		want += l.UnitPrice.Mul(l.Quantity)
	}
	assert.Equal(t, want, s.Total())
	assert.Equal(t, "50.00", s.Total().String())
	assert.Equal(t, 3, s.Snapshot().ItemCount())
}

func TestSingleItemTotal(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))

	require.NoError(t, s.AddLine(ctx, line(1, 59999, 1)))
	assert.Equal(t, "599.99", s.Total().String())
}

func TestQuantityIsClamped(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{MaxLineQuantity: 5}, AnonymousOwner("device-1"))

	require.NoError(t, s.AddLine(ctx, line(1, 100, 4)))
	require.NoError(t, s.AddLine(ctx, line(1, 100, 4)))
	assert.Equal(t, 5, s.Lines()[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, 1, 50))
	assert.Equal(t, 5, s.Lines()[0].Quantity)

	unlimited := readySession(t, SessionOptions{}, AnonymousOwner("device-2"))
	require.NoError(t, unlimited.AddLine(ctx, line(1, 100, 500)))
	assert.Equal(t, 500, unlimited.Lines()[0].Quantity)
}

func TestMutationWithoutOwnerFails(t *testing.T) {
	s := NewSession(SessionOptions{Remote: newMemoryStore(), Device: newMemoryStore()})
	assert.Equal(t, StateUninitialized, s.State())

	err := s.AddLine(context.Background(), line(1, 100, 1))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "cart session has no owner")
}

func TestSwitchOwnerRejectsEmptyOwner(t *testing.T) {
	s := NewSession(SessionOptions{})
	err := s.SwitchOwner(context.Background(), Owner{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMutationsPersistToOwnerStore(t *testing.T) {
	ctx := context.Background()
	remote, device := newMemoryStore(), newMemoryStore()
	user := UserOwner(uuid.New())
	s := readySession(t, SessionOptions{Remote: remote, Device: device}, user)

	require.NoError(t, s.AddLine(ctx, line(1, 100, 2)))
	require.NoError(t, s.AddLine(ctx, line(2, 300, 1)))
	require.NoError(t, s.SetQuantity(ctx, 1, 4))

	stored := remote.stored(user)
	require.Len(t, stored, 2)
	assert.Equal(t, 4, stored[0].Quantity)
	assert.Equal(t, 0, device.saves)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, remote.stored(user))
	assert.Empty(t, s.Lines())
}

func TestAnonymousToUserKeepsRemoteCartByDefault(t *testing.T) {
	ctx := context.Background()
	remote, device := newMemoryStore(), newMemoryStore()
	user := UserOwner(uuid.New())
	anon := AnonymousOwner("device-1")
	remote.carts[user] = []Line{line(10, 1000, 1), line(20, 2000, 2)}

	s := readySession(t, SessionOptions{Remote: remote, Device: device}, anon)
	require.NoError(t, s.AddLine(ctx, line(30, 700, 3)))

	require.NoError(t, s.SwitchOwner(ctx, user))
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, []int64{10, 20}, productIDs(s.Lines()))
	assert.Equal(t, "50.00", s.Total().String())

	// the anonymous lines stay on the device
	assert.Equal(t, []int64{30}, productIDs(device.stored(anon)))

	require.NoError(t, s.SwitchOwner(ctx, anon))
	assert.Equal(t, []int64{30}, productIDs(s.Lines()))
}

func TestAnonymousToUserUnionMerge(t *testing.T) {
	ctx := context.Background()
	remote, device := newMemoryStore(), newMemoryStore()
	user := UserOwner(uuid.New())
	anon := AnonymousOwner("device-1")
	remote.carts[user] = []Line{line(10, 1000, 1), line(20, 2000, 2)}

	s := readySession(t, SessionOptions{Remote: remote, Device: device, Policy: MergeUnion}, anon)
	require.NoError(t, s.AddLine(ctx, line(20, 9999, 1)))
	require.NoError(t, s.AddLine(ctx, line(30, 700, 3)))

	require.NoError(t, s.SwitchOwner(ctx, user))

	lines := s.Lines()
	require.Equal(t, []int64{10, 20, 30}, productIDs(lines))
	assert.Equal(t, 3, lines[1].Quantity)
	assert.Equal(t, money.Cents(2000), lines[1].UnitPrice, "remote snapshot wins for shared products")
	assert.Equal(t, productIDs(lines), productIDs(remote.stored(user)))
	assert.Empty(t, device.stored(anon))
}

func TestUnionMergeSkippedWhenRemoteLoadFails(t *testing.T) {
	ctx := context.Background()
	remote, device := newMemoryStore(), newMemoryStore()
	anon := AnonymousOwner("device-1")

	s := readySession(t, SessionOptions{Remote: remote, Device: device, Policy: MergeUnion}, anon)
	require.NoError(t, s.AddLine(ctx, line(30, 700, 3)))

	remote.loadErr = errors.New("connection refused")
	require.NoError(t, s.SwitchOwner(ctx, UserOwner(uuid.New())))

	assert.Empty(t, s.Lines())
	assert.Equal(t, 0, remote.saves)
	assert.Equal(t, []int64{30}, productIDs(device.stored(anon)))
}

func TestUserToAnonymousNeverMerges(t *testing.T) {
	ctx := context.Background()
	remote, device := newMemoryStore(), newMemoryStore()
	user := UserOwner(uuid.New())

	s := readySession(t, SessionOptions{Remote: remote, Device: device, Policy: MergeUnion}, user)
	require.NoError(t, s.AddLine(ctx, line(1, 100, 1)))

	require.NoError(t, s.SwitchOwner(ctx, AnonymousOwner("device-1")))
	assert.Empty(t, s.Lines())
	assert.Len(t, remote.stored(user), 1)
}

func TestLoadFailureFailsOpen(t *testing.T) {
	remote := newMemoryStore()
	remote.loadErr = pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")
	metrics := &countingMetrics{}

	s := NewSession(SessionOptions{Remote: remote, Device: newMemoryStore(), Metrics: metrics})
	err := s.SwitchOwner(context.Background(), UserOwner(uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
	assert.Empty(t, s.Lines())
	assert.Equal(t, 1, metrics.loadFailures)
}

func TestPersistFailureKeepsInMemoryChange(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryStore()
	metrics := &countingMetrics{}
	s := readySession(t, SessionOptions{Remote: remote, Metrics: metrics}, UserOwner(uuid.New()))

	remote.saveErr = errors.New("write timeout")
	require.NoError(t, s.AddLine(ctx, line(1, 100, 2)))

	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, 1, metrics.persistFailures)
	assert.Equal(t, []string{"add"}, metrics.ops)
}

func TestLoadCollapsesDuplicateRows(t *testing.T) {
	remote := newMemoryStore()
	user := UserOwner(uuid.New())
	remote.carts[user] = []Line{line(1, 100, 1), line(1, 100, 2), line(2, 100, 0)}

	s := readySession(t, SessionOptions{Remote: remote}, user)
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestLoadCollapsedRowsRespectCap(t *testing.T) {
	remote := newMemoryStore()
	user := UserOwner(uuid.New())
	remote.carts[user] = []Line{line(1, 100, 4), line(1, 100, 4), line(2, 100, 9)}

	s := readySession(t, SessionOptions{Remote: remote, MaxLineQuantity: 5}, user)
	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, lines[1].Quantity)
}

func TestRepeatedAddsSumWithoutDefaultCap(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, UserOwner(uuid.New()))

	require.NoError(t, s.AddLine(ctx, line(1, 100, 60)))
	require.NoError(t, s.AddLine(ctx, line(1, 100, 60)))
	assert.Equal(t, 120, s.Lines()[0].Quantity)
}

func TestMutationReloadsAfterFailedLoad(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryStore()
	user := UserOwner(uuid.New())
	remote.carts[user] = []Line{line(1, 100, 1), line(2, 200, 1)}
	remote.loadErr = errors.New("timeout")

	s := NewSession(SessionOptions{Remote: remote, Device: newMemoryStore()})
	require.NoError(t, s.SwitchOwner(ctx, user))
	require.Empty(t, s.Lines())

	remote.loadErr = nil
	require.NoError(t, s.AddLine(ctx, line(3, 300, 1)))

	assert.Equal(t, []int64{1, 2, 3}, productIDs(s.Lines()))
	assert.Equal(t, []int64{1, 2, 3}, productIDs(remote.stored(user)))
}

func TestMutationAfterRepeatedLoadFailureSkipsWrite(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryStore()
	user := UserOwner(uuid.New())
	remote.carts[user] = []Line{line(1, 100, 1), line(2, 200, 1)}
	remote.loadErr = errors.New("timeout")
	metrics := &countingMetrics{}

	s := NewSession(SessionOptions{Remote: remote, Device: newMemoryStore(), Metrics: metrics})
	require.NoError(t, s.SwitchOwner(ctx, user))
	require.NoError(t, s.AddLine(ctx, line(3, 300, 1)))

	assert.Equal(t, []int64{3}, productIDs(s.Lines()))
	assert.Zero(t, remote.saves)
	assert.Equal(t, []int64{1, 2}, productIDs(remote.stored(user)))
	assert.Equal(t, 1, metrics.persistFailures)
	assert.Equal(t, 2, metrics.loadFailures)
}

func TestMutationOnAbsentProductWritesNothing(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryStore()
	metrics := &countingMetrics{}
	s := readySession(t, SessionOptions{Remote: remote, Metrics: metrics}, UserOwner(uuid.New()))
	require.NoError(t, s.AddLine(ctx, line(1, 100, 2)))

	require.NoError(t, s.RemoveLine(ctx, 9))
	require.NoError(t, s.SetQuantity(ctx, 9, 3))
	require.NoError(t, s.SetQuantity(ctx, 1, 2))

	assert.Equal(t, 1, remote.saves)
	assert.Equal(t, []string{"add"}, metrics.ops)
	assert.Equal(t, []int64{1}, productIDs(s.Lines()))
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewSession(SessionOptions{Remote: newMemoryStore(), Device: newMemoryStore()})

	var states []State
	var totals []money.Cents
	cancel := s.Subscribe(func(snap Snapshot) {
		states = append(states, snap.State)
		totals = append(totals, snap.Total)
	})

	require.NoError(t, s.SwitchOwner(ctx, AnonymousOwner("device-1")))
	require.NoError(t, s.AddLine(ctx, line(1, 250, 2)))
	cancel()
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, []State{StateLoading, StateReady, StateReady}, states)
	assert.Equal(t, []money.Cents{0, 0, 500}, totals)
}

func TestLinesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := readySession(t, SessionOptions{}, AnonymousOwner("device-1"))
	require.NoError(t, s.AddLine(ctx, line(1, 100, 1)))

	lines := s.Lines()
	lines[0].Quantity = 42
	assert.Equal(t, 1, s.Lines()[0].Quantity)
}

func productIDs(lines []Line) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
