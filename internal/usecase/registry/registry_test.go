package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/canvas"
)

// MockIconLoader is a mock implementation of IconLoader for testing
type MockIconLoader struct {
	mock.Mock
}

func (m *MockIconLoader) Load(ctx context.Context, ref string) (*domain.Icon, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Icon), args.Error(1)
}

func newTestRegistry(loader domain.IconLoader) *Registry {
	return NewRegistry(loader, canvas.NewLayer(domain.Stage{Width: 1200, Height: 800}), nil)
}

func spec(id string, balance int64) domain.EntitySpec {
	return domain.EntitySpec{
		ID:      id,
		IconRef: "img/" + id + ".png",
		Name:    "Entity " + id,
		X:       100,
		Y:       200,
		Balance: decimal.NewFromInt(balance),
		W:       80,
		H:       80,
	}
}

func TestCreateEntity_TwoPhaseLifecycle(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, "img/a.png").
		Run(func(mock.Arguments) { <-gate }).
		Return(&domain.Icon{Href: "data:image/png;base64,AAAA"}, nil)

	reg := newTestRegistry(loader)

	declared, err := reg.CreateEntity(ctx, spec("a", 1000))
	require.NoError(t, err)
	assert.Equal(t, domain.EntityStateDeclared, declared.State)
	assert.Nil(t, declared.Visual)
	assert.Nil(t, declared.Label)

	ready, err := reg.Ready("a")
	require.NoError(t, err)
	select {
	case <-ready:
		t.Fatal("entity must not be ready before the icon loads")
	default:
	}

	close(gate)
	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("entity never became ready")
	}

	e, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, domain.EntityStateReady, e.State)
	require.NotNil(t, e.Visual)
	assert.Equal(t, "data:image/png;base64,AAAA", e.Visual.Href)
	assert.Equal(t, domain.Point{X: 40, Y: 40}, e.Visual.Offset)
	assert.False(t, e.Visual.Placeholder)
	require.NotNil(t, e.Label)
	assert.Equal(t, "Entity a\nSaldo: R$ 1000", e.Label.Text)
	assert.Equal(t, domain.Point{X: 100, Y: 248}, e.Label.Position)

	loader.AssertExpectations(t)
}

func TestCreateEntity_FailedIconUsesPlaceholder(t *testing.T) {
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, "img/a.png").Return(nil, errors.New("404"))

	reg := newTestRegistry(loader)
	_, err := reg.CreateEntity(context.Background(), spec("a", 1000))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reg.WaitReady(ctx))

	e, err := reg.Get("a")
	require.NoError(t, err)
	assert.True(t, e.Visual.Placeholder)
	assert.Empty(t, e.Visual.Href)
}

func TestCreateEntity_Rejects(t *testing.T) {
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, mock.Anything).Return(&domain.Icon{}, nil)
	reg := newTestRegistry(loader)

	_, err := reg.CreateEntity(context.Background(), spec("a", 1))
	require.NoError(t, err)

	_, err = reg.CreateEntity(context.Background(), spec("a", 1))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already declared")

	bad := spec("", 1)
	_, err = reg.CreateEntity(context.Background(), bad)
	assert.Error(t, err)

	reg.Wait()
	assert.Equal(t, 1, reg.Len())
}

func TestWaitReady_ContextDone(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-gate }).
		Return(&domain.Icon{}, nil)

	reg := newTestRegistry(loader)
	_, err := reg.CreateEntity(context.Background(), spec("slow", 1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = reg.WaitReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDebitCredit(t *testing.T) {
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, mock.Anything).Return(&domain.Icon{}, nil)
	reg := newTestRegistry(loader)

	_, err := reg.CreateEntity(context.Background(), spec("a", 1000))
	require.NoError(t, err)
	require.NoError(t, reg.WaitReady(context.Background()))

	balance, err := reg.Debit("a", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(900).Equal(balance))

	balance, err = reg.Debit("a", decimal.NewFromInt(1500))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-600).Equal(balance), "balances may go negative")

	balance, err = reg.Credit("a", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-550).Equal(balance))

	e, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Entity a\nSaldo: R$ -550", e.Label.Text)

	_, err = reg.Credit("missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestMove_NotifiesListeners(t *testing.T) {
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, mock.Anything).Return(&domain.Icon{}, nil)
	reg := newTestRegistry(loader)

	_, err := reg.CreateEntity(context.Background(), spec("a", 1000))
	require.NoError(t, err)
	require.NoError(t, reg.WaitReady(context.Background()))

	var moved []string
	reg.OnMove(func(id string) {
		// the registry lock must not be held here
		p, err := reg.Position(id)
		require.NoError(t, err)
		assert.Equal(t, domain.Point{X: 500, Y: 450}, p)
		moved = append(moved, id)
	})

	before := reg.Layer.Version()
	e, err := reg.Move("a", domain.Point{X: 500, Y: 450})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, moved)
	assert.Equal(t, domain.Point{X: 500, Y: 450}, e.Visual.Position)
	assert.Equal(t, domain.Point{X: 500, Y: 498}, e.Label.Position)
	assert.Greater(t, reg.Layer.Version(), before)

	_, err = reg.Move("ghost", domain.Point{})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestMove_NotReady(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-gate }).
		Return(&domain.Icon{}, nil)
	reg := newTestRegistry(loader)

	_, err := reg.CreateEntity(context.Background(), spec("a", 1))
	require.NoError(t, err)

	_, err = reg.Move("a", domain.Point{X: 1, Y: 1})
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.ErrorIs(t, reg.UpdateLabel("a"), domain.ErrNotReady)
}

func TestAttachLinkAndSnapshotOrder(t *testing.T) {
	loader := new(MockIconLoader)
	loader.On("Load", mock.Anything, mock.Anything).Return(&domain.Icon{}, nil)
	reg := newTestRegistry(loader)

	for _, id := range []string{"c", "a", "b"} {
		_, err := reg.CreateEntity(context.Background(), spec(id, 1))
		require.NoError(t, err)
	}
	require.NoError(t, reg.WaitReady(context.Background()))

	linkID := uuid.New()
	require.NoError(t, reg.AttachLink("a", linkID))
	assert.ErrorIs(t, reg.AttachLink("zzz", linkID), domain.ErrEntityNotFound)

	snap := reg.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "c", snap[0].ID)
	assert.Equal(t, "a", snap[1].ID)
	assert.Equal(t, []uuid.UUID{linkID}, snap[1].LinkIDs)
	assert.True(t, reg.Has("b"))
	assert.False(t, reg.Has("zzz"))
}
