package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/canvas"
)

// MoveListener is notified after an entity has been moved.
// It is called without the registry lock held.
type MoveListener func(entityID string)

type record struct {
	entity *domain.Entity
	ready  chan struct{}
}

// Registry owns every entity of the stage: visual handle, label and balance
type Registry struct {
	Loader domain.IconLoader
	Layer  *canvas.Layer
	Logger *zap.Logger

	mu        sync.RWMutex
	records   map[string]*record
	order     []string
	listeners []MoveListener

	loads sync.WaitGroup
}

// NewRegistry creates a new Registry instance
func NewRegistry(loader domain.IconLoader, layer *canvas.Layer, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		Loader:  loader,
		Layer:   layer,
		Logger:  logger.Named("registry"),
		records: make(map[string]*record),
	}
}

// CreateEntity declares an entity and starts loading its icon.
// Logic:
//  1. Validate and register the entity in the DECLARED state (synchronous)
//  2. Load the icon on its own goroutine
//  3. Attach the visual handle and label, switch to READY, signal readiness
//
// A failed icon load attaches a placeholder so readiness always completes.
func (r *Registry) CreateEntity(ctx context.Context, spec domain.EntitySpec) (*domain.Entity, error) {
	entity := &domain.Entity{
		ID:       spec.ID,
		Name:     spec.Name,
		IconRef:  spec.IconRef,
		Position: domain.Point{X: spec.X, Y: spec.Y},
		Size:     domain.Size{W: spec.W, H: spec.H},
		Balance:  spec.Balance,
		State:    domain.EntityStateDeclared,
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	rec := &record{entity: entity, ready: make(chan struct{})}

	r.mu.Lock()
	if _, exists := r.records[spec.ID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("entity %q already declared", spec.ID)
	}
	r.records[spec.ID] = rec
	r.order = append(r.order, spec.ID)
	snapshot := entity.Clone()
	r.mu.Unlock()

	r.loads.Add(1)
	go func() {
		defer r.loads.Done()
		r.loadIcon(ctx, rec)
	}()

	return snapshot, nil
}

func (r *Registry) loadIcon(ctx context.Context, rec *record) {
	ref := rec.entity.IconRef
	var icon *domain.Icon
	var err error
	if r.Loader != nil {
		icon, err = r.Loader.Load(ctx, ref)
	}
	if err != nil {
		r.Logger.Warn("icon load failed, using placeholder",
			zap.String("entity_id", rec.entity.ID),
			zap.String("icon_ref", ref),
			zap.Error(err),
		)
	}

	r.mu.Lock()
	e := rec.entity
	visual := &domain.Visual{
		Position:    e.Position,
		Size:        e.Size,
		Offset:      domain.Point{X: e.Size.W / 2, Y: e.Size.H / 2},
		Placeholder: icon == nil,
		Draggable:   true,
	}
	if icon != nil {
		visual.Href = icon.Href
	}
	e.Visual = visual
	e.RefreshLabel()
	e.State = domain.EntityStateReady
	close(rec.ready)
	r.mu.Unlock()

	r.Logger.Debug("entity ready", zap.String("entity_id", e.ID))
	r.batchDraw()
}

// Ready returns a channel closed once the entity visual handle is attached
func (r *Registry) Ready(id string) (<-chan struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	return rec.ready, nil
}

// WaitReady blocks until every declared entity is ready or ctx is done
func (r *Registry) WaitReady(ctx context.Context) error {
	r.mu.RLock()
	pending := make([]chan struct{}, 0, len(r.records))
	for _, id := range r.order {
		pending = append(pending, r.records[id].ready)
	}
	r.mu.RUnlock()

	for _, ch := range pending {
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("waiting for entities to be ready: %w", ctx.Err())
		}
	}
	return nil
}

// Wait blocks until every icon load goroutine has returned
func (r *Registry) Wait() {
	r.loads.Wait()
}

// OnMove registers a listener called after every Move
func (r *Registry) OnMove(listener MoveListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

// Move is the drag handler: it moves the icon, repositions the label and
// redraws every connected link
func (r *Registry) Move(id string, p domain.Point) (*domain.Entity, error) {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	if !rec.entity.IsReady() {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrNotReady, id)
	}
	rec.entity.MoveTo(p)
	snapshot := rec.entity.Clone()
	listeners := append([]MoveListener(nil), r.listeners...)
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(id)
	}
	r.batchDraw()
	return snapshot, nil
}

// UpdateLabel recomputes the label text and re-centers it under the icon
func (r *Registry) UpdateLabel(id string) error {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	if !rec.entity.IsReady() {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNotReady, id)
	}
	rec.entity.RefreshLabel()
	r.mu.Unlock()

	r.batchDraw()
	return nil
}

// Debit subtracts amount from the entity balance and refreshes its label.
// Balances are not clamped and may go negative.
func (r *Registry) Debit(id string, amount decimal.Decimal) (decimal.Decimal, error) {
	return r.adjust(id, amount.Neg())
}

// Credit adds amount to the entity balance and refreshes its label
func (r *Registry) Credit(id string, amount decimal.Decimal) (decimal.Decimal, error) {
	return r.adjust(id, amount)
}

func (r *Registry) adjust(id string, delta decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	rec, ok := r.records[id]
	if !ok {
		r.mu.Unlock()
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	e := rec.entity
	e.Balance = e.Balance.Add(delta)
	if e.IsReady() {
		e.RefreshLabel()
	}
	balance := e.Balance
	r.mu.Unlock()

	r.batchDraw()
	return balance, nil
}

// AttachLink registers a link id in the entity link list
func (r *Registry) AttachLink(id string, linkID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	rec.entity.LinkIDs = append(rec.entity.LinkIDs, linkID)
	return nil
}

// Has reports whether an entity id is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok
}

// Position returns the current coordinates of an entity
func (r *Registry) Position(id string) (domain.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.Point{}, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	return rec.entity.Position, nil
}

// Get returns a copy of an entity
func (r *Registry) Get(id string) (*domain.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
	}
	return rec.entity.Clone(), nil
}

// Snapshot returns copies of every entity in declaration order
func (r *Registry) Snapshot() []*domain.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Entity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id].entity.Clone())
	}
	return out
}

// Len returns the number of declared entities
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) batchDraw() {
	if r.Layer != nil {
		r.Layer.BatchDraw()
	}
}
