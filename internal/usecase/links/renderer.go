package links

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/canvas"
	"github.com/simaogato/flowviz/internal/usecase/registry"
)

// Renderer draws the static lines between entities that exchange transfers
type Renderer struct {
	Registry *registry.Registry
	Layer    *canvas.Layer
	Logger   *zap.Logger

	mu       sync.RWMutex
	links    map[uuid.UUID]*domain.Link
	order    []uuid.UUID
	byEntity map[string][]uuid.UUID
}

// NewRenderer creates a Renderer and subscribes it to entity moves
func NewRenderer(reg *registry.Registry, layer *canvas.Layer, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		Registry: reg,
		Layer:    layer,
		Logger:   logger.Named("links"),
		links:    make(map[uuid.UUID]*domain.Link),
		byEntity: make(map[string][]uuid.UUID),
	}
	reg.OnMove(r.sync)
	return r
}

// CreateLink draws a line between the current positions of two entities and
// registers it on both of them. Calling it twice draws two lines.
func (r *Renderer) CreateLink(fromID, toID string) (*domain.Link, error) {
	from, err := r.Registry.Position(fromID)
	if err != nil {
		return nil, err
	}
	to, err := r.Registry.Position(toID)
	if err != nil {
		return nil, err
	}

	link := &domain.Link{ID: uuid.New(), From: fromID, To: toID}
	link.Redraw(from, to)

	r.mu.Lock()
	r.links[link.ID] = link
	r.order = append(r.order, link.ID)
	r.byEntity[fromID] = append(r.byEntity[fromID], link.ID)
	if toID != fromID {
		r.byEntity[toID] = append(r.byEntity[toID], link.ID)
	}
	out := *link
	r.mu.Unlock()

	if err := r.Registry.AttachLink(fromID, link.ID); err != nil {
		return nil, fmt.Errorf("failed to attach link to %s: %w", fromID, err)
	}
	if err := r.Registry.AttachLink(toID, link.ID); err != nil {
		return nil, fmt.Errorf("failed to attach link to %s: %w", toID, err)
	}

	r.Layer.BatchDraw()
	return &out, nil
}

// DrawAll creates one link per rule whose endpoints both exist.
// Rules referencing unknown entities are skipped silently.
func (r *Renderer) DrawAll(rules []domain.TransferRule) int {
	drawn := 0
	for _, rule := range rules {
		if !r.Registry.Has(rule.From) || !r.Registry.Has(rule.To) {
			continue
		}
		if _, err := r.CreateLink(rule.From, rule.To); err != nil {
			r.Logger.Warn("failed to draw link", zap.String("rule", rule.Key()), zap.Error(err))
			continue
		}
		drawn++
	}
	return drawn
}

// sync redraws every link attached to a moved entity
func (r *Renderer) sync(entityID string) {
	r.mu.RLock()
	ids := append([]uuid.UUID(nil), r.byEntity[entityID]...)
	r.mu.RUnlock()

	for _, id := range ids {
		r.mu.RLock()
		link, ok := r.links[id]
		var fromID, toID string
		if ok {
			fromID, toID = link.From, link.To
		}
		r.mu.RUnlock()
		if !ok {
			continue
		}

		from, err := r.Registry.Position(fromID)
		if err != nil {
			continue
		}
		to, err := r.Registry.Position(toID)
		if err != nil {
			continue
		}

		r.mu.Lock()
		link.Redraw(from, to)
		r.mu.Unlock()
	}
}

// Snapshot returns copies of every link in drawing order
func (r *Renderer) Snapshot() []*domain.Link {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Link, 0, len(r.order))
	for _, id := range r.order {
		l := *r.links[id]
		out = append(out, &l)
	}
	return out
}

// Count returns the number of lines drawn
func (r *Renderer) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
