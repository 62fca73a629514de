package animator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/canvas"
	"github.com/simaogato/flowviz/internal/usecase/registry"
)

const (
	DefaultDuration      = 2000 * time.Millisecond
	DefaultFrameInterval = 16 * time.Millisecond
)

// ErrStopping is returned by Start while a previous Stop is still draining jobs
var ErrStopping = errors.New("animator is stopping")

// Config holds animation timing
type Config struct {
	Duration      time.Duration
	FrameInterval time.Duration
}

// DefaultConfig returns the timing used by the original diagram
func DefaultConfig() Config {
	return Config{
		Duration:      DefaultDuration,
		FrameInterval: DefaultFrameInterval,
	}
}

// PanicHandler receives values recovered from animation goroutines
type PanicHandler func(recovered any)

// Animator schedules one repeating job per transfer rule. Each tick debits
// the source, spawns a token that eases towards the destination, and credits
// the destination when the token arrives.
type Animator struct {
	Registry *registry.Registry
	Layer    *canvas.Layer
	Logger   *zap.Logger
	Config   Config
	OnPanic  PanicHandler

	now func() time.Time

	mu     sync.RWMutex
	tokens map[uuid.UUID]*domain.Token
	order  []uuid.UUID

	runMu     sync.Mutex
	running   bool
	scheduled int
	cancel    context.CancelFunc
	stopped   chan struct{}
	wg        sync.WaitGroup
}

// NewAnimator creates a new Animator instance
func NewAnimator(reg *registry.Registry, layer *canvas.Layer, cfg Config, logger *zap.Logger) *Animator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	return &Animator{
		Registry: reg,
		Layer:    layer,
		Logger:   logger.Named("animator"),
		Config:   cfg,
		now:      time.Now,
		tokens:   make(map[uuid.UUID]*domain.Token),
	}
}

// Fire runs the start of one animation cycle:
//  1. Debit the source immediately and refresh its label
//  2. Spawn a token at the source's current coordinates, aimed at the
//     destination's current coordinates
func (a *Animator) Fire(rule domain.TransferRule) (*domain.Token, error) {
	if _, err := a.Registry.Position(rule.To); err != nil {
		return nil, fmt.Errorf("transfer %s: %w", rule.Key(), err)
	}
	if _, err := a.Registry.Debit(rule.From, rule.Amount); err != nil {
		return nil, fmt.Errorf("transfer %s: %w", rule.Key(), err)
	}

	start, err := a.Registry.Position(rule.From)
	if err != nil {
		return nil, fmt.Errorf("transfer %s: %w", rule.Key(), err)
	}
	end, err := a.Registry.Position(rule.To)
	if err != nil {
		return nil, fmt.Errorf("transfer %s: %w", rule.Key(), err)
	}

	token := domain.NewToken(rule, start, end, a.now())

	a.mu.Lock()
	a.tokens[token.ID] = token
	a.order = append(a.order, token.ID)
	out := token.Clone()
	a.mu.Unlock()

	a.Layer.BatchDraw()
	return out, nil
}

// Advance moves a token to the given linear progress of its animation
func (a *Animator) Advance(id uuid.UUID, progress float64) error {
	a.mu.Lock()
	token, ok := a.tokens[id]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrTokenNotFound, id)
	}
	token.SetProgress(progress)
	a.mu.Unlock()

	a.Layer.BatchDraw()
	return nil
}

// Complete finishes a cycle: the token and its text are removed and the
// destination is credited
func (a *Animator) Complete(id uuid.UUID) error {
	token, ok := a.remove(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTokenNotFound, id)
	}
	if _, err := a.Registry.Credit(token.To, token.Amount); err != nil {
		return fmt.Errorf("failed to credit %s: %w", token.To, err)
	}
	return nil
}

// discard removes a token without crediting its destination
func (a *Animator) discard(id uuid.UUID) {
	if _, ok := a.remove(id); ok {
		a.Layer.BatchDraw()
	}
}

func (a *Animator) remove(id uuid.UUID) (*domain.Token, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	token, ok := a.tokens[id]
	if !ok {
		return nil, false
	}
	delete(a.tokens, id)
	for i, tid := range a.order {
		if tid == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return token, true
}

// Tokens returns copies of the tokens in flight, oldest first
func (a *Animator) Tokens() []*domain.Token {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*domain.Token, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.tokens[id].Clone())
	}
	return out
}

// Start schedules a repeating job for every rule that can run.
// Rules referencing unknown entities or with a non-positive interval are
// skipped with a warning.
func (a *Animator) Start(ctx context.Context, rules []domain.TransferRule) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.stopped != nil {
		return ErrStopping
	}
	if a.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true
	a.scheduled = 0

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			a.Logger.Warn("transfer rule not scheduled", zap.String("rule", rule.Key()), zap.Error(err))
			continue
		}
		if !a.Registry.Has(rule.From) || !a.Registry.Has(rule.To) {
			a.Logger.Warn("transfer rule references an unknown entity, not scheduled",
				zap.String("rule", rule.Key()),
			)
			continue
		}

		a.scheduled++
		a.wg.Add(1)
		go a.schedule(ctx, rule)
	}

	a.Logger.Info("transfer animator started",
		zap.Int("rules", len(rules)),
		zap.Int("scheduled", a.scheduled),
		zap.Duration("duration", a.Config.Duration),
	)
	return nil
}

// Stop cancels every job and in-flight token and waits for them to exit.
// Running stays true, and Start returns ErrStopping, until the last job has
// returned.
func (a *Animator) Stop(ctx context.Context) error {
	a.runMu.Lock()
	if !a.running {
		a.runMu.Unlock()
		return nil
	}
	if a.stopped == nil {
		done := make(chan struct{})
		a.stopped = done
		a.cancel()
		go func() {
			a.wg.Wait()
			a.runMu.Lock()
			a.running = false
			a.stopped = nil
			a.runMu.Unlock()
			close(done)
		}()
	}
	done := a.stopped
	a.runMu.Unlock()

	select {
	case <-done:
		a.Logger.Info("transfer animator stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping animator: %w", ctx.Err())
	}
}

// Running reports whether jobs are scheduled
func (a *Animator) Running() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.running
}

// Scheduled returns how many rules got a job on the last Start
func (a *Animator) Scheduled() int {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.scheduled
}

func (a *Animator) schedule(ctx context.Context, rule domain.TransferRule) {
	defer a.wg.Done()

	ticker := time.NewTicker(rule.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx, rule)
		}
	}
}

func (a *Animator) tick(ctx context.Context, rule domain.TransferRule) {
	defer a.recoverPanic("tick", rule)

	token, err := a.Fire(rule)
	if err != nil {
		a.Logger.Error("transfer tick failed", zap.String("rule", rule.Key()), zap.Error(err))
		return
	}

	a.wg.Add(1)
	go a.fly(ctx, rule, token.ID)
}

// fly interpolates one token until arrival or cancellation
func (a *Animator) fly(ctx context.Context, rule domain.TransferRule, id uuid.UUID) {
	defer a.wg.Done()
	defer a.recoverPanic("frame", rule)

	duration := a.Config.Duration
	if duration <= 0 {
		a.arrive(rule, id)
		return
	}

	frames := time.NewTicker(a.Config.FrameInterval)
	defer frames.Stop()
	started := time.Now()

	for {
		select {
		case <-ctx.Done():
			a.discard(id)
			return
		case <-frames.C:
			progress := float64(time.Since(started)) / float64(duration)
			if progress >= 1 {
				a.arrive(rule, id)
				return
			}
			if err := a.Advance(id, progress); err != nil {
				return
			}
		}
	}
}

func (a *Animator) arrive(rule domain.TransferRule, id uuid.UUID) {
	_ = a.Advance(id, 1)
	if err := a.Complete(id); err != nil {
		a.Logger.Error("transfer completion failed", zap.String("rule", rule.Key()), zap.Error(err))
	}
}

func (a *Animator) recoverPanic(stage string, rule domain.TransferRule) {
	if r := recover(); r != nil {
		a.Logger.Error("recovered panic in animator",
			zap.String("stage", stage),
			zap.String("rule", rule.Key()),
			zap.Any("panic", r),
		)
		if a.OnPanic != nil {
			a.OnPanic(r)
		}
	}
}
