package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/animator"
	"github.com/simaogato/flowviz/internal/usecase/canvas"
	"github.com/simaogato/flowviz/internal/usecase/legend"
	"github.com/simaogato/flowviz/internal/usecase/links"
	"github.com/simaogato/flowviz/internal/usecase/registry"
)

// DefaultReadinessTimeout bounds the wait for every icon to load
const DefaultReadinessTimeout = 30 * time.Second

// Status describes how far the startup sequence went
type Status struct {
	Loaded      bool   `json:"loaded"`
	Ready       bool   `json:"ready"`
	LegendDrawn bool   `json:"legend_drawn"`
	Entities    int    `json:"entities"`
	Links       int    `json:"links"`
	Scheduled   int    `json:"scheduled"`
	Error       string `json:"error,omitempty"`
}

// SimulationService wires the diagram together and drives its startup
type SimulationService struct {
	Source   domain.DocumentSource
	Layer    *canvas.Layer
	Registry *registry.Registry
	Links    *links.Renderer
	Animator *animator.Animator
	Legend   *legend.Renderer
	Logger   *zap.Logger

	ReadinessTimeout time.Duration

	mu     sync.RWMutex
	status Status
	rules  []domain.TransferRule
}

// NewSimulationService creates a new SimulationService instance
func NewSimulationService(
	source domain.DocumentSource,
	layer *canvas.Layer,
	reg *registry.Registry,
	linkRenderer *links.Renderer,
	anim *animator.Animator,
	legendRenderer *legend.Renderer,
	logger *zap.Logger,
) *SimulationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulationService{
		Source:           source,
		Layer:            layer,
		Registry:         reg,
		Links:            linkRenderer,
		Animator:         anim,
		Legend:           legendRenderer,
		Logger:           logger.Named("simulation"),
		ReadinessTimeout: DefaultReadinessTimeout,
	}
}

// Run loads the document and starts the diagram.
// Logic:
//  1. Load the document (a failure is logged and nothing is drawn)
//  2. Declare every entity; icons load asynchronously
//  3. Wait until every entity is ready
//  4. Draw links and the legend
//  5. Schedule one repeating animation per transfer rule
//
// The animations live until ctx is cancelled or Shutdown is called.
func (s *SimulationService) Run(ctx context.Context) error {
	doc, err := s.Source.Load(ctx)
	if err != nil {
		s.Logger.Error("failed to load data document", zap.Error(err))
		return s.fail(fmt.Errorf("failed to load data document: %w", err))
	}
	if err := doc.Validate(); err != nil {
		s.Logger.Error("data document rejected", zap.Error(err))
		return s.fail(err)
	}

	rules := doc.Rules()
	s.mu.Lock()
	s.status.Loaded = true
	s.rules = rules
	s.mu.Unlock()

	for _, e := range doc.Entities {
		if _, err := s.Registry.CreateEntity(ctx, e.EntitySpec()); err != nil {
			s.Logger.Warn("entity skipped", zap.String("entity_id", e.ID), zap.Error(err))
		}
	}

	waitCtx := ctx
	if s.ReadinessTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.ReadinessTimeout)
		defer cancel()
	}
	if err := s.Registry.WaitReady(waitCtx); err != nil {
		s.Logger.Error("entities never became ready", zap.Error(err))
		return s.fail(err)
	}

	drawn := s.Links.DrawAll(rules)
	s.Layer.BatchDraw()

	s.mu.Lock()
	s.status.Ready = true
	s.status.LegendDrawn = true
	s.status.Entities = s.Registry.Len()
	s.status.Links = drawn
	s.mu.Unlock()

	if err := s.Animator.Start(ctx, rules); err != nil {
		return s.fail(fmt.Errorf("failed to start animator: %w", err))
	}

	s.mu.Lock()
	s.status.Scheduled = s.Animator.Scheduled()
	s.mu.Unlock()

	s.Logger.Info("simulation started",
		zap.Int("entities", s.Registry.Len()),
		zap.Int("transfers", len(rules)),
		zap.Int("links", drawn),
	)
	return nil
}

func (s *SimulationService) fail(err error) error {
	s.mu.Lock()
	s.status.Error = err.Error()
	s.mu.Unlock()
	return err
}

// Shutdown cancels every scheduled animation
func (s *SimulationService) Shutdown(ctx context.Context) error {
	return s.Animator.Stop(ctx)
}

// Status returns the startup progress
func (s *SimulationService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Rules returns the transfer rules of the loaded document
func (s *SimulationService) Rules() []domain.TransferRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TransferRule(nil), s.rules...)
}

// MoveEntity drags an entity to a new position
func (s *SimulationService) MoveEntity(id string, p domain.Point) (*domain.Entity, error) {
	return s.Registry.Move(id, p)
}

// Snapshot returns everything currently drawn on the stage.
// Links and the legend only appear once every entity is ready.
func (s *SimulationService) Snapshot() domain.Scene {
	status := s.Status()

	scene := domain.Scene{
		Stage:    s.Layer.Stage(),
		Version:  s.Layer.Version(),
		Entities: s.Registry.Snapshot(),
		Tokens:   s.Animator.Tokens(),
		Links:    s.Links.Snapshot(),
		Running:  s.Animator.Running(),
	}
	if status.LegendDrawn {
		scene.Legend = s.Legend.Items()
	}
	return scene
}

// New builds the whole diagram pipeline on a fresh layer
func New(
	source domain.DocumentSource,
	icons domain.IconLoader,
	stage domain.Stage,
	animCfg animator.Config,
	logger *zap.Logger,
) *SimulationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	layer := canvas.NewLayer(stage)
	reg := registry.NewRegistry(icons, layer, logger)
	return NewSimulationService(
		source,
		layer,
		reg,
		links.NewRenderer(reg, layer, logger),
		animator.NewAnimator(reg, layer, animCfg, logger),
		legend.NewRenderer(stage),
		logger,
	)
}
