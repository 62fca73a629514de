package links

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/usecase/canvas"
	"github.com/simaogato/flowviz/internal/usecase/registry"
)

type staticLoader struct{}

func (staticLoader) Load(context.Context, string) (*domain.Icon, error) {
	return &domain.Icon{Href: "icon.png"}, nil
}

func setup(t *testing.T, positions map[string]domain.Point) (*registry.Registry, *Renderer) {
	t.Helper()
	layer := canvas.NewLayer(domain.Stage{Width: 1200, Height: 800})
	reg := registry.NewRegistry(staticLoader{}, layer, nil)
	for _, id := range []string{"a", "b", "c"} {
		p, ok := positions[id]
		if !ok {
			continue
		}
		_, err := reg.CreateEntity(context.Background(), domain.EntitySpec{
			ID: id, Name: id, X: p.X, Y: p.Y, Balance: decimal.NewFromInt(1000), W: 80, H: 80,
		})
		require.NoError(t, err)
	}
	require.NoError(t, reg.WaitReady(context.Background()))
	return reg, NewRenderer(reg, layer, nil)
}

func rule(from, to string) domain.TransferRule {
	return domain.TransferRule{From: from, To: to, Amount: decimal.NewFromInt(10), Interval: time.Second}
}

func TestDrawAll_CountsAndDuplicates(t *testing.T) {
	_, renderer := setup(t, map[string]domain.Point{
		"a": {X: 0, Y: 0},
		"b": {X: 100, Y: 0},
		"c": {X: 0, Y: 100},
	})

	rules := []domain.TransferRule{
		rule("a", "b"),
		rule("a", "b"), // duplicate pair draws a second line
		rule("b", "c"),
		rule("a", "ghost"),
		rule("ghost", "c"),
	}

	drawn := renderer.DrawAll(rules)

	assert.Equal(t, 3, drawn)
	assert.Equal(t, 3, renderer.Count())
	snap := renderer.Snapshot()
	assert.Equal(t, [4]float64{0, 0, 100, 0}, snap[0].Points)
	assert.Equal(t, [4]float64{0, 0, 100, 0}, snap[1].Points)
	assert.NotEqual(t, snap[0].ID, snap[1].ID)
}

func TestCreateLink_RegistersOnBothEntities(t *testing.T) {
	reg, renderer := setup(t, map[string]domain.Point{
		"a": {X: 0, Y: 0},
		"b": {X: 100, Y: 0},
	})

	link, err := renderer.CreateLink("a", "b")
	require.NoError(t, err)

	a, err := reg.Get("a")
	require.NoError(t, err)
	b, err := reg.Get("b")
	require.NoError(t, err)
	assert.Contains(t, a.LinkIDs, link.ID)
	assert.Contains(t, b.LinkIDs, link.ID)

	_, err = renderer.CreateLink("a", "ghost")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestMove_RedrawsConnectedLinks(t *testing.T) {
	reg, renderer := setup(t, map[string]domain.Point{
		"a": {X: 0, Y: 0},
		"b": {X: 100, Y: 0},
		"c": {X: 0, Y: 100},
	})
	renderer.DrawAll([]domain.TransferRule{rule("a", "b"), rule("c", "a"), rule("b", "c")})

	_, err := reg.Move("a", domain.Point{X: 50, Y: 50})
	require.NoError(t, err)

	snap := renderer.Snapshot()
	assert.Equal(t, [4]float64{50, 50, 100, 0}, snap[0].Points)
	assert.Equal(t, [4]float64{0, 100, 50, 50}, snap[1].Points)
	assert.Equal(t, [4]float64{100, 0, 0, 100}, snap[2].Points, "unrelated link is untouched")
}
