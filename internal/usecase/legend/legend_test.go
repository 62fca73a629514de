package legend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/flowviz/internal/domain"
)

func TestGroup_PinnedTopRight(t *testing.T) {
	r := NewRenderer(domain.Stage{Width: 1200, Height: 800})

	g := r.Group()

	assert.Equal(t, domain.Point{X: 1030, Y: 10}, g.Position)
	assert.Equal(t, float64(PanelWidth), g.Size.W)
	require.Len(t, g.Swatches, 7)
	assert.Equal(t, domain.CategoryImposto, g.Swatches[0].Key)
	assert.Equal(t, domain.Point{X: 1040, Y: 40}, g.Swatches[0].Position)
	assert.Equal(t, g.Swatches[0].Position.Y+RowHeight, g.Swatches[1].Position.Y)
	assert.LessOrEqual(t, g.Position.Y+g.Size.H, 800.0)
}

func TestRenderHTML(t *testing.T) {
	r := NewRenderer(domain.Stage{Width: 1200, Height: 800})

	out, err := r.RenderHTML()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<strong>Legenda:</strong><br>"))
	assert.Equal(t, 7, strings.Count(out, "<span "))
	assert.Contains(t, out, "background:#e74c3c;border-radius:3px")
	assert.Contains(t, out, "Salário<br>")
	assert.Contains(t, out, "Financiamento<br>")
}
