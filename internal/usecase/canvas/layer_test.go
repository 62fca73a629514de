package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/flowviz/internal/domain"
)

func TestLayer_BatchDrawCoalesces(t *testing.T) {
	layer := NewLayer(domain.Stage{Width: 1200, Height: 800})
	ch, unsubscribe := layer.Subscribe()
	defer unsubscribe()

	layer.BatchDraw()
	layer.BatchDraw()
	layer.BatchDraw()

	require.Len(t, ch, 1)
	assert.Equal(t, uint64(3), <-ch)
	assert.Equal(t, uint64(3), layer.Version())
}

func TestLayer_Unsubscribe(t *testing.T) {
	layer := NewLayer(domain.Stage{Width: 10, Height: 10})
	ch, unsubscribe := layer.Subscribe()
	assert.Equal(t, 1, layer.Subscribers())

	unsubscribe()
	unsubscribe()

	assert.Equal(t, 0, layer.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	// no subscribers left, must not block
	layer.BatchDraw()
	assert.Equal(t, domain.Stage{Width: 10, Height: 10}, layer.Stage())
}
