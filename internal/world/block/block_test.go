package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryDefaults(t *testing.T) {
	for _, id := range []BlockID{AirBlockID, StoneBlockID, DirtBlockID, GrassBlockID, SandBlockID, SnowBlockID, WaterBlockID} {
		assert.True(t, IsValidBlockID(id), "блок %d должен быть зарегистрирован", id)
	}
	assert.False(t, IsValidBlockID(BlockID(200)))

	air, _ := Get(AirBlockID)
	assert.False(t, air.Solid)
	water, _ := Get(WaterBlockID)
	assert.False(t, water.Solid)
	assert.True(t, water.Liquid)
}

func TestNewBlock(t *testing.T) {
	stone := New(StoneBlockID)
	assert.True(t, stone.Solid)
	assert.False(t, stone.IsAir())
	assert.False(t, stone.IsLiquid())

	water := New(WaterBlockID)
	assert.False(t, water.Solid)
	assert.True(t, water.IsLiquid())

	assert.True(t, Air.IsAir())
	assert.Equal(t, uint8(7), Air.WithSunlight(7).Sunlight)
	assert.Equal(t, uint8(0), Air.Sunlight, "WithSunlight не должен менять исходный блок")
}

func TestColorOfUnknown(t *testing.T) {
	c := ColorOf(BlockID(250))
	assert.Equal(t, float32(1), c[0])
	assert.Equal(t, float32(1), c[2])
}
