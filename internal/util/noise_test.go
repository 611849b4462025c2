package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseRangeAndDeterminism(t *testing.T) {
	sources := map[string][2]Noise2D{
		"perlin":  {NewPerlinNoise(42), NewPerlinNoise(42)},
		"simplex": {NewSimplexNoise(42), NewSimplexNoise(42)},
	}
	for name, pair := range sources {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				x, z := float64(i)*0.37, float64(i)*-0.91
				v := pair[0].Eval(x, z)
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
				assert.Equal(t, v, pair[1].Eval(x, z), "один сид - одинаковый шум")
			}
		})
	}
}

func TestFractalNoiseRange(t *testing.T) {
	src := NewSimplexNoise(7)
	for i := 0; i < 100; i++ {
		v := FractalNoise(src, float64(i)*0.13, float64(i)*0.29, 4, 0.5)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, src.Eval(1.5, 2.5), FractalNoise(src, 1.5, 2.5, 0, 0.5))
}
