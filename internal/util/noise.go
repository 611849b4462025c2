package util

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Noise2D - источник двумерного шума в диапазоне [0, 1]
type Noise2D interface {
	Eval(x, z float64) float64
}

// PerlinNoise оборачивает генератор шума Перлина
type PerlinNoise struct {
	p *perlin.Perlin
}

// NewPerlinNoise создаёт генератор шума Перлина с указанным сидом
func NewPerlinNoise(seed int64) *PerlinNoise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &PerlinNoise{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Eval возвращает значение шума Перлина (от 0 до 1)
func (n *PerlinNoise) Eval(x, z float64) float64 {
	// Noise2D отдаёт примерно [-1, 1]
	return clamp01((n.p.Noise2D(x, z) + 1.0) / 2.0)
}

// SimplexNoise оборачивает OpenSimplex
type SimplexNoise struct {
	n opensimplex.Noise
}

// NewSimplexNoise создаёт генератор OpenSimplex с указанным сидом
func NewSimplexNoise(seed int64) *SimplexNoise {
	return &SimplexNoise{n: opensimplex.NewNormalized(seed)}
}

// Eval возвращает значение OpenSimplex (от 0 до 1)
func (n *SimplexNoise) Eval(x, z float64) float64 {
	return clamp01(n.n.Eval2(x, z))
}

// FractalNoise складывает несколько октав базового шума
func FractalNoise(src Noise2D, x, z float64, octaves int, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	total, amplitude, frequency, norm := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		total += src.Eval(x*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / norm
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
