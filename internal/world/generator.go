package world

import (
	"fmt"
	"strings"

	"github.com/annel0/voxel-streamer/internal/util"
	"github.com/annel0/voxel-streamer/internal/world/block"
	"github.com/annel0/voxel-streamer/internal/world/chunk"
)

// TerrainGenerator задаёт высоту поверхности для каждой колонки мира.
// Реализации должны быть детерминированными и безопасными для вызова из нескольких горутин.
type TerrainGenerator interface {
	HeightAt(worldX, worldZ int) int
}

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeMountains
	BiomeWater
)

// BiomeProvider - необязательное расширение генератора для выбора верхнего блока
type BiomeProvider interface {
	BiomeAt(worldX, worldZ int) BiomeType
}

// Константы генерации
const (
	DefaultSeaLevel = 48
	DirtDepth       = 3                 // Толщина слоя земли под поверхностью
	SnowLine        = chunk.Height - 24 // Выше - снежные вершины
)

// Порог значения шума биомов
const (
	desertThreshold   = 0.62
	mountainThreshold = 0.30
)

// TerrainOptions описывает параметры генератора ландшафта
type TerrainOptions struct {
	Kind       string  `yaml:"kind"`        // perlin | simplex | flat
	Seed       int64   `yaml:"seed"`        // Сид для генерации шума
	BaseHeight int     `yaml:"base_height"` // Средняя высота поверхности
	Amplitude  int     `yaml:"amplitude"`   // Размах высот
	Scale      float64 `yaml:"scale"`       // Масштаб основного шума
	BiomeScale float64 `yaml:"biome_scale"` // Масштаб шума биомов
	Octaves    int     `yaml:"octaves"`
}

// DefaultTerrainOptions возвращает параметры по умолчанию
func DefaultTerrainOptions() TerrainOptions {
	return TerrainOptions{
		Kind:       "perlin",
		Seed:       1337,
		BaseHeight: 56,
		Amplitude:  40,
		Scale:      0.01,
		BiomeScale: 0.004,
		Octaves:    4,
	}
}

// NewTerrain создаёт генератор по имени реализации
func NewTerrain(opts TerrainOptions) (TerrainGenerator, error) {
	switch strings.ToLower(opts.Kind) {
	case "", "perlin":
		return NewPerlinTerrain(opts), nil
	case "simplex", "opensimplex":
		return NewSimplexTerrain(opts), nil
	case "flat":
		return FlatTerrain{Height: opts.BaseHeight}, nil
	default:
		return nil, NewConfigError(fmt.Sprintf("unknown terrain kind %q", opts.Kind))
	}
}

// noiseTerrain - общая часть генераторов на основе шума
type noiseTerrain struct {
	height  util.Noise2D
	biome   util.Noise2D
	opts    TerrainOptions
	octaves int
}

func (t *noiseTerrain) HeightAt(worldX, worldZ int) int {
	v := util.FractalNoise(t.height, float64(worldX)*t.opts.Scale, float64(worldZ)*t.opts.Scale, t.octaves, 0.5)
	h := t.opts.BaseHeight + int(float64(t.opts.Amplitude)*(v-0.5)*2)
	if h < 1 {
		h = 1
	}
	if h > chunk.Height-1 {
		h = chunk.Height - 1
	}
	return h
}

func (t *noiseTerrain) BiomeAt(worldX, worldZ int) BiomeType {
	v := t.biome.Eval(float64(worldX)*t.opts.BiomeScale, float64(worldZ)*t.opts.BiomeScale)
	switch {
	case v > desertThreshold:
		return BiomeDesert
	case v < mountainThreshold:
		return BiomeMountains
	default:
		return BiomePlains
	}
}

// PerlinTerrain генерирует высоты шумом Перлина
type PerlinTerrain struct {
	noiseTerrain
}

// NewPerlinTerrain создаёт генератор на шуме Перлина
func NewPerlinTerrain(opts TerrainOptions) *PerlinTerrain {
	return &PerlinTerrain{noiseTerrain{
		height:  util.NewPerlinNoise(opts.Seed),
		biome:   util.NewPerlinNoise(opts.Seed + 42),
		opts:    opts,
		octaves: opts.Octaves,
	}}
}

// SimplexTerrain генерирует высоты шумом OpenSimplex
type SimplexTerrain struct {
	noiseTerrain
}

// NewSimplexTerrain создаёт генератор на шуме OpenSimplex
func NewSimplexTerrain(opts TerrainOptions) *SimplexTerrain {
	return &SimplexTerrain{noiseTerrain{
		height:  util.NewSimplexNoise(opts.Seed),
		biome:   util.NewSimplexNoise(opts.Seed + 42),
		opts:    opts,
		octaves: opts.Octaves,
	}}
}

// FlatTerrain - плоский мир постоянной высоты
type FlatTerrain struct {
	Height int
}

func (f FlatTerrain) HeightAt(_, _ int) int {
	return f.Height
}

// FillChunk заполняет чанк колоннами по высотам генератора.
// Колонка: камень, DirtDepth блоков земли, верхний блок по биому и вода до уровня моря.
func FillChunk(gen TerrainGenerator, d *chunk.Data, seaLevel int) {
	biomes, _ := gen.(BiomeProvider)
	stone := block.New(block.StoneBlockID)
	dirt := block.New(block.DirtBlockID)
	water := block.New(block.WaterBlockID)

	for z := 0; z < chunk.Size; z++ {
		for x := 0; x < chunk.Size; x++ {
			wx, wz := d.Origin.X+x, d.Origin.Z+z
			h := gen.HeightAt(wx, wz)
			if h >= chunk.Height {
				h = chunk.Height - 1
			}

			biome := BiomePlains
			if biomes != nil {
				biome = biomes.BiomeAt(wx, wz)
			}
			if h < seaLevel {
				biome = BiomeWater
			}
			top := block.New(topBlockFor(biome, h, seaLevel))

			for y := 0; y <= h; y++ {
				switch {
				case y == h:
					d.Set(x, y, z, top)
				case y >= h-DirtDepth && biome != BiomeMountains:
					d.Set(x, y, z, dirt)
				default:
					d.Set(x, y, z, stone)
				}
			}
			for y := h + 1; y <= seaLevel && y < chunk.Height; y++ {
				d.Set(x, y, z, water)
			}
		}
	}
}

// topBlockFor возвращает верхний блок колонки
func topBlockFor(biome BiomeType, height, seaLevel int) block.BlockID {
	switch {
	case height >= SnowLine:
		return block.SnowBlockID
	case biome == BiomeWater || height <= seaLevel+1:
		return block.SandBlockID
	case biome == BiomeDesert:
		return block.SandBlockID
	case biome == BiomeMountains:
		return block.StoneBlockID
	default:
		return block.GrassBlockID
	}
}
