package chunk

import (
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/world/block"
)

// Размеры чанка и диапазон освещения
const (
	Size     = 16  // Ширина и глубина чанка в блоках
	Height   = 128 // Высота чанка в блоках
	MaxLight = 15  // Максимальный уровень солнечного света

	volume = Size * Height * Size
)

// Data хранит воксели одного чанка.
// После генерации данные не изменяются и могут читаться из любых горутин.
type Data struct {
	Coord  vec.Vec2 // Координаты чанка на сетке
	Origin vec.Vec3 // Мировые координаты угла (minX, 0, minZ)
	blocks []block.Block
}

// New создаёт пустой (заполненный воздухом) чанк
func New(coord vec.Vec2) *Data {
	return &Data{
		Coord:  coord,
		Origin: vec.Vec3{X: coord.X * Size, Y: 0, Z: coord.Z * Size},
		blocks: make([]block.Block, volume),
	}
}

// InBounds проверяет, что локальные координаты лежат внутри чанка
func InBounds(x, y, z int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Height && z >= 0 && z < Size
}

func index(x, y, z int) int {
	return (y*Size+z)*Size + x
}

// At возвращает блок по локальным координатам; вне чанка возвращает воздух
func (d *Data) At(x, y, z int) block.Block {
	if !InBounds(x, y, z) {
		return block.Air
	}
	return d.blocks[index(x, y, z)]
}

// Set устанавливает блок по локальным координатам
func (d *Data) Set(x, y, z int, b block.Block) {
	if !InBounds(x, y, z) {
		return
	}
	d.blocks[index(x, y, z)] = b
}

// SetSunlight меняет только уровень света блока
func (d *Data) SetSunlight(x, y, z int, level uint8) {
	if !InBounds(x, y, z) {
		return
	}
	d.blocks[index(x, y, z)].Sunlight = level
}

// Fill заполняет прямоугольный объём [min, max] одним блоком
func (d *Data) Fill(min, max vec.Vec3, b block.Block) {
	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				d.Set(x, y, z, b)
			}
		}
	}
}

// HighestSolid возвращает высоту верхнего твёрдого блока колонки или -1
func (d *Data) HighestSolid(x, z int) int {
	for y := Height - 1; y >= 0; y-- {
		if d.At(x, y, z).Solid {
			return y
		}
	}
	return -1
}

// CountSolid возвращает число твёрдых блоков
func (d *Data) CountSolid() int {
	n := 0
	for i := range d.blocks {
		if d.blocks[i].Solid {
			n++
		}
	}
	return n
}

// WorldToLocal переводит мировые координаты блока в локальные координаты чанка
func WorldToLocal(worldX, worldZ int) (chunkCoord vec.Vec2, localX, localZ int) {
	chunkCoord = vec.Vec2{X: vec.FloorDiv(worldX, Size), Z: vec.FloorDiv(worldZ, Size)}
	return chunkCoord, vec.FloorMod(worldX, Size), vec.FloorMod(worldZ, Size)
}
