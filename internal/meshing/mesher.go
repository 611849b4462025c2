package meshing

import (
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/world/block"
	"github.com/annel0/voxel-streamer/internal/world/chunk"
	"github.com/go-gl/mathgl/mgl32"
)

// occlusionCurve переводит число твёрдых сэмплов (0..3) в множитель яркости
var occlusionCurve = [4]float32{1.0, 0.35, 0.35, 0.15}

// OcclusionFactor возвращает множитель AO для вершины по трём сэмплам
func OcclusionFactor(side1, side2, corner bool) float32 {
	n := 0
	for _, s := range [3]bool{side1, side2, corner} {
		if s {
			n++
		}
	}
	return occlusionCurve[n]
}

// Neighborhood - чанк и снимки восьми его соседей.
// Neighbors упорядочены как vec.NeighborOffsets; nil считается воздухом.
type Neighborhood struct {
	Center    *chunk.Data
	Neighbors [8]*chunk.Data
}

// grid даёт доступ к вокселям в диапазоне [-Size, 2*Size) по X и Z
type grid struct {
	cells [9]*chunk.Data // индекс (dz+1)*3 + (dx+1)
}

func newGrid(n Neighborhood) grid {
	var g grid
	g.cells[4] = n.Center
	for i, off := range vec.NeighborOffsets() {
		g.cells[(off.Z+1)*3+(off.X+1)] = n.Neighbors[i]
	}
	return g
}

// bedrock закрывает грани на дне мира
var bedrock = block.Block{Type: block.StoneBlockID, Solid: true}

// at возвращает блок по координате окрестности.
// Выше мира - воздух под открытым небом, ниже дна - bedrock.
func (g *grid) at(x, y, z int) block.Block {
	if y >= chunk.Height {
		return block.Air.WithSunlight(chunk.MaxLight)
	}
	if y < 0 {
		return bedrock
	}
	dx, dz := 0, 0
	if x < 0 {
		dx = -1
	} else if x >= chunk.Size {
		dx = 1
	}
	if z < 0 {
		dz = -1
	} else if z >= chunk.Size {
		dz = 1
	}
	d := g.cells[(dz+1)*3+(dx+1)]
	if d == nil {
		return block.Air
	}
	return d.At(x-dx*chunk.Size, y, z-dz*chunk.Size)
}

func (g *grid) solid(x, y, z int) bool {
	return g.at(x, y, z).Solid
}

// Build строит непрозрачную и прозрачную геометрию чанка.
// Пустой результат означает, что у чанка нет видимых граней.
func Build(n Neighborhood) Result {
	if n.Center == nil {
		return Result{}
	}

	g := newGrid(n)
	opaque := getMeshBuffer()
	transparent := getMeshBuffer()
	defer putMeshBuffer(opaque)
	defer putMeshBuffer(transparent)

	for y := 0; y < chunk.Height; y++ {
		for z := 0; z < chunk.Size; z++ {
			for x := 0; x < chunk.Size; x++ {
				b := n.Center.At(x, y, z)
				if b.IsAir() {
					continue
				}
				liquid := !b.Solid && b.IsLiquid()
				if !b.Solid && !liquid {
					continue
				}

				buf := opaque
				if liquid {
					buf = transparent
				}
				base := block.ColorOf(b.Type)

				for f := range faces {
					fg := &faces[f]
					nb := g.at(x+fg.dir.X, y+fg.dir.Y, z+fg.dir.Z)
					if b.Solid && nb.Solid {
						continue
					}
					if liquid && !nb.IsAir() {
						continue
					}
					emitFace(buf, &g, fg, x, y, z, base, nb.Sunlight)
				}
			}
		}
	}

	return Result{
		Opaque:      opaque.geometry.Clone(),
		Transparent: transparent.geometry.Clone(),
	}
}

// emitFace добавляет одну грань с AO и солнечным светом соседней клетки
func emitFace(buf *meshBuffer, g *grid, fg *faceGeometry, x, y, z int, base mgl32.Vec4, sunlight uint8) {
	light := float32(sunlight) / float32(chunk.MaxLight)

	var corners [4]mgl32.Vec3
	var colors [4]mgl32.Vec4
	var ao [4]float32
	for v := 0; v < 4; v++ {
		s := fg.aoSamples[v]
		ao[v] = OcclusionFactor(
			g.solid(x+s[0].X, y+s[0].Y, z+s[0].Z),
			g.solid(x+s[1].X, y+s[1].Y, z+s[1].Z),
			g.solid(x+s[2].X, y+s[2].Y, z+s[2].Z),
		)
		c := fg.corners[v]
		corners[v] = mgl32.Vec3{float32(x + c.X), float32(y + c.Y), float32(z + c.Z)}

		k := ao[v] * light
		colors[v] = mgl32.Vec4{base[0] * k, base[1] * k, base[2] * k, base[3]}
	}

	// Разбиваем по диагонали с более ярким концом, чтобы AO не давал "ромбов"
	flip := ao[0]+ao[2] < ao[1]+ao[3]
	buf.addQuad(corners, fg.normal, colors, ao, flip)
}
