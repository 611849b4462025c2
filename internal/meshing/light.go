package meshing

import (
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/annel0/voxel-streamer/internal/world/chunk"
)

var lightDirs = [6]vec.Vec3{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
}

// PropagateSunlight заполняет уровни солнечного света внутри одного чанка.
// Колонки освещаются сверху до первого твёрдого блока, затем свет
// растекается в ширину с затуханием на 1 за шаг.
// TODO: распространение через границы чанков (нужны данные соседей после их генерации).
func PropagateSunlight(d *chunk.Data) {
	queue := make([]vec.Vec3, 0, chunk.Size*chunk.Size*8)

	for z := 0; z < chunk.Size; z++ {
		for x := 0; x < chunk.Size; x++ {
			lit := true
			for y := chunk.Height - 1; y >= 0; y-- {
				if d.At(x, y, z).Solid {
					lit = false
				}
				if lit {
					d.SetSunlight(x, y, z, chunk.MaxLight)
					queue = append(queue, vec.Vec3{X: x, Y: y, Z: z})
				} else {
					d.SetSunlight(x, y, z, 0)
				}
			}
		}
	}

	for head := 0; head < len(queue); head++ {
		p := queue[head]
		level := int(d.At(p.X, p.Y, p.Z).Sunlight)
		if level <= 1 {
			continue
		}
		for _, dir := range lightDirs {
			q := p.Add(dir)
			if !chunk.InBounds(q.X, q.Y, q.Z) {
				continue
			}
			nb := d.At(q.X, q.Y, q.Z)
			if nb.Solid || int(nb.Sunlight) >= level-1 {
				continue
			}
			d.SetSunlight(q.X, q.Y, q.Z, uint8(level-1))
			queue = append(queue, q)
		}
	}
}
