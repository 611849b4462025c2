package meshing

import (
	"github.com/annel0/voxel-streamer/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Face обозначает одну из шести граней вокселя
type Face int

const (
	FaceEast  Face = iota // +X
	FaceWest              // -X
	FaceUp                // +Y
	FaceDown              // -Y
	FaceSouth             // +Z
	FaceNorth             // -Z
)

// faceGeometry - предвычисленная геометрия грани
type faceGeometry struct {
	dir     vec.Vec3
	normal  mgl32.Vec3
	corners [4]vec.Vec3 // углы единичного куба, обход против часовой стрелки снаружи
	// aoSamples[v] = {сторона1, сторона2, угол} относительно вокселя
	aoSamples [4][3]vec.Vec3
}

// faces - таблица 6 граней × 4 вершины
var faces = buildFaceTable()

func buildFaceTable() [6]faceGeometry {
	defs := [6]struct {
		dir     vec.Vec3
		corners [4]vec.Vec3
	}{
		FaceEast:  {vec.Vec3{X: 1}, [4]vec.Vec3{{X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 0, Z: 1}}},
		FaceWest:  {vec.Vec3{X: -1}, [4]vec.Vec3{{X: 0, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 0}}},
		FaceUp:    {vec.Vec3{Y: 1}, [4]vec.Vec3{{X: 0, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 0}}},
		FaceDown:  {vec.Vec3{Y: -1}, [4]vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}}},
		FaceSouth: {vec.Vec3{Z: 1}, [4]vec.Vec3{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}}},
		FaceNorth: {vec.Vec3{Z: -1}, [4]vec.Vec3{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}}},
	}

	var table [6]faceGeometry
	for f, def := range defs {
		fg := faceGeometry{
			dir:     def.dir,
			normal:  mgl32.Vec3{float32(def.dir.X), float32(def.dir.Y), float32(def.dir.Z)},
			corners: def.corners,
		}

		t1, t2 := tangentAxes(def.dir)
		for v, c := range def.corners {
			s1 := 2*axis(c, t1) - 1
			s2 := 2*axis(c, t2) - 1
			side1 := def.dir.Add(unit(t1).Scale(s1))
			side2 := def.dir.Add(unit(t2).Scale(s2))
			fg.aoSamples[v] = [3]vec.Vec3{side1, side2, side1.Add(unit(t2).Scale(s2))}
		}
		table[f] = fg
	}
	return table
}

// tangentAxes возвращает две оси, лежащие в плоскости грани (0=X, 1=Y, 2=Z)
func tangentAxes(dir vec.Vec3) (int, int) {
	switch {
	case dir.X != 0:
		return 1, 2
	case dir.Y != 0:
		return 0, 2
	default:
		return 0, 1
	}
}

func axis(v vec.Vec3, a int) int {
	switch a {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func unit(a int) vec.Vec3 {
	switch a {
	case 0:
		return vec.Vec3{X: 1}
	case 1:
		return vec.Vec3{Y: 1}
	default:
		return vec.Vec3{Z: 1}
	}
}
