package vec

import "math"

// Vec2Float представляет позицию наблюдателя в мировых координатах (плоскость XZ)
type Vec2Float struct {
	X, Z float64
}

// ToChunkCoords возвращает координаты чанка, в котором находится точка
func (v Vec2Float) ToChunkCoords(chunkSize int) Vec2 {
	return Vec2{
		X: FloorDiv(int(math.Floor(v.X)), chunkSize),
		Z: FloorDiv(int(math.Floor(v.Z)), chunkSize),
	}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Z: v.Z + other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Z: v.Z * scalar}
}
