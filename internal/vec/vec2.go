package vec

// Vec2 представляет координаты чанка на сетке мира (плоскость XZ)
type Vec2 struct {
	X, Z int
}

// neighborOffsets задаёт фиксированный порядок восьми соседей чанка
var neighborOffsets = [8]Vec2{
	{X: -1, Z: -1}, {X: 0, Z: -1}, {X: 1, Z: -1},
	{X: -1, Z: 0}, {X: 1, Z: 0},
	{X: -1, Z: 1}, {X: 0, Z: 1}, {X: 1, Z: 1},
}

// NeighborOffsets возвращает смещения восьми соседей в порядке обхода
func NeighborOffsets() [8]Vec2 {
	return neighborOffsets
}

// NeighborIndex возвращает индекс смещения (dx, dz) в NeighborOffsets или -1
func NeighborIndex(dx, dz int) int {
	for i, off := range neighborOffsets {
		if off.X == dx && off.Z == dz {
			return i
		}
	}
	return -1
}

// Neighbors возвращает координаты восьми соседних чанков
func (v Vec2) Neighbors() [8]Vec2 {
	var out [8]Vec2
	for i, off := range neighborOffsets {
		out[i] = v.Add(off)
	}
	return out
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Z: v.Z - other.Z}
}

// ChebyshevDistance возвращает расстояние в "шагах короля" между чанками
func (v Vec2) ChebyshevDistance(other Vec2) int {
	dx := abs(v.X - other.X)
	dz := abs(v.Z - other.Z)
	if dx > dz {
		return dx
	}
	return dz
}

// IsNeighbor проверяет, что other является одним из восьми соседей
func (v Vec2) IsNeighbor(other Vec2) bool {
	return v != other && v.ChebyshevDistance(other) == 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// FloorDiv делит с округлением к минус бесконечности
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает неотрицательный остаток от деления
func FloorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
