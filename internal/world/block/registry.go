package block

import "github.com/go-gl/mathgl/mgl32"

// Properties описывает статические свойства типа блока
type Properties struct {
	Name   string     // Отображаемое имя
	Solid  bool       // Блок перекрывает соседние грани и свет
	Liquid bool       // Блок рисуется в прозрачной геометрии
	Color  mgl32.Vec4 // Базовый цвет вершин (RGBA, 0..1)
}

// registry заполняется только из init(), после чего читается конкурентно без блокировок
var registry = make(map[BlockID]Properties)

// Register добавляет свойства блока в регистр
func Register(id BlockID, props Properties) {
	registry[id] = props
}

// Get возвращает свойства для указанного ID
func Get(id BlockID) (Properties, bool) {
	props, exists := registry[id]
	return props, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// ColorOf возвращает базовый цвет блока (пурпурный для неизвестных ID)
func ColorOf(id BlockID) mgl32.Vec4 {
	if props, ok := registry[id]; ok {
		return props.Color
	}
	return mgl32.Vec4{1, 0, 1, 1}
}

// BlockID представляет идентификатор блока
type BlockID uint8

// Константы ID блоков
const (
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	DirtBlockID                 // 2
	GrassBlockID                // 3
	SandBlockID                 // 4
	SnowBlockID                 // 5
	WaterBlockID                // 6 - единственная жидкость
)

func init() {
	Register(AirBlockID, Properties{Name: "Air"})
	Register(StoneBlockID, Properties{Name: "Stone", Solid: true, Color: mgl32.Vec4{0.50, 0.50, 0.52, 1}})
	Register(DirtBlockID, Properties{Name: "Dirt", Solid: true, Color: mgl32.Vec4{0.47, 0.33, 0.21, 1}})
	Register(GrassBlockID, Properties{Name: "Grass", Solid: true, Color: mgl32.Vec4{0.36, 0.62, 0.25, 1}})
	Register(SandBlockID, Properties{Name: "Sand", Solid: true, Color: mgl32.Vec4{0.86, 0.80, 0.56, 1}})
	Register(SnowBlockID, Properties{Name: "Snow", Solid: true, Color: mgl32.Vec4{0.95, 0.96, 0.98, 1}})
	Register(WaterBlockID, Properties{Name: "Water", Liquid: true, Color: mgl32.Vec4{0.20, 0.40, 0.85, 0.6}})
}
