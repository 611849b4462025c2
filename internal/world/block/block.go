package block

// Block хранит состояние одного вокселя
type Block struct {
	Type     BlockID // Тип блока
	Solid    bool    // Копия Properties.Solid, чтобы не ходить в регистр в горячем цикле
	Sunlight uint8   // Уровень солнечного света 0..15
}

// Air - пустой блок без света
var Air = Block{Type: AirBlockID}

// New создаёт блок указанного типа
func New(id BlockID) Block {
	props, _ := Get(id)
	return Block{Type: id, Solid: props.Solid}
}

// IsAir возвращает true для воздуха
func (b Block) IsAir() bool {
	return b.Type == AirBlockID
}

// IsLiquid возвращает true для жидкостей (вода)
func (b Block) IsLiquid() bool {
	props, _ := Get(b.Type)
	return props.Liquid
}

// WithSunlight возвращает копию блока с новым уровнем света
func (b Block) WithSunlight(level uint8) Block {
	b.Sunlight = level
	return b
}
