package model

import "fmt"

// SlotID человекочитаемый номер ячейки выдачи распечатки, например "A-01"
type SlotID string

// SlotCounter единственная запись со следующим индексом ячейки (config/print_slots)
type SlotCounter struct {
	CurrentSlotIndex int `json:"currentSlotIndex"`
}

// RenderSlotID строит номер ячейки по индексу счётчика.
// Группа = index / slotsPerGroup (буква начиная с 'A'), номер внутри группы начинается с 1.
func RenderSlotID(index, slotsPerGroup int) SlotID {
	group := index / slotsPerGroup
	number := index%slotsPerGroup + 1
	return SlotID(fmt.Sprintf("%c-%02d", rune('A'+group), number))
}

func (s SlotID) String() string {
	return string(s)
}
