package models

import "fmt"

// ID is a generation-tagged entity handle: the arena slot index in the high
// 32 bits and the slot generation in the low 32 bits. The zero ID is never
// issued.
type ID uint64

// NoID is the handle of an unregistered entity.
const NoID ID = 0

func newID(index, generation uint32) ID {
	return ID(uint64(index)<<32 | uint64(generation))
}

func (id ID) Index() uint32      { return uint32(id >> 32) }
func (id ID) Generation() uint32 { return uint32(id) }

func (id ID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}
