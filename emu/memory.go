package emu

import (
	"encoding/binary"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// DefaultMemorySize is the capacity of a memory created without an explicit
// size.
const DefaultMemorySize = 1 << 20

// Memory is a fixed-size, byte-addressable, little-endian memory backed by
// an Akita storage.
type Memory struct {
	storage  *mem.Storage
	capacity uint32
}

// NewMemory creates a zero-filled memory of DefaultMemorySize bytes.
func NewMemory() *Memory {
	return NewMemoryWithSize(DefaultMemorySize)
}

// NewMemoryWithSize creates a zero-filled memory of capacity bytes.
func NewMemoryWithSize(capacity uint32) *Memory {
	return &Memory{
		storage:  mem.NewStorage(uint64(capacity)),
		capacity: capacity,
	}
}

// Capacity returns the size of the memory in bytes.
func (m *Memory) Capacity() uint32 {
	return m.capacity
}

// Check validates a size-byte access at addr. Word accesses must be 4-byte
// aligned; alignment is checked before bounds.
func (m *Memory) Check(addr, size uint32) error {
	if size == 4 && addr%4 != 0 {
		return &ErrMemory{Addr: addr, Size: size, Err: ErrMisalignedAccess}
	}
	return m.checkBounds(addr, size)
}

func (m *Memory) checkBounds(addr, size uint32) error {
	last := uint64(addr) + uint64(size) - 1
	if size == 0 || last >= uint64(m.capacity) {
		return &ErrMemory{Addr: addr, Size: size, Err: ErrOutOfBounds}
	}
	return nil
}

// Read reads a size-byte little-endian value (size 1, 2 or 4).
func (m *Memory) Read(addr, size uint32) (uint32, error) {
	if err := m.Check(addr, size); err != nil {
		return 0, err
	}

	data, err := m.ReadBytes(addr, size)
	if err != nil {
		return 0, err
	}

	switch size {
	case 1:
		return uint32(data[0]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(data)), nil
	default:
		return binary.LittleEndian.Uint32(data), nil
	}
}

// Write writes the low size bytes of value, little-endian.
func (m *Memory) Write(addr, size, value uint32) error {
	if err := m.Check(addr, size); err != nil {
		return err
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return m.WriteBytes(addr, buf[:size])
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	v, err := m.Read(addr, 1)
	return uint8(v), err
}

// Read16 reads a half-word.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	v, err := m.Read(addr, 2)
	return uint16(v), err
}

// Read32 reads an aligned word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	return m.Read(addr, 4)
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	return m.Write(addr, 1, uint32(value))
}

// Write16 writes a half-word.
func (m *Memory) Write16(addr uint32, value uint16) error {
	return m.Write(addr, 2, uint32(value))
}

// Write32 writes an aligned word.
func (m *Memory) Write32(addr, value uint32) error {
	return m.Write(addr, 4, value)
}

// ReadBytes copies n bytes starting at addr. Bulk copies are only bounds
// checked.
func (m *Memory) ReadBytes(addr, n uint32) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if err := m.checkBounds(addr, n); err != nil {
		return nil, err
	}

	data, err := m.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return nil, &ErrMemory{Addr: addr, Size: n, Err: ErrOutOfBounds}
	}

	return data, nil
}

// WriteBytes copies data into memory starting at addr.
func (m *Memory) WriteBytes(addr uint32, data []byte) error {
	size := uint32(len(data))
	if size == 0 {
		return nil
	}
	if err := m.checkBounds(addr, size); err != nil {
		return err
	}

	if err := m.storage.Write(uint64(addr), data); err != nil {
		return &ErrMemory{Addr: addr, Size: size, Err: ErrOutOfBounds}
	}

	return nil
}
