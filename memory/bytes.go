package memory

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/hcz/wasm-shmem/errors"
)

// bytesMemory implements shmem.Memory over a plain Go byte slice. The slice
// is allocated once and never grows, so views returned by Read stay valid.
type bytesMemory struct {
	data []byte
}

func newBytesMemory(size uint32) *bytesMemory {
	return &bytesMemory{data: make([]byte, size)}
}

func (m *bytesMemory) Size() uint32 {
	return uint32(len(m.data))
}

func (m *bytesMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return errors.OutOfBounds(errors.PhaseAccess, offset, length, uint32(len(m.data)))
	}
	return nil
}

func (m *bytesMemory) Read(offset, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length : offset+length], nil
}

func (m *bytesMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *bytesMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *bytesMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[offset:]), nil
}

func (m *bytesMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

func (m *bytesMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *bytesMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *bytesMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[offset:], value)
	return nil
}

func (m *bytesMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}

func (m *bytesMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}

func (m *bytesMemory) Word(offset uint32) (*atomic.Uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return nil, err
	}
	if offset%4 != 0 {
		return nil, errors.Misaligned(errors.PhaseAccess, offset, 4)
	}
	return (*atomic.Uint32)(unsafe.Pointer(&m.data[offset])), nil
}
