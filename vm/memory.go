package vm

const (
	// PageSize is the Wasm linear memory page size in bytes (64 KiB).
	PageSize = 65536
	// MaxPages is the hard upper bound on memory pages addressable by an
	// i32 address space (2^32 bytes / PageSize), per spec §4.5.
	MaxPages = 65536
)

// Memory is the single linear memory instance a Runtime owns (spec.md
// explicitly scopes multi-memory out as a Non-goal).
type Memory struct {
	data    []byte
	maxPage uint32 // declared maximum, used only when hasMax; MaxPages is always the ceiling
	hasMax  bool
}

// NewMemory allocates a Memory with minPages initial pages and the given
// optional maximum.
func NewMemory(minPages uint32, maxPages uint32, hasMax bool) *Memory {
	return &Memory{
		data:    make([]byte, int(minPages)*PageSize),
		maxPage: maxPages,
		hasMax:  hasMax,
	}
}

// Size returns the current memory size in pages.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data) / PageSize)
}

// Grow attempts to grow memory by delta pages, returning the previous size
// in pages, or -1 if the growth would exceed the declared maximum or the
// address-space ceiling (trapping is the caller's choice: memory.grow
// returns -1 on the stack rather than trapping, per the Wasm spec).
func (m *Memory) Grow(delta uint32) int32 {
	cur := m.Size()
	next := uint64(cur) + uint64(delta)
	if next > MaxPages {
		return -1
	}
	if m.hasMax && next > uint64(m.maxPage) {
		return -1
	}
	m.data = append(m.data, make([]byte, int(delta)*PageSize)...)
	return int32(cur)
}

// bounds checks that [addr, addr+n) lies within the allocated memory,
// computing in 64 bits so a wraparound in addr+n can never falsely pass.
func (m *Memory) bounds(addr uint64, n uint64) error {
	end := addr + n
	if end < addr || end > uint64(len(m.data)) {
		return ErrOutOfBoundsAt(addr, n)
	}
	return nil
}

func (m *Memory) read(addr uint64, n uint64) ([]byte, error) {
	if err := m.bounds(addr, n); err != nil {
		return nil, err
	}
	return m.data[addr : addr+n], nil
}

// LoadByte reads a single byte.
func (m *Memory) LoadByte(addr uint64) (byte, error) {
	b, err := m.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Load reads width bytes at addr as a little-endian unsigned integer.
func (m *Memory) Load(addr uint64, width uint64) (uint64, error) {
	b, err := m.read(addr, width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := uint64(0); i < width; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

// Store writes the low width bytes of v to addr, little-endian.
func (m *Memory) Store(addr uint64, width uint64, v uint64) error {
	if err := m.bounds(addr, width); err != nil {
		return err
	}
	for i := uint64(0); i < width; i++ {
		m.data[addr+i] = byte(v >> (8 * i))
	}
	return nil
}

// Fill implements memory.fill: writes n copies of the low byte of val
// starting at addr.
func (m *Memory) Fill(addr uint64, val byte, n uint64) error {
	b, err := m.read(addr, n)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = val
	}
	return nil
}

// Copy implements memory.copy: copies n bytes from src to dst, correctly
// handling overlap (the Wasm spec requires memmove semantics).
func (m *Memory) Copy(dst, src, n uint64) error {
	if err := m.bounds(dst, n); err != nil {
		return err
	}
	if err := m.bounds(src, n); err != nil {
		return err
	}
	copy(m.data[dst:dst+n], m.data[src:src+n])
	return nil
}

// Init implements memory.init: copies n bytes from a passive data segment's
// bytes (starting at srcOffset) into memory at dst.
func (m *Memory) Init(dst uint64, segment []byte, srcOffset, n uint64) error {
	if srcOffset+n > uint64(len(segment)) {
		return ErrOutOfBoundsAt(srcOffset, n)
	}
	if err := m.bounds(dst, n); err != nil {
		return err
	}
	copy(m.data[dst:dst+n], segment[srcOffset:srcOffset+n])
	return nil
}

// Slice returns the raw bytes in [start, end) for host functions (e.g.
// console.log) that need to read a string straight out of linear memory.
func (m *Memory) Slice(start, end uint64) ([]byte, error) {
	if end < start {
		return nil, ErrOutOfBoundsAt(start, 0)
	}
	return m.read(start, end-start)
}
