package testsuite

// Hand-rolled fixture encoders, duplicated from the vm/wasm packages' own
// test-only helpers since each package builds its fixtures independently.

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func section(id byte, payload []byte) []byte {
	return append([]byte{id}, append(uleb(uint32(len(payload))), payload...)...)
}

func vec(items ...[]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

func exportFunc(name string, idx uint32) []byte {
	return append(append(uleb(uint32(len(name))), []byte(name)...), 0x00 /*ExternFunc*/, byte(idx))
}

func codeEntry(locals, body []byte) []byte {
	code := append(locals, body...)
	return append(uleb(uint32(len(code))), code...)
}

// buildAddDivModule exports add(a,b) = a+b and div_u(a,b) = a/b (unsigned,
// traps on divide by zero).
func buildAddDivModule() []byte {
	typeSec := section(1, vec([]byte{0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f})) // (i32,i32)->i32
	funcSec := section(3, vec(uleb(0), uleb(0)))
	exportSec := section(7, vec(
		exportFunc("add", 0),
		exportFunc("div_u", 1),
	))
	addBody := []byte{0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B}   // i32.add
	divBody := []byte{0x20, 0x00, 0x20, 0x01, 0x6E, 0x0B}   // i32.div_u
	codeSec := section(10, vec(
		codeEntry(uleb(0), addBody),
		codeEntry(uleb(0), divBody),
	))

	out := header()
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}
