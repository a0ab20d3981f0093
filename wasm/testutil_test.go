package wasm

// Tiny hand-rolled encoders used only by this package's tests to build
// fixture modules without shelling out to wat2wasm.

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

func sleb(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
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

// buildAddModule encodes the "add(a:i32,b:i32)->i32 = local.get 0; local.get
// 1; i32.add" module from spec.md's scenario 1, exported as "add".
func buildAddModule() []byte {
	// type section: [(i32,i32)->i32]
	params := vec([]byte{byte(ValI32)}, []byte{byte(ValI32)})
	results := vec([]byte{byte(ValI32)})
	funcType := append([]byte{funcTypeForm}, append(params, results...)...)
	typeSec := section(1, vec(funcType))

	funcSec := section(3, vec(uleb(0)))

	exportSec := section(7, vec(append(append(uleb(uint32(len("add"))), []byte("add")...), ExternFunc, 0x00)))

	body := []byte{
		byte(OpLocalGet), 0x00,
		byte(OpLocalGet), 0x01,
		byte(OpI32Add),
		byte(OpEnd),
	}
	code := append(uleb(0), body...) // 0 local-entry groups
	codeEntry := append(uleb(uint32(len(code))), code...)
	codeSec := section(10, vec(codeEntry))

	out := header()
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}
