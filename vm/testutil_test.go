package vm

// Hand-rolled fixture encoders, duplicated from the wasm package's own
// test-only helpers since each package's tests build its fixtures
// independently rather than sharing an internal-only dependency.

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

func funcType1to1() []byte {
	return []byte{0x60, 0x01, 0x7f, 0x01, 0x7f} // (i32)->i32
}

func funcType2to1() []byte {
	return []byte{0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f} // (i32,i32)->i32
}

func exportFunc(name string, idx uint32) []byte {
	return append(append(uleb(uint32(len(name))), []byte(name)...), 0x00 /*ExternFunc*/, byte(idx))
}

func codeEntry(locals, body []byte) []byte {
	code := append(locals, body...)
	return append(uleb(uint32(len(code))), code...)
}

// buildAddModule: add(a,b) = a + b.
func buildAddModule() []byte {
	typeSec := section(1, vec(funcType2to1()))
	funcSec := section(3, vec(uleb(0)))
	exportSec := section(7, vec(exportFunc("add", 0)))
	body := []byte{0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B}
	codeSec := section(10, vec(codeEntry(uleb(0), body)))

	out := header()
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}

// buildSumModule: sum(n) = 1+2+...+n, via loop+br_if (no recursion).
func buildSumModule() []byte {
	typeSec := section(1, vec(funcType1to1()))
	funcSec := section(3, vec(uleb(0)))
	exportSec := section(7, vec(exportFunc("sum", 0)))

	body := []byte{}
	app := func(b ...byte) { body = append(body, b...) }
	app(0x20, 0x00)       // local.get 0 (n)
	app(0x21, 0x01)       // local.set 1 (i = n)
	app(0x41, 0x00)       // i32.const 0
	app(0x21, 0x02)       // local.set 2 (acc = 0)
	app(0x02, 0x40)       // block
	app(0x03, 0x40)       //   loop
	app(0x20, 0x01)       //     local.get 1 (i)
	app(0x45)             //     i32.eqz
	app(0x0D, 0x01)       //     br_if 1 (exit block)
	app(0x20, 0x02)       //     local.get 2 (acc)
	app(0x20, 0x01)       //     local.get 1 (i)
	app(0x6A)             //     i32.add
	app(0x21, 0x02)       //     local.set 2
	app(0x20, 0x01)       //     local.get 1
	app(0x41, 0x01)       //     i32.const 1
	app(0x6B)             //     i32.sub
	app(0x21, 0x01)       //     local.set 1
	app(0x0C, 0x00)       //     br 0 (continue loop)
	app(0x0B)             //   end (loop)
	app(0x0B)             // end (block)
	app(0x20, 0x02)       // local.get 2 (acc)
	app(0x0B)             // end (function)

	locals := append(uleb(1), append(uleb(2), 0x7f)...) // 1 group: 2 x i32
	codeSec := section(10, vec(codeEntry(locals, body)))

	out := header()
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}

// buildDivModule: div_u(a,b) = a / b (unsigned), traps on divide by zero.
func buildDivModule() []byte {
	typeSec := section(1, vec(funcType2to1()))
	funcSec := section(3, vec(uleb(0)))
	exportSec := section(7, vec(exportFunc("div_u", 0)))
	body := []byte{0x20, 0x00, 0x20, 0x01, 0x6E, 0x0B} // i32.div_u
	codeSec := section(10, vec(codeEntry(uleb(0), body)))

	out := header()
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}

// buildAbsModule: abs(x) via if/else with a result type.
func buildAbsModule() []byte {
	typeSec := section(1, vec(funcType1to1()))
	funcSec := section(3, vec(uleb(0)))
	exportSec := section(7, vec(exportFunc("abs", 0)))
	body := []byte{
		0x20, 0x00, // local.get 0
		0x41, 0x00, // i32.const 0
		0x48,       // i32.lt_s
		0x04, 0x7f, // if (result i32)
		0x41, 0x00, // i32.const 0
		0x20, 0x00, // local.get 0
		0x6B, // i32.sub
		0x05, // else
		0x20, 0x00, // local.get 0
		0x0B, // end (if)
		0x0B, // end (function)
	}
	codeSec := section(10, vec(codeEntry(uleb(0), body)))

	out := header()
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}

// buildMemoryModule declares one page of memory and exports two functions:
// store_load (writes then reads back a value) and oob (deliberately reads
// past the end of the single declared page).
func buildMemoryModule() []byte {
	typeSec := section(1, vec([]byte{0x60, 0x00, 0x01, 0x7f})) // ()->i32
	funcSec := section(3, vec(uleb(0), uleb(0)))
	memSec := section(5, vec([]byte{0x00, 0x01})) // flag=min-only, min=1 page
	exportSec := section(7, vec(
		exportFunc("store_load", 0),
		exportFunc("oob", 1),
	))

	storeLoadBody := []byte{
		0x41, 0x00, // i32.const 0
		0x41, 0x2A, // i32.const 42
		0x36, 0x02, 0x00, // i32.store align=2 offset=0
		0x41, 0x00, // i32.const 0
		0x28, 0x02, 0x00, // i32.load align=2 offset=0
		0x0B,
	}
	oobBody := append([]byte{0x41}, sleb(100000)...) // i32.const 100000
	oobBody = append(oobBody, 0x28, 0x02, 0x00)       // i32.load align=2 offset=0
	oobBody = append(oobBody, 0x0B)
	codeSec := section(10, vec(
		codeEntry(uleb(0), storeLoadBody),
		codeEntry(uleb(0), oobBody),
	))

	out := header()
	out = append(out, typeSec...)
	out = append(out, funcSec...)
	out = append(out, memSec...)
	out = append(out, exportSec...)
	out = append(out, codeSec...)
	return out
}
