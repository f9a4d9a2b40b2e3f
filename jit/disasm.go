package jit

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Line is one decoded machine instruction.
type Line struct {
	Offset int    `json:"offset"`
	Hex    string `json:"hex"`
	Text   string `json:"text"`
	Op     string `json:"op"`
}

// String formats the line as "0x0000: 48 8b 17  mov rdx, qword ptr [rdi]".
func (l Line) String() string {
	return fmt.Sprintf("0x%04x: %-24s %s", l.Offset, l.Hex, l.Text)
}

// Disassemble decodes code as 64-bit x86 and returns one Line per
// instruction in Intel syntax. Undecodable bytes are emitted as db lines.
func Disassemble(code []byte) []Line {
	var lines []Line
	offset := 0
	for offset < len(code) {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil || inst.Len == 0 || inst.Op == 0 {
			lines = append(lines, Line{
				Offset: offset,
				Hex:    fmt.Sprintf("%02x", code[offset]),
				Text:   fmt.Sprintf("db 0x%02x", code[offset]),
				Op:     "db",
			})
			offset++
			continue
		}
		raw := code[offset : offset+inst.Len]
		lines = append(lines, Line{
			Offset: offset,
			Hex:    spacedHex(raw),
			Text:   x86asm.IntelSyntax(inst, uint64(offset), nil),
			Op:     inst.Op.String(),
		})
		offset += inst.Len
	}
	return lines
}

func spacedHex(b []byte) string {
	s := hex.EncodeToString(b)
	out := make([]byte, 0, len(s)+len(b))
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, s[i], s[i+1])
	}
	return string(out)
}
