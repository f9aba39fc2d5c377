package hack

import "github.com/hmny-oss/n2t-toolchain/internal/diag"

// ----------------------------------------------------------------------------
// Hack-ISA encoder

// Pure functions mapping assembly mnemonics to the bit-fields of a Hack C
// instruction. Each table is a closed, exhaustive lookup: anything not present
// is a well-formedness error, never a default.

// CompTable is the closed lookup of the 28 'comp' mnemonics to their 7-bit code;
// the A/M bit (bit 6) is encoded as part of the value so callers never handle it
// separately.
var CompTable = map[string]uint16{
	"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
	"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
	"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
	"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
	"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
	"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
	"D+A": 0b0000010, "D+M": 0b1000010,
	"D-A": 0b0010011, "D-M": 0b1010011,
	"A-D": 0b0000111, "M-D": 0b1000111,
	"D&A": 0b0000000, "D&M": 0b1000000,
	"D|A": 0b0010101, "D|M": 0b1010101,
}

// DestTable is the closed lookup of the 8 'dest' mnemonics to their 3-bit code.
// Empty mnemonic means "discard the result".
var DestTable = map[string]uint16{
	"": 0b000, "M": 0b001, "D": 0b010, "MD": 0b011,
	"A": 0b100, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
}

// JumpTable is the closed lookup of the 7 'jump' mnemonics to their 3-bit code.
// Empty mnemonic means "never jump".
var JumpTable = map[string]uint16{
	"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
	"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
}

// Dest resolves a 'dest' mnemonic to its 3-bit field. Fails on anything outside
// DestTable's closed set.
func Dest(mnemonic string, line int) (uint16, error) {
	code, found := DestTable[mnemonic]
	if !found {
		return 0, diag.Errorf(line, "invalid destination mnemonic %q", mnemonic)
	}
	return code, nil
}

// Comp resolves a 'comp' mnemonic to its 7-bit field. Fails on anything outside
// CompTable's closed set; comp is the only mandatory part of a C instruction.
func Comp(mnemonic string, line int) (uint16, error) {
	code, found := CompTable[mnemonic]
	if !found {
		return 0, diag.Errorf(line, "invalid computation mnemonic %q", mnemonic)
	}
	return code, nil
}

// Jump resolves a 'jump' mnemonic to its 3-bit field. Fails on anything outside
// JumpTable's closed set.
func Jump(mnemonic string, line int) (uint16, error) {
	code, found := JumpTable[mnemonic]
	if !found {
		return 0, diag.Errorf(line, "invalid jump mnemonic %q", mnemonic)
	}
	return code, nil
}

// EncodeC packs dest/comp/jump fields into a full 16-bit C instruction:
// 0b111 << 13 | comp << 6 | dest << 3 | jump.
func EncodeC(dest, comp, jump uint16) uint16 {
	return 0b111<<13 | comp<<6 | dest<<3 | jump
}

// EncodeA packs a 15-bit address into a full 16-bit A instruction. The opcode
// bit (bit 15) is always zero.
func EncodeA(address uint16) uint16 {
	return address & 0x7FFF
}
