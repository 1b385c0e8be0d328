// Package ir implements the flat, mutable instruction-list IR that the
// Propeller assembly backend optimizes: opcodes, operand kinds, condition
// codes, flag-effect bits, and the doubly linked instruction list with its
// auxiliary label/jump back-pointers.
package ir

// Opcode identifies a PASM (or P2ASM) mnemonic, or one of the pseudo-opcodes
// the text emitter recognizes (LABEL, COMMENT, DUMMY, data directives, ...).
// Unlike a raw byte encoding, Opcode distinguishes instructions that the
// optimizer must reason about differently even when they share a mnemonic
// family (e.g. the P1-only RCL/RCR pair the optimizer synthesizes from a
// known carry-in, versus the native P2 bit ops).
type Opcode uint16

const (
	OpInvalid Opcode = iota

	// --- data movement ---
	MOV
	MOVS
	MOVD
	NEG
	NEGC
	NEGNC
	NEGZ
	NEGNZ
	ABS

	// --- arithmetic ---
	ADD
	ADDX
	INC
	SUB
	SUBX
	SUBR
	SUMC
	SUMNC
	SUMZ
	SUMNZ
	CMP
	CMPS
	CMPSUB
	ADDCT1

	// --- logic ---
	AND
	ANDN
	OR
	XOR
	NOT
	ONES
	TEST
	TESTN
	MUXC
	MUXNC
	MUXZ
	MUXNZ
	MUXQ

	// --- shifts / bit ops ---
	SHL
	SHR
	SAR
	RCL
	RCR
	ROL
	ROR
	ZEROX
	SIGNX
	DECOD
	ENCOD
	BMASK
	BITH
	BITL
	BITC
	BITNC
	BITZ
	BITNZ
	BITNOT
	TESTB
	TESTBN
	GETBYTE
	GETWORD
	GETNIB
	SETBYTE
	SETWORD
	SETNIB

	// --- flag writeback ---
	WRC
	WRNC
	WRZ
	WRNZ

	// --- hardware / misc reads ---
	GETCT
	GETQX
	GETQY
	RDPIN

	// --- CORDIC ---
	QMUL
	QDIV
	QFRAC
	QROTATE
	QSQRT
	QVECTOR
	QLOG
	QEXP

	// --- memory ---
	RDBYTE
	RDWORD
	RDLONG
	WRBYTE
	WRWORD
	WRLONG
	SETQ
	SETQ2

	// --- control flow ---
	JMP
	JMPREL
	CALL
	RET
	RETA
	DJNZ
	TJZ
	TJNZ

	// --- drive pins ---
	DRVH
	DRVL
	DRVC
	DRVNC
	DRVZ
	DRVNZ

	// --- locks / system ---
	LOCKTRY
	LOCKSET
	LOCKCLR
	LOCKREL
	LOCKRET
	HUBSET
	COGSTOP
	WAITX
	WAITCT
	WAITPEQ
	PUSH
	POP
	BRK

	// --- pseudo-ops the text emitter recognizes verbatim ---
	LABEL
	COMMENT
	DUMMY
	CONST
	LITERAL
	BYTE
	WORD
	LONG
	STRING
	RESERVE
	RESERVEH
	ALIGNL
	ORG
	ORGF
	ORGH
	FIT
	FCACHE
	LABELED_BLOB
	LIVE
	REPEAT
	REPEAT_END
	HUBMODE
	COMPRESS3

	opcodeCount
)

// OpInfo is static per-opcode metadata, in the spirit of the teacher's
// inst.Catalog: every opcode gets a mnemonic and a base cycle estimate so
// instr_min_cycles and the text emitter can share one table instead of two
// parallel switches drifting apart.
type OpInfo struct {
	Mnemonic   string
	MinCycles  int // P2 fixed lower bound, 0 for pseudo-ops
	IsPseudo   bool
	IsMemory   bool
	IsCordic   bool
	IsHardware bool
}

var opInfo = [opcodeCount]OpInfo{}

func reg(op Opcode, info OpInfo) { opInfo[op] = info }

func init() {
	reg(MOV, OpInfo{Mnemonic: "mov", MinCycles: 2})
	reg(MOVS, OpInfo{Mnemonic: "movs", MinCycles: 2})
	reg(MOVD, OpInfo{Mnemonic: "movd", MinCycles: 2})
	reg(NEG, OpInfo{Mnemonic: "neg", MinCycles: 2})
	reg(NEGC, OpInfo{Mnemonic: "negc", MinCycles: 2})
	reg(NEGNC, OpInfo{Mnemonic: "negnc", MinCycles: 2})
	reg(NEGZ, OpInfo{Mnemonic: "negz", MinCycles: 2})
	reg(NEGNZ, OpInfo{Mnemonic: "negnz", MinCycles: 2})
	reg(ABS, OpInfo{Mnemonic: "abs", MinCycles: 2})

	reg(ADD, OpInfo{Mnemonic: "add", MinCycles: 2})
	reg(ADDX, OpInfo{Mnemonic: "addx", MinCycles: 2})
	reg(INC, OpInfo{Mnemonic: "inc", MinCycles: 2})
	reg(SUB, OpInfo{Mnemonic: "sub", MinCycles: 2})
	reg(SUBX, OpInfo{Mnemonic: "subx", MinCycles: 2})
	reg(SUBR, OpInfo{Mnemonic: "subr", MinCycles: 2})
	reg(SUMC, OpInfo{Mnemonic: "sumc", MinCycles: 2})
	reg(SUMNC, OpInfo{Mnemonic: "sumnc", MinCycles: 2})
	reg(SUMZ, OpInfo{Mnemonic: "sumz", MinCycles: 2})
	reg(SUMNZ, OpInfo{Mnemonic: "sumnz", MinCycles: 2})
	reg(CMP, OpInfo{Mnemonic: "cmp", MinCycles: 2})
	reg(CMPS, OpInfo{Mnemonic: "cmps", MinCycles: 2})
	reg(CMPSUB, OpInfo{Mnemonic: "cmpsub", MinCycles: 2})
	reg(ADDCT1, OpInfo{Mnemonic: "addct1", MinCycles: 2})

	reg(AND, OpInfo{Mnemonic: "and", MinCycles: 2})
	reg(ANDN, OpInfo{Mnemonic: "andn", MinCycles: 2})
	reg(OR, OpInfo{Mnemonic: "or", MinCycles: 2})
	reg(XOR, OpInfo{Mnemonic: "xor", MinCycles: 2})
	reg(NOT, OpInfo{Mnemonic: "not", MinCycles: 2})
	reg(ONES, OpInfo{Mnemonic: "ones", MinCycles: 2})
	reg(TEST, OpInfo{Mnemonic: "test", MinCycles: 2})
	reg(TESTN, OpInfo{Mnemonic: "testn", MinCycles: 2})
	reg(MUXC, OpInfo{Mnemonic: "muxc", MinCycles: 2})
	reg(MUXNC, OpInfo{Mnemonic: "muxnc", MinCycles: 2})
	reg(MUXZ, OpInfo{Mnemonic: "muxz", MinCycles: 2})
	reg(MUXNZ, OpInfo{Mnemonic: "muxnz", MinCycles: 2})
	reg(MUXQ, OpInfo{Mnemonic: "muxq", MinCycles: 2})

	reg(SHL, OpInfo{Mnemonic: "shl", MinCycles: 2})
	reg(SHR, OpInfo{Mnemonic: "shr", MinCycles: 2})
	reg(SAR, OpInfo{Mnemonic: "sar", MinCycles: 2})
	reg(RCL, OpInfo{Mnemonic: "rcl", MinCycles: 2})
	reg(RCR, OpInfo{Mnemonic: "rcr", MinCycles: 2})
	reg(ROL, OpInfo{Mnemonic: "rol", MinCycles: 2})
	reg(ROR, OpInfo{Mnemonic: "ror", MinCycles: 2})
	reg(ZEROX, OpInfo{Mnemonic: "zerox", MinCycles: 2})
	reg(SIGNX, OpInfo{Mnemonic: "signx", MinCycles: 2})
	reg(DECOD, OpInfo{Mnemonic: "decod", MinCycles: 2})
	reg(ENCOD, OpInfo{Mnemonic: "encod", MinCycles: 2})
	reg(BMASK, OpInfo{Mnemonic: "bmask", MinCycles: 2})
	reg(BITH, OpInfo{Mnemonic: "bith", MinCycles: 2})
	reg(BITL, OpInfo{Mnemonic: "bitl", MinCycles: 2})
	reg(BITC, OpInfo{Mnemonic: "bitc", MinCycles: 2})
	reg(BITNC, OpInfo{Mnemonic: "bitnc", MinCycles: 2})
	reg(BITZ, OpInfo{Mnemonic: "bitz", MinCycles: 2})
	reg(BITNZ, OpInfo{Mnemonic: "bitnz", MinCycles: 2})
	reg(BITNOT, OpInfo{Mnemonic: "bitnot", MinCycles: 2})
	reg(TESTB, OpInfo{Mnemonic: "testb", MinCycles: 2})
	reg(TESTBN, OpInfo{Mnemonic: "testbn", MinCycles: 2})
	reg(GETBYTE, OpInfo{Mnemonic: "getbyte", MinCycles: 2})
	reg(GETWORD, OpInfo{Mnemonic: "getword", MinCycles: 2})
	reg(GETNIB, OpInfo{Mnemonic: "getnib", MinCycles: 2})
	reg(SETBYTE, OpInfo{Mnemonic: "setbyte", MinCycles: 2})
	reg(SETWORD, OpInfo{Mnemonic: "setword", MinCycles: 2})
	reg(SETNIB, OpInfo{Mnemonic: "setnib", MinCycles: 2})

	reg(WRC, OpInfo{Mnemonic: "wrc", MinCycles: 2})
	reg(WRNC, OpInfo{Mnemonic: "wrnc", MinCycles: 2})
	reg(WRZ, OpInfo{Mnemonic: "wrz", MinCycles: 2})
	reg(WRNZ, OpInfo{Mnemonic: "wrnz", MinCycles: 2})

	reg(GETCT, OpInfo{Mnemonic: "getct", MinCycles: 2, IsHardware: true})
	reg(GETQX, OpInfo{Mnemonic: "getqx", MinCycles: 2, IsCordic: true})
	reg(GETQY, OpInfo{Mnemonic: "getqy", MinCycles: 2, IsCordic: true})
	reg(RDPIN, OpInfo{Mnemonic: "rdpin", MinCycles: 2, IsHardware: true})

	reg(QMUL, OpInfo{Mnemonic: "qmul", MinCycles: 2, IsCordic: true})
	reg(QDIV, OpInfo{Mnemonic: "qdiv", MinCycles: 2, IsCordic: true})
	reg(QFRAC, OpInfo{Mnemonic: "qfrac", MinCycles: 2, IsCordic: true})
	reg(QROTATE, OpInfo{Mnemonic: "qrotate", MinCycles: 2, IsCordic: true})
	reg(QSQRT, OpInfo{Mnemonic: "qsqrt", MinCycles: 2, IsCordic: true})
	reg(QVECTOR, OpInfo{Mnemonic: "qvector", MinCycles: 2, IsCordic: true})
	reg(QLOG, OpInfo{Mnemonic: "qlog", MinCycles: 2, IsCordic: true})
	reg(QEXP, OpInfo{Mnemonic: "qexp", MinCycles: 2, IsCordic: true})

	reg(RDBYTE, OpInfo{Mnemonic: "rdbyte", MinCycles: 9, IsMemory: true})
	reg(RDWORD, OpInfo{Mnemonic: "rdword", MinCycles: 9, IsMemory: true})
	reg(RDLONG, OpInfo{Mnemonic: "rdlong", MinCycles: 9, IsMemory: true})
	reg(WRBYTE, OpInfo{Mnemonic: "wrbyte", MinCycles: 3, IsMemory: true})
	reg(WRWORD, OpInfo{Mnemonic: "wrword", MinCycles: 3, IsMemory: true})
	reg(WRLONG, OpInfo{Mnemonic: "wrlong", MinCycles: 3, IsMemory: true})
	reg(SETQ, OpInfo{Mnemonic: "setq", MinCycles: 2})
	reg(SETQ2, OpInfo{Mnemonic: "setq2", MinCycles: 2})

	reg(JMP, OpInfo{Mnemonic: "jmp", MinCycles: 4})
	reg(JMPREL, OpInfo{Mnemonic: "jmprel", MinCycles: 4})
	reg(CALL, OpInfo{Mnemonic: "call", MinCycles: 4})
	reg(RET, OpInfo{Mnemonic: "ret", MinCycles: 4})
	reg(RETA, OpInfo{Mnemonic: "reta", MinCycles: 4})
	reg(DJNZ, OpInfo{Mnemonic: "djnz", MinCycles: 4})
	reg(TJZ, OpInfo{Mnemonic: "tjz", MinCycles: 4})
	reg(TJNZ, OpInfo{Mnemonic: "tjnz", MinCycles: 4})

	reg(DRVH, OpInfo{Mnemonic: "drvh", MinCycles: 2, IsHardware: true})
	reg(DRVL, OpInfo{Mnemonic: "drvl", MinCycles: 2, IsHardware: true})
	reg(DRVC, OpInfo{Mnemonic: "drvc", MinCycles: 2, IsHardware: true})
	reg(DRVNC, OpInfo{Mnemonic: "drvnc", MinCycles: 2, IsHardware: true})
	reg(DRVZ, OpInfo{Mnemonic: "drvz", MinCycles: 2, IsHardware: true})
	reg(DRVNZ, OpInfo{Mnemonic: "drvnz", MinCycles: 2, IsHardware: true})

	reg(LOCKTRY, OpInfo{Mnemonic: "locktry", MinCycles: 2, IsHardware: true})
	reg(LOCKSET, OpInfo{Mnemonic: "lockset", MinCycles: 2, IsHardware: true})
	reg(LOCKCLR, OpInfo{Mnemonic: "lockclr", MinCycles: 2, IsHardware: true})
	reg(LOCKREL, OpInfo{Mnemonic: "lockrel", MinCycles: 2, IsHardware: true})
	reg(LOCKRET, OpInfo{Mnemonic: "lockret", MinCycles: 2, IsHardware: true})
	reg(HUBSET, OpInfo{Mnemonic: "hubset", MinCycles: 2, IsHardware: true})
	reg(COGSTOP, OpInfo{Mnemonic: "cogstop", MinCycles: 2, IsHardware: true})
	reg(WAITX, OpInfo{Mnemonic: "waitx", MinCycles: 2, IsHardware: true})
	reg(WAITCT, OpInfo{Mnemonic: "waitct", MinCycles: 2, IsHardware: true})
	reg(WAITPEQ, OpInfo{Mnemonic: "waitpeq", MinCycles: 2, IsHardware: true})
	reg(PUSH, OpInfo{Mnemonic: "push", MinCycles: 2})
	reg(POP, OpInfo{Mnemonic: "pop", MinCycles: 2})
	reg(BRK, OpInfo{Mnemonic: "brk", MinCycles: 2})

	reg(LABEL, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(COMMENT, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(DUMMY, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(CONST, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(LITERAL, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(BYTE, OpInfo{Mnemonic: "byte", IsPseudo: true})
	reg(WORD, OpInfo{Mnemonic: "word", IsPseudo: true})
	reg(LONG, OpInfo{Mnemonic: "long", IsPseudo: true})
	reg(STRING, OpInfo{Mnemonic: "string", IsPseudo: true})
	reg(RESERVE, OpInfo{Mnemonic: "reserve", IsPseudo: true})
	reg(RESERVEH, OpInfo{Mnemonic: "reserveh", IsPseudo: true})
	reg(ALIGNL, OpInfo{Mnemonic: "alignl", IsPseudo: true})
	reg(ORG, OpInfo{Mnemonic: "org", IsPseudo: true})
	reg(ORGF, OpInfo{Mnemonic: "orgf", IsPseudo: true})
	reg(ORGH, OpInfo{Mnemonic: "orgh", IsPseudo: true})
	reg(FIT, OpInfo{Mnemonic: "fit", IsPseudo: true})
	reg(FCACHE, OpInfo{Mnemonic: "fcache", IsPseudo: true})
	reg(LABELED_BLOB, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(LIVE, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(REPEAT, OpInfo{Mnemonic: "rep", IsPseudo: true})
	reg(REPEAT_END, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(HUBMODE, OpInfo{Mnemonic: "", IsPseudo: true})
	reg(COMPRESS3, OpInfo{Mnemonic: "", IsPseudo: true})
}

// Info returns the static metadata for op.
func Info(op Opcode) OpInfo { return opInfo[op] }

// Mnemonic returns the assembly mnemonic for op, or "" for data-less pseudo-ops.
func Mnemonic(op Opcode) string { return opInfo[op].Mnemonic }
