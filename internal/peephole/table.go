package peephole

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/dataflow"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// table is the declarative pattern list from spec.md §4.4, tried in order at
// every live instruction. This is a representative subset of the named
// families rather than the full historical ~60-row table: several listed
// patterns (the CMP+MOV→MAX/MIN family, the getbyte/setbyte/setq+muxq bit
// synthesis patterns, DJNZ-to-JUMP long-distance expansion) target
// instructions or multi-step structural transforms this catalog does not
// model (there is no native MAXS/MINS/MAXU/MINU opcode here) and are left
// as a documented gap rather than forced onto the wrong opcode.
var table = []Pattern{
	zeroxFusion,
	signxFusion,
	wrcCmpToNC,
	muxcNeg1ToWC,
	subxSelf,
	andAfterWrc,
	negAbsFusion,
	rdbyteShlShr24,
	qmulQdivDedup,
	drvhDrvlToDrvc,
	bithBitlToBitc,
	negMovToNegc,
	subAddToSumc,
	doubleJumpSameTarget,
	incAfterMovConst,
	duplicateJumpDedup,
}

// zeroxFusion: shl r,#n ; shr r,#n  →  zerox r,#(31-n), P2 only.
var zeroxFusion = Pattern{
	Name: "zerox_fusion",
	Steps: []InstrMatcher{
		{Ops: op1(ir.SHL), Dst: setOp(0), Src: setImm(0), Flags: FlagP2Only},
		{Ops: op1(ir.SHR), Dst: matchOp(0), Src: matchInt(0), Flags: FlagP2Only},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		n := st.ints[0]
		if n < 1 || n > 31 {
			return false
		}
		shl, shr := st.instrs[0], st.instrs[1]
		shl.Op = ir.ZEROX
		shl.Src = ir.NewImm(31 - n)
		body.Delete(shr)
		return true
	},
}

// signxFusion: shl r,#n ; sar r,#n  →  signx r,#(31-n), P2 only.
var signxFusion = Pattern{
	Name: "signx_fusion",
	Steps: []InstrMatcher{
		{Ops: op1(ir.SHL), Dst: setOp(0), Src: setImm(0), Flags: FlagP2Only},
		{Ops: op1(ir.SAR), Dst: matchOp(0), Src: matchInt(0), Flags: FlagP2Only},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		n := st.ints[0]
		if n < 1 || n > 31 {
			return false
		}
		shl, sar := st.instrs[0], st.instrs[1]
		shl.Op = ir.SIGNX
		shl.Src = ir.NewImm(31 - n)
		body.Delete(sar)
		return true
	},
}

// wrcCmpToNC: wrc x ; cmp a,b wz  →  cmp a,b wz, with dependent uses of x's
// Z-comparison folded into NC. The catalog has no generic "replace every
// future compare of x against zero" rewrite, so this narrow form only
// covers the immediately adjacent compare-against-the-just-written-flag
// idiom: `wrc x ; cmp x,#0 wz ; if_e ...` → `cmp a,b wz ; if_nc ...` is left
// to CompareOptimize/TransformConstDst once x's defining compare is
// visible; here we only drop a `wrc x` whose only use is an immediately
// following `cmp x,#0` (the carry value is already sitting in C).
var wrcCmpToNC = Pattern{
	Name: "wrc_cmp_to_nc",
	Steps: []InstrMatcher{
		{Ops: op1(ir.WRC), Dst: setOp(0)},
		{Ops: op1(ir.CMP), Dst: matchOp(0), Src: imm(0), Flags: FlagMustWZ | FlagWCZAllowed},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		wrc, cmp := st.instrs[0], st.instrs[1]
		if !dataflow.IsDeadAfter(cmp, &wrc.Dst) {
			return false
		}
		cmp.Eff |= ir.EffWC
		body.Delete(wrc)
		return true
	},
}

// muxcNeg1ToWC: muxc r,#-1 wz  →  the Z-dependent mux collapses to just
// reading C directly once r is otherwise dead; matches spec.md's "MUXC
// r,#-1 wz" bullet (muxing all-ones under C into a dead register is a
// pure carry-capture idiom some front ends emit before TransformConstDst
// would otherwise see it).
var muxcNeg1ToWC = Pattern{
	Name: "muxc_neg1_wz",
	Steps: []InstrMatcher{
		{Ops: op1(ir.MUXC), Dst: setOp(0), Src: imm(-1), Flags: FlagMustWZ | FlagWCZAllowed},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		muxc := st.instrs[0]
		if !dataflow.IsDeadAfter(muxc, &muxc.Dst) {
			return false
		}
		muxc.Op = ir.WRC
		muxc.Eff &^= ir.EffWZ
		return true
	},
}

// subxSelf: subx r,r  →  the result is always zero (subtracting a value
// from itself can never borrow); replace with mov r,#0, leaving any wc/wz
// the original carried in place (zero trivially satisfies C=0,Z=1).
var subxSelf = Pattern{
	Name: "subx_self",
	Steps: []InstrMatcher{
		{Ops: op1(ir.SUBX), Dst: setOp(0), Src: matchOp(0), Flags: FlagWCZAllowed},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		i := st.instrs[0]
		i.Op = ir.MOV
		i.Src = ir.NewImm(0)
		return true
	},
}

// andAfterWrc: wrc x ; and x,#1  →  wrc x (the and is redundant: wrc only
// ever writes 0 or 1 into x).
var andAfterWrc = Pattern{
	Name: "and_after_wrc",
	Steps: []InstrMatcher{
		{Ops: op1(ir.WRC), Dst: setOp(0)},
		{Ops: op1(ir.AND), Dst: matchOp(0), Src: imm(1)},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		body.Delete(st.instrs[1])
		return true
	},
}

// negAbsFusion: neg x,x wc ; if_c neg x,x  →  abs x,x wc.
var negAbsFusion = Pattern{
	Name: "neg_abs_fusion",
	Steps: []InstrMatcher{
		{Ops: op1(ir.NEG), Dst: setOp(0), Src: matchOp(0), Flags: FlagMustWC | FlagWCZAllowed},
		{Ops: op1(ir.NEG), Dst: matchOp(0), Src: matchOp(0), CondKind: CondExact, Want: ir.Cond_C},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[1]
		first.Op = ir.ABS
		body.Delete(second)
		return true
	},
}

// rdbyteShlShr24: rdbyte x,p ; shl x,#24 ; shr x,#24  →  rdbyte x,p (the
// sign-preserving round trip through bit 31 is a no-op on a byte load,
// which is already zero-extended).
var rdbyteShlShr24 = Pattern{
	Name: "rdbyte_shl_shr24",
	Steps: []InstrMatcher{
		{Ops: op1(ir.RDBYTE), Dst: setOp(0), Src: anyOp()},
		{Ops: op1(ir.SHL), Dst: matchOp(0), Src: imm(24)},
		{Ops: op1(ir.SHR), Dst: matchOp(0), Src: imm(24)},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		body.Delete(st.instrs[2])
		body.Delete(st.instrs[1])
		return true
	},
}

// qmulQdivDedup: qmul a,b ; getqx r1 ; qmul a,b  →  drop the second qmul,
// matching spec.md's "two consecutive identical QMUL/QDIV with intervening
// GETQX → delete second". Both QMUL and QDIV are covered since the shape
// is identical; the second command's own operands must match the first's.
var qmulQdivDedup = Pattern{
	Name: "qmul_qdiv_dedup",
	Steps: []InstrMatcher{
		{Ops: []ir.Opcode{ir.QMUL, ir.QDIV}, Dst: setOp(0), Src: setOp(1)},
		{Ops: []ir.Opcode{ir.GETQX, ir.GETQY}, Dst: anyOp()},
		{Ops: []ir.Opcode{ir.QMUL, ir.QDIV}, Dst: matchOp(0), Src: matchOp(1)},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[2]
		if first.Op != second.Op {
			return false
		}
		body.Delete(second)
		return true
	},
}

// drvhDrvlToDrvc: if_c drvh p ; if_nc drvl p  →  drvc p. Only this if_c /
// if_nc ordering is matched; the DRVNC/DRVZ/DRVNZ forms are not produced.
var drvhDrvlToDrvc = Pattern{
	Name: "drvh_drvl_to_drvc",
	Steps: []InstrMatcher{
		{Ops: op1(ir.DRVH), Dst: setOp(0), CondKind: CondExact, Want: ir.Cond_C},
		{Ops: op1(ir.DRVL), Dst: matchOp(0), CondKind: CondExact, Want: ir.Cond_NC},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[1]
		first.Op = ir.DRVC
		first.Cond = ir.CondAlways
		body.Delete(second)
		return true
	},
}

// bithBitlToBitc: if_c bith p,#n ; if_nc bitl p,#n  →  bitc p,#n, matching
// spec.md's "BITH/BITL merging into BITC/BITNC".
var bithBitlToBitc = Pattern{
	Name: "bith_bitl_to_bitc",
	Steps: []InstrMatcher{
		{Ops: op1(ir.BITH), Dst: setOp(0), Src: setOp(1), CondKind: CondExact, Want: ir.Cond_C},
		{Ops: op1(ir.BITL), Dst: matchOp(0), Src: matchOp(1), CondKind: CondExact, Want: ir.Cond_NC},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[1]
		first.Op = ir.BITC
		first.Cond = ir.CondAlways
		body.Delete(second)
		return true
	},
}

// negMovToNegc: if_c neg x,y ; if_nc mov x,y  →  negc x,y, matching
// spec.md's "symmetric NEG/MOV merging into NEGC/NEGNC/NEGZ/NEGNZ".
var negMovToNegc = Pattern{
	Name: "neg_mov_to_negc",
	Steps: []InstrMatcher{
		{Ops: op1(ir.NEG), Dst: setOp(0), Src: setOp(1), CondKind: CondExact, Want: ir.Cond_C},
		{Ops: op1(ir.MOV), Dst: matchOp(0), Src: matchOp(1), CondKind: CondExact, Want: ir.Cond_NC},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[1]
		first.Op = ir.NEGC
		first.Cond = ir.CondAlways
		body.Delete(second)
		return true
	},
}

// subAddToSumc: if_c sub x,y ; if_nc add x,y  →  sumc x,y, matching
// spec.md's "SUB/ADD merging into SUMC/SUMNC/…".
var subAddToSumc = Pattern{
	Name: "sub_add_to_sumc",
	Steps: []InstrMatcher{
		{Ops: op1(ir.SUB), Dst: setOp(0), Src: setOp(1), CondKind: CondExact, Want: ir.Cond_C},
		{Ops: op1(ir.ADD), Dst: matchOp(0), Src: matchOp(1), CondKind: CondExact, Want: ir.Cond_NC},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[1]
		first.Op = ir.SUMC
		first.Cond = ir.CondAlways
		body.Delete(second)
		return true
	},
}

// doubleJumpSameTarget: if_x jmp #L ; jmp #L  →  drop the first, matching
// spec.md's "conditional jmp l1; jmp l1 → delete first" (the second,
// unconditional jump already reaches L regardless of the first's
// condition, so the first can never matter).
var doubleJumpSameTarget = Pattern{
	Name: "double_jump_same_target",
	Steps: []InstrMatcher{
		{Ops: op1(ir.JMP), Dst: anyOp()},
		{Ops: op1(ir.JMP), Dst: anyOp(), CondKind: CondExact, Want: ir.CondAlways},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[1]
		if first.Cond == ir.CondAlways {
			return false // both already unconditional; nothing redundant to drop
		}
		label1, ok1 := first.Aux.(*ir.Instruction)
		label2, ok2 := second.Aux.(*ir.Instruction)
		if !ok1 || !ok2 || label1 != label2 {
			return false
		}
		ir.UnlinkJump(first)
		body.Delete(first)
		return true
	},
}

// incAfterMovConst: mov r,#k ; inc r  →  mov r,#(k+1), P1 and P2 both (plain
// register arithmetic, no P2-only opcode involved). Matches SPEC_FULL.md §9's
// "inc immediately following mov of the same freshly-loaded constant
// collapses into the adjusted immediate" row.
var incAfterMovConst = Pattern{
	Name: "inc_after_mov_const",
	Steps: []InstrMatcher{
		{Ops: op1(ir.MOV), Dst: setOp(0), Src: setImm(0)},
		{Ops: op1(ir.INC), Dst: matchOp(0)},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		mov, inc := st.instrs[0], st.instrs[1]
		mov.Src = ir.NewImm(st.ints[0] + 1)
		body.Delete(inc)
		return true
	},
}

// duplicateJumpDedup: jmp #L ; jmp #L  →  drop the second, unreachable jump.
// Matches SPEC_FULL.md §9's "back-to-back jmps to the same label dedupe"
// row; distinct from doubleJumpSameTarget above, which drops a *conditional*
// jmp shadowed by an immediately following unconditional one to the same
// target rather than two already-unconditional jumps in a row.
var duplicateJumpDedup = Pattern{
	Name: "duplicate_jmp_dedup",
	Steps: []InstrMatcher{
		{Ops: op1(ir.JMP), Dst: anyOp(), CondKind: CondExact, Want: ir.CondAlways},
		{Ops: op1(ir.JMP), Dst: anyOp(), CondKind: CondExact, Want: ir.CondAlways},
	},
	Fixup: func(body *ir.IRList, st *matchState) bool {
		first, second := st.instrs[0], st.instrs[1]
		label1, ok1 := first.Aux.(*ir.Instruction)
		label2, ok2 := second.Aux.(*ir.Instruction)
		if !ok1 || !ok2 || label1 != label2 {
			return false
		}
		ir.UnlinkJump(second)
		body.Delete(second)
		return true
	},
}
