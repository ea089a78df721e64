//go:build ignore
// +build ignore

// Command genmatch is an avo code generator, kept in its own module
// exactly the way the teacher isolates its avo generator from the main
// module (avo/go.mod there; tools/genmatch/go.mod here). It is never
// built as part of github.com/go-elastic/elastichash — matchState
// (match.go) runs the portable SWAR path instead, and this file is the
// SIMD counterpart that generates the MatchState assembly it could use,
// retargeted from the teacher's MatchByte to a slot-state byte scan.
package main

import (
	. "github.com/mmcloughlin/avo/build"
	"github.com/mmcloughlin/avo/operand"
)

func main() {
	TEXT("MatchState", NOSPLIT, "func(want uint8, states []byte) (mask uint32, ok bool)")
	Doc("MatchState scans up to 16 consecutive slot-state bytes for ones equal to want,",
		"returning a bitmask with bit k set when states[k] matches, and ok=false",
		"if states is shorter than 16 bytes.")

	n := Load(Param("states").Len(), GP64())
	result := GP32()

	CMPQ(n, operand.Imm(16))
	JGE(operand.LabelRef("valid"))

	ok, err := ReturnIndex(1).Resolve()
	if err != nil {
		panic(err)
	}
	XORL(result, result)
	Store(result, ReturnIndex(0))
	MOVB(operand.Imm(0), ok.Addr)
	RET()

	Label("valid")
	want := Load(Param("want"), GP32())
	ptr := Load(Param("states").Base(), GP64())

	x0, x1, x2 := XMM(), XMM(), XMM()
	PXOR(x1, x1)
	MOVD(want, x0)
	PSHUFB(x1, x0)
	// MOVOU is how MOVDQU is spelled in Go asm.
	MOVOU(operand.Mem{Base: ptr}, x2)
	PCMPEQB(x2, x0)
	PMOVMSKB(x0, result)
	Store(result, ReturnIndex(0))
	MOVB(operand.Imm(1), ok.Addr)
	RET()

	Generate()
}
