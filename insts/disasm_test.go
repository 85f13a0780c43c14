package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Registers", func() {
	It("should map numeric and ABI names", func() {
		for name, want := range map[string]uint8{
			"x0": 0, "zero": 0, "ra": 1, "sp": 2, "fp": 8, "s0": 8,
			"a0": 10, "A7": 17, "s11": 27, "t6": 31, "x31": 31,
		} {
			idx, ok := insts.RegisterIndex(name)
			Expect(ok).To(BeTrue(), name)
			Expect(idx).To(Equal(want), name)
		}
	})

	It("should reject unknown names", func() {
		for _, name := range []string{"x32", "a8", "", "pc"} {
			_, ok := insts.RegisterIndex(name)
			Expect(ok).To(BeFalse(), name)
		}
	})

	It("should name registers by ABI", func() {
		Expect(insts.RegisterName(0)).To(Equal("zero"))
		Expect(insts.RegisterName(10)).To(Equal("a0"))
		Expect(insts.RegisterName(40)).To(Equal("x?"))
	})
})

var _ = Describe("Disassemble", func() {
	DescribeTable("renders assembler text",
		func(word, pc uint32, want string) {
			Expect(insts.Disassemble(word, pc)).To(Equal(want))
		},
		Entry("addi", uint32(0x00500093), uint32(0), "addi ra, zero, 5"),
		Entry("sub", uint32(0x402081B3), uint32(0), "sub gp, ra, sp"),
		Entry("lw", uint32(0x00812283), uint32(0), "lw t0, 8(sp)"),
		Entry("sw", uint32(0x00512623), uint32(0), "sw t0, 12(sp)"),
		Entry("beq", uint32(0xFE208EE3), uint32(0x14), "beq ra, sp, 0x10"),
		Entry("jal", uint32(0x008000EF), uint32(0x8), "jal ra, 0x10"),
		Entry("lui", uint32(0x123450B7), uint32(0), "lui ra, 0x12345"),
		Entry("srai", uint32(0x40315093), uint32(0), "srai ra, sp, 3"),
		Entry("ecall", uint32(0x00000073), uint32(0), "ecall"),
		Entry("unknown", uint32(0), uint32(0), ".word 0x00000000"),
	)

	It("should look mnemonics up case-insensitively", func() {
		spec, ok := insts.Lookup("ADDI")
		Expect(ok).To(BeTrue())
		Expect(spec.Op).To(Equal(insts.OpADDI))
		Expect(spec.Format).To(Equal(insts.FormatI))

		_, ok = insts.Lookup("mul")
		Expect(ok).To(BeFalse())
	})
})
