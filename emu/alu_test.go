package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("ALU", func() {
	DescribeTable("Compute",
		func(op insts.Op, a, b, want uint32) {
			got, ok := emu.Compute(op, a, b)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(want))
		},
		Entry("add wraps", insts.OpADD, uint32(0xFFFFFFFF), uint32(2), uint32(1)),
		Entry("sub wraps", insts.OpSUB, uint32(0), uint32(1), uint32(0xFFFFFFFF)),
		Entry("sll masks the amount", insts.OpSLL, uint32(1), uint32(32), uint32(1)),
		Entry("srl is logical", insts.OpSRL, uint32(0x80000000), uint32(31), uint32(1)),
		Entry("sra is arithmetic", insts.OpSRA, uint32(0x80000000), uint32(31), uint32(0xFFFFFFFF)),
		Entry("slt signed", insts.OpSLT, uint32(0x80000000), uint32(0), uint32(1)),
		Entry("sltu unsigned", insts.OpSLTU, uint32(0x80000000), uint32(0), uint32(0)),
		Entry("xori", insts.OpXORI, uint32(0xF0), uint32(0xFFFFFFFF), uint32(0xFFFFFF0F)),
		Entry("ori", insts.OpORI, uint32(0xF0), uint32(0x0F), uint32(0xFF)),
		Entry("andi", insts.OpANDI, uint32(0xF0), uint32(0x3C), uint32(0x30)),
	)

	It("should reject non-ALU operations", func() {
		_, ok := emu.Compute(insts.OpLW, 1, 2)
		Expect(ok).To(BeFalse())
	})

	It("should use the shift amount for shift immediates", func() {
		regFile := &emu.RegFile{}
		alu := emu.NewALU(regFile)
		regFile.WriteReg(1, 0xF0000000)

		Expect(alu.ExecuteOpImm(insts.Decode(encI(insts.OpSRAI, 2, 1, 4)))).To(Succeed())
		Expect(regFile.ReadReg(2)).To(Equal(uint32(0xFF000000)))
	})
})
