package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("R-type", func() {
		// add x3, x1, x2 -> 0x002081B3
		It("should decode ADD", func() {
			inst := decoder.Decode(0x002081B3)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Funct7).To(Equal(insts.Funct7Base))
		})

		// sub x3, x1, x2 -> 0x402081B3
		It("should use funct7 to tell SUB from ADD", func() {
			inst := decoder.Decode(0x402081B3)

			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Funct7).To(Equal(insts.Funct7Alt))
		})

		It("should leave unknown funct7 combinations unresolved", func() {
			inst := decoder.Decode(0x022081B3) // funct7=1 is the M extension

			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})

	Describe("I-type", func() {
		// addi ra, zero, 5 -> 0x00500093
		It("should decode ADDI with a positive immediate", func() {
			inst := decoder.Decode(0x00500093)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm()).To(Equal(int32(5)))
		})

		// addi x1, x1, -1 -> 0xFFF08093
		It("should sign-extend a negative immediate", func() {
			inst := decoder.Decode(0xFFF08093)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Imm()).To(Equal(int32(-1)))
		})

		// srai x1, x2, 3 -> 0x40315093
		It("should decode SRAI and its shift amount", func() {
			inst := decoder.Decode(0x40315093)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Shamt()).To(Equal(uint32(3)))
		})

		// lw x5, 8(x2) -> 0x00812283
		It("should decode LW", func() {
			inst := decoder.Decode(0x00812283)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm()).To(Equal(int32(8)))
		})

		It("should decode ECALL and EBREAK", func() {
			Expect(decoder.Decode(0x00000073).Op).To(Equal(insts.OpECALL))
			Expect(decoder.Decode(0x00100073).Op).To(Equal(insts.OpEBREAK))
		})
	})

	Describe("S-type", func() {
		// sw x5, 12(x2) -> 0x00512623
		It("should reassemble the split immediate", func() {
			inst := decoder.Decode(0x00512623)

			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Format).To(Equal(insts.FormatS))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(5)))
			Expect(inst.Imm()).To(Equal(int32(12)))
		})

		// sw x5, -4(x2) -> 0xFE512E23
		It("should sign-extend a negative store offset", func() {
			Expect(decoder.Decode(0xFE512E23).Imm()).To(Equal(int32(-4)))
		})
	})

	Describe("B-type", func() {
		// beq x1, x2, -4 -> 0xFE208EE3
		It("should decode a backward branch", func() {
			inst := decoder.Decode(0xFE208EE3)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Format).To(Equal(insts.FormatB))
			Expect(inst.Imm()).To(Equal(int32(-4)))
		})
	})

	Describe("U-type and J-type", func() {
		// lui x1, 0x12345 -> 0x123450B7
		It("should decode LUI", func() {
			inst := decoder.Decode(0x123450B7)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Format).To(Equal(insts.FormatU))
			Expect(inst.UpperImm()).To(Equal(uint32(0x12345000)))
			Expect(inst.ImmU()).To(Equal(int32(0x12345)))
		})

		// jal ra, 8 -> 0x008000EF
		It("should decode JAL", func() {
			inst := decoder.Decode(0x008000EF)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Format).To(Equal(insts.FormatJ))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm()).To(Equal(int32(8)))
		})
	})

	It("should decode the zero word as unknown", func() {
		inst := decoder.Decode(0)

		Expect(inst.Format).To(Equal(insts.FormatUnknown))
		Expect(inst.Op).To(Equal(insts.OpUnknown))
		Expect(inst.Op.String()).To(Equal("unknown"))
	})
})
