package emu_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/latency"
)

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.Memory()).NotTo(BeNil())
			Expect(e.Memory().Capacity()).To(Equal(uint32(1 << 20)))
		})

		It("should refuse to step before a program is loaded", func() {
			Expect(e.Step().Err).To(MatchError(emu.ErrNoProgram))
		})
	})

	Describe("Load", func() {
		It("should set the PC to the entry point and sp to the top of memory", func() {
			Expect(e.Load(program(encI(insts.OpADDI, 0, 0, 0)).at(0x1000))).To(Succeed())

			Expect(e.PC()).To(Equal(uint32(0x1000)))
			Expect(e.Registers()[2]).To(Equal(uint32(0x100000)))
		})

		It("should copy segments into memory", func() {
			Expect(e.Load(program(0xDEADBEEF).withData(0x3000, 1, 2, 3))).To(Succeed())

			data, err := e.ReadMemory(0, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte{0xEF, 0xBE, 0xAD, 0xDE}))

			data, err = e.ReadMemory(0x3000, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte{1, 2, 3}))
		})

		It("should reject segments outside memory", func() {
			err := e.Load(program().withData(0x100000, 1))
			Expect(errors.Is(err, emu.ErrOutOfBounds)).To(BeTrue())
		})

		It("should reset registers, counters and caches", func() {
			Expect(e.Load(program(encI(insts.OpADDI, 5, 0, 7)))).To(Succeed())
			e.Step()
			Expect(e.Stats().Instructions).To(Equal(uint64(1)))

			Expect(e.Load(program(encI(insts.OpADDI, 6, 0, 7)))).To(Succeed())
			Expect(e.Register(5)).To(BeZero())
			Expect(e.Stats()).To(Equal(emu.Stats{}))
			Expect(e.ICacheStats().Accesses()).To(BeZero())
		})
	})

	Describe("Step", func() {
		Context("ALU instructions", func() {
			It("should run the arithmetic scenario", func() {
				Expect(e.Load(program(
					encI(insts.OpADDI, 1, 0, 15),
					encI(insts.OpADDI, 2, 0, 10),
					encR(insts.OpADD, 3, 1, 2),
					encR(insts.OpSUB, 4, 1, 2),
					encR(insts.OpXOR, 8, 1, 2),
				))).To(Succeed())

				reason, err := e.Run(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(reason).To(Equal(emu.StopEndOfProgram))

				Expect(e.Register(3)).To(Equal(uint32(25)))
				Expect(e.Register(4)).To(Equal(uint32(5)))
				Expect(e.Register(8)).To(Equal(uint32(5)))
				Expect(e.Stats().Instructions).To(Equal(uint64(5)))
			})

			It("should keep x0 at zero", func() {
				Expect(e.Load(program(
					encI(insts.OpADDI, 0, 0, 5),
					encR(insts.OpADD, 1, 0, 0),
				))).To(Succeed())

				Expect(e.Step().Err).NotTo(HaveOccurred())
				Expect(e.Register(0)).To(BeZero())
				Expect(e.Registers()[0]).To(BeZero())

				e.Step()
				Expect(e.Register(1)).To(BeZero())
			})

			It("should wrap on overflow", func() {
				Expect(e.Load(program(
					encU(insts.OpLUI, 1, 0x80000),
					encI(insts.OpADDI, 1, 1, -1),
					encI(insts.OpADDI, 2, 1, 1),
				))).To(Succeed())

				for i := 0; i < 3; i++ {
					Expect(e.Step().Err).NotTo(HaveOccurred())
				}

				Expect(e.Register(1)).To(Equal(uint32(0x7FFFFFFF)))
				Expect(e.Register(2)).To(Equal(uint32(0x80000000)))
			})

			It("should shift by the low five bits and keep the sign on SRA", func() {
				Expect(e.Load(program(
					encI(insts.OpADDI, 1, 0, -16),
					encI(insts.OpSRAI, 2, 1, 2),
					encI(insts.OpSRLI, 3, 1, 28),
					encI(insts.OpADDI, 4, 0, 33),
					encI(insts.OpADDI, 6, 0, 1),
					encR(insts.OpSLL, 5, 6, 4),
					encR(insts.OpSRA, 7, 1, 4),
				))).To(Succeed())

				for i := 0; i < 7; i++ {
					Expect(e.Step().Err).NotTo(HaveOccurred())
				}

				Expect(int32(e.Register(2))).To(Equal(int32(-4)))
				Expect(e.Register(3)).To(Equal(uint32(0xF)))
				Expect(e.Register(5)).To(Equal(uint32(2)))
				Expect(int32(e.Register(7))).To(Equal(int32(-8)))
			})

			It("should compare signed and unsigned", func() {
				Expect(e.Load(program(
					encI(insts.OpADDI, 1, 0, -1),
					encI(insts.OpADDI, 2, 0, 1),
					encR(insts.OpSLT, 3, 1, 2),
					encR(insts.OpSLTU, 4, 1, 2),
					encI(insts.OpSLTIU, 5, 0, -1),
					encI(insts.OpSLTI, 6, 2, -1),
				))).To(Succeed())

				for i := 0; i < 6; i++ {
					Expect(e.Step().Err).NotTo(HaveOccurred())
				}

				Expect(e.Register(3)).To(Equal(uint32(1)))
				Expect(e.Register(4)).To(Equal(uint32(0)))
				Expect(e.Register(5)).To(Equal(uint32(1)))
				Expect(e.Register(6)).To(Equal(uint32(0)))
			})

			It("should execute LUI and AUIPC", func() {
				Expect(e.Load(program(
					encU(insts.OpAUIPC, 5, 1),
					encU(insts.OpLUI, 6, 0xFFFFF),
				).at(0x100))).To(Succeed())

				e.Step()
				e.Step()

				Expect(e.Register(5)).To(Equal(uint32(0x1100)))
				Expect(e.Register(6)).To(Equal(uint32(0xFFFFF000)))
			})
		})

		Context("Load/Store instructions", func() {
			BeforeEach(func() {
				Expect(e.Load(program(
					encU(insts.OpLUI, 1, 2),
					encI(insts.OpLB, 2, 1, 0),
					encI(insts.OpLBU, 3, 1, 0),
					encI(insts.OpLH, 4, 1, 0),
					encI(insts.OpLHU, 5, 1, 0),
					encI(insts.OpLW, 6, 1, 0),
					encS(insts.OpSW, 6, 1, 8),
					encI(insts.OpLW, 7, 1, 8),
					encS(insts.OpSB, 2, 1, 13),
					encI(insts.OpLBU, 8, 1, 13),
				).withData(0x2000, 0x80, 0xFF, 0x34, 0x12))).To(Succeed())

				for i := 0; i < 10; i++ {
					Expect(e.Step().Err).NotTo(HaveOccurred())
				}
			})

			It("should sign- or zero-extend loads", func() {
				Expect(e.Register(2)).To(Equal(uint32(0xFFFFFF80)))
				Expect(e.Register(3)).To(Equal(uint32(0x80)))
				Expect(e.Register(4)).To(Equal(uint32(0xFFFFFF80)))
				Expect(e.Register(5)).To(Equal(uint32(0xFF80)))
				Expect(e.Register(6)).To(Equal(uint32(0x1234FF80)))
			})

			It("should store little-endian", func() {
				Expect(e.Register(7)).To(Equal(uint32(0x1234FF80)))
				Expect(e.Register(8)).To(Equal(uint32(0x80)))

				data, err := e.ReadMemory(0x2008, 4)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte{0x80, 0xFF, 0x34, 0x12}))
			})

			It("should count loads and stores as data cache accesses", func() {
				stats := e.DCacheStats()
				Expect(stats.Reads).To(Equal(uint64(7)))
				Expect(stats.Writes).To(Equal(uint64(2)))
				Expect(stats.Misses).To(Equal(uint64(1)))
				Expect(stats.Hits).To(Equal(uint64(8)))
			})
		})

		Context("Memory errors", func() {
			BeforeEach(func() {
				config := latency.DefaultConfig()
				config.MemorySize = 0x1000
				config.DataBase = 0x800
				e = emu.NewEmulator(emu.WithConfig(config))
			})

			It("should fail an unaligned word load with MisalignedAccess", func() {
				Expect(e.Load(program(
					encU(insts.OpLUI, 1, 1),
					encI(insts.OpADDI, 1, 1, 1),
					encI(insts.OpLW, 2, 1, 0),
				))).To(Succeed())

				e.Step()
				e.Step()
				result := e.Step()

				Expect(errors.Is(result.Err, emu.ErrMisalignedAccess)).To(BeTrue())

				var memErr *emu.ErrMemory
				Expect(errors.As(result.Err, &memErr)).To(BeTrue())
				Expect(memErr.Addr).To(Equal(uint32(0x1001)))
			})

			It("should fail a word load past the end with OutOfBoundsAddress", func() {
				Expect(e.Load(program(
					encU(insts.OpLUI, 1, 1),
					encI(insts.OpLW, 2, 1, 0),
				))).To(Succeed())

				e.Step()
				result := e.Step()

				Expect(errors.Is(result.Err, emu.ErrOutOfBounds)).To(BeTrue())
			})

			It("should allow unaligned byte and half-word accesses", func() {
				Expect(e.Load(program(
					encI(insts.OpLH, 2, 0, 0x7FD),
					encS(insts.OpSB, 2, 0, 0x7FF),
				))).To(Succeed())

				Expect(e.Step().Err).NotTo(HaveOccurred())
				Expect(e.Step().Err).NotTo(HaveOccurred())
			})

			It("should leave state unchanged and halt after a failure", func() {
				Expect(e.Load(program(
					encU(insts.OpLUI, 1, 1),
					encI(insts.OpLW, 1, 1, 0),
				))).To(Succeed())

				e.Step()
				before := e.Stats()
				result := e.Step()

				Expect(result.Err).To(HaveOccurred())
				Expect(result.NextPC).To(Equal(result.PC))
				Expect(e.PC()).To(Equal(uint32(4)))
				Expect(e.Register(1)).To(Equal(uint32(0x1000)))
				Expect(e.Stats()).To(Equal(before))
				Expect(e.Halted()).To(BeTrue())

				Expect(e.Step().Err).To(MatchError(emu.ErrHalted))
			})

			It("should report an out-of-bounds fetch", func() {
				Expect(e.Load(program(encJ(0, 0x1000)))).To(Succeed())

				Expect(e.Step().Err).NotTo(HaveOccurred())
				result := e.Step()

				Expect(errors.Is(result.Err, emu.ErrOutOfBounds)).To(BeTrue())
				Expect(result.Inst).To(BeNil())
				Expect(result.PC).To(Equal(uint32(0x1000)))
			})

			It("should reject an entry point outside memory", func() {
				Expect(e.Load(program().at(0x1000))).NotTo(Succeed())
			})
		})

		Context("Unsupported instructions", func() {
			It("should reject ECALL with the failing PC", func() {
				Expect(e.Load(program(
					encI(insts.OpADDI, 1, 0, 1),
					insts.EncodeOp(insts.OpECALL, 0, 0, 0, 0),
				))).To(Succeed())

				e.Step()
				result := e.Step()

				Expect(errors.Is(result.Err, emu.ErrUnsupportedInstruction)).To(BeTrue())

				var execErr *emu.ErrExecution
				Expect(errors.As(result.Err, &execErr)).To(BeTrue())
				Expect(execErr.PC).To(Equal(uint32(4)))
				Expect(execErr.Word).To(Equal(uint32(0x00000073)))
			})

			It("should reject unknown funct7 encodings", func() {
				Expect(e.Load(program(0x022081B3))).To(Succeed())

				reason, err := e.Run(context.Background())
				Expect(reason).To(Equal(emu.StopError))
				Expect(errors.Is(err, emu.ErrUnsupportedInstruction)).To(BeTrue())
			})
		})
	})

	Describe("Run", func() {
		It("should stop on a self-jump and count branches", func() {
			Expect(e.Load(program(
				encI(insts.OpADDI, 1, 0, 3),
				encI(insts.OpADDI, 1, 1, -1),
				encB(insts.OpBNE, 1, 0, -4),
				encJ(0, 0),
			))).To(Succeed())

			reason, err := e.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(Equal(emu.StopSelfLoop))
			Expect(reason.String()).To(Equal("self-loop"))

			stats := e.Stats()
			Expect(e.Register(1)).To(BeZero())
			Expect(stats.Branches).To(Equal(uint64(3)))
			Expect(stats.BranchesTaken).To(Equal(uint64(2)))
			Expect(stats.Instructions).To(Equal(uint64(1 + 3*2 + 1)))
		})

		It("should stop at the instruction limit", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(3))
			Expect(e.Load(program(
				encI(insts.OpADDI, 1, 1, 1),
				encJ(0, -4),
			))).To(Succeed())

			reason, err := e.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(Equal(emu.StopMaxInstructions))
			Expect(e.Stats().Instructions).To(Equal(uint64(3)))
			Expect(e.Register(1)).To(Equal(uint32(2)))
		})

		It("should stop between instructions when the context is cancelled", func() {
			Expect(e.Load(program(encJ(0, 0)))).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			reason, err := e.Run(ctx)
			Expect(reason).To(Equal(emu.StopCancelled))
			Expect(err).To(MatchError(context.Canceled))
			Expect(e.Stats().Instructions).To(BeZero())
		})

		It("should stop when the stop condition holds", func() {
			Expect(e.Load(program(
				encI(insts.OpADDI, 1, 0, 1),
				encI(insts.OpADDI, 2, 0, 2),
				encI(insts.OpADDI, 3, 0, 3),
				encJ(0, 0),
			))).To(Succeed())

			reason, err := e.RunUntil(context.Background(), func(r emu.StepResult) bool {
				return r.NextPC == 8
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(Equal(emu.StopBreakpoint))
			Expect(e.PC()).To(Equal(uint32(8)))
			Expect(e.Register(3)).To(BeZero())

			reason, err = e.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(Equal(emu.StopSelfLoop))
			Expect(e.Register(3)).To(Equal(uint32(3)))
		})
	})

	Describe("Cycle accounting", func() {
		It("should charge base latency plus cache cycles", func() {
			Expect(e.Load(program(
				encI(insts.OpADDI, 1, 0, 15),
				encI(insts.OpADDI, 2, 0, 10),
				encR(insts.OpADD, 3, 1, 2),
				encR(insts.OpSUB, 4, 1, 2),
				encR(insts.OpXOR, 8, 1, 2),
			))).To(Succeed())

			_, err := e.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			stats := e.Stats()
			Expect(stats.MemoryAccessCycles).To(Equal(uint64(10 + 4)))
			Expect(stats.Cycles).To(Equal(uint64(5 + 14)))
			Expect(stats.CPI()).To(BeNumerically("~", 19.0/5.0))

			icache := e.ICacheStats()
			Expect(icache.Misses).To(Equal(uint64(1)))
			Expect(icache.Hits).To(Equal(uint64(5)))
		})

		It("should report per-step cycles", func() {
			Expect(e.Load(program(
				encI(insts.OpADDI, 1, 0, 1),
				encI(insts.OpADDI, 1, 0, 1),
			))).To(Succeed())

			Expect(e.Step().Cycles).To(Equal(uint64(11)))
			Expect(e.Step().Cycles).To(Equal(uint64(2)))
		})
	})
})
