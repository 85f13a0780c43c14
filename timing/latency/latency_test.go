package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/latency"
)

var _ = Describe("Latency", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	Describe("Default Timing Values", func() {
		It("should charge one base cycle per class", func() {
			config := table.Config()
			Expect(config.ALULatency).To(Equal(uint64(1)))
			Expect(config.BranchLatency).To(Equal(uint64(1)))
			Expect(config.JumpLatency).To(Equal(uint64(1)))
			Expect(config.LoadLatency).To(Equal(uint64(1)))
			Expect(config.StoreLatency).To(Equal(uint64(1)))
		})

		It("should use 1 MiB of memory and the default caches", func() {
			config := table.Config()
			Expect(config.MemorySize).To(Equal(uint32(0x100000)))
			Expect(config.DataBase).To(Equal(uint32(0x10000)))
			Expect(config.ICache).To(Equal(cache.DefaultConfig()))
			Expect(config.DCache.MissLatency).To(Equal(uint64(10)))
		})
	})

	Describe("Custom Configuration", func() {
		var config *latency.Config

		BeforeEach(func() {
			config = latency.DefaultConfig()
			config.ALULatency = 2
			config.BranchLatency = 3
			config.JumpLatency = 4
			config.LoadLatency = 5
			config.StoreLatency = 6
			table = latency.NewTableWithConfig(config)
		})

		DescribeTable("should pick the latency of the instruction's class",
			func(op insts.Op, want uint64) {
				word := insts.EncodeOp(op, 1, 2, 3, 8)
				Expect(table.GetLatency(insts.Decode(word))).To(Equal(want))
			},
			Entry("add", insts.OpADD, uint64(2)),
			Entry("srai", insts.OpSRAI, uint64(2)),
			Entry("lui", insts.OpLUI, uint64(2)),
			Entry("auipc", insts.OpAUIPC, uint64(2)),
			Entry("bne", insts.OpBNE, uint64(3)),
			Entry("jal", insts.OpJAL, uint64(4)),
			Entry("jalr", insts.OpJALR, uint64(4)),
			Entry("lhu", insts.OpLHU, uint64(5)),
			Entry("sb", insts.OpSB, uint64(6)),
		)

		It("should charge 1 cycle for unknown words", func() {
			Expect(table.GetLatency(insts.Decode(0))).To(Equal(uint64(1)))
		})
	})

	Describe("Instruction Type Detection", func() {
		It("should detect memory operations", func() {
			lw := insts.Decode(insts.EncodeOp(insts.OpLW, 1, 2, 0, 0))
			sw := insts.Decode(insts.EncodeOp(insts.OpSW, 0, 2, 1, 0))
			add := insts.Decode(insts.EncodeOp(insts.OpADD, 1, 2, 3, 0))

			Expect(table.IsMemoryOp(lw)).To(BeTrue())
			Expect(table.IsLoadOp(lw)).To(BeTrue())
			Expect(table.IsMemoryOp(sw)).To(BeTrue())
			Expect(table.IsStoreOp(sw)).To(BeTrue())
			Expect(table.IsMemoryOp(add)).To(BeFalse())
		})

		It("should tell branches from jumps", func() {
			beq := insts.Decode(insts.EncodeOp(insts.OpBEQ, 0, 1, 2, 8))
			jal := insts.Decode(insts.EncodeOp(insts.OpJAL, 1, 0, 0, 8))

			Expect(table.IsBranchOp(beq)).To(BeTrue())
			Expect(table.IsJumpOp(beq)).To(BeFalse())
			Expect(table.IsJumpOp(jal)).To(BeTrue())
			Expect(table.IsBranchOp(jal)).To(BeFalse())
		})
	})

	Describe("Nil Instruction Handling", func() {
		It("should return 1 for nil instruction", func() {
			Expect(table.GetLatency(nil)).To(Equal(uint64(1)))
		})

		It("should return false for nil instruction checks", func() {
			Expect(table.IsMemoryOp(nil)).To(BeFalse())
			Expect(table.IsBranchOp(nil)).To(BeFalse())
			Expect(table.IsJumpOp(nil)).To(BeFalse())
		})
	})
})

var _ = Describe("Config", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			Expect(latency.DefaultConfig().Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		DescribeTable("should reject bad values",
			func(mutate func(c *latency.Config)) {
				config := latency.DefaultConfig()
				mutate(config)
				Expect(config.Validate()).NotTo(Succeed())
			},
			Entry("zero ALU latency", func(c *latency.Config) { c.ALULatency = 0 }),
			Entry("zero branch latency", func(c *latency.Config) { c.BranchLatency = 0 }),
			Entry("zero jump latency", func(c *latency.Config) { c.JumpLatency = 0 }),
			Entry("zero load latency", func(c *latency.Config) { c.LoadLatency = 0 }),
			Entry("zero store latency", func(c *latency.Config) { c.StoreLatency = 0 }),
			Entry("zero memory", func(c *latency.Config) { c.MemorySize = 0 }),
			Entry("unaligned text", func(c *latency.Config) { c.TextBase = 2 }),
			Entry("data outside memory", func(c *latency.Config) { c.DataBase = c.MemorySize }),
			Entry("bad icache line", func(c *latency.Config) { c.ICache.LineSize = 0 }),
			Entry("bad dcache policy", func(c *latency.Config) { c.DCache.Policy = "fifo" }),
		)
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultConfig()
			clone := original.Clone()
			clone.ALULatency = 100
			clone.DCache.Size = 4096

			Expect(original.ALULatency).To(Equal(uint64(1)))
			Expect(original.DCache.Size).To(Equal(1024))
			Expect(clone.ALULatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultConfig()
			original.ALULatency = 5
			original.DCache.Policy = cache.PolicySetAssociative
			original.DCache.Associativity = 2

			path := filepath.Join(tempDir, "sim.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ALULatency).To(Equal(uint64(5)))
			Expect(loaded.DCache.Policy).To(Equal(cache.PolicySetAssociative))
		})

		It("should overlay a partial file on the defaults", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"memory_size": 131072}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MemorySize).To(Equal(uint32(0x20000)))
			Expect(loaded.LoadLatency).To(Equal(uint64(1)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/sim.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
