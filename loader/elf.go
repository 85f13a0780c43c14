package loader

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	ErrNotELF32   = errors.New(f("not a 32-bit little-endian ELF file"))
	ErrNotRISCV   = errors.New(f("not a RISC-V ELF file"))
	ErrAddressMax = errors.New(f("segment beyond the 32-bit address space"))
)

// LoadELF parses a RISC-V ELF32 executable and returns its PT_LOAD
// segments.
func LoadELF(path string) (*Image, error) {
	file, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f("failed to open ELF file"), err)
	}
	defer func() { _ = file.Close() }()

	return readELF(file)
}

func readELF(file *elf.File) (*Image, error) {
	if file.Class != elf.ELFCLASS32 || file.Data != elf.ELFDATA2LSB {
		return nil, ErrNotELF32
	}

	if file.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("%w: %v", ErrNotRISCV, file.Machine)
	}

	img := &Image{
		Format:  FormatELF,
		Entry:   uint32(file.Entry),
		Symbols: map[string]uint32{},
	}

	for _, phdr := range file.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		if phdr.Vaddr+phdr.Memsz > math.MaxUint32+1 || phdr.Filesz > phdr.Memsz {
			return nil, fmt.Errorf("%w: %#08x", ErrAddressMax, phdr.Vaddr)
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("%s %#08x: %w", f("failed to read segment at"), phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("%s %#08x", f("short read for segment at"), phdr.Vaddr)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		img.Regions = append(img.Regions, Segment{
			Addr:    uint32(phdr.Vaddr),
			Data:    data,
			MemSize: uint32(phdr.Memsz),
			Flags:   flags,
		})
	}

	// Symbols are optional; stripped binaries have none.
	if symbols, err := file.Symbols(); err == nil {
		for _, sym := range symbols {
			if sym.Name == "" || elf.ST_TYPE(sym.Info) == elf.STT_SECTION {
				continue
			}
			img.Symbols[sym.Name] = uint32(sym.Value)
		}
	}

	return img, nil
}
