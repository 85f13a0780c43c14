// Package loader reads programs for the emulator from assembly source, raw
// binaries and RISC-V ELF32 executables.
package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/rv32sim/asm"
	"github.com/sarchlab/rv32sim/translate"
)

var f = translate.From

// ErrUnknownFormat reports a file that is neither assembly, raw binary nor
// ELF.
var ErrUnknownFormat = errors.New(f("unknown program format"))

// Format is the kind of file an Image was loaded from.
type Format int

const (
	FormatAssembly Format = iota
	FormatBinary
	FormatELF
)

func (format Format) String() string {
	switch format {
	case FormatAssembly:
		return "assembly"
	case FormatBinary:
		return "binary"
	case FormatELF:
		return "elf"
	}
	return "unknown"
}

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment is one contiguous piece of the program image.
type Segment struct {
	Addr    uint32
	Data    []byte
	MemSize uint32 // may exceed len(Data); the rest is zero
	Flags   SegmentFlags
}

// Image is a program ready to be loaded into the emulator.
type Image struct {
	Format  Format
	Entry   uint32
	Regions []Segment
	Symbols map[string]uint32
	Source  *asm.Program // set when assembled from source
}

// Segments yields every region, zero-filled to its memory size.
func (img *Image) Segments() iter.Seq2[uint32, []byte] {
	return func(yield func(uint32, []byte) bool) {
		for _, seg := range img.Regions {
			data := seg.Data
			if seg.MemSize > uint32(len(data)) {
				data = make([]byte, seg.MemSize)
				copy(data, seg.Data)
			}
			if !yield(seg.Addr, data) {
				return
			}
		}
	}
}

// EntryPoint returns the address execution starts at.
func (img *Image) EntryPoint() uint32 {
	return img.Entry
}

// Text returns the first executable region as instruction words.
func (img *Image) Text() (base uint32, words []uint32) {
	for _, seg := range img.Regions {
		if seg.Flags&SegmentFlagExecute == 0 {
			continue
		}
		for i := 0; i+4 <= len(seg.Data); i += 4 {
			words = append(words, binary.LittleEndian.Uint32(seg.Data[i:]))
		}
		return seg.Addr, words
	}
	return 0, nil
}

// Options controls how source and raw binaries are placed.
type Options struct {
	Assembler  *asm.Assembler
	BinaryBase uint32
}

// Option configures Load.
type Option func(*Options)

// WithAssembler sets the assembler used for source files.
func WithAssembler(a *asm.Assembler) Option {
	return func(o *Options) {
		o.Assembler = a
	}
}

// WithBinaryBase sets the load address of raw binaries.
func WithBinaryBase(base uint32) Option {
	return func(o *Options) {
		o.BinaryBase = base
	}
}

// Load reads a program, choosing the format from the file extension
// (.s, .asm, .bin) or the ELF magic number.
func Load(path string, opts ...Option) (*Image, error) {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm":
		return LoadAssembly(path, options.Assembler)
	case ".bin":
		return LoadBinary(path, options.BinaryBase)
	}

	head := make([]byte, len(elfMagic))
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	n, _ := file.Read(head)
	_ = file.Close()

	if n == len(elfMagic) && bytes.Equal(head, elfMagic) {
		return LoadELF(path)
	}

	return nil, ErrUnknownFormat
}

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// LoadAssembly assembles a source file. A nil assembler uses the defaults.
func LoadAssembly(path string, a *asm.Assembler) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	if a == nil {
		a = asm.New()
	}

	prog, err := a.Parse(file)
	if err != nil {
		return nil, err
	}

	return FromProgram(prog), nil
}

// FromProgram wraps an assembled program.
func FromProgram(prog *asm.Program) *Image {
	img := &Image{
		Format:  FormatAssembly,
		Entry:   prog.Entry,
		Symbols: prog.Symbols,
		Source:  prog,
	}

	if len(prog.Text) > 0 {
		text := prog.TextBytes()
		img.Regions = append(img.Regions, Segment{
			Addr:    prog.TextBase,
			Data:    text,
			MemSize: uint32(len(text)),
			Flags:   SegmentFlagRead | SegmentFlagExecute,
		})
	}
	if len(prog.Data) > 0 {
		img.Regions = append(img.Regions, Segment{
			Addr:    prog.DataBase,
			Data:    prog.Data,
			MemSize: uint32(len(prog.Data)),
			Flags:   SegmentFlagRead | SegmentFlagWrite,
		})
	}

	return img
}

// LoadBinary reads raw little-endian instruction words placed at base.
func LoadBinary(path string, base uint32) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Image{
		Format:  FormatBinary,
		Entry:   base,
		Symbols: map[string]uint32{},
		Regions: []Segment{{
			Addr:    base,
			Data:    data,
			MemSize: uint32(len(data)),
			Flags:   SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
	}, nil
}
