// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"os"
	"runtime"
	"unicode/utf8"

	"github.com/creachadair/jtape/internal/stage1"
	"github.com/klauspost/cpuid/v2"
	"go4.org/mem"
)

// An Implementation finds the structural indexes of a JSON input (stage 1 of
// a parse) and owns the sizing of the scratch state a Parser uses to build
// its tape.
type Implementation interface {
	// Name returns a short unique name for the implementation.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Supported reports whether the implementation can run on this CPU.
	Supported() bool

	// Allocate sizes s to hold the state for inputs of up to capacity bytes
	// nested at most maxDepth containers deep. Passing zero for both releases
	// the state.
	Allocate(s *Scratch, capacity, maxDepth int) error

	// Stage1 records the structural indexes of buf in s.Indexes and their
	// count in s.N. The capacity of buf extends at least padded.Padding bytes
	// beyond its length. If streaming is true, buf may end in the middle of a
	// document.
	Stage1(buf []byte, s *Scratch, streaming bool) error
}

// Scratch is the working state shared by stage 1 and stage 2 of a parse.
type Scratch struct {
	Indexes []uint32 // structural offsets, followed by a sentinel
	N       int      // number of structural offsets in Indexes
	Next    int      // index of the first structural not yet consumed

	scopes   []scope
	capacity int
	maxDepth int
}

// A scope records an open container or the root on the stage 2 stack.
type scope struct {
	tape int // index of the opening tape entry
	tag  Tag
}

// Resize replaces the buffers of s with ones sized for the given capacity and
// depth. It reports Memalloc if either is out of range.
func (s *Scratch) Resize(capacity, maxDepth int) error {
	if capacity < 0 || capacity > MaxCapacity || maxDepth < 0 || maxDepth > MaxDepthLimit {
		return Memalloc
	}
	s.capacity, s.maxDepth = capacity, maxDepth
	s.N, s.Next = 0, 0
	if capacity == 0 {
		s.Indexes = nil
	} else {
		s.Indexes = make([]uint32, capacity+2)
	}
	if maxDepth == 0 {
		s.scopes = nil
	} else {
		s.scopes = make([]scope, 0, maxDepth+1)
	}
	return nil
}

// Capacity reports the input size s is allocated for.
func (s *Scratch) Capacity() int { return s.capacity }

// MaxDepth reports the container depth s is allocated for.
func (s *Scratch) MaxDepth() int { return s.maxDepth }

// kernel adapts a stage1 scanning function to the Implementation interface.
type kernel struct {
	name      string
	desc      string
	supported func() bool
	scan      func(buf []byte, out []uint32, partial bool) stage1.Result
	overread  int // bytes scan may read past len(buf)
}

func (k *kernel) Name() string        { return k.name }
func (k *kernel) Description() string { return k.desc }
func (k *kernel) Supported() bool     { return k.supported() }

func (k *kernel) Allocate(s *Scratch, capacity, maxDepth int) error {
	return s.Resize(capacity, maxDepth)
}

func (k *kernel) Stage1(buf []byte, s *Scratch, streaming bool) error {
	s.N, s.Next = 0, 0
	if len(buf) > s.capacity {
		return newError(Capacity, buf, -1, "input of %d bytes exceeds capacity %d", len(buf), s.capacity)
	}
	scan := k.scan
	if cap(buf)-len(buf) < k.overread {
		scan = stage1.Bytewise
	}
	res := scan(buf, s.Indexes, streaming)
	switch res.Fault {
	case stage1.None:
	case stage1.Empty:
		return newError(Empty, buf, -1, "")
	case stage1.UnclosedString:
		return newError(UnclosedString, buf, res.Pos, "")
	case stage1.UnescapedChars:
		return newError(UnescapedChars, buf, res.Pos, "")
	case stage1.UnsupportedBOM:
		return newError(UTF8Error, buf, 0, "%v", res.Fault)
	case stage1.Overflow:
		return newError(Capacity, buf, res.Pos, "%v", res.Fault)
	default:
		return newError(InternalError, buf, res.Pos, "stage 1: %v", res.Fault)
	}
	if !mem.ValidUTF8(mem.B(buf)) {
		return newError(UTF8Error, buf, invalidUTF8(buf), "")
	}
	s.N = res.N
	return nil
}

// invalidUTF8 returns the offset of the first invalid UTF-8 sequence in buf.
func invalidUTF8(buf []byte) int {
	for i := 0; i < len(buf); {
		r, n := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && n == 1 {
			return i
		}
		i += n
	}
	return len(buf)
}

// unsupported is the Implementation selected when nothing else can run.
type unsupported struct{}

func (unsupported) Name() string        { return "unsupported" }
func (unsupported) Description() string { return "no implementation supports this CPU" }
func (unsupported) Supported() bool     { return false }

func (unsupported) Allocate(*Scratch, int, int) error { return UnsupportedArchitecture }

func (unsupported) Stage1([]byte, *Scratch, bool) error { return UnsupportedArchitecture }

// ForceImplementationEnv names an environment variable that, if set when the
// package is initialized, selects the named implementation instead of the
// best supported one.
const ForceImplementationEnv = "JTAPE_FORCE_IMPLEMENTATION"

var (
	swarImpl = &kernel{
		name:      "swar",
		desc:      "word-at-a-time scanner for 64-bit CPUs",
		supported: hasWideLoads,
		scan:      stage1.SWAR,
		overread:  stage1.WordPadding,
	}
	fallbackImpl = &kernel{
		name:      "fallback",
		desc:      "portable byte-at-a-time scanner",
		supported: func() bool { return true },
		scan:      stage1.Bytewise,
	}

	available = []Implementation{swarImpl, fallbackImpl}
	active    = detect(os.Getenv(ForceImplementationEnv))
)

// hasWideLoads reports whether the CPU handles the unaligned 64-bit loads and
// bit counting the SWAR kernel relies on efficiently.
func hasWideLoads() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpuid.CPU.Supports(cpuid.BMI1)
	case "arm64":
		return cpuid.CPU.Supports(cpuid.ASIMD)
	default:
		return false
	}
}

// detect returns the named implementation if force is set, or the first
// supported implementation in order of preference.
func detect(force string) Implementation {
	if force != "" {
		if impl := Lookup(force); impl != nil && impl.Supported() {
			return impl
		}
		return unsupported{}
	}
	for _, impl := range available {
		if impl.Supported() {
			return impl
		}
	}
	return unsupported{}
}

// Available returns the implementations compiled into the package, in order
// of preference, whether or not they are supported on this CPU.
func Available() []Implementation { return append([]Implementation(nil), available...) }

// Active returns the implementation new parsers use by default.
func Active() Implementation { return active }

// Lookup returns the available implementation with the given name, or nil.
func Lookup(name string) Implementation {
	for _, impl := range available {
		if impl.Name() == name {
			return impl
		}
	}
	return nil
}

// SetActive sets the implementation new parsers use by default. It must not
// be called concurrently with New.
func SetActive(impl Implementation) {
	if impl == nil {
		impl = unsupported{}
	}
	active = impl
}
