package mesh3

import (
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// Directive identifies the kind of a line in a text mesh file.
type Directive uint8

const (
	DirectiveUnknown Directive = iota
	DirectiveVertex            // v x y z
	DirectiveNormal            // vn x y z
	DirectiveFace              // f i1 i2 i3
)

func (d Directive) String() string {
	switch d {
	case DirectiveVertex:
		return "v"
	case DirectiveNormal:
		return "vn"
	case DirectiveFace:
		return "f"
	}
	return "unknown"
}

// Classify returns the directive of a single line and the payload that
// follows it. Leading whitespace is not skipped: a line must start with its
// directive. Trailing whitespace and line terminators are removed.
// Lines of unknown kind return DirectiveUnknown and an empty payload.
func Classify(line string) (Directive, string) {
	line = strings.TrimRight(line, " \t\r\n")
	if len(line) == 0 {
		return DirectiveUnknown, ""
	}
	switch line[0] {
	case 'v':
		if len(line) == 1 || isSpace(line[1]) {
			return DirectiveVertex, line[1:]
		}
		// Two character lookahead: vn must be told apart from "v " before
		// the payload is parsed as floats.
		if line[1] == 'n' && (len(line) == 2 || isSpace(line[2])) {
			return DirectiveNormal, line[2:]
		}
	case 'f':
		if len(line) == 1 || isSpace(line[1]) {
			return DirectiveFace, line[1:]
		}
	}
	return DirectiveUnknown, ""
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

// parseVec parses a payload of exactly three float tokens. Tokens that
// are not finite numbers are discarded before the count is checked.
func parseVec(payload string) (v ms3.Vec, ok bool) {
	var (
		f [3]float32
		n int
	)
	for _, tok := range strings.Fields(payload) {
		x, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			continue
		}
		x32 := float32(x)
		if math32.IsNaN(x32) || math32.IsInf(x32, 0) {
			continue
		}
		if n == len(f) {
			return ms3.Vec{}, false // too many components.
		}
		f[n] = x32
		n++
	}
	if n != len(f) {
		return ms3.Vec{}, false
	}
	return ms3.Vec{X: f[0], Y: f[1], Z: f[2]}, true
}

// parseFace parses a payload of exactly three 1-based vertex references and
// returns them 0-based. Zero and non-integer tokens are discarded before the
// count is checked, which drops slash separated index groups such as 1/2/3.
func parseFace(payload string) (face [3]uint32, ok bool) {
	var n int
	for _, tok := range strings.Fields(payload) {
		idx, err := strconv.ParseUint(tok, 10, 32)
		if err != nil || idx == 0 {
			continue
		}
		if n == len(face) {
			return [3]uint32{}, false
		}
		face[n] = uint32(idx - 1)
		n++
	}
	if n != len(face) {
		return [3]uint32{}, false
	}
	return face, true
}
