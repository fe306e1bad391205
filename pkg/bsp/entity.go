package bsp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Faultbox/vbsp-viewer/pkg/encoding"
	"github.com/Faultbox/vbsp-viewer/pkg/math"
)

var (
	entityBlock = regexp.MustCompile(`\{[^}]*\}`)
	quotedToken = regexp.MustCompile(`"[^"]*"`)
)

// ErrNegativeModel is returned for "*-N" model references.
var ErrNegativeModel = errors.New("negative model index")

// ErrInvalidModel is returned when "*" is not followed by decimal digits only.
var ErrInvalidModel = errors.New("model index is not a digit string")

// Entity is one key/value block of the entity lump.
type Entity map[string]string

// ParseEntities splits the entity lump into key/value blocks.
// Braces do not nest. Within a block, quoted tokens pair up as key then value;
// an unpaired trailing key is dropped and a repeated key keeps its last value.
func ParseEntities(data []byte) []Entity {
	text := encoding.DecodeText(data)

	var out []Entity
	for _, block := range entityBlock.FindAllString(text, -1) {
		tokens := quotedToken.FindAllString(block, -1)
		ent := make(Entity, len(tokens)/2)
		for i := 0; i+1 < len(tokens); i += 2 {
			ent[unquote(tokens[i])] = unquote(tokens[i+1])
		}
		out = append(out, ent)
	}
	return out
}

func unquote(token string) string {
	return strings.TrimSpace(strings.Trim(token, `"`))
}

// ClassName returns the "classname" value, or "" when absent.
func (e Entity) ClassName() string {
	return e["classname"]
}

// ModelIndex resolves which brush model the entity places.
// worldspawn is model 0 and "*N" is model N. Any other model value
// (a studio model path) or a missing key reports ok == false.
func (e Entity) ModelIndex() (index int, ok bool, err error) {
	if e.ClassName() == "worldspawn" {
		return 0, true, nil
	}
	model, found := e["model"]
	if !found || !strings.HasPrefix(model, "*") {
		return 0, false, nil
	}
	digits := model[1:]
	if rest, neg := strings.CutPrefix(digits, "-"); neg && isDigits(rest) {
		return 0, false, &ParseError{Key: "model", Value: model, Err: ErrNegativeModel}
	}
	if !isDigits(digits) {
		return 0, false, &ParseError{Key: "model", Value: model, Err: ErrInvalidModel}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false, &ParseError{Key: "model", Value: model, Err: err}
	}
	return n, true, nil
}

// Origin returns the entity's world position, axis-flipped and scaled to meters.
func (e Entity) Origin() (pos math.Vec3, ok bool, err error) {
	value, found := e["origin"]
	if !found {
		return math.Vec3{}, false, nil
	}
	fields := strings.Fields(value)
	if len(fields) < 3 {
		return math.Vec3{}, false, &ParseError{
			Key: "origin", Value: value,
			Err: fmt.Errorf("expected 3 components, got %d", len(fields)),
		}
	}
	var c [3]float32
	for i := range c {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, false, &ParseError{Key: "origin", Value: value, Err: err}
		}
		c[i] = float32(v)
	}
	return FlipVector(math.Vec3{X: c[0], Y: c[1], Z: c[2]}).Scale(WorldScale), true, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
