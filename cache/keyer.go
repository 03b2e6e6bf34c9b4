package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"maps"
)

// keyBytes is the number of digest bytes kept in a key (128 bits).
const keyBytes = 16

// Param describes one declared parameter of a memoized function.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Required declares a parameter without a default.
func Required(name string) Param {
	return Param{Name: name}
}

// Optional declares a parameter with a default value.
func Optional(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Signature is the ordered parameter list of a memoized function.
type Signature []Param

// Args holds the arguments of one call, split the way the caller passed them.
type Args struct {
	Positional []any
	Named      map[string]any
}

// NewArgs creates Args from positional values.
func NewArgs(positional ...any) Args {
	return Args{Positional: positional}
}

// With returns a copy of a with a named argument added.
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	maps.Copy(named, a.Named)
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// Keyer derives cache keys from call arguments.
//
// Contract:
// - Register must be called exactly once, before any Key call.
// - Determinism: calls resolving to the same values yield the same key,
// however the arguments were split between positional and named.
// - Concurrency: Key must be safe for concurrent use after Register.
type Keyer interface {
	// Register binds the keyer to a function signature.
	Register(sig Signature) error

	// Key derives the key for one call.
	Key(args Args) (string, error)
}

// TemplateKeyer keys calls by the values of a fixed, ordered subset of the
// function's parameters.
//
// Key format: [<namespace>:]<hex>, where hex is the first 16 bytes of
// SHA-256 over the length-prefixed encodings of the resolved values. Each
// value is encoded exactly, as its Go type followed by its structure:
// unexported fields and non-UTF-8 strings included, maps ordered by key.
// Channels, functions and cyclic values cannot be keyed.
type TemplateKeyer struct {
	template   []string
	namespace  string
	slots      []templateSlot
	registered bool
}

type templateSlot struct {
	name       string
	position   int
	def        any
	hasDefault bool
}

// NewTemplateKeyer creates a keyer for the given parameter names. An empty
// template maps every call to the same key.
func NewTemplateKeyer(template ...string) *TemplateKeyer {
	return &TemplateKeyer{template: append([]string(nil), template...)}
}

// WithNamespace prefixes every key with ns, so several functions can share
// one store.
func (k *TemplateKeyer) WithNamespace(ns string) *TemplateKeyer {
	k.namespace = ns
	return k
}

// Template returns a copy of the template.
func (k *TemplateKeyer) Template() []string {
	return append([]string(nil), k.template...)
}

// Register builds the parameter index for sig.
func (k *TemplateKeyer) Register(sig Signature) error {
	if k.registered {
		return ErrAlreadyRegistered
	}

	positions := make(map[string]int, len(sig))
	for i, p := range sig {
		if p.Name == "" {
			return fmt.Errorf("%w: parameter %d has no name", ErrInvalidTemplate, i)
		}
		if _, dup := positions[p.Name]; dup {
			return fmt.Errorf("%w: duplicate parameter %q", ErrInvalidTemplate, p.Name)
		}
		positions[p.Name] = i
	}

	slots := make([]templateSlot, 0, len(k.template))
	for _, name := range k.template {
		pos, ok := positions[name]
		if !ok {
			return fmt.Errorf("%w: %q is not a function parameter", ErrInvalidTemplate, name)
		}
		p := sig[pos]
		slots = append(slots, templateSlot{
			name:       name,
			position:   pos,
			def:        p.Default,
			hasDefault: p.HasDefault,
		})
	}

	k.slots = slots
	k.registered = true
	return nil
}

// Key derives the cache key for args.
func (k *TemplateKeyer) Key(args Args) (string, error) {
	if !k.registered {
		return "", ErrNotRegistered
	}

	h := sha256.New()
	var prefix [binary.MaxVarintLen64]byte
	for _, slot := range k.slots {
		v, err := slot.resolve(args)
		if err != nil {
			return "", err
		}
		enc, err := encodeArgument(v)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrUnhashableArgument, slot.name, err)
		}
		n := binary.PutUvarint(prefix[:], uint64(len(enc)))
		h.Write(prefix[:n])
		h.Write(enc)
	}

	sum := h.Sum(nil)
	key := hex.EncodeToString(sum[:keyBytes])
	if k.namespace != "" {
		return k.namespace + ":" + key, nil
	}
	return key, nil
}

// resolve picks the positional value, then the named value, then the
// default. Positional wins when both are supplied.
func (s templateSlot) resolve(args Args) (any, error) {
	if s.position < len(args.Positional) {
		return args.Positional[s.position], nil
	}
	if v, ok := args.Named[s.name]; ok {
		return v, nil
	}
	if s.hasDefault {
		return s.def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingArgument, s.name)
}

// Ensure TemplateKeyer implements Keyer
var _ Keyer = (*TemplateKeyer)(nil)
