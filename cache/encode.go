package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/mitchellh/hashstructure/v2"
)

// Encoding tags. Every encoded value starts with one.
const (
	tagNil       = 'n'
	tagType      = 't'
	tagHashable  = 'h'
	tagBool      = 'b'
	tagInt       = 'i'
	tagUint      = 'u'
	tagFloat     = 'f'
	tagComplex   = 'c'
	tagString    = 's'
	tagBytes     = 'y'
	tagSlice     = 'l'
	tagArray     = 'a'
	tagMap       = 'm'
	tagStruct    = 'r'
	tagPointer   = 'p'
	tagInterface = 'e'
)

var hashableType = reflect.TypeFor[hashstructure.Hashable]()

// visit identifies a reference on the path from the root value.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// encoder writes an exact encoding of a value: every struct field is
// included whether exported or not, strings are written byte for byte and
// floats by their bits. Two values share an encoding only when they are
// structurally identical. Types implementing hashstructure.Hashable supply
// their own identity instead.
type encoder struct {
	buf  []byte
	path map[visit]struct{}
}

// encodeArgument returns the type-tagged encoding of v.
func encodeArgument(v any) ([]byte, error) {
	e := &encoder{path: make(map[visit]struct{})}
	if err := e.dynamic(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// dynamic writes the type of v followed by its value.
func (e *encoder) dynamic(v reflect.Value) error {
	if !v.IsValid() {
		e.buf = append(e.buf, tagNil)
		return nil
	}
	e.buf = append(e.buf, tagType)
	e.str(typeID(v.Type()))
	return e.value(v)
}

func typeID(t reflect.Type) string {
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func (e *encoder) str(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) value(v reflect.Value) error {
	if ok, err := e.hashable(v); ok || err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.Bool:
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		e.buf = append(e.buf, tagBool, b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf = binary.AppendVarint(append(e.buf, tagInt), v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.buf = binary.AppendUvarint(append(e.buf, tagUint), v.Uint())
	case reflect.Float32, reflect.Float64:
		e.buf = binary.BigEndian.AppendUint64(append(e.buf, tagFloat), math.Float64bits(v.Float()))
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		e.buf = append(e.buf, tagComplex)
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(real(c)))
		e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(imag(c)))
	case reflect.String:
		e.buf = append(e.buf, tagString)
		e.str(v.String())
	case reflect.Slice:
		return e.slice(v)
	case reflect.Array:
		e.buf = binary.AppendUvarint(append(e.buf, tagArray), uint64(v.Len()))
		for i := range v.Len() {
			if err := e.value(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		return e.mapping(v)
	case reflect.Struct:
		t := v.Type()
		e.buf = binary.AppendUvarint(append(e.buf, tagStruct), uint64(t.NumField()))
		for i := range t.NumField() {
			e.str(t.Field(i).Name)
			if err := e.value(v.Field(i)); err != nil {
				return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
			}
		}
	case reflect.Pointer:
		if v.IsNil() {
			e.buf = append(e.buf, tagNil)
			return nil
		}
		return e.enter(visit{ptr: v.Pointer(), typ: v.Type()}, func() error {
			e.buf = append(e.buf, tagPointer)
			return e.value(v.Elem())
		})
	case reflect.Interface:
		e.buf = append(e.buf, tagInterface)
		return e.dynamic(v.Elem())
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}

// hashable writes the value's own hash when its type implements
// hashstructure.Hashable and the value is reachable through exported
// fields.
func (e *encoder) hashable(v reflect.Value) (bool, error) {
	if v.Kind() == reflect.Interface || !v.CanInterface() || !v.Type().Implements(hashableType) {
		return false, nil
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return false, nil
	}
	h, ok := v.Interface().(hashstructure.Hashable)
	if !ok {
		return false, nil
	}
	sum, err := h.Hash()
	if err != nil {
		return true, fmt.Errorf("%s.Hash: %w", v.Type(), err)
	}
	e.buf = binary.BigEndian.AppendUint64(append(e.buf, tagHashable), sum)
	return true, nil
}

func (e *encoder) slice(v reflect.Value) error {
	if v.IsNil() {
		e.buf = append(e.buf, tagNil)
		return nil
	}
	if v.Type().Elem().Kind() == reflect.Uint8 {
		e.buf = append(e.buf, tagBytes)
		e.buf = binary.AppendUvarint(e.buf, uint64(v.Len()))
		e.buf = append(e.buf, v.Bytes()...)
		return nil
	}
	return e.enter(visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}, func() error {
		e.buf = binary.AppendUvarint(append(e.buf, tagSlice), uint64(v.Len()))
		for i := range v.Len() {
			if err := e.value(v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// mapping writes map entries ordered by their encoded key, then value.
func (e *encoder) mapping(v reflect.Value) error {
	if v.IsNil() {
		e.buf = append(e.buf, tagNil)
		return nil
	}
	return e.enter(visit{ptr: v.Pointer(), typ: v.Type()}, func() error {
		type entry struct{ key, val []byte }
		entries := make([]entry, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := e.sub(iter.Key())
			if err != nil {
				return fmt.Errorf("map key: %w", err)
			}
			val, err := e.sub(iter.Value())
			if err != nil {
				return fmt.Errorf("map value: %w", err)
			}
			entries = append(entries, entry{key, val})
		}
		slices.SortFunc(entries, func(a, b entry) int {
			if c := bytes.Compare(a.key, b.key); c != 0 {
				return c
			}
			return bytes.Compare(a.val, b.val)
		})

		e.buf = binary.AppendUvarint(append(e.buf, tagMap), uint64(len(entries)))
		for _, en := range entries {
			e.buf = append(e.buf, en.key...)
			e.buf = append(e.buf, en.val...)
		}
		return nil
	})
}

// sub encodes v on its own, sharing the cycle path.
func (e *encoder) sub(v reflect.Value) ([]byte, error) {
	saved := e.buf
	e.buf = nil
	err := e.value(v)
	out := e.buf
	e.buf = saved
	return out, err
}

// enter runs fn with ref on the path, failing if ref is already on it.
func (e *encoder) enter(ref visit, fn func() error) error {
	if _, ok := e.path[ref]; ok {
		return fmt.Errorf("cyclic %s", ref.typ)
	}
	e.path[ref] = struct{}{}
	defer delete(e.path, ref)
	return fn()
}
