package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"
)

const (
	magic         = "creditguard-artifact"
	formatVersion = 1
)

// ErrDeserialization marks artifact files that are corrupt, were written by
// an incompatible format version, or hold a different kind or type.
var ErrDeserialization = errors.New("artifact: deserialization error")

// header precedes every serialized value.
type header struct {
	Magic   string
	Version int
	Kind    Kind
	Type    string
	SavedAt time.Time
}

func encode(w io.Writer, kind Kind, v any) error {
	enc := gob.NewEncoder(w)
	h := header{
		Magic:   magic,
		Version: formatVersion,
		Kind:    kind,
		Type:    typeName(reflect.TypeOf(v)),
		SavedAt: time.Now().UTC(),
	}
	if err := enc.Encode(h); err != nil {
		return err
	}
	return enc.Encode(v)
}

func decode(r io.Reader, kind Kind, into any) (header, error) {
	dec := gob.NewDecoder(r)
	var h header
	if err := dec.Decode(&h); err != nil {
		return h, fmt.Errorf("%w: read header: %w", ErrDeserialization, err)
	}
	if h.Magic != magic {
		return h, fmt.Errorf("%w: not an artifact file", ErrDeserialization)
	}
	if h.Version != formatVersion {
		return h, fmt.Errorf("%w: format version %d, want %d", ErrDeserialization, h.Version, formatVersion)
	}
	if h.Kind != kind {
		return h, fmt.Errorf("%w: file holds a %s, not a %s", ErrDeserialization, h.Kind, kind)
	}
	if want := typeName(reflect.TypeOf(into)); h.Type != want {
		return h, fmt.Errorf("%w: file holds %s, cannot load into %s", ErrDeserialization, h.Type, want)
	}
	if err := dec.Decode(into); err != nil {
		return h, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	return h, nil
}

// typeName names the underlying type with every pointer level removed, so
// a value saved as T or *T loads into *T or **T.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
