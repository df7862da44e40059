package ecs

import (
	"hash/fnv"
	"io"
	"reflect"
)

// ComponentID, ArrayID and TagID are the three disjoint id spaces a Schema
// assigns. Each is a dense small integer in [0, BitMaskCapacity).
type (
	ComponentID int
	ArrayID     int
	TagID       int
)

// schemaState tracks the Schema's lifecycle: Fresh -> Populated ->
// (Cleared -> Populated)*, with Disposed terminal.
type schemaState int

const (
	schemaFresh schemaState = iota
	schemaPopulated
	schemaCleared
	schemaDisposed
)

// idSpace holds the per-kind bookkeeping a Schema keeps: next free id,
// byte size, row offset (components only) and a stable type hash, plus
// the live type->id mapping used for idempotent registration.
type idSpace struct {
	count    int
	size     [BitMaskCapacity]int32
	offset   [BitMaskCapacity]int32
	hashOf   [BitMaskCapacity]int64
	typeToID map[reflect.Type]int
}

func newIDSpace() idSpace {
	return idSpace{typeToID: make(map[reflect.Type]int)}
}

func (s *idSpace) reset() {
	s.count = 0
	s.size = [BitMaskCapacity]int32{}
	s.offset = [BitMaskCapacity]int32{}
	s.hashOf = [BitMaskCapacity]int64{}
	s.typeToID = make(map[reflect.Type]int)
}

// Schema is a process-scoped registry that assigns dense ids to
// component, array-element and tag types and records their sizes and, for
// components, their row offsets. It is an explicit value owned by the
// caller (typically threaded through one World) rather than hidden
// package-level state, so registration order — and therefore every test
// built on it — stays deterministic across runs.
type Schema struct {
	state         schemaState
	components    idSpace
	arrays        idSpace
	tags          idSpace
	componentSize int32 // row_size: running sum of registered component sizes
}

// NewSchema returns a fresh, empty Schema.
func NewSchema() *Schema {
	s := &Schema{
		components: newIDSpace(),
		arrays:     newIDSpace(),
		tags:       newIDSpace(),
	}
	return s
}

func typeHash(t reflect.Type) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.PkgPath() + "." + t.Name()))
	return int64(h.Sum64())
}

// RowSize returns the current total component row size in bytes; every
// registered component's offset satisfies offset+size <= RowSize.
func (s *Schema) RowSize() int32 {
	return s.componentSize
}

// registerComponent is the untyped implementation behind RegisterComponent.
func (s *Schema) registerComponent(t reflect.Type, size int32) (ComponentID, error) {
	if id, ok := s.components.typeToID[t]; ok {
		return ComponentID(id), nil
	}
	// The last id in every id space is reserved (components and arrays
	// mirror the tag space's reservation for layout symmetry, even though
	// only the tag space currently assigns its reserved id a meaning), so
	// only BitMaskCapacity-1 ids are free to register.
	if s.components.count >= BitMaskCapacity-1 {
		return 0, SchemaExhaustedError{Kind: "component"}
	}
	id := s.components.count
	s.components.typeToID[t] = id
	s.components.size[id] = size
	s.components.offset[id] = s.componentSize
	s.components.hashOf[id] = typeHash(t)
	s.componentSize += size
	s.components.count++
	s.state = schemaPopulated
	return ComponentID(id), nil
}

func (s *Schema) registerArray(t reflect.Type, elemSize int32) (ArrayID, error) {
	if id, ok := s.arrays.typeToID[t]; ok {
		return ArrayID(id), nil
	}
	// Analogous to registerComponent's exhaustion boundary: only
	// BitMaskCapacity-1 ids are free to register.
	if s.arrays.count >= BitMaskCapacity-1 {
		return 0, SchemaExhaustedError{Kind: "array"}
	}
	id := s.arrays.count
	s.arrays.typeToID[t] = id
	s.arrays.size[id] = elemSize
	s.arrays.hashOf[id] = typeHash(t)
	s.arrays.count++
	s.state = schemaPopulated
	return ArrayID(id), nil
}

func (s *Schema) registerTag(t reflect.Type) (TagID, error) {
	if id, ok := s.tags.typeToID[t]; ok {
		return TagID(id), nil
	}
	// Tag space reserves BitMaskCapacity-1 (DisabledTagID) for the
	// built-in disabled marker, so only BitMaskCapacity-1 ids are free.
	if s.tags.count >= BitMaskCapacity-1 {
		return 0, SchemaExhaustedError{Kind: "tag"}
	}
	id := s.tags.count
	s.tags.typeToID[t] = id
	s.tags.hashOf[id] = typeHash(t)
	s.tags.count++
	s.state = schemaPopulated
	return TagID(id), nil
}

// RegisterComponent registers component type T, returning its id.
// Re-registering an already-known type is idempotent and returns the
// existing id without mutating the schema.
func RegisterComponent[T any](s *Schema) (ComponentID, error) {
	var zero T
	t := reflect.TypeOf(zero)
	return s.registerComponent(t, int32(reflect.TypeOf(zero).Size()))
}

// RegisterArray registers array-element type T, returning its id.
func RegisterArray[T any](s *Schema) (ArrayID, error) {
	var zero T
	t := reflect.TypeOf(zero)
	return s.registerArray(t, int32(reflect.TypeOf(zero).Size()))
}

// RegisterTag registers tag type T, returning its id. Tags carry no data;
// the type argument exists only to mint a distinct id per Go type.
func RegisterTag[T any](s *Schema) (TagID, error) {
	var zero T
	t := reflect.TypeOf(zero)
	return s.registerTag(t)
}

// ComponentIDOf returns the id registered for component type T, if any.
func ComponentIDOf[T any](s *Schema) (ComponentID, bool) {
	var zero T
	id, ok := s.components.typeToID[reflect.TypeOf(zero)]
	return ComponentID(id), ok
}

// ArrayIDOf returns the id registered for array-element type T, if any.
func ArrayIDOf[T any](s *Schema) (ArrayID, bool) {
	var zero T
	id, ok := s.arrays.typeToID[reflect.TypeOf(zero)]
	return ArrayID(id), ok
}

// TagIDOf returns the id registered for tag type T, if any.
func TagIDOf[T any](s *Schema) (TagID, bool) {
	var zero T
	id, ok := s.tags.typeToID[reflect.TypeOf(zero)]
	return TagID(id), ok
}

// ComponentSizeOf returns the byte size of component id.
func (s *Schema) ComponentSizeOf(id ComponentID) int32 { return s.components.size[id] }

// ComponentOffsetOf returns the row byte offset of component id.
func (s *Schema) ComponentOffsetOf(id ComponentID) int32 { return s.components.offset[id] }

// ComponentHashOf returns the stable type fingerprint of component id.
func (s *Schema) ComponentHashOf(id ComponentID) int64 { return s.components.hashOf[id] }

// ArraySizeOf returns the per-element byte size of array id.
func (s *Schema) ArraySizeOf(id ArrayID) int32 { return s.arrays.size[id] }

// ArrayHashOf returns the stable type fingerprint of array id.
func (s *Schema) ArrayHashOf(id ArrayID) int64 { return s.arrays.hashOf[id] }

// TagHashOf returns the stable type fingerprint of tag id.
func (s *Schema) TagHashOf(id TagID) int64 { return s.tags.hashOf[id] }

// ComponentCount, ArrayCount and TagCount report how many ids of each kind
// have been registered.
func (s *Schema) ComponentCount() int { return s.components.count }
func (s *Schema) ArrayCount() int     { return s.arrays.count }
func (s *Schema) TagCount() int       { return s.tags.count }

// Clear resets the schema to an empty, Fresh-equivalent state without
// discarding the Schema value itself; a cleared schema can be repopulated
// by further Register* calls (Fresh -> Populated -> Cleared -> Populated).
func (s *Schema) Clear() {
	s.components.reset()
	s.arrays.reset()
	s.tags.reset()
	s.componentSize = 0
	s.state = schemaCleared
}

// Dispose marks the schema Disposed, the terminal lifecycle state. The
// Register* functions do not check the state, so registering on a
// disposed schema still assigns ids.
func (s *Schema) Dispose() {
	s.state = schemaDisposed
}

// CopyFrom bulk-replaces this schema's state with other's. Used when
// loading a persisted world: the destination schema adopts the exact
// ids/sizes/offsets/hashes the bytes were produced with.
func (s *Schema) CopyFrom(other *Schema) {
	s.components = other.components
	s.arrays = other.arrays
	s.tags = other.tags
	s.componentSize = other.componentSize
	s.state = other.state
	// idSpace.typeToID maps point at the same map value; since CopyFrom is
	// used for cold-load scenarios where the destination schema is not
	// concurrently registering new Go types, sharing is safe. A defensive
	// copy keeps later registration on either schema independent.
	s.components.typeToID = cloneTypeMap(other.components.typeToID)
	s.arrays.typeToID = cloneTypeMap(other.arrays.typeToID)
	s.tags.typeToID = cloneTypeMap(other.tags.typeToID)
}

func cloneTypeMap(m map[reflect.Type]int) map[reflect.Type]int {
	out := make(map[reflect.Type]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equals reports whether two schemas have identical (count, sizes,
// offsets, hashes) tuples for every kind.
func (s *Schema) Equals(other *Schema) bool {
	if s.components.count != other.components.count ||
		s.arrays.count != other.arrays.count ||
		s.tags.count != other.tags.count {
		return false
	}
	for i := 0; i < s.components.count; i++ {
		if s.components.size[i] != other.components.size[i] ||
			s.components.offset[i] != other.components.offset[i] ||
			s.components.hashOf[i] != other.components.hashOf[i] {
			return false
		}
	}
	for i := 0; i < s.arrays.count; i++ {
		if s.arrays.size[i] != other.arrays.size[i] || s.arrays.hashOf[i] != other.arrays.hashOf[i] {
			return false
		}
	}
	for i := 0; i < s.tags.count; i++ {
		if s.tags.hashOf[i] != other.tags.hashOf[i] {
			return false
		}
	}
	return true
}

// Serialize writes the schema payload described in spec.md §6 to w.
func (s *Schema) Serialize(w io.Writer) error {
	return writeSchema(w, s)
}

// Deserialize replaces s's state with the schema payload read from r. If
// the read fails (e.g. a truncated payload), s is left empty and the error
// is returned. The sizes in the payload are adopted as they are; they are
// not compared with sizes s had registered before, so a size mismatch is
// not detected.
func (s *Schema) Deserialize(r io.Reader) error {
	fresh, err := readSchema(r)
	if err != nil {
		s.Clear()
		return err
	}
	s.CopyFrom(fresh)
	return nil
}
