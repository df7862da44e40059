package ecs

import (
	"errors"
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// errChunkFull is returned internally by Chunk.PushRow when a chunk has no
// remaining row capacity; the archetype always picks or allocates a chunk
// with room before pushing, so it never surfaces to a caller of World.
var errChunkFull = errors.New("chunk is full")

// EntityNotFoundError reports a stale or out-of-range entity handle.
type EntityNotFoundError struct {
	Entity Entity
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity not found: %v", e.Entity)
}

// MissingComponentError reports an operation that referenced a component
// id not present on the entity.
type MissingComponentError struct {
	Entity Entity
	ID     ComponentID
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("entity %v has no component %d", e.Entity, e.ID)
}

// MissingArrayError reports an operation that referenced an array id not
// present on the entity.
type MissingArrayError struct {
	Entity Entity
	ID     ArrayID
}

func (e MissingArrayError) Error() string {
	return fmt.Sprintf("entity %v has no array %d", e.Entity, e.ID)
}

// MissingTagError reports an operation that referenced a tag id not
// present on the entity.
type MissingTagError struct {
	Entity Entity
	ID     TagID
}

func (e MissingTagError) Error() string {
	return fmt.Sprintf("entity %v has no tag %d", e.Entity, e.ID)
}

// DuplicateComponentError reports an add of a component id already present
// on the entity.
type DuplicateComponentError struct {
	Entity Entity
	ID     ComponentID
}

func (e DuplicateComponentError) Error() string {
	return fmt.Sprintf("entity %v already has component %d", e.Entity, e.ID)
}

// DuplicateArrayError reports an add of an array id already present on the
// entity.
type DuplicateArrayError struct {
	Entity Entity
	ID     ArrayID
}

func (e DuplicateArrayError) Error() string {
	return fmt.Sprintf("entity %v already has array %d", e.Entity, e.ID)
}

// DuplicateTagError reports an add of a tag id already present on the
// entity.
type DuplicateTagError struct {
	Entity Entity
	ID     TagID
}

func (e DuplicateTagError) Error() string {
	return fmt.Sprintf("entity %v already has tag %d", e.Entity, e.ID)
}

// UnknownTypeError reports a schema lookup by a type key that was never
// registered.
type UnknownTypeError struct {
	TypeKey any
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("type %v is not registered with this schema", e.TypeKey)
}

// SchemaExhaustedError reports that an id space (components, arrays, or
// tags) has no free ids left to assign.
type SchemaExhaustedError struct {
	Kind string
}

func (e SchemaExhaustedError) Error() string {
	return fmt.Sprintf("schema exhausted: no free %s ids remain", e.Kind)
}

// SignatureMismatchError reports a deserialize call against a buffer whose
// header does not start with the world signature.
type SignatureMismatchError struct {
	Got [6]byte
}

func (e SignatureMismatchError) Error() string {
	return fmt.Sprintf("signature mismatch: got %q, want \"#WORLD\"", e.Got[:])
}

// VersionUnsupportedError reports a deserialize call against a buffer
// whose format version this build does not understand.
type VersionUnsupportedError struct {
	Version uint32
}

func (e VersionUnsupportedError) Error() string {
	return fmt.Sprintf("unsupported world format version %d", e.Version)
}

// CycleInParentageError reports a SetParent call that would introduce a
// cycle in the parent/child graph.
type CycleInParentageError struct {
	Child, Parent Entity
}

func (e CycleInParentageError) Error() string {
	return fmt.Sprintf("setting parent of %v to %v would introduce a cycle", e.Child, e.Parent)
}

// StorageLockedError reports a structural-change call attempted while the
// World is locked by an in-flight query pass; the caller's operation has
// been queued instead of applied (see the World.Enqueue* methods and
// EnqueueAddComponent/EnqueueRemoveComponent).
type StorageLockedError struct{}

func (e StorageLockedError) Error() string {
	return "world is locked by an in-flight query pass; operation queued"
}

// wrapCoreBug annotates an error that should never escape a correct caller
// (an invariant the storage core itself is responsible for, not the user)
// with a stack trace, so a panic carrying it points straight at the
// violated invariant instead of just the panic site.
func wrapCoreBug(err error) error {
	return bark.AddTrace(err)
}
