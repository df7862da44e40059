package ecs

// Definition is the triple of BitMasks that selects an entity's archetype:
// which component, array and tag ids it carries. Two definitions are equal
// iff all three masks are equal. The reserved DisabledTagID bit is set in
// Tags iff the entity is currently disabled.
type Definition struct {
	Components BitMask
	Arrays     BitMask
	Tags       BitMask
}

// NewDefinition returns the empty Definition (no components, arrays or
// tags).
func NewDefinition() Definition {
	return Definition{}
}

// WithComponent returns a copy of d with component id added.
func (d Definition) WithComponent(id ComponentID) Definition {
	d.Components.Insert(int(id))
	return d
}

// WithArray returns a copy of d with array id added.
func (d Definition) WithArray(id ArrayID) Definition {
	d.Arrays.Insert(int(id))
	return d
}

// WithTag returns a copy of d with tag id added.
func (d Definition) WithTag(id TagID) Definition {
	d.Tags.Insert(int(id))
	return d
}

// WithoutComponent returns a copy of d with component id removed.
func (d Definition) WithoutComponent(id ComponentID) Definition {
	d.Components.Remove(int(id))
	return d
}

// WithoutArray returns a copy of d with array id removed.
func (d Definition) WithoutArray(id ArrayID) Definition {
	d.Arrays.Remove(int(id))
	return d
}

// WithoutTag returns a copy of d with tag id removed.
func (d Definition) WithoutTag(id TagID) Definition {
	d.Tags.Remove(int(id))
	return d
}

// HasComponent, HasArray and HasTag report membership of the respective id.
func (d Definition) HasComponent(id ComponentID) bool { return d.Components.Contains(int(id)) }
func (d Definition) HasArray(id ArrayID) bool          { return d.Arrays.Contains(int(id)) }
func (d Definition) HasTag(id TagID) bool              { return d.Tags.Contains(int(id)) }

// Disabled reports whether the reserved disabled tag is set.
func (d Definition) Disabled() bool { return d.Tags.Contains(int(DisabledTagID)) }

// Equals reports structural equality: all three masks equal.
func (d Definition) Equals(other Definition) bool {
	return d.Components == other.Components && d.Arrays == other.Arrays && d.Tags == other.Tags
}

// Union returns the componentwise union of d and other across all three
// masks.
func (d Definition) Union(other Definition) Definition {
	return Definition{
		Components: d.Components.Union(other.Components),
		Arrays:     d.Arrays.Union(other.Arrays),
		Tags:       d.Tags.Union(other.Tags),
	}
}

// hash combines the three masks into one lookup key for the archetype
// table; collisions are resolved by a direct Definition comparison, so
// this need only be a good-quality mixer, not collision-free.
func (d Definition) hash() uint64 {
	h := d.Components.Hash()
	h = h*0x100000001b3 ^ d.Arrays.Hash()
	h = h*0x100000001b3 ^ d.Tags.Hash()
	return h
}

// DefinitionBuilder is a caller-supplied callback that inserts the
// component/array/tag ids a user type requires into a Definition under
// construction. It replaces the source's describe-self inheritance
// pattern: instead of a user type declaring itself an "archetype marker"
// through a virtual method, the caller passes an explicit function.
type DefinitionBuilder func(schema *Schema, def *Definition)

// BuildDefinition runs each builder against schema in order, accumulating
// into a single Definition. This is the Definition equivalent of the
// source's Archetype.from_builder(schema, f).
func BuildDefinition(schema *Schema, builders ...DefinitionBuilder) Definition {
	var def Definition
	for _, b := range builders {
		b(schema, &def)
	}
	return def
}

// ComponentBuilder returns a DefinitionBuilder that registers T on schema
// (if needed) and adds its component id to the definition.
func ComponentBuilder[T any]() DefinitionBuilder {
	return func(schema *Schema, def *Definition) {
		id, err := RegisterComponent[T](schema)
		if err != nil {
			panic(err)
		}
		*def = def.WithComponent(id)
	}
}

// ArrayBuilder returns a DefinitionBuilder that registers element type T
// on schema (if needed) and adds its array id to the definition.
func ArrayBuilder[T any]() DefinitionBuilder {
	return func(schema *Schema, def *Definition) {
		id, err := RegisterArray[T](schema)
		if err != nil {
			panic(err)
		}
		*def = def.WithArray(id)
	}
}

// TagBuilder returns a DefinitionBuilder that registers tag type T on
// schema (if needed) and adds its tag id to the definition.
func TagBuilder[T any]() DefinitionBuilder {
	return func(schema *Schema, def *Definition) {
		id, err := RegisterTag[T](schema)
		if err != nil {
			panic(err)
		}
		*def = def.WithTag(id)
	}
}
