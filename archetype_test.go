package ecs

import "testing"

func setValue(a *Archetype, chunkIndex, row int, id ComponentID, v int32) {
	*(*int32)(a.ComponentPtr(chunkIndex, row, id)) = v
}

func getValue(a *Archetype, chunkIndex, row int, id ComponentID) int32 {
	return *(*int32)(a.ComponentPtr(chunkIndex, row, id))
}

func TestArchetypeLiteralSwapRemoveScenario(t *testing.T) {
	// 512 entities with {A}, CHUNK_CAPACITY=256: two full chunks.
	// Destroying (chunk 0, row 0) must swap in the entity previously at
	// (chunk 1, row 255).
	schema := NewSchema()
	idA, _ := RegisterComponent[testA](schema)
	def := NewDefinition().WithComponent(idA)
	a := newArchetype(1, def, schema, 256)

	for i := 0; i < 512; i++ {
		ci, row := a.Insert(uint32(i))
		setValue(a, ci, row, idA, int32(i))
	}
	if len(a.Chunks()) != 2 {
		t.Fatalf("expected exactly 2 chunks, got %d", len(a.Chunks()))
	}
	if !a.Chunks()[0].Full() || !a.Chunks()[1].Full() {
		t.Fatal("expected both chunks full")
	}

	movedSlot, moved := a.Remove(0, 0)
	if !moved {
		t.Fatal("expected a move")
	}
	if movedSlot != 511 {
		t.Fatalf("expected the entity previously at (chunk 1, row 255), slot 511, moved in; got %d", movedSlot)
	}
	if a.EntityCount() != 511 {
		t.Fatalf("expected entity_count 511, got %d", a.EntityCount())
	}
	if a.Chunks()[1].RowCount() != 255 {
		t.Fatalf("expected chunk 1 row_count 255, got %d", a.Chunks()[1].RowCount())
	}
	if a.Chunks()[0].RowCount() != 256 {
		t.Fatalf("expected chunk 0 row_count 256, got %d", a.Chunks()[0].RowCount())
	}
}

func TestArchetype(t *testing.T) {
	t.Run("insert grows chunks only once the last is full", func(t *testing.T) {
		schema := NewSchema()
		idA, _ := RegisterComponent[testA](schema)
		def := NewDefinition().WithComponent(idA)
		a := newArchetype(1, def, schema, 4)

		for i := 0; i < 9; i++ {
			ci, row := a.Insert(uint32(i))
			setValue(a, ci, row, idA, int32(i))
		}
		if len(a.Chunks()) != 3 {
			t.Fatalf("expected 3 chunks for 9 rows at capacity 4, got %d", len(a.Chunks()))
		}
		if a.EntityCount() != 9 {
			t.Fatalf("expected entity count 9, got %d", a.EntityCount())
		}
		if !a.Chunks()[0].Full() || !a.Chunks()[1].Full() {
			t.Fatal("expected all but the last chunk full")
		}
		if a.Chunks()[2].RowCount() != 1 {
			t.Fatalf("expected last chunk to hold the remainder, got %d rows", a.Chunks()[2].RowCount())
		}
	})

	t.Run("remove swaps the archetype's true global last row across chunks", func(t *testing.T) {
		schema := NewSchema()
		idA, _ := RegisterComponent[testA](schema)
		def := NewDefinition().WithComponent(idA)
		a := newArchetype(1, def, schema, 4)

		// 9 rows at capacity 4: chunk 0 rows 0-3 (slots 0-3), chunk 1 rows
		// 0-3 (slots 4-7), chunk 2 row 0 (slot 8). The true last row is
		// (chunk 2, row 0) holding slot 8, two chunks away from the row
		// being removed.
		for i := 0; i < 9; i++ {
			ci, row := a.Insert(uint32(i))
			setValue(a, ci, row, idA, int32(i))
		}

		movedSlot, moved := a.Remove(0, 0)
		if !moved {
			t.Fatal("expected a row to have moved")
		}
		if movedSlot != 8 {
			t.Fatalf("expected slot 8 (the true last row) moved into the vacated row, got %d", movedSlot)
		}
		if got := getValue(a, 0, 0, idA); got != 8 {
			t.Fatalf("expected component value 8 copied into vacated row, got %d", got)
		}
		if a.EntityCount() != 8 {
			t.Fatalf("expected entity count 8 after remove, got %d", a.EntityCount())
		}
		if a.Chunks()[2].RowCount() != 0 {
			t.Fatal("expected the emptied tail chunk to report zero rows")
		}
	})

	t.Run("remove of the true last row moves nothing", func(t *testing.T) {
		schema := NewSchema()
		idA, _ := RegisterComponent[testA](schema)
		def := NewDefinition().WithComponent(idA)
		a := newArchetype(1, def, schema, 4)

		for i := 0; i < 3; i++ {
			a.Insert(uint32(i))
		}
		_, moved := a.Remove(0, 2)
		if moved {
			t.Fatal("expected no move when removing the true last row")
		}
		if a.EntityCount() != 2 {
			t.Fatalf("expected entity count 2, got %d", a.EntityCount())
		}
	})

	t.Run("remove within the same chunk swaps only that chunk", func(t *testing.T) {
		schema := NewSchema()
		idA, _ := RegisterComponent[testA](schema)
		def := NewDefinition().WithComponent(idA)
		a := newArchetype(1, def, schema, 4)

		for i := 0; i < 4; i++ {
			ci, row := a.Insert(uint32(i))
			setValue(a, ci, row, idA, int32(i))
		}
		movedSlot, moved := a.Remove(0, 1)
		if !moved || movedSlot != 3 {
			t.Fatalf("expected slot 3 moved into row 1, got %d moved=%v", movedSlot, moved)
		}
		if got := getValue(a, 0, 1, idA); got != 3 {
			t.Fatalf("expected value 3 at row 1, got %d", got)
		}
	})

	t.Run("array columns track rows through insert and remove", func(t *testing.T) {
		schema := NewSchema()
		idArr, _ := RegisterArray[testA](schema)
		def := NewDefinition().WithArray(idArr)
		a := newArchetype(1, def, schema, 2)

		ci0, row0 := a.Insert(0)
		h0 := a.ArrayHandleAt(ci0, row0, idArr)
		h0.Append([]byte{1, 2, 3, 4})

		ci1, row1 := a.Insert(1)
		a.ArrayHandleAt(ci1, row1, idArr)

		ci2, row2 := a.Insert(2)
		h2 := a.ArrayHandleAt(ci2, row2, idArr)
		h2.Append([]byte{9, 9, 9, 9})

		a.Remove(0, 0)

		moved := a.ArrayHandleAt(0, 0, idArr)
		if moved.Len() != 1 {
			t.Fatalf("expected the moved row's array data to follow it, got len %d", moved.Len())
		}
	})

	t.Run("copy row into transfers shared components", func(t *testing.T) {
		schema := NewSchema()
		idA, _ := RegisterComponent[testA](schema)
		idArr, _ := RegisterArray[testA](schema)
		srcDef := NewDefinition().WithComponent(idA).WithArray(idArr)
		dstDef := NewDefinition().WithComponent(idA)

		src := newArchetype(1, srcDef, schema, 4)
		dst := newArchetype(2, dstDef, schema, 4)

		ci, row := src.Insert(0)
		setValue(src, ci, row, idA, 77)
		h := src.ArrayHandleAt(ci, row, idArr)
		h.Append([]byte{1, 2, 3, 4})

		dci, drow := dst.Insert(0)
		src.CopyRowInto(ci, row, dst, dci, drow)

		if got := getValue(dst, dci, drow, idA); got != 77 {
			t.Fatalf("expected component value 77 copied, got %d", got)
		}
	})
}
