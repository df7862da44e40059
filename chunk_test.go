package ecs

import (
	"testing"
	"unsafe"
)

func TestChunk(t *testing.T) {
	t.Run("push row zero-initializes and tracks slot", func(t *testing.T) {
		c := newChunk(4, []int32{4})
		row, err := c.PushRow(7)
		if err != nil {
			t.Fatal(err)
		}
		if row != 0 {
			t.Fatalf("expected row 0, got %d", row)
		}
		if c.EntitySlotAt(0) != 7 {
			t.Fatal("expected slot 7 stored at row 0")
		}
		ptr := c.ComponentPtr(0, 0)
		bytes := unsafe.Slice((*byte)(ptr), 4)
		for _, b := range bytes {
			if b != 0 {
				t.Fatal("expected zero-initialized row")
			}
		}
	})

	t.Run("full after capacity rows", func(t *testing.T) {
		c := newChunk(2, []int32{4})
		if _, err := c.PushRow(1); err != nil {
			t.Fatal(err)
		}
		if c.Full() {
			t.Fatal("expected not full after one of two rows")
		}
		if _, err := c.PushRow(2); err != nil {
			t.Fatal(err)
		}
		if !c.Full() {
			t.Fatal("expected full after two of two rows")
		}
		if _, err := c.PushRow(3); err != errChunkFull {
			t.Fatalf("expected errChunkFull, got %v", err)
		}
	})

	t.Run("pop last row decrements count and returns its slot", func(t *testing.T) {
		c := newChunk(4, []int32{4})
		c.PushRow(1)
		c.PushRow(2)
		slot := c.PopLastRow()
		if slot != 2 {
			t.Fatalf("expected popped slot 2, got %d", slot)
		}
		if c.RowCount() != 1 {
			t.Fatalf("expected row count 1, got %d", c.RowCount())
		}
	})

	t.Run("copy row copies all columns and slot id", func(t *testing.T) {
		c := newChunk(4, []int32{4, 8})
		c.PushRow(10)
		c.PushRow(20)

		*(*int32)(c.ComponentPtr(0, 0)) = 111
		*(*int64)(c.ComponentPtr(1, 0)) = 222

		c.CopyRow(1, c, 0)

		if c.EntitySlotAt(1) != 10 {
			t.Fatalf("expected slot copied to 10, got %d", c.EntitySlotAt(1))
		}
		if got := *(*int32)(c.ComponentPtr(0, 1)); got != 111 {
			t.Fatalf("expected column 0 copied, got %d", got)
		}
		if got := *(*int64)(c.ComponentPtr(1, 1)); got != 222 {
			t.Fatalf("expected column 1 copied, got %d", got)
		}
	})

	t.Run("copy row onto itself is a no-op", func(t *testing.T) {
		c := newChunk(2, []int32{4})
		c.PushRow(5)
		*(*int32)(c.ComponentPtr(0, 0)) = 99
		c.CopyRow(0, c, 0)
		if got := *(*int32)(c.ComponentPtr(0, 0)); got != 99 {
			t.Fatalf("expected unchanged value 99, got %d", got)
		}
	})

	t.Run("set entity slot overwrites stored id", func(t *testing.T) {
		c := newChunk(2, []int32{4})
		c.PushRow(1)
		c.SetEntitySlot(0, 42)
		if c.EntitySlotAt(0) != 42 {
			t.Fatal("expected overwritten slot id 42")
		}
	})

	t.Run("component column exposes only live rows", func(t *testing.T) {
		c := newChunk(4, []int32{4})
		c.PushRow(1)
		c.PushRow(2)
		col := c.ComponentColumn(0)
		if len(col) != 2*4 {
			t.Fatalf("expected live-row-sized column, got %d bytes", len(col))
		}
	})
}
