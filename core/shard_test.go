package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestNextWindow_Formula(t *testing.T) {
	tests := []struct {
		instance, total, pageSize, round int
		wantOffset                       int
	}{
		{0, 1, 100, 0, 0},
		{0, 1, 100, 1, 100},
		{0, 2, 100, 0, 0},
		{1, 2, 100, 0, 100},
		{0, 2, 100, 1, 200},
		{1, 2, 100, 1, 300},
		{2, 3, 10, 4, 20 + 4*30},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("i=%d/n=%d/p=%d/r=%d", tt.instance, tt.total, tt.pageSize, tt.round)
		t.Run(name, func(t *testing.T) {
			w := NextWindow(tt.instance, tt.total, tt.pageSize, tt.round)
			if w.Limit != tt.pageSize {
				t.Errorf("Limit = %d, want %d", w.Limit, tt.pageSize)
			}
			if w.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", w.Offset, tt.wantOffset)
			}
			if w.Shard != nil {
				t.Errorf("offset windows must not carry a shard")
			}
		})
	}
}

func TestNextWindow_InstancesNeverOverlap(t *testing.T) {
	for total := 1; total <= 6; total++ {
		for _, pageSize := range []int{1, 3, 100} {
			for round := 0; round < 5; round++ {
				for a := 0; a < total; a++ {
					for b := a + 1; b < total; b++ {
						wa := NextWindow(a, total, pageSize, round)
						wb := NextWindow(b, total, pageSize, round)
						if wa.Offset < wb.Offset+wb.Limit && wb.Offset < wa.Offset+wa.Limit {
							t.Fatalf("windows overlap: total=%d page=%d round=%d a=%+v b=%+v",
								total, pageSize, round, wa, wb)
						}
					}
				}
			}
		}
	}
}

func TestNextWindow_RoundsAdvanceByStride(t *testing.T) {
	for total := 1; total <= 5; total++ {
		for instance := 0; instance < total; instance++ {
			prev := NextWindow(instance, total, 7, 0)
			for round := 1; round < 10; round++ {
				cur := NextWindow(instance, total, 7, round)
				if cur.Offset-prev.Offset != total*7 {
					t.Fatalf("stride = %d, want %d", cur.Offset-prev.Offset, total*7)
				}
				prev = cur
			}
		}
	}
}

// Over a scan order that does not change during the run, the windows of all
// instances cover every row exactly once.
func TestNextWindow_PartitionsStaticScan(t *testing.T) {
	for _, rows := range []int{0, 1, 2, 17, 100, 101} {
		for total := 1; total <= 4; total++ {
			for _, pageSize := range []int{1, 5, 50} {
				seen := make([]int, rows)
				for instance := 0; instance < total; instance++ {
					for round := 0; ; round++ {
						w := NextWindow(instance, total, pageSize, round)
						if w.Offset >= rows {
							break // empty page
						}
						for i := w.Offset; i < w.Offset+w.Limit && i < rows; i++ {
							seen[i]++
						}
					}
				}
				for i, c := range seen {
					if c != 1 {
						t.Fatalf("rows=%d total=%d page=%d: row %d seen %d times", rows, total, pageSize, i, c)
					}
				}
			}
		}
	}
}

func TestShardValidate(t *testing.T) {
	tests := []struct {
		shard   Shard
		wantErr bool
	}{
		{Shard{Index: 0, Total: 1}, false},
		{Shard{Index: 3, Total: 4}, false},
		{Shard{Index: 0, Total: 0}, true},
		{Shard{Index: -1, Total: 2}, true},
		{Shard{Index: 2, Total: 2}, true},
	}

	for _, tt := range tests {
		err := tt.shard.Validate()
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidShard) {
				t.Errorf("Validate(%+v) = %v, want ErrInvalidShard", tt.shard, err)
			}
		} else if err != nil {
			t.Errorf("Validate(%+v) unexpected error: %v", tt.shard, err)
		}
	}
}

func TestShardOf_Partition(t *testing.T) {
	const total = 4
	counts := make([]int, total)
	for i := 0; i < 1000; i++ {
		id := ID(fmt.Sprintf("<%d.JavaMail.evans@thyme>", i))
		s := ShardOf(id, total)
		if s < 0 || s >= total {
			t.Fatalf("ShardOf(%q) = %d out of range", id, s)
		}
		if ShardOf(id, total) != s {
			t.Fatalf("ShardOf(%q) not deterministic", id)
		}
		owners := 0
		for idx := 0; idx < total; idx++ {
			if (Shard{Index: idx, Total: total}).Owns(id) {
				owners++
			}
		}
		if owners != 1 {
			t.Fatalf("%q owned by %d shards", id, owners)
		}
		counts[s]++
	}
	for s, c := range counts {
		if c == 0 {
			t.Errorf("shard %d received no keys", s)
		}
	}
}

func TestShardOf_SingleInstance(t *testing.T) {
	if got := ShardOf("anything", 1); got != 0 {
		t.Errorf("ShardOf with total=1 = %d, want 0", got)
	}
}

func TestParsePartitionStrategy(t *testing.T) {
	for name, want := range map[string]PartitionStrategy{"": PartitionOffset, "offset": PartitionOffset, "hash": PartitionHash} {
		got, err := ParsePartitionStrategy(name)
		if err != nil || got != want {
			t.Errorf("ParsePartitionStrategy(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParsePartitionStrategy("range"); !errors.Is(err, ErrUnknownPartitionStrategy) {
		t.Errorf("expected ErrUnknownPartitionStrategy, got %v", err)
	}
	if PartitionHash.String() != "hash" || PartitionOffset.String() != "offset" {
		t.Errorf("unexpected String() values")
	}
}
