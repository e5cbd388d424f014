package remote

import (
	"reflect"
	"testing"
	"time"

	"grocery-cli/internal/model"
)

func TestReconcile(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	local := []model.Item{
		{ID: "a", Name: "Milk", Quantity: 1, Category: model.CategoryDairy, CreatedAt: t1, UpdatedAt: t1},
		{ID: "b", Name: "Eggs", Quantity: 12, Category: model.CategoryDairy, Completed: true, CreatedAt: t1, UpdatedAt: t1},
	}
	newer := []model.Item{
		{ID: "c", Name: "Bread", Quantity: 1, Category: model.CategoryBakery, CreatedAt: t2, UpdatedAt: t2},
	}
	older := []model.Item{
		{ID: "d", Name: "Jam", Quantity: 1, Category: model.CategoryPantry, CreatedAt: t1.Add(-time.Hour), UpdatedAt: t1.Add(-time.Hour)},
	}
	same := []model.Item{
		{ID: "e", Name: "Rice", Quantity: 1, Category: model.CategoryPantry, CreatedAt: t1, UpdatedAt: t1},
	}

	cases := []struct {
		name         string
		local        []model.Item
		server       []model.Item
		want         []model.Item
		wantReplaced bool
	}{
		{name: "server newer replaces", local: local, server: newer, want: newer, wantReplaced: true},
		{name: "server older keeps local", local: local, server: older, want: local},
		{name: "equal timestamps keep local", local: local, server: same, want: local},
		{name: "empty server keeps local", local: local, server: []model.Item{}, want: local},
		{name: "nil server keeps local", local: local, server: nil, want: local},
		{name: "empty local adopts server", local: []model.Item{}, server: older, want: older, wantReplaced: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, replaced := Reconcile(tc.local, tc.server)
			if replaced != tc.wantReplaced {
				t.Fatalf("replaced: got %v want %v", replaced, tc.wantReplaced)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("result: got %+v want %+v", got, tc.want)
			}
		})
	}
}

// One newer server item discards a local edit made against a stale server snapshot.
func TestReconcile_WholeCollectionLastWriterWins(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	local := []model.Item{
		{ID: "a", Name: "Milk", Quantity: 3, UpdatedAt: t0.Add(1 * time.Minute)},
		{ID: "b", Name: "Eggs", Quantity: 1, UpdatedAt: t0},
	}
	server := []model.Item{
		{ID: "a", Name: "Milk", Quantity: 1, UpdatedAt: t0},
		{ID: "b", Name: "Eggs", Quantity: 1, Completed: true, UpdatedAt: t0.Add(2 * time.Minute)},
	}
	got, replaced := Reconcile(local, server)
	if !replaced {
		t.Fatalf("expected server to win")
	}
	if got[0].Quantity != 1 {
		t.Fatalf("expected local quantity edit to be discarded, got %+v", got[0])
	}
}
