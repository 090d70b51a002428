package order

import (
	"testing"

	"github.com/mesero-ai/mesero/store"
)

func TestResolveGroup(t *testing.T) {
	item := func(group int64, status store.LineItemStatus) *store.LineItem {
		return &store.LineItem{GroupID: group, Status: status}
	}

	tests := []struct {
		name   string
		latest *store.LineItem
		open   *store.LineItem
		want   int64
	}{
		{
			name: "empty history starts at one",
			want: 1,
		},
		{
			name:   "open pending ticket is reused",
			latest: item(7, store.StatusCompleted),
			open:   item(5, store.StatusPending),
			want:   5,
		},
		{
			name:   "open in-preparation ticket is reused",
			latest: item(7, store.StatusPending),
			open:   item(7, store.StatusInPreparation),
			want:   7,
		},
		{
			name:   "no open ticket increments the latest",
			latest: item(7, store.StatusCompleted),
			want:   8,
		},
		{
			name:   "terminal open ticket still increments",
			latest: item(7, store.StatusPaid),
			open:   item(6, store.StatusCompleted),
			want:   8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveGroup(tt.latest, tt.open); got != tt.want {
				t.Errorf("ResolveGroup() = %d, want %d", got, tt.want)
			}
		})
	}
}
