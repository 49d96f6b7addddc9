package service

import "testing"

func TestPageCount(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 10, 10},
		{0, 0, 0},
		{5, 0, 1},
		{5, -1, 1},
	}
	for _, c := range cases {
		if got := pageCount(c.total, c.pageSize); got != c.want {
			t.Errorf("pageCount(%d, %d) = %d, want %d", c.total, c.pageSize, got, c.want)
		}
	}
}
