package filter

import "testing"

func TestFaceFilter(t *testing.T) {
	testCases := []struct {
		name       string
		degenerate bool
		duplicate  bool
		tris       [][3]int
		want       []bool
	}{
		{
			name: "disabled keeps everything",
			tris: [][3]int{{0, 0, 1}, {0, 1, 2}, {2, 1, 0}},
			want: []bool{true, true, true},
		},
		{
			name:       "degenerate only",
			degenerate: true,
			tris:       [][3]int{{0, 0, 1}, {0, 1, 2}, {2, 1, 0}, {3, 4, 3}},
			want:       []bool{false, true, true, false},
		},
		{
			name:      "duplicate in any order",
			duplicate: true,
			tris:      [][3]int{{0, 1, 2}, {2, 0, 1}, {1, 0, 2}, {0, 1, 3}},
			want:      []bool{true, false, false, true},
		},
		{
			name:       "dropped degenerate is not remembered",
			degenerate: true,
			duplicate:  true,
			tris:       [][3]int{{5, 5, 6}, {5, 6, 7}, {7, 6, 5}},
			want:       []bool{false, true, false},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := &FaceFilter{DiscardDegenerate: tc.degenerate, DiscardDuplicate: tc.duplicate}
			for i, tri := range tc.tris {
				if got := f.Keep(tri); got != tc.want[i] {
					t.Errorf("Keep(%v) got %t, want %t", tri, got, tc.want[i])
				}
			}
		})
	}
}

func TestNilFilterKeeps(t *testing.T) {
	var f *FaceFilter
	if !f.Keep([3]int{1, 1, 1}) {
		t.Fatalf("nil filter must keep every triangle")
	}
}
