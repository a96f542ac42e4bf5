package access

import "testing"

type fakeResource struct {
	owner      uint
	visibility Visibility
}

func (r fakeResource) OwnerID() uint      { return r.owner }
func (r fakeResource) Access() Visibility { return r.visibility }

func TestCan(t *testing.T) {
	tests := []struct {
		name       string
		visibility Visibility
		user       uint
		mode       Mode
		want       bool
	}{
		{"owner edits private", Private, 1, Edit, true},
		{"owner views private", Private, 1, View, true},
		{"owner edits global_view", GlobalView, 1, Edit, true},
		{"stranger views private", Private, 2, View, false},
		{"stranger edits private", Private, 2, Edit, false},
		{"stranger views global_view", GlobalView, 2, View, true},
		{"stranger edits global_view", GlobalView, 2, Edit, false},
		{"stranger views global_edit", GlobalEdit, 2, View, true},
		{"stranger edits global_edit", GlobalEdit, 2, Edit, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := fakeResource{owner: 1, visibility: tt.visibility}
			if got := Can(res, tt.user, tt.mode); got != tt.want {
				t.Errorf("Can(%v, user=%d, mode=%v) = %v, want %v",
					tt.visibility, tt.user, tt.mode, got, tt.want)
			}
		})
	}
}

func TestVisibilityValid(t *testing.T) {
	for _, v := range []Visibility{Private, GlobalView, GlobalEdit} {
		if !v.Valid() {
			t.Errorf("%q should be valid", v)
		}
	}
	for _, v := range []Visibility{"", "public", "Global_View"} {
		if v.Valid() {
			t.Errorf("%q should not be valid", v)
		}
	}
}
