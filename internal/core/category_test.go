package core

import "testing"

func ptr(v int64) *int64 { return &v }

func TestCategorySetValidateParent(t *testing.T) {
	// 1 <- 2 <- 3 (3's parent is 2, 2's parent is 1), 4 is a separate root
	set := NewCategorySet([]Category{
		{ID: 1, Name: "Travel", IsActive: true},
		{ID: 2, Name: "Flights", ParentID: ptr(1), IsActive: true},
		{ID: 3, Name: "Domestic", ParentID: ptr(2), IsActive: true},
		{ID: 4, Name: "Office", IsActive: true},
	})

	tests := []struct {
		name     string
		childID  int64
		parentID *int64
		wantErr  bool
	}{
		{"root is always valid", 4, nil, false},
		{"attach to leaf", 4, ptr(3), false},
		{"attach to root", 4, ptr(1), false},
		{"self parent", 2, ptr(2), true},
		{"direct cycle", 1, ptr(2), true},
		{"transitive cycle", 1, ptr(3), true},
		{"unknown parent", 4, ptr(99), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := set.ValidateParent(tt.childID, tt.parentID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParent(%d, %v) error = %v, wantErr %v", tt.childID, tt.parentID, err, tt.wantErr)
			}
		})
	}
}

func TestCategorySetValidateParentBrokenData(t *testing.T) {
	// 5 and 6 already point at each other; attaching anything below them
	// must fail instead of looping forever.
	set := NewCategorySet([]Category{
		{ID: 5, Name: "A", ParentID: ptr(6), IsActive: true},
		{ID: 6, Name: "B", ParentID: ptr(5), IsActive: true},
		{ID: 7, Name: "C", IsActive: true},
	})

	if err := set.ValidateParent(7, ptr(5)); err == nil {
		t.Fatal("expected error when ancestor chain contains a cycle")
	}
}
