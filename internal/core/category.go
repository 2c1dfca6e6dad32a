package core

import "strings"

// Category is a node in the category forest. ParentID references another
// category by id, never by pointer; the forest is validated acyclic whenever
// a parent link is set. Inactive categories are excluded from new expenses
// but kept on historical records.
type Category struct {
	ID       int64
	Name     string
	ParentID *int64
	IsActive bool
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &InvalidInputError{Field: "name", Reason: "required"}
	}
	if c.ParentID != nil && *c.ParentID == c.ID && c.ID != 0 {
		return &InvalidInputError{Field: "parent_id", Reason: "category cannot be its own parent"}
	}
	return nil
}

// CategorySet is an arena of categories indexed by id, used to validate
// hierarchy changes and to resolve names during aggregation.
type CategorySet map[int64]Category

// NewCategorySet builds an arena from a slice of categories.
func NewCategorySet(cats []Category) CategorySet {
	set := make(CategorySet, len(cats))
	for _, c := range cats {
		set[c.ID] = c
	}
	return set
}

// ValidateParent checks that attaching childID under parentID keeps the
// forest acyclic: the parent must exist and its ancestor chain must not pass
// through the child. A nil parentID (root) is always fine.
func (cs CategorySet) ValidateParent(childID int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == childID {
		return &InvalidInputError{Field: "parent_id", Reason: "category cannot be its own parent"}
	}
	seen := make(map[int64]bool)
	cur := *parentID
	for {
		parent, ok := cs[cur]
		if !ok {
			return &NotFoundError{Entity: "category", ID: cur}
		}
		if seen[cur] {
			// Existing data already contains a loop; refuse to extend it.
			return &InvalidInputError{Field: "parent_id", Reason: "category hierarchy contains a cycle"}
		}
		seen[cur] = true
		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == childID {
			return &InvalidInputError{Field: "parent_id", Reason: "would create a cycle in the category hierarchy"}
		}
		cur = *parent.ParentID
	}
}
