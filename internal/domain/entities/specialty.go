package entities

// Specialty is a node of the two-level medical specialty taxonomy.
// Top-level nodes have no ParentID; their Children point back at them.
type Specialty struct {
	ID       int         `json:"id" db:"id"`
	Name     string      `json:"name" db:"name"`
	Slug     string      `json:"slug" db:"slug"`
	ParentID *int        `json:"parent_id,omitempty" db:"parent_id"`
	Children []Specialty `json:"children" db:"-"`
}

// IsTopLevel reports whether the node is a parent specialty.
func (s Specialty) IsTopLevel() bool {
	return s.ParentID == nil
}

// City is a canonical city name used to populate the city filter.
type City struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
