// internal/domain/category.go
package domain

// Categories is the fixed set of labels an expense may carry, in display order.
var Categories = []string{
	"Food",
	"Travel",
	"Bills",
	"Housing",
	"Utilities",
	"Movie",
	"Gadgets",
	"Clothes",
	"Other",
}

// DefaultCategory is preselected by clients.
const DefaultCategory = "Other"

// IsCategory reports whether name is one of Categories, case-sensitively.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
