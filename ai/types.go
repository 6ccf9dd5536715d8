package ai

// EntityCategory classifies a tagged entity.
type EntityCategory string

const (
	// CategoryPerson is a personal name.
	CategoryPerson EntityCategory = "PERSON"
	// CategoryOrganization is a company or institution name.
	CategoryOrganization EntityCategory = "ORGANIZATION"
)

// EntityCategories lists the categories taggers are asked to produce.
var EntityCategories = []EntityCategory{
	CategoryPerson,
	CategoryOrganization,
}

// Valid reports whether c is a known category.
func (c EntityCategory) Valid() bool {
	for _, known := range EntityCategories {
		if c == known {
			return true
		}
	}
	return false
}
