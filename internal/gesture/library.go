package gesture

import (
	_ "embed"
	"fmt"
)

//go:embed templates.json
var libraryJSON []byte

// Library returns a fresh copy of the built-in templates in their fixed order.
// Earlier templates win exact score ties.
func Library() ([]*Template, error) {
	templates, err := ParseTemplates(libraryJSON)
	if err != nil {
		return nil, fmt.Errorf("built-in templates: %w", err)
	}
	for _, t := range templates {
		t.ID = BuiltinID(t.Name)
	}
	return templates, nil
}

// MustLibrary is like Library but panics on error.
func MustLibrary() []*Template {
	templates, err := Library()
	if err != nil {
		panic(err)
	}
	return templates
}

// BuiltinID returns the identifier assigned to a built-in template.
func BuiltinID(name string) string {
	return "builtin:" + name
}
