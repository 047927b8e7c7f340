package app

import (
	"fmt"
	"log"

	"github.com/ayusman/handpose/internal/gesture"
	"github.com/ayusman/handpose/internal/store"
)

// LoadTemplates returns the built-in templates followed by the custom ones
// stored in st, in tie-break order. A nil store yields only the built-ins.
// Stored templates that fail to parse or reuse a built-in name are skipped
// with a log line.
func LoadTemplates(st *store.Store) ([]*gesture.Template, error) {
	templates, err := gesture.Library()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return templates, nil
	}

	gestures, err := st.Gestures().List()
	if err != nil {
		return nil, fmt.Errorf("list stored gestures: %w", err)
	}

	names := make(map[string]bool, len(templates))
	for _, t := range templates {
		names[t.Name] = true
	}

	loaded := 0
	for _, g := range gestures {
		t, err := TemplateFromStore(g)
		if err != nil {
			log.Printf("Skipping gesture %s: %v", g.Name, err)
			continue
		}
		if names[t.Name] {
			log.Printf("Skipping gesture %s: name is taken by a built-in gesture", g.Name)
			continue
		}
		names[t.Name] = true
		templates = append(templates, t)
		loaded++
	}

	log.Printf("Loaded %d gestures from database", loaded)
	return templates, nil
}

// TemplateFromStore parses a stored gesture into a template.
// The row's identity and display fields override those in the definition.
func TemplateFromStore(g *store.Gesture) (*gesture.Template, error) {
	t, err := gesture.ParseTemplate(g.Definition)
	if err != nil {
		return nil, err
	}
	t.ID = g.ID
	t.Name = g.Name
	t.Emoji = g.Emoji
	t.Asset = g.Asset
	return t, nil
}
