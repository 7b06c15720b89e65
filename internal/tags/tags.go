// Package tags maintains the tag catalog of a document and the per-record
// bindings that reference it. All functions mutate the document in place and
// never touch storage.
package tags

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
)

// Normalize trims a user supplied tag name.
func Normalize(name string) string {
	return strings.TrimSpace(name)
}

// Find returns the catalog tag with id, or nil.
func Find(doc *domain.Document, id int) *domain.Tag {
	for _, t := range doc.Tags {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindByName returns the catalog tag matching name case-insensitively, or nil.
func FindByName(doc *domain.Document, name string) *domain.Tag {
	key := domain.TagKey(name)
	for _, t := range doc.Tags {
		if domain.TagKey(t.Name) == key {
			return t
		}
	}
	return nil
}

// Ensure returns the tag named name, creating it with the next free id when
// it does not exist. The display casing of the first insertion is kept.
func Ensure(doc *domain.Document, name string, now time.Time) (*domain.Tag, bool, error) {
	name = Normalize(name)
	if name == "" {
		return nil, false, domain.Validationf("tag name is required")
	}
	if t := FindByName(doc, name); t != nil {
		return t, false, nil
	}

	t := &domain.Tag{ID: nextID(doc), Name: name, CreatedAt: now.UTC()}
	doc.Tags = append(doc.Tags, t)
	return t, true, nil
}

// Rename changes the name of tag id and propagates it to every binding.
func Rename(doc *domain.Document, id int, name string) error {
	name = Normalize(name)
	if name == "" {
		return domain.Validationf("tag name is required")
	}

	t := Find(doc, id)
	if t == nil {
		return domain.NotFoundf("tag %d", id)
	}
	if domain.IsReservedTag(t.Name) {
		return domain.Validationf("tag %q is reserved and cannot be renamed", t.Name)
	}
	if other := FindByName(doc, name); other != nil && other.ID != id {
		return domain.Conflictf("tag %q already exists", other.Name)
	}

	t.Name = name
	for _, r := range doc.Bookmarks {
		for _, b := range r.Tags {
			if b.ID == id {
				b.Name = name
			}
		}
	}
	return nil
}

// Delete removes tag id from the catalog and strips its bindings.
// Other bindings of the affected records are left alone.
func Delete(doc *domain.Document, id int) error {
	t := Find(doc, id)
	if t == nil {
		return domain.NotFoundf("tag %d", id)
	}
	if domain.IsReservedTag(t.Name) {
		return domain.Validationf("tag %q is reserved and cannot be deleted", t.Name)
	}

	doc.Tags = slices.DeleteFunc(doc.Tags, func(t *domain.Tag) bool { return t.ID == id })
	for _, r := range doc.Bookmarks {
		r.Tags = slices.DeleteFunc(r.Tags, func(b *domain.Binding) bool { return b.ID == id })
	}
	return nil
}

// UsageCount returns how many records carry tag id.
func UsageCount(doc *domain.Document, id int) int {
	n := 0
	for _, r := range doc.Bookmarks {
		if r.HasTag(id) {
			n++
		}
	}
	return n
}

// DeriveFromText extracts hashtag names from free text.
//
//	"loving #OpenSource and #machine_learning today" => ["OpenSource", "machine learning"]
func DeriveFromText(text string) []string {
	var (
		out  []string
		seen = map[string]struct{}{}
	)

	for _, token := range strings.Fields(text) {
		if !strings.HasPrefix(token, "#") {
			continue
		}

		cleaned := strings.Map(func(r rune) rune {
			if r == '#' || r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, token)

		name := strings.TrimPrefix(cleaned, "#")
		name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		key := domain.TagKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Reconcile registers every binding name missing from the catalog, reusing
// the binding id when it is free. Bindings are realigned on the catalog id
// of their name. It returns the number of catalog entries added.
func Reconcile(doc *domain.Document, now time.Time) int {
	added := 0
	for _, r := range doc.Bookmarks {
		for _, b := range r.Tags {
			if Normalize(b.Name) == "" {
				continue
			}
			t := FindByName(doc, b.Name)
			if t == nil {
				id := b.ID
				if id <= 0 || Find(doc, id) != nil {
					id = nextID(doc)
				}
				created := b.CreatedAt
				if created.IsZero() {
					created = now.UTC()
				}
				t = &domain.Tag{ID: id, Name: Normalize(b.Name), CreatedAt: created}
				doc.Tags = append(doc.Tags, t)
				added++
			}
			b.ID = t.ID
		}
	}
	return added
}

// SetBindings replaces the bindings of rec with the tags named in names,
// creating missing catalog entries. Duplicates collapse onto one binding and
// surviving bindings keep their completion flag.
func SetBindings(doc *domain.Document, rec *domain.Record, names []string, now time.Time) error {
	previous := make(map[int]*domain.Binding, len(rec.Tags))
	for _, b := range rec.Tags {
		previous[b.ID] = b
	}

	bindings := make([]*domain.Binding, 0, len(names))
	seen := make(map[int]struct{}, len(names))
	for _, name := range names {
		if Normalize(name) == "" {
			continue
		}
		t, _, err := Ensure(doc, name, now)
		if err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}

		b := t.Bind()
		if old, ok := previous[t.ID]; ok {
			b.Completed = old.Completed
			b.CreatedAt = old.CreatedAt
		}
		bindings = append(bindings, b)
	}

	rec.Tags = bindings
	return nil
}

// Bind binds the tag named name to rec, registering it when needed, and
// returns the binding. An existing binding is returned untouched.
func Bind(doc *domain.Document, rec *domain.Record, name string, now time.Time) (*domain.Binding, error) {
	t, _, err := Ensure(doc, name, now)
	if err != nil {
		return nil, err
	}
	for _, b := range rec.Tags {
		if b.ID == t.ID {
			return b, nil
		}
	}
	b := t.Bind()
	rec.Tags = append(rec.Tags, b)
	return b, nil
}

// ToggleCompletion flips the completion flag of the binding named name on
// rec and returns the new value.
func ToggleCompletion(rec *domain.Record, name string) (bool, error) {
	key := domain.TagKey(name)
	for _, b := range rec.Tags {
		if domain.TagKey(b.Name) == key {
			b.Completed = !b.Completed
			return b.Completed, nil
		}
	}
	return false, domain.NotFoundf("tag %q on record %s", name, rec.ID)
}

// nextID is max+1 over the catalog and every binding, so a drifted binding
// id is never handed to a different name.
func nextID(doc *domain.Document) int {
	highest := 0
	for _, t := range doc.Tags {
		if t.ID > highest {
			highest = t.ID
		}
	}
	for _, r := range doc.Bookmarks {
		for _, b := range r.Tags {
			if b.ID > highest {
				highest = b.ID
			}
		}
	}
	return highest + 1
}
