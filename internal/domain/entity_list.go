package domain

// Entity is anything addressed by a Redmine id.
type Entity interface {
	EntityID() int
}

// EntityList is an ordered cache of entities whose contents are replaced
// wholesale on every refresh. UI lists address it by index, the session by id.
type EntityList[T Entity] struct {
	items []T
}

// Replace swaps in a copy of items.
func (l *EntityList[T]) Replace(items []T) {
	l.items = append([]T(nil), items...)
}

// Items returns a copy of the cached entities.
func (l *EntityList[T]) Items() []T {
	return append([]T(nil), l.items...)
}

func (l *EntityList[T]) Len() int { return len(l.items) }

// At returns the entity at index, or false when index is out of range.
func (l *EntityList[T]) At(index int) (T, bool) {
	var zero T
	if index < 0 || index >= len(l.items) {
		return zero, false
	}
	return l.items[index], true
}

// IndexOf returns the position of id, or -1.
func (l *EntityList[T]) IndexOf(id int) int {
	for i, item := range l.items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

func (l *EntityList[T]) Contains(id int) bool {
	return l.IndexOf(id) >= 0
}

// Get returns the entity with the given id.
func (l *EntityList[T]) Get(id int) (T, bool) {
	return l.At(l.IndexOf(id))
}
