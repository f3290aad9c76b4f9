// Package state holds the storefront's per-session container and the pure
// reducers that mutate its partitions. Reducers never perform I/O; callers
// fetch from the shop API first and commit the result here.
package state

// Keyed is implemented by every record stored in a partition.
type Keyed interface {
	Key() string
}

// SetAll replaces a partition wholesale. The result never aliases items.
func SetAll[T Keyed](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// SetUnique replaces a partition with items, keeping only the first record
// for each key. Partitions whose records must be unique load through it.
func SetUnique[T Keyed](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, v := range items {
		if _, dup := seen[v.Key()]; dup {
			continue
		}
		seen[v.Key()] = struct{}{}
		out = append(out, v)
	}
	return out
}

// AddOne appends item unless a record with the same key is already present,
// in which case the partition is returned unchanged.
func AddOne[T Keyed](list []T, item T) []T {
	if Contains(list, item.Key()) {
		return list
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, item)
}

// RemoveByID drops every record whose key equals id.
func RemoveByID[T Keyed](list []T, id string) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if v.Key() != id {
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether some record in list has the given key.
func Contains[T Keyed](list []T, id string) bool {
	for _, v := range list {
		if v.Key() == id {
			return true
		}
	}
	return false
}
