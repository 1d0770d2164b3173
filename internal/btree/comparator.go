package btree

import "golang.org/x/exp/constraints"

// OrderedKeyCompare returns a CompareKeyObject hook for callers whose key
// type is naturally ordered, so they do not need to hand-write the
// three-way comparison spec.md's CompareKeyObject contract requires.
// extractKey must be the same function passed as Config.ExtractKey.
func OrderedKeyCompare[T any, K constraints.Ordered](extractKey func(T) K) func(K, T) int {
	return func(key K, object T) int {
		ok := extractKey(object)
		switch {
		case key < ok:
			return -1
		case key > ok:
			return 1
		default:
			return 0
		}
	}
}

// OrderedObjectCompare returns a CompareObjects hook consistent with
// OrderedKeyCompare, for the common case where objects are ordered purely
// by their extracted key.
func OrderedObjectCompare[T any, K constraints.Ordered](extractKey func(T) K) func(T, T) int {
	cmp := OrderedKeyCompare[T, K](extractKey)
	return func(a, b T) int {
		return cmp(extractKey(a), b)
	}
}
