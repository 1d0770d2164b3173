package btree

// Config bundles the four comparator/extractor hooks and the minimum
// degree that configure a Tree. CompareObjects must be consistent with
// CompareKeyObject composed with ExtractKey:
//
//	CompareKeyObject(ExtractKey(a), b) == CompareObjects(a, b)
//
// for all a, b. DestroyObject is invoked exactly once on every object that
// leaves the tree, by removal or teardown; it may be left nil.
type Config[T any, K any] struct {
	MinDegree        int
	CompareObjects   func(a, b T) int
	CompareKeyObject func(k K, o T) int
	ExtractKey       func(o T) K
	DestroyObject    func(o T)
}

// Tree is an ordered associative container over objects of type T keyed by
// K. It is not safe for concurrent use; callers sharing a Tree across
// goroutines must serialize access externally.
type Tree[T any, K any] struct {
	t                int
	compareObjects   func(a, b T) int
	compareKeyObject func(k K, o T) int
	extractKey       func(o T) K
	destroyObject    func(o T)
	root             *node[T, K]
}

// New constructs an empty Tree with the given configuration. It panics if
// MinDegree < 2 or a required comparator/extractor hook is nil -
// inconsistent configuration is a contract violation, not a recoverable
// error (spec §7, contract-violation).
func New[T any, K any](cfg Config[T, K]) *Tree[T, K] {
	if cfg.MinDegree < 2 {
		panic("btree: MinDegree must be >= 2")
	}
	if cfg.CompareObjects == nil || cfg.CompareKeyObject == nil || cfg.ExtractKey == nil {
		panic("btree: CompareObjects, CompareKeyObject, and ExtractKey are required")
	}
	return &Tree[T, K]{
		t:                cfg.MinDegree,
		compareObjects:   cfg.CompareObjects,
		compareKeyObject: cfg.CompareKeyObject,
		extractKey:       cfg.ExtractKey,
		destroyObject:    cfg.DestroyObject,
	}
}

// Len reports the number of objects currently stored. It walks the tree and
// is O(n); callers maintaining their own count should do so externally.
func (tr *Tree[T, K]) Len() int {
	if tr.root == nil {
		return 0
	}
	n := 0
	tr.Walk(func(T) { n++ })
	return n
}

// Teardown recursively frees every node and invokes DestroyObject on every
// remaining object, then leaves the tree empty and re-initializable.
func (tr *Tree[T, K]) Teardown() {
	if tr.root == nil {
		return
	}
	tr.root.teardown()
	tr.root = nil
}

// Insert adds object to the tree. ok is false (duplicate) when an object
// with the same key is already present, in which case the tree is
// unchanged. The B-tree is a set by key: duplicate keys are always
// rejected.
func (tr *Tree[T, K]) Insert(object T) (ok bool) {
	if tr.root == nil {
		tr.root = newNode[T, K](tr, true)
		tr.root.objects = append(tr.root.objects, object)
		tr.root.n = 1
		return true
	}

	key := tr.extractKey(object)
	if _, found := tr.search(tr.root, key); found {
		return false
	}

	if tr.root.n == 2*tr.t-1 {
		s := newNode[T, K](tr, false)
		s.children = append(s.children, tr.root)
		oldRoot := tr.root
		tr.root = s
		tr.splitChild(s, 0, oldRoot)
	}
	tr.insertNonFull(tr.root, object)
	return true
}

// Search returns the object stored under key, if any.
func (tr *Tree[T, K]) Search(key K) (object T, found bool) {
	if tr.root == nil {
		var zero T
		return zero, false
	}
	return tr.search(tr.root, key)
}

// Remove deletes the object stored under key, invoking DestroyObject on it.
// Removing a key not present in the tree is a silent no-op (spec §7,
// missing-on-delete).
func (tr *Tree[T, K]) Remove(key K) {
	if tr.root == nil {
		return
	}
	tr.delete(tr.root, key)
	if tr.root.n == 0 {
		if tr.root.leaf {
			tr.root = nil
		} else {
			oldRoot := tr.root
			tr.root = oldRoot.children[0]
			oldRoot.children = nil
		}
	}
}

// Walk performs an in-order traversal, invoking visitor on each object in
// ascending key order. visitor must not mutate the tree.
func (tr *Tree[T, K]) Walk(visitor func(T)) {
	if tr.root == nil {
		return
	}
	tr.traverse(tr.root, visitor)
}
