package value

import "strconv"

// MemoCache is a per-function memoization cache keyed by argument tuple
// (spec §3 C9), grounded on original_source/bytecode/function.rs's
// `FnCache`/`CacheKey`. It lives in this package (rather than internal/vm,
// where spec's component table nominally places "C9") because Function —
// the Value variant that owns the cache — must hold it directly for the
// cache to survive across calls and be shared by reference on clone; a
// vm-package cache would require value to import vm, which would cycle
// back into vm's own dependency on value. See DESIGN.md.
type MemoCache struct {
	twoNumbers map[cacheKeyTwoNumbers]Value
	general    map[string]Value
}

// NewMemoCache pre-reserves room for roughly 1500 entries, matching the
// original's `map.reserve(1500)` hot-path hint for Ackermann-shaped
// recursion. Go's map literal sizing hint achieves the same thing.
func NewMemoCache() *MemoCache {
	return &MemoCache{
		twoNumbers: make(map[cacheKeyTwoNumbers]Value, 1500),
		general:    make(map[string]Value, 64),
	}
}

type cacheKeyTwoNumbers struct{ m, n int64 }

// CacheKey is the canonical, hashable form of an argument tuple. It
// specializes to a (int64,int64) pair when both arguments are
// integer-valued Numbers (the Ackermann hot path); otherwise it falls back
// to a serialized general form. Both forms are deterministic and total on
// hashable inputs, and agree with Value equality.
type CacheKey struct {
	two      cacheKeyTwoNumbers
	isTwo    bool
	general  string
}

// NewCacheKey builds a CacheKey from args, or reports ok=false if any
// argument is not hashable — callers must bypass the cache in that case
// (spec §4.6: unhashable arguments execute uncached, no entry recorded).
func NewCacheKey(args []Value) (CacheKey, bool) {
	for _, a := range args {
		if !a.IsHashable() {
			return CacheKey{}, false
		}
	}
	if len(args) == 2 && args[0].Kind == KindNumber && args[1].Kind == KindNumber {
		m, n := args[0].Num, args[1].Num
		mi, ni := int64(m), int64(n)
		if float64(mi) == m && float64(ni) == n {
			return CacheKey{two: cacheKeyTwoNumbers{mi, ni}, isTwo: true}, true
		}
	}
	return CacheKey{general: serializeArgs(args)}, true
}

// serializeArgs builds a canonical string encoding of a hashable-only
// argument vector. Each element is length-prefixed so no value's content
// can be confused with a separator.
func serializeArgs(args []Value) string {
	var sb []byte
	writeField := func(tag byte, s string) {
		sb = append(sb, tag)
		sb = strconv.AppendInt(sb, int64(len(s)), 10)
		sb = append(sb, ':')
		sb = append(sb, s...)
	}
	for _, a := range args {
		switch a.Kind {
		case KindNull:
			sb = append(sb, 'N', ';')
		case KindBool:
			if a.Bool {
				sb = append(sb, 'B', '1', ';')
			} else {
				sb = append(sb, 'B', '0', ';')
			}
		case KindNumber:
			n := a.Num
			if n == 0 {
				n = 0 // -0 and +0 are Equal, so they share one key
			}
			writeField('n', strconv.FormatFloat(n, 'g', -1, 64))
			sb = append(sb, ';')
		case KindString:
			writeField('s', a.Str)
			sb = append(sb, ';')
		case KindPath:
			writeField('p', a.Str)
			sb = append(sb, ';')
		case KindCurrency:
			writeField('c', a.Str)
			sb = append(sb, ';')
		}
	}
	return string(sb)
}

// Get probes the cache for key, returning (value, true) on a hit.
func (c *MemoCache) Get(key CacheKey) (Value, bool) {
	if key.isTwo {
		v, ok := c.twoNumbers[key.two]
		return v, ok
	}
	v, ok := c.general[key.general]
	return v, ok
}

// Put inserts result under key, to be consulted by future calls with an
// equivalent argument tuple.
func (c *MemoCache) Put(key CacheKey, result Value) {
	if key.isTwo {
		c.twoNumbers[key.two] = result
		return
	}
	c.general[key.general] = result
}
