package parser

import "sync"

// StringIntern is a bounded, thread-safe string pool. Field paths repeat
// across every file set of a batch that shares a schema, so flattened
// records hold one copy of each path.
type StringIntern struct {
	mu    sync.RWMutex
	pool  map[string]string
	limit int
}

// MaxInternPoolSize bounds the default pool. Past the limit strings are
// returned as given.
const MaxInternPoolSize = 100000

// NewStringIntern creates a pool holding at most limit strings. A limit
// <= 0 selects MaxInternPoolSize.
func NewStringIntern(limit int) *StringIntern {
	if limit <= 0 {
		limit = MaxInternPoolSize
	}
	return &StringIntern{
		pool:  make(map[string]string, 256),
		limit: limit,
	}
}

// Intern returns the pooled copy of s, storing s if there is room.
func (si *StringIntern) Intern(s string) string {
	si.mu.RLock()
	pooled, ok := si.pool[s]
	full := len(si.pool) >= si.limit
	si.mu.RUnlock()
	if ok {
		return pooled
	}
	if full {
		return s
	}

	si.mu.Lock()
	defer si.mu.Unlock()
	if pooled, ok := si.pool[s]; ok {
		return pooled
	}
	if len(si.pool) >= si.limit {
		return s
	}
	si.pool[s] = s
	return s
}

// Len returns the number of pooled strings.
func (si *StringIntern) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.pool)
}

// Clear empties the pool.
func (si *StringIntern) Clear() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.pool = make(map[string]string, 256)
}

// fieldPaths is shared by every Flatten call.
var fieldPaths = NewStringIntern(0)
