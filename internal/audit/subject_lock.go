package audit

import "sync"

// subjectLock serializes the ingest pipeline per subject. Two events for the
// same subject never classify or detect concurrently; events for different
// subjects proceed in parallel. Lock entries are reference counted and
// removed once the last holder releases them.
type subjectLock struct {
	mu    sync.Mutex
	locks map[string]*subjectLockEntry
}

type subjectLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSubjectLock() *subjectLock {
	return &subjectLock{locks: make(map[string]*subjectLockEntry)}
}

func (l *subjectLock) Lock(subject string) {
	l.mu.Lock()
	entry, ok := l.locks[subject]
	if !ok {
		entry = &subjectLockEntry{}
		l.locks[subject] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *subjectLock) Unlock(subject string) {
	l.mu.Lock()
	entry := l.locks[subject]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, subject)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
