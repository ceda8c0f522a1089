package xtaf

import "sync"

// UpgradableLock implements the shared/upgradable/exclusive lock
// spec §5 requires for the FAT mutex and each entry's authw. Go's
// standard library has no such primitive; this is a small addition
// over sync.RWMutex, serializing upgrade attempts through upgradeMu
// so at most one holder can be mid-upgrade at a time (see DESIGN.md).
type UpgradableLock struct {
	rw        sync.RWMutex
	upgradeMu sync.Mutex
}

// RLock acquires shared access.
func (l *UpgradableLock) RLock() { l.rw.RLock() }

// RUnlock releases shared access.
func (l *UpgradableLock) RUnlock() { l.rw.RUnlock() }

// Lock acquires exclusive access directly.
func (l *UpgradableLock) Lock() { l.rw.Lock() }

// Unlock releases exclusive access.
func (l *UpgradableLock) Unlock() { l.rw.Unlock() }

// UpgradableRLock acquires the upgrade slot and shared access. Only
// one goroutine may hold the upgrade slot at a time, preventing the
// classic two-upgraders deadlock.
func (l *UpgradableLock) UpgradableRLock() {
	l.upgradeMu.Lock()
	l.rw.RLock()
}

// Upgrade converts the caller's upgradable-shared hold into
// exclusive. The caller must currently hold the upgrade slot (via
// UpgradableRLock).
func (l *UpgradableLock) Upgrade() {
	l.rw.RUnlock()
	l.rw.Lock()
}

// Downgrade converts an exclusive hold obtained via Upgrade back to
// shared, still holding the upgrade slot.
func (l *UpgradableLock) Downgrade() {
	l.rw.Unlock()
	l.rw.RLock()
}

// UpgradableRUnlock releases the upgrade slot and the current hold,
// whichever mode (shared, or exclusive if Upgrade was called and
// never downgraded).
func (l *UpgradableLock) UpgradableRUnlock(exclusive bool) {
	if exclusive {
		l.rw.Unlock()
	} else {
		l.rw.RUnlock()
	}
	l.upgradeMu.Unlock()
}
