package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// heldLock is the index lock this process holds, if any. The kernel drops
// the flock when the process exits, so a crashed holder never leaves a
// stale lock behind.
var (
	lockMu   sync.Mutex
	heldLock *flock.Flock
)

// acquireLock takes the inter-process index lock on the data directory,
// waiting up to lock.timeout for another process to release it. Holding
// the lock already is a no-op.
func acquireLock() error {
	lockMu.Lock()
	defer lockMu.Unlock()

	lockPath := filepath.Join(dataDir, lockFile)
	if heldLock != nil {
		if heldLock.Path() == lockPath && heldLock.Locked() {
			return nil
		}
		// Data directory changed since the lock was taken
		if err := heldLock.Unlock(); err != nil {
			log.Printf("Warning: Failed to release index lock %s: %v", heldLock.Path(), err)
		}
		heldLock = nil
	}

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), settings.Lock.Timeout)
	defer cancel()

	startTime := time.Now()
	l := flock.New(lockPath)
	locked, err := l.TryLockContext(ctx, settings.Lock.RetryWait)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("timeout waiting for index lock after %v: %s held by another process",
			time.Since(startTime).Round(time.Millisecond), lockPath)
	}

	heldLock = l
	log.Printf("✓ Index lock acquired (PID %d)", os.Getpid())
	return nil
}

// releaseLock drops the index lock if this process holds it. The lock file
// itself stays in place.
func releaseLock() error {
	lockMu.Lock()
	defer lockMu.Unlock()

	if heldLock == nil {
		return nil
	}
	l := heldLock
	heldLock = nil

	if err := l.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.Path(), err)
	}
	log.Printf("✓ Index lock released")
	return nil
}
