package utils_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/utils"
)

func TestWithLockSerializesSameKey(t *testing.T) {
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := utils.WithLock(ctx, "test", "same", time.Second, func() error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}

func TestWithLockReturnsFnError(t *testing.T) {
	boom := errors.New("boom")
	err := utils.WithLock(context.Background(), "test", "err", time.Second, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	// the lock is released after an error
	if err := utils.WithLock(context.Background(), "test", "err", time.Second, func() error { return nil }); err != nil {
		t.Fatalf("second WithLock: %v", err)
	}
}

func TestTrimmedOrNil(t *testing.T) {
	blank := "   "
	padded := "  Acme  "
	if utils.TrimmedOrNil(nil) != nil || utils.TrimmedOrNil(&blank) != nil {
		t.Fatalf("expected nil for nil and blank input")
	}
	if got := utils.TrimmedOrNil(&padded); got == nil || *got != "Acme" {
		t.Fatalf("expected trimmed value, got %v", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := utils.UniqueSlice([]string{"a", "b", "a", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected %v", got)
	}
}
