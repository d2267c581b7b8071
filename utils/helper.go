package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/cabinet_inventory/config"
)

var ErrLockNotObtained = errors.New("could not obtain lock")

var validate = validator.New()

// ValidateStruct runs `validate` struct tags.
func ValidateStruct(input any) error {
	return validate.Struct(input)
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}

// TrimmedOrNil trims s and returns nil when nothing is left.
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var localLocks sync.Map

// WithLock runs fn while holding the lock "<lockType>:<key>".
// With Redis configured the lock is a redislock shared by every instance; otherwise it is a process-local mutex.
func WithLock(ctx context.Context, lockType string, key string, ttl time.Duration, fn func() error) error {
	lockKey := fmt.Sprintf("%s:%s", lockType, key)

	locker := config.GetRedisLock()
	if locker == nil {
		mu, _ := localLocks.LoadOrStore(lockKey, &sync.Mutex{})
		m := mu.(*sync.Mutex)
		m.Lock()
		defer m.Unlock()
		return fn()
	}

	lock, err := locker.Obtain(ctx, lockKey, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(25 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(config.GetLogger(), "utils", "WithLock", "could not obtain lock", lockKey, err)
		return fmt.Errorf("%w: %s", ErrLockNotObtained, lockKey)
	} else if err != nil {
		config.LogError(config.GetLogger(), "utils", "WithLock", "error obtaining lock", lockKey, err)
		return err
	}
	defer func() {
		_ = lock.Release(context.Background())
	}()

	return fn()
}
