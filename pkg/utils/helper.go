package utils

import (
	"fmt"
	"runtime/debug"
)

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// ContainsString reports whether list contains s.
func ContainsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// GoSafe runs fn in a new goroutine, converting a panic into a printed
// stack trace instead of a crash.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("panic recovered: %v\n%s\n", r, debug.Stack())
			}
		}()
		fn()
	}()
}
