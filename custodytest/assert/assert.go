// Package assert provides minimal assertions for tests that do not
// want a full matcher library.
package assert

import (
	"reflect"
	"testing"
)

// Nil fails the test if the value is not nil.
func Nil(t testing.TB, value interface{}) {
	t.Helper()
	if !isNil(value) {
		t.Fatalf("want a nil value, got %#v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Equal fails the test if the two values are not deeply equal.
func Equal(t testing.TB, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal\nwant %#v\n got %#v", want, got)
	}
}

// Panics runs the function and fails the test unless it panics.
func Panics(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	fn()
}

// IsErr fails the test unless got matches the wanted error class.
func IsErr(t testing.TB, want interface{ Is(error) bool }, got error) {
	t.Helper()
	if !want.Is(got) {
		t.Fatalf("unexpected error: %+v", got)
	}
}
