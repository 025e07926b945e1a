package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	cases := map[string]struct {
		kind  *Error
		err   error
		wantA bool
	}{
		"instance of the same root error": {
			kind:  ErrNotFound,
			err:   ErrNotFound,
			wantA: true,
		},
		"wrapped root error": {
			kind:  ErrNotFound,
			err:   Wrap(ErrNotFound, "gone"),
			wantA: true,
		},
		"deeply wrapped root error": {
			kind:  ErrState,
			err:   Wrap(Wrap(ErrState, "inner"), "outer"),
			wantA: true,
		},
		"different root error": {
			kind:  ErrNotFound,
			err:   ErrUnauthorized,
			wantA: false,
		},
		"stdlib error": {
			kind:  ErrNotFound,
			err:   fmt.Errorf("not found"),
			wantA: false,
		},
		"nil error": {
			kind:  ErrNotFound,
			err:   nil,
			wantA: false,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.wantA, tc.kind.Is(tc.err))
		})
	}
}

func TestWrapNil(t *testing.T) {
	// Wrapping nil must return nil so that error returns can be wrapped
	// unconditionally.
	assert.Nil(t, Wrap(nil, "whatever"))
	assert.Nil(t, Wrapf(nil, "whatever %d", 42))
}

func TestWrapMessage(t *testing.T) {
	err := Wrap(ErrInput, "bad payload")
	assert.Equal(t, "bad payload: invalid input", err.Error())

	err = Wrapf(err, "order %q", "ord-1")
	assert.Equal(t, `order "ord-1": bad payload: invalid input`, err.Error())
	assert.True(t, ErrInput.Is(err))
}

func TestRegisterDuplicateCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	Register(2, "duplicate of unauthorized")
}

func TestRecover(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		panic("totally unexpected")
	}()
	assert.True(t, ErrPanic.Is(err))
}

func TestWrapAttachesStackTraceOnce(t *testing.T) {
	err := Wrap(ErrState, "first")
	st := stackTrace(err)
	assert.NotNil(t, st)

	// A second Wrap must not replace the original stack trace.
	outer := Wrap(err, "second")
	assert.Equal(t, fmt.Sprintf("%v", st), fmt.Sprintf("%v", stackTrace(outer)))
}
