package saveload

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", &Error{Code: ErrCodeIO, Message: "write failed"}, "IO: write failed"},
		{"path", &Error{Code: ErrCodeResolution, Message: "gone", Path: "World/Bat"}, "RESOLUTION: gone (path=World/Bat)"},
		{"property", &Error{Code: ErrCodeType, Message: "bad", Property: ".:hp"}, "TYPE: bad (property=.:hp)"},
		{"both with cause", &Error{Code: ErrCodeType, Message: "bad", Path: "P", Property: ".:hp", Err: errors.New("boom")}, "TYPE: bad (path=P, property=.:hp): boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("saving: %w", &Error{Code: ErrCodeIO, Message: "write failed", Err: cause})

	assert.True(t, IsIOError(err))
	assert.False(t, IsFormatError(err))
	assert.False(t, IsResolutionError(err))
	assert.False(t, IsTypeError(err))
	assert.False(t, IsConfigError(err))
	assert.ErrorIs(t, err, cause)

	assert.False(t, IsIOError(errors.New("plain")))
	assert.False(t, IsIOError(nil))
}

func TestReportNilSafe(t *testing.T) {
	var r *Report
	r.Add(&Error{Code: ErrCodeIO})
	r.Merge(NewReport(nil))
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Warnings())
	assert.NoError(t, r.Err())
	assert.Equal(t, 0, r.Count(ErrCodeIO))
}

func TestReportCollects(t *testing.T) {
	r := NewReport(discardLogger())
	r.Add(&Error{Code: ErrCodeResolution, Message: "a"})
	r.Add(&Error{Code: ErrCodeType, Message: "b"})
	r.Add(&Error{Code: ErrCodeResolution, Message: "c"})
	r.Add(nil)

	require.Equal(t, 3, r.Len())
	assert.Equal(t, 2, r.Count(ErrCodeResolution))
	assert.Equal(t, 1, r.Count(ErrCodeType))
	assert.Equal(t, "a", r.Warnings()[0].Message)

	err := r.Err()
	require.Error(t, err)
	assert.True(t, IsTypeError(err))

	other := NewReport(nil)
	other.Add(&Error{Code: ErrCodeConfig, Message: "d"})
	r.Merge(other)
	assert.Equal(t, 4, r.Len())
}

func TestPredicatesSeeEveryJoinedWarning(t *testing.T) {
	r := NewReport(nil)
	r.Add(&Error{Code: ErrCodeResolution, Message: "a"})
	r.Add(&Error{Code: ErrCodeType, Message: "b"})
	r.Add(&Error{Code: ErrCodeResolution, Message: "c"})
	r.Add(&Error{Code: ErrCodeConfig, Message: "d"})

	err := fmt.Errorf("apply: %w", r.Err())
	assert.True(t, IsResolutionError(err))
	assert.True(t, IsTypeError(err))
	assert.True(t, IsConfigError(err))
	assert.False(t, IsIOError(err))
	assert.False(t, IsFormatError(err))

	inner := &Error{Code: ErrCodeFormat, Err: &Error{Code: ErrCodeIO}}
	assert.True(t, IsFormatError(inner))
	assert.True(t, IsIOError(inner))

	var typedNil *Error
	assert.False(t, IsIOError(typedNil))
}

func TestReportMergeKeepsOrder(t *testing.T) {
	r := NewReport(nil)
	r.Add(&Error{Code: ErrCodeType, Message: "a"})
	other := NewReport(nil)
	other.Add(&Error{Code: ErrCodeConfig, Message: "d"})
	r.Merge(other)
	require.Equal(t, 2, r.Len())
	assert.Equal(t, "a", r.Warnings()[0].Message)
	assert.Equal(t, "d", r.Warnings()[1].Message)
}
