package gudafem

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantOp   string
		wantMsg  string
		checkFn  func(error) bool
	}{
		{
			name:     "Memory Error",
			err:      ErrOutOfMemory,
			wantType: ErrTypeMemory,
			wantOp:   "Malloc",
			wantMsg:  "out of memory",
			checkFn:  IsMemoryError,
		},
		{
			name:     "Invalid Arg Error",
			err:      ErrInvalidSize,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Malloc",
			wantMsg:  "size must be positive",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Double Free",
			err:      ErrDoubleFree,
			wantType: ErrTypeMemory,
			wantOp:   "Free",
			wantMsg:  "double free detected",
			checkFn:  IsMemoryError,
		},
		{
			name:     "Transfer Error",
			err:      ErrOutOfRange,
			wantType: ErrTypeTransfer,
			wantOp:   "Memcpy",
			wantMsg:  "byte count exceeds operand size",
			checkFn:  IsTransferError,
		},
		{
			name:     "Shape Error",
			err:      NewShapeError("Dot", "length mismatch"),
			wantType: ErrTypeShape,
			wantOp:   "Dot",
			wantMsg:  "length mismatch",
			checkFn:  IsShapeError,
		},
		{
			name:     "State Error",
			err:      NewStateError("Array", "not allocated"),
			wantType: ErrTypeState,
			wantOp:   "Array",
			wantMsg:  "not allocated",
			checkFn:  IsStateError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *Error
			if !errors.As(tt.err, &e) {
				t.Fatalf("Expected *Error, got %T", tt.err)
			}
			if e.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", e.Type, tt.wantType)
			}
			if e.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", e.Op, tt.wantOp)
			}
			if e.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMsg)
			}
			if !tt.checkFn(tt.err) {
				t.Errorf("Type check function returned false")
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	err := NewMemoryError("Malloc", "4096 bytes requested", ErrOutOfMemory)
	wrapped := fmt.Errorf("field: Allocate(3x4x2x1): %w", err)

	if !errors.Is(wrapped, ErrOutOfMemory) {
		t.Errorf("errors.Is should find the cause through both layers")
	}
	if !IsMemoryError(wrapped) {
		t.Errorf("IsMemoryError should see through fmt wrapping")
	}
	if IsInvalidArgError(wrapped) {
		t.Errorf("Memory error misclassified as invalid argument")
	}

	want := "gudafem Memory error in Malloc: 4096 bytes requested (caused by: gudafem Memory error in Malloc: out of memory)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorTypeString(t *testing.T) {
	names := map[ErrorType]string{
		ErrTypeMemory:     "Memory",
		ErrTypeInvalidArg: "InvalidArgument",
		ErrTypeTransfer:   "Transfer",
		ErrTypeShape:      "Shape",
		ErrTypeState:      "State",
		ErrorType(99):     "Unknown",
	}
	for typ, want := range names {
		if typ.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(typ), typ.String(), want)
		}
	}
	if IsMemoryError(errors.New("plain")) {
		t.Errorf("Plain error classified as memory error")
	}
}
