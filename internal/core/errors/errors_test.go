package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "user not found")
		if err.Error() != "[NOT_FOUND] user not found" {
			t.Errorf("expected [NOT_FOUND] user not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("connection refused")
		err := Wrap(original, CodeStorageUnavailable, "store unreachable")
		expected := "[STORAGE_UNAVAILABLE] store unreachable: connection refused"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeSelfFollow, "cannot follow yourself")
		if !IsCode(err, CodeSelfFollow) {
			t.Error("expected IsCode to return true for CodeSelfFollow")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("edge exists")
		err := Wrap(original, CodeDuplicateEdge, "already following")
		if !IsCode(err, CodeDuplicateEdge) {
			t.Error("expected IsCode to return true for wrapped CodeDuplicateEdge")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeDanglingReference, "edge endpoint unknown")
		err = AddContext(err, CtxUserID, int64(42))
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxUserID] != int64(42) {
			t.Errorf("expected context user_id 42, got %v", de.Context[CtxUserID])
		}
	})
}
