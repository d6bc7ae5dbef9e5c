package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCategoryUpload, CodeUploadFailed, "intake rejected batch")
	msg := err.Error()
	if !strings.Contains(msg, "UPLOAD") || !strings.Contains(msg, "UPLOAD_FAILED") {
		t.Errorf("error string should carry category and code: %s", msg)
	}

	wrapped := Wrap(ErrCategoryStorage, CodePersistFailed, "write failed", fmt.Errorf("disk full"))
	if !strings.Contains(wrapped.Error(), "disk full") {
		t.Errorf("wrapped error should include cause: %s", wrapped.Error())
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStorageError(CodePersistFailed, "write failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}

func TestIsMatchesCategoryAndCode(t *testing.T) {
	a := New(ErrCategoryCatalog, CodeQueryFailed, "one thing")
	b := New(ErrCategoryCatalog, CodeQueryFailed, "another thing")
	c := New(ErrCategoryCatalog, CodeRegisterFailed, "different code")

	if !stderrors.Is(a, b) {
		t.Error("same category and code should match regardless of message")
	}
	if stderrors.Is(a, c) {
		t.Error("different codes must not match")
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{New(ErrCategoryUpload, CodeUploadFailed, "x"), true},
		{New(ErrCategoryCatalog, CodeQueryFailed, "x"), true},
		{New(ErrCategoryUpload, CodeRequestBuildFailed, "x"), false},
		{New(ErrCategoryUpload, CodeUploadRejected, "x"), false},
		{New(ErrCategoryStorage, CodePersistFailed, "x"), false},
		{New(ErrCategoryEncoding, CodeSerializationFailed, "x"), false},
		{fmt.Errorf("plain error"), false},
	}

	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.retryable {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.retryable)
		}
	}
}

func TestRetryableSurvivesWrapping(t *testing.T) {
	inner := New(ErrCategoryUpload, CodeUploadFailed, "transient")
	outer := fmt.Errorf("pass failed: %w", inner)

	if !IsRetryable(outer) {
		t.Error("retryability should be visible through wrapping")
	}
	if GetCategory(outer) != ErrCategoryUpload {
		t.Errorf("expected UPLOAD category through chain, got %s", GetCategory(outer))
	}
	if GetCode(outer) != CodeUploadFailed {
		t.Errorf("expected code through chain, got %s", GetCode(outer))
	}
}

func TestWithDetailsCopies(t *testing.T) {
	base := New(ErrCategoryCapture, CodeCaptureFailed, "x")
	detailed := base.WithDetails(map[string]interface{}{"view": "view-a"})

	if base.Details != nil {
		t.Error("WithDetails must not mutate the original")
	}
	if detailed.Details["view"] != "view-a" {
		t.Errorf("details lost: %+v", detailed.Details)
	}
	if detailed.Category != base.Category || detailed.Code != base.Code {
		t.Error("WithDetails must preserve identity")
	}
}

func TestGetCategoryOnForeignError(t *testing.T) {
	if got := GetCategory(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty category for foreign error, got %s", got)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code for foreign error, got %s", got)
	}
}
