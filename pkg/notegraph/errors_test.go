package notegraph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dan-solli/notegraph/pkg/chain"
	"github.com/dan-solli/notegraph/pkg/store"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		status int
	}{
		{"nil", nil, "", 200},
		{"not found", fmt.Errorf("note x: %w", store.ErrNotFound), ErrTypeNotFound, 404},
		{"version conflict", store.ErrVersionConflict, ErrTypeConflict, 409},
		{"next conflict", store.ErrNextConflict, ErrTypeConflict, 409},
		{"already following", store.ErrAlreadyFollowing, ErrTypeConflict, 409},
		{"invalid input", fmt.Errorf("%w: bad kind", store.ErrInvalidInput), ErrTypeInvalidInput, 422},
		{"account note locked", chain.ErrAccountNoteLocked, ErrTypeInvalidInput, 422},
		{"forbidden", fmt.Errorf("%w: not yours", ErrForbidden), ErrTypeForbidden, 403},
		{"deadline", context.DeadlineExceeded, ErrTypeTimeout, 504},
		{"wrapped deadline", &store.StorageError{Op: "insert note", Err: context.DeadlineExceeded}, ErrTypeTimeout, 504},
		{"storage", &store.StorageError{Op: "insert note", Err: errors.New("disk I/O error")}, ErrTypeStorage, 500},
		{"unknown", errors.New("boom"), ErrTypeUnknown, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %q, want %q", got, tt.want)
			}
			if got := StatusCode(tt.err); got != tt.status {
				t.Errorf("StatusCode() = %d, want %d", got, tt.status)
			}
		})
	}
}
