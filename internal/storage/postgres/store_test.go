package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/sheikh-saqib/crowdfunding-ledger-system/internal/storage"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	opaque := errors.New("connection reset by peer")
	tests := []struct {
		desc string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, storage.ErrNotFound},
		{"wrapped record not found", fmt.Errorf("first: %w", gorm.ErrRecordNotFound), storage.ErrNotFound},
		{"unique violation", &pq.Error{Code: uniqueViolation}, storage.ErrDuplicate},
		{"other constraint", &pq.Error{Code: "23503"}, opaque},
		{"opaque", opaque, opaque},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := translate("op", tt.err)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("got %v, want nil", got)
				}
				return
			}
			if tt.want == opaque {
				var storageErr *storage.Error
				if !errors.As(got, &storageErr) {
					t.Fatalf("got %v, want *storage.Error", got)
				}
				if storageErr.Op != "op" {
					t.Errorf("op: got %q, want %q", storageErr.Op, "op")
				}
				if !errors.Is(got, tt.err) {
					t.Errorf("cause lost: %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAffected(t *testing.T) {
	opaque := errors.New("deadlock detected")
	tests := []struct {
		desc string
		res  *gorm.DB
		want error
	}{
		{"one row", &gorm.DB{RowsAffected: 1}, nil},
		{"no rows", &gorm.DB{RowsAffected: 0}, storage.ErrNotFound},
		{"error", &gorm.DB{Error: opaque}, opaque},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := affected("soft delete", tt.res)
			if tt.want == nil {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	var storageErr *storage.Error
	if !errors.As(affected("soft delete", &gorm.DB{Error: opaque}), &storageErr) {
		t.Error("driver errors are not wrapped as *storage.Error")
	}
}
