package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/asakaida/purosesu/internal/entities"
)

func TestDedupIDs(t *testing.T) {
	tests := []struct {
		name string
		in   []int64
		want []int64
	}{
		{name: "empty", in: []int64{}, want: []int64{}},
		{name: "nil", in: nil, want: nil},
		{name: "single", in: []int64{5}, want: []int64{5}},
		{name: "no duplicates", in: []int64{1, 2, 3}, want: []int64{1, 2, 3}},
		{name: "duplicates collapse", in: []int64{1, 1, 2}, want: []int64{1, 2}},
		{name: "order preserved", in: []int64{3, 1, 3, 2, 1}, want: []int64{3, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dedupIDs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("dedupIDs(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("dedupIDs(%v) = %v, want %v", tt.in, got, tt.want)
					break
				}
			}
		})
	}
}

func TestRelationTableFor(t *testing.T) {
	for _, kind := range entities.RelationKinds {
		rt, err := relationTableFor(kind)
		if err != nil {
			t.Errorf("relationTableFor(%s) error = %v", kind, err)
		}
		if rt.kind != kind {
			t.Errorf("descriptor kind = %s, want %s", rt.kind, kind)
		}
	}

	if _, err := relationTableFor(entities.RelationKind("bogus")); err == nil {
		t.Error("expected error for unknown relation kind")
	}
}

func TestReplaceRelations_EmptySetDeletesOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_process").WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}

	rt, _ := relationTableFor(entities.KindRole)
	if err := replaceRelations(context.Background(), tx, rt, 1, nil); err != nil {
		t.Fatalf("replaceRelations() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
