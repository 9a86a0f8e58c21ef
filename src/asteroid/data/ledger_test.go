package data

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newMockDB creates a gorm handle over sqlmock with automatic cleanup and
// expectation checking.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		sqlDB.Close()
	})
	return db, mock
}

func TestLedgerAddInserted(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `endorsements`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	out, err := NewLedger(db).Add(Endorsement{
		EndorserID: "u1", MessageID: "m1", GuildID: "g1", Medium: MediumOriginalReaction,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != AddInserted {
		t.Fatalf("out = %v, want AddInserted", out)
	}
}

func TestLedgerAddDuplicateIgnored(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `endorsements`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	out, err := NewLedger(db).Add(Endorsement{
		EndorserID: "u1", MessageID: "m1", GuildID: "g1", Medium: MediumExplicit,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != AddAlreadyExists {
		t.Fatalf("out = %v, want AddAlreadyExists", out)
	}
}

func TestLedgerRemoveRemoved(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `endorsements` WHERE endorser_id = \\? AND message_id = \\? AND medium = \\?").
		WithArgs("u1", "m1", "original_reaction").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := NewLedger(db).Remove("u1", "m1", MediumOriginalReaction)
	if err != nil {
		t.Fatal(err)
	}
	if out != RemoveRemoved {
		t.Fatalf("out = %v, want RemoveRemoved", out)
	}
}

func TestLedgerRemoveWrongMedium(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `endorsements`").
		WithArgs("u1", "m1", "explicit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `endorsements` WHERE endorser_id = \\? AND message_id = \\?").
		WithArgs("u1", "m1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectCommit()

	out, err := NewLedger(db).Remove("u1", "m1", MediumExplicit)
	if err != nil {
		t.Fatal(err)
	}
	if out != RemoveWrongMedium {
		t.Fatalf("out = %v, want RemoveWrongMedium", out)
	}
}

func TestLedgerRemoveNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `endorsements`").
		WithArgs("u1", "m1", "explicit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `endorsements`").
		WithArgs("u1", "m1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectCommit()

	out, err := NewLedger(db).Remove("u1", "m1", MediumExplicit)
	if err != nil {
		t.Fatal(err)
	}
	if out != RemoveNotFound {
		t.Fatalf("out = %v, want RemoveNotFound", out)
	}
}

func TestLedgerCount(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `endorsements` WHERE message_id = \\?").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(7))

	n, err := NewLedger(db).Count("m1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("count = %d, want 7", n)
	}
}

func TestLedgerPurge(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `endorsements` WHERE message_id = \\?").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	if err := NewLedger(db).Purge("m1"); err != nil {
		t.Fatal(err)
	}
}

func TestLedgerGuildTotals(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\), count\\(distinct message_id\\) FROM `endorsements` WHERE guild_id = \\?").
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)", "count(distinct message_id)"}).AddRow(42, 9))

	stars, messages, err := NewLedger(db).GuildTotals("g1")
	if err != nil {
		t.Fatal(err)
	}
	if stars != 42 || messages != 9 {
		t.Fatalf("totals = %d/%d, want 42/9", stars, messages)
	}
}

func TestMirrorsByMessageAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `mirror_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"message_id"}))

	entry, err := NewMirrors(db).ByMessage("m1")
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Fatalf("entry = %+v, want nil", entry)
	}
}

func TestMirrorsDelete(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `mirror_entries` WHERE message_id = \\?").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewMirrors(db).Delete("m1"); err != nil {
		t.Fatal(err)
	}
}

func TestImportApplierSingleTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `endorsements`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `endorsements`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `mirror_entries`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := NewImportApplier(db).ApplyImport([]Endorsement{
		{EndorserID: "u1", MessageID: "m1", GuildID: "g1", Medium: MediumOriginalReaction},
		{EndorserID: "u2", MessageID: "m1", GuildID: "g1", Medium: MediumMirrorReaction},
	}, &MirrorEntry{MessageID: "m1", OriginChannelID: "c1", MirrorMessageID: "b1", GuildID: "g1"})
	if err != nil {
		t.Fatal(err)
	}
}

func TestImportApplierRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `endorsements`").
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err := NewImportApplier(db).ApplyImport([]Endorsement{
		{EndorserID: "u1", MessageID: "m1", GuildID: "g1", Medium: MediumExplicit},
	}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}
