package db

import (
	"strings"
	"testing"
	"time"
)

func TestMySQLDSN(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)

	dsn, err := mysqlDSN("agenda:secret@tcp(db:3306)/easyappointments", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"parseTime=true", "loc=CST", "timeout=5s", "readTimeout=30s"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("expected %q in %q", want, dsn)
		}
	}
}

func TestMySQLDSN_KeepsExplicitTimeout(t *testing.T) {
	dsn, err := mysqlDSN("agenda:secret@tcp(db:3306)/easyappointments?timeout=2s", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(dsn, "timeout=2s") {
		t.Fatalf("expected explicit timeout to survive, got %q", dsn)
	}
}

func TestMySQLDSN_Invalid(t *testing.T) {
	if _, err := mysqlDSN("not a dsn", nil); err == nil {
		t.Fatal("expected error for malformed DSN")
	}
}
