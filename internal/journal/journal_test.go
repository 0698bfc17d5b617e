package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSeenAndRecord(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	seen, err := store.Seen(1)
	if err != nil {
		t.Fatalf("Seen returned error: %v", err)
	}
	if seen {
		t.Fatalf("fresh journal should not know signal 1")
	}

	if err := store.Record(Outcome{SignalID: 1, Status: "EXECUTED", Message: "ticket 1001", Ticket: 1001}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	seen, err = store.Seen(1)
	if err != nil {
		t.Fatalf("Seen returned error: %v", err)
	}
	if !seen {
		t.Fatalf("recorded signal not seen")
	}
}

func TestMarkDelivered(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	if err := store.Record(Outcome{SignalID: 3, Status: "EXECUTED", Ticket: 1003}); err != nil {
		t.Fatalf("record: %v", err)
	}
	o, ok, err := store.Get(3)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if o.Delivered {
		t.Fatalf("fresh outcome should be undelivered")
	}

	if err := store.MarkDelivered(3); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	o, ok, err = store.Get(3)
	if err != nil || !ok {
		t.Fatalf("Get after mark failed: ok=%v err=%v", ok, err)
	}
	if !o.Delivered {
		t.Fatalf("delivered flag not persisted")
	}
}

func TestRecordFirstWriteWins(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	if err := store.Record(Outcome{SignalID: 5, Status: "REJECTED", Message: "max positions reached"}); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := store.Record(Outcome{SignalID: 5, Status: "EXECUTED", Message: "should not replace"}); err != nil {
		t.Fatalf("replay record: %v", err)
	}

	outcomes, err := store.Outcomes(10)
	if err != nil {
		t.Fatalf("Outcomes returned error: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Status != "REJECTED" {
		t.Fatalf("replay overwrote outcome: %+v", outcomes[0])
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	if err := store.Record(Outcome{SignalID: 9, Status: "EXECUTED", Ticket: 2002, ReportedAt: time.Unix(1700000000, 0)}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer reopened.Close()

	seen, err := reopened.Seen(9)
	if err != nil {
		t.Fatalf("Seen after reopen: %v", err)
	}
	if !seen {
		t.Fatalf("outcome lost across restart")
	}
}
