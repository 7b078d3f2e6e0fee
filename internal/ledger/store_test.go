package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adjovi/momo-tracker/internal/domain"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "ledger.json"))

	transactions, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(transactions) != 0 {
		t.Errorf("Load of missing file returned %d transactions, want 0", len(transactions))
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := NewFileStore(path)

	date := time.Date(2025, 11, 25, 21, 27, 14, 0, time.Local)
	saved := []domain.Transaction{
		{
			ID:            "11013738601",
			Type:          domain.TypeWithdrawal,
			Amount:        4000,
			Fee:           125,
			Balance:       10482,
			Counterparty:  "WAD SERVICE GEST 1",
			Date:          date,
			TransactionID: "11013738601",
			RawMessage:    "Retrait 4000F via WAD SERVICE GEST 1",
		},
	}

	if err := store.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Load returned %d transactions, want 1", len(loaded))
	}
	got := loaded[0]
	if got.ID != saved[0].ID || got.Type != saved[0].Type || got.Amount != saved[0].Amount {
		t.Errorf("loaded transaction %+v does not match saved %+v", got, saved[0])
	}
	if !got.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", got.Date, date)
	}
}

func TestFileStore_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "ledger.json")
	store := NewFileStore(path)

	if err := store.Save(nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("ledger file not created: %v", err)
	}
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("Load of corrupt file succeeded, want error")
	}
}
