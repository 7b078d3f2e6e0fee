package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adjovi/momo-tracker/internal/domain"
)

type stubStore struct {
	transactions []domain.Transaction
	loadErr      error
	saveErr      error
	saves        int
}

func (s *stubStore) Load() ([]domain.Transaction, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *stubStore) Save(transactions []domain.Transaction) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.transactions = transactions
	s.saves++
	return nil
}

type recordingSink struct {
	notified []domain.Transaction
	err      error
}

func (r *recordingSink) Notify(_ context.Context, tx domain.Transaction) error {
	r.notified = append(r.notified, tx)
	return r.err
}

const withdrawalMsg = "Retrait 4000F via WAD SERVICE GEST 1(2290150777120 - RBCCM/ABC/22 A 51015) 2025-11-25 21:27:14 Solde:10482F Frais:125F ID:11013738601"

func TestService_Ingest(t *testing.T) {
	store := &stubStore{}
	sink := &recordingSink{}
	svc := NewService(store, sink)

	tx, added, err := svc.Ingest(context.Background(), RawMessage{Body: withdrawalMsg})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !added {
		t.Error("added = false, want true for a new message")
	}
	if tx.ID != "11013738601" {
		t.Errorf("ID = %q, want 11013738601", tx.ID)
	}
	if len(store.transactions) != 1 {
		t.Fatalf("store holds %d transactions, want 1", len(store.transactions))
	}
	if len(sink.notified) != 1 || sink.notified[0].ID != tx.ID {
		t.Errorf("sink notified %d times, want 1 with id %q", len(sink.notified), tx.ID)
	}
}

func TestService_IngestDuplicate(t *testing.T) {
	store := &stubStore{}
	sink := &recordingSink{}
	svc := NewService(store, sink)
	ctx := context.Background()

	if _, _, err := svc.Ingest(ctx, RawMessage{Body: withdrawalMsg}); err != nil {
		t.Fatal(err)
	}
	savesAfterFirst := store.saves

	_, added, err := svc.Ingest(ctx, RawMessage{Body: withdrawalMsg})
	if err != nil {
		t.Fatalf("second Ingest failed: %v", err)
	}
	if added {
		t.Error("added = true for a duplicate, want false")
	}
	if store.saves != savesAfterFirst {
		t.Error("duplicate ingest triggered a write")
	}
	if len(sink.notified) != 1 {
		t.Errorf("sink notified %d times, want 1", len(sink.notified))
	}
}

func TestService_IngestUnrecognized(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)

	_, _, err := svc.Ingest(context.Background(), RawMessage{Body: "Votre transfert a été traité avec succès"})
	if err == nil {
		t.Fatal("Ingest of unrecognized message succeeded, want error")
	}
	if store.saves != 0 {
		t.Error("unrecognized message triggered a write")
	}
}

func TestService_IngestBatch(t *testing.T) {
	store := &stubStore{}
	sink := &recordingSink{}
	svc := NewService(store, sink)

	msgs := []RawMessage{
		{Body: withdrawalMsg},
		{Body: "Grace à ton paiement via MoMopay tu as gagné des points"},
		{Body: "Paiement 500F a MTN BUNDLES 2025-11-15 22:21:49 Frais:0F Solde:4572F ID:10951687251 Ref:Frommessage"},
		{Body: withdrawalMsg},
	}

	parsed, added, err := svc.IngestBatch(context.Background(), msgs)
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if parsed != 3 {
		t.Errorf("parsed = %d, want 3 (one rejection)", parsed)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2 (repeated message absorbed)", added)
	}
	if store.saves != 1 {
		t.Errorf("store.saves = %d, want a single batch write", store.saves)
	}
	if len(sink.notified) != 2 {
		t.Errorf("sink notified %d times, want 2", len(sink.notified))
	}
}

func TestService_SinkFailureDoesNotFailIngest(t *testing.T) {
	store := &stubStore{}
	failing := &recordingSink{err: errors.New("sink down")}
	svc := NewService(store, failing)

	_, added, err := svc.Ingest(context.Background(), RawMessage{Body: withdrawalMsg})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !added {
		t.Error("added = false, want true despite sink failure")
	}
	if len(store.transactions) != 1 {
		t.Error("transaction not persisted")
	}
}

type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSink) Notify(_ context.Context, _ domain.Transaction) error {
	close(b.entered)
	<-b.release
	return nil
}

func TestService_SlowSinkDoesNotBlockReads(t *testing.T) {
	sink := &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(&stubStore{}, sink)
	ctx := context.Background()

	ingested := make(chan struct{})
	go func() {
		defer close(ingested)
		if _, _, err := svc.Ingest(ctx, RawMessage{Body: withdrawalMsg}); err != nil {
			t.Errorf("Ingest failed: %v", err)
		}
	}()

	select {
	case <-sink.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("sink was never invoked")
	}

	listed := make(chan struct{})
	go func() {
		defer close(listed)
		if _, err := svc.List(ctx, Filter{}); err != nil {
			t.Errorf("List failed: %v", err)
		}
	}()

	select {
	case <-listed:
	case <-time.After(2 * time.Second):
		t.Fatal("List blocked behind a slow notification sink")
	}

	close(sink.release)
	<-ingested
}

func TestService_List(t *testing.T) {
	base := time.Date(2025, 11, 20, 12, 0, 0, 0, time.Local)
	store := &stubStore{transactions: []domain.Transaction{
		tx("3", domain.TypeWithdrawal, 4000, 125, 10482, base.Add(48*time.Hour)),
		tx("2", domain.TypePaymentBill, 5000, 50, 482, base.Add(24*time.Hour)),
		tx("1", domain.TypeDeposit, 3250, 0, 4222, base),
	}}
	svc := NewService(store)
	ctx := context.Background()

	all, err := svc.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered List returned %d, want 3", len(all))
	}

	byType, err := svc.List(ctx, Filter{Type: domain.TypePaymentBill})
	if err != nil {
		t.Fatal(err)
	}
	if len(byType) != 1 || byType[0].ID != "2" {
		t.Errorf("type filter returned %+v, want only id 2", byType)
	}

	byDate, err := svc.List(ctx, Filter{From: base.Add(12 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(byDate) != 2 {
		t.Errorf("date filter returned %d, want 2", len(byDate))
	}
}

func TestService_Stats(t *testing.T) {
	base := time.Date(2025, 11, 20, 12, 0, 0, 0, time.Local)
	store := &stubStore{transactions: []domain.Transaction{
		tx("2", domain.TypeWithdrawal, 4000, 125, 10482, base.Add(24*time.Hour)),
		tx("1", domain.TypeDeposit, 3250, 0, 4222, base),
	}}
	svc := NewService(store)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalSent != 4000 || stats.TotalReceived != 3250 || stats.CurrentBalance != 10482 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestService_Delete(t *testing.T) {
	base := time.Date(2025, 11, 20, 12, 0, 0, 0, time.Local)
	store := &stubStore{transactions: []domain.Transaction{
		tx("2", domain.TypeWithdrawal, 4000, 125, 10482, base.Add(24*time.Hour)),
		tx("1", domain.TypeDeposit, 3250, 0, 4222, base),
	}}
	svc := NewService(store)
	ctx := context.Background()

	if err := svc.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(store.transactions) != 1 || store.transactions[0].ID != "2" {
		t.Errorf("store after delete = %+v", store.transactions)
	}

	if err := svc.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete of missing id = %v, want ErrNotFound", err)
	}
}

func TestService_Clear(t *testing.T) {
	base := time.Date(2025, 11, 20, 12, 0, 0, 0, time.Local)
	store := &stubStore{transactions: []domain.Transaction{
		tx("1", domain.TypeDeposit, 3250, 0, 4222, base),
	}}
	svc := NewService(store)

	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(store.transactions) != 0 {
		t.Errorf("store after clear holds %d transactions", len(store.transactions))
	}
}

func TestService_StoreLoadError(t *testing.T) {
	boom := errors.New("disk gone")
	svc := NewService(&stubStore{loadErr: boom})

	if _, _, err := svc.Ingest(context.Background(), RawMessage{Body: withdrawalMsg}); !errors.Is(err, boom) {
		t.Errorf("Ingest error = %v, want wrapped %v", err, boom)
	}
}
