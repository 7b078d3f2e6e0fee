package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adjovi/momo-tracker/internal/domain"
	"github.com/adjovi/momo-tracker/internal/jobs"
	"github.com/adjovi/momo-tracker/internal/jobs/inmemory"
	"github.com/adjovi/momo-tracker/internal/ledger"
)

const withdrawalMsg = "Retrait 4000F via WAD SERVICE GEST 1(2290150777120 - RBCCM/ABC/22 A 51015) 2025-11-25 21:27:14 Solde:10482F Frais:125F ID:11013738601"

type testAPI struct {
	handler  http.Handler
	svc      *ledger.Service
	jobStore *inmemory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	svc := ledger.NewService(ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json")))
	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(10, jobStore)
	t.Cleanup(func() { queue.Close() })

	return &testAPI{
		handler:  NewRouter(svc, queue, jobStore, "momo-backups", zerolog.Nop()),
		svc:      svc,
		jobStore: jobStore,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestIngestMessage(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{"message": withdrawalMsg})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transaction domain.Transaction `json:"transaction"`
		Added       bool               `json:"added"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Added || resp.Transaction.ID != "11013738601" {
		t.Errorf("response = %+v", resp)
	}

	// Same message again: absorbed, not created.
	rec = api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{"message": withdrawalMsg})
	if rec.Code != http.StatusOK {
		t.Errorf("duplicate status = %d, want 200", rec.Code)
	}
}

func TestIngestMessage_Unrecognized(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{
		"message": "Grace à ton paiement via MoMopay tu as gagné des points",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestIngestMessage_BadRequest(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	api.handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec2.Code)
	}
}

func TestIngestBatch(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/messages/batch", map[string]interface{}{
		"messages": []map[string]interface{}{
			{"message": withdrawalMsg},
			{"message": "Merci d'avoir effectué un retrait à notre guichet"},
			{"message": "Paiement 500F a MTN BUNDLES 2025-11-15 22:21:49 Frais:0F Solde:4572F ID:10951687251 Ref:Frommessage"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["received"] != 3 || resp["parsed"] != 2 || resp["added"] != 2 {
		t.Errorf("response = %v", resp)
	}
}

func TestListTransactions(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{"message": withdrawalMsg})

	rec := api.do(t, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var transactions []domain.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &transactions); err != nil {
		t.Fatal(err)
	}
	if len(transactions) != 1 {
		t.Errorf("got %d transactions, want 1", len(transactions))
	}

	rec = api.do(t, http.MethodGet, "/api/transactions?type=deposit", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &transactions); err != nil {
		t.Fatal(err)
	}
	if len(transactions) != 0 {
		t.Errorf("type filter returned %d transactions, want 0", len(transactions))
	}

	rec = api.do(t, http.MethodGet, "/api/transactions?type=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type status = %d, want 400", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/transactions?start_date=2025-11-25&end_date=2025-11-25", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &transactions); err != nil {
		t.Fatal(err)
	}
	if len(transactions) != 1 {
		t.Errorf("date filter returned %d transactions, want 1", len(transactions))
	}
}

func TestGetStats(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{"message": withdrawalMsg})

	rec := api.do(t, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats domain.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalSent != 4000 || stats.TotalFees != 125 || stats.TransactionCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDeleteTransaction(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{"message": withdrawalMsg})

	rec := api.do(t, http.MethodDelete, "/api/transactions/11013738601", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = api.do(t, http.MethodDelete, "/api/transactions/11013738601", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestClearTransactions(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/messages", map[string]interface{}{"message": withdrawalMsg})

	rec := api.do(t, http.MethodDelete, "/api/transactions", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}

	transactions, err := api.svc.List(context.Background(), ledger.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(transactions) != 0 {
		t.Errorf("ledger holds %d transactions after clear", len(transactions))
	}
}

func TestEnqueueSync(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/sync", map[string]interface{}{"object": "sms.xml"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["job_id"] == "" {
		t.Error("no job_id in response")
	}

	job, err := api.jobStore.GetJob(context.Background(), resp["job_id"])
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.Bucket != "momo-backups" || job.Object != "sms.xml" {
		t.Errorf("job = %+v", job)
	}
}

func TestEnqueueSync_MissingObject(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/sync", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestJobsEndpoints(t *testing.T) {
	api := newTestAPI(t)
	seed := &jobs.SyncBackupJob{JobID: "j1", Object: "sms.xml", Status: jobs.JobStatusCompleted}
	if err := api.jobStore.SaveJob(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	rec := api.do(t, http.MethodGet, "/api/jobs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 1 {
		t.Errorf("count = %d, want 1", list.Count)
	}

	rec = api.do(t, http.MethodGet, "/api/jobs/j1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/jobs/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
