package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jmarceau/echeancier/constants"
	"github.com/jmarceau/echeancier/internal/llm"
	"github.com/jmarceau/echeancier/internal/repository"
)

// mockAnalyzer returns predefined data instead of calling a remote service.
type mockAnalyzer struct {
	text string
	err  error
}

func (m *mockAnalyzer) Analyze(_ context.Context, _ llm.AnalyzeRequest) (string, error) {
	return m.text, m.err
}

// memRecorder captures persisted runs in memory.
type memRecorder struct {
	runs []repository.Run
}

func (m *memRecorder) CreateRun(_ context.Context, run repository.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func TestProcess_EndToEnd(t *testing.T) {
	raw := "Voici le résultat:\n```json\n[{\"Date d'echeance\":\"01/01/2025\",\"Assurances\":\"10,00\"},{\"Date d'echeance\":\"01/02/2025\",\"Assurances\":\"10,00\"}]\n```"
	rec := &memRecorder{}
	p := NewProcessor(&mockAnalyzer{text: raw}, rec, Config{}, nil)

	result, err := p.Process(context.Background(), []byte("%PDF-stub"), "tableau.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NoData {
		t.Fatalf("unexpected no-data result: %s", result.Reason)
	}
	if result.Table.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", result.Table.RowCount())
	}
	if math.Abs(result.Summary.TotalInsurance-20.00) > 1e-9 {
		t.Errorf("total_assurances = %v, want 20.00", result.Summary.TotalInsurance)
	}
	if result.Summary.FirstDueDate != "01/01/2025" {
		t.Errorf("premiere_echeance = %q, want 01/01/2025", result.Summary.FirstDueDate)
	}
	if result.Summary.RowCount != 2 {
		t.Errorf("nombre_echeances = %d, want 2", result.Summary.RowCount)
	}

	if len(rec.runs) != 1 {
		t.Fatalf("persisted %d runs, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Status != constants.RunStatusSucceeded {
		t.Errorf("run status = %s", run.Status)
	}
	if run.Payload == "" {
		t.Error("run payload not retained")
	}
}

func TestProcess_BracketIsolationWithoutFence(t *testing.T) {
	raw := `Le tableau demandé : [{"Assurances":"5,00"}] — cordialement`
	p := NewProcessor(&mockAnalyzer{text: raw}, nil, Config{}, nil)

	result, err := p.Process(context.Background(), nil, "x.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NoData || result.Table.RowCount() != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestProcess_NoStructuredBlock(t *testing.T) {
	rec := &memRecorder{}
	p := NewProcessor(&mockAnalyzer{text: "désolé, aucun tableau dans ce document"}, rec, Config{}, nil)

	result, err := p.Process(context.Background(), nil, "vide.pdf")
	if err != nil {
		t.Fatalf("isolation failure must not be an error: %v", err)
	}
	if !result.NoData {
		t.Fatal("expected a no-data result")
	}
	if result.Reason == "" {
		t.Error("no-data result must carry a reason")
	}
	if result.RawText == "" {
		t.Error("raw text must be retained for inspection")
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != constants.RunStatusNoData {
		t.Errorf("expected one NO_DATA run, got %+v", rec.runs)
	}
}

func TestProcess_MalformedPayload(t *testing.T) {
	raw := `[{"Assurances":"10,00"},]`

	t.Run("strict mode reports no data", func(t *testing.T) {
		p := NewProcessor(&mockAnalyzer{text: raw}, nil, Config{}, nil)
		result, err := p.Process(context.Background(), nil, "x.pdf")
		if err != nil {
			t.Fatalf("parse failure must not be an error: %v", err)
		}
		if !result.NoData {
			t.Fatal("expected a no-data result for the trailing comma")
		}
		if result.Payload == "" {
			t.Error("offending payload must be retained")
		}
	})

	t.Run("repair mode recovers the record", func(t *testing.T) {
		p := NewProcessor(&mockAnalyzer{text: raw}, nil, Config{RepairPayload: true}, nil)
		result, err := p.Process(context.Background(), nil, "x.pdf")
		if err != nil || result.NoData {
			t.Fatalf("expected success, got err=%v result=%+v", err, result)
		}
		if result.Table.RowCount() != 1 {
			t.Errorf("rows = %d, want 1", result.Table.RowCount())
		}
	})
}

func TestProcess_UpstreamFailurePropagates(t *testing.T) {
	upstream := &llm.UpstreamError{Status: 503, Err: errors.New("overloaded")}
	rec := &memRecorder{}
	p := NewProcessor(&mockAnalyzer{err: upstream}, rec, Config{}, nil)

	_, err := p.Process(context.Background(), nil, "x.pdf")
	var ue *llm.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *llm.UpstreamError, got %v", err)
	}
	if ue.Status != 503 {
		t.Errorf("status = %d", ue.Status)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != constants.RunStatusFailed {
		t.Errorf("expected one FAILED run, got %+v", rec.runs)
	}
}
