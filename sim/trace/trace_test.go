package trace

import (
	"testing"
)

func TestSimulationTrace_RecordDispatch_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions, RunID: "run-1"})

	// WHEN a dispatch record is recorded
	st.RecordDispatch(DispatchRecord{
		OrderID:           1,
		Product:           "sensor-a",
		State:             2,
		Clock:             1000,
		Resource:          "calibration_0",
		Index:             0,
		Pass:              PassNoDelay,
		PlannedCompletion: 1010,
		DueDate:           1200,
	})

	// THEN the trace contains one dispatch record with correct data
	if len(st.Dispatches) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(st.Dispatches))
	}
	if st.Dispatches[0].Resource != "calibration_0" {
		t.Errorf("expected resource calibration_0, got %s", st.Dispatches[0].Resource)
	}
	if st.Dispatches[0].Pass != PassNoDelay {
		t.Errorf("expected pass %s, got %s", PassNoDelay, st.Dispatches[0].Pass)
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN multiple records are added
	st.RecordDispatch(DispatchRecord{OrderID: 1, Clock: 100, Resource: "m_0", Pass: PassNoDelay})
	st.RecordDispatch(DispatchRecord{OrderID: 2, Clock: 100, Resource: "m_1", Pass: PassFallback})
	st.RecordDispatch(DispatchRecord{OrderID: 1, Clock: 150, Resource: "m_2", Pass: PassParallel})

	// THEN order is preserved
	if len(st.Dispatches) != 3 {
		t.Fatalf("expected 3 dispatches, got %d", len(st.Dispatches))
	}
	want := []int{1, 2, 1}
	for i, d := range st.Dispatches {
		if d.OrderID != want[i] {
			t.Errorf("dispatch[%d]: got order %d, want %d", i, d.OrderID, want[i])
		}
	}
}

func TestSimulationTrace_Enabled(t *testing.T) {
	var nilTrace *SimulationTrace
	if nilTrace.Enabled() {
		t.Error("nil trace must not be enabled")
	}
	if NewSimulationTrace(TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("level none must not be enabled")
	}
	if !NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions}).Enabled() {
		t.Error("level decisions must be enabled")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true}, // empty defaults to none
		{"detailed", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
