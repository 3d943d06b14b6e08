package app

import "testing"

func TestAuditOperation(t *testing.T) {
	t.Run("starts in memory and successful", func(t *testing.T) {
		op := NewAuditOperation("Import", "/tmp/queue.json")
		if op.Operation != "Import" || op.Parameters != "/tmp/queue.json" {
			t.Errorf("got %+v", op)
		}
		if op.Status != "success" {
			t.Errorf("Status = %q, want success", op.Status)
		}
		if op.Persisted() {
			t.Error("new operation reports persisted")
		}
	})

	t.Run("is persisted once it has an ID", func(t *testing.T) {
		op := NewAuditOperation("Clock", "")
		op.ID = 7
		if !op.Persisted() {
			t.Error("Persisted() = false for ID 7")
		}
	})

	t.Run("fail marks the status", func(t *testing.T) {
		op := NewAuditOperation("Clock", "")
		op.Fail()
		if op.Status != "error" {
			t.Errorf("Status = %q, want error", op.Status)
		}
	})
}
