package app

// AuditOperation tracks a CLI operation that may append punches.
// Operations are created in memory with ID=0. Only mutating commands
// persist them (giving them an auto-increment ID from the database).
type AuditOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewAuditOperation creates a new in-memory audit operation.
func NewAuditOperation(operation, parameters string) *AuditOperation {
	return &AuditOperation{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *AuditOperation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed.
func (op *AuditOperation) Fail() {
	op.Status = "error"
}
