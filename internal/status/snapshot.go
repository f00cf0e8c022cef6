// internal/status/snapshot.go
package status

// Snapshot is the live part of one unit's status block.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	FieldsOK     uint16
	FieldsFailed uint16
	CycleMillis  uint16
}
