package ledger

// Observer is notified of ledger outcomes. Implementations must not block.
type Observer interface {
	MovementRecorded(m *Movement)
	Settled(s *Settlement)
	SettlementRejected(err *ValidationError)
	SettlementFailed(err *StorageError)
}

type nopObserver struct{}

func (nopObserver) MovementRecorded(*Movement)          {}
func (nopObserver) Settled(*Settlement)                 {}
func (nopObserver) SettlementRejected(*ValidationError) {}
func (nopObserver) SettlementFailed(*StorageError)      {}
