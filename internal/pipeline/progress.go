package pipeline

// Progress receives progress notifications from the steps.
// Implementations must be safe for concurrent use.
type Progress interface {
	// Start begins a phase with a known number of items.
	Start(phase string, total int)

	// Add marks n items of the current phase as done.
	Add(n int)

	// Finish ends the current phase.
	Finish()
}

// NopProgress discards all notifications.
type NopProgress struct{}

// Start implements Progress.
func (NopProgress) Start(string, int) {}

// Add implements Progress.
func (NopProgress) Add(int) {}

// Finish implements Progress.
func (NopProgress) Finish() {}
