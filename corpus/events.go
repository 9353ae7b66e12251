package corpus

// StatusLevel classifies corpus status events.
type StatusLevel int

const (
	StatusProgress StatusLevel = iota
	StatusInfo
	StatusWarning
	StatusError
)

func (l StatusLevel) String() string {
	switch l {
	case StatusProgress:
		return "progress"
	case StatusInfo:
		return "info"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// EventCallback receives status reports from the corpus. Resolution failures
// are contained — they surface here instead of as returned errors.
type EventCallback func(level StatusLevel, message string)

// SetEventCallback installs cb for events at or above reportAtLevel. Passing a
// nil callback silences reporting.
func (c *Corpus) SetEventCallback(cb EventCallback, reportAtLevel StatusLevel) {
	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	c.events = cb
	c.reportAt = reportAtLevel
}

func (c *Corpus) report(level StatusLevel, message string) {
	c.eventsMu.RLock()
	cb, reportAt := c.events, c.reportAt
	c.eventsMu.RUnlock()

	if cb == nil || level < reportAt {
		return
	}
	cb(level, message)
}
