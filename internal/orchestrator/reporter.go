package orchestrator

// Level is the severity of a user-facing notice
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Reporter shows batch progress and terminal notices to the user. Progress
// increments are percentages of the whole batch and add up to at most 100.
type Reporter interface {
	Begin(title string)
	Progress(increment float64, message string)
	Notify(level Level, message string)
	End()
}

// NopReporter discards everything
type NopReporter struct{}

func (NopReporter) Begin(string)             {}
func (NopReporter) Progress(float64, string) {}
func (NopReporter) Notify(Level, string)     {}
func (NopReporter) End()                     {}
