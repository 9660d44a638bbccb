package value

// ErrorList accumulates every problem found during one expansion pass.
// Evaluation never aborts on the first error; callers record and
// continue with a safe default so a single pass surfaces all issues.
type ErrorList struct {
	errs []error
}

// Add appends an error. Nil errors are ignored.
func (l *ErrorList) Add(err error) {
	if l == nil || err == nil {
		return
	}
	l.errs = append(l.errs, err)
}

// Empty reports whether no errors were recorded
func (l *ErrorList) Empty() bool {
	return l == nil || len(l.errs) == 0
}

// Errors returns the recorded errors in order
func (l *ErrorList) Errors() []error {
	if l == nil {
		return nil
	}
	return l.errs
}

// Messages returns the recorded errors as human-readable strings
func (l *ErrorList) Messages() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.errs))
	for i, err := range l.errs {
		out[i] = err.Error()
	}
	return out
}
