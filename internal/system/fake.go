package system

// Fake records requested actions for test assertions.
type Fake struct {
	Restarts  int
	PowerOffs int

	// Err, if set, is returned by every action after it is counted.
	Err error
}

// Restart counts a restart request.
func (f *Fake) Restart() error {
	f.Restarts++
	return f.Err
}

// PowerOff counts a power-off request.
func (f *Fake) PowerOff() error {
	f.PowerOffs++
	return f.Err
}
