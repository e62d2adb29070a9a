package client

// Optimistic applies a local change before the server confirms it. apply
// returns the function that undoes the change; it runs when commit fails.
func Optimistic(apply func() (revert func()), commit func() error) error {
	revert := apply()
	if err := commit(); err != nil {
		if revert != nil {
			revert()
		}
		return err
	}
	return nil
}
