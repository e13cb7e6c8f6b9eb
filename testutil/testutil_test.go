/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

// MockT records failures of the helpers instead of stopping the test.
// FailNow doesn't call runtime.Goexit, so a helper keeps running after the first failed check.
type MockT struct {
	Failed bool
	Format string
	Args   []interface{}
}

func (t *MockT) Errorf(format string, args ...interface{}) {
	t.Format, t.Args = format, args
}

func (t *MockT) FailNow() {
	t.Failed = true
}

func (t *MockT) Helper() {}
