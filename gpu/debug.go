package gpu

import "fmt"

// Debug enables verbose logging of adapter selection, buffer allocation
// and dispatch sizing. Set before the first GetContext call.
var Debug bool

// Log prints a debug line when Debug is on.
func Log(format string, args ...any) {
	if !Debug {
		return
	}
	fmt.Printf("[gpu] "+format+"\n", args...)
}
