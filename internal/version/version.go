// ABOUTME: Product and version constants
// ABOUTME: Reported in logs and the dashboard
package version

import "fmt"

const (
	Version      = "0.1.0"
	Product      = "audiocore"
	Manufacturer = "Resonate Protocol"
)

// String returns e.g. "audiocore 0.1.0 (Resonate Protocol)"
func String() string {
	return fmt.Sprintf("%s %s (%s)", Product, Version, Manufacturer)
}
