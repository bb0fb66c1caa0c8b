// Package sysmem detects total system RAM, used to scale the default spill
// threshold to the machine the parser runs on. Platforms without a detection
// method fall back to a safe default.
package sysmem

// DefaultMemoryBytes is the 4 GB fallback used when detection fails or the
// platform is unsupported.
const DefaultMemoryBytes uint64 = 4 * 1024 * 1024 * 1024

// Result is one memory probe.
type Result struct {
	// TotalBytes is the total system memory in bytes.
	TotalBytes uint64

	// Reliable is true when the value came from a platform probe rather
	// than the fallback default.
	Reliable bool
}

// Total probes the platform for total system memory, falling back to
// DefaultMemoryBytes.
func Total() Result {
	bytes, ok := totalSystemMemory()
	if !ok || bytes == 0 {
		return Result{TotalBytes: DefaultMemoryBytes, Reliable: false}
	}
	return Result{TotalBytes: bytes, Reliable: true}
}

// TotalBytes returns just the memory value. Use Total when the caller needs
// to know whether the probe succeeded.
func TotalBytes() uint64 {
	return Total().TotalBytes
}
