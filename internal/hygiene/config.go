package hygiene

import "time"

// BuildConfig assembles a Config from the kernel's runtime settings.
// Exported so cmd/komposerd can wire a Config without reaching into
// classify.go's unexported fields directly.
func BuildConfig(selfPID int32, selfModuleName string, reservedPorts []int, zombieAgeThreshold time.Duration) Config {
	ports := make(map[int]bool, len(reservedPorts))
	for _, p := range reservedPorts {
		ports[p] = true
	}
	return Config{
		SelfPID:            selfPID,
		SelfModuleName:     selfModuleName,
		ReservedPorts:      ports,
		ZombieAgeThreshold: zombieAgeThreshold,
	}
}
