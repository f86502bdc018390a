package schedule

import (
	"context"
	"errors"
	"net/http"

	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/sysinfo"
	"github.com/rk/wallify/util/log"
)

// Checker decides whether the device currently satisfies cs. It returns
// the names of the unmet constraints.
type Checker interface {
	Check(ctx context.Context, cs rotation.Constraints) []string
}

// Probes are the host condition readers used by ConstraintChecker.
type Probes struct {
	Charging   func() (bool, error)
	BatteryLow func() (bool, error)
	StorageLow func(path string) (bool, error)
	Idle       func() (bool, error)
	Network    func(ctx context.Context) bool
}

// SystemProbes returns probes backed by pkg/sysinfo.
func SystemProbes(client *http.Client) Probes {
	return Probes{
		Charging:   sysinfo.Charging,
		BatteryLow: sysinfo.BatteryLow,
		StorageLow: sysinfo.StorageLow,
		Idle:       sysinfo.Idle,
		Network: func(ctx context.Context) bool {
			return sysinfo.NetworkAvailable(ctx, client, sysinfo.ConnectivityCheckURL)
		},
	}
}

// ConstraintChecker evaluates constraints with Probes. A probe the platform
// cannot answer, or one that errors, counts as satisfied.
type ConstraintChecker struct {
	probes      Probes
	storagePath string
}

// NewConstraintChecker creates a checker. storagePath selects the
// filesystem the storage constraint looks at.
func NewConstraintChecker(probes Probes, storagePath string) *ConstraintChecker {
	return &ConstraintChecker{probes: probes, storagePath: storagePath}
}

// Check implements Checker.
func (c *ConstraintChecker) Check(ctx context.Context, cs rotation.Constraints) []string {
	var unmet []string

	if cs.RequireCharging && c.probes.Charging != nil {
		if charging, err := c.probes.Charging(); !satisfied(!charging, err, "charging") {
			unmet = append(unmet, "charging")
		}
	}
	if cs.RequireBatteryNotLow && c.probes.BatteryLow != nil {
		if low, err := c.probes.BatteryLow(); !satisfied(low, err, "battery") {
			unmet = append(unmet, "battery not low")
		}
	}
	if cs.RequireStorageNotLow && c.probes.StorageLow != nil {
		if low, err := c.probes.StorageLow(c.storagePath); !satisfied(low, err, "storage") {
			unmet = append(unmet, "storage not low")
		}
	}
	if cs.RequireIdle && c.probes.Idle != nil {
		if idle, err := c.probes.Idle(); !satisfied(!idle, err, "idle") {
			unmet = append(unmet, "idle")
		}
	}
	if cs.RequireNetwork && c.probes.Network != nil {
		if !c.probes.Network(ctx) {
			unmet = append(unmet, "network")
		}
	}
	return unmet
}

// satisfied reports whether a probe result allows the cycle. bad is true
// when the probe observed the unwanted condition.
func satisfied(bad bool, err error, name string) bool {
	if err != nil {
		if !errors.Is(err, sysinfo.ErrUnsupported) {
			log.Printf("Constraint probe %s failed, ignoring: %v", name, err)
		}
		return true
	}
	return !bad
}
