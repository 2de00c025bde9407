package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Everything here runs before a receiver process is launched; a config that
// passes Validate never fails later for a reason Validate could have caught.
func Validate(cfg *Config) error {
	var errs []error

	// Version must be a known receiver build
	if cfg.ReceiverPath == "" && !knownVersion(cfg.Version) {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("must be one of: %s (got %q)", strings.Join(ReceiverVersions, ", "), cfg.Version),
		})
	}

	// Mode must be valid
	if cfg.Mode != ModeListener && cfg.Mode != ModeCaller {
		errs = append(errs, ValidationError{
			Field:   "mode",
			Message: fmt.Sprintf("must be %q or %q (got %q)", ModeListener, ModeCaller, cfg.Mode),
		})
	}

	// Address is required: the bind address for a listener, the peer for a
	// caller. Must be a well-formed dotted-quad IPv4 either way.
	if cfg.Address == "" {
		errs = append(errs, ValidationError{
			Field:   "address",
			Message: "IPv4 address is required",
		})
	} else if err := validateIPv4(cfg.Address); err != nil {
		errs = append(errs, ValidationError{
			Field:   "address",
			Message: err.Error(),
		})
	}

	// Port within the session window
	if cfg.Port < PortMin || cfg.Port > PortMax {
		errs = append(errs, ValidationError{
			Field:   "port",
			Message: fmt.Sprintf("must be between %d and %d (got %d)", PortMin, PortMax, cfg.Port),
		})
	}

	// Timeout within bounds
	if cfg.Timeout < TimeoutMin || cfg.Timeout > TimeoutMax {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: fmt.Sprintf("must be between %v and %v (got %v)", TimeoutMin, TimeoutMax, cfg.Timeout),
		})
	}

	// Netem settings only matter when enabled
	if cfg.NetemEnabled {
		if cfg.NetemIface == "" {
			errs = append(errs, ValidationError{
				Field:   "netem_iface",
				Message: "interface name is required when netem is enabled",
			})
		}
		if cfg.NetemDelayMs < NetemDelayMin || cfg.NetemDelayMs > NetemDelayMax {
			errs = append(errs, ValidationError{
				Field:   "netem_delay_ms",
				Message: fmt.Sprintf("must be between %d and %d (got %d)", NetemDelayMin, NetemDelayMax, cfg.NetemDelayMs),
			})
		}
	}

	if cfg.StatsReportFrequency < 1 {
		errs = append(errs, ValidationError{
			Field:   "stats_report_frequency",
			Message: "must be at least 1",
		})
	}

	if cfg.WorkDir == "" {
		errs = append(errs, ValidationError{
			Field:   "work_dir",
			Message: "must not be empty",
		})
	}

	// Log format must be valid
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateIPv4 checks that the string is a dotted-quad IPv4 address.
// netip rejects out-of-range octets ("999.1.1.1"), hostnames, and
// IPv4-in-IPv6 forms, which is exactly the contract the receiver URL needs.
func validateIPv4(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return fmt.Errorf("%q is not a valid IPv4 address", s)
	}
	if !addr.Is4() {
		return fmt.Errorf("%q is not an IPv4 address", s)
	}
	return nil
}

func knownVersion(v string) bool {
	for _, known := range ReceiverVersions {
		if v == known {
			return true
		}
	}
	return false
}
