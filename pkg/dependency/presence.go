package dependency

import "fmt"

// ExportPresenceType is the user facing setting for missing-export checks.
type ExportPresenceType string

const (
	ExportPresenceUnset ExportPresenceType = ""
	ExportPresenceFalse ExportPresenceType = "false"
	ExportPresenceWarn  ExportPresenceType = "warn"
	ExportPresenceAuto  ExportPresenceType = "auto"
	ExportPresenceError ExportPresenceType = "error"
)

// ParseExportPresenceType validates a configuration value.
func ParseExportPresenceType(s string) (ExportPresenceType, error) {
	switch t := ExportPresenceType(s); t {
	case ExportPresenceUnset, ExportPresenceFalse, ExportPresenceWarn, ExportPresenceAuto, ExportPresenceError:
		return t, nil
	default:
		return "", fmt.Errorf("invalid export presence %q (want false, warn, auto or error)", s)
	}
}

// PresenceOptions is the slice of parser options that decides how a
// reference to a missing export is reported.
type PresenceOptions struct {
	ExportsPresence         ExportPresenceType
	ReexportExportsPresence ExportPresenceType
	StrictExportPresence    bool
}

// ExportPresenceMode is the resolved behaviour attached to a record.
type ExportPresenceMode uint8

const (
	ExportPresenceModeNone ExportPresenceMode = iota
	ExportPresenceModeWarn
	ExportPresenceModeAuto
	ExportPresenceModeError
)

func (m ExportPresenceMode) String() string {
	switch m {
	case ExportPresenceModeNone:
		return "none"
	case ExportPresenceModeWarn:
		return "warn"
	case ExportPresenceModeAuto:
		return "auto"
	case ExportPresenceModeError:
		return "error"
	default:
		return fmt.Sprintf("ExportPresenceMode(%d)", uint8(m))
	}
}

// MarshalText encodes the mode by name.
func (m ExportPresenceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *ExportPresenceMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*m = ExportPresenceModeNone
	case "warn":
		*m = ExportPresenceModeWarn
	case "auto":
		*m = ExportPresenceModeAuto
	case "error":
		*m = ExportPresenceModeError
	default:
		return fmt.Errorf("invalid export presence mode %q", text)
	}
	return nil
}

func modeFromType(t ExportPresenceType) ExportPresenceMode {
	switch t {
	case ExportPresenceFalse:
		return ExportPresenceModeNone
	case ExportPresenceWarn:
		return ExportPresenceModeWarn
	case ExportPresenceError:
		return ExportPresenceModeError
	default:
		return ExportPresenceModeAuto
	}
}

// CreateExportPresenceMode resolves the mode for re-export records:
// the re-export specific setting wins over the general one, and strict
// export presence upgrades the fallback to an error.
func CreateExportPresenceMode(opts PresenceOptions) ExportPresenceMode {
	if opts.ReexportExportsPresence != ExportPresenceUnset {
		return modeFromType(opts.ReexportExportsPresence)
	}
	if opts.ExportsPresence != ExportPresenceUnset {
		return modeFromType(opts.ExportsPresence)
	}
	if opts.StrictExportPresence {
		return ExportPresenceModeError
	}
	return ExportPresenceModeAuto
}

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Severity returns how a missing export is reported under m. The second
// result is false when it is not reported at all.
func (m ExportPresenceMode) Severity(strictHarmonyModule bool) (Severity, bool) {
	switch m {
	case ExportPresenceModeWarn:
		return SeverityWarning, true
	case ExportPresenceModeError:
		return SeverityError, true
	case ExportPresenceModeAuto:
		if strictHarmonyModule {
			return SeverityError, true
		}
		return SeverityWarning, true
	default:
		return "", false
	}
}
