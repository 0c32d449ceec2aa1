package reactor

import (
	"fmt"
	"log/slog"
)

// Kind identifies a violation category, mirroring the error taxonomy every
// mutation and read path is checked against.
type Kind string

const (
	KindInitViolation       Kind = "init-violation"
	KindReadOnlyViolation   Kind = "read-only-violation"
	KindContractViolation   Kind = "contract-violation"
	KindSchemaViolation     Kind = "schema-violation"
	KindCircularViolation   Kind = "circular-violation"
	KindUnsafeObservation   Kind = "unsafe-observation"
	KindTrapMisuse          Kind = "trap-misuse"
	KindHistoryMisuse       Kind = "history-misuse"
	KindExternalHandlerErr  Kind = "external-handler-error"
)

// Violation is the shared marker every error kind below satisfies, so
// callers can discriminate with errors.As(err, &v) without a type switch
// over every concrete kind.
type Violation interface {
	error
	ViolationKind() Kind
}

// StateViolation is the concrete error value raised for every non-fatal
// runtime violation. By default it is returned, not thrown; Options.Strict
// upgrades schema violations (on writes) and init violations (on Wrap) into
// panics, and circular-mutation violations always panic — see
// reportViolation. Write-contract violations are reported non-strict.
type StateViolation struct {
	Kind    Kind
	Message string
	Key     any
	Err     error
}

func (v *StateViolation) Error() string {
	if v.Key != nil {
		return fmt.Sprintf("reactor: %s: %s (key=%v)", v.Kind, v.Message, v.Key)
	}
	return fmt.Sprintf("reactor: %s: %s", v.Kind, v.Message)
}

func (v *StateViolation) Unwrap() error      { return v.Err }
func (v *StateViolation) ViolationKind() Kind { return v.Kind }

var defaultLog = slog.Default()

// reportViolation logs the violation and, for kinds the caller has opted
// into strict enforcement for, panics instead of returning quietly.
// Circular-mutation violations always escalate: mutating a state from
// inside its own observed read is a programming error regardless of mode.
func reportViolation(strict bool, v *StateViolation) {
	defaultLog.Warn("reactor: violation",
		slog.String("kind", string(v.Kind)),
		slog.String("message", v.Message),
		slog.Any("key", v.Key),
	)
	if v.Kind == KindCircularViolation {
		panic(v)
	}
	if strict && (v.Kind == KindSchemaViolation || v.Kind == KindContractViolation || v.Kind == KindInitViolation) {
		panic(v)
	}
}

// SetLogger overrides the package-level diagnostic logger used to report
// violations.
func SetLogger(l *slog.Logger) {
	if l != nil {
		defaultLog = l
	}
}
