// Package errs defines the error kinds reported by repository operations.
//
// Every failure that reaches the command boundary is an *Error carrying a Kind
// and a user-facing message. The boundary decides presentation and exit status;
// the core never terminates the process.
package errs

import (
	"errors"
	"fmt"
)

// Class groups kinds by when they are detected.
type Class int

const (
	// ClassValidation covers bad arguments and references to things that do not exist.
	ClassValidation Class = iota
	// ClassConsistency covers requests that would lose data or break history.
	ClassConsistency
	// ClassInternal covers I/O and decoding failures.
	ClassInternal
)

var classNames = map[Class]string{
	ClassValidation:  "validation",
	ClassConsistency: "consistency",
	ClassInternal:    "internal",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// Kind identifies a specific failure.
type Kind int

const (
	Internal Kind = iota
	NotInitialized
	AlreadyInitialized
	BadArgs
	FileNotFound
	FileNotInCommit
	NothingToRemove
	EmptyStagingArea
	EmptyMessage
	NotFound
	AmbiguousID
	NoMatchingCommit
	BranchNotFound
	BranchExists
	CurrentBranch
	RemoteNotFound
	RemoteExists
	RemoteUnreachable
	RemoteBranchNotFound
	UncommittedChanges
	SelfMerge
	UntrackedInTheWay
	Diverged
)

var kindNames = map[Kind]string{
	Internal:             "internal",
	NotInitialized:       "not_initialized",
	AlreadyInitialized:   "already_initialized",
	BadArgs:              "bad_args",
	FileNotFound:         "file_not_found",
	FileNotInCommit:      "file_not_in_commit",
	NothingToRemove:      "nothing_to_remove",
	EmptyStagingArea:     "empty_staging_area",
	EmptyMessage:         "empty_message",
	NotFound:             "not_found",
	AmbiguousID:          "ambiguous_id",
	NoMatchingCommit:     "no_matching_commit",
	BranchNotFound:       "branch_not_found",
	BranchExists:         "branch_exists",
	CurrentBranch:        "current_branch",
	RemoteNotFound:       "remote_not_found",
	RemoteExists:         "remote_exists",
	RemoteUnreachable:    "remote_unreachable",
	RemoteBranchNotFound: "remote_branch_not_found",
	UncommittedChanges:   "uncommitted_changes",
	SelfMerge:            "self_merge",
	UntrackedInTheWay:    "untracked_in_the_way",
	Diverged:             "diverged",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Class reports whether the kind is a validation or consistency failure.
func (k Kind) Class() Class {
	switch k {
	case Internal:
		return ClassInternal
	case UntrackedInTheWay, Diverged, UncommittedChanges:
		return ClassConsistency
	default:
		return ClassValidation
	}
}

// Error implements error, so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Error is a classified failure with a message meant for the user.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error or a bare Kind with the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
