package failure

import (
	"errors"
	"strings"
)

// Kind classifies an error for callers that must react to it, such as the
// HTTP layer choosing a status code.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindTokenInvalid     Kind = "token_invalid"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindAlreadyFinalized Kind = "already_finalized"
	KindPersistence      Kind = "persistence"
	KindGateway          Kind = "gateway"
	KindInternal         Kind = "internal"
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// New returns a classified sentinel. Compare with errors.Is.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches op and kind to err. An err that is already classified keeps
// its original kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		kind = fe.Kind
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of the outermost classified error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Message returns the human text of the innermost classified error in err's
// chain, or "" when err carries no classification. For errors that wrap
// several causes the first one is followed.
func Message(err error) string {
	msg := ""
	for err != nil {
		if fe, ok := err.(*Error); ok && fe.Msg != "" {
			msg = fe.Msg
		}
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			errs := multi.Unwrap()
			if len(errs) == 0 {
				break
			}
			err = errs[0]
			continue
		}
		err = errors.Unwrap(err)
	}
	return msg
}
