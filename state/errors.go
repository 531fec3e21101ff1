// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotSupported is returned by stores for operations they do not offer.
var ErrNotSupported = errors.New("operation not supported")

// InvalidArgumentError rejects malformed input: a storage key that is not 32
// bytes, a value longer than 32 bytes, or a malformed block reference.
type InvalidArgumentError struct {
	msg string
}

// NewInvalidArgumentError formats an InvalidArgumentError.
func NewInvalidArgumentError(format string, args ...any) error {
	return &InvalidArgumentError{fmt.Sprintf(format, args...)}
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.msg
}

// ProofError reports proof nodes that do not hash-link to the expected root.
// A store returning it has not ingested any node of the rejected proof.
type ProofError struct {
	cause error
}

// NewProofError wraps the verification failure.
func NewProofError(cause error) error {
	return &ProofError{cause}
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("proof verification: %v", e.cause)
}

func (e *ProofError) Cause() error  { return e.cause }
func (e *ProofError) Unwrap() error { return e.cause }

// RemoteError wraps a transport, remote or malformed-response failure.
// The cause is kept as is.
type RemoteError struct {
	op    string
	cause error
}

// NewRemoteError wraps the failure of the named remote operation.
func NewRemoteError(op string, cause error) error {
	return &RemoteError{op, cause}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.op, e.cause)
}

func (e *RemoteError) Cause() error  { return e.cause }
func (e *RemoteError) Unwrap() error { return e.cause }

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}

// IsProofVerification reports whether err is, or wraps, a ProofError.
func IsProofVerification(err error) bool {
	var target *ProofError
	return errors.As(err, &target)
}

// IsRemote reports whether err is, or wraps, a RemoteError.
func IsRemote(err error) bool {
	var target *RemoteError
	return errors.As(err, &target)
}
