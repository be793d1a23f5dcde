package flow

import "errors"

// ErrProtocolViolation indicates the caller broke the handshake contract:
// a pending offer was withdrawn or changed before it was accepted, or a
// valid sample does not fit the input width. The engine latches the fault
// and refuses further cycles until Reset.
var ErrProtocolViolation = errors.New("stream protocol violation")
