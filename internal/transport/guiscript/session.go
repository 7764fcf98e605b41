package guiscript

import "context"

// Session is the live scripting session exposed by the host desktop
// environment. Implementations wrap the actual screen-automation bridge; the
// transport only needs these four primitives.
//
// Methods return an error wrapping domain.ErrSessionLost when the session
// itself became unusable. Any other error is a script-level failure for the
// current record only.
type Session interface {
	// StartTransaction opens the given transaction code in the main window.
	StartTransaction(code string) error

	// SetText writes a value into the screen element with the given id.
	SetText(id, value string) error

	// SendVKey sends a virtual key to the main window (0 = Enter, 11 = Save).
	SendVKey(key int) error

	// StatusBarText reads the current status bar line.
	StatusBarText() (string, error)

	// Close releases the underlying session. Safe to call on a session that
	// already became unusable.
	Close() error
}

// Dialer attaches to a scripting session. Injecting the dialer keeps the
// host-environment dependency out of the transport and lets construction fail
// fast when no scripting bridge is available.
type Dialer interface {
	Attach(ctx context.Context) (Session, error)
}
