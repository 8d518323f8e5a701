package editor

import "errors"

var (
	// ErrNoSession is returned by intents other than Open when no session is open.
	ErrNoSession = errors.New("no editing session is open")

	// ErrStopped is returned once the controller has been shut down.
	ErrStopped = errors.New("editor controller is stopped")

	errEmptyIdentity = errors.New("store returned an empty identity")
)
