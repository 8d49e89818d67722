package paranoia

import "errors"

var (
	// ErrConfiguration indicates an invalid per-type soft delete configuration,
	// such as an unknown marker scheme. Surfaces at setup time, never at call time.
	ErrConfiguration = errors.New("invalid soft delete configuration")

	// ErrNotPersisted indicates a lifecycle operation on a record without identity.
	ErrNotPersisted = errors.New("record has not been persisted")

	ErrItemNotFound      = errors.New("item not found")
	ErrItemAlreadyExists = errors.New("item already exists")
	ErrNoUpdateItem      = errors.New("no item has been updated")
	ErrNoDeleteItem      = errors.New("no item has been deleted")

	// ErrHalted is returned (not raised) when a before or around hook aborts
	// a callback chain. It is an expected negative outcome.
	ErrHalted = errors.New("callback chain halted")

	// ErrRecordNotDestroyed is returned by DestroyStrict when no state change occurred.
	ErrRecordNotDestroyed = errors.New("record was not destroyed")

	ErrTxAborted = errors.New("transaction aborted")
)
