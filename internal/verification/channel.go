package verification

import "context"

// Channel abstracts a code delivery medium. Both implementations expose the
// same two operations even though code ownership differs: the SMS provider
// issues and checks its own codes remotely, while the email channel generates
// and stores its code locally.
type Channel interface {
	// Kind reports which classifier kind this channel serves.
	Kind() Kind

	// Send dispatches a fresh code to the identifier. The returned session
	// reference is provider-specific bookkeeping and may be empty for channels
	// that manage their own state.
	Send(ctx context.Context, identifier string) (sessionRef string, err error)

	// Verify checks a submitted code. A false result with a nil error means
	// the code was simply wrong; an error means the provider could not be
	// consulted and is surfaced to the caller untranslated.
	Verify(ctx context.Context, identifier, code string) (bool, error)
}
