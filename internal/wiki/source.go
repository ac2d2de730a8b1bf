package wiki

import "context"

// Checkout is a working copy of the wiki, valid only inside WithCheckout.
type Checkout interface {
	// ReadPage returns the page text. ok is false when the page does not exist.
	ReadPage(name string) (text string, ok bool, err error)

	// WritePage replaces the page text in the working copy.
	WritePage(name, text string) error

	// CommitAndPush commits the named pages and pushes them to the remote.
	// It reports false without error when nothing changed.
	CommitAndPush(ctx context.Context, pages []string, message string) (pushed bool, err error)
}

// Source hands out scoped checkouts.
type Source interface {
	// WithCheckout clones or updates the wiki into a scratch directory, runs
	// fn against it and removes the directory on every exit path.
	// Failures reaching the remote are *vocab.SourceUnavailableError.
	WithCheckout(ctx context.Context, fn func(Checkout) error) error
}
