package sync

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chainfolio/txtracker/internal/domain"
)

// AccountError pairs an account with the error its operation produced.
type AccountError struct {
	Account domain.Account
	Err     error
}

// chunkAccounts splits accounts into groups of at most size.
func chunkAccounts(accounts []domain.Account, size int) [][]domain.Account {
	if size <= 0 {
		size = 1
	}

	var chunks [][]domain.Account
	for start := 0; start < len(accounts); start += size {
		end := min(start+size, len(accounts))
		chunks = append(chunks, accounts[start:end])
	}
	return chunks
}

// runChunked applies fn to every account: groups of chunkSize run
// sequentially, each group's members in parallel. One account failing does
// not stop its group or later groups; all failures are collected and
// returned. Context cancellation stops scheduling further groups and
// records the context error for every account not yet attempted.
func runChunked(
	ctx context.Context,
	accounts []domain.Account,
	chunkSize int,
	fn func(context.Context, domain.Account) error,
) []AccountError {
	var failures []AccountError

	chunks := chunkAccounts(accounts, chunkSize)
	for chunkIndex, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			for _, remaining := range chunks[chunkIndex:] {
				for _, account := range remaining {
					failures = append(failures, AccountError{Account: account, Err: err})
				}
			}
			return failures
		}

		// Per-member error slots; indexes are disjoint so no lock is needed.
		errs := make([]error, len(chunk))
		var g errgroup.Group
		for i, account := range chunk {
			i, account := i, account
			g.Go(func() error {
				errs[i] = fn(ctx, account)
				return nil
			})
		}
		_ = g.Wait()

		for i, err := range errs {
			if err != nil {
				failures = append(failures, AccountError{Account: chunk[i], Err: err})
			}
		}
	}

	return failures
}
