package wrapper

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/result"
)

// CodeRollback is carried by the error that makes a transaction scope roll
// back after an Err result.
const CodeRollback = "COMMAND_ROLLBACK"

// Transactor runs fn inside a transaction scope. The scope commits when fn
// returns nil and rolls back otherwise. pg.Transactor implements it.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionAware is implemented by commands that opt out of the
// transaction scope by returning false.
type TransactionAware interface {
	UseTransaction() bool
}

type transactionBehavior struct {
	tx Transactor
}

// NewTransactionBehavior runs inner stages inside a transaction scope of tx.
//
// An Err result rolls the scope back and is returned unchanged. Begin or
// commit failures and panics inside the scope become Err results.
func NewTransactionBehavior(tx Transactor) command.Behavior {
	return &transactionBehavior{tx: tx}
}

func (b *transactionBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	if aware, ok := cmd.(TransactionAware); ok && !aware.UseTransaction() {
		return next(ctx, cmd)
	}

	var (
		res      result.Result[any]
		finished bool
	)

	err := b.run(ctx, func(txCtx context.Context) error {
		res = next(txCtx, cmd)
		finished = true

		if res.IsErr() {
			return errx.New("command returned errors", errx.WithCode(CodeRollback))
		}
		return nil
	})

	if finished && res.IsErr() {
		return res
	}
	if err != nil {
		return result.FromError[any](err)
	}

	return res
}

func (b *transactionBehavior) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(command.PanicError(r).Error(), r, stackTrace())
		}
	}()

	return b.tx.Transaction(ctx, fn)
}
