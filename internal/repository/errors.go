package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangareader/pkg/models"
)

// SQLSTATE codes the repositories translate
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeQueryCanceled       = "57014"
)

// mapDBError maps pgx errors onto the model sentinels. notFound is used for
// missing rows and dangling references; failure is ErrReadFailure or
// ErrWriteFailure depending on the operation.
func mapDBError(err error, operation string, notFound, failure error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, notFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", operation, models.ErrConflict)
		case codeForeignKeyViolation:
			if strings.Contains(pgErr.ConstraintName, "user_id") {
				return fmt.Errorf("%s: %w", operation, models.ErrUserNotFound)
			}
			return fmt.Errorf("%s: %w", operation, notFound)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w: %s", operation, models.ErrInvalidInput, pgErr.ConstraintName)
		case codeInvalidText:
			// malformed UUID literal, no row can match it
			return fmt.Errorf("%s: %w", operation, notFound)
		}
	}

	return fmt.Errorf("%s: %w: %w", operation, failure, err)
}

// mapOrderedQueryError is mapDBError for sorted listings. A statement
// timeout on such a query means the store could not serve the order and
// the caller may retry unordered.
func mapOrderedQueryError(err error, operation string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeQueryCanceled {
		return fmt.Errorf("%s: %w", operation, models.ErrIndexRequired)
	}
	return mapDBError(err, operation, models.ErrNotFound, models.ErrReadFailure)
}

// withTransaction executes fn within a database transaction
func withTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return mapDBError(err, "begin_transaction", models.ErrNotFound, models.ErrWriteFailure)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapDBError(err, "commit_transaction", models.ErrNotFound, models.ErrWriteFailure)
	}
	return nil
}
