// internal/app/system/txn/txn.go

// Package txn runs a check-then-write sequence as one atomic unit against
// MongoDB. Multi-document transactions require a replica set; standalone
// servers reject session transactions with a handful of error shapes, so
// IsNotSupported lets callers fall back to a process-local lock instead.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// WithTransaction executes fn inside a session transaction with majority
// read/write concern. fn's returned value is passed through on commit.
// If the transaction aborts, nothing fn wrote is visible.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	sess, err := client.StartSession()
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	return sess.WithTransaction(ctx, fn, opts)
}

// Server error codes that indicate transactions are unavailable on this
// deployment (standalone server, or an operation illegal in a txn).
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers require replica set
	51:  true, // illegal operation
	263: true, // OperationNotSupportedInTransaction
}

// Keyword pairs that mark a "transactions unavailable" error when the
// server does not return a structured code (older servers, proxies).
var notSupportedKeywords = [][2]string{
	{"transaction", "replica set"},
	{"transaction", "session"},
	{"session", "not supported"},
	{"illegal operation", "transaction"},
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions, as opposed to an ordinary failure inside
// one. Callers use it to switch to the per-key lock path.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if notSupportedCodes[ce.Code] {
			return true
		}
	}

	s := strings.ToLower(err.Error())
	for _, pair := range notSupportedKeywords {
		if strings.Contains(s, pair[0]) && strings.Contains(s, pair[1]) {
			return true
		}
	}
	return false
}
