package repository

import (
	"context"

	pkgch "github.com/lian220/quintiq-backend/pkg/clickhouse"
)

// SchemaOwner is a store that owns its DDL.
type SchemaOwner interface {
	Schema() []string
}

// InitSchema creates the tables of every owner.
func InitSchema(ctx context.Context, ch *pkgch.Client, owners ...SchemaOwner) error {
	var stmts []string
	for _, o := range owners {
		stmts = append(stmts, o.Schema()...)
	}
	return ch.InitSchema(ctx, stmts)
}
