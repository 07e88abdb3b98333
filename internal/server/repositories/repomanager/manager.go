package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/ratelimits"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/tripkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same factories on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	OTPCodes(db dbx.DBTX) otpcodes.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	RateLimits(db dbx.DBTX) ratelimits.Repository
}
