// Package corectx bundles every collaborator the core's entry points need
// into one explicit context struct, per spec.md §9's design note replacing
// an ambient reader-monad context with an explicit struct passed as the
// first argument to all core entry points.
package corectx

import (
	"github.com/epochra/epochra/pkg/config"
	"github.com/epochra/epochra/pkg/core/blockdb"
	"github.com/epochra/epochra/pkg/core/hashing"
	"github.com/epochra/epochra/pkg/core/headerverify"
	"github.com/epochra/epochra/pkg/core/semaphore"
	"github.com/epochra/epochra/pkg/core/walog"
	"github.com/epochra/epochra/pkg/slotting"
	"github.com/epochra/epochra/pkg/ssc"
	"github.com/epochra/epochra/pkg/txp"
)

// CoreCtx bundles the collaborator handles and parameters every core entry
// point consumes.
type CoreCtx struct {
	Params config.Params

	DB       blockdb.BlockDB
	Slotting slotting.Slotting
	Txp      txp.Txp
	Ssc      ssc.Ssc
	Crypto   hashing.Crypto
	Verify   *headerverify.Verifier

	Sem   *semaphore.TipSemaphore
	Walog *walog.Log
}

// New builds a CoreCtx from already-constructed collaborators. The tip
// semaphore is seeded from the store's current tip; callers that need crash
// recovery first should call apply.Recover before trusting sem's contents.
func New(
	params config.Params,
	db blockdb.BlockDB,
	slot slotting.Slotting,
	txPool txp.Txp,
	sscLedger ssc.Ssc,
	crypto hashing.Crypto,
	verify *headerverify.Verifier,
	wal *walog.Log,
) (*CoreCtx, error) {
	tip, err := db.Tip()
	if err != nil {
		return nil, err
	}

	return &CoreCtx{
		Params:   params,
		DB:       db,
		Slotting: slot,
		Txp:      txPool,
		Ssc:      sscLedger,
		Crypto:   crypto,
		Verify:   verify,
		Sem:      semaphore.New(tip),
		Walog:    wal,
	}, nil
}
