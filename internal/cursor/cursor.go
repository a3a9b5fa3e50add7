// Package cursor persists the per-chat high-water-mark message IDs that stop
// already-delivered messages from being re-emitted after a restart. The
// engine is the single writer; adapters only need to survive concurrent
// readers if shared with unrelated code.
package cursor

import (
	"context"

	"github.com/tradewatch/tradewatch/internal/market"
)

// Store is the persistence contract. Load returns an empty map when no prior
// state exists; Save must create any needed storage location.
type Store interface {
	Load(ctx context.Context) (map[market.ChatID]int64, error)
	Save(ctx context.Context, cursors map[market.ChatID]int64) error
}
