package userdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a registered player. Points and stars are owned by the betting
// ledger; this module only reads them.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Email       string    `bun:"email,notnull,unique"`
	DisplayName string    `bun:"display_name,notnull"`
	Role        string    `bun:"role,notnull,default:'player'"`
	Points      int       `bun:"points,notnull,default:0"`
	Stars       int       `bun:"stars,notnull,default:0"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
