package core

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time to the engines. Injected rather than read
// from the global clock so accrual cycles and tests can run against any date.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }

// TxIDSource generates transaction group identifiers. The default draws
// UUIDs, so two postings in the same clock tick can never collide.
type TxIDSource func() string

// NewTxID is the default TxIDSource.
func NewTxID() string { return uuid.NewString() }
