package cart

import (
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/google/uuid"
)

// Line is one product entry in a cart. UnitPrice is the post-discount price
// captured when the line was created.
type Line struct {
	LineID    uuid.UUID   `json:"lineId"`
	ProductID int64       `json:"productId"`
	Name      string      `json:"name"`
	UnitPrice money.Cents `json:"unitPrice"`
	Image     string      `json:"image,omitempty"`
	Quantity  int         `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() money.Cents {
	return l.UnitPrice.Mul(l.Quantity)
}

// Owner identifies whose cart a session holds. A zero UserID means the cart
// belongs to the anonymous device identified by DeviceID.
type Owner struct {
	UserID   uuid.UUID
	DeviceID string
}

func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: userID}
}

func AnonymousOwner(deviceID string) Owner {
	return Owner{DeviceID: deviceID}
}

func (o Owner) IsAnonymous() bool {
	return o.UserID == uuid.Nil
}

// Kind labels the owner for logs and metrics.
func (o Owner) Kind() string {
	if o.IsAnonymous() {
		return "anonymous"
	}
	return "user"
}

func (o Owner) valid() bool {
	if o.IsAnonymous() {
		return o.DeviceID != ""
	}
	return true
}

// State is the lifecycle position of a Session.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Snapshot is an immutable copy of a session's observable state.
type Snapshot struct {
	Owner Owner
	State State
	Lines []Line
	Total money.Cents
}

// ItemCount sums the quantities of every line.
func (s Snapshot) ItemCount() int {
	count := 0
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return []Line{}
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func totalOf(lines []Line) money.Cents {
	var total money.Cents
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}

func indexOf(lines []Line, productID int64) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
