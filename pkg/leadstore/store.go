package leadstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lead status progression for the guided collection flow.
const (
	StatusPartial        = "partial"         // name captured, waiting for phone
	StatusPhoneCollected = "phone_collected" // phone captured, waiting for email
	StatusComplete       = "complete"        // all fields captured
	StatusNew            = "new"             // created outside the guided flow
	StatusUpdated        = "updated"         // contact details merged into an existing lead
)

// Lead is one captured sales contact, keyed by chat session.
type Lead struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	SessionID string             `bson:"session_id"`
	Name      string             `bson:"name,omitempty"`
	Phone     string             `bson:"phone,omitempty"`
	Email     string             `bson:"email,omitempty"`
	Question  string             `bson:"question,omitempty"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// Store persists leads. Implementations must keep at most one lead per
// session id.
type Store interface {
	Insert(ctx context.Context, lead *Lead) error
	FindBySession(ctx context.Context, sessionID string) (*Lead, error)
	UpdatePhone(ctx context.Context, sessionID, phone string) error
	UpdateEmail(ctx context.Context, sessionID, email string) error
	Complete(ctx context.Context, sessionID string) error
	All(ctx context.Context) ([]Lead, error)
	Count(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}
