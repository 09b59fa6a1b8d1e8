package mongo

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

const collectionEvents = "reimbursement_events"

type eventDoc struct {
	ReimbursementID int       `bson:"reimbursement_id"`
	Action          string    `bson:"action"`
	Status          int       `bson:"status"`
	ActorID         int       `bson:"actor_id"`
	OccurredAt      time.Time `bson:"occurred_at"`
}

// EventRepository stores the reimbursement audit trail in MongoDB.
type EventRepository struct {
	col *mongo.Collection
	log zerolog.Logger
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database, log zerolog.Logger) *EventRepository {
	return &EventRepository{col: db.Collection(collectionEvents), log: log}
}

// InsertEvent persists an entry of the reimbursement audit trail.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.ReimbursementEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := eventDoc{
		ReimbursementID: event.ReimbursementID,
		Action:          event.Action,
		Status:          int(event.Status),
		ActorID:         event.ActorID,
		OccurredAt:      event.OccurredAt.UTC(),
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *EventRepository) ListEvents(ctx context.Context, reimbursementID int) ([]*domain.ReimbursementEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"reimbursement_id": reimbursementID}, opts)
	if err != nil {
		return nil, storageFault(r.log, err, "find events")
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageFault(r.log, err, "decode events")
	}

	out := make([]*domain.ReimbursementEvent, len(docs))
	for i, d := range docs {
		out[i] = &domain.ReimbursementEvent{
			ReimbursementID: d.ReimbursementID,
			Action:          d.Action,
			Status:          domain.Status(d.Status),
			ActorID:         d.ActorID,
			OccurredAt:      d.OccurredAt.UTC(),
		}
	}
	return out, nil
}

// EnsureIndexes indexes the audit trail by reimbursement.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "reimbursement_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}
