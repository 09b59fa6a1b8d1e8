package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
)

const collectionReimbursements = "reimbursements"

type reimbursementDoc struct {
	ID          int        `bson:"_id"`
	Amount      float64    `bson:"amount"`
	Submitted   time.Time  `bson:"submitted"`
	Resolved    *time.Time `bson:"resolved,omitempty"`
	Description string     `bson:"description"`
	Author      int        `bson:"author"`
	Resolver    *int       `bson:"resolver,omitempty"`
	Status      int        `bson:"status"`
	Type        int        `bson:"type"`
}

func (d reimbursementDoc) toDomain() *domain.Reimbursement {
	r := &domain.Reimbursement{
		ID:          d.ID,
		Amount:      d.Amount,
		Submitted:   d.Submitted.UTC(),
		Description: d.Description,
		Author:      d.Author,
		Resolver:    d.Resolver,
		Status:      domain.Status(d.Status),
		Type:        domain.ReimbursementType(d.Type),
	}
	if d.Resolved != nil {
		resolved := d.Resolved.UTC()
		r.Resolved = &resolved
	}
	return r
}

// ReimbursementRepository implements ports.ReimbursementRepository on MongoDB.
type ReimbursementRepository struct {
	col  *mongo.Collection
	seq  *sequence
	refs userRefs
	log  zerolog.Logger
}

func NewReimbursementRepository(db *mongo.Database, log zerolog.Logger) *ReimbursementRepository {
	return &ReimbursementRepository{
		col:  db.Collection(collectionReimbursements),
		seq:  newSequence(db, collectionReimbursements),
		refs: newUserRefs(db),
		log:  log,
	}
}

func (r *ReimbursementRepository) GetAll(ctx context.Context) ([]*domain.Reimbursement, error) {
	return r.find(ctx, bson.M{})
}

func (r *ReimbursementRepository) GetByID(ctx context.Context, id int) (*domain.Reimbursement, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc reimbursementDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, storageFault(r.log, err, "find reimbursement")
	}
	return doc.toDomain(), true, nil
}

// AddNew references the author before inserting, so the author cannot be
// deleted underneath the new record.
func (r *ReimbursementRepository) AddNew(ctx context.Context, rb *domain.Reimbursement) (*domain.Reimbursement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.reference(ctx, rb.Author, "author"); err != nil {
		return nil, err
	}

	id, err := r.seq.next(ctx)
	if err != nil {
		r.unreference(ctx, rb.Author)
		return nil, storageFault(r.log, err, "allocate reimbursement id")
	}

	doc := reimbursementDoc{
		ID:          id,
		Amount:      rb.Amount,
		Submitted:   rb.Submitted.UTC(),
		Resolved:    rb.Resolved,
		Description: rb.Description,
		Author:      rb.Author,
		Resolver:    rb.Resolver,
		Status:      int(rb.Status),
		Type:        int(rb.Type),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		r.unreference(ctx, rb.Author)
		return nil, storageFault(r.log, err, "insert reimbursement")
	}
	return doc.toDomain(), nil
}

// Update touches only the caller-editable fields and only while pending.
// The reference moves from the previous author to the new one.
func (r *ReimbursementRepository) Update(ctx context.Context, rb *domain.Reimbursement) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.reference(ctx, rb.Author, "author"); err != nil {
		return false, err
	}

	filter := bson.M{"_id": rb.ID, "status": int(domain.StatusPending)}
	update := bson.M{"$set": bson.M{
		"amount":      rb.Amount,
		"description": rb.Description,
		"author":      rb.Author,
		"type":        int(rb.Type),
	}}

	var before reimbursementDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		r.unreference(ctx, rb.Author)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, storageFault(r.log, err, "update reimbursement")
	}
	r.unreference(ctx, before.Author)
	return true, nil
}

func (r *ReimbursementRepository) GetAllByAuthor(ctx context.Context, authorID int) ([]*domain.Reimbursement, error) {
	return r.find(ctx, bson.M{"author": authorID})
}

func (r *ReimbursementRepository) FilterByType(ctx context.Context, t domain.ReimbursementType) ([]*domain.Reimbursement, error) {
	return r.find(ctx, bson.M{"type": int(t)})
}

func (r *ReimbursementRepository) FilterByStatus(ctx context.Context, s domain.Status) ([]*domain.Reimbursement, error) {
	return r.find(ctx, bson.M{"status": int(s)})
}

// SetStatus resolves the reimbursement only while it is still pending.
func (r *ReimbursementRepository) SetStatus(ctx context.Context, res domain.Resolution, resolvedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.reference(ctx, res.Resolver, "resolver"); err != nil {
		return false, err
	}

	filter := bson.M{"_id": res.ID, "status": int(domain.StatusPending)}
	update := bson.M{"$set": bson.M{
		"status":   int(res.Status),
		"resolved": resolvedAt.UTC(),
		"resolver": res.Resolver,
	}}

	out, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		r.unreference(ctx, res.Resolver)
		return false, storageFault(r.log, err, "resolve reimbursement")
	}
	if out.MatchedCount == 0 {
		r.unreference(ctx, res.Resolver)
		return false, nil
	}
	return true, nil
}

// EnsureIndexes creates the lookup indexes on the reimbursements collection.
func (r *ReimbursementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "resolver", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *ReimbursementRepository) find(ctx context.Context, filter bson.M) ([]*domain.Reimbursement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageFault(r.log, err, "find reimbursements")
	}
	var docs []reimbursementDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageFault(r.log, err, "decode reimbursements")
	}

	out := make([]*domain.Reimbursement, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// reference counts a new pointer to userID, or fails with BadRequest when the
// user does not exist.
func (r *ReimbursementRepository) reference(ctx context.Context, userID int, role string) error {
	found, err := r.refs.acquire(ctx, userID)
	if err != nil {
		return storageFault(r.log, err, "reference "+role)
	}
	if !found {
		return domain.NewError(domain.KindBadRequest, "%s %d does not exist", role, userID)
	}
	return nil
}

// unreference drops a pointer to userID. A failure leaves the count high,
// which only makes deleting that user fail with Conflict.
func (r *ReimbursementRepository) unreference(ctx context.Context, userID int) {
	if err := r.refs.release(ctx, userID); err != nil {
		r.log.Warn().Err(err).Int("user_id", userID).Msg("failed to release user reference")
	}
}
