package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/pkg/password"
)

const collectionUsers = "users"

// userFields maps queryable JSON attributes to document fields.
var userFields = map[string]string{
	"id":         "_id",
	"username":   "username",
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"role":       "role",
}

type userDoc struct {
	ID        int    `bson:"_id"`
	Username  string `bson:"username"`
	Password  string `bson:"password"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	Email     string `bson:"email"`
	Role      string `bson:"role"`
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID,
		Username:  d.Username,
		Password:  d.Password,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Role:      d.Role,
	}
}

func userDocOf(u *domain.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Username:  u.Username,
		Password:  u.Password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// UserRepository implements ports.UserRepository on MongoDB.
type UserRepository struct {
	col *mongo.Collection
	seq *sequence
	log zerolog.Logger
}

func NewUserRepository(db *mongo.Database, log zerolog.Logger) *UserRepository {
	return &UserRepository{
		col: db.Collection(collectionUsers),
		seq: newSequence(db, collectionUsers),
		log: log,
	}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, r.fault(err, "find users")
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, r.fault(err, "decode users")
	}

	users := make([]*domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.User, bool, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUniqueKey returns the first user whose attribute key equals value.
// Unknown keys never match.
func (r *UserRepository) GetByUniqueKey(ctx context.Context, key, value string) (*domain.User, bool, error) {
	field, ok := userFields[key]
	if !ok || field == "_id" {
		return nil, false, nil
	}
	return r.findOne(ctx, bson.M{field: value})
}

func (r *UserRepository) GetByCredentials(ctx context.Context, username, pw string) (*domain.User, bool, error) {
	user, found, err := r.findOne(ctx, bson.M{"username": username})
	if err != nil || !found {
		return nil, false, err
	}
	if !password.Verify(user.Password, pw) {
		return nil, false, nil
	}
	return user, true, nil
}

func (r *UserRepository) AddNew(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return nil, r.fault(err, "allocate user id")
	}

	doc := userDocOf(user)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.NewError(domain.KindResourcePersistence, "username or email is already taken")
		}
		return nil, r.fault(err, "insert user")
	}
	return doc.toDomain(), nil
}

// Update sets every attribute of the user. The reference count is kept.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDocOf(user)
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"username":   doc.Username,
		"password":   doc.Password,
		"first_name": doc.FirstName,
		"last_name":  doc.LastName,
		"email":      doc.Email,
		"role":       doc.Role,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, domain.NewError(domain.KindResourcePersistence, "username or email is already taken")
		}
		return false, r.fault(err, "update user")
	}
	return res.MatchedCount == 1, nil
}

// DeleteByID refuses to delete a user that authored or resolved a
// reimbursement. The reference check and the delete are one conditional write.
func (r *UserRepository) DeleteByID(ctx context.Context, id int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, unreferenced(id))
	if err != nil {
		return false, r.fault(err, "delete user")
	}
	if res.DeletedCount == 1 {
		return true, nil
	}

	remaining, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, r.fault(err, "count users")
	}
	if remaining > 0 {
		return false, domain.NewError(domain.KindConflict, "user %d is still referenced by reimbursements", id)
	}
	return true, nil
}

// EnsureIndexes creates the unique indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: uniqueIndex()},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: uniqueIndex()},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, r.fault(err, "find user")
	}
	return doc.toDomain(), true, nil
}

func (r *UserRepository) fault(err error, op string) error {
	return storageFault(r.log, err, op)
}
