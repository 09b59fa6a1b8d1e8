package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// fieldRefs counts, on a user document, the reimbursements naming that user
// as author or resolver. A user is only deleted while the count is zero.
const fieldRefs = "refs"

type userRefs struct {
	col *mongo.Collection
}

func newUserRefs(db *mongo.Database) userRefs {
	return userRefs{col: db.Collection(collectionUsers)}
}

// acquire adds a reference to userID. It reports false when no such user exists.
func (u userRefs) acquire(ctx context.Context, userID int) (bool, error) {
	res, err := u.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$inc": bson.M{fieldRefs: 1}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (u userRefs) release(ctx context.Context, userID int) error {
	_, err := u.col.UpdateOne(ctx,
		bson.M{"_id": userID, fieldRefs: bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{fieldRefs: -1}},
	)
	return err
}

// unreferenced matches user documents that no reimbursement points at.
func unreferenced(id int) bson.M {
	return bson.M{"_id": id, "$or": bson.A{
		bson.M{fieldRefs: bson.M{"$exists": false}},
		bson.M{fieldRefs: bson.M{"$lte": 0}},
	}}
}
