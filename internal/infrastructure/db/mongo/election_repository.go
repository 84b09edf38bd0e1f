package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ballotcore/election-system/internal/core/domain"
	"github.com/ballotcore/election-system/internal/core/ports"
)

const collectionElections = "elections"

// ElectionRepository stores elections with their candidates and voter roll
// embedded, so every ballot and status write is a single-document update.
type ElectionRepository struct {
	col *mongo.Collection
}

func NewElectionRepository(db *mongo.Database) *ElectionRepository {
	return &ElectionRepository{col: db.Collection(collectionElections)}
}

type electionDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	domain.Election `bson:",inline"`
}

func (d *electionDoc) toDomain() *domain.Election {
	e := d.Election
	e.ID = d.ID.Hex()
	return &e
}

// objectID maps a malformed id to not found rather than a driver error.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrElectionNotFound
	}
	return oid, nil
}

func (r *ElectionRepository) Create(ctx context.Context, e *domain.Election) (*domain.Election, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := electionDoc{ID: primitive.NewObjectID(), Election: *e}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, storeErr("insert election", err)
	}
	return doc.toDomain(), nil
}

func (r *ElectionRepository) FindByID(ctx context.Context, id string) (*domain.Election, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc electionDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, storeErr("find election", err)
	}
	return doc.toDomain(), nil
}

// ListByCreator returns the admin's elections, newest window first. The voter
// roll is included.
func (r *ElectionRepository) ListByCreator(ctx context.Context, adminID string) ([]*domain.Election, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	return r.find(ctx, "list elections", bson.M{"createdBy": adminID}, opts)
}

// FindStale selects elections whose stored status is behind the window at
// now: upcoming with a start in the past, or not yet completed with an end in
// the past.
func (r *ElectionRepository) FindStale(ctx context.Context, now time.Time) ([]*domain.Election, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"status": domain.StatusUpcoming, "startDate": bson.M{"$lte": now}},
		bson.M{
			"status":  bson.M{"$in": bson.A{domain.StatusUpcoming, domain.StatusOngoing}},
			"endDate": bson.M{"$lte": now},
		},
	}}
	opts := options.Find().SetProjection(bson.M{"voters": 0, "candidates": 0})
	return r.find(ctx, "find stale elections", filter, opts)
}

func (r *ElectionRepository) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]*domain.Election, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer cur.Close(ctx)

	out := make([]*domain.Election, 0)
	for cur.Next(ctx) {
		var doc electionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, storeErr(op, err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return out, nil
}

// AdvanceStatus is a compare-and-set on the stored status. A concurrent
// reconcile that already moved the document makes this a no-op.
func (r *ElectionRepository) AdvanceStatus(ctx context.Context, id string, from, to domain.ElectionStatus) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, storeErr("advance election status", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *ElectionRepository) UpdateConfig(ctx context.Context, id, adminID string, cfg ports.ElectionConfig, now time.Time) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":       oid,
		"createdBy": adminID,
		"status":    domain.StatusUpcoming,
		"startDate": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{
		"name":       cfg.Name,
		"desc":       cfg.Description,
		"startDate":  cfg.StartDate,
		"endDate":    cfg.EndDate,
		"candidates": cfg.Candidates,
		"voters":     cfg.Voters,
		"updatedAt":  now,
	}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, storeErr("update election", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *ElectionRepository) Delete(ctx context.Context, id, adminID string, now time.Time) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":       oid,
		"createdBy": adminID,
		"status":    bson.M{"$ne": domain.StatusOngoing},
		"$nor": bson.A{
			bson.M{"startDate": bson.M{"$lte": now}, "endDate": bson.M{"$gt": now}},
		},
	}

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return false, storeErr("delete election", err)
	}
	return res.DeletedCount == 1, nil
}

// RecordVote matches the voter entry only while it is unvoted and the window
// contains now, then sets it through the positional operator. Two concurrent
// calls for one voter cannot both match.
func (r *ElectionRepository) RecordVote(ctx context.Context, electionID, voterID string, votedFor []string, now time.Time) (bool, error) {
	oid, err := objectID(electionID)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":       oid,
		"startDate": bson.M{"$lte": now},
		"endDate":   bson.M{"$gt": now},
		"voters": bson.M{"$elemMatch": bson.M{
			"id":      voterID,
			"isVoted": false,
		}},
	}
	update := bson.M{"$set": bson.M{
		"voters.$.isVoted":  true,
		"voters.$.votedFor": votedFor,
	}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, storeErr("record vote", err)
	}
	return res.ModifiedCount == 1, nil
}

// EnsureIndexes creates the indexes used by admin listing and reconciliation.
func (r *ElectionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "startDate", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "startDate", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return storeErr("ensure election indexes", err)
}
