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
)

const adminCollection = "admins"

type AdminRepository struct {
	coll *mongo.Collection
}

func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{coll: db.Collection(adminCollection)}
}

type mongoAdmin struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Name              string             `bson:"name"`
	Email             string             `bson:"email"`
	PasswordHash      string             `bson:"password_hash"`
	EmailVerified     bool               `bson:"email_verified"`
	VerificationToken string             `bson:"verification_token,omitempty"`
	OTPSecret         string             `bson:"otp_secret,omitempty"`
	ResetToken        string             `bson:"reset_token,omitempty"`
	ResetExpires      *time.Time         `bson:"reset_expires,omitempty"`
	CreatedAt         int64              `bson:"created_at"`
	UpdatedAt         int64              `bson:"updated_at"`
}

func (m *mongoAdmin) toDomain() *domain.Admin {
	return &domain.Admin{
		ID:                m.ID.Hex(),
		Name:              m.Name,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		EmailVerified:     m.EmailVerified,
		VerificationToken: m.VerificationToken,
		OTPSecret:         m.OTPSecret,
		ResetToken:        m.ResetToken,
		ResetExpires:      m.ResetExpires,
		CreatedAt:         unixToTime(m.CreatedAt),
		UpdatedAt:         unixToTime(m.UpdatedAt),
	}
}

func (r *AdminRepository) Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAdmin{
		ID:           primitive.NewObjectID(),
		Name:         admin.Name,
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt.Unix(),
		UpdatedAt:    admin.UpdatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAdminExists
		}
		return nil, storeErr("insert admin", err)
	}
	return doc.toDomain(), nil
}

func (r *AdminRepository) FindByID(ctx context.Context, id string) (*domain.Admin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAdminNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AdminRepository) FindByVerificationToken(ctx context.Context, token string) (*domain.Admin, error) {
	if token == "" {
		return nil, domain.ErrAdminNotFound
	}
	return r.findOne(ctx, bson.M{"verification_token": token, "email_verified": false})
}

func (r *AdminRepository) findOne(ctx context.Context, filter bson.M) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAdmin
	if err := r.coll.FindOne(ctx, filter).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, storeErr("find admin", err)
	}
	return ma.toDomain(), nil
}

func (r *AdminRepository) SetVerificationTicket(ctx context.Context, adminID, token, secret string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(adminID)
	if err != nil {
		return false, nil
	}
	return r.updateOne(ctx, "set verification ticket",
		bson.M{"_id": oid, "email_verified": false},
		bson.M{"$set": bson.M{
			"verification_token": token,
			"otp_secret":         secret,
			"updated_at":         time.Now().Unix(),
		}},
	)
}

// ConsumeVerificationTicket flips email_verified and drops the ticket in one
// update, so a token can verify at most once.
func (r *AdminRepository) ConsumeVerificationTicket(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return r.updateOne(ctx, "consume verification ticket",
		bson.M{"verification_token": token, "email_verified": false},
		bson.M{
			"$set":   bson.M{"email_verified": true, "updated_at": time.Now().Unix()},
			"$unset": bson.M{"verification_token": "", "otp_secret": ""},
		},
	)
}

func (r *AdminRepository) SetResetToken(ctx context.Context, adminID, token string, expires time.Time) error {
	oid, err := primitive.ObjectIDFromHex(adminID)
	if err != nil {
		return domain.ErrAdminNotFound
	}
	matched, err := r.updateOne(ctx, "set reset token",
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"reset_token":   token,
			"reset_expires": expires.UTC(),
			"updated_at":    time.Now().Unix(),
		}},
	)
	if err != nil {
		return err
	}
	if !matched {
		return domain.ErrAdminNotFound
	}
	return nil
}

func (r *AdminRepository) CompleteReset(ctx context.Context, token, passwordHash string, now time.Time) (bool, error) {
	if token == "" {
		return false, nil
	}
	return r.updateOne(ctx, "complete password reset",
		bson.M{"reset_token": token, "reset_expires": bson.M{"$gt": now}},
		bson.M{
			"$set":   bson.M{"password_hash": passwordHash, "updated_at": now.Unix()},
			"$unset": bson.M{"reset_token": "", "reset_expires": ""},
		},
	)
}

func (r *AdminRepository) updateOne(ctx context.Context, op string, filter, update bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, storeErr(op, err)
	}
	return res.MatchedCount == 1, nil
}

// EnsureIndexes creates the unique email index and lookups for the single-use
// tokens.
func (r *AdminRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verification_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "reset_token", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return storeErr("ensure admin indexes", err)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
