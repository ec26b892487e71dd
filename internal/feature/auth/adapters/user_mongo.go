package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chatapp/internal/feature/auth/domain/entity"
	"chatapp/internal/feature/auth/usecase"
)

// UsersCollection is the collection user documents live in.
const UsersCollection = "users"

// userDocument is the BSON shape of a user. Field names are camelCase so
// existing documents in the users collection decode unchanged.
type userDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Email       string        `bson:"email"`
	FullName    string        `bson:"fullName"`
	Password    string        `bson:"password"`
	ProfilePic  string        `bson:"profilePic"`
	PhoneNumber string        `bson:"phoneNumber,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d *userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:          d.ID.Hex(),
		Email:       d.Email,
		FullName:    d.FullName,
		Password:    d.Password,
		ProfilePic:  d.ProfilePic,
		PhoneNumber: d.PhoneNumber,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func userDocumentFromEntity(u *entity.User) (*userDocument, error) {
	doc := &userDocument{
		Email:       u.Email,
		FullName:    u.FullName,
		Password:    u.Password,
		ProfilePic:  u.ProfilePic,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.ID != "" {
		oid, err := bson.ObjectIDFromHex(u.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", u.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

// userMongo is a MongoDB implementation of the UserRepository interface.
type userMongo struct {
	coll *mongo.Collection
}

// Compile-time check to ensure userMongo implements UserRepository.
var _ usecase.UserRepository = (*userMongo)(nil)

// NewUserMongo creates a userMongo backed by the users collection of db.
func NewUserMongo(db *mongo.Database) *userMongo {
	return &userMongo{coll: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (r *userMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// Create validates and inserts a new user document.
func (r *userMongo) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond) // BSON dates carry millisecond precision
	doc, err := userDocumentFromEntity(u)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = bson.NewObjectID()
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}

	u.ID = doc.ID.Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// FindByEmail retrieves a user by email.
func (r *userMongo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// FindByID retrieves a user by its hex ObjectID.
func (r *userMongo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, usecase.ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// Update overwrites the mutable fields of an existing user.
func (r *userMongo) Update(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	oid, err := bson.ObjectIDFromHex(u.ID)
	if err != nil {
		return usecase.ErrUserNotFound
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	set := bson.D{
		{Key: "email", Value: u.Email},
		{Key: "fullName", Value: u.FullName},
		{Key: "password", Value: u.Password},
		{Key: "profilePic", Value: u.ProfilePic},
		{Key: "phoneNumber", Value: u.PhoneNumber},
		{Key: "updatedAt", Value: now},
	}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrUserNotFound
	}

	u.UpdatedAt = now
	return nil
}

func (r *userMongo) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}
