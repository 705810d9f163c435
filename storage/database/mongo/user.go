package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Alisaqulain/madarcrm-sub000/core/user"
)

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	filter, ok := uniquenessFilter(username, email, excludedUsers...)
	if !ok {
		return nil
	}

	var found userDoc
	err := repo.coll.FindOne(ctx, filter).Decode(&found)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	case err != nil:
		return errors.Wrap(err, "checking username uniqueness")
	case username != "" && found.Username == username:
		return user.ErrUsernameExists
	default:
		return user.ErrEmailExists
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	if _, err := repo.coll.InsertOne(ctx, newUserDoc(usr)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var query bson.M
	switch {
	case filter.ID != "":
		query = bson.M{"_id": filter.ID}
	case filter.UsernameOrEmail != "":
		query = bson.M{"$or": bson.A{
			bson.M{"username": filter.UsernameOrEmail},
			bson.M{"email": filter.UsernameOrEmail},
		}}
	default:
		return user.User{}, user.ErrNotFound
	}

	var doc userDoc
	err := repo.coll.FindOne(ctx, query, options.FindOne().SetSort(bson.M{"username": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return doc.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	update := bson.M{"$set": bson.M{
		"name":          usr.Name,
		"username":      usr.Username,
		"email":         usr.Email,
		"is_active":     usr.IsActive,
		"roles":         newUserDoc(usr).Roles,
		"password_hash": usr.PasswordHash,
		"updated_at":    usr.UpdatedAt,
	}}

	var doc userDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": usr.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return doc.user(), nil
}

func (repo *userRepository) QueryTenantUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"tenant_id": tenantID}, options.Find().SetSort(bson.M{"username": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "querying tenant users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "querying tenant users")
	}
	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.user())
	}
	return users, nil
}

// uniquenessFilter reports false when there is nothing to check.
func uniquenessFilter(username, email string, excludedUsers ...user.User) (bson.M, bool) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, false
	}
	filter := bson.M{"$or": or}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}
	return filter, true
}
