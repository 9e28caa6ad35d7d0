package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/ArnavJain-cy/sih-app/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const opTimeout = 3 * time.Second

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"` // bcrypt hash
	CreatedAt time.Time          `bson:"createdAt"`
	LastLogin *time.Time         `bson:"lastLogin"`
	Profile   profileDocument    `bson:"profile"`
	Progress  progressDocument   `bson:"progress"`
}

type profileDocument struct {
	FirstName   string   `bson:"firstName,omitempty"`
	LastName    string   `bson:"lastName,omitempty"`
	Bio         string   `bson:"bio,omitempty"`
	Skills      []string `bson:"skills"`
	Interests   []string `bson:"interests"`
	CareerGoals string   `bson:"careerGoals,omitempty"`
}

type progressDocument struct {
	CompletedAssessments []string `bson:"completedAssessments"`
	CurrentCourses       []string `bson:"currentCourses"`
	CompletedCourses     []string `bson:"completedCourses"`
	Badges               []string `bson:"badges"`
	Points               int      `bson:"points"`
}

type UsersRepo struct {
	coll   *mongo.Collection
	hasher user.Hasher
	prom   *observability.Prom
	now    func() time.Time
}

func NewUsersRepo(coll *mongo.Collection, hasher user.Hasher, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{coll: coll, hasher: hasher, prom: prom, now: time.Now}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// EnsureIndexes creates the unique username and email indexes the store
// relies on for conflict detection.
func (r *UsersRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *UsersRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (user.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": user.NormalizeEmail(email)},
		bson.M{"username": user.NormalizeUsername(username)},
	}}
	return r.findOne(ctx, "users.find_by_email_or_username", filter)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_email", bson.M{"email": user.NormalizeEmail(email)})
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// guest ids and garbage never name a stored document
		return user.User{}, user.ErrNotFound
	}
	return r.findOne(ctx, "users.find_by_id", bson.M{"_id": oid})
}

func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	u, err := user.NewRecord(in, r.hasher, r.now())
	if err != nil {
		return user.User{}, err
	}

	doc := toDocument(u)
	doc.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err = r.observe("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrDuplicateKey
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return fromDocument(doc), nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	set := buildSet(patch)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc userDocument
	err = r.observe("users.update", func() error {
		return r.coll.FindOneAndUpdate(
			ctx,
			bson.M{"_id": oid},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	return fromDocument(doc), nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *UsersRepo) findOne(ctx context.Context, op string, filter interface{}) (user.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc userDocument
	err := r.observe(op, func() error {
		return r.coll.FindOne(ctx, filter).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return fromDocument(doc), nil
}

// buildSet turns a patch into a $set document. Sub-records are set as whole
// values, never merged field by field.
func buildSet(p user.Patch) bson.M {
	set := bson.M{}

	if p.LastLogin != nil {
		set["lastLogin"] = p.LastLogin.UTC()
	}
	if p.Profile != nil {
		set["profile"] = toProfileDocument(p.Profile.Normalized())
	}
	if p.Progress != nil {
		set["progress"] = toProgressDocument(p.Progress.Normalized())
	}
	return set
}

func toDocument(u user.User) userDocument {
	doc := userDocument{
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
		Profile:   toProfileDocument(u.Profile),
		Progress:  toProgressDocument(u.Progress),
	}
	if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func fromDocument(doc userDocument) user.User {
	u := user.User{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt.UTC(),
		Profile: user.Profile{
			FirstName:   doc.Profile.FirstName,
			LastName:    doc.Profile.LastName,
			Bio:         doc.Profile.Bio,
			Skills:      doc.Profile.Skills,
			Interests:   doc.Profile.Interests,
			CareerGoals: doc.Profile.CareerGoals,
		}.Normalized(),
		Progress: user.Progress{
			CompletedAssessments: doc.Progress.CompletedAssessments,
			CurrentCourses:       doc.Progress.CurrentCourses,
			CompletedCourses:     doc.Progress.CompletedCourses,
			Badges:               doc.Progress.Badges,
			Points:               doc.Progress.Points,
		}.Normalized(),
	}
	if doc.LastLogin != nil {
		t := doc.LastLogin.UTC()
		u.LastLogin = &t
	}
	return u
}

func toProfileDocument(p user.Profile) profileDocument {
	return profileDocument{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Bio:         p.Bio,
		Skills:      p.Skills,
		Interests:   p.Interests,
		CareerGoals: p.CareerGoals,
	}
}

func toProgressDocument(p user.Progress) progressDocument {
	return progressDocument{
		CompletedAssessments: p.CompletedAssessments,
		CurrentCourses:       p.CurrentCourses,
		CompletedCourses:     p.CompletedCourses,
		Badges:               p.Badges,
		Points:               p.Points,
	}
}
