package profilerepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

// CollectionName is the collection holding lawyer profiles.
const CollectionName = "lawyer_profiles"

type profileDoc struct {
	ID                string    `bson:"_id"`
	Owner             string    `bson:"owner_subject"`
	Name              string    `bson:"name"`
	NameLower         string    `bson:"name_lower"`
	PhotoPath         *string   `bson:"photo_path,omitempty"`
	Age               int       `bson:"age"`
	BarLicenseNo      *string   `bson:"bar_license_no,omitempty"`
	BarAssociation    string    `bson:"bar_association"`
	YearsOfPractice   int       `bson:"years_of_practice"`
	Specializations   []string  `bson:"specializations"`
	MobileNo          string    `bson:"mobile_no"`
	City              string    `bson:"city"`
	PreferredLanguage string    `bson:"preferred_language"`
	Bio               string    `bson:"bio"`
	Approved          bool      `bson:"approved"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

// Repo is a MongoDB implementation of profilerepo.Repository.
type Repo struct {
	coll *mongo.Collection
}

// NewRepo binds the repository to db and ensures its indexes exist.
func NewRepo(ctx context.Context, db *mongo.Database) (*Repo, error) {
	r := &Repo{coll: db.Collection(CollectionName)}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) ensureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_subject", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "approved", Value: 1}, {Key: "name_lower", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "bar_license_no", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "mobile_no", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, p profilerepo.Profile) error {
	if _, err := r.coll.InsertOne(ctx, toDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return profilerepo.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (profilerepo.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)}, nil)
}

func (r *Repo) GetByOwner(ctx context.Context, owner domain.SubjectID) (profilerepo.Profile, error) {
	return r.findOne(ctx, bson.M{"owner_subject": string(owner)}, oldestFirst())
}

func (r *Repo) ListApproved(ctx context.Context) ([]profilerepo.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_lower", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"approved": true}, opts)
}

func (r *Repo) ListAll(ctx context.Context) ([]profilerepo.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *Repo) SetApproval(ctx context.Context, id domain.ProfileID, approved bool, at time.Time) (profilerepo.Profile, error) {
	update := bson.M{"$set": bson.M{"approved": approved, "updated_at": at.UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return profilerepo.Profile{}, profilerepo.ErrNotFound
		}
		return profilerepo.Profile{}, fmt.Errorf("failed to update approval for %s: %w", id, err)
	}
	return fromDoc(doc), nil
}

func (r *Repo) FindClaimable(ctx context.Context, barLicenseNo, mobileNo string) (profilerepo.Profile, error) {
	var or bson.A
	if barLicenseNo != "" {
		or = append(or, bson.M{"bar_license_no": barLicenseNo})
	}
	if mobileNo != "" {
		or = append(or, bson.M{"mobile_no": mobileNo})
	}
	if len(or) == 0 {
		return profilerepo.Profile{}, profilerepo.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"owner_subject": "", "$or": or}, oldestFirst())
}

func (r *Repo) BindOwner(ctx context.Context, id domain.ProfileID, owner domain.SubjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{"owner_subject": string(owner), "updated_at": at.UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": string(id), "owner_subject": ""}, update)
	if err != nil {
		return fmt.Errorf("failed to bind owner for %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return profilerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (profilerepo.Profile, error) {
	if opts == nil {
		opts = options.FindOne()
	}
	var doc profileDoc
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return profilerepo.Profile{}, profilerepo.ErrNotFound
		}
		return profilerepo.Profile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return fromDoc(doc), nil
}

func (r *Repo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]profilerepo.Profile, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer cursor.Close(ctx)

	out := []profilerepo.Profile{}
	for cursor.Next(ctx) {
		var doc profileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
		out = append(out, fromDoc(doc))
	}
	return out, cursor.Err()
}

func oldestFirst() *options.FindOneOptions {
	return options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
}

func toDoc(p profilerepo.Profile) profileDoc {
	specs := make([]string, 0, len(p.Specializations))
	for _, s := range p.Specializations {
		specs = append(specs, string(s))
	}
	return profileDoc{
		ID:                string(p.ID),
		Owner:             string(p.Owner),
		Name:              p.Name,
		NameLower:         strings.ToLower(p.Name),
		PhotoPath:         p.PhotoPath,
		Age:               p.Age,
		BarLicenseNo:      p.BarLicenseNo,
		BarAssociation:    p.BarAssociation,
		YearsOfPractice:   p.YearsOfPractice,
		Specializations:   specs,
		MobileNo:          p.MobileNo,
		City:              p.City,
		PreferredLanguage: string(p.PreferredLanguage),
		Bio:               p.Bio,
		Approved:          p.Approved,
		CreatedAt:         p.CreatedAt.UTC(),
		UpdatedAt:         p.UpdatedAt.UTC(),
	}
}

func fromDoc(d profileDoc) profilerepo.Profile {
	specs := make([]domain.Specialization, 0, len(d.Specializations))
	for _, s := range d.Specializations {
		specs = append(specs, domain.Specialization(s))
	}
	return profilerepo.Profile{
		ID:                domain.ProfileID(d.ID),
		Owner:             domain.SubjectID(d.Owner),
		Name:              d.Name,
		PhotoPath:         d.PhotoPath,
		Age:               d.Age,
		BarLicenseNo:      d.BarLicenseNo,
		BarAssociation:    d.BarAssociation,
		YearsOfPractice:   d.YearsOfPractice,
		Specializations:   specs,
		MobileNo:          d.MobileNo,
		City:              d.City,
		PreferredLanguage: domain.Language(d.PreferredLanguage),
		Bio:               d.Bio,
		Approved:          d.Approved,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
}
