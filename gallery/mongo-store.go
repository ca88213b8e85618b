package gallery

import (
	"context"
	"errors"
	"time"

	"github.com/krishkalaria12/snap-gallery/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "userImages"

type imageDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"userId"`
	Prompt         string             `bson:"prompt"`
	ModelID        string             `bson:"modelId"`
	ImageURL       string             `bson:"imageUrl"`
	OriginalFalURL string             `bson:"originalFalUrl,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func (d imageDocument) toModel() models.GalleryImage {
	return models.GalleryImage{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		Prompt:         d.Prompt,
		ModelID:        d.ModelID,
		ImageURL:       d.ImageURL,
		OriginalFalURL: d.OriginalFalURL,
		CreatedAt:      d.CreatedAt,
	}
}

type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		coll: db.Collection(CollectionName),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the (userId, createdAt desc) index used by ListByOwner.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, img *models.GalleryImage) error {
	doc := imageDocument{
		ID:             primitive.NewObjectID(),
		UserID:         img.UserID,
		Prompt:         img.Prompt,
		ModelID:        img.ModelID,
		ImageURL:       img.ImageURL,
		OriginalFalURL: img.OriginalFalURL,
		// Mongo stores milliseconds.
		CreatedAt: s.now().Truncate(time.Millisecond),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	img.ID = doc.ID.Hex()
	img.CreatedAt = doc.CreatedAt
	return nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, userID string) ([]models.GalleryImage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []imageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	images := make([]models.GalleryImage, 0, len(docs))
	for _, d := range docs {
		images = append(images, d.toModel())
	}
	return images, nil
}

func (s *MongoStore) Get(ctx context.Context, userID, id string) (*models.GalleryImage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc imageDocument
	err = s.coll.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	img := doc.toModel()
	return &img, nil
}
