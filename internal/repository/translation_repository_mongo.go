package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"verso/internal/model"
)

type translationDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	InputText      string             `bson:"input_text"`
	TranslatedText string             `bson:"translated_text"`
	SourceLanguage string             `bson:"source_language"`
	TargetLanguage string             `bson:"target_language"`
	CreatedAt      time.Time          `bson:"created_at"`
	ModelUsed      string             `bson:"model_used"`
	Metadata       map[string]any     `bson:"metadata"`
}

func (d translationDocument) toModel() model.Translation {
	metadata := d.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return model.Translation{
		ID:             d.ID.Hex(),
		InputText:      d.InputText,
		TranslatedText: d.TranslatedText,
		SourceLanguage: d.SourceLanguage,
		TargetLanguage: d.TargetLanguage,
		CreatedAt:      d.CreatedAt.UTC(),
		ModelUsed:      d.ModelUsed,
		Metadata:       metadata,
	}
}

type mongoTranslationRepository struct {
	coll  *mongo.Collection
	clock *clock
}

// NewMongoTranslationRepository stores records as documents in coll.
// IDs are ObjectIDs rendered as hex.
func NewMongoTranslationRepository(coll *mongo.Collection) TranslationRepository {
	return &mongoTranslationRepository{coll: coll, clock: newClock()}
}

func (r *mongoTranslationRepository) Create(ctx context.Context, in model.TranslationCreate) (model.Translation, error) {
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	doc := translationDocument{
		InputText:      in.InputText,
		TranslatedText: in.TranslatedText,
		SourceLanguage: in.SourceLanguage,
		TargetLanguage: in.TargetLanguage,
		CreatedAt:      r.clock.Now(),
		ModelUsed:      in.ModelUsed,
		Metadata:       metadata,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return model.Translation{}, fmt.Errorf("insert translation: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return model.Translation{}, fmt.Errorf("insert translation: unexpected id type %T", res.InsertedID)
	}

	created, err := r.findOne(ctx, oid)
	if err != nil {
		return model.Translation{}, fmt.Errorf("read back translation: %w", err)
	}
	if created == nil {
		return model.Translation{}, fmt.Errorf("read back translation %s: not found", oid.Hex())
	}
	return *created, nil
}

func (r *mongoTranslationRepository) GetByID(ctx context.Context, id string) (*model.Translation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, oid)
}

func (r *mongoTranslationRepository) findOne(ctx context.Context, oid primitive.ObjectID) (*model.Translation, error) {
	var doc translationDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := doc.toModel()
	return &t, nil
}

func (r *mongoTranslationRepository) List(ctx context.Context, skip, limit int, filter model.TranslationFilter) ([]model.Translation, error) {
	skip, limit = clampPage(skip, limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	var docs []translationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode translations: %w", err)
	}

	translations := make([]model.Translation, 0, len(docs))
	for _, d := range docs {
		translations = append(translations, d.toModel())
	}
	return translations, nil
}

func (r *mongoTranslationRepository) Count(ctx context.Context, filter model.TranslationFilter) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, mongoFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return total, nil
}

func (r *mongoTranslationRepository) Update(ctx context.Context, id string, upd model.TranslationUpdate) (*model.Translation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	set := bson.M{}
	if upd.InputText != nil {
		set["input_text"] = *upd.InputText
	}
	if upd.TranslatedText != nil {
		set["translated_text"] = *upd.TranslatedText
	}
	if upd.SourceLanguage != nil {
		set["source_language"] = *upd.SourceLanguage
	}
	if upd.TargetLanguage != nil {
		set["target_language"] = *upd.TargetLanguage
	}
	if upd.ModelUsed != nil {
		set["model_used"] = *upd.ModelUsed
	}
	if upd.Metadata != nil {
		set["metadata"] = upd.Metadata
	}
	if len(set) == 0 {
		return r.findOne(ctx, oid)
	}

	var doc translationDocument
	err = r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update translation: %w", err)
	}
	t := doc.toModel()
	return &t, nil
}

func (r *mongoTranslationRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete translation: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoTranslationRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func mongoFilter(f model.TranslationFilter) bson.M {
	filter := bson.M{}
	if f.SourceLanguage != "" {
		filter["source_language"] = f.SourceLanguage
	}
	if f.TargetLanguage != "" {
		filter["target_language"] = f.TargetLanguage
	}
	if f.ModelUsed != "" {
		filter["model_used"] = f.ModelUsed
	}
	return filter
}
