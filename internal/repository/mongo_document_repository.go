package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/util"
)

type mongoSnippetDocument struct {
	ID          bson.ObjectID `bson:"_id"`
	Content     string        `bson:"content"`
	Description string        `bson:"description"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

func (d *mongoSnippetDocument) toModel() *model.SnippetDocument {
	return &model.SnippetDocument{
		ID:          d.ID.Hex(),
		Content:     d.Content,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoDocumentRepository : содержимое сниппетов в коллекции MongoDB
type MongoDocumentRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoDocumentRepository(client *mongo.Client, cfg *config.MongoConfig) *MongoDocumentRepository {
	collection := cfg.Collection
	if collection == "" {
		collection = "snippets"
	}
	return &MongoDocumentRepository{
		collection: client.Database(cfg.Database).Collection(collection),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *MongoDocumentRepository) Create(ctx context.Context, content, description string) (*model.SnippetDocument, error) {
	now := r.now()
	document := &mongoSnippetDocument{
		ID:          bson.NewObjectID(),
		Content:     content,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.collection.InsertOne(ctx, document); err != nil {
		return nil, util.LogError("[MongoDocumentRepo] не удалось сохранить документ", err)
	}

	return document.toModel(), nil
}

func (r *MongoDocumentRepository) GetByID(ctx context.Context, id string) (*model.SnippetDocument, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrDocumentNotFound
	}

	var document mongoSnippetDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, util.LogError("[MongoDocumentRepo] не удалось получить документ", err)
	}

	return document.toModel(), nil
}

// Update : меняет только переданные поля
func (r *MongoDocumentRepository) Update(ctx context.Context, id string, content, description *string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.ErrDocumentNotFound
	}

	set := bson.M{"updated_at": r.now()}
	if content != nil {
		set["content"] = *content
	}
	if description != nil {
		set["description"] = *description
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return util.LogError("[MongoDocumentRepo] не удалось обновить документ", err)
	}
	if result.MatchedCount == 0 {
		return model.ErrDocumentNotFound
	}

	return nil
}

// Delete : удаление отсутствующего документа ошибкой не считается
func (r *MongoDocumentRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return util.LogError("[MongoDocumentRepo] не удалось удалить документ", err)
	}
	return nil
}
