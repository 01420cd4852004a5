package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "order_history"

var ErrOrderNotFound = errors.New("order not found")

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// orderDocument stores money as decimal strings; BSON doubles would lose cents.
type orderDocument struct {
	ID          string         `bson:"_id"`
	CheckoutID  string         `bson:"checkout_id"`
	UserID      string         `bson:"user_id"`
	Items       []itemDocument `bson:"items"`
	TotalAmount string         `bson:"total_amount"`
	Currency    string         `bson:"currency"`
	CreatedAt   time.Time      `bson:"created_at"`
}

type itemDocument struct {
	ProductID   string `bson:"product_id"`
	ProductName string `bson:"product_name"`
	Size        string `bson:"size"`
	Quantity    int    `bson:"quantity"`
	UnitPrice   string `bson:"unit_price"`
	ImageURL    string `bson:"image_url,omitempty"`
}

func toDocument(order *domain.Order) *orderDocument {
	items := make([]itemDocument, len(order.Items))
	for i, item := range order.Items {
		items[i] = itemDocument{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size.String(),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			ImageURL:    item.ImageURL,
		}
	}
	return &orderDocument{
		ID:          order.ID,
		CheckoutID:  order.CheckoutID,
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount.String(),
		Currency:    order.Currency,
		CreatedAt:   order.CreatedAt.UTC(),
	}
}

func (d *orderDocument) toOrder() (*domain.Order, error) {
	total, err := decimal.NewFromString(d.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("order %s: bad total %q: %w", d.ID, d.TotalAmount, err)
	}
	items := make([]domain.OrderItem, len(d.Items))
	for i, item := range d.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("order %s: bad unit price %q: %w", d.ID, item.UnitPrice, err)
		}
		size, err := domain.ParseSize(item.Size)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", d.ID, err)
		}
		items[i] = domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        size,
			Quantity:    item.Quantity,
			UnitPrice:   price,
			ImageURL:    item.ImageURL,
		}
	}
	return &domain.Order{
		ID:          d.ID,
		CheckoutID:  d.CheckoutID,
		UserID:      d.UserID,
		Items:       items,
		TotalAmount: total,
		Currency:    d.Currency,
		CreatedAt:   d.CreatedAt,
	}, nil
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection(collectionName)}
}

// UpsertOrder writes the order keyed by its id, so a redelivered event overwrites itself.
func (m *MongoStore) UpsertOrder(ctx context.Context, order *domain.Order) error {
	doc := toDocument(order)
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

func (m *MongoStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toOrder()
}

// ListOrdersByUserID returns the user's orders, newest first.
func (m *MongoStore) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		order, err := doc.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "checkout_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
