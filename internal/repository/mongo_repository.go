package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

type itemDocument struct {
	ProductID string `bson:"product_id"`
	Name      string `bson:"name"`
	Price     string `bson:"price"`
	Quantity  int    `bson:"quantity"`
}

type orderDocument struct {
	ID               string         `bson:"_id"`
	OrderNumber      string         `bson:"order_number"`
	Items            []itemDocument `bson:"items"`
	Total            string         `bson:"total"`
	Status           string         `bson:"status"`
	CustomerEmail    string         `bson:"customer_email"`
	PaymentReference string         `bson:"payment_reference"`
	CreatedAt        time.Time      `bson:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at"`
}

type MongoRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection(ordersCollection),
		now:        time.Now,
	}
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	// mongo keeps millisecond precision
	now := m.now().UTC().Truncate(time.Millisecond)
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, toDocument(order))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("order number %s: %w", order.OrderNumber, domain.ErrConflict)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"order_number": orderNumber})
}

func (m *MongoRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error) {
	sources := domain.AllowedSources(status)
	allowed := make(bson.A, len(sources))
	for i, s := range sources {
		allowed[i] = string(s)
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": allowed}}
	update := bson.M{"$set": bson.M{"status": string(status), "updated_at": m.now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDocument
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		order, convErr := fromDocument(&doc)
		return order, convErr == nil, convErr
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("failed to update order status: %w", err)
	}

	current, getErr := m.GetOrderByID(ctx, id)
	if getErr != nil {
		return nil, false, getErr
	}
	if current.Status == status {
		return current, false, nil
	}
	return current, false, fmt.Errorf("%s -> %s: %w", current.Status, status, domain.ErrIllegalTransition)
}

func (m *MongoRepository) SetPaymentReference(ctx context.Context, id, reference string) error {
	update := bson.M{"$set": bson.M{"payment_reference": reference, "updated_at": m.now().UTC()}}
	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update payment reference: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (m *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}

func (m *MongoRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var doc orderDocument
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return fromDocument(&doc)
}

func toDocument(o *domain.Order) *orderDocument {
	items := make([]itemDocument, len(o.Items))
	for i, item := range o.Items {
		items[i] = itemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.String(),
			Quantity:  item.Quantity,
		}
	}
	return &orderDocument{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		Items:            items,
		Total:            o.Total.String(),
		Status:           string(o.Status),
		CustomerEmail:    o.CustomerEmail,
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func fromDocument(d *orderDocument) (*domain.Order, error) {
	total, err := decimal.NewFromString(d.Total)
	if err != nil {
		return nil, fmt.Errorf("decode order total: %w", err)
	}
	items := make([]domain.OrderItem, len(d.Items))
	for i, item := range d.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("decode item price: %w", err)
		}
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     price,
			Quantity:  item.Quantity,
		}
	}
	return &domain.Order{
		ID:               d.ID,
		OrderNumber:      d.OrderNumber,
		Items:            items,
		Total:            total,
		Status:           domain.OrderStatus(d.Status),
		CustomerEmail:    d.CustomerEmail,
		PaymentReference: d.PaymentReference,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}, nil
}
