package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mmeshcher/beverages-system/internal/model"
)

const defaultMongoDatabase = "beverages"

// MongoRepository хранит сущности документами в MongoDB: по коллекции на тип.
type MongoRepository struct {
	client        *mongo.Client
	users         *mongo.Collection
	beverages     *mongo.Collection
	orders        *mongo.Collection
	notifications *mongo.Collection
}

// NewMongoRepository подключается к MongoDB и создаёт индексы. Имя базы берётся из пути URI.
func NewMongoRepository(uri string) (*MongoRepository, error) {
	dbName := defaultMongoDatabase
	if u, err := url.Parse(uri); err == nil {
		if p := strings.Trim(u.Path, "/"); p != "" {
			dbName = p
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	r := &MongoRepository{
		client:        client,
		users:         db.Collection("users"),
		beverages:     db.Collection("beverages"),
		orders:        db.Collection("orders"),
		notifications: db.Collection("notifications"),
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return r, nil
}

func (r *MongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{r.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email_lower", Value: 1}}, Options: options.Index().SetName(usersEmailKey).SetUnique(true)},
			{Keys: bson.D{{Key: "employee_id", Value: 1}}, Options: options.Index().SetName(usersEmployeeIDKey).SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		}},
		{r.beverages, []mongo.IndexModel{
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "available", Value: 1}}},
		}},
		{r.orders, []mongo.IndexModel{
			{Keys: bson.D{{Key: "employee_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "worker_id", Value: 1}}},
			{Keys: bson.D{{Key: "order_date", Value: -1}}},
		}},
		{r.notifications, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "sent", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Close отключается от MongoDB.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	EmailLower   string    `bson:"email_lower"`
	PasswordHash string    `bson:"password"`
	Role         string    `bson:"role"`
	Department   string    `bson:"department,omitempty"`
	EmployeeID   string    `bson:"employee_id,omitempty"`
	Quota        int       `bson:"quota"`
	Active       bool      `bson:"active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newUserDoc(u *model.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		EmailLower:   strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Department:   u.Department,
		EmployeeID:   u.EmployeeID,
		Quota:        u.Quota,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) model() model.User {
	return model.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         model.Role(d.Role),
		Department:   d.Department,
		EmployeeID:   d.EmployeeID,
		Quota:        d.Quota,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func mapMongoUserWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), usersEmployeeIDKey) {
			return ErrDuplicateEmployeeID
		}
		return ErrDuplicateEmail
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CreateUser создаёт нового пользователя.
func (r *MongoRepository) CreateUser(ctx context.Context, u *model.User) error {
	if _, err := r.users.InsertOne(ctx, newUserDoc(u)); err != nil {
		return mapMongoUserWriteError("create user", err)
	}
	return nil
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var d userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := d.model()
	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *MongoRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findUser(ctx, bson.M{"email_lower": strings.ToLower(email)})
}

// ListUsers возвращает страницу пользователей, упорядоченных по имени.
func (r *MongoRepository) ListUsers(ctx context.Context, page model.PageRequest) (model.Page[model.User], error) {
	var docs []userDoc
	total, err := findPage(ctx, r.users, bson.M{}, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}, page, &docs)
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("list users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	return model.NewPage(users, page, total), nil
}

// UpdateUser заменяет документ пользователя целиком.
func (r *MongoRepository) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, newUserDoc(u))
	if err != nil {
		return mapMongoUserWriteError("update user", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers возвращает число пользователей.
func (r *MongoRepository) CountUsers(ctx context.Context) (int64, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

type beverageDoc struct {
	ID            string               `bson:"_id"`
	Name          string               `bson:"name"`
	NameAr        string               `bson:"name_ar"`
	Description   string               `bson:"description,omitempty"`
	DescriptionAr string               `bson:"description_ar,omitempty"`
	Category      string               `bson:"category"`
	Price         primitive.Decimal128 `bson:"price"`
	Image         string               `bson:"image,omitempty"`
	Available     bool                 `bson:"available"`
	AverageRating float64              `bson:"average_rating"`
	RatingCount   int                  `bson:"rating_count"`
	TotalOrders   int                  `bson:"total_orders"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func newBeverageDoc(b *model.Beverage) (beverageDoc, error) {
	price, err := toDecimal128(b.Price)
	if err != nil {
		return beverageDoc{}, err
	}
	return beverageDoc{
		ID:            b.ID,
		Name:          b.Name,
		NameAr:        b.NameAr,
		Description:   b.Description,
		DescriptionAr: b.DescriptionAr,
		Category:      string(b.Category),
		Price:         price,
		Image:         b.Image,
		Available:     b.Available,
		AverageRating: b.AverageRating,
		RatingCount:   b.RatingCount,
		TotalOrders:   b.TotalOrders,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}, nil
}

func (d beverageDoc) model() (model.Beverage, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return model.Beverage{}, err
	}
	return model.Beverage{
		ID:            d.ID,
		Name:          d.Name,
		NameAr:        d.NameAr,
		Description:   d.Description,
		DescriptionAr: d.DescriptionAr,
		Category:      model.Category(d.Category),
		Price:         price,
		Image:         d.Image,
		Available:     d.Available,
		AverageRating: d.AverageRating,
		RatingCount:   d.RatingCount,
		TotalOrders:   d.TotalOrders,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

// CreateBeverage сохраняет новый напиток.
func (r *MongoRepository) CreateBeverage(ctx context.Context, b *model.Beverage) error {
	doc, err := newBeverageDoc(b)
	if err != nil {
		return fmt.Errorf("create beverage: %w", err)
	}
	if _, err := r.beverages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create beverage: %w", err)
	}
	return nil
}

// GetBeverage возвращает напиток по идентификатору.
func (r *MongoRepository) GetBeverage(ctx context.Context, id string) (*model.Beverage, error) {
	var d beverageDoc
	if err := r.beverages.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get beverage: %w", err)
	}
	b, err := d.model()
	if err != nil {
		return nil, fmt.Errorf("decode beverage: %w", err)
	}
	return &b, nil
}

// ListBeverages возвращает страницу каталога с учётом фильтра.
func (r *MongoRepository) ListBeverages(ctx context.Context, f model.BeverageFilter, page model.PageRequest) (model.Page[model.Beverage], error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	if f.Available != nil {
		filter["available"] = *f.Available
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"name_ar": pattern}}
	}

	var docs []beverageDoc
	total, err := findPage(ctx, r.beverages, filter, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}, page, &docs)
	if err != nil {
		return model.Page[model.Beverage]{}, fmt.Errorf("list beverages: %w", err)
	}

	res := make([]model.Beverage, 0, len(docs))
	for _, d := range docs {
		b, err := d.model()
		if err != nil {
			return model.Page[model.Beverage]{}, fmt.Errorf("decode beverage: %w", err)
		}
		res = append(res, b)
	}
	return model.NewPage(res, page, total), nil
}

// UpdateBeverage заменяет редактируемые поля напитка. Счётчики не затрагиваются.
func (r *MongoRepository) UpdateBeverage(ctx context.Context, b *model.Beverage) error {
	price, err := toDecimal128(b.Price)
	if err != nil {
		return fmt.Errorf("update beverage: %w", err)
	}
	res, err := r.beverages.UpdateByID(ctx, b.ID, bson.M{"$set": bson.M{
		"name":           b.Name,
		"name_ar":        b.NameAr,
		"description":    b.Description,
		"description_ar": b.DescriptionAr,
		"category":       string(b.Category),
		"price":          price,
		"image":          b.Image,
		"available":      b.Available,
		"updated_at":     b.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update beverage: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementBeverageOrders увеличивает счётчик заказанных порций напитка.
func (r *MongoRepository) IncrementBeverageOrders(ctx context.Context, id string, quantity int) error {
	res, err := r.beverages.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"total_orders": quantity}})
	if err != nil {
		return fmt.Errorf("increment beverage orders: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBeverageRating учитывает новую оценку в среднем рейтинге напитка одним обновлением документа.
func (r *MongoRepository) AddBeverageRating(ctx context.Context, id string, stars int) error {
	nextCount := bson.D{{Key: "$add", Value: bson.A{"$rating_count", 1}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "average_rating", Value: bson.D{{Key: "$divide", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$multiply", Value: bson.A{"$average_rating", "$rating_count"}}},
					float64(stars),
				}}},
				nextCount,
			}}}},
			{Key: "rating_count", Value: nextCount},
		}}},
	}

	res, err := r.beverages.UpdateByID(ctx, id, pipeline)
	if err != nil {
		return fmt.Errorf("add beverage rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type orderItemDoc struct {
	BeverageID     string               `bson:"beverage_id"`
	BeverageName   string               `bson:"beverage_name"`
	BeverageNameAr string               `bson:"beverage_name_ar"`
	Quantity       int                  `bson:"quantity"`
	Price          primitive.Decimal128 `bson:"price"`
	Subtotal       primitive.Decimal128 `bson:"subtotal"`
}

type orderDoc struct {
	ID            string               `bson:"_id"`
	EmployeeID    string               `bson:"employee_id"`
	EmployeeName  string               `bson:"employee_name"`
	Department    string               `bson:"department,omitempty"`
	Items         []orderItemDoc       `bson:"beverages"`
	TotalPrice    primitive.Decimal128 `bson:"total_price"`
	Status        string               `bson:"status"`
	Notes         string               `bson:"notes,omitempty"`
	OrderDate     time.Time            `bson:"order_date"`
	CompletedDate *time.Time           `bson:"completed_date,omitempty"`
	Rating        *int                 `bson:"rating,omitempty"`
	RatingComment string               `bson:"rating_comment,omitempty"`
	WorkerID      string               `bson:"worker_id"`
	WorkerName    string               `bson:"worker_name,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func newOrderDoc(o *model.Order) (orderDoc, error) {
	items := make([]orderItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		price, err := toDecimal128(it.Price)
		if err != nil {
			return orderDoc{}, err
		}
		subtotal, err := toDecimal128(it.Subtotal)
		if err != nil {
			return orderDoc{}, err
		}
		items = append(items, orderItemDoc{
			BeverageID:     it.BeverageID,
			BeverageName:   it.BeverageName,
			BeverageNameAr: it.BeverageNameAr,
			Quantity:       it.Quantity,
			Price:          price,
			Subtotal:       subtotal,
		})
	}
	total, err := toDecimal128(o.TotalPrice)
	if err != nil {
		return orderDoc{}, err
	}

	return orderDoc{
		ID:            o.ID,
		EmployeeID:    o.EmployeeID,
		EmployeeName:  o.EmployeeName,
		Department:    o.Department,
		Items:         items,
		TotalPrice:    total,
		Status:        string(o.Status),
		Notes:         o.Notes,
		OrderDate:     o.OrderDate,
		CompletedDate: o.CompletedDate,
		Rating:        o.Rating,
		RatingComment: o.RatingComment,
		WorkerID:      o.WorkerID,
		WorkerName:    o.WorkerName,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

func (d orderDoc) model() (model.Order, error) {
	items := make([]model.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		price, err := fromDecimal128(it.Price)
		if err != nil {
			return model.Order{}, err
		}
		subtotal, err := fromDecimal128(it.Subtotal)
		if err != nil {
			return model.Order{}, err
		}
		items = append(items, model.OrderItem{
			BeverageID:     it.BeverageID,
			BeverageName:   it.BeverageName,
			BeverageNameAr: it.BeverageNameAr,
			Quantity:       it.Quantity,
			Price:          price,
			Subtotal:       subtotal,
		})
	}
	total, err := fromDecimal128(d.TotalPrice)
	if err != nil {
		return model.Order{}, err
	}

	return model.Order{
		ID:            d.ID,
		EmployeeID:    d.EmployeeID,
		EmployeeName:  d.EmployeeName,
		Department:    d.Department,
		Items:         items,
		TotalPrice:    total,
		Status:        model.OrderStatus(d.Status),
		Notes:         d.Notes,
		OrderDate:     d.OrderDate,
		CompletedDate: d.CompletedDate,
		Rating:        d.Rating,
		RatingComment: d.RatingComment,
		WorkerID:      d.WorkerID,
		WorkerName:    d.WorkerName,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func orderModels(docs []orderDoc) ([]model.Order, error) {
	res := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.model()
		if err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		res = append(res, o)
	}
	return res, nil
}

// CreateOrder сохраняет новый заказ одним документом.
func (r *MongoRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	doc, err := newOrderDoc(o)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	if _, err := r.orders.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *MongoRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var d orderDoc
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o, err := d.model()
	if err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &o, nil
}

// UpdateOrder заменяет документ заказа, если его статус всё ещё равен expected.
func (r *MongoRepository) UpdateOrder(ctx context.Context, o *model.Order, expected model.OrderStatus) error {
	doc, err := newOrderDoc(o)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	res, err := r.orders.ReplaceOne(ctx, bson.M{"_id": o.ID, "status": string(expected)}, doc)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.orders.CountDocuments(ctx, bson.M{"_id": o.ID})
	if err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStaleOrder
}

// SetOrderRating сохраняет оценку выданного заказа, если он ещё не оценён.
func (r *MongoRepository) SetOrderRating(ctx context.Context, o *model.Order) error {
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": o.ID, "status": string(model.OrderStatusDelivered), "rating": nil},
		bson.M{"$set": bson.M{
			"rating":         o.Rating,
			"rating_comment": o.RatingComment,
			"updated_at":     o.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("set order rating: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	var current orderDoc
	if err := r.orders.FindOne(ctx, bson.M{"_id": o.ID}).Decode(&current); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("check order: %w", err)
	}
	if current.Rating != nil {
		return ErrAlreadyRated
	}
	return ErrStaleOrder
}

// ListOrders возвращает страницу заказов, новые первыми.
func (r *MongoRepository) ListOrders(ctx context.Context, f model.OrderFilter, page model.PageRequest) (model.Page[model.Order], error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.EmployeeID != "" {
		filter["employee_id"] = f.EmployeeID
	}

	var docs []orderDoc
	total, err := findPage(ctx, r.orders, filter, bson.D{{Key: "order_date", Value: -1}, {Key: "_id", Value: 1}}, page, &docs)
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}

	orders, err := orderModels(docs)
	if err != nil {
		return model.Page[model.Order]{}, err
	}
	return model.NewPage(orders, page, total), nil
}

func (r *MongoRepository) findOrders(ctx context.Context, filter bson.M, sort bson.D) ([]model.Order, error) {
	cur, err := r.orders.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return orderModels(docs)
}

// ListPendingUnassigned возвращает ожидающие заказы без назначенного работника, старые первыми.
func (r *MongoRepository) ListPendingUnassigned(ctx context.Context) ([]model.Order, error) {
	orders, err := r.findOrders(ctx,
		bson.M{"status": string(model.OrderStatusPending), "worker_id": ""},
		bson.D{{Key: "order_date", Value: 1}},
	)
	if err != nil {
		return nil, fmt.Errorf("select pending orders: %w", err)
	}
	return orders, nil
}

// ListOrdersInRange возвращает заказы, оформленные в интервале [start, end].
func (r *MongoRepository) ListOrdersInRange(ctx context.Context, start, end time.Time) ([]model.Order, error) {
	orders, err := r.findOrders(ctx,
		bson.M{"order_date": bson.M{"$gte": start, "$lte": end}},
		bson.D{{Key: "order_date", Value: -1}},
	)
	if err != nil {
		return nil, fmt.Errorf("select orders in range: %w", err)
	}
	return orders, nil
}

type notificationDoc struct {
	ID        string            `bson:"_id"`
	UserID    string            `bson:"user_id"`
	Title     string            `bson:"title"`
	Body      string            `bson:"body"`
	Type      string            `bson:"type"`
	Data      map[string]string `bson:"data"`
	Read      bool              `bson:"read"`
	Sent      bool              `bson:"sent"`
	CreatedAt time.Time         `bson:"created_at"`
}

func (d notificationDoc) model() model.Notification {
	return model.Notification{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		Body:      d.Body,
		Type:      d.Type,
		Data:      d.Data,
		Read:      d.Read,
		Sent:      d.Sent,
		CreatedAt: d.CreatedAt,
	}
}

// CreateNotification сохраняет уведомление.
func (r *MongoRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	doc := notificationDoc{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Body:      n.Body,
		Type:      n.Type,
		Data:      n.Data,
		Read:      n.Read,
		Sent:      n.Sent,
		CreatedAt: n.CreatedAt,
	}
	if _, err := r.notifications.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListNotificationsByUser возвращает страницу уведомлений пользователя, новые первыми.
func (r *MongoRepository) ListNotificationsByUser(ctx context.Context, userID string, page model.PageRequest) (model.Page[model.Notification], error) {
	var docs []notificationDoc
	total, err := findPage(ctx, r.notifications, bson.M{"user_id": userID},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, page, &docs)
	if err != nil {
		return model.Page[model.Notification]{}, fmt.Errorf("list notifications: %w", err)
	}

	res := make([]model.Notification, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.model())
	}
	return model.NewPage(res, page, total), nil
}

// MarkNotificationRead помечает уведомление пользователя прочитанным.
func (r *MongoRepository) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := r.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnsentNotifications возвращает не более limit неотправленных уведомлений после курсора, старые первыми.
func (r *MongoRepository) ListUnsentNotifications(ctx context.Context, after model.NotificationCursor, limit int) ([]model.Notification, error) {
	filter := bson.M{"sent": false}
	if after.ID != "" {
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$gt": after.CreatedAt}},
			bson.M{"created_at": after.CreatedAt, "_id": bson.M{"$gt": after.ID}},
		}
	}

	cur, err := r.notifications.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("select unsent notifications: %w", err)
	}

	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	res := make([]model.Notification, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.model())
	}
	return res, nil
}

// MarkNotificationSent помечает уведомление отправленным.
func (r *MongoRepository) MarkNotificationSent(ctx context.Context, id string) error {
	res, err := r.notifications.UpdateByID(ctx, id, bson.M{"$set": bson.M{"sent": true}})
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func findPage(ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, page model.PageRequest, out any) (int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return 0, err
	}
	if err := cur.All(ctx, out); err != nil {
		return 0, err
	}
	return total, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("convert decimal128 %s: %w", v, err)
	}
	return d, nil
}
