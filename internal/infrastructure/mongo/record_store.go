package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sngm3741/chat-survey/api/internal/survey/application"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionNames は論理コレクションと MongoDB 上のコレクション名の対応。
type CollectionNames struct {
	Surveys             string
	Responses           string
	FailedNotifications string
}

// RecordStore は application.RecordStore を MongoDB で実装したもの。
// レコードの id は _id に格納する。
type RecordStore struct {
	client      *mongo.Client
	collections map[application.Collection]*mongo.Collection
}

// NewRecordStore はデータベースとコレクション名を束縛したストアを返す。
func NewRecordStore(client *mongo.Client, db *mongo.Database, names CollectionNames) *RecordStore {
	return &RecordStore{
		client: client,
		collections: map[application.Collection]*mongo.Collection{
			application.CollectionSurveys:             db.Collection(names.Surveys),
			application.CollectionResponses:           db.Collection(names.Responses),
			application.CollectionFailedNotifications: db.Collection(names.FailedNotifications),
		},
	}
}

// EnsureIndexes は短縮コードの一意制約（大文字小文字を区別しない）と参照用インデックスを作成する。
func (s *RecordStore) EnsureIndexes(ctx context.Context) error {
	surveys := s.collections[application.CollectionSurveys]
	_, err := surveys.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: application.FieldShortCode, Value: 1}},
			Options: options.Index().
				SetName("shortCode_unique_ci").
				SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
		{
			Keys:    bson.D{{Key: application.FieldCreatorName, Value: 1}, {Key: application.FieldCreatedAt, Value: -1}},
			Options: options.Index().SetName("creatorName_createdAt"),
		},
		{
			Keys:    bson.D{{Key: application.FieldOwnerID, Value: 1}, {Key: application.FieldCreatorName, Value: 1}, {Key: application.FieldCreatedAt, Value: -1}},
			Options: options.Index().SetName("ownerId_creatorName_createdAt"),
		},
	})
	if err != nil {
		return fmt.Errorf("surveys インデックス作成に失敗: %w", err)
	}

	responses := s.collections[application.CollectionResponses]
	_, err = responses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: application.FieldSurveyID, Value: 1}, {Key: application.FieldStartedAt, Value: -1}},
		Options: options.Index().SetName("surveyId_startedAt"),
	})
	if err != nil {
		return fmt.Errorf("responses インデックス作成に失敗: %w", err)
	}
	return nil
}

func (s *RecordStore) FindOne(ctx context.Context, coll application.Collection, where application.Predicate) (application.Record, error) {
	c, err := s.collection(coll)
	if err != nil {
		return nil, err
	}
	filter, err := compileFilter(where)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	err = c.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", coll, err)
	}
	return fromDocument(doc), nil
}

func (s *RecordStore) FindMany(ctx context.Context, coll application.Collection, where application.Predicate, order *application.OrderBy) ([]application.Record, error) {
	c, err := s.collection(coll)
	if err != nil {
		return nil, err
	}
	filter, err := compileFilter(where)
	if err != nil {
		return nil, err
	}
	opts := options.Find()
	if order != nil {
		dir := 1
		if order.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: fieldName(order.Field), Value: dir}})
	}

	cursor, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", coll, err)
	}
	defer cursor.Close(ctx)

	out := make([]application.Record, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode %s: %w", coll, err)
		}
		out = append(out, fromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor %s: %w", coll, err)
	}
	return out, nil
}

func (s *RecordStore) Insert(ctx context.Context, coll application.Collection, rec application.Record) (application.Record, error) {
	c, err := s.collection(coll)
	if err != nil {
		return nil, err
	}
	doc := toDocument(rec)
	if id, _ := doc["_id"].(string); id == "" {
		doc["_id"] = uuid.NewString()
	}
	if _, err := c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s: %v", application.ErrRecordConflict, coll, err)
		}
		return nil, fmt.Errorf("mongo insert %s: %w", coll, err)
	}
	return fromDocument(doc), nil
}

// Update はガード条件を _id と同じフィルタに含めた FindOneAndUpdate で原子的に更新する。
// 一致しなかった場合は存在確認を行い、NotFound と Conflict を区別する。
func (s *RecordStore) Update(ctx context.Context, coll application.Collection, id string, guard application.Predicate, fields application.Record) (application.Record, error) {
	c, err := s.collection(coll)
	if err != nil {
		return nil, err
	}
	filter, err := compileFilter(andID(id, guard))
	if err != nil {
		return nil, err
	}
	set := toDocument(fields)
	delete(set, "_id")

	var doc bson.M
	if len(set) == 0 {
		err = c.FindOne(ctx, filter).Decode(&doc)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := c.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, fmt.Errorf("mongo count %s: %w", coll, countErr)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: %s/%s", application.ErrRecordNotFound, coll, id)
		}
		return nil, fmt.Errorf("%w: %s/%s guard failed", application.ErrRecordConflict, coll, id)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s/%s: %v", application.ErrRecordConflict, coll, id, err)
		}
		return nil, fmt.Errorf("mongo update %s/%s: %w", coll, id, err)
	}
	return fromDocument(doc), nil
}

// Ping は Primary への疎通確認。
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Disconnect はクライアントを切断する。
func (s *RecordStore) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *RecordStore) collection(coll application.Collection) (*mongo.Collection, error) {
	c, ok := s.collections[coll]
	if !ok {
		return nil, fmt.Errorf("mongo: unknown collection %q", coll)
	}
	return c, nil
}

func andID(id string, guard application.Predicate) application.Predicate {
	byID := application.Eq{Field: application.FieldID, Value: id}
	if guard == nil {
		return byID
	}
	return application.And{Left: byID, Right: guard}
}

// compileFilter は述語を MongoDB のフィルタへ変換する。
func compileFilter(pred application.Predicate) (bson.M, error) {
	switch p := pred.(type) {
	case nil:
		return bson.M{}, nil
	case application.Eq:
		return bson.M{fieldName(p.Field): p.Value}, nil
	case application.EqFold:
		return bson.M{fieldName(p.Field): primitive.Regex{Pattern: foldPattern(p.Value)}}, nil
	case application.Or:
		return combineFilters("$or", p.Left, p.Right)
	case application.And:
		return combineFilters("$and", p.Left, p.Right)
	default:
		return nil, fmt.Errorf("mongo: unsupported predicate %T", pred)
	}
}

func combineFilters(op string, left, right application.Predicate) (bson.M, error) {
	l, err := compileFilter(left)
	if err != nil {
		return nil, err
	}
	r, err := compileFilter(right)
	if err != nil {
		return nil, err
	}
	return bson.M{op: bson.A{l, r}}, nil
}

// foldPattern は完全一致の正規表現を作る。英字のみ [aA] のように展開し、
// "i" オプションによる Unicode の大文字小文字畳み込みを避ける。
func foldPattern(value string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range value {
		switch {
		case 'a' <= r && r <= 'z':
			b.WriteString("[" + string(r) + string(r-'a'+'A') + "]")
		case 'A' <= r && r <= 'Z':
			b.WriteString("[" + string(r-'A'+'a') + string(r) + "]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func fieldName(field string) string {
	if field == application.FieldID {
		return "_id"
	}
	return field
}

func toDocument(rec application.Record) bson.M {
	doc := make(bson.M, len(rec))
	for k, v := range rec {
		doc[fieldName(k)] = v
	}
	return doc
}

func fromDocument(doc bson.M) application.Record {
	rec := make(application.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			k = application.FieldID
		}
		rec[k] = normalize(v)
	}
	return rec
}

// normalize は BSON 固有の型を素の Go の値へ揃える。
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return application.FormatTimestamp(t.Time())
	case int32:
		return int(t)
	case int64:
		return int(t)
	default:
		return v
	}
}
