package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/John-Robertt/brainslug/internal/domain"
	"github.com/John-Robertt/brainslug/internal/record"
)

const (
	moviesCollection  = "movies"
	sourcesCollection = "moviesources"
)

// bsonFields 是“对外属性名 -> 文档字段名”，与 domain 上的 bson tag 一致。
var bsonFields = map[string]map[string]string{
	domain.RecordTypeMovie: {
		"id":       "_id",
		"imdbId":   "imdb_id",
		"name":     "name",
		"coverUrl": "cover_url",
	},
	domain.RecordTypeMovieSource: {
		"id":    "_id",
		"movie": "movie_id",
		"url":   "url",
	},
}

// Mongo 是基于 MongoDB 的存储（多实例共享目录时使用）。
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*Mongo)(nil)

func OpenMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("连接 MongoDB 失败：%w", err)
	}
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

func (s *Mongo) PutMovie(ctx context.Context, m domain.Movie) error {
	m = record.Normalize(m)
	if err := record.Validate(m); err != nil {
		return err
	}
	_, err := s.db.Collection(moviesCollection).ReplaceOne(ctx,
		bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	return err
}

func (s *Mongo) GetMovie(ctx context.Context, id string) (domain.Movie, error) {
	var m domain.Movie
	err := s.db.Collection(moviesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Movie{}, notFound(domain.RecordTypeMovie, id)
	}
	return m, err
}

func (s *Mongo) DeleteMovie(ctx context.Context, id string) error {
	res, err := s.db.Collection(moviesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound(domain.RecordTypeMovie, id)
	}
	_, err = s.db.Collection(sourcesCollection).DeleteMany(ctx, bson.M{"movie_id": id})
	return err
}

func (s *Mongo) FindMovies(ctx context.Context, q record.Query) ([]domain.Movie, error) {
	if err := checkType(q, domain.RecordTypeMovie); err != nil {
		return nil, err
	}
	out := make([]domain.Movie, 0, 16)
	if err := s.find(ctx, moviesCollection, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Mongo) PutSource(ctx context.Context, src domain.MovieSource) error {
	src = record.NormalizeSource(src)
	if err := record.ValidateSource(src); err != nil {
		return err
	}
	n, err := s.db.Collection(moviesCollection).CountDocuments(ctx, bson.M{"_id": src.MovieID})
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(domain.RecordTypeMovie, src.MovieID)
	}
	_, err = s.db.Collection(sourcesCollection).ReplaceOne(ctx,
		bson.M{"_id": src.ID}, src, options.Replace().SetUpsert(true))
	return err
}

func (s *Mongo) FindSources(ctx context.Context, q record.Query) ([]domain.MovieSource, error) {
	if err := checkType(q, domain.RecordTypeMovieSource); err != nil {
		return nil, err
	}
	out := make([]domain.MovieSource, 0, 16)
	if err := s.find(ctx, sourcesCollection, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Mongo) find(ctx context.Context, coll string, q record.Query, out any) error {
	filter, err := mongoFilter(q)
	if err != nil {
		return err
	}
	cursor, err := s.db.Collection(coll).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func mongoFilter(q record.Query) (bson.D, error) {
	filter := bson.D{}
	for _, k := range q.Keys() {
		f, ok := bsonFields[q.RecordType][k]
		if !ok {
			return nil, fmt.Errorf("未知查询字段：%s.%s", q.RecordType, k)
		}
		filter = append(filter, bson.E{Key: f, Value: q.Conditions[k]})
	}
	return filter, nil
}
