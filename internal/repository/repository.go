package repository

import (
	"github.com/BloggingApp/chirp-service/internal/repository/postgres"
	"github.com/BloggingApp/chirp-service/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Repository struct {
	Postgres *postgres.PostgresRepository
	// Redis is nil when no redis address is configured.
	Redis *redisrepo.RedisRepository
}

func New(db *pgxpool.Pool, rdb *redis.Client) *Repository {
	repo := &Repository{
		Postgres: postgres.New(db),
	}
	if rdb != nil {
		repo.Redis = redisrepo.New(rdb)
	}
	return repo
}
