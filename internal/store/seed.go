package store

import (
	"context"

	"github.com/John-Robertt/brainslug/internal/domain"
)

// SeedMovies / SeedSources 是演示用的固定数据（serve --seed 与 seed 命令使用）。
var (
	SeedMovies = []domain.Movie{
		{
			ID:       "1",
			Name:     "Sex and the City",
			IMDbID:   "tt10000774",
			CoverURL: "http://www.pursepage.com/wp-content/uploads/2008/01/sex-and-the-city-movie-poster.jpg",
		},
		{
			ID:       "2",
			Name:     "Twilight",
			IMDbID:   "tt1099212",
			CoverURL: "http://juiceboxdotcom.com/wp-content/themes/mimbo2.2/images//twilight-movie-poster.jpg",
		},
	}
	SeedSources = []domain.MovieSource{
		{ID: "1", MovieID: "1", URL: "http://movies.apple.com/media/us/iphone/2010/ads/apple-iphone4-meet_her-us-20100711_r848-9cie.mov"},
		{ID: "2", MovieID: "2", URL: "http://movies.apple.com/media/us/iphone/2010/ads/apple-iphone4-meet_her-us-20100711_r848-9cie.mov"},
	}
)

// Seed 写入演示数据。重复执行是幂等的（按主键 upsert）。
func Seed(ctx context.Context, s Store) error {
	for _, m := range SeedMovies {
		if err := s.PutMovie(ctx, m); err != nil {
			return err
		}
	}
	for _, src := range SeedSources {
		if err := s.PutSource(ctx, src); err != nil {
			return err
		}
	}
	return nil
}
