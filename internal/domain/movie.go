package domain

// RecordTypeMovie 是 Movie 记录的类型名（也是查询里 RecordType 的取值）。
const RecordTypeMovie = "Movie"

// Movie 是目录里的一部电影（主键 ID，通常就是 IMDb ID）。
//
// 约束：四个字段都必填（去空白后非空），校验由 record.Validate 统一执行。
// 相同 ID 的两条记录视为同一个实体：写入时按 ID upsert。
type Movie struct {
	ID       string `json:"id" bson:"_id" gorm:"column:movie_id;primaryKey" validate:"required"`
	IMDbID   string `json:"imdbId" bson:"imdb_id" gorm:"column:movie_imdbid" validate:"required"`
	Name     string `json:"name" bson:"name" gorm:"column:movie_name;not null" validate:"required"`
	CoverURL string `json:"coverUrl" bson:"cover_url" gorm:"column:movie_coverurl" validate:"required"`
}

// TableName 固定表名，与历史 cache.db 保持兼容。
func (Movie) TableName() string { return "movies" }
