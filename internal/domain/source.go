package domain

// RecordTypeMovieSource 是 MovieSource 记录的类型名。
const RecordTypeMovieSource = "MovieSource"

// MovieSource 描述某部电影的一个可播放来源（本地文件或远程 URL）。
type MovieSource struct {
	ID      string `json:"id" bson:"_id" gorm:"column:msrc_id;primaryKey" validate:"required"`
	MovieID string `json:"movie" bson:"movie_id" gorm:"column:movie_id;index;not null" validate:"required"`
	URL     string `json:"url" bson:"url" gorm:"column:msrc_url" validate:"required"`
}

func (MovieSource) TableName() string { return "moviesources" }
