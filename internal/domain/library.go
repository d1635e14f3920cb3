package domain

// VideoFile 是库目录里的一个视频文件。扫描只 stat，不读内容。
type VideoFile struct {
	AbsPath string // clean + absolute
	RelPath string // 相对库根目录，report 里展示这个
	Base    string // 去掉扩展名的文件名
	Ext     string // 小写，带 '.'
	Size    int64
	ModUnix int64
}

const (
	UnmatchedNoMatch   = "no_match"
	UnmatchedAmbiguous = "ambiguous"
)

// Unmatched 是文件名里找不到、或找到多个不同 IMDb ID 的文件。
type Unmatched struct {
	File       VideoFile
	Kind       string
	Candidates []IMDbID // 仅 ambiguous 时有值，已排序
}

// WorkItem 是同一 IMDb ID 下的全部文件；FileIdx 指向扫描结果切片。
type WorkItem struct {
	ID      IMDbID
	FileIdx []int
}

// ItemPlan 描述一个 WorkItem 要做什么：是否需要抓取元数据，以及要登记哪些来源。
type ItemPlan struct {
	ID                IMDbID
	ProviderRequested string

	// Existing 是存储里 imdbId 相同的已有记录，没有则为 nil。
	Existing   *Movie
	NeedScrape bool
	Sources    []MovieSource
}
