package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// ErrCodeNotFound 表示需要 path 却既没有 CLI path，也没有 <cwd>/brainslug.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示需要 path 但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// FileName 是配置文件名（位于库根目录或 cwd）。
	FileName = "brainslug.json"

	DefaultProvider    = "imdb"
	DefaultConcurrency = 4
	DefaultListen      = ":5555"
	DefaultBackend     = "sqlite"
	DefaultDBName      = "cache.db"
	DefaultMongoDB     = "brainslug"
)

// 环境变量（也可写在 <dir>/.env 里；进程环境优先于 .env）。
const (
	EnvListen   = "BRAINSLUG_LISTEN"
	EnvBackend  = "BRAINSLUG_BACKEND"
	EnvDB       = "BRAINSLUG_DB"
	EnvProxy    = "BRAINSLUG_PROXY"
	EnvMongoURI = "MONGO_URI"
	EnvMongoDB  = "MONGO_DB"
	EnvOMDbKey  = "OMDB_API_KEY"
)

// getenv 可在测试中替换；默认读进程环境。
var getenv = os.Getenv

// CLIArgs 是 CLI 暴露的入口参数，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string
	// NeedPath 表示该命令必须拿到库根目录（scan 需要，serve/list 不需要）。
	NeedPath bool

	Provider    string
	ProviderSet bool

	Apply    bool
	ApplySet bool

	Refresh bool

	Listen  string
	Backend string
	DB      string
	Seed    bool
}

// FileConfig 对应 brainslug.json 的解析结构。
type FileConfig struct {
	Path        string       `json:"path"`
	Provider    string       `json:"provider"`
	Apply       *bool        `json:"apply"`
	Concurrency int          `json:"concurrency"`
	Proxy       *ProxyConfig `json:"proxy"`
	ExcludeDirs []string     `json:"exclude_dirs"`
	Extensions  []string     `json:"extensions"`

	Listen  string       `json:"listen"`
	Backend string       `json:"backend"`
	DB      string       `json:"db"`
	Mongo   *MongoConfig `json:"mongo"`
	Seed    bool         `json:"seed"`

	OMDb        *OMDbConfig `json:"omdb"`
	IMDbBaseURL string      `json:"imdb_base_url"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

type OMDbConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// Effective 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type Effective struct {
	// Path 是库根目录（clean + absolute）；不需要 path 的命令里等于 cwd。
	Path string

	Provider    string
	Apply       bool
	Refresh     bool
	Concurrency int
	ProxyURL    string
	ExcludeDirs []string
	// Extensions 为空表示使用扫描器的默认视频扩展名。
	Extensions []string

	Listen     string
	Backend    string
	SQLitePath string
	MongoURI   string
	MongoDB    string
	Seed       bool

	OMDbAPIKey  string
	OMDbBaseURL string
	IMDbBaseURL string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件与 .env，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：CLI 提供 path 时读取 <path>/brainslug.json 与 <path>/.env，
// 两者都可选；否则读取 <cwd>/brainslug.json 与 <cwd>/.env，且 NeedPath=true 时
// 配置文件必须存在并包含 path。
//
// 覆盖优先级（固定）：CLI > 环境变量 > 配置文件 > 默认值。
func LoadEffective(cwd string, cli CLIArgs) (Effective, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, FileName)
		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		env, err := readDotEnv(absPath)
		if err != nil {
			return Effective{}, &Error{Code: ErrCodeInvalid, Path: filepath.Join(absPath, ".env"), Err: err}
		}
		return merge(absPath, cli, fc, env, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	env, err := readDotEnv(cwdAbs)
	if err != nil {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: filepath.Join(cwdAbs, ".env"), Err: err}
	}

	if cli.NeedPath {
		if !exists {
			return Effective{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		if strings.TrimSpace(fc.Path) == "" {
			return Effective{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
		}
	}

	absPath := cwdAbs
	if strings.TrimSpace(fc.Path) != "" {
		absPath = absCleanFrom(cwdAbs, fc.Path)
	}
	return merge(absPath, cli, fc, env, cfgPath)
}

func merge(absPath string, cli CLIArgs, fc FileConfig, env func(string) string, cfgPath string) (Effective, error) {
	invalid := func(err error) (Effective, error) {
		return Effective{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// provider：CLI > config > 默认
	provider := DefaultProvider
	if cli.ProviderSet {
		provider = cli.Provider
	} else if strings.TrimSpace(fc.Provider) != "" {
		provider = fc.Provider
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if err := validateProvider(provider); err != nil {
		return invalid(err)
	}

	// apply：CLI > config > 默认 false
	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = fc.Proxy.URL
	}
	proxyURL = pick("", env(EnvProxy), proxyURL, "")
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	backend := strings.ToLower(pick(cli.Backend, env(EnvBackend), fc.Backend, DefaultBackend))
	switch backend {
	case "memory", "sqlite", "mongo":
	default:
		return invalid(fmt.Errorf("backend 只能是 memory、sqlite 或 mongo，实际是 %q", backend))
	}

	// 默认数据库放在 <path>/cache/ 下，与 provider 缓存、report 一起被扫描排除。
	db := pick(cli.DB, env(EnvDB), fc.DB, filepath.Join(absPath, "cache", DefaultDBName))
	if db != ":memory:" {
		db = absCleanFrom(absPath, db)
	}

	var mongoURI, mongoDB string
	if fc.Mongo != nil {
		mongoURI, mongoDB = fc.Mongo.URI, fc.Mongo.Database
	}
	mongoURI = pick("", env(EnvMongoURI), mongoURI, "")
	mongoDB = pick("", env(EnvMongoDB), mongoDB, DefaultMongoDB)
	if backend == "mongo" && mongoURI == "" {
		return invalid(fmt.Errorf("backend=mongo 但 mongo.uri 为空"))
	}

	var omdbKey, omdbBase string
	if fc.OMDb != nil {
		omdbKey, omdbBase = fc.OMDb.APIKey, fc.OMDb.BaseURL
	}
	omdbKey = pick("", env(EnvOMDbKey), omdbKey, "")
	omdbBase = strings.TrimSpace(omdbBase)
	if err := validateBaseURL("omdb.base_url", omdbBase); err != nil {
		return invalid(err)
	}
	imdbBase := strings.TrimSpace(fc.IMDbBaseURL)
	if err := validateBaseURL("imdb_base_url", imdbBase); err != nil {
		return invalid(err)
	}

	excludes := make([]string, 0, len(fc.ExcludeDirs))
	excludes = append(excludes, fc.ExcludeDirs...)

	var exts []string
	for _, e := range fc.Extensions {
		e = strings.TrimSpace(e)
		if e == "" || e == "." {
			return invalid(fmt.Errorf("extensions 中包含空扩展名"))
		}
		exts = append(exts, e)
	}

	return Effective{
		Path:        absPath,
		Provider:    provider,
		Apply:       apply,
		Refresh:     cli.Refresh,
		Concurrency: concurrency,
		ProxyURL:    proxyURL,
		ExcludeDirs: excludes,
		Extensions:  exts,
		Listen:      pick(cli.Listen, env(EnvListen), fc.Listen, DefaultListen),
		Backend:     backend,
		SQLitePath:  db,
		MongoURI:    mongoURI,
		MongoDB:     mongoDB,
		Seed:        cli.Seed || fc.Seed,
		OMDbAPIKey:  omdbKey,
		OMDbBaseURL: omdbBase,
		IMDbBaseURL: imdbBase,
	}, nil
}

// pick 按优先级返回第一个非空值（都会 TrimSpace）。
func pick(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func validateProvider(p string) error {
	switch p {
	case "imdb", "omdb":
		return nil
	case "":
		return fmt.Errorf("provider 不能为空")
	default:
		return fmt.Errorf("provider 只能是 imdb 或 omdb，实际是 %q", p)
	}
}

func validateBaseURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", field, raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// readDotEnv 读取 <dir>/.env（可选），返回“进程环境优先、.env 兜底”的查找函数。
// 不修改进程环境。
func readDotEnv(dir string) (func(string) string, error) {
	vals, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			vals = nil
		} else {
			return nil, err
		}
	}
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return vals[key]
	}, nil
}
