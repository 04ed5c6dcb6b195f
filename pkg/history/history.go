package history

import (
	"errors"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"minestats/pkg/github"
	"minestats/pkg/logger"
)

// Measurement 写入 InfluxDB 的 measurement 名称
const Measurement = "github_stats"

// Config 历史记录配置
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

// DefaultConfig 默认关闭
func DefaultConfig() Config {
	return Config{
		URL:    "http://localhost:8086",
		Org:    "minestats",
		Bucket: "github_stats",
	}
}

// Validate 验证配置，未启用时不检查
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return errors.New("history url cannot be empty")
	}
	if c.Org == "" {
		return errors.New("history org cannot be empty")
	}
	if c.Bucket == "" {
		return errors.New("history bucket cannot be empty")
	}
	return nil
}

// Recorder 记录每一次新获取的用户统计
type Recorder interface {
	Record(stats github.UserGithubStats)
	Close()
}

// Noop 不做任何事的 Recorder
type Noop struct{}

func (Noop) Record(github.UserGithubStats) {}
func (Noop) Close()                        {}

// New 按配置创建 Recorder，未启用时返回 Noop
func New(cfg Config) Recorder {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewInfluxRecorder(cfg)
}

// InfluxRecorder 异步写入 InfluxDB，写入失败只记录日志
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      *logrus.Entry

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInfluxRecorder 创建 InfluxDB 记录器
func NewInfluxRecorder(cfg Config) *InfluxRecorder {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	r := &InfluxRecorder{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		log:      logger.WithComponent("history"),
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.handleWriteErrors()

	r.log.WithFields(logrus.Fields{
		"url":    cfg.URL,
		"org":    cfg.Org,
		"bucket": cfg.Bucket,
	}).Info("history recorder enabled")
	return r
}

// Record 写入一个数据点
func (r *InfluxRecorder) Record(stats github.UserGithubStats) {
	r.writeAPI.WritePoint(Point(stats))
}

// Close 刷新剩余数据并关闭客户端
func (r *InfluxRecorder) Close() {
	r.closeOnce.Do(func() {
		r.writeAPI.Flush()
		close(r.done)
		r.wg.Wait()
		r.client.Close()
	})
}

func (r *InfluxRecorder) handleWriteErrors() {
	defer r.wg.Done()
	errorsCh := r.writeAPI.Errors()
	for {
		select {
		case <-r.done:
			return
		case err := <-errorsCh:
			r.log.WithError(err).Error("InfluxDB write error")
		}
	}
}

// Point 把用户统计转换为数据点，时间取统计的创建时间
func Point(stats github.UserGithubStats) *write.Point {
	ts := stats.CreateAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("login", stats.Login).
		AddTag("rank", stats.Rank.Level).
		AddField("stars", stats.Stars).
		AddField("commits", stats.Commits).
		AddField("repos", stats.Repos).
		AddField("prs", stats.PRs).
		AddField("issues", stats.Issues).
		AddField("contribs", stats.Contribs).
		AddField("followers", stats.Followers).
		AddField("score", int64(stats.Rank.Score)).
		SetTime(ts)
}
