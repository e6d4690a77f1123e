package svc

import (
	"errors"
	"fmt"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"github.com/VikasCh3108/Solar-AI/internal/cache"
	"github.com/VikasCh3108/Solar-AI/internal/config"
	"github.com/VikasCh3108/Solar-AI/internal/model"
	"github.com/VikasCh3108/Solar-AI/internal/repo"
	"github.com/VikasCh3108/Solar-AI/pkg/analysis"
	"github.com/VikasCh3108/Solar-AI/pkg/confkit"
	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/journal"
	llmpkg "github.com/VikasCh3108/Solar-AI/pkg/llm"
	"github.com/VikasCh3108/Solar-AI/pkg/rooftop"
	"github.com/VikasCh3108/Solar-AI/pkg/solar"
)

type ServiceContext struct {
	Config config.Config

	LLMConfig  *llmpkg.Config
	LLMClient  llmpkg.LLMClient
	Detector   rooftop.Detector
	Acquirer   *imagery.Acquirer
	Calculator *solar.Calculator
	Pipeline   *analysis.Pipeline

	// Optional stores, nil unless configured.
	Journal       *journal.Writer
	Redis         *redis.Redis
	DBConn        sqlx.SqlConn
	AnalysesModel model.AnalysesModel
	Analyses      *repo.AnalysesRepo
}

// Option overrides a dependency before the pipeline is assembled.
type Option func(*ServiceContext)

// WithDetector replaces the configured detector.
func WithDetector(d rooftop.Detector) Option {
	return func(s *ServiceContext) { s.Detector = d }
}

// WithLLMClient replaces the OpenAI client used in live mode.
func WithLLMClient(c llmpkg.LLMClient) Option {
	return func(s *ServiceContext) { s.LLMClient = c }
}

func NewServiceContext(c config.Config, mainConfigPath string, opts ...Option) *ServiceContext {
	svc, err := Build(c, mainConfigPath, opts...)
	if err != nil {
		log.Fatalf("failed to build service context: %v", err)
	}
	return svc
}

// Build wires the detector, stores and pipeline described by c.
func Build(c config.Config, mainConfigPath string, opts ...Option) (*ServiceContext, error) {
	svc := &ServiceContext{Config: c}
	for _, opt := range opts {
		opt(svc)
	}
	baseDir := confkit.BaseDir(mainConfigPath)

	if svc.Detector == nil {
		det, err := svc.buildDetector(baseDir)
		if err != nil {
			return nil, err
		}
		svc.Detector = det
	}

	var recorders []analysis.Recorder
	if dir := strings.TrimSpace(c.JournalDir); dir != "" {
		w, err := journal.NewWriter(dir)
		if err != nil {
			return nil, err
		}
		svc.Journal = w
		recorders = append(recorders, w)
	}

	// Only cache detections when a Redis host is configured.
	if c.CacheEnabled() {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		svc.Redis = rds
		svc.Detector = cache.NewCachedDetector(svc.Detector, rds, cache.NewTTLSet(c.TTL).Detection)
	}

	// Only persist analyses when a DSN is provided.
	if c.StoreEnabled() {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if db, err := conn.RawDB(); err == nil {
			db.SetMaxOpenConns(c.Postgres.MaxOpen)
			db.SetMaxIdleConns(c.Postgres.MaxIdle)
		} else {
			logx.Errorf("postgres pool settings not applied: %v", err)
		}
		svc.DBConn = conn
		svc.AnalysesModel = model.NewAnalysesModel(conn)
		svc.Analyses = repo.NewAnalysesRepo(svc.AnalysesModel)
		recorders = append(recorders, svc.Analyses)
	}

	svc.Acquirer = imagery.NewAcquirer(c.Imagery.Size,
		imagery.NewSatelliteFetcher(c.Imagery.Mapbox, c.Imagery.Size, nil))
	svc.Calculator = solar.NewCalculator(c.SolarConfig())
	svc.Pipeline = analysis.New(svc.Detector, svc.Calculator,
		analysis.WithRecorder(recorders...),
		analysis.WithLowConfidence(c.Vision.LowConfidence),
	)
	return svc, nil
}

func (s *ServiceContext) buildDetector(baseDir string) (rooftop.Detector, error) {
	c := s.Config
	if !c.IsLive() {
		return rooftop.NewMockDetector(), nil
	}

	if s.LLMClient == nil {
		if !c.LLM.Loaded() {
			return nil, errors.New("vision.mode=live requires the llm section")
		}
		llmCfg := c.LLM.Value.Clone()
		// Apply test environment defaults: use the low-cost vision model
		if c.IsTestEnv() && strings.TrimSpace(c.Vision.Model) == "" {
			llmCfg.DefaultModel = config.TestModel
		}
		client, err := llmpkg.NewClient(llmCfg, llmpkg.WithLogger(llmpkg.NewLogger(llmCfg.LogLevel)))
		if err != nil {
			return nil, fmt.Errorf("create llm client: %w", err)
		}
		s.LLMConfig = llmCfg
		s.LLMClient = client
	}

	prompts, err := s.loadPrompts(baseDir)
	if err != nil {
		return nil, err
	}
	return rooftop.NewVisionDetector(s.LLMClient, rooftop.VisionOptions{
		Model:     c.Vision.Model,
		MaxTokens: c.Vision.MaxTokens,
		ForceJSON: c.Vision.ForceJSON,
		Detail:    c.Vision.Detail,
	}, prompts)
}

func (s *ServiceContext) loadPrompts(baseDir string) (rooftop.Prompts, error) {
	dir := strings.TrimSpace(s.Config.Vision.PromptDir)
	if dir == "" {
		return rooftop.DefaultPromptSet()
	}
	prompts, err := rooftop.LoadPrompts(confkit.ResolvePath(baseDir, dir))
	if err != nil {
		return rooftop.Prompts{}, fmt.Errorf("load vision prompts: %w", err)
	}
	return prompts, nil
}

// VisionMode reports the detector mode for health checks.
func (s *ServiceContext) VisionMode() string {
	return s.Config.Vision.Mode
}

// Close releases the LLM client.
func (s *ServiceContext) Close() error {
	if s.LLMClient != nil {
		return s.LLMClient.Close()
	}
	return nil
}
