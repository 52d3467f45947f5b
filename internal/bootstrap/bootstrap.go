package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/docstream/internal/config"
	"github.com/kirillkom/docstream/internal/core/ports"
	"github.com/kirillkom/docstream/internal/core/usecase"
	"github.com/kirillkom/docstream/internal/infrastructure/engine/ledongpdf"
	"github.com/kirillkom/docstream/internal/infrastructure/extractor/fullpage"
	"github.com/kirillkom/docstream/internal/infrastructure/fallback/vision"
	"github.com/kirillkom/docstream/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docstream/internal/infrastructure/report/excel"
	"github.com/kirillkom/docstream/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docstream/internal/infrastructure/resilience"
	"github.com/kirillkom/docstream/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue   ports.MessageQueue
	Repo    ports.DocumentRepository
	Storage ports.ObjectStorage
	Report  ports.ReportWriter

	IngestUC   ports.DocumentIngestor
	PipelineUC ports.DocumentPipeline
	AssessUC   ports.DocumentAssessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	engine := ledongpdf.New(logger)
	assessor := usecase.NewAssessDocumentUseCase(engine, logger).WithSamplePages(cfg.SamplePages)
	streamer := usecase.NewStreamer(engine, logger)
	extractor := fullpage.New()
	fallback := vision.New(cfg.FallbackURL, resilience.NewExecutor(resilience.RemoteCallPolicy()))

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	pipelineUC := usecase.NewProcessDocumentUseCase(engine, assessor, streamer, extractor, fallback, logger)
	assessUC := usecase.NewAssessJobUseCase(repo, storage, assessor)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:   queue,
		Repo:    repo,
		Storage: storage,
		Report:  excel.New(),

		IngestUC:   ingestUC,
		PipelineUC: pipelineUC,
		AssessUC:   assessUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
