package transcription

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/internal/domain/repositories"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/cache"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/media"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/storage"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/attribution"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/report"
	"github.com/karlis-benefelds/forum-transcriber/pkg/config"
	"github.com/karlis-benefelds/forum-transcriber/pkg/engine"
	"github.com/karlis-benefelds/forum-transcriber/pkg/jobcontext"
	"github.com/karlis-benefelds/forum-transcriber/pkg/monitor"
)

// SessionFetcher supplies the class session data (voice windows,
// timeline, attendance) for a job.
type SessionFetcher interface {
	FetchSession(ctx context.Context, classID string) (*entities.ClassSession, error)
}

// AudioPreparer resolves a recording into a normalized local audio
// track. Implemented by the media layer.
type AudioPreparer interface {
	Prepare(ctx context.Context, recordingURL string) (AudioTrack, error)
}

// ffmpegPreparer prepares audio with ffmpeg/ffprobe.
type ffmpegPreparer struct {
	workDir string
}

// NewAudioPreparer creates the default ffmpeg-backed preparer.
func NewAudioPreparer(workDir string) AudioPreparer {
	return &ffmpegPreparer{workDir: workDir}
}

func (p *ffmpegPreparer) Prepare(ctx context.Context, recordingURL string) (AudioTrack, error) {
	path, err := media.ExtractAudio(ctx, recordingURL, p.workDir)
	if err != nil {
		return AudioTrack{}, fmt.Errorf("normalize recording: %w", err)
	}
	duration, err := media.ProbeDuration(ctx, path)
	if err != nil {
		return AudioTrack{}, fmt.Errorf("probe duration: %w", err)
	}
	return AudioTrack{Path: path, DurationSeconds: duration}, nil
}

// Service owns transcription jobs end to end: accepting them, running
// the pipeline on a background worker pool, and persisting results.
type Service struct {
	cfg            *config.Config
	profile        engine.AcceleratorProfile
	jobRepo        repositories.JobRepository
	transcriptRepo repositories.TranscriptRepository
	sessions       SessionFetcher
	preparer       AudioPreparer
	orchestrator   *Orchestrator
	attributor     *attribution.Attributor
	reporter       *report.Generator
	artifacts      *storage.ArtifactStore
	progress       *cache.ProgressCache
	monitor        *monitor.Monitor
	logger         *zap.Logger

	workerMutex         sync.Mutex
	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
}

// NewService wires the transcription service. artifacts and monitor may
// be nil; the pipeline tolerates their absence.
func NewService(
	cfg *config.Config,
	profile engine.AcceleratorProfile,
	jobRepo repositories.JobRepository,
	transcriptRepo repositories.TranscriptRepository,
	sessions SessionFetcher,
	preparer AudioPreparer,
	orchestrator *Orchestrator,
	attributor *attribution.Attributor,
	reporter *report.Generator,
	artifacts *storage.ArtifactStore,
	progress *cache.ProgressCache,
	mon *monitor.Monitor,
	logger *zap.Logger,
) *Service {
	return &Service{
		cfg:            cfg,
		profile:        profile,
		jobRepo:        jobRepo,
		transcriptRepo: transcriptRepo,
		sessions:       sessions,
		preparer:       preparer,
		orchestrator:   orchestrator,
		attributor:     attributor,
		reporter:       reporter,
		artifacts:      artifacts,
		progress:       progress,
		monitor:        mon,
		logger:         logger,
	}
}

// CreateJob validates the configuration, applies defaults and enqueues
// a new pending job.
func (s *Service) CreateJob(ctx context.Context, classID, recordingURL string, jobCfg entities.JobConfig) (*entities.TranscriptionJob, error) {
	if jobCfg.ModelSize == "" {
		jobCfg.ModelSize = s.cfg.Engine.DefaultModelSize
	}
	if jobCfg.SegmentLengthSeconds == 0 {
		jobCfg.SegmentLengthSeconds = int(s.cfg.Pipeline.SegmentLengthSeconds)
	}
	if jobCfg.MaxWorkers == 0 {
		jobCfg.MaxWorkers = s.cfg.Pipeline.MaxWorkers
	}
	if jobCfg.PrivacyMode == "" {
		jobCfg.PrivacyMode = s.cfg.Pipeline.PrivacyMode
	}
	if err := ValidateConfig(jobCfg); err != nil {
		return nil, err
	}

	job := entities.NewTranscriptionJob(classID, recordingURL, jobCfg)
	job.MaxRetries = s.cfg.Pipeline.JobMaxRetries
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("📋 Job enqueued",
			zap.String("job_id", job.ID.String()),
			zap.String("class_id", classID),
			zap.String("model", jobCfg.ModelSize))
	}
	return job, nil
}

// GetJob returns a job with its live progress snapshot, if any.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*entities.TranscriptionJob, *cache.JobProgress, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, entities.ErrJobNotFound
	}

	var snapshot *cache.JobProgress
	if s.progress != nil {
		if p, ok, err := s.progress.Fetch(ctx, id); err == nil && ok {
			snapshot = p
		}
	}
	return job, snapshot, nil
}

// ListJobs returns jobs filtered by class or status. At least one
// filter is required.
func (s *Service) ListJobs(ctx context.Context, classID string, status entities.JobStatus) ([]entities.TranscriptionJob, error) {
	switch {
	case classID != "":
		return s.jobRepo.FindByClassID(ctx, classID)
	case status != "":
		return s.jobRepo.FindByStatus(ctx, status)
	default:
		return nil, fmt.Errorf("%w: class_id or status filter required", entities.ErrInvalidRequest)
	}
}

// GetTranscript returns the transcript and attributed turns of a
// completed job.
func (s *Service) GetTranscript(ctx context.Context, jobID uuid.UUID) (*entities.Transcript, []entities.SpeakerTurn, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, entities.ErrJobNotFound
	}
	if job.Status != entities.JobStatusCompleted {
		return nil, nil, entities.ErrJobNotCompleted
	}

	transcript, err := s.transcriptRepo.FindByJobID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if transcript == nil {
		return nil, nil, entities.ErrTranscriptNotFound
	}
	turns, err := s.transcriptRepo.FindTurns(ctx, transcript.ID)
	if err != nil {
		return nil, nil, err
	}
	return transcript, turns, nil
}

// GetReportCSV returns the stored CSV report of a completed job,
// regenerating it when the artifact store has no copy.
func (s *Service) GetReportCSV(ctx context.Context, jobID uuid.UUID) ([]byte, error) {
	if s.artifacts != nil {
		if data, err := s.artifacts.Download(ctx, storage.ReportKey(jobID)); err == nil {
			return data, nil
		}
	}

	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, entities.ErrJobNotFound
	}
	_, turns, err := s.GetTranscript(ctx, jobID)
	if err != nil {
		return nil, err
	}
	session := job.Session
	if session == nil {
		session, err = s.sessions.FetchSession(ctx, job.ClassID)
		if err != nil {
			return nil, fmt.Errorf("fetch session for report: %w", err)
		}
	}
	return s.reporter.GenerateCSV(session, turns, entities.PrivacyMode(job.Config.PrivacyMode))
}

// StartWorkerPool launches the background workers that claim and run
// pending jobs.
func (s *Service) StartWorkerPool(ctx context.Context) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}

	s.workerStopChan = make(chan struct{})
	s.isWorkerPoolRunning = true

	workers := s.cfg.Pipeline.MaxConcurrentJobs
	if workers < 1 {
		workers = 1
	}
	if s.logger != nil {
		s.logger.Info("🚀 Starting transcription worker pool",
			zap.Int("workers", workers),
			zap.Duration("poll_interval", s.cfg.Pipeline.PollInterval))
	}

	for i := 0; i < workers; i++ {
		s.workerWg.Add(1)
		go s.jobWorker(ctx, i)
	}
	return nil
}

// StopWorkerPool gracefully stops all worker goroutines.
func (s *Service) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping transcription worker pool...")
	}

	close(s.workerStopChan)
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Transcription worker pool stopped")
	}
	return nil
}

// jobWorker polls for claimable jobs and runs the pipeline on each.
func (s *Service) jobWorker(parentCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.cfg.Pipeline.PollInterval)
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			}
			return

		case <-ticker.C:
			s.pollOnce(parentCtx, workerID)
		}
	}
}

func (s *Service) pollOnce(parentCtx context.Context, workerID int) {
	for _, status := range []entities.JobStatus{entities.JobStatusPending, entities.JobStatusRetrying} {
		jobs, err := s.jobRepo.FindByStatus(parentCtx, status)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("❌ Failed to poll jobs",
					zap.Int("worker_id", workerID),
					zap.Error(err))
			}
			return
		}
		if len(jobs) == 0 {
			continue
		}

		job := jobs[0]

		// Atomic claim: only one worker wins when several see the job.
		claimed, err := s.jobRepo.ClaimPending(parentCtx, job.ID)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("❌ Failed to claim job",
					zap.String("job_id", job.ID.String()),
					zap.Error(err))
			}
			return
		}
		if !claimed {
			if s.logger != nil {
				s.logger.Info("⏭️ Job already claimed by another worker",
					zap.String("job_id", job.ID.String()))
			}
			continue
		}

		// The claim updated the stored row; mirror it on the local copy so
		// later full-record updates do not clobber status or started_at.
		job.MarkAsTranscribing()

		if s.logger != nil {
			s.logger.Info("👷 Worker claimed job",
				zap.Int("worker_id", workerID),
				zap.String("job_id", job.ID.String()),
				zap.String("class_id", job.ClassID))
		}

		jobCtx, cancel := jobcontext.JobBegin(parentCtx, job.ID, "transcription", workerID, 0)
		err = s.processJob(jobCtx, &job)
		cancel()

		s.finishJob(parentCtx, &job, err)
		return
	}
}

// processJob runs one job end to end: session fetch, audio prep,
// segmented transcription, attribution, persistence, artifacts.
func (s *Service) processJob(ctx context.Context, job *entities.TranscriptionJob) error {
	session, err := s.sessions.FetchSession(ctx, job.ClassID)
	if err != nil {
		return fmt.Errorf("fetch session: %w", err)
	}
	job.Session = session

	track, err := s.preparer.Prepare(ctx, job.RecordingURL)
	if err != nil {
		return err
	}

	// A quality target overrides the configured model once the real
	// duration is known.
	runCfg := job.Config
	if runCfg.TargetQuality != "" {
		rec := engine.RecommendModelSize(s.profile, track.DurationSeconds/60.0, runCfg.TargetQuality)
		runCfg.ModelSize = rec.ModelSize
		if s.logger != nil {
			s.logger.Info("🧠 Model selected for quality target",
				zap.String("job_id", job.ID.String()),
				zap.String("target", rec.TargetQuality),
				zap.String("model", rec.ModelSize),
				zap.Float64("estimated_minutes", rec.EstimatedTimeMinutes))
		}
	}

	s.monitor.Start()
	defer s.monitor.Stop()

	s.publishProgress(ctx, job.ID, "transcribing", 0, 0, 0)

	transcript, stats, err := s.orchestrator.Run(ctx, track, runCfg, func(done, total int) {
		fraction := float64(done) / float64(total)
		s.monitor.UpdateProgress(fraction)
		s.publishProgress(ctx, job.ID, "transcribing", fraction, done, total)
	})
	if err != nil {
		return err
	}

	transcript.ID = uuid.New()
	transcript.JobID = job.ID
	transcript.ClassID = job.ClassID
	transcript.CreatedAt = time.Now()
	if err := s.transcriptRepo.Create(ctx, transcript); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}

	job.MarkAsAttributing(transcript.ID)
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	s.publishProgress(ctx, job.ID, "attributing", 1, stats.SubrangeCount, stats.SubrangeCount)

	turns, attrStats := s.attributor.Attribute(transcript, session.VoiceWindows, entities.PrivacyMode(job.Config.PrivacyMode))
	for i := range turns {
		turns[i].ID = uuid.New()
		turns[i].TranscriptID = transcript.ID
	}
	if err := s.transcriptRepo.CreateTurns(ctx, turns); err != nil {
		return fmt.Errorf("persist speaker turns: %w", err)
	}

	s.storeArtifacts(ctx, job, session, transcript, turns)

	job.Metadata = entities.JobMetadata{
		DurationSeconds:     track.DurationSeconds,
		SubrangeCount:       stats.SubrangeCount,
		FailedSubranges:     stats.FailedSubranges,
		SkippedVoiceWindows: attrStats.SkippedWindows,
		TurnCount:           len(turns),
		ProcessingTimeMs:    int64(transcript.ProcessingTimeSeconds * 1000),
	}
	return nil
}

// storeArtifacts uploads the transcript JSON and CSV report. Artifact
// failures are logged, never fatal: the database copy is authoritative.
func (s *Service) storeArtifacts(ctx context.Context, job *entities.TranscriptionJob, session *entities.ClassSession, transcript *entities.Transcript, turns []entities.SpeakerTurn) {
	if s.artifacts == nil {
		return
	}

	if err := s.artifacts.UploadJSON(ctx, storage.TranscriptKey(job.ID), transcript); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to store transcript artifact",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}

	csvData, err := s.reporter.GenerateCSV(session, turns, entities.PrivacyMode(job.Config.PrivacyMode))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Failed to generate CSV report",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
		return
	}
	if err := s.artifacts.UploadCSV(ctx, storage.ReportKey(job.ID), csvData); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to store CSV report",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
}

// finishJob records the outcome, scheduling a retry when allowed.
func (s *Service) finishJob(ctx context.Context, job *entities.TranscriptionJob, runErr error) {
	if runErr == nil {
		job.MarkAsCompleted()
		if err := s.jobRepo.Update(ctx, job); err != nil && s.logger != nil {
			s.logger.Error("❌ Failed to mark job completed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err))
		}
		if s.progress != nil {
			s.progress.Clear(ctx, job.ID)
		}
		if s.logger != nil {
			s.logger.Info("✅ Job completed successfully",
				zap.String("job_id", job.ID.String()),
				zap.Int("turns", job.Metadata.TurnCount))
		}
		return
	}

	if job.RetryCount < job.MaxRetries && jobcontext.IsRetryableError(runErr) {
		job.IncrementRetry(runErr.Error())
		if s.logger != nil {
			s.logger.Warn("🔁 Job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Error(runErr))
		}
	} else {
		job.MarkAsFailed(runErr.Error())
		if s.logger != nil {
			s.logger.Error("❌ Job failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(runErr))
		}
	}
	if err := s.jobRepo.Update(ctx, job); err != nil && s.logger != nil {
		s.logger.Error("❌ Failed to record job outcome",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
}

func (s *Service) publishProgress(ctx context.Context, jobID uuid.UUID, stage string, fraction float64, done, total int) {
	if s.progress == nil {
		return
	}
	// Progress publishing is best-effort instrumentation.
	_ = s.progress.Publish(ctx, jobID, cache.JobProgress{
		Stage:             stage,
		Fraction:          fraction,
		CompletedSegments: done,
		TotalSegments:     total,
	})
}
