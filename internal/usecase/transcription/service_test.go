package transcription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/cache"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/attribution"
	"github.com/karlis-benefelds/forum-transcriber/internal/usecase/report"
	"github.com/karlis-benefelds/forum-transcriber/pkg/config"
	"github.com/karlis-benefelds/forum-transcriber/pkg/engine"
)

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entities.TranscriptionJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]*entities.TranscriptionJob)}
}

func (r *memJobRepo) Create(_ context.Context, job *entities.TranscriptionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memJobRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.TranscriptionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) FindByStatus(_ context.Context, status entities.JobStatus) ([]entities.TranscriptionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.TranscriptionJob
	for _, job := range r.jobs {
		if job.Status == status {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *memJobRepo) FindByClassID(_ context.Context, classID string) ([]entities.TranscriptionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.TranscriptionJob
	for _, job := range r.jobs {
		if job.ClassID == classID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *memJobRepo) Update(_ context.Context, job *entities.TranscriptionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memJobRepo) ClaimPending(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	if job.Status != entities.JobStatusPending && job.Status != entities.JobStatusRetrying {
		return false, nil
	}
	job.MarkAsTranscribing()
	return true, nil
}

type memTranscriptRepo struct {
	mu          sync.Mutex
	transcripts map[uuid.UUID]*entities.Transcript
	turns       map[uuid.UUID][]entities.SpeakerTurn
}

func newMemTranscriptRepo() *memTranscriptRepo {
	return &memTranscriptRepo{
		transcripts: make(map[uuid.UUID]*entities.Transcript),
		turns:       make(map[uuid.UUID][]entities.SpeakerTurn),
	}
}

func (r *memTranscriptRepo) Create(_ context.Context, transcript *entities.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *transcript
	r.transcripts[transcript.ID] = &copied
	return nil
}

func (r *memTranscriptRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transcripts[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *memTranscriptRepo) FindByJobID(_ context.Context, jobID uuid.UUID) (*entities.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transcripts {
		if t.JobID == jobID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memTranscriptRepo) CreateTurns(_ context.Context, turns []entities.SpeakerTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, turn := range turns {
		r.turns[turn.TranscriptID] = append(r.turns[turn.TranscriptID], turn)
	}
	return nil
}

func (r *memTranscriptRepo) FindTurns(_ context.Context, transcriptID uuid.UUID) ([]entities.SpeakerTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.SpeakerTurn(nil), r.turns[transcriptID]...), nil
}

type stubSessions struct {
	session *entities.ClassSession
	err     error
}

func (s *stubSessions) FetchSession(_ context.Context, classID string) (*entities.ClassSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type stubPreparer struct {
	track AudioTrack
	err   error
}

func (p *stubPreparer) Prepare(_ context.Context, recordingURL string) (AudioTrack, error) {
	return p.track, p.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Engine.DefaultModelSize = "base"
	cfg.Pipeline.SegmentLengthSeconds = 1800
	cfg.Pipeline.MaxWorkers = 2
	cfg.Pipeline.MaxConcurrentJobs = 1
	cfg.Pipeline.JobMaxRetries = 2
	cfg.Pipeline.PrivacyMode = "names"
	cfg.Pipeline.PollInterval = 10 * time.Millisecond
	return cfg
}

func newTestService(t *testing.T, eng engine.Engine, sessions SessionFetcher, preparer AudioPreparer) (*Service, *memJobRepo, *memTranscriptRepo) {
	jobRepo := newMemJobRepo()
	transcriptRepo := newMemTranscriptRepo()
	progress := cache.NewProgressCache(cache.NewMemoryStore())

	svc := NewService(
		testConfig(),
		engine.AcceleratorProfile{Device: "cpu", MemoryBudgetGB: 8},
		jobRepo,
		transcriptRepo,
		sessions,
		preparer,
		newTestOrchestrator(t, eng),
		attribution.New(attribution.Options{}, nil),
		report.NewGenerator(nil),
		nil,
		progress,
		nil,
		nil,
	)
	return svc, jobRepo, transcriptRepo
}

func defaultSession() *entities.ClassSession {
	return &entities.ClassSession{
		ClassID:        "4821",
		SessionTitle:   "Session 4821",
		RecordingStart: "2026-02-10T14:00:00Z",
		VoiceWindows: []entities.VoiceWindow{
			{Start: 0, End: 200, Speaker: entities.SpeakerIdentity{ID: 7, FirstName: "Alice", LastName: "Ng"}},
		},
		Attendance: []entities.AttendanceItem{{Name: "Alice Ng", ID: 7}},
	}
}

func TestCreateJobAppliesDefaults(t *testing.T) {
	svc, jobRepo, _ := newTestService(t, &rangeKeyedEngine{}, &stubSessions{}, &stubPreparer{})

	job, err := svc.CreateJob(context.Background(), "4821", "https://forum/recording.mp4", entities.JobConfig{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if job.Config.ModelSize != "base" {
		t.Errorf("model size = %q, want base", job.Config.ModelSize)
	}
	if job.Config.SegmentLengthSeconds != 1800 {
		t.Errorf("segment length = %d, want 1800", job.Config.SegmentLengthSeconds)
	}
	if job.Config.PrivacyMode != "names" {
		t.Errorf("privacy mode = %q, want names", job.Config.PrivacyMode)
	}
	if job.MaxRetries != 2 {
		t.Errorf("max retries = %d, want 2", job.MaxRetries)
	}

	stored, _ := jobRepo.FindByID(context.Background(), job.ID)
	if stored == nil || stored.Status != entities.JobStatusPending {
		t.Errorf("stored job = %+v, want pending", stored)
	}
}

func TestCreateJobRejectsInvalidConfig(t *testing.T) {
	svc, _, _ := newTestService(t, &rangeKeyedEngine{}, &stubSessions{}, &stubPreparer{})

	_, err := svc.CreateJob(context.Background(), "4821", "url", entities.JobConfig{ModelSize: "enormous"})
	if !errors.Is(err, entities.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestProcessJobEndToEnd(t *testing.T) {
	eng := &rangeKeyedEngine{resultsByPath: map[string]*engine.Result{
		rangeKey(0): {Segments: []engine.Segment{
			{Start: 10, End: 14, Text: "Welcome to the lecture."},
			{Start: 15, End: 20, Text: "Today we cover graphs."},
		}},
		rangeKey(1800): {Segments: []engine.Segment{
			{Start: 100, End: 105, Text: "Any questions so far?"},
		}},
	}}
	sessions := &stubSessions{session: defaultSession()}
	preparer := &stubPreparer{track: AudioTrack{Path: "lecture.wav", DurationSeconds: 3600}}
	svc, jobRepo, transcriptRepo := newTestService(t, eng, sessions, preparer)

	ctx := context.Background()
	job, err := svc.CreateJob(ctx, "4821", "https://forum/recording.mp4", entities.JobConfig{Parallel: true})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	claimed, err := jobRepo.ClaimPending(ctx, job.ID)
	if err != nil || !claimed {
		t.Fatalf("claim failed: claimed=%v err=%v", claimed, err)
	}
	job, _ = jobRepo.FindByID(ctx, job.ID)

	runErr := svc.processJob(ctx, job)
	svc.finishJob(ctx, job, runErr)
	if runErr != nil {
		t.Fatalf("processJob failed: %v", runErr)
	}

	stored, _ := jobRepo.FindByID(ctx, job.ID)
	if stored.Status != entities.JobStatusCompleted {
		t.Fatalf("job status = %s, want completed", stored.Status)
	}
	if stored.Metadata.SubrangeCount != 2 || stored.Metadata.FailedSubranges != 0 {
		t.Errorf("metadata = %+v", stored.Metadata)
	}
	if stored.Metadata.TurnCount == 0 {
		t.Error("expected at least one attributed turn in metadata")
	}
	if stored.Metadata.DurationSeconds != 3600 {
		t.Errorf("duration = %v, want 3600", stored.Metadata.DurationSeconds)
	}

	transcript, _ := transcriptRepo.FindByJobID(ctx, job.ID)
	if transcript == nil {
		t.Fatal("transcript not persisted")
	}
	if len(transcript.Segments) != 3 {
		t.Errorf("persisted segments = %d, want 3", len(transcript.Segments))
	}

	turns, _ := transcriptRepo.FindTurns(ctx, transcript.ID)
	if len(turns) == 0 {
		t.Fatal("no speaker turns persisted")
	}
	for _, turn := range turns {
		if turn.Start < 200 && turn.Speaker != "Alice Ng" {
			t.Errorf("turn inside Alice's window attributed to %q", turn.Speaker)
		}
		if turn.TranscriptID != transcript.ID {
			t.Errorf("turn not linked to transcript: %+v", turn)
		}
	}
}

func TestPollOnceKeepsClaimTimestamp(t *testing.T) {
	eng := &rangeKeyedEngine{resultsByPath: map[string]*engine.Result{
		rangeKey(0): {Segments: []engine.Segment{
			{Start: 5, End: 9, Text: "Let's get started."},
		}},
	}}
	sessions := &stubSessions{session: defaultSession()}
	preparer := &stubPreparer{track: AudioTrack{Path: "lecture.wav", DurationSeconds: 900}}
	svc, jobRepo, _ := newTestService(t, eng, sessions, preparer)

	ctx := context.Background()
	job, err := svc.CreateJob(ctx, "4821", "https://forum/recording.mp4", entities.JobConfig{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	svc.pollOnce(ctx, 1)

	stored, _ := jobRepo.FindByID(ctx, job.ID)
	if stored.Status != entities.JobStatusCompleted {
		t.Fatalf("job status = %s, want completed", stored.Status)
	}
	if stored.StartedAt == nil {
		t.Error("started_at lost: the claim timestamp must survive later job updates")
	}
	if stored.CompletedAt == nil {
		t.Error("completed_at not recorded")
	}
}

func TestFinishJobRetriesTransientFailure(t *testing.T) {
	svc, jobRepo, _ := newTestService(t, &rangeKeyedEngine{}, &stubSessions{}, &stubPreparer{})

	ctx := context.Background()
	job, err := svc.CreateJob(ctx, "4821", "url", entities.JobConfig{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	svc.finishJob(ctx, job, errors.New("fetch session: connection refused"))
	stored, _ := jobRepo.FindByID(ctx, job.ID)
	if stored.Status != entities.JobStatusRetrying {
		t.Errorf("status = %s, want retrying", stored.Status)
	}
	if stored.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", stored.RetryCount)
	}

	// Exhaust the retry budget.
	svc.finishJob(ctx, stored, errors.New("fetch session: connection refused"))
	svc.finishJob(ctx, stored, errors.New("fetch session: connection refused"))
	stored, _ = jobRepo.FindByID(ctx, job.ID)
	if stored.Status != entities.JobStatusFailed {
		t.Errorf("status after exhausted retries = %s, want failed", stored.Status)
	}
}

func TestFinishJobPermanentFailureSkipsRetry(t *testing.T) {
	svc, jobRepo, _ := newTestService(t, &rangeKeyedEngine{}, &stubSessions{}, &stubPreparer{})

	ctx := context.Background()
	job, err := svc.CreateJob(ctx, "4821", "url", entities.JobConfig{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	// Empty transcript is an input problem, retrying cannot fix it.
	svc.finishJob(ctx, job, entities.ErrEmptyTranscript)
	stored, _ := jobRepo.FindByID(ctx, job.ID)
	if stored.Status != entities.JobStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if stored.RetryCount != 0 {
		t.Errorf("retry count = %d, want 0", stored.RetryCount)
	}
	if stored.LastError == nil {
		t.Error("last error not recorded")
	}
}

func TestGetTranscriptRequiresCompletedJob(t *testing.T) {
	svc, _, _ := newTestService(t, &rangeKeyedEngine{}, &stubSessions{}, &stubPreparer{})

	ctx := context.Background()
	job, err := svc.CreateJob(ctx, "4821", "url", entities.JobConfig{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	if _, _, err := svc.GetTranscript(ctx, job.ID); !errors.Is(err, entities.ErrJobNotCompleted) {
		t.Errorf("expected ErrJobNotCompleted, got %v", err)
	}
	if _, _, err := svc.GetTranscript(ctx, uuid.New()); !errors.Is(err, entities.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestGetJobReportsProgressSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t, &rangeKeyedEngine{}, &stubSessions{}, &stubPreparer{})

	ctx := context.Background()
	job, err := svc.CreateJob(ctx, "4821", "url", entities.JobConfig{})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	svc.publishProgress(ctx, job.ID, "transcribing", 0.5, 1, 2)

	_, snapshot, err := svc.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if snapshot == nil {
		t.Fatal("expected a progress snapshot")
	}
	if snapshot.Stage != "transcribing" || snapshot.CompletedSegments != 1 || snapshot.TotalSegments != 2 {
		t.Errorf("snapshot = %+v", snapshot)
	}
}
