package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/service"
)

func TestSQLiteStorage_CreateJob(t *testing.T) {
	tests := []struct {
		job     *model.Job
		wantErr error
		name    string
	}{
		{name: "defaults filled in", job: &model.Job{SourceName: "report.pdf"}},
		{name: "explicit id", job: &model.Job{ID: "job-1", SourceName: "report.pdf", Status: model.JobStatusProcessing}},
		{name: "nil job", job: nil, wantErr: ErrNilParameter},
		{name: "missing source", job: &model.Job{}, wantErr: ErrInvalidJob},
		{name: "bad status", job: &model.Job{SourceName: "x", Status: "exploded"}, wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			err := store.CreateJob(ctx, tt.job)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateJob() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateJob() error = %v", err)
			}

			if tt.job.ID == "" {
				t.Error("CreateJob() did not assign an ID")
			}
			if tt.job.CreatedAt.IsZero() {
				t.Error("CreateJob() did not set CreatedAt")
			}

			got, err := store.GetJob(ctx, tt.job.ID)
			if err != nil {
				t.Fatalf("GetJob() error = %v", err)
			}
			if got.SourceName != tt.job.SourceName || got.Status != tt.job.Status {
				t.Errorf("GetJob() = %+v, want %+v", got, tt.job)
			}
			if !got.CreatedAt.Equal(tt.job.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, tt.job.CreatedAt)
			}
		})
	}
}

func TestSQLiteStorage_CreateJobDuplicateID(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.CreateJob(ctx, &model.Job{ID: "same", SourceName: "a.pdf"}); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	err := store.CreateJob(ctx, &model.Job{ID: "same", SourceName: "b.pdf"})
	if !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("CreateJob() error = %v, want %v", err, common.ErrDuplicateEntry)
	}
}

func TestSQLiteStorage_GetJobNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetJob(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetJob() error = %v, want %v", err, common.ErrNotFound)
	}
}

func TestSQLiteStorage_UpdateJobStatus(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	job := createTestJob(t, store, "report.pdf")

	if err := store.UpdateJobStatus(ctx, job.ID, model.JobStatusProcessing, ""); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	got, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != model.JobStatusProcessing || got.CompletedAt != nil {
		t.Errorf("processing job = %+v", got)
	}

	if err := store.UpdateJobStatus(ctx, job.ID, model.JobStatusFailed, "model unavailable"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	got, err = store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != model.JobStatusFailed {
		t.Errorf("Status = %q, want %q", got.Status, model.JobStatusFailed)
	}
	if got.Error != "model unavailable" {
		t.Errorf("Error = %q, want %q", got.Error, "model unavailable")
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set for failed job")
	}

	if err := store.UpdateJobStatus(ctx, "missing", model.JobStatusCompleted, ""); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("UpdateJobStatus(missing) error = %v, want %v", err, common.ErrNotFound)
	}
	if err := store.UpdateJobStatus(ctx, job.ID, "bogus", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("UpdateJobStatus(bogus) error = %v, want %v", err, ErrInvalidStatus)
	}
}

func TestSQLiteStorage_ListJobs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []model.JobStatus{
		model.JobStatusCompleted,
		model.JobStatusFailed,
		model.JobStatusCompleted,
		model.JobStatusPending,
	} {
		job := &model.Job{
			ID:         string(rune('a' + i)),
			SourceName: "report.pdf",
			Status:     status,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob() error = %v", err)
		}
	}

	before := base.Add(2 * time.Hour)
	tests := []struct {
		name   string
		filter service.JobFilter
		want   []string
	}{
		{name: "all newest first", filter: service.JobFilter{}, want: []string{"d", "c", "b", "a"}},
		{name: "by status", filter: service.JobFilter{Status: model.JobStatusCompleted}, want: []string{"c", "a"}},
		{name: "before", filter: service.JobFilter{Before: &before}, want: []string{"b", "a"}},
		{name: "paged", filter: service.JobFilter{Limit: 2, Offset: 1}, want: []string{"c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			var ids []string
			for _, j := range jobs {
				ids = append(ids, j.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ListJobs() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ListJobs() = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}
}

func TestSQLiteStorage_FindJobBySourceHash(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	job := createTestJob(t, store, "report.pdf")
	if _, err := store.FindJobBySourceHash(ctx, job.SourceHash); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("pending job should not match, got %v", err)
	}

	if err := store.UpdateJobStatus(ctx, job.ID, model.JobStatusCompleted, ""); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	got, err := store.FindJobBySourceHash(ctx, job.SourceHash)
	if err != nil {
		t.Fatalf("FindJobBySourceHash() error = %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("FindJobBySourceHash() = %s, want %s", got.ID, job.ID)
	}
}

func TestSQLiteStorage_DeleteJobsBefore(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	oldJob := &model.Job{SourceName: "old.pdf", Status: model.JobStatusCompleted, CreatedAt: old}
	busyJob := &model.Job{SourceName: "busy.pdf", Status: model.JobStatusProcessing, CreatedAt: old}
	for _, job := range []*model.Job{oldJob, busyJob} {
		if err := store.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob() error = %v", err)
		}
	}
	if err := store.SaveResult(ctx, sampleResult(oldJob.ID)); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	recent := createTestJob(t, store, "new.pdf")

	deleted, err := store.DeleteJobsBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteJobsBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteJobsBefore() = %d, want 1", deleted)
	}

	if _, err := store.GetJob(ctx, oldJob.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("old job still present: %v", err)
	}
	if _, err := store.GetResult(ctx, oldJob.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("old result still present: %v", err)
	}
	var orphans int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM tradelines WHERE job_id = ?`, oldJob.ID).Scan(&orphans); err != nil {
		t.Fatalf("count tradelines: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d tradelines left for deleted job", orphans)
	}
	for _, id := range []string{busyJob.ID, recent.ID} {
		if _, err := store.GetJob(ctx, id); err != nil {
			t.Errorf("job %s should be kept: %v", id, err)
		}
	}
}
