package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clipforge/domain/model"
)

type JobRepositoryMSSQL struct{ db *sql.DB }

func NewJobRepositoryMSSQL(db *sql.DB) *JobRepositoryMSSQL { return &JobRepositoryMSSQL{db: db} }

func (r *JobRepositoryMSSQL) Create(ctx context.Context, j *model.ClipJob) error {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO clip_jobs (`+jobColumns+`) VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11)`,
		j.ID, j.UserID, j.SourceURL, j.SourceTitle, j.DurationSecs, j.Status, j.Progress, j.ClipCount, j.ErrorMessage, j.CreatedAt, j.UpdatedAt)
	return err
}

func (r *JobRepositoryMSSQL) GetByID(ctx context.Context, id string) (*model.ClipJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM clip_jobs WHERE id=@p1`, id)
	j, err := scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

func (r *JobRepositoryMSSQL) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ClipJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p2) `+jobColumns+` FROM clip_jobs WHERE user_id=@p1 ORDER BY created_at DESC`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*model.ClipJob
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepositoryMSSQL) UpdateProgress(ctx context.Context, id string, status string, progress int, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE clip_jobs SET status=@p1, progress=@p2, error_message=@p3, updated_at=@p4 WHERE id=@p5`,
		status, progress, errMsg, time.Now().UTC(), id)
	return err
}
