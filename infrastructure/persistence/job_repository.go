package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clipforge/domain/model"
)

type JobRepository struct{ db *sql.DB }

func NewJobRepository(db *sql.DB) *JobRepository { return &JobRepository{db: db} }

const jobColumns = `id, user_id, source_url, source_title, duration_secs, status, progress, clip_count, error_message, created_at, updated_at`

func (r *JobRepository) Create(ctx context.Context, j *model.ClipJob) error {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO clip_jobs (`+jobColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		j.ID, j.UserID, j.SourceURL, j.SourceTitle, j.DurationSecs, j.Status, j.Progress, j.ClipCount, j.ErrorMessage, j.CreatedAt, j.UpdatedAt)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*model.ClipJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM clip_jobs WHERE id=$1`, id)
	j, err := scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

func (r *JobRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ClipJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM clip_jobs WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
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

func (r *JobRepository) UpdateProgress(ctx context.Context, id string, status string, progress int, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE clip_jobs SET status=$1, progress=$2, error_message=$3, updated_at=$4 WHERE id=$5`,
		status, progress, errMsg, time.Now().UTC(), id)
	return err
}

func scanJob(scan func(...any) error) (*model.ClipJob, error) {
	j := &model.ClipJob{}
	var title, errMsg sql.NullString
	var dur sql.NullInt64
	if err := scan(&j.ID, &j.UserID, &j.SourceURL, &title, &dur, &j.Status, &j.Progress, &j.ClipCount, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if title.Valid {
		v := title.String
		j.SourceTitle = &v
	}
	if dur.Valid {
		v := dur.Int64
		j.DurationSecs = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		j.ErrorMessage = &v
	}
	return j, nil
}
