package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tablescope/tablescope/pkg/models"
)

// Scripts keep the check-and-set job mutations atomic so two workers can
// never both win a claim or roll a terminal status back.
var (
	claimScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
if redis.call('HGET', KEYS[1], 'status') ~= 'pending' then return 0 end
redis.call('HSET', KEYS[1], 'status', 'processing', 'started_at', ARGV[1])
return 1`)

	statusScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local cur = redis.call('HGET', KEYS[1], 'status')
local n = tonumber(ARGV[1])
local ok = false
for i = 2, n + 1 do
	if cur == ARGV[i] then ok = true end
end
if not ok then return -1 end
for i = n + 2, #ARGV, 2 do
	redis.call('HSET', KEYS[1], ARGV[i], ARGV[i+1])
end
return 1`)

	progressScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local cur = tonumber(redis.call('HGET', KEYS[1], 'progress')) or 0
local new = tonumber(ARGV[1])
if new > cur then redis.call('HSET', KEYS[1], 'progress', new) end
return 1`)

	cancelScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local cur = redis.call('HGET', KEYS[1], 'status')
if cur == 'pending' then
	redis.call('HSET', KEYS[1], 'status', 'cancelled', 'completed_at', ARGV[1])
	return 1
end
if cur == 'processing' then
	redis.call('HSET', KEYS[1], 'cancel_requested', '1')
	return 1
end
return 0`)
)

// RedisStore implements Store on go-redis/v9. Job metadata lives in a hash,
// the result blob in a separate string key with its own (shorter) TTL.
type RedisStore struct {
	client *redis.Client
	jobTTL time.Duration
}

// NewRedisStore creates a RedisStore from a Redis URL. jobTTL bounds how
// long job metadata outlives its last write.
func NewRedisStore(redisURL string, jobTTL time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: redis.NewClient(opts), jobTTL: jobTTL}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) CreateJob(ctx context.Context, job *models.Job) error {
	fields, err := jobToFields(job)
	if err != nil {
		return err
	}
	key := JobKey(job.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.jobTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

func (s *RedisStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	vals, err := s.client.HGetAll(ctx, JobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting job: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	return jobFromFields(id, vals)
}

func (s *RedisStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	n, err := claimScript.Run(ctx, s.client, []string{JobKey(id)}, now).Int()
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus, opts ...StatusOption) error {
	var params statusParams
	for _, opt := range opts {
		opt(&params)
	}

	sources := transitionSources(status)
	args := []any{strconv.Itoa(len(sources))}
	for _, src := range sources {
		args = append(args, string(src))
	}
	args = append(args, "status", string(status))
	if status.Terminal() {
		args = append(args, "completed_at", time.Now().UTC().Format(time.RFC3339Nano))
	}
	if params.ErrorMessage != nil {
		args = append(args, "error_message", *params.ErrorMessage)
	}
	if params.ResultRef != nil {
		args = append(args, "result_ref", *params.ResultRef)
	}

	n, err := statusScript.Run(ctx, s.client, []string{JobKey(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("updating job status: %w", err)
	}
	switch n {
	case 0:
		return ErrNotFound
	case -1:
		return fmt.Errorf("%w: to %s", ErrIllegalTransition, status)
	}
	return nil
}

func (s *RedisStore) SetProgress(ctx context.Context, id uuid.UUID, progress int) error {
	n, err := progressScript.Run(ctx, s.client, []string{JobKey(id)}, progress).Int()
	if err != nil {
		return fmt.Errorf("setting progress: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) PutResult(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := s.client.Set(ctx, ResultKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("storing result: %w", err)
	}
	return nil
}

func (s *RedisStore) GetResult(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	data, err := s.client.Get(ctx, ResultKey(id)).Bytes()
	if err == redis.Nil {
		// The blob is gone; a recorded result_ref on live job metadata
		// means it expired rather than never existed.
		ref, herr := s.client.HGet(ctx, JobKey(id), "result_ref").Result()
		if herr == redis.Nil {
			return nil, ErrNotFound
		}
		if herr != nil {
			return nil, fmt.Errorf("checking result ref: %w", herr)
		}
		if ref != "" {
			return nil, ErrResultExpired
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting result: %w", err)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &result, nil
}

func (s *RedisStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	n, err := cancelScript.Run(ctx, s.client, []string{JobKey(id)}, now).Int()
	if err != nil {
		return false, fmt.Errorf("cancelling job: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) CancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	v, err := s.client.HGet(ctx, JobKey(id), "cancel_requested").Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking cancel flag: %w", err)
	}
	return v == "1", nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, JobKey(id), ResultKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	return nil
}

// transitionSources lists the statuses from which `to` is reachable, per the
// central transition table in models.
func transitionSources(to models.JobStatus) []models.JobStatus {
	all := []models.JobStatus{
		models.JobStatusPending,
		models.JobStatusProcessing,
		models.JobStatusCompleted,
		models.JobStatusFailed,
		models.JobStatusCancelled,
	}
	var sources []models.JobStatus
	for _, s := range all {
		if s.CanTransition(to) {
			sources = append(sources, s)
		}
	}
	return sources
}

func jobToFields(job *models.Job) (map[string]any, error) {
	opts, err := json.Marshal(job.Options)
	if err != nil {
		return nil, fmt.Errorf("encoding job options: %w", err)
	}
	fields := map[string]any{
		"file_ref":   job.FileRef,
		"status":     string(job.Status),
		"progress":   job.Progress,
		"options":    string(opts),
		"created_at": job.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if job.StartedAt != nil {
		fields["started_at"] = job.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if job.CompletedAt != nil {
		fields["completed_at"] = job.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	if job.ErrorMessage != nil {
		fields["error_message"] = *job.ErrorMessage
	}
	if job.ResultRef != nil {
		fields["result_ref"] = *job.ResultRef
	}
	return fields, nil
}

func jobFromFields(id uuid.UUID, vals map[string]string) (*models.Job, error) {
	job := &models.Job{
		ID:      id,
		FileRef: vals["file_ref"],
		Status:  models.JobStatus(vals["status"]),
	}
	if !job.Status.Valid() {
		return nil, fmt.Errorf("job %s has unknown status %q", id, vals["status"])
	}
	if v, ok := vals["progress"]; ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("job %s has bad progress %q", id, v)
		}
		job.Progress = p
	}
	if v, ok := vals["options"]; ok && v != "" {
		if err := json.Unmarshal([]byte(v), &job.Options); err != nil {
			return nil, fmt.Errorf("decoding job options: %w", err)
		}
	}
	var err error
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, vals["created_at"]); err != nil {
		return nil, fmt.Errorf("job %s has bad created_at: %w", id, err)
	}
	if v, ok := vals["started_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("job %s has bad started_at: %w", id, err)
		}
		job.StartedAt = &t
	}
	if v, ok := vals["completed_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("job %s has bad completed_at: %w", id, err)
		}
		job.CompletedAt = &t
	}
	if v, ok := vals["error_message"]; ok {
		job.ErrorMessage = &v
	}
	if v, ok := vals["result_ref"]; ok && v != "" {
		job.ResultRef = &v
	}
	return job, nil
}
