package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/umatt1/ai-chess-evaluator/app/models"
	"github.com/umatt1/ai-chess-evaluator/app/oracle"
	"github.com/umatt1/ai-chess-evaluator/app/search"
)

// SQSQueue sends job messages to an SQS queue.
type SQSQueue struct {
	client *sqs.Client
	url    string
}

func NewSQSQueue(ctx context.Context, queueURL string) (*SQSQueue, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SQS: %w", err)
	}
	return &SQSQueue{client: sqs.NewFromConfig(awsCfg), url: queueURL}, nil
}

func (q *SQSQueue) Enqueue(ctx context.Context, msg models.JobMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(string(body)),
	})
	return err
}

// ProcessJob runs one queued search with the server's oracle key and stores
// the result on the job. receives is how many times the queue has delivered
// this message. A failure marks the job failed unless Redeliver allows
// another try, in which case the job stays running.
func (s *Service) ProcessJob(ctx context.Context, msg models.JobMessage, receives int) error {
	log := s.Log.With().Str("job_id", msg.JobID).Logger()

	if err := MarkJobRunning(ctx, msg.JobID); err != nil {
		log.Warn().Err(err).Msg("MarkJobRunning failed")
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.Config.Search.Timeout)
	defer cancel()

	res, err := s.Engine.Evaluate(searchCtx, msg.FEN, msg.Depth, oracle.Credentials{APIKey: s.Config.Oracle.APIKey})
	if err != nil {
		if !s.Redeliver(err, receives) {
			log.Warn().Err(err).Int("receives", receives).Msg("job failed for good")
			if ferr := FailJob(ctx, msg.JobID, err.Error()); ferr != nil {
				log.Warn().Err(ferr).Msg("FailJob failed")
			}
		}
		return err
	}

	searchID, err := SaveSearch(ctx, "job", res)
	if err != nil {
		log.Warn().Err(err).Msg("SaveSearch failed")
	}

	body, err := json.Marshal(BuildResponse(msg.FEN, res, defaultLines, false))
	if err != nil {
		return err
	}
	if err := CompleteJob(ctx, msg.JobID, searchID, body); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	best := ""
	if res.BestMove != nil {
		best = res.BestMove.Move
	}
	log.Info().Str("best_move", best).Float64("evaluation", res.Score).
		Int64("oracle_calls", res.OracleCalls).Msg("job completed")
	return nil
}

// Redeliver reports whether a job that failed with err on its receives-th
// delivery should go back to the queue.
func (s *Service) Redeliver(err error, receives int) bool {
	if !Retryable(err) {
		return false
	}
	limit := s.Config.JobMaxReceives
	return limit <= 0 || receives < limit
}

// Retryable reports whether running the same job again could succeed.
// Bad input and refused credentials never will.
func Retryable(err error) bool {
	return !errors.Is(err, search.ErrInvalidInput) &&
		!errors.Is(err, oracle.ErrAuth) &&
		!errors.Is(err, oracle.ErrRejected)
}
