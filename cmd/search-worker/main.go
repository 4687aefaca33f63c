package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"

	"github.com/umatt1/ai-chess-evaluator/app"
	"github.com/umatt1/ai-chess-evaluator/app/config"
	"github.com/umatt1/ai-chess-evaluator/app/models"
)

func main() {
	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}
	log := app.NewLogger(cfg.Logs)

	if cfg.QueueURL == "" {
		log.Fatal().Msg("QUEUE_URL environment variable is required")
	}
	if cfg.Oracle.APIKey == "" {
		log.Warn().Msg("ORACLE_API_KEY not set; every job will fail authentication")
	}

	app.MustInitDB(cfg.DB, log)
	svc := app.NewService(cfg, log)

	// AWS config & SQS client
	awsCfg, err := awsconfig.LoadDefaultConfig(baseCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS config")
	}
	sqsClient := sqs.NewFromConfig(awsCfg)

	// must be > the longest search
	visibility := int32(cfg.Search.Timeout/time.Second) + 60

	log.Info().Str("queue", cfg.QueueURL).Msg("Worker started")

	for baseCtx.Err() == nil {
		// Long-poll SQS
		recvCtx, cancel := context.WithTimeout(baseCtx, 30*time.Second)
		resp, err := sqsClient.ReceiveMessage(recvCtx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(cfg.QueueURL),
			MaxNumberOfMessages: 5,
			WaitTimeSeconds:     20, // enable long polling
			VisibilityTimeout:   visibility,
			AttributeNames: []sqstypes.QueueAttributeName{
				sqstypes.QueueAttributeName(sqstypes.MessageSystemAttributeNameApproximateReceiveCount),
			},
		})
		cancel()

		if err != nil {
			if baseCtx.Err() != nil {
				break
			}
			log.Error().Err(err).Msg("ReceiveMessage error")
			sleep(baseCtx, 5*time.Second)
			continue
		}

		if len(resp.Messages) == 0 {
			// No work; small sleep to avoid hot loop
			sleep(baseCtx, 2*time.Second)
			continue
		}

		for _, m := range resp.Messages {
			handleMessage(baseCtx, svc, sqsClient, cfg.QueueURL, m, log)
		}
	}
	log.Info().Msg("Worker stopped")
}

func handleMessage(ctx context.Context, svc *app.Service, client *sqs.Client, queueURL string, m sqstypes.Message, log zerolog.Logger) {
	if m.Body == nil {
		log.Warn().Msg("received message with empty body, deleting")
		deleteMessage(client, queueURL, m, log)
		return
	}

	var job models.JobMessage
	if err := json.Unmarshal([]byte(*m.Body), &job); err != nil || job.JobID == "" {
		// poison payload: delete to avoid infinite retries
		log.Error().Err(err).Str("body", *m.Body).Msg("failed to unmarshal job message")
		deleteMessage(client, queueURL, m, log)
		return
	}

	receives := receiveCount(m)
	log.Info().Str("job_id", job.JobID).Str("fen", job.FEN).Int("depth", job.Depth).Int("receives", receives).Msg("Received job")

	if err := svc.ProcessJob(ctx, job, receives); err != nil {
		if svc.Redeliver(err, receives) {
			// leave it on the queue; it becomes visible again after the visibility timeout
			log.Warn().Err(err).Str("job_id", job.JobID).Msg("job failed, will retry")
			return
		}
		log.Error().Err(err).Str("job_id", job.JobID).Msg("job failed permanently")
	}

	deleteMessage(client, queueURL, m, log)
}

// receiveCount reads ApproximateReceiveCount, treating a missing or bad value
// as the first delivery.
func receiveCount(m sqstypes.Message) int {
	n, err := strconv.Atoi(m.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func deleteMessage(client *sqs.Client, queueURL string, m sqstypes.Message, log zerolog.Logger) {
	if m.ReceiptHandle == nil {
		return
	}
	_, err := client.DeleteMessage(context.Background(), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: m.ReceiptHandle,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to delete SQS message")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
