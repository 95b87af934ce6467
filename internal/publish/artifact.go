package publish

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kamusis/modelpub/internal/client"
	"github.com/kamusis/modelpub/internal/logging"
)

const publishFilePath = "api/repo/publish/publishfile"

// maxAttempts bounds uploads per file: one plain attempt and one overwrite.
const maxAttempts = 2

// ArtifactPublisher uploads files into the server repository.
type ArtifactPublisher struct {
	api      API
	server   ServerEndpoint
	decider  OverwriteDecider
	notifier Notifier
	logger   zerolog.Logger
}

func NewArtifactPublisher(api API, server ServerEndpoint, decider OverwriteDecider, notifier Notifier, opts ...Option) *ArtifactPublisher {
	o := buildOptions(opts)
	if decider == nil {
		decider = DeciderFunc(func(string) bool { return false })
	}
	if notifier == nil {
		notifier = Silent
	}
	return &ArtifactPublisher{api: api, server: server, decider: decider, notifier: notifier, logger: o.logger}
}

// Publish uploads files into the repository folder targetPath, in order, and
// stops at the first file that does not succeed. An empty list publishes
// nothing and succeeds. When allowFeedback is set, or the server rejected the
// credentials, the final outcome is reported to the notifier.
func (p *ArtifactPublisher) Publish(ctx context.Context, targetPath string, files []string, allowFeedback bool) Outcome {
	logger := logging.Tagged(ctx, p.logger)
	if len(files) == 0 {
		logger.Warn().Str("path", targetPath).Msg("no artifacts to publish")
		return Success
	}
	feedback := allowFeedback
	outcome := Failed
	subject := ""

	for _, file := range files {
		subject = filepath.Base(file)
		outcome = p.publishFile(ctx, logger, targetPath, file, &feedback)
		if outcome != Success {
			break
		}
	}

	if feedback {
		p.notifier.Notify(FeedbackFor(p.server, outcome, subject))
	}
	return outcome
}

func (p *ArtifactPublisher) publishFile(ctx context.Context, logger zerolog.Logger, targetPath, file string, feedback *bool) Outcome {
	name := filepath.Base(file)
	importPath := strings.TrimRight(targetPath, "/") + "/" + name
	overwrite := false

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log := logger.With().Str("file", name).Str("path", importPath).Int("attempt", attempt).Bool("overwrite", overwrite).Logger()

		// Re-read per attempt; the upload consumes the payload.
		content, err := os.ReadFile(file)
		if err != nil {
			log.Error().Err(err).Msg("read artifact")
			return Failed
		}

		form := client.NewForm().
			Field("importPath", importPath).
			File("fileUpload", name, content).
			Field("overwriteFile", strconv.FormatBool(overwrite))
		resp, err := p.api.PostMultipart(ctx, publishFilePath, form)
		if err != nil {
			log.Error().Err(err).Msg("upload artifact")
			return Failed
		}
		if resp.OK() {
			log.Info().Msg("artifact published")
			return Success
		}

		reply, _ := ParseOutcome(resp.Text())
		code := reply.Code()
		log.Debug().Int("status", resp.StatusCode).Int("reply", code).Msg("artifact rejected")
		switch code {
		case replyAuthenticationFailed:
			*feedback = true
			return InvalidCredentials
		case replyContentExists:
			if overwrite {
				log.Warn().Msg("artifact still exists after overwrite")
				return Failed
			}
			if !p.decider.ConfirmOverwrite(name) {
				return FileExists
			}
			overwrite = true
		default:
			return Failed
		}
	}
	return Failed
}
