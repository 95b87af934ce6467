package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kamusis/modelpub/internal/datasource"
	"github.com/kamusis/modelpub/internal/logging"
	"github.com/kamusis/modelpub/internal/schema"
)

// MetadataExt is the extension of metadata domain files.
const MetadataExt = ".xmi"

// DatasourceRegistry is the part of datasource.Registry the orchestrator uses.
type DatasourceRegistry interface {
	Compare(ctx context.Context, local datasource.Descriptor) datasource.Comparison
	Upsert(ctx context.Context, local datasource.Descriptor, isUpdate bool) bool
}

// Request describes a full model publish.
type Request struct {
	Model      schema.LogicalModel
	SchemaName string
	JNDIName   string
	ModelName  string
	// TargetPath is the repository folder the artifact is uploaded to.
	TargetPath string

	Datasource           *datasource.Descriptor
	PublishDatasource    bool
	IsExistentDatasource bool

	PublishArtifact bool
	// ArtifactFile is the local artifact. When PublishArtifact is false it is
	// the metadata file itself.
	ArtifactFile string

	ShowFeedback bool
}

// ReportRequest describes a report publish.
type ReportRequest struct {
	ReportFile string
	TargetPath string

	PublishMetadata bool
	MetadataFile    string
	DomainID        string

	Datasource           *datasource.Descriptor
	PublishDatasource    bool
	IsExistentDatasource bool
}

// Orchestrator sequences the steps of a publish against one server. It is
// not safe for concurrent use.
type Orchestrator struct {
	server    ServerEndpoint
	registry  DatasourceRegistry
	artifacts *ArtifactPublisher
	schemas   *SchemaPublisher
	tracker   *reportTracker
	logger    zerolog.Logger
}

func NewOrchestrator(api API, server ServerEndpoint, registry DatasourceRegistry, decider OverwriteDecider, notifier Notifier, opts ...Option) *Orchestrator {
	o := buildOptions(opts)
	tracker := newReportTracker(notifier)
	return &Orchestrator{
		server:    server,
		registry:  registry,
		artifacts: NewArtifactPublisher(api, server, decider, tracker, opts...),
		schemas:   NewSchemaPublisher(api, server, tracker, opts...),
		tracker:   tracker,
		logger:    o.logger,
	}
}

// Server returns the target server.
func (o *Orchestrator) Server() ServerEndpoint {
	return o.server
}

func (o *Orchestrator) begin(ctx context.Context, op string) (context.Context, zerolog.Logger) {
	o.tracker.reset()
	ctx = logging.WithPublishID(ctx, uuid.NewString())
	logger := logging.Tagged(ctx, o.logger).With().Str("server", o.server.Name()).Str("op", op).Logger()
	return ctx, logger
}

// Publish runs artifact, datasource, schema and metadata publishing in that
// order. The first step that does not succeed ends the run and its outcome is
// returned; a datasource failure is reported but does not stop the run.
func (o *Orchestrator) Publish(ctx context.Context, req Request) Outcome {
	ctx, logger := o.begin(ctx, "publish")
	logger.Info().Str("model", req.ModelName).Str("target", req.TargetPath).Msg("publish started")

	outcome := o.publish(ctx, logger, req)
	if req.ShowFeedback && !o.tracker.wasReported(outcome) {
		o.tracker.Notify(FeedbackFor(o.server, outcome, req.ModelName))
	}
	logger.Info().Stringer("outcome", outcome).Msg("publish finished")
	return outcome
}

func (o *Orchestrator) publish(ctx context.Context, logger zerolog.Logger, req Request) Outcome {
	if req.PublishArtifact {
		outcome := o.artifacts.Publish(ctx, req.TargetPath, []string{req.ArtifactFile}, false)
		if outcome != Success {
			return outcome
		}
	}

	if req.PublishDatasource {
		o.publishDatasource(ctx, logger, req.Datasource, req.IsExistentDatasource)
	}

	outcome := o.schemas.PublishSchema(ctx, SchemaRequest{
		Model:         req.Model,
		SchemaName:    req.SchemaName,
		JNDIName:      req.JNDIName,
		ModelName:     req.ModelName,
		AllowFeedback: req.ShowFeedback,
	})
	if outcome != Success {
		logger.Warn().Stringer("outcome", outcome).Msg("schema not published, skipping metadata")
		return outcome
	}

	metadataFile := MetadataFile(req.ArtifactFile, req.ModelName, req.PublishArtifact)
	content, err := os.ReadFile(metadataFile)
	if err != nil {
		logger.Error().Err(err).Str("file", metadataFile).Msg("read metadata")
		return Failed
	}
	return o.schemas.PublishMetadata(ctx, content, req.ModelName+MetadataExt)
}

// MetadataFile returns the metadata domain file that accompanies artifact.
// A published artifact has its metadata next to it, named after the model.
func MetadataFile(artifact, modelName string, artifactPublished bool) string {
	if !artifactPublished {
		return artifact
	}
	return filepath.Join(filepath.Dir(artifact), modelName+MetadataExt)
}

func (o *Orchestrator) publishDatasource(ctx context.Context, logger zerolog.Logger, ds *datasource.Descriptor, isUpdate bool) bool {
	if ds == nil {
		logger.Warn().Msg("datasource publish requested without a datasource")
		o.tracker.Notify(FeedbackFor(o.server, DatasourceProblem, ""))
		return false
	}
	if o.registry.Upsert(ctx, *ds, isUpdate) {
		return true
	}
	logger.Warn().Str("datasource", ds.Name).Bool("update", isUpdate).Msg("datasource not published, continuing")
	o.tracker.Notify(FeedbackFor(o.server, DatasourceProblem, ds.Name))
	return false
}

// PublishReport uploads a report, then its metadata domain and datasource
// when requested. The report upload reports its own outcome unless metadata
// follows.
func (o *Orchestrator) PublishReport(ctx context.Context, req ReportRequest) Outcome {
	ctx, logger := o.begin(ctx, "publish-report")
	logger.Info().Str("report", req.ReportFile).Str("target", req.TargetPath).Msg("report publish started")

	outcome := o.artifacts.Publish(ctx, req.TargetPath, []string{req.ReportFile}, !req.PublishMetadata)
	if outcome != Success {
		if !o.tracker.wasReported(outcome) {
			o.tracker.Notify(FeedbackFor(o.server, outcome, filepath.Base(req.ReportFile)))
		}
		return outcome
	}

	if req.PublishMetadata {
		domainID := req.DomainID
		if domainID == "" {
			domainID = filepath.Base(req.MetadataFile)
		}
		content, err := os.ReadFile(req.MetadataFile)
		if err != nil {
			logger.Error().Err(err).Str("file", req.MetadataFile).Msg("read metadata")
			outcome = Failed
		} else {
			outcome = o.schemas.PublishMetadata(ctx, content, domainID)
		}
		o.tracker.Notify(FeedbackFor(o.server, outcome, domainID))
	}

	if req.PublishDatasource {
		o.publishDatasource(ctx, logger, req.Datasource, req.IsExistentDatasource)
	}

	logger.Info().Stringer("outcome", outcome).Msg("report publish finished")
	return outcome
}

// CheckDatasource makes sure the server has an up to date copy of local
// before a publish. Unless autoMode is set the operator confirms every write
// and is told the result. It returns whether the server connection can be
// used as is.
func (o *Orchestrator) CheckDatasource(ctx context.Context, local datasource.Descriptor, autoMode bool) bool {
	ctx, logger := o.begin(ctx, "check-datasource")
	logger = logger.With().Str("datasource", local.Name).Bool("auto", autoMode).Logger()

	cmp := o.registry.Compare(ctx, local)
	logger.Debug().Stringer("comparison", cmp).Msg("compared datasource")

	switch cmp.State() {
	case datasource.StateNotNative:
		if !autoMode {
			o.tracker.Notify(datasourceNotice(o.server, DatasourceProblem, SeverityError, fmt.Sprintf(
				"Datasource %s uses %s access. Only native connections can be published; define it on %s instead.",
				local.Name, local.AccessMode(), o.server.Name())))
		}
		return false

	case datasource.StateMissing:
		if !autoMode && !o.tracker.Notify(datasourceQuestion(o.server, fmt.Sprintf(
			"Datasource %s does not exist on %s. OK to publish it?", local.Name, o.server.Name()))) {
			o.tracker.Notify(datasourceNotice(o.server, DatasourceProblem, SeverityError, "Publish cancelled."))
			return false
		}
		ok := o.registry.Upsert(ctx, local, false)
		if !autoMode && ok {
			o.tracker.Notify(datasourceNotice(o.server, Success, SeverityInfo, fmt.Sprintf(
				"Datasource %s was added to %s.", local.Name, o.server.Name())))
		}
		logger.Info().Bool("ok", ok).Msg("created datasource")
		return ok

	case datasource.StateDifferent:
		if !autoMode && !o.tracker.Notify(datasourceQuestion(o.server, fmt.Sprintf(
			"Datasource %s on %s differs from the local definition. Replace it?", local.Name, o.server.Name()))) {
			return false
		}
		ok := o.registry.Upsert(ctx, local, true)
		if !autoMode && ok {
			o.tracker.Notify(datasourceNotice(o.server, Success, SeverityInfo, fmt.Sprintf(
				"Datasource %s was updated on %s.", local.Name, o.server.Name())))
		}
		logger.Info().Bool("ok", ok).Msg("updated datasource")
		return ok

	case datasource.StateSame:
		return true

	default:
		logger.Warn().Msg("datasource comparison was inconclusive")
		return false
	}
}
