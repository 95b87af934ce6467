package publish

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/kamusis/modelpub/internal/client"
	"github.com/kamusis/modelpub/internal/logging"
	"github.com/kamusis/modelpub/internal/schema"
)

const (
	postAnalysisPath   = "plugin/data-access/api/mondrian/postAnalysis"
	metadataImportPath = "plugin/data-access/api/metadata/import"
)

// SchemaRequest describes one analysis schema publish.
type SchemaRequest struct {
	Model schema.LogicalModel
	// SchemaName is the staging file name.
	SchemaName string
	// JNDIName is the server datasource the catalog queries.
	JNDIName string
	// ModelName is the catalog name.
	ModelName     string
	Overwrite     bool
	AllowFeedback bool
}

// SchemaPublisher exports logical models and registers them as analysis
// catalogs. It also uploads the metadata domain that goes with a model.
type SchemaPublisher struct {
	api        API
	server     ServerEndpoint
	notifier   Notifier
	exporter   schema.Exporter
	stagingDir string
	logger     zerolog.Logger
}

func NewSchemaPublisher(api API, server ServerEndpoint, notifier Notifier, opts ...Option) *SchemaPublisher {
	o := buildOptions(opts)
	if notifier == nil {
		notifier = Silent
	}
	return &SchemaPublisher{
		api:        api,
		server:     server,
		notifier:   notifier,
		exporter:   o.exporter,
		stagingDir: o.stagingDir,
		logger:     o.logger,
	}
}

// StagingDir returns the directory exported schemas are written to.
func (p *SchemaPublisher) StagingDir() string {
	return p.stagingDir
}

// PublishSchema exports req.Model, stages it on disk and posts it as the
// catalog req.ModelName. A conflict or failure is offered to the operator
// once when req.AllowFeedback is set; a yes retries with overwrite.
func (p *SchemaPublisher) PublishSchema(ctx context.Context, req SchemaRequest) Outcome {
	logger := logging.Tagged(ctx, p.logger).With().Str("catalog", req.ModelName).Logger()

	doc, staged, err := p.stage(req)
	if err != nil {
		logger.Error().Err(err).Str("staging_dir", p.stagingDir).Msg("stage schema")
		return Failed
	}

	outcome := p.postAnalysis(ctx, logger, req, staged, req.Overwrite)
	switch {
	case outcome == Success:
		return outcome
	case !req.AllowFeedback:
		return outcome
	case outcome != CatalogExists && outcome != Failed:
		p.notifier.Notify(FeedbackFor(p.server, outcome, req.ModelName))
		return outcome
	}

	if !p.notifier.Notify(overwriteQuestion(p.server, outcome, req.ModelName)) {
		return outcome
	}
	fresh, err := doc.Bytes()
	if err != nil {
		logger.Error().Err(err).Msg("serialize schema")
		return Failed
	}
	outcome = p.postAnalysis(ctx, logger, req, fresh, true)
	p.notifier.Notify(FeedbackFor(p.server, outcome, req.ModelName))
	return outcome
}

// stage exports the model, writes it into the staging directory and reads it
// back. The returned bytes are what the disk holds.
func (p *SchemaPublisher) stage(req SchemaRequest) (*schema.Document, []byte, error) {
	if err := os.MkdirAll(p.stagingDir, 0o755); err != nil {
		return nil, nil, err
	}

	model := req.Model
	if model.Name == "" {
		model.Name = req.ModelName
	}
	exported, err := p.exporter.Export(model)
	if err != nil {
		return nil, nil, err
	}
	doc, err := schema.ParseDocument(exported)
	if err != nil {
		return nil, nil, err
	}
	data, err := doc.Bytes()
	if err != nil {
		return nil, nil, err
	}

	stagingFile := filepath.Join(p.stagingDir, filepath.Base(req.SchemaName))
	if err := os.WriteFile(stagingFile, data, 0o644); err != nil {
		return nil, nil, err
	}
	staged, err := os.ReadFile(stagingFile)
	if err != nil {
		return nil, nil, err
	}
	return doc, staged, nil
}

func (p *SchemaPublisher) postAnalysis(ctx context.Context, logger zerolog.Logger, req SchemaRequest, content []byte, overwrite bool) Outcome {
	form := client.NewForm().
		Field("parameters", "Datasource="+req.JNDIName).
		File("uploadAnalysis", req.ModelName, content).
		Field("catalogName", req.ModelName).
		Field("overwrite", strconv.FormatBool(overwrite)).
		Field("xmlaEnabledFlag", "true")

	resp, err := p.api.PostMultipart(ctx, postAnalysisPath, form)
	if err != nil {
		logger.Error().Err(err).Msg("post analysis schema")
		return Failed
	}
	if !resp.OK() {
		logger.Error().Int("status", resp.StatusCode).Str("body", resp.Text()).Bool("overwrite", overwrite).Msg("analysis schema rejected")
		return Failed
	}

	body := resp.Text()
	if body == strconv.Itoa(CatalogExists.Code()) {
		logger.Info().Msg("analysis catalog already exists")
		return CatalogExists
	}
	outcome, ok := ParseOutcome(body)
	if !ok {
		logger.Error().Str("body", body).Msg("unexpected analysis reply")
		return Failed
	}
	logger.Info().Stringer("outcome", outcome).Bool("overwrite", overwrite).Msg("analysis schema posted")
	return outcome
}

// PublishMetadata uploads a metadata domain file under domainID.
func (p *SchemaPublisher) PublishMetadata(ctx context.Context, content []byte, domainID string) Outcome {
	logger := logging.Tagged(ctx, p.logger).With().Str("domain", domainID).Logger()

	form := client.NewForm().
		Field("domainId", domainID).
		File("metadataFile", domainID, content)
	resp, err := p.api.PutMultipart(ctx, metadataImportPath, form)
	if err != nil {
		logger.Error().Err(err).Msg("import metadata")
		return Failed
	}
	if !resp.OK() {
		logger.Error().Int("status", resp.StatusCode).Str("body", resp.Text()).Msg("metadata rejected")
		return Failed
	}
	logger.Info().Msg("metadata published")
	return Success
}
