package publish

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/modelpub/internal/datasource"
	"github.com/kamusis/modelpub/internal/logging"
)

const (
	connectionGetPath    = "plugin/data-access/api/connection/getresponse"
	connectionAddPath    = "plugin/data-access/api/connection/add"
	connectionUpdatePath = "plugin/data-access/api/connection/update"
)

func newOrchestrator(t *testing.T, fs *fakeServer, d *decider, n *notifier) *Orchestrator {
	t.Helper()
	c := fs.client()
	reg := datasource.NewRegistry(c, datasource.WithLogger(logging.Nop))
	return NewOrchestrator(c, fs.endpoint(), reg, d, n,
		WithLogger(logging.Nop),
		WithStagingDir(filepath.Join(t.TempDir(), "models")),
	)
}

func salesDatasource() *datasource.Descriptor {
	return &datasource.Descriptor{
		Name:     "Sales DW",
		Type:     "POSTGRESQL",
		Host:     "db.local",
		Database: "dw",
		Username: "etl",
		Password: "secret",
	}
}

func salesRequest(t *testing.T) Request {
	t.Helper()
	dir := t.TempDir()
	artifact := writeFile(t, dir, "sales.xanalyzer", "<report/>")
	writeFile(t, dir, "Sales.xmi", "<xmi/>")
	return Request{
		Model:           salesModel(),
		SchemaName:      "sales.mondrian.xml",
		JNDIName:        "sales_dw",
		ModelName:       "Sales",
		TargetPath:      "/public/Sales",
		PublishArtifact: true,
		ArtifactFile:    artifact,
	}
}

func TestPublish_FullRun(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, okReply(""))
	fs.script(connectionAddPath, okReply(""))
	fs.script(postAnalysisPath, okReply("3"))
	fs.script(metadataImportPath, okReply(""))
	n := &notifier{}

	req := salesRequest(t)
	req.PublishDatasource = true
	req.Datasource = salesDatasource()
	req.ShowFeedback = true

	outcome := newOrchestrator(t, fs, &decider{}, n).Publish(context.Background(), req)
	assert.Equal(t, Success, outcome)

	var order []string
	for _, r := range fs.requests {
		order = append(order, r.Path)
	}
	assert.Equal(t, []string{publishFilePath, connectionAddPath, postAnalysisPath, metadataImportPath}, order)

	meta := fs.calls(metadataImportPath)[0]
	assert.Equal(t, "Sales.xmi", meta.Fields["domainId"])
	assert.Equal(t, "<xmi/>", meta.Files["metadataFile"])

	assert.Equal(t, []Outcome{Success}, n.outcomes())
}

func TestPublish_SchemaFailureSkipsMetadata(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, okReply(""))
	fs.script(postAnalysisPath, rejectReply(""))
	fs.script(metadataImportPath, okReply(""))

	outcome := newOrchestrator(t, fs, &decider{}, &notifier{}).Publish(context.Background(), salesRequest(t))
	assert.Equal(t, Failed, outcome)
	assert.Empty(t, fs.calls(metadataImportPath))
}

func TestPublish_ArtifactConflictRefusedStopsRun(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, rejectReply("10"))
	fs.script(postAnalysisPath, okReply("3"))
	n := &notifier{}

	req := salesRequest(t)
	req.ShowFeedback = true
	req.PublishDatasource = true
	req.Datasource = salesDatasource()

	outcome := newOrchestrator(t, fs, &decider{answer: false}, n).Publish(context.Background(), req)
	assert.Equal(t, FileExists, outcome)
	assert.Equal(t, 1, fs.total())
	assert.Equal(t, []Outcome{FileExists}, n.outcomes())
}

func TestPublish_InvalidCredentialsReportedOnce(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, reply{status: 401, body: "5"})
	n := &notifier{}

	req := salesRequest(t)
	req.ShowFeedback = true

	outcome := newOrchestrator(t, fs, &decider{}, n).Publish(context.Background(), req)
	assert.Equal(t, InvalidCredentials, outcome)
	assert.Equal(t, []Outcome{InvalidCredentials}, n.outcomes())
}

func TestPublish_DatasourceFailureIsNotFatal(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, okReply(""))
	fs.script(connectionUpdatePath, rejectReply("no"))
	fs.script(postAnalysisPath, okReply("3"))
	fs.script(metadataImportPath, okReply(""))
	n := &notifier{}

	req := salesRequest(t)
	req.PublishDatasource = true
	req.IsExistentDatasource = true
	req.Datasource = salesDatasource()

	outcome := newOrchestrator(t, fs, &decider{}, n).Publish(context.Background(), req)
	assert.Equal(t, Success, outcome)
	assert.Len(t, fs.calls(connectionUpdatePath), 1)
	assert.Len(t, fs.calls(metadataImportPath), 1)
	assert.Equal(t, []Outcome{DatasourceProblem}, n.outcomes())
}

func TestPublish_WithoutArtifactUsesFileAsMetadata(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(postAnalysisPath, okReply("3"))
	fs.script(metadataImportPath, okReply(""))

	req := salesRequest(t)
	req.PublishArtifact = false
	req.ArtifactFile = writeFile(t, t.TempDir(), "domain.xmi", "<domain/>")

	outcome := newOrchestrator(t, fs, &decider{}, &notifier{}).Publish(context.Background(), req)
	assert.Equal(t, Success, outcome)
	assert.Empty(t, fs.calls(publishFilePath))
	meta := fs.calls(metadataImportPath)
	require.Len(t, meta, 1)
	assert.Equal(t, "<domain/>", meta[0].Files["metadataFile"])
	assert.Equal(t, "Sales.xmi", meta[0].Fields["domainId"])
}

func TestPublish_MissingMetadataFileFails(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, okReply(""))
	fs.script(postAnalysisPath, okReply("3"))

	req := salesRequest(t)
	req.ModelName = "Other"

	outcome := newOrchestrator(t, fs, &decider{}, &notifier{}).Publish(context.Background(), req)
	assert.Equal(t, Failed, outcome)
	assert.Empty(t, fs.calls(metadataImportPath))
}

func TestMetadataFile(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "Sales.xmi"), MetadataFile(filepath.Join("out", "sales.xanalyzer"), "Sales", true))
	assert.Equal(t, "domain.xmi", MetadataFile("domain.xmi", "Sales", false))
}

func TestCheckDatasource_AutoCreatesMissing(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(connectionGetPath, reply{status: 404})
	fs.script(connectionAddPath, okReply(""))
	n := &notifier{}

	ok := newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *salesDatasource(), true)
	assert.True(t, ok)

	adds := fs.calls(connectionAddPath)
	require.Len(t, adds, 1)
	assert.Empty(t, fs.calls(connectionUpdatePath))
	assert.Empty(t, n.got)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(adds[0].Body), &sent))
	assert.Equal(t, "Sales_DW", sent["name"])
}

func TestCheckDatasource_MissingConfirmed(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(connectionGetPath, reply{status: 404})
	fs.script(connectionAddPath, okReply(""))
	n := &notifier{answer: true}

	assert.True(t, newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *salesDatasource(), false))
	require.Len(t, n.got, 2)
	assert.True(t, n.got[0].Question)
	assert.Contains(t, n.got[1].Message, "added")
}

func TestCheckDatasource_MissingRefused(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(connectionGetPath, reply{status: 404})
	n := &notifier{answer: false}

	assert.False(t, newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *salesDatasource(), false))
	assert.Empty(t, fs.calls(connectionAddPath))
	require.Len(t, n.got, 2)
	assert.Contains(t, n.got[1].Message, "cancelled")
	assert.Equal(t, SeverityError, n.got[1].Severity)
}

func TestCheckDatasource_DifferentIsUpdated(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(connectionGetPath, okReply(`{"name":"Sales_DW","databaseName":"staging","username":"etl","databaseType":{"shortName":"POSTGRESQL"}}`))
	fs.script(connectionUpdatePath, okReply(""))
	n := &notifier{answer: true}

	assert.True(t, newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *salesDatasource(), false))
	assert.Len(t, fs.calls(connectionUpdatePath), 1)
	require.Len(t, n.got, 2)
	assert.Contains(t, n.got[0].Message, "differs")
	assert.Contains(t, n.got[1].Message, "updated")
}

func TestCheckDatasource_DifferentRefused(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(connectionGetPath, okReply(`{"name":"Sales_DW","databaseName":"staging"}`))
	n := &notifier{answer: false}

	assert.False(t, newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *salesDatasource(), false))
	assert.Empty(t, fs.calls(connectionUpdatePath))
	assert.Len(t, n.got, 1)
}

func TestCheckDatasource_SameNeedsNoWrite(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(connectionGetPath, okReply(`{"name":"Sales_DW","databaseName":"DW","username":"etl","databaseType":{"shortName":"POSTGRESQL"}}`))
	n := &notifier{}

	assert.True(t, newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *salesDatasource(), false))
	assert.Equal(t, 1, fs.total())
	assert.Empty(t, n.got)
}

func TestCheckDatasource_NotNativeIsRefusedWithoutNetwork(t *testing.T) {
	fs := newFakeServer(t)
	n := &notifier{answer: true}

	ds := salesDatasource()
	ds.Access = datasource.AccessJNDI

	assert.False(t, newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *ds, false))
	assert.Zero(t, fs.total())
	require.Len(t, n.got, 1)
	assert.Equal(t, SeverityError, n.got[0].Severity)

	n.got = nil
	assert.False(t, newOrchestrator(t, fs, &decider{}, n).CheckDatasource(context.Background(), *ds, true))
	assert.Empty(t, n.got)
}

func TestPublishReport(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, okReply(""))
	fs.script(metadataImportPath, okReply(""))
	fs.script(connectionAddPath, okReply(""))
	n := &notifier{}

	dir := t.TempDir()
	req := ReportRequest{
		ReportFile:        writeFile(t, dir, "q1.prpt", "prpt"),
		TargetPath:        "/public/Reports",
		PublishMetadata:   true,
		MetadataFile:      writeFile(t, dir, "sales.xmi", "<xmi/>"),
		DomainID:          "Sales",
		PublishDatasource: true,
		Datasource:        salesDatasource(),
	}

	outcome := newOrchestrator(t, fs, &decider{}, n).PublishReport(context.Background(), req)
	assert.Equal(t, Success, outcome)

	var order []string
	for _, r := range fs.requests {
		order = append(order, r.Path)
	}
	assert.Equal(t, []string{publishFilePath, metadataImportPath, connectionAddPath}, order)
	assert.Equal(t, "Sales", fs.calls(metadataImportPath)[0].Fields["domainId"])
	assert.Equal(t, []Outcome{Success}, n.outcomes())
}

func TestPublishReport_WithoutMetadataReportsUpload(t *testing.T) {
	fs := newFakeServer(t)
	fs.script(publishFilePath, rejectReply("10"))
	n := &notifier{}

	req := ReportRequest{
		ReportFile: writeFile(t, t.TempDir(), "q1.prpt", "prpt"),
		TargetPath: "/public/Reports",
	}
	outcome := newOrchestrator(t, fs, &decider{answer: false}, n).PublishReport(context.Background(), req)
	assert.Equal(t, FileExists, outcome)
	assert.Equal(t, []Outcome{FileExists}, n.outcomes())
}
