package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/codemedic/internal/config"
	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/pipeline"
)

func doneResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:  "5f0c2a7e-1111-2222-3333-444455556666",
		State:  pipeline.StateDone,
		Sample: findings.CodeSample{Code: "def f(x)\n    return x", Language: "Python"},
		Findings: &findings.FindingSet{
			Issues:        []findings.Finding{{LineNumber: 1, IssueType: "Syntax Error", Severity: findings.SeverityCritical}},
			TotalFound:    1,
			CriticalCount: 1,
		},
		Fix:        &findings.FixResult{FixedCode: "def f(x):\n    return x"},
		Report:     &findings.ValidationReport{ValidationStatus: findings.StatusPass, OverallScore: 95},
		StartedAt:  time.Date(2026, time.October, 19, 8, 28, 46, 0, time.UTC),
		FinishedAt: time.Date(2026, time.October, 19, 8, 29, 0, 0, time.UTC),
	}
}

func TestGetArtifactFolderName(t *testing.T) {
	assert.Equal(t, "20261019T082846Z_5f0c2a7e", GetArtifactFolderName(doneResult()))
	assert.Equal(t, "00010101T000000Z_ab", GetArtifactFolderName(&pipeline.Result{RunID: "ab"}))
	assert.NotContains(t, GetArtifactFolderName(doneResult()), ":")
}

func TestSaveDoneResult(t *testing.T) {
	writer, err := NewWriter(nil, "1.0.0")
	require.NoError(t, err)

	out := t.TempDir()
	saved, err := writer.Save(out, doneResult())
	require.NoError(t, err)

	dir := filepath.Join(out, "20261019T082846Z_5f0c2a7e")
	assert.Equal(t, dir, saved.Folder)
	assert.Equal(t, []string{
		filepath.Join(dir, ResultFileName),
		filepath.Join(dir, ReportFileName),
		filepath.Join(dir, SarifFileName),
		filepath.Join(dir, "fixed_code.py"),
	}, saved.Files)

	fixed, err := os.ReadFile(filepath.Join(dir, "fixed_code.py"))
	require.NoError(t, err)
	assert.Equal(t, "def f(x):\n    return x", string(fixed))

	data, err := os.ReadFile(filepath.Join(dir, ResultFileName))
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "done", decoded["state"])

	text, err := os.ReadFile(filepath.Join(dir, ReportFileName))
	require.NoError(t, err)
	assert.Contains(t, string(text), "CODE ANALYSIS REPORT")
}

func TestSaveFailedResultSkipsOptionalFiles(t *testing.T) {
	writer, err := NewWriter(nil, "")
	require.NoError(t, err)

	saved, err := writer.Save(t.TempDir(), &pipeline.Result{RunID: "run", State: pipeline.StateFailed})
	require.NoError(t, err)
	require.Len(t, saved.Files, 2)
	assert.Equal(t, ResultFileName, filepath.Base(saved.Files[0]))
	assert.Equal(t, ReportFileName, filepath.Base(saved.Files[1]))
}

func TestSaveNilResult(t *testing.T) {
	writer, err := NewWriter(nil, "")
	require.NoError(t, err)
	_, err = writer.Save(t.TempDir(), nil)
	assert.Error(t, err)
}

type fakeUploader struct {
	inputs []s3manager.UploadInput
	bodies []string
	err    error
}

func (f *fakeUploader) Upload(input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), input, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, *input)
	f.bodies = append(f.bodies, string(body))
	return &s3manager.UploadOutput{Location: "https://" + *input.Bucket + ".s3.amazonaws.com/" + *input.Key}, nil
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "report.txt")
	second := filepath.Join(dir, "result.json")
	require.NoError(t, os.WriteFile(first, []byte("report"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("{}"), 0o644))

	fake := &fakeUploader{}
	uploader := NewUploader(fake, "bucket", "/codemedic/", nil)

	locations, err := uploader.Upload(context.Background(), "run-1", []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://bucket.s3.amazonaws.com/codemedic/run-1/report.txt",
		"https://bucket.s3.amazonaws.com/codemedic/run-1/result.json",
	}, locations)
	assert.Equal(t, []string{"report", "{}"}, fake.bodies)
	assert.Equal(t, "bucket", *fake.inputs[0].Bucket)
}

func TestUploadFailures(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(file, []byte("report"), 0o644))

	_, err := NewUploader(&fakeUploader{}, "", "", nil).Upload(context.Background(), "run", []string{file})
	assert.ErrorIs(t, err, ErrNoBucket)

	_, err = NewUploader(&fakeUploader{}, "bucket", "", nil).Upload(context.Background(), "run", []string{filepath.Join(dir, "absent")})
	assert.ErrorContains(t, err, "failed to open artifact")

	denied := errors.New("access denied")
	_, err = NewUploader(&fakeUploader{err: denied}, "bucket", "", nil).Upload(context.Background(), "run", []string{file})
	assert.ErrorIs(t, err, denied)
}

func TestNewS3UploaderRequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(&config.Config{}, nil)
	assert.ErrorIs(t, err, ErrNoBucket)
	_, err = NewS3Uploader(nil, nil)
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestUploaderKey(t *testing.T) {
	uploader := NewUploader(&fakeUploader{}, "bucket", "", nil)
	assert.Equal(t, "run/fixed_code.py", uploader.Key("run", "/tmp/x/fixed_code.py"))
}
