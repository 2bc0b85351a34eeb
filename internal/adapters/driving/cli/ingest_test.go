package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
)

func resetIngestFlags() {
	ingestBusiness = ""
	ingestTitle = ""
	ingestType = ""
	ingestService = ""
	ingestContent = ""
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file]", ingestCmd.Use)
}

func TestIngestCmd_RequiresBusinessFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "--content", "hello"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "business")
}

func TestIngestCmd_InlineContent(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{
		"ingest", "-b", "biz-1", "-t", "Parking",
		"--content", "Free parking behind the shop.",
	})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Indexed document doc-1 (2 chunks)")

	mock := indexerService.(*mockIndexer)
	assert.Equal(t, "biz-1", mock.lastIngest.BusinessID)
	assert.Equal(t, "Parking", mock.lastIngest.Title)
	assert.Equal(t, domain.DocumentTypeNote, mock.lastIngest.Type)
	assert.Equal(t, "Free parking behind the shop.", mock.lastIngest.Content)
}

func TestIngestCmd_PDFFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	path := filepath.Join(t.TempDir(), "menu.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "-b", "biz-1", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)

	mock := indexerService.(*mockIndexer)
	assert.Equal(t, domain.DocumentTypePDF, mock.lastIngest.Type)
	assert.Equal(t, "menu", mock.lastIngest.Title)
	assert.Equal(t, "menu.pdf", mock.lastIngest.FileName)
	assert.NotEmpty(t, mock.lastIngest.FileData)
	assert.Empty(t, mock.lastIngest.Content)
}

func TestIngestCmd_TextFileDefaultsToNote(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	path := filepath.Join(t.TempDir(), "hours.txt")
	require.NoError(t, os.WriteFile(path, []byte("Open 9-5 weekdays."), 0644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "-b", "biz-1", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)

	mock := indexerService.(*mockIndexer)
	assert.Equal(t, domain.DocumentTypeNote, mock.lastIngest.Type)
	assert.Equal(t, "Open 9-5 weekdays.", mock.lastIngest.Content)
}

func TestIngestCmd_IndexingFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer resetIngestFlags()

	indexerService.(*mockIndexer).result = &driving.IndexResult{
		Success: false,
		Message: "all embeddings failed",
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "-b", "biz-1", "--content", "x"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all embeddings failed")
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	oldIndexer := indexerService
	indexerService = nil
	defer func() {
		indexerService = oldIndexer
		resetIngestFlags()
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "-b", "biz-1", "--content", "x"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
