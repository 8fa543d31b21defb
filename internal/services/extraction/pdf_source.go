// -----------------------------------------------------------------------
// PDF Document Source - page-level text access backed by pdfcpu
// -----------------------------------------------------------------------

package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// PDFSource exposes a PDF's pages as extraction units. Pages are extracted
// lazily, one at a time, so the cascade's bounded scans never pull the whole
// document into memory.
type PDFSource struct {
	logger    arbor.ILogger
	workDir   string
	pdfPath   string
	conf      *model.Configuration
	pageCount int
}

// Compile-time interface assertion
var _ DocumentSource = (*PDFSource)(nil)

// NewPDFSource writes the PDF bytes to a working directory and reads its
// page count. Callers must Close to release the working directory.
func NewPDFSource(logger arbor.ILogger, data []byte) (*PDFSource, error) {
	workDir, err := os.MkdirTemp("", "precis-pdf-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	pdfPath := filepath.Join(workDir, "document.pdf")
	if err := os.WriteFile(pdfPath, data, 0644); err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(pdfPath)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	return &PDFSource{
		logger:    logger,
		workDir:   workDir,
		pdfPath:   pdfPath,
		conf:      model.NewDefaultConfiguration(),
		pageCount: pdfCtx.PageCount,
	}, nil
}

// UnitCount returns the number of pages
func (s *PDFSource) UnitCount() int {
	return s.pageCount
}

// UnitText extracts the text content of a single page (0-indexed unit)
func (s *PDFSource) UnitText(ctx context.Context, index int) (string, error) {
	if index < 0 || index >= s.pageCount {
		return "", nil
	}
	pageNum := index + 1

	outDir := filepath.Join(s.workDir, fmt.Sprintf("page_%d", pageNum))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create page directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(s.pdfPath, outDir, []string{strconv.Itoa(pageNum)}, s.conf); err != nil {
		return "", fmt.Errorf("failed to extract page %d: %w", pageNum, err)
	}

	content, err := os.ReadFile(filepath.Join(outDir, fmt.Sprintf("Content_page_%d.txt", pageNum)))
	if err != nil {
		// pdfcpu emits no file for pages without a content stream
		files, readErr := os.ReadDir(outDir)
		if readErr != nil || len(files) == 0 {
			return "", nil
		}
		content, err = os.ReadFile(filepath.Join(outDir, files[0].Name()))
		if err != nil {
			return "", nil
		}
	}

	return string(content), nil
}

// Close removes the working directory
func (s *PDFSource) Close() error {
	return os.RemoveAll(s.workDir)
}
