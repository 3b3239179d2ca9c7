// =============================================================================
// Sales Order Aggregator - File Manager Utility
// =============================================================================
//
// This module provides the file handling used by batch processing:
//   - Directory management
//   - Input discovery across several glob patterns
//   - Output file naming
//   - Archival of processed inputs and generated outputs
//   - Row error logs and run summaries
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful processing
//   - Output files are copied to output_archive
//   - Failed inputs stay where they are so they can be fixed and retried
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for batch processing.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs files archives under YYYY/MM/DD subdirectories.
	UseTimestampSubdirs bool

	// ArchiveOnSuccess enables archival. When false the archive calls
	// return the original path untouched.
	ArchiveOnSuccess bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewFileManager creates a FileManager with archival enabled.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// EnsureDirectories creates all configured directories.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.OutputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the regular files in the input directory that
// match any of the patterns. A file matching several patterns is listed once
// and the result is sorted.
//
// PARAMETERS:
//   - patterns: Glob patterns such as "*.tsv". Empty matches "*.tsv".
func (fm *FileManager) DiscoverInputFiles(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.tsv"}
	}

	seen := make(map[string]bool)
	var result []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
		}

		for _, file := range matches {
			if seen[file] {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			seen[file] = true
			result = append(result, file)
		}
	}

	slices.Sort(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the input archive directory.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.archivePath(fm.InputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies an output file to the output archive directory.
// The original stays in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.archivePath(fm.OutputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

func (fm *FileManager) archivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)
	if !fm.UseTimestampSubdirs {
		return filepath.Join(archiveDir, fileName)
	}

	now := fm.clock()
	return filepath.Join(archiveDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
		fileName,
	)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name format.
//
// PARAMETERS:
//   - format: The format string. Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//       {original}  - Input file name without extension
//   - inputPath: The input file; may be empty.
//
// EXAMPLE:
//   format:    "{original}_{uuid}.json"
//   inputPath: "input/orders.tsv"
//   output:    "orders_a1b2c3d4-e5f6-7890-abcd-ef1234567890.json"
func GenerateOutputFileName(format, inputPath string) string {
	return generateOutputFileName(format, inputPath, time.Now())
}

func generateOutputFileName(format, inputPath string, now time.Time) string {
	original := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if inputPath == "" {
		original = "orders"
	}

	result := strings.NewReplacer(
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
		"{original}", original,
	).Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), ".json") {
		result += ".json"
	}
	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one line of an error log.
type ErrorLogEntry struct {
	Timestamp time.Time
	FileName  string

	// ErrorType is "row" for row validation errors and "file" for failures
	// that stopped a file from being processed.
	ErrorType    string
	ErrorMessage string
}

// RowErrorEntries converts the row error messages of one file into log
// entries.
func RowErrorEntries(fileName string, messages []string, at time.Time) []ErrorLogEntry {
	entries := make([]ErrorLogEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, ErrorLogEntry{
			Timestamp:    at,
			FileName:     fileName,
			ErrorType:    "row",
			ErrorMessage: msg,
		})
	}
	return entries
}

// WriteErrorLog writes error entries to a new log file in outputDir.
//
// RETURNS:
//   - The path to the log file, or "" when there was nothing to write.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := time.Now()
	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s_%s.txt",
		now.Format("20060102_150405"), uuid.New().String()[:8]))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "Sales Order Aggregator - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"), len(entries))

	for i, entry := range entries {
		fmt.Fprintf(w, "Error #%d\n"+
			"  Timestamp:  %s\n"+
			"  File:       %s\n"+
			"  Error Type: %s\n"+
			"  Message:    %s\n\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)
	}

	w.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary describes one batch run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalRows       int
	TotalCustomers  int
	RowErrors       int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo describes a file that produced output.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Status      string
	Rows        int
	Customers   int
	RowErrors   int
	ProcessTime time.Duration
}

// FailedFileInfo describes a file that produced no output.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a run summary to a new file in outputDir.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt",
		summary.StartTime.Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "Sales Order Aggregator - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:  %s\n"+
		"  End Time:    %s\n"+
		"  Duration:    %s\n\n"+
		"Statistics:\n"+
		"  Total Files: %d\n"+
		"  Successful:  %d\n"+
		"  Failed:      %d\n"+
		"  Total Rows:  %d\n"+
		"  Customers:   %d\n"+
		"  Row Errors:  %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalRows,
		summary.TotalCustomers,
		summary.RowErrors)

	if len(summary.ProcessedFiles) > 0 {
		w.WriteString("Successful Files:\n")
		w.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(w, "  Output:       %s\n", pf.OutputFile)
			fmt.Fprintf(w, "  Status:       %s\n", pf.Status)
			fmt.Fprintf(w, "  Rows:         %d\n", pf.Rows)
			fmt.Fprintf(w, "  Customers:    %d\n", pf.Customers)
			fmt.Fprintf(w, "  Row Errors:   %d\n", pf.RowErrors)
			fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		w.WriteString("Failed Files:\n")
		w.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	w.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
