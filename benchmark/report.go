package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// TimestampLayout names export files after the run start time.
const TimestampLayout = "20060102_150405"

// SummaryHeader is the column order of the tabular export.
var SummaryHeader = []string{
	"Model Name",
	"Model Load Time (s)",
	"Total Images",
	"Successful Inferences",
	"Failed Inferences",
	"Success Rate (%)",
	"Total Inference Time (s)",
	"Average Inference Time (s)",
	"Total Detections",
	"Average Detections per Image",
	"Average Confidence",
}

// Reporter renders a Run to the console and persists its exports.
type Reporter struct {
	outputDir string
	out       io.Writer
	log       *slog.Logger
}

// NewReporter creates a reporter writing exports into outputDir and the
// console summary to out.
func NewReporter(outputDir string, out io.Writer, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{outputDir: outputDir, out: out, log: logger}
}

// Report prints the summary and saves both exports.
//
// Returns:
//   - jsonPath: The structured export.
//   - csvPath: The tabular export.
//   - error: A KindFatal Error if either export cannot be written.
func (r *Reporter) Report(run *Run) (jsonPath, csvPath string, err error) {
	r.PrintSummary(run)
	return r.SaveResults(run)
}

// PrintSummary writes the run totals and an aligned table with one row per model.
func (r *Reporter) PrintSummary(run *Run) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, separator)
	fmt.Fprintln(r.out, "Benchmark Summary")
	fmt.Fprintln(r.out, separator)
	fmt.Fprintf(r.out, "Total benchmark time: %.2fs\n", run.TotalBenchmarkTime)
	fmt.Fprintf(r.out, "Models tested: %d\n", len(run.ModelResults))

	if len(run.ModelResults) == 0 {
		return
	}

	fmt.Fprintln(r.out, "\nModel Performance Summary:")
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Model", "Load Time", "Avg Inference", "Success Rate", "Total Detections", "Avg Confidence"})
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, m := range run.ModelResults {
		table.Append([]string{
			m.ModelName,
			fmt.Sprintf("%.3f", m.ModelLoadTime),
			fmt.Sprintf("%.3f", m.AverageInferenceTime),
			fmt.Sprintf("%d/%d", m.SuccessfulInferences, m.TotalImages),
			strconv.Itoa(m.TotalDetections),
			fmt.Sprintf("%.3f", m.AverageConfidence),
		})
	}
	table.Render()
}

// SaveResults persists the structured and tabular exports, named after the
// run timestamp, into the output directory.
func (r *Reporter) SaveResults(run *Run) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", "", newError(KindFatal, "save", r.outputDir, errors.Wrap(err, "failed to create output directory"))
	}

	timestamp := run.Timestamp.Format(TimestampLayout)
	jsonPath = filepath.Join(r.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))
	csvPath = filepath.Join(r.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))

	if err := writeFile(jsonPath, func(w io.Writer) error { return WriteJSON(w, run) }); err != nil {
		return "", "", newError(KindFatal, "save", jsonPath, err)
	}
	r.log.Info("detailed results saved", "path", jsonPath)
	fmt.Fprintf(r.out, "\nDetailed results saved to: %s\n", jsonPath)

	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, run) }); err != nil {
		return jsonPath, "", newError(KindFatal, "save", csvPath, err)
	}
	r.log.Info("summary saved", "path", csvPath)
	fmt.Fprintf(r.out, "Summary saved to: %s\n", csvPath)

	return jsonPath, csvPath, nil
}

// WriteJSON writes the full run, every image result and detection included.
func WriteJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}
	return nil
}

// WriteCSV writes the header and one row per model result.
func WriteCSV(w io.Writer, run *Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for i := range run.ModelResults {
		if err := cw.Write(SummaryRow(&run.ModelResults[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SummaryRow renders one model result in SummaryHeader order.
func SummaryRow(m *ModelResult) []string {
	return []string{
		m.ModelName,
		formatFloat(m.ModelLoadTime),
		strconv.Itoa(m.TotalImages),
		strconv.Itoa(m.SuccessfulInferences),
		strconv.Itoa(m.FailedInferences),
		formatFloat(m.SuccessRate()),
		formatFloat(m.TotalInferenceTime),
		formatFloat(m.AverageInferenceTime),
		strconv.Itoa(m.TotalDetections),
		formatFloat(m.AverageDetectionsPerImage()),
		formatFloat(m.AverageConfidence),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
