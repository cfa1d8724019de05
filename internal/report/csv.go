package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/five82/hevcheck/internal/analysis"
	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/verify"
)

// WriteVerdictsCSV writes one row per verified file to path.
func WriteVerdictsCSV(path string, verdicts []verify.Verdict) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("cannot create report "+path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"converted_file", "source_file", "status", "passed",
		"vmaf", "psnr", "ssim", "elapsed_seconds", "errors",
	}
	if err := w.Write(header); err != nil {
		return errors.NewIOError("cannot write report "+path, err)
	}

	for i := range verdicts {
		v := &verdicts[i]
		row := []string{
			v.ConvertedFile,
			v.SourceFile,
			string(v.Status),
			strconv.FormatBool(v.Passed),
			formatOptional(v.VMAF),
			formatOptional(v.PSNR),
			formatOptional(v.SSIM),
			fmt.Sprintf("%.3f", v.Elapsed.Seconds()),
			joinErrors(v.Errors),
		}
		if err := w.Write(row); err != nil {
			return errors.NewIOError("cannot write report "+path, err)
		}
	}

	w.Flush()
	return w.Error()
}

// WriteQualityCSV writes compression and quality analysis rows to path,
// ranked by quality per bit.
func WriteQualityCSV(path string, records []analysis.QualityRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("cannot create report "+path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"file", "source_size", "converted_size",
		"size_reduction_percent", "compression_ratio", "bitrate_reduction_percent",
		"vmaf", "psnr", "ssim", "quality_per_bit",
	}
	if err := w.Write(header); err != nil {
		return errors.NewIOError("cannot write report "+path, err)
	}

	for _, rec := range analysis.RankByEfficiency(records) {
		row := []string{
			rec.File,
			strconv.FormatUint(rec.SourceSize, 10),
			strconv.FormatUint(rec.ConvertedSize, 10),
			formatOptional(rec.SizeReductionPercent),
			formatOptional(rec.CompressionRatio),
			formatOptional(rec.BitrateReductionPercent),
			formatOptional(rec.VMAF),
			formatOptional(rec.PSNR),
			formatOptional(rec.SSIM),
			formatOptional(rec.QualityPerBit),
		}
		if err := w.Write(row); err != nil {
			return errors.NewIOError("cannot write report "+path, err)
		}
	}

	w.Flush()
	return w.Error()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func joinErrors(msgs []string) string {
	out := ""
	for i, msg := range msgs {
		if i > 0 {
			out += "; "
		}
		out += msg
	}
	return out
}
