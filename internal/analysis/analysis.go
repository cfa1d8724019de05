// Package analysis computes post-hoc compression efficiency metrics across a
// completed verification run.
package analysis

import (
	"sort"

	"github.com/five82/hevcheck/internal/verify"
)

// QualityRecord joins size and bitrate metrics with quality scores for one
// file pair. Metrics with a zero denominator are left nil (undefined) rather
// than producing NaN. Records are never mutated after creation.
type QualityRecord struct {
	File string

	SourceSize    uint64
	ConvertedSize uint64

	SourceBitrateKbps    *float64
	ConvertedBitrateKbps *float64

	SizeReductionPercent    *float64
	CompressionRatio        *float64
	BitrateReductionPercent *float64

	PSNR *float64
	SSIM *float64
	VMAF *float64

	// QualityPerBit is (VMAF x 10) / converted bitrate in kbps.
	QualityPerBit *float64
}

// BuildRecord derives a QualityRecord from a finalized verdict. Returns nil
// when the verdict carries no probe data to analyze.
func BuildRecord(v *verify.Verdict) *QualityRecord {
	if v.SourceInfo == nil || v.ConvertedInfo == nil {
		return nil
	}

	rec := &QualityRecord{
		File:          v.ConvertedFile,
		SourceSize:    v.SourceInfo.SizeBytes,
		ConvertedSize: v.ConvertedInfo.SizeBytes,
		PSNR:          v.PSNR,
		SSIM:          v.SSIM,
		VMAF:          v.VMAF,
	}

	if v.SourceInfo.BitrateBps != nil {
		kbps := float64(*v.SourceInfo.BitrateBps) / 1000
		rec.SourceBitrateKbps = &kbps
	}
	if v.ConvertedInfo.BitrateBps != nil {
		kbps := float64(*v.ConvertedInfo.BitrateBps) / 1000
		rec.ConvertedBitrateKbps = &kbps
	}

	if rec.SourceSize > 0 {
		reduction := (float64(rec.SourceSize) - float64(rec.ConvertedSize)) / float64(rec.SourceSize) * 100
		rec.SizeReductionPercent = &reduction
	}
	if rec.ConvertedSize > 0 {
		ratio := float64(rec.SourceSize) / float64(rec.ConvertedSize)
		rec.CompressionRatio = &ratio
	}
	if rec.SourceBitrateKbps != nil && rec.ConvertedBitrateKbps != nil && *rec.SourceBitrateKbps > 0 {
		reduction := (*rec.SourceBitrateKbps - *rec.ConvertedBitrateKbps) / *rec.SourceBitrateKbps * 100
		rec.BitrateReductionPercent = &reduction
	}
	if rec.VMAF != nil && rec.ConvertedBitrateKbps != nil && *rec.ConvertedBitrateKbps > 0 {
		qpb := (*rec.VMAF * 10) / *rec.ConvertedBitrateKbps
		rec.QualityPerBit = &qpb
	}

	return rec
}

// BuildRecords derives records for every analyzable verdict, preserving
// verdict order.
func BuildRecords(verdicts []verify.Verdict) []QualityRecord {
	var records []QualityRecord
	for i := range verdicts {
		if rec := BuildRecord(&verdicts[i]); rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

// RankByEfficiency returns a copy of records sorted by quality-per-bit
// descending. Records with an undefined quality-per-bit sort last, keeping
// their relative order.
func RankByEfficiency(records []QualityRecord) []QualityRecord {
	ranked := make([]QualityRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		qi, qj := ranked[i].QualityPerBit, ranked[j].QualityPerBit
		if qi == nil {
			return false
		}
		if qj == nil {
			return true
		}
		return *qi > *qj
	})
	return ranked
}
