package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// PrintBucketStatus writes a human readable listing of prefix to w.
func (h *MediaHost) PrintBucketStatus(ctx context.Context, w io.Writer, prefix string) error {
	objects, stats, err := h.List(ctx, prefix)
	if err != nil {
		return err
	}
	WriteReport(w, h.bucket, prefix, objects, stats)
	return nil
}

// WriteReport formats a bucket listing.
func WriteReport(w io.Writer, bucket, prefix string, objects []ObjectInfo, stats *BucketStats) {
	fmt.Fprintf(w, "Bucket:        %s\n", bucket)
	fmt.Fprintf(w, "Prefix:        %q\n", prefix)
	fmt.Fprintf(w, "Objects:       %s\n", humanize.Comma(stats.TotalObjects))
	fmt.Fprintf(w, "Total size:    %s\n", humanize.IBytes(uint64(stats.TotalSize)))
	if !stats.LastModified.IsZero() {
		fmt.Fprintf(w, "Last modified: %s (%s)\n",
			stats.LastModified.Format(time.RFC3339), humanize.Time(stats.LastModified))
	}

	sorted := make([]ObjectInfo, len(objects))
	copy(sorted, objects)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	for _, obj := range sorted {
		fmt.Fprintf(w, "  %-60s %10s  %s\n", obj.Key, humanize.IBytes(uint64(obj.Size)),
			obj.LastModified.Format("2006-01-02 15:04:05"))
	}
}
