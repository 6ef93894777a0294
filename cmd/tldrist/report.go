package main

import "tldrist/internal/domain"

// reportSummary flattens a run report for console output.
func reportSummary(report domain.RunReport) map[string]any {
	failed := make([]map[string]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		entry := map[string]string{
			"id":    f.Item.ID,
			"url":   f.Item.URL,
			"stage": string(f.Stage),
		}
		if f.Err != nil {
			entry["error"] = f.Err.Error()
		}
		failed = append(failed, entry)
	}

	succeeded := make([]map[string]string, 0, len(report.Succeeded))
	for _, s := range report.Succeeded {
		succeeded = append(succeeded, map[string]string{
			"id":    s.Item.ID,
			"url":   s.Item.URL,
			"title": s.Extraction.Title,
		})
	}

	out := map[string]any{
		"run_id":        report.RunID,
		"status":        report.Status(),
		"dry_run":       report.DryRun,
		"requested":     report.RequestedCount,
		"attempted":     report.Attempted(),
		"succeeded":     succeeded,
		"failed":        failed,
		"published":     report.Published,
		"updated":       report.UpdatedCount,
		"update_failed": report.UpdateFailed,
	}
	if report.DigestRef != "" {
		out["digest_ref"] = report.DigestRef
	}
	if report.PublishErr != "" {
		out["publish_error"] = report.PublishErr
	}
	return out
}
