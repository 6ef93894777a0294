package server

import "tldrist/internal/domain"

type runResponse struct {
	RunID        string            `json:"run_id"`
	Status       string            `json:"status"`
	DryRun       bool              `json:"dry_run"`
	Requested    int               `json:"requested"`
	Attempted    int               `json:"attempted"`
	Succeeded    []summarizedItem  `json:"succeeded"`
	Failed       []failedItem      `json:"failed"`
	Published    bool              `json:"published"`
	DigestRef    string            `json:"digest_ref,omitempty"`
	PublishError string            `json:"publish_error,omitempty"`
	Updated      int               `json:"updated"`
	UpdateFailed int               `json:"update_failed"`
}

type summarizedItem struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

type failedItem struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func buildRunResponse(report domain.RunReport) runResponse {
	resp := runResponse{
		RunID:        report.RunID,
		Status:       report.Status(),
		DryRun:       report.DryRun,
		Requested:    report.RequestedCount,
		Attempted:    report.Attempted(),
		Succeeded:    make([]summarizedItem, 0, len(report.Succeeded)),
		Failed:       make([]failedItem, 0, len(report.Failed)),
		Published:    report.Published,
		DigestRef:    report.DigestRef,
		PublishError: report.PublishErr,
		Updated:      report.UpdatedCount,
		UpdateFailed: report.UpdateFailed,
	}

	for _, success := range report.Succeeded {
		resp.Succeeded = append(resp.Succeeded, summarizedItem{
			ID:    success.Item.ID,
			URL:   success.Item.URL,
			Title: success.Extraction.Title,
		})
	}
	for _, failure := range report.Failed {
		item := failedItem{
			ID:    failure.Item.ID,
			URL:   failure.Item.URL,
			Stage: string(failure.Stage),
		}
		if failure.Err != nil {
			item.Error = failure.Err.Error()
		}
		resp.Failed = append(resp.Failed, item)
	}

	return resp
}
