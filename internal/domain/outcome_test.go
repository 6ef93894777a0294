package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunReportStatus(t *testing.T) {
	t.Parallel()

	success := Success{Item: Item{ID: "t1"}}
	failure := Failure{Item: Item{ID: "t2"}, Stage: StageExtract, Err: errors.New("boom")}

	assert.Equal(t, RunSkipped, RunReport{Skipped: true}.Status())
	assert.Equal(t, RunFailed, RunReport{Failed: []Failure{failure}}.Status())
	assert.Equal(t, RunPartialSuccess, RunReport{Succeeded: []Success{success}, Failed: []Failure{failure}}.Status())
	assert.Equal(t, RunPartialSuccess, RunReport{Succeeded: []Success{success}, PublishErr: "smtp"}.Status())
	assert.Equal(t, RunPartialSuccess, RunReport{Succeeded: []Success{success}, UpdateFailed: 1}.Status())
	assert.Equal(t, RunSuccess, RunReport{Succeeded: []Success{success}, Published: true}.Status())
}

func TestAttempted(t *testing.T) {
	t.Parallel()

	report := RunReport{
		Succeeded: []Success{{}, {}},
		Failed:    []Failure{{}},
	}
	assert.Equal(t, 3, report.Attempted())
}
