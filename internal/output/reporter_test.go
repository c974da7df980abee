package output

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
)

func TestConsoleReporter_Report(t *testing.T) {
	ar := upgrade.AccountRegion{AccountID: "111111111111", Region: "us-east-1"}
	target := upgrade.Target{AccountID: ar.AccountID, Region: ar.Region, Cluster: "prod", NodeGroup: "workers"}
	job := upgrade.NewJob(target, "u-1", nil)

	tests := []struct {
		name    string
		verbose bool
		event   upgrade.Event
		want    string
	}{
		{
			name:  "skipped account",
			event: upgrade.SkippedEvent(ar),
			want:  "Skipping account 111111111111 in region us-east-1\n",
		},
		{
			name:  "dispatch",
			event: upgrade.DispatchedEvent(job),
			want:  "Successfully initiated upgrade for nodegroup workers in cluster prod in region us-east-1 for account 111111111111\n",
		},
		{
			name:  "scan failure",
			event: upgrade.ScanFailedEvent(ar, errors.New("boom")),
			want:  "boom",
		},
		{
			name:  "scan completed is quiet by default",
			event: upgrade.ScanCompletedEvent(ar, 1),
			want:  "",
		},
		{
			name:    "scan completed when verbose",
			verbose: true,
			event:   upgrade.ScanCompletedEvent(ar, 1),
			want:    "1 nodegroup(s) require upgrade",
		},
		{
			name:  "transition is quiet by default",
			event: upgrade.Event{Kind: upgrade.EventTransition, Message: "moved"},
			want:  "",
		},
		{
			name:  "event without message",
			event: upgrade.Event{Kind: upgrade.EventDispatched},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewConsoleReporter(&buf, true, WithTransitions(tt.verbose))
			r.Report(tt.event)

			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
			assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
		})
	}
}

func TestConsoleReporter_ConcurrentLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, true)
	ar := upgrade.AccountRegion{AccountID: "111111111111", Region: "us-east-1"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(upgrade.SkippedEvent(ar))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 50)
	for _, l := range lines {
		assert.Equal(t, "Skipping account 111111111111 in region us-east-1", l)
	}
}
