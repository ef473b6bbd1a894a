package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"rentcomps/internal/app"
)

type batchResult struct {
	Line     int                   `json:"line"`
	Error    string                `json:"error,omitempty"`
	Analysis *app.AnalysisResponse `json:"analysis,omitempty"`
}

func newBatchCmd(g *globalFlags) *cobra.Command {
	var file string
	var workers int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze a JSON-lines file of requests; prints one JSON line per request, in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, deps, err := setup(g)
			if err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					return err
				}
				defer fh.Close()
				in = fh
			}
			reqs, err := readRequests(in)
			if err != nil {
				return err
			}
			results := runBatch(cmd, deps.Analysis, reqs, workers)

			enc := json.NewEncoder(cmd.OutOrStdout())
			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			log.Info().Int("total", len(results)).Int("failed", failed).Msg("batch completed")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON-lines input (- for stdin)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent analyses")
	return cmd
}

// parsed holds a decoded request or the reason its line was rejected, with the 1-based line
// number it was read from.
type parsed struct {
	line int
	req  app.AnalyzeRequest
	err  error
}

func readRequests(r io.Reader) ([]parsed, error) {
	var out []parsed
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		p := parsed{line: n}
		if err := json.Unmarshal(line, &p.req); err != nil {
			p.err = fmt.Errorf("decode: %w", err)
		}
		out = append(out, p)
	}
	return out, sc.Err()
}

func runBatch(cmd *cobra.Command, svc *app.AnalysisService, reqs []parsed, workers int) []batchResult {
	if workers <= 0 {
		workers = 1
	}
	ctx := cmd.Context()
	results := make([]batchResult, len(reqs))
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for i, p := range reqs {
		results[i].Line = p.line
		if p.err != nil {
			results[i].Error = p.err.Error()
			continue
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Error = err.Error()
			continue
		}
		wg.Add(1)
		go func(i, line int, req app.AnalyzeRequest) {
			defer wg.Done()
			defer sem.Release(1)

			resp, err := svc.Analyze(ctx, req)
			if err != nil {
				log.Warn().Int("line", line).Err(err).Msg("analysis failed")
				results[i].Error = err.Error()
				return
			}
			results[i].Analysis = &resp
		}(i, p.line, p.req)
	}
	wg.Wait()
	return results
}
