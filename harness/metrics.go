package harness

import (
	"encoding/json"
	"fmt"
	"os"
)

// GroupOutput is one group entry of ResultsOutput.
type GroupOutput struct {
	Round            int     `json:"round"`
	Name             string  `json:"name"`
	Cases            int     `json:"cases"`
	MeanInstructions float64 `json:"mean_instructions"`
	ElapsedSec       float64 `json:"elapsed_sec"`
}

// FailureOutput is the failing case of ResultsOutput, without the blobs
// (those go to the artifact files).
type FailureOutput struct {
	Classification string `json:"classification"`
	Round          int    `json:"round"`
	Group          string `json:"group"`
	Index          int    `json:"index"`
	RunSeed        uint64 `json:"run_seed"`
	RoundSeed      string `json:"round_seed"`
	CaseSeed       string `json:"case_seed"`
	Instructions   uint64 `json:"instructions"`
	Alive          bool   `json:"alive"`
	Mismatch       bool   `json:"mismatch"`
}

// ResultsOutput is the JSON form of a Result.
type ResultsOutput struct {
	Passed         bool           `json:"passed"`
	RunStart       string         `json:"run_start"`
	RunEnd         string         `json:"run_end"`
	DurationSec    float64        `json:"duration_sec"`
	CompletedCases int            `json:"completed_cases"`
	Groups         []GroupOutput  `json:"groups"`
	Failure        *FailureOutput `json:"failure,omitempty"`
}

// Output converts r to its JSON form.
func (r Result) Output() ResultsOutput {
	out := ResultsOutput{
		Passed:      r.Passed(),
		RunStart:    r.Started.Format("2006-01-02 15:04:05"),
		RunEnd:      r.Finished.Format("2006-01-02 15:04:05"),
		DurationSec: r.Finished.Sub(r.Started).Seconds(),
		Groups:      make([]GroupOutput, 0, len(r.Groups)),
	}
	for _, g := range r.Groups {
		out.CompletedCases += g.Cases
		out.Groups = append(out.Groups, GroupOutput{
			Round:            g.Round,
			Name:             g.Name,
			Cases:            g.Cases,
			MeanInstructions: g.MeanInstructions,
			ElapsedSec:       g.Elapsed.Seconds(),
		})
	}
	if f := r.Failure; f != nil {
		out.Failure = &FailureOutput{
			Classification: f.Classification(),
			Round:          f.Round,
			Group:          f.Group,
			Index:          f.Index,
			RunSeed:        f.RunSeed,
			RoundSeed:      fmt.Sprintf("%#016x", f.RoundSeed),
			CaseSeed:       fmt.Sprintf("%#016x", f.CaseSeed),
			Instructions:   f.Instructions,
			Alive:          f.Alive,
			Mismatch:       f.Mismatch,
		}
	}
	return out
}

// SaveResults prints the JSON summary of r to stdout and, if outputFilePath
// is not empty, writes it there too.
func (r Result) SaveResults(outputFilePath string) error {
	data, err := json.MarshalIndent(r.Output(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	fmt.Println("=== Test Results ===")
	fmt.Println(string(data))

	if outputFilePath == "" {
		return nil
	}
	if err := os.WriteFile(outputFilePath, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	fmt.Printf("\nResults written to: %s\n", outputFilePath)
	return nil
}
