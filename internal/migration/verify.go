package migration

import "context"

// TableCount is a row count captured for one destination table.
type TableCount struct {
	Table string
	Count int64
}

// VerificationResult compares the origin count with what the destination holds.
type VerificationResult struct {
	Expected int64  `json:"expected"`
	Actual   int64  `json:"actual"`
	Matched  bool   `json:"matched"`
	Error    string `json:"error,omitempty"`
}

// Verify counts each table in the destination. It only reads; a mismatch is
// reported and nothing is repaired.
func Verify(ctx context.Context, target Target, expected []TableCount) map[string]VerificationResult {
	results := make(map[string]VerificationResult, len(expected))
	for _, tc := range expected {
		actual, err := target.Count(ctx, tc.Table)
		if err != nil {
			results[tc.Table] = VerificationResult{
				Expected: tc.Count,
				Actual:   -1,
				Error:    err.Error(),
			}
			continue
		}
		results[tc.Table] = VerificationResult{
			Expected: tc.Count,
			Actual:   actual,
			Matched:  actual == tc.Count,
		}
	}
	return results
}
