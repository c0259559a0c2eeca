package models

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadRequest reads a session file holding the same flat object as the
// POST /balance body.
func LoadRequest(path string) (*BalanceRequest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r BalanceRequest
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &r, nil
}

// Report is what SaveReport writes: the inputs next to the derived values.
type Report struct {
	Input  *BalanceRequest  `json:"input"`
	Result *BalanceResponse `json:"result"`
}

// SaveReport writes a _balanced.json report. It overwrites any previous
// report for the same session.
func SaveReport(path string, req *BalanceRequest, resp *BalanceResponse) error {
	if req == nil || resp == nil {
		return fmt.Errorf("nothing to save")
	}
	data, err := json.MarshalIndent(Report{Input: req, Result: resp}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReportPath derives the default report path from the session file path.
func ReportPath(sessionPath string) string {
	lower := strings.ToLower(sessionPath)
	if strings.HasSuffix(lower, "_balanced.json") {
		return sessionPath
	}
	if strings.HasSuffix(lower, ".json") {
		return sessionPath[:len(sessionPath)-len(".json")] + "_balanced.json"
	}
	return sessionPath + "_balanced.json"
}
