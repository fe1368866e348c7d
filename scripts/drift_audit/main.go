// Command drift_audit runs drift detection against a running finance-api
// instance for a batch of sent invoices and prints a report. It exits
// non-zero when any invoice needs an amendment, so it can gate a cron job
// or a release pipeline.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type auditConfig struct {
	InvoiceIDs []string `json:"invoice_ids"`
}

type validateRequest struct {
	OperationType string `json:"operation_type"`
	InvoiceID     string `json:"invoice_id"`
}

type driftIssue struct {
	Severity    string `json:"severity"`
	Issue       string `json:"issue"`
	Message     string `json:"message"`
	TimesheetID string `json:"timesheet_id,omitempty"`
}

type driftReport struct {
	HasDrift       bool         `json:"has_drift"`
	DriftIssues    []driftIssue `json:"drift_issues"`
	CriticalCount  int          `json:"critical_count"`
	Recommendation string       `json:"recommendation"`
}

type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

type auditResult struct {
	InvoiceID string
	Report    *driftReport
	Duration  time.Duration
	Err       error
}

func main() {
	var (
		baseURL    string
		token      string
		configPath string
		timeout    time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "finance-api base URL")
	flag.StringVar(&token, "token", os.Getenv("FINANCE_API_TOKEN"), "bearer token for the API")
	flag.StringVar(&configPath, "invoices", filepath.Join("scripts", "drift_audit", "invoices.json"), "path to JSON file listing invoice IDs")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	ids, err := loadInvoiceIDs(configPath)
	if err != nil {
		log.Fatalf("failed to load invoice list: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results    []auditResult
		amendments int
		failures   int
	)

	for _, id := range ids {
		res := auditInvoice(client, baseURL, token, id)
		if res.Err != nil {
			failures++
		} else if res.Report.HasDrift && res.Report.CriticalCount > 0 {
			amendments++
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Invoices needing amendment: %d, Audit failures: %d\n", amendments, failures)
	if amendments > 0 || failures > 0 {
		os.Exit(1)
	}
}

func loadInvoiceIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg auditConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.InvoiceIDs) == 0 {
		return nil, fmt.Errorf("no invoice IDs defined in %s", path)
	}
	return cfg.InvoiceIDs, nil
}

func auditInvoice(client *http.Client, base, token, invoiceID string) auditResult {
	res := auditResult{InvoiceID: invoiceID}

	body, err := json.Marshal(validateRequest{
		OperationType: "detect_drift",
		InvoiceID:     invoiceID,
	})
	if err != nil {
		res.Err = err
		return res
	}

	url := strings.TrimRight(base, "/") + "/api/v1/financial/validate"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = fmt.Errorf("read response: %w", err)
		return res
	}
	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return res
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		res.Err = fmt.Errorf("decode envelope: %w", err)
		return res
	}
	var report driftReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		res.Err = fmt.Errorf("decode drift report: %w", err)
		return res
	}
	res.Report = &report
	return res
}

func printReport(results []auditResult) {
	fmt.Println("Invoice Drift Audit")
	fmt.Println("===================")
	for _, res := range results {
		status := "CLEAN"
		if res.Err != nil {
			status = "ERROR"
		} else if res.Report.HasDrift {
			status = "DRIFT"
		}
		fmt.Printf("[%s] %s (%s)\n", status, res.InvoiceID, res.Duration)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  Recommendation: %s\n", res.Report.Recommendation)
		for _, issue := range res.Report.DriftIssues {
			fmt.Printf("  - [%s] %s: %s\n", issue.Severity, issue.Issue, issue.Message)
		}
	}
}
