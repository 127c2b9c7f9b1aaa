package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reading is one CSV row: raw OCR text, optionally with the camera that
// produced it and when.
type Reading struct {
	RawText   string
	CameraID  string
	EventTime string
}

type recognizeResponse struct {
	Data struct {
		RegistrationStatus string `json:"registration_status"`
		Validation         struct {
			Valid      bool    `json:"valid"`
			Plate      string  `json:"plate"`
			Class      string  `json:"plate_class"`
			Confidence float64 `json:"confidence"`
			Message    string  `json:"message"`
		} `json:"validation"`
		Vehicle *struct {
			OwnerName string `json:"owner_name"`
		} `json:"vehicle"`
	} `json:"data"`
	Result *struct {
		RegistrationStatus string `json:"registration_status"`
	} `json:"result"`
	Error string `json:"error"`
}

const defaultServiceURL = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run replay_readings.go <path-to-csv> [service-url]")
		fmt.Println("CSV columns: raw_text[,camera_id[,event_time]]")
		fmt.Println("Rows with a camera_id are posted as camera events, the rest to /recognize")
		os.Exit(1)
	}

	csvPath := os.Args[1]
	serviceURL := defaultServiceURL
	if len(os.Args) > 2 {
		serviceURL = strings.TrimRight(os.Args[2], "/")
	}

	readings, err := readCSV(csvPath)
	if err != nil {
		fmt.Printf("Error reading CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Read %d readings from CSV\n", len(readings))

	client := &http.Client{Timeout: 10 * time.Second}
	counts := map[string]int{}
	failed := 0

	for i, r := range readings {
		status, line, err := replay(client, serviceURL, r)
		if err != nil {
			failed++
			fmt.Printf("  [%d] %-14q ✗ %v\n", i+1, r.RawText, err)
			continue
		}
		counts[status]++
		fmt.Printf("  [%d] %-14q %s\n", i+1, r.RawText, line)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Total readings:   %d\n", len(readings))
	fmt.Printf("  Registered:       %d\n", counts["registered"])
	fmt.Printf("  Not registered:   %d\n", counts["not_registered"])
	fmt.Printf("  Invalid format:   %d\n", counts["not_applicable"])
	fmt.Printf("  Request failures: %d\n", failed)
}

func readCSV(path string) ([]Reading, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var readings []Reading
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "raw_text") {
			continue
		}

		r := Reading{RawText: strings.TrimSpace(record[0])}
		if len(record) > 1 {
			r.CameraID = strings.TrimSpace(record[1])
		}
		if len(record) > 2 {
			r.EventTime = strings.TrimSpace(record[2])
		}
		readings = append(readings, r)
	}

	return readings, nil
}

func replay(client *http.Client, serviceURL string, r Reading) (string, string, error) {
	endpoint := serviceURL + "/api/v1/recognize"
	body := map[string]interface{}{"raw_text": r.RawText}
	if r.CameraID != "" {
		endpoint = serviceURL + "/api/v1/anpr/events"
		body["camera_id"] = r.CameraID
		if r.EventTime != "" {
			body["event_time"] = r.EventTime
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)
	}

	if out.Result != nil {
		return out.Result.RegistrationStatus, "event recorded: " + out.Result.RegistrationStatus, nil
	}

	d := out.Data
	if !d.Validation.Valid {
		return d.RegistrationStatus, "✗ " + d.Validation.Message, nil
	}
	line := fmt.Sprintf("→ %s (%s, %.1f) %s", d.Validation.Plate, d.Validation.Class, d.Validation.Confidence, d.RegistrationStatus)
	if d.Vehicle != nil {
		line += " owner=" + d.Vehicle.OwnerName
	}
	return d.RegistrationStatus, line, nil
}
