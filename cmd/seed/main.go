package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Solution mirrors the API's suggested solution.
type Solution struct {
	Title      string   `json:"title"`
	Steps      []string `json:"steps"`
	Difficulty string   `json:"difficulty"`
}

// Diagnosis mirrors the API's causes/solutions payload.
type Diagnosis struct {
	PossibleCauses []string   `json:"possible_causes"`
	Solutions      []Solution `json:"solutions"`
}

// LogEntry is the body of POST /logs.
type LogEntry struct {
	EquipmentName     string    `json:"equipment_name"`
	EquipmentModel    string    `json:"equipment_model"`
	Brand             string    `json:"brand"`
	DefectCategory    string    `json:"defect_category"`
	DefectDescription string    `json:"defect_description"`
	Diagnosis         Diagnosis `json:"diagnosis"`
	ResolutionType    string    `json:"resolution_type"`
	TechnicianName    string    `json:"technician_name"`
	TechnicianNotes   string    `json:"technician_notes,omitempty"`
}

// Manual is the body of POST /manuals.
type Manual struct {
	EquipmentName  string `json:"equipment_name"`
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	ManualType     string `json:"manual_type"`
	ManualCategory string `json:"manual_category"`
	Description    string `json:"description"`
	FileURL        string `json:"file_url"`
	FileName       string `json:"file_name"`
}

var sampleManuals = []Manual{
	{
		EquipmentName:  "Lighting Tower",
		Brand:          "Atlas",
		Model:          "V20",
		ManualType:     "maintenance",
		ManualCategory: "electrical",
		Description:    "Check the main breaker and the lamp contactor before replacing ballasts. The alternator output must read 230 V at 1500 rpm.",
		FileName:       "atlas-v20-maintenance.txt",
	},
	{
		EquipmentName:  "Air Compressor",
		Brand:          "Kaeser",
		Model:          "M50",
		ManualType:     "technical",
		ManualCategory: "mechanical",
		Description:    "Drain the separator tank daily. Replace the intake filter every 500 hours; a clogged filter raises discharge temperature.",
		FileName:       "kaeser-m50-technical.txt",
	},
}

var sampleLogs = []LogEntry{
	{
		EquipmentName:     "Lighting Tower",
		EquipmentModel:    "V20",
		Brand:             "Atlas",
		DefectCategory:    "electrical",
		DefectDescription: "Lamps do not turn on after the engine starts",
		Diagnosis: Diagnosis{
			PossibleCauses: []string{"Tripped main breaker", "Failed lamp contactor"},
			Solutions: []Solution{
				{Title: "Reset the main breaker", Steps: []string{"Stop the engine", "Reset the breaker", "Restart and test"}, Difficulty: "Easy"},
			},
		},
		ResolutionType:  "alternative-method",
		TechnicianName:  "Seed",
		TechnicianNotes: "Contactor coil was open; replaced it",
	},
	{
		EquipmentName:     "Air Compressor",
		EquipmentModel:    "M50",
		Brand:             "Kaeser",
		DefectCategory:    "mechanical",
		DefectDescription: "Shuts down on high discharge temperature",
		Diagnosis: Diagnosis{
			PossibleCauses: []string{"Clogged intake filter", "Low oil level"},
			Solutions: []Solution{
				{Title: "Replace the intake filter", Steps: []string{"Isolate power", "Swap the filter element"}, Difficulty: "Easy"},
				{Title: "Top up compressor oil", Steps: []string{"Check the sight glass", "Fill to the mark"}, Difficulty: "Medium"},
			},
		},
		ResolutionType: "per-manual",
		TechnicianName: "Seed",
	},
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

var authToken string

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	return httpClient.Do(req)
}

func postJSON(url string, v any, wantStatus int, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	resp, err := authorizedPost(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError is a non-success response from the API.
type apiError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status %d: %s %s", e.Status, e.Code, e.Message)
}

func statusError(resp *http.Response) error {
	e := &apiError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(body, e)
	return e
}

// authenticate signs in, registering the account first if it does not exist.
func authenticate(apiURL, email, password string) (string, error) {
	var session struct {
		Token string `json:"token"`
	}
	creds := map[string]string{"email": email, "password": password, "display_name": "Seed"}

	err := postJSON(apiURL+"/auth/signin", creds, http.StatusOK, &session)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		log.WithField("email", email).Info("Seed account missing, signing up")
		err = postJSON(apiURL+"/auth/signup", creds, http.StatusCreated, &session)
	}
	if err != nil {
		return "", fmt.Errorf("authenticate %s: %w", email, err)
	}
	return session.Token, nil
}

func uploadManualFile(apiURL string, m Manual) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", m.FileName)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(fw, m.Description); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, err := authorizedPost(apiURL+"/manuals/upload", mw.FormDataContentType(), &body)
	if err != nil {
		return "", fmt.Errorf("failed to upload manual: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", statusError(resp)
	}

	var uploaded struct {
		FileURL string `json:"file_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return uploaded.FileURL, nil
}

func createManual(apiURL string, m Manual) error {
	url, err := uploadManualFile(apiURL, m)
	if err != nil {
		return err
	}
	m.FileURL = url
	if err := postJSON(apiURL+"/manuals", m, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("manual creation failed: %w", err)
	}

	log.WithFields(log.Fields{
		"equipment": m.EquipmentName,
		"model":     m.Model,
		"file_url":  url,
	}).Info("Created manual")
	return nil
}

func createLog(apiURL string, entry LogEntry) error {
	if err := postJSON(apiURL+"/logs", entry, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("log creation failed: %w", err)
	}
	log.WithFields(log.Fields{
		"equipment":  entry.EquipmentName,
		"model":      entry.EquipmentModel,
		"resolution": entry.ResolutionType,
	}).Info("Created maintenance log")
	return nil
}

// seed creates the sample data and returns how many records were written.
func seed(apiURL string) (int, error) {
	created := 0
	for _, m := range sampleManuals {
		if err := createManual(apiURL, m); err != nil {
			log.WithError(err).WithField("model", m.Model).Error("Failed to create manual")
			continue
		}
		created++
	}
	for _, entry := range sampleLogs {
		if err := createLog(apiURL, entry); err != nil {
			log.WithError(err).WithField("model", entry.EquipmentModel).Error("Failed to create log")
			continue
		}
		created++
	}
	if created == 0 {
		return 0, errors.New("nothing was created")
	}
	return created, nil
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	authToken = os.Getenv("SEED_AUTH_TOKEN")
	if authToken == "" {
		email, password := os.Getenv("SEED_EMAIL"), os.Getenv("SEED_PASSWORD")
		if email == "" || password == "" {
			log.Fatal("Set SEED_AUTH_TOKEN, or SEED_EMAIL and SEED_PASSWORD")
		}
		token, err := authenticate(apiURL, email, password)
		if err != nil {
			log.WithError(err).Fatal("Failed to authenticate")
		}
		authToken = token
	}

	log.WithField("api_url", apiURL).Info("Seeding sample data")
	created, err := seed(apiURL)
	if err != nil {
		log.WithError(err).Fatal("Seeding failed. Ensure the API is reachable and the store is configured.")
	}
	log.WithField("created", created).Info("Seeding completed")
}
