// Command seed populates a running dashboard with demo machines, operators
// and pre-start checks through its HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Machine is the subset of machine fields the seeder sends.
type Machine struct {
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	SerialNumber string  `json:"serialNumber"`
	Type         string  `json:"type"`
	Year         int     `json:"year"`
	Hours        float64 `json:"hours"`
}

// Operator is the subset of operator fields the seeder sends.
type Operator struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Type    string `json:"type"`
	License string `json:"license,omitempty"`
}

// PreStart is a pre-start check submitted for a seeded machine.
type PreStart struct {
	MachineID    string          `json:"machineId"`
	OperatorID   string          `json:"operatorId,omitempty"`
	Operator     string          `json:"operator"`
	Checks       map[string]bool `json:"checks"`
	Hours        float64         `json:"hours"`
	Observations string          `json:"observations,omitempty"`
}

var catalog = map[string][][2]string{
	"excavator": {{"Caterpillar", "320"}, {"Komatsu", "PC210"}, {"Volvo", "EC220E"}},
	"loader":    {{"Caterpillar", "950M"}, {"John Deere", "644L"}},
	"dozer":     {{"Komatsu", "D61PX"}, {"Caterpillar", "D6"}},
	"grader":    {{"John Deere", "672G"}, {"Volvo", "G940"}},
}

var checkItems = []string{"Engine oil", "Hydraulic oil", "Coolant", "Tires", "Lights", "Horn", "Seat belt", "Fire extinguisher"}

var operatorNames = []string{"Ana Torres", "Luis Gómez", "Marta Ruiz", "Pedro Díaz", "Sofía León"}

// Client talks to the dashboard API with a session token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the API rooted at baseURL, which ends in /api.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) post(path string, body interface{}, want int, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s body: %w", path, err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("POST %s failed with status %d: %s", path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// Login signs in and keeps the session token for later requests.
func (c *Client) Login(email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.post("/auth/login", map[string]string{"email": email, "password": password}, http.StatusOK, &resp)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return fmt.Errorf("login returned no token")
	}
	c.token = resp.Token
	return nil
}

type created struct {
	ID string `json:"id"`
}

// CreateMachine creates a machine and returns its ID.
func (c *Client) CreateMachine(m Machine) (string, error) {
	var out created
	if err := c.post("/machines", m, http.StatusCreated, &out); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"machine_id": out.ID, "brand": m.Brand, "model": m.Model}).Info("Created machine")
	return out.ID, nil
}

// CreateOperator creates an operator and returns its ID.
func (c *Client) CreateOperator(o Operator) (string, error) {
	var out created
	if err := c.post("/operators", o, http.StatusCreated, &out); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"operator_id": out.ID, "name": o.Name}).Info("Created operator")
	return out.ID, nil
}

// CreatePreStart submits a pre-start check.
func (c *Client) CreatePreStart(p PreStart) error {
	var out struct {
		ID     string `json:"id"`
		Passed bool   `json:"passed"`
	}
	if err := c.post("/prestart", p, http.StatusCreated, &out); err != nil {
		return err
	}
	log.WithFields(log.Fields{"prestart_id": out.ID, "machine_id": p.MachineID, "passed": out.Passed}).Info("Recorded pre-start check")
	return nil
}

func randomMachine(rng *rand.Rand, n int) Machine {
	types := []string{"excavator", "loader", "dozer", "grader"}
	mtype := types[rng.Intn(len(types))]
	options := catalog[mtype]
	pick := options[rng.Intn(len(options))]
	return Machine{
		Brand:        pick[0],
		Model:        pick[1],
		SerialNumber: fmt.Sprintf("SN-%04d-%05d", n, rng.Intn(100000)),
		Type:         mtype,
		Year:         2015 + rng.Intn(10),
		Hours:        float64(rng.Intn(8000)),
	}
}

// randomChecks fails each item with probability failRate.
func randomChecks(rng *rand.Rand, failRate float64) map[string]bool {
	checks := make(map[string]bool, len(checkItems))
	for _, item := range checkItems {
		checks[item] = rng.Float64() >= failRate
	}
	return checks
}

// Options controls how much demo data is created.
type Options struct {
	Machines  int
	Operators int
	FailRate  float64
	Seed      int64
}

// Seed creates operators, then machines each with one pre-start check.
// It returns the number of machines created.
func Seed(c *Client, opts Options) (int, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	type operatorRef struct{ id, name string }
	operators := make([]operatorRef, 0, opts.Operators)
	for i := 0; i < opts.Operators; i++ {
		name := operatorNames[i%len(operatorNames)]
		id, err := c.CreateOperator(Operator{Name: name, Type: "operator", License: fmt.Sprintf("LIC-%03d", i+1)})
		if err != nil {
			log.WithError(err).Error("Failed to create operator")
			continue
		}
		operators = append(operators, operatorRef{id: id, name: name})
	}

	machines := 0
	for i := 0; i < opts.Machines; i++ {
		m := randomMachine(rng, i+1)
		id, err := c.CreateMachine(m)
		if err != nil {
			log.WithError(err).Error("Failed to create machine")
			continue
		}
		machines++

		check := PreStart{MachineID: id, Operator: "Seeder", Checks: randomChecks(rng, opts.FailRate), Hours: m.Hours}
		if len(operators) > 0 {
			op := operators[rng.Intn(len(operators))]
			check.OperatorID, check.Operator = op.id, op.name
		}
		if err := c.CreatePreStart(check); err != nil {
			log.WithError(err).WithField("machine_id", id).Error("Failed to record pre-start check")
		}
	}

	if machines == 0 && opts.Machines > 0 {
		return 0, fmt.Errorf("no machines created")
	}
	return machines, nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("SEED_EMAIL and SEED_PASSWORD are required")
	}

	opts := Options{
		Machines:  envInt("SEED_MACHINES", 5),
		Operators: envInt("SEED_OPERATORS", 3),
		FailRate:  0.1,
		Seed:      time.Now().UnixNano(),
	}
	log.WithFields(log.Fields{
		"api_url":   apiURL,
		"machines":  opts.Machines,
		"operators": opts.Operators,
	}).Info("Seeding dashboard")

	client := NewClient(apiURL)
	if err := client.Login(email, password); err != nil {
		log.WithError(err).Fatal("Login failed")
	}

	n, err := Seed(client, opts)
	if err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
	log.WithField("created_machines", n).Info("Seeding completed")
}
