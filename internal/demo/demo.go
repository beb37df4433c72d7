// Package demo generates sample alert payloads for exercising the pipeline
// without a live M365 tenant. Payloads go through the same normalization and
// ingestion path as uploaded data.
package demo

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var categories = []string{
	"Initial Access",
	"Credential Access",
	"Phishing",
	"Malware",
	"Suspicious Activity",
	"Data Exfiltration",
	"Privilege Escalation",
}

var severities = []string{"low", "medium", "high", "critical"}

var titles = []string{
	"Suspicious sign-in detected",
	"Multiple failed login attempts",
	"Login blocked by conditional access",
	"Unauthorized access attempt",
	"Malware detected on endpoint",
	"Anomalous token issued",
	"Mass download from SharePoint",
	"Inbox forwarding rule created",
}

// Generator produces randomized alert payloads with a small pool of
// recurring entities so correlation and triage have material to work with.
type Generator struct {
	rng     *rand.Rand
	faker   *gofakeit.Faker
	users   []string
	ips     []string
	devices []string
	cities  []string
}

// NewGenerator seeds a generator. The same seed yields the same payloads.
func NewGenerator(seed int64) *Generator {
	faker := gofakeit.New(seed)
	g := &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		faker: faker,
	}
	// A small entity pool makes overlap, frequency, and shared-IP
	// scenarios likely instead of vanishing into random noise.
	for i := 0; i < 6; i++ {
		g.users = append(g.users, faker.Email())
	}
	for i := 0; i < 4; i++ {
		g.ips = append(g.ips, faker.IPv4Address())
	}
	for i := 0; i < 5; i++ {
		g.devices = append(g.devices, fmt.Sprintf("WS-%s", faker.LetterN(6)))
	}
	for i := 0; i < 4; i++ {
		g.cities = append(g.cities, faker.City())
	}
	return g
}

// Payloads returns n raw JSON alert payloads spread over the last window.
func (g *Generator) Payloads(n int, window time.Duration) ([][]byte, error) {
	now := time.Now().UTC()
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(g.rng.Int63n(int64(window)))
		ts := now.Add(-offset)

		doc := map[string]any{
			"id":        fmt.Sprintf("demo-%s", g.faker.UUID()),
			"source":    g.pick([]string{"Microsoft Defender", "Azure AD", "M365 Compliance"}),
			"title":     g.pick(titles),
			"category":  g.pick(categories),
			"severity":  g.pick(severities),
			"timestamp": ts.Format(time.RFC3339),
			"user":      g.pick(g.users),
			"ip":        g.pick(g.ips),
			"device":    g.pick(g.devices),
			"location":  g.pick(g.cities),
		}
		if g.rng.Intn(3) == 0 {
			doc["description"] = g.faker.Sentence(8)
		}

		payload, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal demo payload: %w", err)
		}
		out = append(out, payload)
	}
	return out, nil
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}
