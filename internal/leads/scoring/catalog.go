package scoring

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default weights and modifiers.
const (
	DefaultHighWeight        = 25
	DefaultMediumWeight      = 12
	DefaultLowWeight         = 7
	DefaultUrgencyMultiplier = 1.5
	DefaultNegativePenalty   = 20
)

// Catalog is the phrase and weight configuration of a Scorer.
type Catalog struct {
	HighWeight        int      `yaml:"highWeight"`
	MediumWeight      int      `yaml:"mediumWeight"`
	LowWeight         int      `yaml:"lowWeight"`
	UrgencyMultiplier float64  `yaml:"urgencyMultiplier"`
	NegativePenalty   int      `yaml:"negativePenalty"`
	High              []string `yaml:"high"`
	Medium            []string `yaml:"medium"`
	Low               []string `yaml:"low"`
	Urgency           []string `yaml:"urgency"`
	Negative          []string `yaml:"negative"`
	Vehicles          []string `yaml:"vehicles"`
}

// DefaultCatalog returns the built-in automotive phrase catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		HighWeight:        DefaultHighWeight,
		MediumWeight:      DefaultMediumWeight,
		LowWeight:         DefaultLowWeight,
		UrgencyMultiplier: DefaultUrgencyMultiplier,
		NegativePenalty:   DefaultNegativePenalty,
		High: []string{
			"ready to buy", "looking to buy", "want to buy", "financing approved",
			"pre-approved", "cash in hand", "test drive", "make a deal", "make an offer",
		},
		Medium: []string{
			"shopping for", "comparing", "best price", "price range", "trade-in",
			"trade in", "monthly payment", "financing options", "lease deal", "dealer", "quote",
		},
		Low: []string{
			"car", "vehicle", "suv", "sedan", "truck", "honda", "toyota", "ford", "mpg",
			"upgrade", "upgrading", "new car", "used car", "mileage", "warranty",
		},
		Urgency: []string{
			"this week", "asap", "urgent", "immediately", "right away", "today",
			"this weekend", "by friday", "need it now",
		},
		Negative: []string{
			"just browsing", "not ready", "not in a rush", "no rush", "just looking",
			"not interested", "maybe next year", "window shopping", "already bought", "just curious",
		},
		Vehicles: []string{
			"honda civic", "honda accord", "honda cr-v", "toyota camry", "toyota corolla",
			"toyota rav4", "ford f-150", "ford mustang", "ford explorer", "chevrolet silverado",
			"tesla model 3", "tesla model y", "jeep wrangler", "subaru outback", "nissan altima",
			"bmw 3 series", "hyundai tucson", "kia telluride",
			"suv", "sedan", "truck", "pickup", "minivan", "coupe", "convertible",
			"hatchback", "electric", "hybrid",
		},
	}
}

// File is the on-disk catalog format. Sections left empty keep their defaults.
type File struct {
	Scoring Catalog             `yaml:"scoring"`
	Stages  map[string][]string `yaml:"stages"`
}

// LoadCatalog reads a YAML catalog file and overlays it on the defaults.
func LoadCatalog(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read phrase catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML catalog data and overlays it on the defaults.
func ParseCatalog(data []byte) (File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parse phrase catalog: %w", err)
	}
	file.Scoring = DefaultCatalog().merge(file.Scoring)
	if err := file.Scoring.validate(); err != nil {
		return File{}, err
	}
	return file, nil
}

func (c Catalog) merge(override Catalog) Catalog {
	if override.HighWeight != 0 {
		c.HighWeight = override.HighWeight
	}
	if override.MediumWeight != 0 {
		c.MediumWeight = override.MediumWeight
	}
	if override.LowWeight != 0 {
		c.LowWeight = override.LowWeight
	}
	if override.UrgencyMultiplier != 0 {
		c.UrgencyMultiplier = override.UrgencyMultiplier
	}
	if override.NegativePenalty != 0 {
		c.NegativePenalty = override.NegativePenalty
	}
	c.High = pick(c.High, override.High)
	c.Medium = pick(c.Medium, override.Medium)
	c.Low = pick(c.Low, override.Low)
	c.Urgency = pick(c.Urgency, override.Urgency)
	c.Negative = pick(c.Negative, override.Negative)
	c.Vehicles = pick(c.Vehicles, override.Vehicles)
	return c
}

func (c Catalog) validate() error {
	if c.HighWeight < 0 || c.MediumWeight < 0 || c.LowWeight < 0 || c.NegativePenalty < 0 {
		return fmt.Errorf("phrase catalog weights must not be negative")
	}
	if c.UrgencyMultiplier < 1 {
		return fmt.Errorf("phrase catalog urgency multiplier must be at least 1")
	}
	return nil
}

func pick(fallback, override []string) []string {
	if len(override) == 0 {
		return fallback
	}
	return override
}

// normalizePhrases lowercases, trims and drops blank or repeated phrases
// while keeping catalog order.
func normalizePhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
