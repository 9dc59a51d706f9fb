// Package catalog reads exercise, session and patient definitions from YAML
// files and imports them into the repository.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mpataki/balneo/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

type Catalog struct {
	Exercises []Exercise `yaml:"exercises"`
	Sessions  []Session  `yaml:"sessions"`
	Patients  []Patient  `yaml:"patients"`
}

type Exercise struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Duration     int    `yaml:"duration"`
	Description  string `yaml:"description"`
	Instructions string `yaml:"instructions"`
}

// Session lists its exercises in program order. Each entry is an exercise
// id or, failing that, an exercise name.
type Session struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Exercises []string `yaml:"exercises"`
}

type Patient struct {
	ID        string `yaml:"id"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Notes     string `yaml:"notes"`
}

func Parse(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return &c, nil
}

// Default is the sample catalog a fresh installation starts with.
func Default() *Catalog {
	c, err := ParseBytes(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadAll merges every *.yaml / *.yml file found in dirs, in directory then
// file name order. Missing directories are skipped.
func LoadAll(dirs []string) (*Catalog, error) {
	merged := &Catalog{}

	for _, dir := range dirs {
		if err := loadFromDir(dir, merged); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
	}

	return merged, nil
}

func loadFromDir(dir string, merged *Catalog) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		c, err := Parse(path)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		merged.Exercises = append(merged.Exercises, c.Exercises...)
		merged.Sessions = append(merged.Sessions, c.Sessions...)
		merged.Patients = append(merged.Patients, c.Patients...)
	}

	return nil
}

func Validate(c *Catalog) error {
	exerciseIDs := make(map[string]bool)
	exerciseNames := make(map[string]bool)
	for i, ex := range c.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("exercise #%d must have a name", i+1)
		}
		if ex.Duration <= 0 {
			return fmt.Errorf("exercise %q must have a positive duration", ex.Name)
		}
		if ex.ID != "" {
			if exerciseIDs[ex.ID] {
				return fmt.Errorf("duplicate exercise id %q", ex.ID)
			}
			exerciseIDs[ex.ID] = true
		}
		exerciseNames[ex.Name] = true
	}

	sessionIDs := make(map[string]bool)
	for i, s := range c.Sessions {
		if s.Name == "" {
			return fmt.Errorf("session #%d must have a name", i+1)
		}
		if s.ID != "" {
			if sessionIDs[s.ID] {
				return fmt.Errorf("duplicate session id %q", s.ID)
			}
			sessionIDs[s.ID] = true
		}
		for _, ref := range s.Exercises {
			if !exerciseIDs[ref] && !exerciseNames[ref] {
				return fmt.Errorf("session %q references unknown exercise %q", s.Name, ref)
			}
		}
	}

	patientIDs := make(map[string]bool)
	for i, p := range c.Patients {
		if p.FirstName == "" {
			return fmt.Errorf("patient #%d must have a first name", i+1)
		}
		if p.ID != "" {
			if patientIDs[p.ID] {
				return fmt.Errorf("duplicate patient id %q", p.ID)
			}
			patientIDs[p.ID] = true
		}
	}

	return nil
}

// Store is the write side Import needs.
type Store interface {
	SaveExercise(ex *models.Exercise) error
	CreateSession(session *models.Session) error
	CreatePatient(p *models.Patient) error
}

// Import validates c and writes every record. Records with an id replace the
// stored record with that id.
func Import(store Store, c *Catalog) error {
	if err := Validate(c); err != nil {
		return err
	}

	byRef := make(map[string]string)
	for _, e := range c.Exercises {
		ex := &models.Exercise{
			ID:              e.ID,
			Name:            e.Name,
			DurationSeconds: e.Duration,
			Description:     e.Description,
			Instructions:    e.Instructions,
		}
		if err := store.SaveExercise(ex); err != nil {
			return err
		}
		if _, taken := byRef[e.Name]; !taken {
			byRef[e.Name] = ex.ID
		}
		if e.ID != "" {
			byRef[e.ID] = ex.ID
		}
	}

	for _, s := range c.Sessions {
		session := &models.Session{ID: s.ID, Name: s.Name}
		for i, ref := range s.Exercises {
			session.Exercises = append(session.Exercises, models.SessionExercise{
				ExerciseID: byRef[ref],
				Order:      i,
			})
		}
		if err := store.CreateSession(session); err != nil {
			return err
		}
	}

	for _, p := range c.Patients {
		patient := &models.Patient{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Notes:     p.Notes,
		}
		if err := store.CreatePatient(patient); err != nil {
			return err
		}
	}

	return nil
}
