package config

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// JobCategory groups the roles offered in one industry.
type JobCategory struct {
	Name  string   `yaml:"name" json:"name"`
	Roles []string `yaml:"roles" json:"roles"`
}

// JobCatalog is the ordered list of categories shown during job selection.
type JobCatalog struct {
	Categories []JobCategory `yaml:"categories" json:"categories"`
}

// DefaultJobCatalog returns the built-in categories and roles.
func DefaultJobCatalog() *JobCatalog {
	return &JobCatalog{Categories: []JobCategory{
		{Name: "Technology", Roles: []string{
			"Software Engineer", "Data Scientist", "Machine Learning Engineer",
			"DevOps Engineer", "Cybersecurity Analyst", "Product Manager",
			"UI/UX Designer", "Full Stack Developer", "Backend Developer",
			"Frontend Developer", "Cloud Architect", "AI Engineer",
		}},
		{Name: "Finance", Roles: []string{
			"Financial Analyst", "Investment Banker", "Risk Manager",
			"Portfolio Manager", "Accountant", "Financial Planner",
			"Quantitative Analyst", "Treasury Analyst",
		}},
		{Name: "Marketing", Roles: []string{
			"Digital Marketing Manager", "Content Marketing Specialist",
			"Social Media Manager", "Brand Manager", "SEO Specialist",
			"Marketing Analyst", "Growth Hacker",
		}},
		{Name: "Healthcare", Roles: []string{
			"Nurse", "Doctor", "Healthcare Administrator", "Medical Technician",
			"Pharmacist", "Physical Therapist", "Healthcare Analyst",
		}},
		{Name: "Consulting", Roles: []string{
			"Management Consultant", "Strategy Consultant", "Business Analyst",
			"Operations Consultant", "IT Consultant",
		}},
		{Name: "Sales", Roles: []string{
			"Sales Representative", "Account Manager", "Business Development Manager",
			"Sales Engineer", "Customer Success Manager",
		}},
	}}
}

// LoadJobCatalog reads a catalog YAML file, or returns the default when path is empty.
func LoadJobCatalog(path string) (*JobCatalog, error) {
	if path == "" {
		return DefaultJobCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job catalog %s: %w", path, err)
	}
	catalog, err := ParseJobCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("invalid job catalog %s: %w", path, err)
	}

	log.Printf("[CONFIG] Loaded job catalog from %s (%d categories)", path, len(catalog.Categories))
	return catalog, nil
}

// ParseJobCatalog decodes and validates catalog YAML.
func ParseJobCatalog(data []byte) (*JobCatalog, error) {
	var catalog JobCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks that every category is named, unique and non-empty.
func (c *JobCatalog) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("catalog has no categories")
	}
	seen := make(map[string]bool)
	for i, cat := range c.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return fmt.Errorf("category %d must have a name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate category: %s", name)
		}
		seen[name] = true
		if len(cat.Roles) == 0 {
			return fmt.Errorf("category %s has no roles", name)
		}
		for _, role := range cat.Roles {
			if strings.TrimSpace(role) == "" {
				return fmt.Errorf("category %s has an empty role", name)
			}
		}
	}
	return nil
}

// Category looks up a category by name.
func (c *JobCatalog) Category(name string) (JobCategory, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return JobCategory{}, false
}

// HasRole reports whether any category offers role.
func (c *JobCatalog) HasRole(role string) bool {
	for _, cat := range c.Categories {
		if slices.Contains(cat.Roles, role) {
			return true
		}
	}
	return false
}
