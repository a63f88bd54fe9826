package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/treasury-recon/pkg/aging"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/ledger"
	"github.com/shunichi-ikebuchi/treasury-recon/pkg/matcher"
)

// Policy holds the matching and age-classification constants.
type Policy struct {
	// Matching tolerance: above Threshold, amounts may differ by Tolerance (relative).
	Threshold string `yaml:"threshold"`
	Tolerance string `yaml:"tolerance"`

	// ThresholdDays configures the day-threshold age policy.
	ThresholdDays int `yaml:"threshold_days"`

	// RoutingPolicy classifies Treasury rows during reconciliation.
	RoutingPolicy string `yaml:"routing_policy"`
	// SubmitPolicy decides when a submitted payment needs old-payment verification.
	SubmitPolicy string `yaml:"submit_policy"`
	// LookupPolicy classifies single-payment settlement lookups.
	LookupPolicy string `yaml:"lookup_policy"`

	// Companies is the search order for rows without a company.
	Companies []string `yaml:"companies"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		Threshold:     matcher.DefaultThreshold.StringFixed(2),
		Tolerance:     matcher.DefaultTolerance.String(),
		ThresholdDays: aging.DefaultThresholdDays,
		RoutingPolicy: aging.CalendarBoundaryName,
		SubmitPolicy:  aging.CalendarBoundaryName,
		LookupPolicy:  aging.DayThresholdName,
		Companies:     []string{string(ledger.CompanySALAM), string(ledger.CompanyMVNO)},
	}
}

// LoadPolicy reads a YAML policy file over the defaults.
// A missing file yields DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return policy, nil
		}
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return policy, nil
}

// Matcher builds the amount matcher described by the policy.
func (p Policy) Matcher() (*matcher.Matcher, error) {
	threshold, err := decimal.NewFromString(p.Threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid threshold %q: %w", p.Threshold, err)
	}
	if threshold.IsNegative() {
		return nil, fmt.Errorf("invalid threshold %q: must not be negative", p.Threshold)
	}
	tolerance, err := decimal.NewFromString(p.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid tolerance %q: %w", p.Tolerance, err)
	}
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("invalid tolerance %q: must not be negative", p.Tolerance)
	}
	return matcher.New(threshold, tolerance), nil
}

// Routing returns the age policy used to route Treasury rows.
func (p Policy) Routing() (aging.Policy, error) {
	return aging.ByName(p.RoutingPolicy, p.ThresholdDays)
}

// Submit returns the age policy used at submission time.
func (p Policy) Submit() (aging.Policy, error) {
	return aging.ByName(p.SubmitPolicy, p.ThresholdDays)
}

// Lookup returns the age policy used for single-payment lookups.
func (p Policy) Lookup() (aging.Policy, error) {
	return aging.ByName(p.LookupPolicy, p.ThresholdDays)
}

// CompanyOrder returns the configured company search order.
func (p Policy) CompanyOrder() ([]ledger.Company, error) {
	companies := make([]ledger.Company, 0, len(p.Companies))
	for _, name := range p.Companies {
		company, ok := ledger.ParseCompany(name)
		if !ok {
			return nil, fmt.Errorf("unknown company in policy: %q", name)
		}
		companies = append(companies, company)
	}
	return companies, nil
}
