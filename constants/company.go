package constants

// earlyStartCompany joined the electronic-invoice rollout one year before the
// rest of the group, so its audit window opens a year earlier.
const earlyStartCompany = "CV"

const (
	defaultEligibleYear    = 2025
	earlyStartEligibleYear = 2024
)

// MinEligibleYear returns the first document year auditable for a company.
func MinEligibleYear(company string) int {
	if company == earlyStartCompany {
		return earlyStartEligibleYear
	}
	return defaultEligibleYear
}

// EligibleYear reports whether a document year falls inside the audit window
// for the given company.
func EligibleYear(company string, year int) bool {
	return year >= MinEligibleYear(company)
}
