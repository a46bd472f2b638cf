package provider

// Credentials captures the process-level carrier credentials read from the
// environment at startup. Availability is a pure function of this value;
// the environment is static for the process lifetime, so no I/O or caching
// is involved.
type Credentials struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	TextGridAPIKey     string
	TextGridFromNumber string

	SNSRegion string
}

// Available reports whether the named carrier has usable credentials.
func (c Credentials) Available(carrier string) bool {
	switch carrier {
	case Twilio:
		return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
	case TextGrid:
		return c.TextGridAPIKey != "" && c.TextGridFromNumber != ""
	case SNS:
		return c.SNSRegion != ""
	default:
		return false
	}
}

// AvailabilityChecker answers whether a carrier can be used right now.
// Credentials is the production implementation; tests substitute fakes.
type AvailabilityChecker interface {
	Available(carrier string) bool
}
