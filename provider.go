package smtpkit

// Provider selects one of the supported well-known SMTP providers.
type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderOutlook Provider = "outlook"
	ProviderYahoo   Provider = "yahoo"
)

// providerConfig is the connection profile for a provider. Adding a
// provider is a data change here, not a control-flow change elsewhere.
type providerConfig struct {
	Host     string
	Port     int
	StartTLS bool
}

var providerConfigs = map[Provider]providerConfig{
	ProviderGmail:   {Host: "smtp.gmail.com", Port: 587, StartTLS: true},
	ProviderOutlook: {Host: "smtp.office365.com", Port: 587, StartTLS: true},
	ProviderYahoo:   {Host: "smtp.mail.yahoo.com", Port: 587, StartTLS: true},
}

// SupportedProviders returns the provider names accepted by New,
// in a stable order.
func SupportedProviders() []Provider {
	return []Provider{ProviderGmail, ProviderOutlook, ProviderYahoo}
}

// resolveProvider validates the provider name and returns its connection
// profile. Runs at construction time, before any network activity.
func resolveProvider(p Provider) (providerConfig, error) {
	cfg, ok := providerConfigs[p]
	if !ok {
		return providerConfig{}, newValidationError(
			"unknown provider %q, supported: %v", p, SupportedProviders())
	}
	return cfg, nil
}

// String implements fmt.Stringer.
func (p Provider) String() string { return string(p) }
