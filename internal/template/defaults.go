package template

// Type is the message purpose a template serves.
type Type string

const (
	TypeDelivery          Type = "delivery"
	TypeOptinRequest      Type = "optin_request"
	TypeOptinConfirmation Type = "optin_confirmation"
	TypeMarketing         Type = "marketing"
)

// Valid reports whether t is a known template type.
func (t Type) Valid() bool {
	switch t {
	case TypeDelivery, TypeOptinRequest, TypeOptinConfirmation, TypeMarketing:
		return true
	}
	return false
}

// systemDefaults are the compiled-in templates of last resort. Resolution
// must always produce some text, so every type has an entry here.
var systemDefaults = map[Type]string{
	TypeDelivery:          "Hi {first_name}! Your {dollar_value} {brand} gift card from {company} is ready: {link}",
	TypeOptinRequest:      "Hi {first_name}, {company} has a {brand} reward waiting for you. Reply YES to receive it. Reply STOP to opt out.",
	TypeOptinConfirmation: "You're all set, {first_name}! Your {brand} gift card from {company} is on its way.",
	TypeMarketing:         "{{message}}",
}

// SystemDefault returns the compiled-in template for a type. Unknown types
// fall back to the delivery template rather than returning empty text.
func SystemDefault(t Type) string {
	if tmpl, ok := systemDefaults[t]; ok {
		return tmpl
	}
	return systemDefaults[TypeDelivery]
}
