package conditions

import (
	"strings"
	"unicode"

	"github.com/dukex/flowbuilder/pkg/models"
)

// DefaultPropertyLabels are the display names of common condition properties.
var DefaultPropertyLabels = map[string]string{
	"country":      "Country",
	"city":         "City",
	"email":        "Email",
	"status":       "Status",
	"first_name":   "First Name",
	"last_name":    "Last Name",
	"phone":        "Phone",
	"company":      "Company",
	"job_title":    "Job Title",
	"event_type":   "Event Type",
	"trigger_type": "Trigger Type",
	"file_type":    "File Type",
	"subject":      "Subject",
	"sender":       "Sender",
	"priority":     "Priority",
	"amount":       "Amount",
	"stage":        "Stage",
	"source":       "Source",
	"tag":          "Tag",
	"url":          "URL",
	"id":           "ID",
}

// DefaultOperatorLabels are the display names of the operators.
var DefaultOperatorLabels = map[string]string{
	string(models.OperatorIs):          "is",
	string(models.OperatorIsNot):       "is not",
	string(models.OperatorContains):    "contains",
	string(models.OperatorNotContains): "does not contain",
	string(models.OperatorStartsWith):  "starts with",
	string(models.OperatorEndsWith):    "ends with",
	string(models.OperatorIsEmpty):     "is empty",
	string(models.OperatorIsNotEmpty):  "is not empty",
}

// Prettifier turns raw property and operator tokens into display text. Lookups try
// an exact table match, then the camelCase or snake_case spelling of the token, then
// fall back to splitting the token into Title Case words.
type Prettifier struct {
	Properties map[string]string
	Operators  map[string]string
}

// NewPrettifier returns a Prettifier over the default tables overlaid with the
// element's propertyOptions and operatorOptions.
func NewPrettifier(el *models.UIElement) *Prettifier {
	p := &Prettifier{
		Properties: make(map[string]string, len(DefaultPropertyLabels)),
		Operators:  make(map[string]string, len(DefaultOperatorLabels)),
	}

	for k, v := range DefaultPropertyLabels {
		p.Properties[k] = v
	}

	for k, v := range DefaultOperatorLabels {
		p.Operators[k] = v
	}

	if el != nil {
		for _, opt := range el.PropertyOptions {
			if opt.Label != "" {
				p.Properties[opt.Value] = opt.Label
			}
		}

		for _, opt := range el.OperatorOptions {
			if opt.Label != "" {
				p.Operators[opt.Value] = opt.Label
			}
		}
	}

	return p
}

// Property prettifies a property token.
func (p *Prettifier) Property(token string) string {
	return prettify(p.Properties, token)
}

// Operator prettifies an operator token.
func (p *Prettifier) Operator(token string) string {
	return prettify(p.Operators, token)
}

func prettify(table map[string]string, token string) string {
	if token == "" {
		return ""
	}

	if label, ok := table[token]; ok {
		return label
	}

	if label, ok := table[ToSnake(token)]; ok {
		return label
	}

	if label, ok := table[ToCamel(token)]; ok {
		return label
	}

	return TitleCase(token)
}

// ToSnake converts camelCase or PascalCase to snake_case.
func ToSnake(s string) string {
	var b strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}

			b.WriteRune(unicode.ToLower(r))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

// ToCamel converts snake_case to camelCase.
func ToCamel(s string) string {
	parts := strings.Split(s, "_")

	var b strings.Builder

	for i, part := range parts {
		if part == "" {
			continue
		}

		if i == 0 || b.Len() == 0 {
			b.WriteString(strings.ToLower(part))

			continue
		}

		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	return b.String()
}

// TitleCase splits a snake_case, kebab-case or camelCase token into capitalized words.
func TitleCase(s string) string {
	words := strings.FieldsFunc(ToSnake(s), func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})

	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
