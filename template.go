package smtpkit

import (
	"fmt"
	"strings"
)

// RenderTemplate substitutes every {{key}} occurrence in template with the
// stringified value from context. Placeholders without a context entry are
// left in the output verbatim, and context keys absent from the template
// are ignored; neither is an error. There is no expression syntax and
// substituted values are not re-scanned for placeholders.
func RenderTemplate(template string, context map[string]any) string {
	if len(context) == 0 {
		return template
	}
	pairs := make([]string, 0, len(context)*2)
	for key, value := range context {
		pairs = append(pairs, "{{"+key+"}}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
