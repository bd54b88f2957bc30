package schema

import (
	"fmt"
	"strings"
)

// MissingColumnsError reports every required column absent from a table.
type MissingColumnsError struct {
	Table   string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("schema: table %s is missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// Check verifies header against c. It returns nil or a *MissingColumnsError
// listing all missing required columns in contract order.
func Check(c Contract, header []string) error {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, name := range c.Required() {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{Table: c.Name, Missing: missing}
}
