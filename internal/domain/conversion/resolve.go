package conversion

import (
	"path/filepath"
	"strings"
)

// ResolveOutputs expands bare extensions into file names in the current
// working directory. A bare extension takes the base name of the output
// resolved just before it, or of input for the first token. Tokens that
// already contain a "." are used unchanged.
func ResolveOutputs(input string, tokens []string) []string {
	outputs := make([]string, 0, len(tokens))
	prev := input
	for _, token := range tokens {
		output := token
		if !strings.Contains(token, ".") {
			output = stripExt(filepath.Base(prev)) + "." + token
		}
		outputs = append(outputs, output)
		prev = output
	}
	return outputs
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
