package output

import "gopkg.in/yaml.v3"

// YAMLFormatter formats reports as YAML.
type YAMLFormatter struct{}

// Format implements Formatter.
func (*YAMLFormatter) Format(report *Report) ([]byte, error) {
	return yaml.Marshal(toDocument(report))
}
