package config

import (
	"fmt"
	"regexp"
)

// Variable declares a value referenced elsewhere in config as var.<name>.
// Secret variables never carry a default; their values live in the local
// vars file so they stay out of committed config.
type Variable struct {
	Name    string `hcl:"name,label"`
	Default string `hcl:"default,optional"`
	Secret  bool   `hcl:"secret,optional"`
}

var varNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (v *Variable) Validate() error {
	if !varNamePattern.MatchString(v.Name) {
		return fmt.Errorf("name must be an identifier (letters, digits, underscores)")
	}
	if v.Secret && v.Default != "" {
		return fmt.Errorf("secret variables cannot set a default in config")
	}
	return nil
}
